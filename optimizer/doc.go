// Package optimizer turns a logical Plan into a FullyBound one. Each step costs every candidate
// replacement proposed by the registered mappings, and applies the single cheapest one, until
// no logical Operator remains.
package optimizer
