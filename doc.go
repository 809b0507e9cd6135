// Package sifplan contains the core vocabulary of Sifplan, a compiler which turns a logical dataflow
// plan into an executable plan whose operators are each bound to one of several execution platforms.
// This root package defines the types shared by every stage of compilation (dataset types, operator
// kinds and load estimates), and is an excellent overview of Sifplan's key concepts.
package sifplan
