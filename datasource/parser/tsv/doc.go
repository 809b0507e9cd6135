// Package tsv reads datasets from tab-separated files, where the value of each line occupies the bytes before the first tab
package tsv
