// Package file provides a DataSource which reads a dataset from files on disk, named by a glob
// or a directory. Files are read in their entirety, in lexical order.
package file
