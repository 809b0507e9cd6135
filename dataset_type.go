package sifplan

import "fmt"

// ElementKind describes the type of a single element flowing through a dataset
type ElementKind string

const (
	// AnyElement is a wildcard element type, compatible with any other element type
	AnyElement ElementKind = "any"
	// IntElement elements are int64 values
	IntElement ElementKind = "int"
	// FloatElement elements are float64 values
	FloatElement ElementKind = "float"
	// StringElement elements are string values
	StringElement ElementKind = "string"
	// Tuple2Element elements are Tuple2 values
	Tuple2Element ElementKind = "tuple2"
	// RecordElement elements are Record values
	RecordElement ElementKind = "record"
)

// Tuple2 is a pair of an integer key and a floating-point value
type Tuple2 struct {
	Field0 int64
	Field1 float64
}

// Record is an ordered list of field values
type Record []interface{}

// DataSetType is the type of the data passing through a slot: an element type and,
// optionally, a grouping (an iterator of elements per group)
type DataSetType struct {
	Element ElementKind
	Grouped bool
}

// DataSetOf returns the DataSetType for a flat dataset of the given element kind
func DataSetOf(element ElementKind) DataSetType {
	return DataSetType{Element: element}
}

// GroupedDataSetOf returns the DataSetType for a dataset of groups of the given element kind
func GroupedDataSetOf(element ElementKind) DataSetType {
	return DataSetType{Element: element, Grouped: true}
}

// coercion is an explicitly declared, compatible conversion between element kinds
type coercion struct {
	from ElementKind
	to   ElementKind
}

// coercions is the closed table of allowed element coercions
var coercions = map[coercion]bool{
	{from: IntElement, to: FloatElement}:     true,
	{from: Tuple2Element, to: RecordElement}: true,
}

// Equals returns true iff this and another DataSetType are structurally equal
func (t DataSetType) Equals(other DataSetType) bool {
	return t.Element == other.Element && t.Grouped == other.Grouped
}

// IsCompatibleWith returns true iff data of this type may flow into a slot of the target type
func (t DataSetType) IsCompatibleWith(target DataSetType) bool {
	if t.Grouped != target.Grouped {
		return false
	}
	if t.Element == target.Element || t.Element == AnyElement || target.Element == AnyElement {
		return true
	}
	return coercions[coercion{from: t.Element, to: target.Element}]
}

// String returns a textual representation of this DataSetType
func (t DataSetType) String() string {
	if t.Grouped {
		return fmt.Sprintf("Iterator<%s>", t.Element)
	}
	return string(t.Element)
}
