package tsv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/errors"
)

// IsSupported returns true iff TSV lines can be parsed as the given element type
func IsSupported(element sifplan.ElementKind) bool {
	switch element {
	case sifplan.IntElement, sifplan.FloatElement, sifplan.StringElement, sifplan.Tuple2Element:
		return true
	default:
		return false
	}
}

// ParseLine parses a single TSV line as the given element type. The value of a line occupies
// the bytes before its first tab, except for tuple2 elements, which take an integer before the
// first tab and a float from everything after it.
func ParseLine(element sifplan.ElementKind, line string) (interface{}, error) {
	tabPos := strings.IndexByte(line, '\t')
	if tabPos < 0 && IsSupported(element) {
		return nil, errors.MalformedLineError{Reason: "no tab character"}
	}
	switch element {
	case sifplan.IntElement:
		ival, err := strconv.ParseInt(line[:tabPos], 10, 64)
		if err != nil {
			return nil, errors.MalformedLineError{Reason: fmt.Sprintf("%q is not an integer", line[:tabPos])}
		}
		return ival, nil
	case sifplan.FloatElement:
		fval, err := strconv.ParseFloat(line[:tabPos], 64)
		if err != nil {
			return nil, errors.MalformedLineError{Reason: fmt.Sprintf("%q is not a float", line[:tabPos])}
		}
		return fval, nil
	case sifplan.StringElement:
		return line[:tabPos], nil
	case sifplan.Tuple2Element:
		key, err := strconv.ParseInt(line[:tabPos], 10, 64)
		if err != nil {
			return nil, errors.MalformedLineError{Reason: fmt.Sprintf("%q is not an integer", line[:tabPos])}
		}
		val, err := strconv.ParseFloat(line[tabPos+1:], 64)
		if err != nil {
			return nil, errors.MalformedLineError{Reason: fmt.Sprintf("%q is not a float", line[tabPos+1:])}
		}
		return sifplan.Tuple2{Field0: key, Field1: val}, nil
	default:
		return nil, errors.UnsupportedElementTypeError{Element: string(element)}
	}
}
