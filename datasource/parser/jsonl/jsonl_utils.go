package jsonl

import (
	"strings"

	"github.com/go-sif/sifplan"
	"github.com/tidwall/gjson"
)

// ParseJSONRecord builds a Record from a parsed line of JSON, one value per field path
func ParseJSONRecord(fields []string, data gjson.Result) sifplan.Record {
	record := make(sifplan.Record, len(fields))
	for i, field := range fields {
		record[i] = parseValue(data.Get(field))
	}
	return record
}

// parseValue converts a gjson value. Whole numbers become int64, so that they stay integers.
func parseValue(val gjson.Result) interface{} {
	switch val.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.String:
		return val.Str
	case gjson.Number:
		if !strings.ContainsAny(val.Raw, ".eE") {
			return val.Int()
		}
		return val.Float()
	default:
		return val.Value()
	}
}
