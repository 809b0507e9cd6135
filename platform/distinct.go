package platform

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/go-sif/sifplan"
)

// distinct keeps the first occurrence of every value, in input order. Values are bucketed by
// hash and compared exactly within a bucket.
func distinct(values []interface{}) []interface{} {
	buckets := make(map[uint64][]interface{}, len(values))
	d := xxhash.New()
	var res []interface{}
	for _, v := range values {
		d.Reset()
		writeValue(d, v)
		h := d.Sum64()
		dup := false
		for _, seen := range buckets[h] {
			if reflect.DeepEqual(seen, v) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		buckets[h] = append(buckets[h], v)
		res = append(res, v)
	}
	return res
}

// writeValue feeds a type tag and the contents of a value to a hash
func writeValue(d *xxhash.Digest, v interface{}) {
	var buf [9]byte
	word := func(tag byte, x uint64) {
		buf[0] = tag
		binary.LittleEndian.PutUint64(buf[1:], x)
		_, _ = d.Write(buf[:])
	}
	switch val := v.(type) {
	case nil:
		_, _ = d.Write([]byte{0})
	case int64:
		word(1, uint64(val))
	case int:
		word(2, uint64(val))
	case float64:
		word(3, math.Float64bits(val))
	case bool:
		if val {
			word(4, 1)
		} else {
			word(4, 0)
		}
	case string:
		word(5, uint64(len(val)))
		_, _ = d.WriteString(val)
	case sifplan.Tuple2:
		word(6, uint64(val.Field0))
		word(6, math.Float64bits(val.Field1))
	case sifplan.Record:
		word(7, uint64(len(val)))
		for _, field := range val {
			writeValue(d, field)
		}
	default:
		_, _ = fmt.Fprintf(d, "%T:%v", val, val)
	}
}
