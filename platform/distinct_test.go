package platform

import (
	"testing"

	"github.com/go-sif/sifplan"
	"github.com/stretchr/testify/require"
)

func TestDistinctKeepsFirstOccurrence(t *testing.T) {
	in := []interface{}{
		int64(1), "a", int64(1), sifplan.Tuple2{Field0: 1, Field1: 2.5}, "a",
		sifplan.Record{"x", int64(2)}, sifplan.Tuple2{Field0: 1, Field1: 2.5},
		sifplan.Record{"x", int64(2)}, sifplan.Record{"x", int64(3)}, 1, nil, nil,
	}
	require.Equal(t, []interface{}{
		int64(1), "a", sifplan.Tuple2{Field0: 1, Field1: 2.5},
		sifplan.Record{"x", int64(2)}, sifplan.Record{"x", int64(3)}, 1, nil,
	}, distinct(in))
	require.Nil(t, distinct(nil))
}

func TestDistinctSeparatesTypes(t *testing.T) {
	// equal renderings of different types stay distinct
	in := []interface{}{int64(7), int(7), "7", float64(7), sifplan.Record{"ab", "c"}, sifplan.Record{"a", "bc"}}
	require.Equal(t, in, distinct(in))
}
