package filechannel

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/go-sif/sifplan"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Codec is the compression applied to a file channel
type Codec string

const (
	// LZ4Codec compresses file channels with lz4, favouring speed
	LZ4Codec Codec = "lz4"
	// ZstdCodec compresses file channels with zstd, favouring size
	ZstdCodec Codec = "zstd"
)

// envelope tags an encoded element with its kind, so that numeric types survive the round trip
type envelope struct {
	Kind  string              `json:"k"`
	Value jsoniter.RawMessage `json:"v,omitempty"`
}

type tuple2 struct {
	Field0 int64   `json:"f0"`
	Field1 float64 `json:"f1"`
}

// Writer encodes elements to a compressed file channel
type Writer struct {
	compressor io.WriteCloser
	encoder    *jsoniter.Encoder
}

// NewWriter creates a Writer, compressing with the given Codec
func NewWriter(w io.Writer, codec Codec) (*Writer, error) {
	var compressor io.WriteCloser
	switch codec {
	case LZ4Codec:
		compressor = lz4.NewWriter(w)
	case ZstdCodec:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, err
		}
		compressor = enc
	default:
		return nil, fmt.Errorf("unknown file channel codec %q", codec)
	}
	return &Writer{compressor: compressor, encoder: json.NewEncoder(compressor)}, nil
}

// Write encodes one element
func (w *Writer) Write(value interface{}) error {
	env, err := encode(value)
	if err != nil {
		return err
	}
	return w.encoder.Encode(env)
}

// Close flushes any buffered data. It does not close the underlying io.Writer.
func (w *Writer) Close() error {
	return w.compressor.Close()
}

// Reader decodes elements from a compressed file channel, one line per element
type Reader struct {
	lines  *bufio.Reader
	closer func()
}

// NewReader creates a Reader, decompressing with the given Codec
func NewReader(r io.Reader, codec Codec) (*Reader, error) {
	switch codec {
	case LZ4Codec:
		return &Reader{lines: bufio.NewReader(lz4.NewReader(r)), closer: func() {}}, nil
	case ZstdCodec:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &Reader{lines: bufio.NewReader(dec), closer: dec.Close}, nil
	default:
		return nil, fmt.Errorf("unknown file channel codec %q", codec)
	}
}

// Read decodes the next element, returning io.EOF when the channel is exhausted
func (r *Reader) Read() (interface{}, error) {
	for {
		line, err := r.lines.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var env envelope
			if uerr := json.Unmarshal(line, &env); uerr != nil {
				return nil, uerr
			}
			return decode(env)
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadAll decodes every remaining element
func (r *Reader) ReadAll() ([]interface{}, error) {
	var res []interface{}
	for {
		value, err := r.Read()
		if err == io.EOF {
			return res, nil
		} else if err != nil {
			return nil, err
		}
		res = append(res, value)
	}
}

// Close releases the resources of the decompressor
func (r *Reader) Close() {
	r.closer()
}

func encode(value interface{}) (envelope, error) {
	var kind string
	var payload interface{}
	switch v := value.(type) {
	case nil:
		return envelope{Kind: "null"}, nil
	case int:
		kind, payload = string(sifplan.IntElement), int64(v)
	case int32:
		kind, payload = string(sifplan.IntElement), int64(v)
	case int64:
		kind, payload = string(sifplan.IntElement), v
	case float32:
		kind, payload = string(sifplan.FloatElement), float64(v)
	case float64:
		kind, payload = string(sifplan.FloatElement), v
	case string:
		kind, payload = string(sifplan.StringElement), v
	case bool:
		kind, payload = "bool", v
	case sifplan.Tuple2:
		kind, payload = string(sifplan.Tuple2Element), tuple2{Field0: v.Field0, Field1: v.Field1}
	case sifplan.Record:
		fields := make([]envelope, len(v))
		for i, field := range v {
			env, err := encode(field)
			if err != nil {
				return envelope{}, err
			}
			fields[i] = env
		}
		kind, payload = string(sifplan.RecordElement), fields
	default:
		return envelope{}, fmt.Errorf("file channels cannot encode values of type %T", value)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return envelope{}, err
	}
	return envelope{Kind: kind, Value: raw}, nil
}

func decode(env envelope) (interface{}, error) {
	switch env.Kind {
	case "null":
		return nil, nil
	case string(sifplan.IntElement):
		var v int64
		err := json.Unmarshal(env.Value, &v)
		return v, err
	case string(sifplan.FloatElement):
		var v float64
		err := json.Unmarshal(env.Value, &v)
		return v, err
	case string(sifplan.StringElement):
		var v string
		err := json.Unmarshal(env.Value, &v)
		return v, err
	case "bool":
		var v bool
		err := json.Unmarshal(env.Value, &v)
		return v, err
	case string(sifplan.Tuple2Element):
		var v tuple2
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return sifplan.Tuple2{Field0: v.Field0, Field1: v.Field1}, nil
	case string(sifplan.RecordElement):
		var fields []envelope
		if err := json.Unmarshal(env.Value, &fields); err != nil {
			return nil, err
		}
		rec := make(sifplan.Record, len(fields))
		for i, field := range fields {
			v, err := decode(field)
			if err != nil {
				return nil, err
			}
			rec[i] = v
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("unknown element kind %q in file channel", env.Kind)
	}
}
