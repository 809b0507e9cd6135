package jsonl

import (
	"bufio"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	sifplanerrors "github.com/go-sif/sifplan/errors"
	"github.com/go-sif/sifplan/logging"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ParserConf configures a JSONL Parser, suitable for JSON lines data
type ParserConf struct {
	Fields        []string // gjson paths of the Record fields, in order
	HeaderLines   int      // The number of lines to ignore from the beginning of each file. Defaults to 0.
	Comment       rune     // Lines beginning with the comment character are ignored. Defaults to no comment character.
	MaxBufferSize int      // Maximum size in bytes of the buffer used to read lines from the file
}

// Parser produces Records from JSONL data
type Parser struct {
	conf *ParserConf
}

// CreateParser returns a new JSONL Parser. Fields are located lazily in each line of JSON using
// their name, which should be a gjson path. Values within the JSON which do not correspond to a
// field are ignored, and fields missing from a line are nil.
func CreateParser(conf *ParserConf) *Parser {
	if conf.MaxBufferSize == 0 {
		conf.MaxBufferSize = bufio.MaxScanTokenSize
	}
	return &Parser{conf: conf}
}

// Fields returns the field names of the Records produced by this Parser
func (p *Parser) Fields() []string {
	return append([]string(nil), p.conf.Fields...)
}

// Parse starts reading JSONL data. path is only used to describe errors.
func (p *Parser) Parse(r io.Reader, path string) (*Iterator, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), p.conf.MaxBufferSize)
	it := &Iterator{parser: p, scanner: scanner, path: path}
	// ignore header lines, if configured to do so
	for i := 0; i < p.conf.HeaderLines; i++ {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, errors.Wrapf(err, "unable to read header of %s", path)
			}
			break
		}
		it.line++
	}
	return it, nil
}

// ReadAll reads every Record of JSONL data. path is only used to describe errors.
func (p *Parser) ReadAll(r io.Reader, path string) ([]interface{}, error) {
	it, err := p.Parse(r, path)
	if err != nil {
		return nil, err
	}
	return it.ReadAll()
}

// Iterator produces the Records of JSONL data, one per non-empty line
type Iterator struct {
	parser  *Parser
	scanner *bufio.Scanner
	path    string
	line    int
}

// Next returns the next Record, or io.EOF when the data is exhausted
func (it *Iterator) Next() (interface{}, error) {
	for {
		if !it.scanner.Scan() {
			if err := it.scanner.Err(); err != nil {
				return nil, errors.Wrapf(err, "unable to read %s after line %d", it.path, it.line)
			}
			return nil, io.EOF
		}
		it.line++
		rowString := it.scanner.Text()
		trimmed := strings.TrimSpace(rowString)
		if len(trimmed) == 0 || (it.parser.conf.Comment != 0 && strings.HasPrefix(trimmed, string(it.parser.conf.Comment))) {
			continue
		}
		if !gjson.Valid(rowString) {
			logging.Logger().Debug("unable to parse line", zap.String("path", it.path), zap.Int("line", it.line), zap.String("content", rowString))
			return nil, sifplanerrors.MalformedLineError{Path: it.path, Line: it.line, Reason: "invalid JSON"}
		}
		return ParseJSONRecord(it.parser.conf.Fields, gjson.Parse(rowString)), nil
	}
}

// ReadAll consumes every remaining Record
func (it *Iterator) ReadAll() ([]interface{}, error) {
	var res []interface{}
	for {
		value, err := it.Next()
		if err == io.EOF {
			return res, nil
		} else if err != nil {
			return nil, err
		}
		res = append(res, value)
	}
}
