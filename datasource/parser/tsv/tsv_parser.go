package tsv

import (
	"bufio"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/go-sif/sifplan"
	sifplanerrors "github.com/go-sif/sifplan/errors"
)

// ParserConf configures a TSV Parser
type ParserConf struct {
	Element       sifplan.ElementKind // The element type produced by the Parser. Defaults to string.
	HeaderLines   int                 // The number of lines to ignore from the beginning of each file. Defaults to 0.
	MaxBufferSize int                 // Maximum size in bytes of the buffer used to read lines from the file
}

// Parser produces elements from TSV data
type Parser struct {
	conf *ParserConf
}

// CreateParser returns a new TSV Parser. The element type is only checked when data is read.
func CreateParser(conf *ParserConf) *Parser {
	if conf.Element == "" {
		conf.Element = sifplan.StringElement
	}
	if conf.MaxBufferSize == 0 {
		conf.MaxBufferSize = bufio.MaxScanTokenSize
	}
	return &Parser{conf: conf}
}

// Element returns the element type produced by this Parser
func (p *Parser) Element() sifplan.ElementKind {
	return p.conf.Element
}

// Parse starts reading TSV data. path is only used to describe errors.
func (p *Parser) Parse(r io.Reader, path string) (*Iterator, error) {
	if !IsSupported(p.conf.Element) {
		return nil, errors.Wrapf(sifplanerrors.UnsupportedElementTypeError{Element: string(p.conf.Element)}, "unable to read %s", path)
	}
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

// ReadAll reads every element of TSV data. path is only used to describe errors.
func (p *Parser) ReadAll(r io.Reader, path string) ([]interface{}, error) {
	it, err := p.Parse(r, path)
	if err != nil {
		return nil, err
	}
	return it.ReadAll()
}

// Iterator produces the elements of TSV data, one per line
type Iterator struct {
	parser  *Parser
	scanner *bufio.Scanner
	path    string
	line    int
}

// Next returns the next element, or io.EOF when the data is exhausted
func (it *Iterator) Next() (interface{}, error) {
	if !it.scanner.Scan() {
		if err := it.scanner.Err(); err != nil {
			return nil, errors.Wrapf(err, "unable to read %s after line %d", it.path, it.line)
		}
		return nil, io.EOF
	}
	it.line++
	value, err := ParseLine(it.parser.conf.Element, it.scanner.Text())
	if err != nil {
		var malformed sifplanerrors.MalformedLineError
		if errors.As(err, &malformed) {
			malformed.Path = it.path
			malformed.Line = it.line
			return nil, malformed
		}
		return nil, errors.Wrapf(err, "%s:%d", it.path, it.line)
	}
	return value, nil
}

// ReadAll consumes every remaining element
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
