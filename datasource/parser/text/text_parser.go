// Package text reads datasets of strings from plain text, one element per line
package text

import (
	"bufio"
	"io"

	"github.com/cockroachdb/errors"
)

// ParserConf configures a text Parser
type ParserConf struct {
	HeaderLines   int // The number of lines to ignore from the beginning of each file. Defaults to 0.
	MaxBufferSize int // Maximum size in bytes of the buffer used to read lines from the file
}

// Parser produces one string element per line of text
type Parser struct {
	conf *ParserConf
}

// CreateParser returns a new text Parser
func CreateParser(conf *ParserConf) *Parser {
	if conf.MaxBufferSize == 0 {
		conf.MaxBufferSize = bufio.MaxScanTokenSize
	}
	return &Parser{conf: conf}
}

// ReadAll reads every line of text. path is only used to describe errors.
func (p *Parser) ReadAll(r io.Reader, path string) ([]interface{}, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), p.conf.MaxBufferSize)
	var res []interface{}
	line := 0
	for scanner.Scan() {
		line++
		if line <= p.conf.HeaderLines {
			continue
		}
		res = append(res, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "unable to read %s after line %d", path, line)
	}
	return res, nil
}
