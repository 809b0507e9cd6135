package tsv

import (
	"io"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-sif/sifplan"
	sifplanerrors "github.com/go-sif/sifplan/errors"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	val, err := ParseLine(sifplan.IntElement, "42\t")
	require.Nil(t, err)
	require.Equal(t, int64(42), val)
	val, err = ParseLine(sifplan.FloatElement, "3.14\t")
	require.Nil(t, err)
	require.Equal(t, 3.14, val)
	val, err = ParseLine(sifplan.StringElement, "hello\tworld")
	require.Nil(t, err)
	require.Equal(t, "hello", val)
	val, err = ParseLine(sifplan.Tuple2Element, "7\t2.5")
	require.Nil(t, err)
	require.Equal(t, sifplan.Tuple2{Field0: 7, Field1: 2.5}, val)
	// only the first tab separates the value
	val, err = ParseLine(sifplan.StringElement, "\tempty\tvalue")
	require.Nil(t, err)
	require.Equal(t, "", val)
}

func TestParseLineErrors(t *testing.T) {
	var malformed sifplanerrors.MalformedLineError
	_, err := ParseLine(sifplan.IntElement, "42")
	require.ErrorAs(t, err, &malformed)
	_, err = ParseLine(sifplan.IntElement, "forty-two\t")
	require.ErrorAs(t, err, &malformed)
	_, err = ParseLine(sifplan.Tuple2Element, "1\tx")
	require.ErrorAs(t, err, &malformed)
	var unsupported sifplanerrors.UnsupportedElementTypeError
	_, err = ParseLine(sifplan.RecordElement, "1\t2")
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, "record", unsupported.Element)
}

func TestParser(t *testing.T) {
	parser := CreateParser(&ParserConf{Element: sifplan.IntElement, HeaderLines: 1})
	it, err := parser.Parse(strings.NewReader("value\tcomment\n1\ta\n2\tb\n3\t\n"), "mem.tsv")
	require.Nil(t, err)
	values, err := it.ReadAll()
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, values)
	_, err = it.Next()
	require.Equal(t, io.EOF, err)
}

func TestParserReportsLine(t *testing.T) {
	parser := CreateParser(&ParserConf{Element: sifplan.FloatElement})
	it, err := parser.Parse(strings.NewReader("1.5\t\nbroken\n"), "mem.tsv")
	require.Nil(t, err)
	_, err = it.Next()
	require.Nil(t, err)
	_, err = it.Next()
	var malformed sifplanerrors.MalformedLineError
	require.True(t, errors.As(err, &malformed))
	require.Equal(t, "mem.tsv", malformed.Path)
	require.Equal(t, 2, malformed.Line)
}

func TestUnsupportedElementFailsAtReadTime(t *testing.T) {
	// creating a parser never fails
	parser := CreateParser(&ParserConf{Element: sifplan.RecordElement})
	require.Equal(t, sifplan.RecordElement, parser.Element())
	_, err := parser.Parse(strings.NewReader("1\t\n"), "mem.tsv")
	var unsupported sifplanerrors.UnsupportedElementTypeError
	require.True(t, errors.As(err, &unsupported))
}

func TestReadAll(t *testing.T) {
	values, err := CreateParser(&ParserConf{}).ReadAll(strings.NewReader("a\t1\nb\t2\n"), "mem.tsv")
	require.Nil(t, err)
	require.Equal(t, []interface{}{"a", "b"}, values)
}
