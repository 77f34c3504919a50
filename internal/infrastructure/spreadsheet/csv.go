package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// CSVParser reads a delimited file. It strips a UTF-8 BOM, falls back to
// Windows-1252 for files exported by spreadsheet tools, and guesses the
// delimiter from the header line unless one is set.
type CSVParser struct {
	delimiter  rune
	lazyQuotes bool
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter fixes the field delimiter
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes toggles lenient quote handling (default on)
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// NewCSVParser creates a parser over data
func NewCSVParser(data []byte, opts ...ParserOption) (*CSVParser, error) {
	p := &CSVParser{lazyQuotes: true}
	for _, opt := range opts {
		opt(p)
	}

	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	var r io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}
	p.bufReader = bufio.NewReader(r)

	if p.delimiter == 0 {
		p.delimiter = p.sniffDelimiter()
	}

	p.reader = csv.NewReader(p.bufReader)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = p.lazyQuotes
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// sniffDelimiter picks ';' or tab when the first line holds more of them
// than commas.
func (p *CSVParser) sniffDelimiter() rune {
	line, _ := p.bufReader.Peek(4096)
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// Table reads the header row and every data row.
func (p *CSVParser) Table() (*Table, error) {
	header, err := p.reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var cells [][]string
	line := 1
	for {
		record, err := p.reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", line, err)
		}
		cells = append(cells, record)
	}

	t := newTable(header, cells)
	if len(t.Headers) == 0 {
		return nil, ErrMissingHeader
	}
	return t, nil
}

// ReadCSV parses a delimited upload
func ReadCSV(data []byte, opts ...ParserOption) (*Table, error) {
	p, err := NewCSVParser(data, opts...)
	if err != nil {
		return nil, err
	}
	return p.Table()
}

func trimSpaces(s string) string {
	start, end := 0, len(s)
	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:])
		if !isWhitespace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if !isWhitespace(r) {
			break
		}
		end -= size
	}
	return s[start:end]
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '\u00a0', '\u200b', '\ufeff':
		return true
	}
	return false
}
