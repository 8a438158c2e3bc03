// Package csvimport reads chart-of-accounts spreadsheets exported as CSV.
package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultMaxBytes caps the size of an import file
const DefaultMaxBytes int64 = 10 << 20

// candidate delimiters, in tie-break order
var delimiters = []rune{',', ';', '\t', '|'}

// CSVParser reads a header row followed by data rows. Header names are always
// trimmed; values keep their leading whitespace unless trimming is enabled, since
// indentation in a name column can encode the account tree.
type CSVParser struct {
	delimiter  rune
	lazyQuotes bool
	trimValues bool
	maxBytes   int64

	headers    []string
	headerMap  map[string]int
	currentRow int
	totalRows  int
	reader     *csv.Reader
	source     *limitedReader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter; zero sniffs it from the header line
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// WithTrimSpace trims leading and trailing whitespace from values
func WithTrimSpace(trim bool) ParserOption {
	return func(p *CSVParser) {
		p.trimValues = trim
	}
}

// WithMaxBytes caps how much of the input is read
func WithMaxBytes(n int64) ParserOption {
	return func(p *CSVParser) {
		p.maxBytes = n
	}
}

// NewCSVParser creates a parser, stripping a UTF-8 byte order mark and rejecting
// input that is empty or not UTF-8
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	p := &CSVParser{
		lazyQuotes: true,
		trimValues: true,
		maxBytes:   DefaultMaxBytes,
		headerMap:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.source = &limitedReader{r: r, remaining: p.maxBytes}
	buf := bufio.NewReader(p.source)

	if bom, err := buf.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = buf.Discard(3)
	}

	head, err := buf.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, ErrEmptyFile
	}
	if !validUTF8Prefix(head) {
		return nil, ErrInvalidEncoding
	}
	if p.delimiter == 0 {
		p.delimiter = sniffDelimiter(head)
	}

	p.reader = csv.NewReader(buf)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = p.lazyQuotes
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// Delimiter returns the delimiter in use
func (p *CSVParser) Delimiter() rune {
	return p.delimiter
}

// ParseHeader reads the header row
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return p.readError(1, err)
	}

	p.headers = make([]string, len(record))
	nonEmpty := 0
	for i, h := range record {
		h = strings.TrimSpace(h)
		p.headers[i] = h
		if h == "" {
			continue
		}
		nonEmpty++
		if _, dup := p.headerMap[h]; !dup {
			p.headerMap[h] = i
		}
	}
	if nonEmpty == 0 {
		return ErrMissingHeader
	}
	p.currentRow = 1
	return nil
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader checks if a header exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// Row is one data row keyed by header name
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty returns true if the row has no non-blank value
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row, returning io.EOF at the end of input
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, p.readError(p.currentRow, err)
	}
	p.totalRows++

	row := &Row{LineNumber: p.currentRow, Data: make(map[string]string, len(p.headers))}
	for i, h := range p.headers {
		if h == "" {
			continue
		}
		if _, first := p.headerMap[h]; first && p.headerMap[h] != i {
			continue
		}
		v := ""
		if i < len(record) {
			v = strings.TrimRight(record[i], "\r\n")
		}
		if p.trimValues {
			v = strings.TrimSpace(v)
		}
		row.Data[h] = v
	}
	return row, nil
}

// ReadAllRows reads the remaining rows, skipping blank ones
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}

// CurrentRow returns the current line number (the header is line 1)
func (p *CSVParser) CurrentRow() int {
	return p.currentRow
}

// TotalRows returns the number of data rows read
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}

func (p *CSVParser) readError(line int, err error) error {
	if errors.Is(err, ErrFileTooLarge) {
		return ErrFileTooLarge
	}
	return NewRowError(line, "", ErrCodeImportMalformedRow, err.Error())
}

// sniffDelimiter picks the candidate that occurs most often on the first line
func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	best, bestCount := ',', 0
	for _, d := range delimiters {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// validUTF8Prefix is utf8.Valid that tolerates a rune cut off by the peek window
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		r, _ := utf8.DecodeLastRune(b)
		if r != utf8.RuneError {
			return false
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}

// limitedReader fails with ErrFileTooLarge instead of truncating silently
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		var probe [1]byte
		if n, _ := l.r.Read(probe[:]); n > 0 {
			return 0, ErrFileTooLarge
		}
		return 0, io.EOF
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
