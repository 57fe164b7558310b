// Package tabular reads and writes the semicolon separated files exchanged with
// the enrollment form and the previous cycles.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/wisselwerking/indeler/internal/utils"
)

const Delimiter = ';'

// UTF8 decodes UTF-8 input with or without a byte order mark.
var UTF8 encoding.Encoding = unicode.UTF8BOM

// Encoding looks up a character encoding by its WHATWG label, e.g. "iso-8859-15" or "utf-8".
func Encoding(label string) (encoding.Encoding, error) {
	if strings.EqualFold(strings.TrimSpace(label), "utf-8-sig") {
		return UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return enc, nil
}

// Table is a fully read file: its header in file order and every row keyed by header.
type Table struct {
	Header []string
	Rows   []Row
	index  map[string]int
}

type Row struct {
	Values []string
	table  *Table
}

// Get returns the trimmed value of the first named column that is present and non-empty.
func (r Row) Get(names ...string) string {
	for _, name := range names {
		pos, ok := r.table.index[utils.NormalizeHeader(name)]
		if !ok || pos >= len(r.Values) {
			continue
		}
		if v := strings.TrimSpace(r.Values[pos]); v != "" {
			return v
		}
	}
	return ""
}

// Map returns the row keyed by the original header names.
func (r Row) Map() map[string]string {
	out := make(map[string]string, len(r.table.Header))
	for i, h := range r.table.Header {
		if i < len(r.Values) {
			out[h] = r.Values[i]
		} else {
			out[h] = ""
		}
	}
	return out
}

func (t *Table) Has(name string) bool {
	_, ok := t.index[utils.NormalizeHeader(name)]
	return ok
}

// Read parses a delimited file with a header row. A nil encoding means UTF-8.
func Read(fs afero.Fs, path string, enc encoding.Encoding) (*Table, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, enc)
}

func Parse(r io.Reader, enc encoding.Encoding) (*Table, error) {
	if enc == nil {
		enc = UTF8
	}
	r = transform.NewReader(r, enc.NewDecoder())

	reader := csv.NewReader(r)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Table{index: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &Table{Header: make([]string, len(headers)), index: map[string]int{}}
	for i, h := range headers {
		h = strings.TrimSpace(strings.ReplaceAll(h, "\ufeff", ""))
		t.Header[i] = h
		key := utils.NormalizeHeader(h)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, Row{Values: rec, table: t})
	}
	return t, nil
}

// Write stores rows under the given header as UTF-8 with a byte order mark,
// which is what spreadsheet users on the receiving end expect.
func Write(fs afero.Fs, path string, header []string, rows [][]string) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, header, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func Encode(w io.Writer, header []string, rows [][]string) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)
	cw.Comma = Delimiter
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return tw.Close()
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
