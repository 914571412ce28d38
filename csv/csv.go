// Package csv wraps the stdlib csv reader with a column-oriented API for the GTFS static parser.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/yyctransit/gtfs/constants"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type File struct {
	name                   constants.StaticFile
	csvReader              *csv.Reader
	headerMap              map[string]int
	rowNumber              int
	missingRequiredColumns []string
	currentRow             *row
	ioErr                  error
	closer                 func() error
}

type row struct {
	cells       []string
	missingKeys []string
}

// New reads the header of the file. The reader is closed on error.
func New(name constants.StaticFile, reader io.ReadCloser) (*File, error) {
	csvReader := BOMAwareCSVReader(reader)
	// Feeds in the wild sometimes have ragged rows; missing cells are treated as empty.
	csvReader.FieldsPerRecord = -1
	header, err := csvReader.Read()
	csvReader.ReuseRecord = true
	if err == io.EOF {
		reader.Close()
		return nil, fmt.Errorf("%s contains no rows", name)
	} else if err != nil {
		reader.Close()
		return nil, err
	}
	m := map[string]int{}
	for i, colHeader := range header {
		m[strings.TrimSpace(colHeader)] = i
	}
	return &File{
		name:      name,
		headerMap: m,
		csvReader: csvReader,
		closer:    reader.Close,
	}, nil
}

func (f *File) Name() constants.StaticFile {
	return f.name
}

type RequiredColumn struct {
	i int
	s string
	f *File
}

func (f *File) RequiredColumn(s string) RequiredColumn {
	i, b := f.headerMap[s]
	if !b {
		f.missingRequiredColumns = append(f.missingRequiredColumns, s)
		i = -1
	}
	return RequiredColumn{i, s, f}
}

func (f *File) MissingRequiredColumns() []string {
	if len(f.missingRequiredColumns) == 0 {
		return nil
	}
	return f.missingRequiredColumns
}

func (c RequiredColumn) Read() string {
	r := c.f.currentRow
	if c.i < 0 || c.i >= len(r.cells) || r.cells[c.i] == "" {
		r.missingKeys = append(r.missingKeys, c.s)
		return ""
	}
	return strings.Clone(r.cells[c.i])
}

type OptionalColumn struct {
	i int
	f *File
}

func (f *File) OptionalColumn(s string) OptionalColumn {
	i, b := f.headerMap[s]
	if !b {
		i = -1
	}
	return OptionalColumn{i: i, f: f}
}

func (c OptionalColumn) Read() string {
	return c.ReadOr("")
}

// ReadOr returns s when the column is absent or the cell is empty.
func (c OptionalColumn) ReadOr(s string) string {
	cells := c.f.currentRow.cells
	if c.i < 0 || c.i >= len(cells) || cells[c.i] == "" {
		return s
	}
	// The CSV reader reuses its buffers across rows.
	return strings.Clone(cells[c.i])
}

func (f *File) NextRow() bool {
	cells, err := f.csvReader.Read()
	if err == io.EOF {
		f.currentRow = nil
		return false
	}
	if err != nil {
		f.currentRow = nil
		f.ioErr = err
		return false
	}
	if f.currentRow == nil {
		f.currentRow = &row{}
	}
	f.rowNumber += 1
	f.currentRow.cells = cells
	f.currentRow.missingKeys = nil
	return true
}

// RowNumber is the 1-based number of the current data row, not counting the header.
func (f *File) RowNumber() int {
	return f.rowNumber
}

func (f *File) MissingRowKeys() []string {
	return f.currentRow.missingKeys
}

func (f *File) Close() error {
	closeErr := f.closer()
	if f.ioErr != nil {
		return f.ioErr
	}
	return closeErr
}

// From: https://stackoverflow.com/a/76023436
//
// BOMAwareCSVReader will detect a UTF BOM (Byte Order Mark) at the
// start of the data and transform to UTF8 accordingly.
// If there is no BOM, it will read the data without any transformation.
func BOMAwareCSVReader(reader io.Reader) *csv.Reader {
	var transformer = unicode.BOMOverride(encoding.Nop.NewDecoder())
	return csv.NewReader(transform.NewReader(reader, transformer))
}
