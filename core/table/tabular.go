package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Format is a spreadsheet file format used by import and export.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown file format")

// ParseFormat reads a format name or a file name ending with a known extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[i+1:]
	}
	switch Format(s) {
	case CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	}
	return "", errors.Wrap(ErrUnknownFormat, s)
}

func (f Format) Ext() string { return "." + string(f) }

func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

const sheetName = "Sheet1"

// record is one line of a spreadsheet; line is its 1-based position in the file.
type record struct {
	line   int
	fields []string
}

// readRecords returns every non-empty line of the first sheet, header included.
// Blank lines are skipped but still count in the line numbers.
func readRecords(r io.Reader, format Format) ([]record, error) {
	var (
		records []record
		err     error
	)
	switch format {
	case CSV:
		records, err = readCSV(r)
	case XLSX:
		records, err = readXLSX(r)
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, err
	}

	out := records[:0]
	for _, rec := range records {
		if !blankRecord(rec.fields) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func readCSV(r io.Reader) ([]record, error) {
	br := bufio.NewReader(r)
	// drop the UTF-8 BOM spreadsheet tools like to write
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	// short inputs return what is there along with io.EOF
	head, _ := br.Peek(4096)

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comma = sniffDelimiter(head)

	// csv.Reader skips empty lines; FieldPos keeps the real line of each record
	var records []record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading csv")
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
}

// sniffDelimiter picks ';' when the header line holds more semicolons than commas.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte(";")) > bytes.Count(head, []byte(",")) {
		return ';'
	}
	return ','
}

func readXLSX(r io.Reader) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening xlsx")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheet")
	}
	// GetRows keeps empty rows between filled ones, so the index is the sheet row
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q", sheets[0])
	}
	records := make([]record, 0, len(rows))
	for i, row := range rows {
		records = append(records, record{line: i + 1, fields: row})
	}
	return records, nil
}

// writeRecords writes headers followed by records.
func writeRecords(w io.Writer, format Format, headers []string, records [][]string) error {
	switch format {
	case CSV:
		return writeCSV(w, headers, records)
	case XLSX:
		return writeXLSX(w, headers, records)
	}
	return ErrUnknownFormat
}

func writeCSV(w io.Writer, headers []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	if err := cw.WriteAll(records); err != nil {
		return errors.Wrap(err, "writing csv rows")
	}
	return nil
}

func writeXLSX(w io.Writer, headers []string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return errors.Wrap(err, "writing xlsx header")
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing xlsx cell")
		}
		rec := rec
		if err := f.SetSheetRow(sheetName, cell, &rec); err != nil {
			return errors.Wrapf(err, "writing xlsx row %d", i+1)
		}
	}
	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing xlsx")
	}
	return nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
