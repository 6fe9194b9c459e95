package table

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

// Row is one imported line, keyed by lower-cased header.
type Row map[string]string

// Get returns the trimmed value under header, case-insensitively.
func (r Row) Get(header string) string {
	return strings.TrimSpace(r[strings.ToLower(strings.TrimSpace(header))])
}

// Record is one exported line, keyed by header.
type Record map[string]string

type (
	// ImportConfig maps spreadsheet rows to items.
	ImportConfig[T any] struct {
		Headers   []string // columns the file must carry
		Required  []string // columns that must be filled on every row
		Mapper    func(row Row) T
		Validator func(row Row, index int) []string // extra checks; index is the 0-based data line
	}

	// ExportConfig maps items to spreadsheet rows.
	ExportConfig[T any] struct {
		Filename string // without extension
		Headers  []string
		Mapper   func(item T) Record
	}

	// RowError lists the problems found on one data row; Line is 1-based.
	RowError struct {
		Line     int      `json:"line"`
		Messages []string `json:"messages"`
	}

	ImportReport struct {
		Total    int        `json:"total"`
		Imported int        `json:"imported"`
		Errors   []RowError `json:"errors"`
	}
)

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, strings.Join(e.Messages, "; "))
}

// OK reports whether every row was imported.
func (r ImportReport) OK() bool { return len(r.Errors) == 0 && r.Imported == r.Total }

var ErrMissingHeaders = errors.New("missing headers")

// Import reads rows from r, validates them and commits the valid ones.
// Invalid rows are reported, never returned as an error; the returned error is reserved for
// unreadable input, missing headers and a failed OnImport. Nothing is rolled back.
func (t *Table[T]) Import(ctx context.Context, r io.Reader, format Format) (ImportReport, error) {
	var report ImportReport
	cfg := t.cfg.Import
	if cfg == nil || cfg.Mapper == nil {
		return report, ErrNoHandler
	}

	records, err := readRecords(r, format)
	if err != nil {
		return report, err
	}
	if len(records) == 0 {
		return report, errors.Wrap(ErrMissingHeaders, strings.Join(cfg.Headers, ", "))
	}

	head := records[0]
	header := make([]string, len(head.fields))
	present := make(map[string]bool, len(header))
	for i, h := range head.fields {
		header[i] = strings.ToLower(strings.TrimSpace(h))
		present[header[i]] = true
	}
	var missing []string
	for _, h := range cfg.Headers {
		if !present[strings.ToLower(h)] {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return report, errors.Wrap(ErrMissingHeaders, strings.Join(missing, ", "))
	}

	type pending struct {
		line int
		item T
	}
	var (
		valid []pending
		taken = append([]T(nil), t.data...)
	)
	for _, rec := range records[1:] {
		row := make(Row, len(header))
		for j, h := range header {
			if j < len(rec.fields) && h != "" {
				row[h] = rec.fields[j]
			}
		}

		// lines count from the first line under the header, blank ones included
		line := rec.line - head.line
		report.Total++
		item, msgs := t.importRow(row, line-1)
		if len(msgs) == 0 {
			if err := t.checkUnique(item, "", taken); err != nil {
				msgs = errorMessages(err)
			}
		}
		if len(msgs) > 0 {
			report.Errors = append(report.Errors, RowError{Line: line, Messages: msgs})
			continue
		}
		taken = append(taken, item)
		valid = append(valid, pending{line: line, item: item})
	}

	if len(valid) == 0 {
		return report, nil
	}
	if t.h.OnImport != nil {
		items := make([]T, 0, len(valid))
		for _, p := range valid {
			items = append(items, p.item)
		}
		if err := t.h.OnImport(ctx, items); err != nil {
			return report, errors.Wrap(err, "committing import")
		}
		report.Imported = len(items)
		return report, nil
	}
	if t.h.OnAdd == nil {
		return report, ErrNoHandler
	}
	for _, p := range valid {
		if err := t.h.OnAdd(ctx, p.item); err != nil {
			report.Errors = append(report.Errors, RowError{Line: p.line, Messages: errorMessages(err)})
			continue
		}
		report.Imported++
	}
	return report, nil
}

func (t *Table[T]) importRow(row Row, index int) (T, []string) {
	cfg := t.cfg.Import

	var msgs []string
	for _, h := range cfg.Required {
		if row.Get(h) == "" {
			msgs = append(msgs, fmt.Sprintf("%s is required", h))
		}
	}
	if cfg.Validator != nil {
		msgs = append(msgs, cfg.Validator(row, index)...)
	}

	item := Clean(cfg.Mapper(row))
	if len(msgs) > 0 {
		return item, msgs
	}
	if t.cfg.Validate != nil {
		if err := t.cfg.Validate(item); err != nil {
			return item, errorMessages(err)
		}
	}
	return item, nil
}

func errorMessages(err error) []string {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 0 {
		msgs := make([]string, 0, len(vErr.Fields))
		for _, fld := range vErr.Fields {
			msgs = append(msgs, fld.Error)
		}
		return msgs
	}
	return []string{err.Error()}
}

// Export writes the rows matching q and returns the file name to offer.
func (t *Table[T]) Export(w io.Writer, q Query, format Format) (string, error) {
	cfg := t.cfg.Export
	if cfg == nil || cfg.Mapper == nil {
		return "", ErrNoHandler
	}

	rows := t.Rows(q)
	records := make([][]string, 0, len(rows))
	for _, item := range rows {
		rec := cfg.Mapper(item)
		line := make([]string, len(cfg.Headers))
		for i, h := range cfg.Headers {
			line[i] = rec[h]
		}
		records = append(records, line)
	}

	if err := writeRecords(w, format, cfg.Headers, records); err != nil {
		return "", err
	}

	name := cfg.Filename
	if name == "" {
		name = t.cfg.Name
	}
	return name + format.Ext(), nil
}
