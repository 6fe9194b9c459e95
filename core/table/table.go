package table

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

var (
	ErrRowNotFound    = errors.New("row not found")
	ErrModalClosed    = errors.New("no form is open")
	ErrDeleteCanceled = errors.New("deletion canceled")
	ErrNoHandler      = errors.New("action not supported")
	ErrDuplicateValue = errors.New("value already used")
)

type (
	// Config declares how rows of type T are displayed and edited.
	Config[T any] struct {
		Name        string // resource name, used in URLs and filenames
		Title       string
		Columns     []Column[T]
		Filters     []Filter
		SearchKeys  []string
		Form        func() []FormField // add/edit inputs, built when the form is shown
		Import      *ImportConfig[T]
		Export      *ExportConfig[T]
		RowID       func(item T) string // defaults to the "id" field
		Validate    func(item T) error  // runs before OnAdd / OnEdit
		Unique      []string            // fields no two rows may share, compared case-insensitively
		Confirm     func(item T) bool   // asked before OnDelete; nil accepts
		Placeholder string              // shown for empty cells; defaults to core.Placeholder
	}

	// Handlers are the callbacks a page gives the table.
	// They are expected to return an error when the backend rejects the action.
	Handlers[T any] struct {
		OnAdd      func(ctx context.Context, item T) error
		OnEdit     func(ctx context.Context, id string, item T) error
		OnDelete   func(ctx context.Context, id string) error
		OnImport   func(ctx context.Context, items []T) error // optional; OnAdd is used per row otherwise
		OnRowClick func(item T)
	}

	FormMode int

	// Modal is the state of the add/edit form.
	Modal[T any] struct {
		Open  bool
		Mode  FormMode
		ID    string // row being edited
		Value T      // initial value, or the last submitted value after a failure
		Err   error  // last submission failure
	}

	Header struct {
		Key   string `json:"key"`
		Title string `json:"title"`
	}

	ViewRow struct {
		ID    string   `json:"id"`
		Cells []string `json:"cells"`
	}

	// View is the rendered state of a table for a Query.
	View struct {
		Name    string    `json:"name"`
		Title   string    `json:"title"`
		Headers []Header  `json:"headers"`
		Rows    []ViewRow `json:"rows"`
		Filters []Filter  `json:"filters"`
		Total   int       `json:"total"`
		Shown   int       `json:"shown"`
	}

	// Table renders a collection and drives its add/edit/delete/import/export flows.
	// It is not safe for concurrent use; pages serialize access.
	Table[T any] struct {
		cfg   Config[T]
		h     Handlers[T]
		data  []T
		modal Modal[T]
	}
)

const (
	FormAdd FormMode = iota
	FormEdit
)

func (m FormMode) String() string {
	if m == FormEdit {
		return "edit"
	}
	return "add"
}

func New[T any](cfg Config[T], h Handlers[T]) *Table[T] {
	if cfg.Placeholder == "" {
		cfg.Placeholder = core.Placeholder
	}
	if cfg.RowID == nil {
		cfg.RowID = func(item T) string { return FieldString(item, "id") }
	}
	return &Table[T]{cfg: cfg, h: h}
}

func (t *Table[T]) Config() Config[T] { return t.cfg }

// FormFields returns the inputs of the add/edit form.
func (t *Table[T]) FormFields() []FormField {
	if t.cfg.Form == nil {
		return nil
	}
	return t.cfg.Form()
}

// SetData replaces the displayed collection.
func (t *Table[T]) SetData(data []T) { t.data = data }

func (t *Table[T]) Data() []T { return t.data }

// RowID returns the identifier of item.
func (t *Table[T]) RowID(item T) string { return t.cfg.RowID(item) }

// Find returns the row identified by id.
func (t *Table[T]) Find(id string) (T, bool) {
	for _, item := range t.data {
		if t.cfg.RowID(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Rows returns the rows matching q, in display order.
func (t *Table[T]) Rows(q Query) []T {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	rows := make([]T, 0, len(t.data))
	for _, item := range t.data {
		if matchesFilters(item, q.Filters) && matchesSearch(item, t.cfg.SearchKeys, needle) {
			rows = append(rows, item)
		}
	}
	sortItems(rows, q.Orderings)
	return rows
}

// View renders the rows matching q, one cell per column.
func (t *Table[T]) View(q Query) View {
	headers := make([]Header, 0, len(t.cfg.Columns))
	for _, col := range t.cfg.Columns {
		headers = append(headers, Header{Key: col.Key, Title: col.Title})
	}

	rows := t.Rows(q)
	vRows := make([]ViewRow, 0, len(rows))
	for _, item := range rows {
		cells := make([]string, 0, len(t.cfg.Columns))
		for _, col := range t.cfg.Columns {
			cell := col.Cell(item)
			if strings.TrimSpace(cell) == "" {
				cell = t.cfg.Placeholder
			}
			cells = append(cells, cell)
		}
		vRows = append(vRows, ViewRow{ID: t.cfg.RowID(item), Cells: cells})
	}

	return View{
		Name:    t.cfg.Name,
		Title:   t.cfg.Title,
		Headers: headers,
		Rows:    vRows,
		Filters: t.cfg.Filters,
		Total:   len(t.data),
		Shown:   len(vRows),
	}
}

// Modal returns the current form state.
func (t *Table[T]) Modal() Modal[T] { return t.modal }

// OpenAdd opens the form with no initial value.
func (t *Table[T]) OpenAdd() {
	var zero T
	t.modal = Modal[T]{Open: true, Mode: FormAdd, Value: zero}
}

// OpenEdit opens the form seeded with the row identified by id.
func (t *Table[T]) OpenEdit(id string) error {
	item, ok := t.Find(id)
	if !ok {
		return ErrRowNotFound
	}
	t.modal = Modal[T]{Open: true, Mode: FormEdit, ID: id, Value: item}
	return nil
}

// Cancel closes the form.
func (t *Table[T]) Cancel() { t.modal = Modal[T]{} }

// Reject shows err on the form of mode, opening it when another form is shown.
// It is used for input that could not be read into an item.
func (t *Table[T]) Reject(mode FormMode, id string, err error) {
	if !t.modal.Open || t.modal.Mode != mode || t.modal.ID != id {
		t.modal = Modal[T]{Open: true, Mode: mode, ID: id}
		if mode == FormEdit {
			t.modal.Value, _ = t.Find(id)
		}
	}
	t.modal.Err = err
}

// Submit validates item and hands it to OnAdd or OnEdit depending on the open form.
// The form only closes when the handler succeeds; on failure it stays open with item and the error.
func (t *Table[T]) Submit(ctx context.Context, item T) error {
	if !t.modal.Open {
		return ErrModalClosed
	}

	err := t.submit(ctx, item)
	if err != nil {
		t.modal.Value = item
		t.modal.Err = err
		return err
	}
	t.Cancel()
	return nil
}

// Cleaner is implemented by items that normalize their input before validation.
type Cleaner[T any] interface {
	Clean() T
}

// Clean returns item normalized when it implements Cleaner.
func Clean[T any](item T) T {
	if c, ok := any(item).(Cleaner[T]); ok {
		return c.Clean()
	}
	return item
}

func (t *Table[T]) submit(ctx context.Context, item T) error {
	item = Clean(item)
	if t.cfg.Validate != nil {
		if err := t.cfg.Validate(item); err != nil {
			return err
		}
	}
	skip := ""
	if t.modal.Mode == FormEdit {
		skip = t.modal.ID
	}
	if err := t.checkUnique(item, skip, t.data); err != nil {
		return err
	}
	switch t.modal.Mode {
	case FormEdit:
		if t.h.OnEdit == nil {
			return ErrNoHandler
		}
		return t.h.OnEdit(ctx, t.modal.ID, item)
	default:
		if t.h.OnAdd == nil {
			return ErrNoHandler
		}
		return t.h.OnAdd(ctx, item)
	}
}

// checkUnique fails when item repeats a Unique field of one of rows, the row skipID aside.
func (t *Table[T]) checkUnique(item T, skipID string, rows []T) error {
	for _, key := range t.cfg.Unique {
		val := strings.TrimSpace(FieldString(item, key))
		if val == "" {
			continue
		}
		for _, row := range rows {
			if skipID != "" && t.cfg.RowID(row) == skipID {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(FieldString(row, key)), val) {
				return core.NewValidationError(
					errors.Wrap(ErrDuplicateValue, key),
					core.FieldError{Field: key, Error: fmt.Sprintf("%s %s already used", key, val)},
				)
			}
		}
	}
	return nil
}

// Add opens the add form and submits item at once.
func (t *Table[T]) Add(ctx context.Context, item T) error {
	t.OpenAdd()
	return t.Submit(ctx, item)
}

// Edit opens the edit form for id and submits item at once.
func (t *Table[T]) Edit(ctx context.Context, id string, item T) error {
	if err := t.OpenEdit(id); err != nil {
		return err
	}
	return t.Submit(ctx, item)
}

// Delete asks for confirmation then calls OnDelete.
// Unknown ids are still passed to OnDelete; the page decides what a missing row means.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	if t.h.OnDelete == nil {
		return ErrNoHandler
	}
	if item, ok := t.Find(id); ok && t.cfg.Confirm != nil && !t.cfg.Confirm(item) {
		return ErrDeleteCanceled
	}
	return t.h.OnDelete(ctx, id)
}

// Click reports a click on the row identified by id.
func (t *Table[T]) Click(id string) (T, error) {
	item, ok := t.Find(id)
	if !ok {
		return item, ErrRowNotFound
	}
	if t.h.OnRowClick != nil {
		t.h.OnRowClick(item)
	}
	return item, nil
}
