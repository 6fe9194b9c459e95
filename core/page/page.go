// Package page holds the page containers: one per resource, each keeping the loaded list
// and wiring the table's callbacks to the backend.
package page

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/table"
)

// Resource is the backend collection behind a page.
// Add and Update report ok=false when the backend answered without a body.
type Resource[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Add(ctx context.Context, item T) (created T, ok bool, err error)
	Update(ctx context.Context, id string, item T) (updated T, ok bool, err error)
	Delete(ctx context.Context, id string) error
}

// identified is implemented by items that can carry the id of the row they replace.
type identified[T any] interface {
	WithID(id string) T
}

// Page keeps the list of one resource. The list is loaded wholesale on first use, then
// patched after every successful action; it is the only client-side cache.
type Page[T any] struct {
	mu     sync.Mutex
	res    Resource[T]
	tbl    *table.Table[T]
	items  []T
	loaded bool
	notify Notifier
	logger core.Logger
}

func New[T any](cfg table.Config[T], res Resource[T], notify Notifier, logger core.Logger) *Page[T] {
	p := &Page[T]{res: res, notify: notify, logger: logger}
	p.tbl = table.New(cfg, table.Handlers[T]{
		OnAdd:    p.onAdd,
		OnEdit:   p.onEdit,
		OnDelete: p.onDelete,
	})
	return p
}

func (p *Page[T]) Name() string  { return p.tbl.Config().Name }
func (p *Page[T]) Title() string { return p.tbl.Config().Title }

func (p *Page[T]) Config() table.Config[T] { return p.tbl.Config() }

// Load fetches the list unless it is already loaded.
func (p *Page[T]) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(ctx)
}

// Reload replaces the list with the backend's.
func (p *Page[T]) Reload(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reload(ctx)
}

func (p *Page[T]) load(ctx context.Context) error {
	if p.loaded {
		return nil
	}
	return p.reload(ctx)
}

func (p *Page[T]) reload(ctx context.Context) error {
	items, err := p.res.List(ctx)
	if err != nil {
		p.fail("loading", err)
		return errors.Wrapf(err, "loading %s", p.Name())
	}
	p.setItems(items)
	p.loaded = true
	return nil
}

func (p *Page[T]) setItems(items []T) {
	p.items = items
	p.tbl.SetData(items)
}

// Items returns a copy of the loaded list, in display order. It never fetches.
func (p *Page[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]T(nil), p.items...)
}

// Get returns the item from the loaded list, or asks the backend when the list misses it.
func (p *Page[T]) Get(ctx context.Context, id string) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(ctx); err != nil {
		var zero T
		return zero, err
	}
	if item, ok := p.tbl.Find(id); ok {
		return item, nil
	}
	return p.res.Get(ctx, id)
}

// View loads the list if needed and renders the rows matching q.
func (p *Page[T]) View(ctx context.Context, q table.Query) (table.View, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(ctx); err != nil {
		return table.View{}, err
	}
	return p.tbl.View(q), nil
}

func (p *Page[T]) FormFields() []table.FormField {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tbl.FormFields()
}

func (p *Page[T]) Modal() table.Modal[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tbl.Modal()
}

func (p *Page[T]) OpenAdd() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tbl.OpenAdd()
}

func (p *Page[T]) OpenEdit(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(ctx); err != nil {
		return err
	}
	return p.tbl.OpenEdit(id)
}

func (p *Page[T]) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tbl.Cancel()
}

// Submit sends the open form. On failure the form stays open with item and the error.
func (p *Page[T]) Submit(ctx context.Context, item T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.report(p.tbl.Submit(ctx, item))
}

// Reject keeps the form of mode open with err, for input that could not be decoded.
func (p *Page[T]) Reject(mode table.FormMode, id string, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tbl.Reject(mode, id, err)
	return p.report(err)
}

func (p *Page[T]) Add(ctx context.Context, item T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(ctx); err != nil {
		return err
	}
	return p.report(p.tbl.Add(ctx, item))
}

func (p *Page[T]) Edit(ctx context.Context, id string, item T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(ctx); err != nil {
		return err
	}
	return p.report(p.tbl.Edit(ctx, id, item))
}

// Delete removes the item on the backend, then from the list when it is there.
func (p *Page[T]) Delete(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(ctx); err != nil {
		return err
	}
	return p.report(p.tbl.Delete(ctx, id))
}

// Click returns the item behind a row, for its detail card.
func (p *Page[T]) Click(ctx context.Context, id string) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(ctx); err != nil {
		var zero T
		return zero, err
	}
	return p.tbl.Click(id)
}

// Import adds every valid row of r and reports the others. Committed rows are kept
// whatever happens to the rest of the file.
func (p *Page[T]) Import(ctx context.Context, r io.Reader, format table.Format) (table.ImportReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(ctx); err != nil {
		return table.ImportReport{}, err
	}

	report, err := p.tbl.Import(ctx, r, format)
	if err != nil {
		p.notify.Notify(LevelError, fmt.Sprintf("%s : import impossible (%s)", p.Title(), Message(err)))
		return report, err
	}
	if report.OK() {
		p.notify.Notify(LevelSuccess, fmt.Sprintf("%s : %d ligne(s) importée(s)", p.Title(), report.Imported))
	} else {
		p.notify.Notify(LevelWarning, fmt.Sprintf("%s : %d/%d ligne(s) importée(s), %d erreur(s)",
			p.Title(), report.Imported, report.Total, len(report.Errors)))
	}
	return report, nil
}

// Export writes the rows matching q and returns the download filename.
func (p *Page[T]) Export(ctx context.Context, w io.Writer, q table.Query, format table.Format) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(ctx); err != nil {
		return "", err
	}
	return p.tbl.Export(w, q, format)
}

// handlers; called by the table with p.mu held

func (p *Page[T]) onAdd(ctx context.Context, item T) error {
	created, ok, err := p.res.Add(ctx, item)
	if err != nil {
		p.fail("adding", err)
		return err
	}
	if !ok {
		p.logger.Warn(fmt.Sprintf("page: %s: add answered without a body, keeping the submitted item", p.Name()))
		created = item
	}
	p.setItems(append(p.items, created))
	return nil
}

func (p *Page[T]) onEdit(ctx context.Context, id string, item T) error {
	if idf, ok := any(item).(identified[T]); ok {
		item = idf.WithID(id)
	}
	updated, ok, err := p.res.Update(ctx, id, item)
	if err != nil {
		p.fail("updating", err)
		return err
	}
	if !ok {
		p.logger.Warn(fmt.Sprintf("page: %s: update answered without a body, keeping the submitted item", p.Name()))
		updated = item
	}

	items := make([]T, len(p.items))
	copy(items, p.items)
	for i, it := range items {
		if p.tbl.RowID(it) == id {
			items[i] = updated
		}
	}
	p.setItems(items)
	return nil
}

func (p *Page[T]) onDelete(ctx context.Context, id string) error {
	if err := p.res.Delete(ctx, id); err != nil {
		p.fail("deleting", err)
		return err
	}
	items := make([]T, 0, len(p.items))
	for _, it := range p.items {
		if p.tbl.RowID(it) != id {
			items = append(items, it)
		}
	}
	p.setItems(items)
	return nil
}

func (p *Page[T]) fail(action string, err error) {
	p.logger.Error(fmt.Sprintf("page: %s: %s", p.Name(), action), err)
}

// report notifies the outcome of a form or row action and returns err unchanged.
func (p *Page[T]) report(err error) error {
	switch {
	case err == nil:
		p.notify.Notify(LevelSuccess, p.Title()+" : enregistré")
	case errors.Is(err, table.ErrDeleteCanceled):
		p.notify.Notify(LevelInfo, p.Title()+" : suppression annulée")
	default:
		p.notify.Notify(LevelError, p.Title()+" : "+Message(err))
	}
	return err
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	var msgErr interface{ Message() string }
	if errors.As(err, &msgErr) {
		return msgErr.Message()
	}
	return err.Error()
}
