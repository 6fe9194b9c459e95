// Package workspace assembles the pages of the console: one per school resource, sharing
// the toasts of the user they serve. The web console and the admin CLI both drive them.
package workspace

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/profile"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/table"
	"github.com/trezcool/masomo-console/services/restapi"
)

var ErrUnknownResource = errors.New("unknown resource")

type (
	// Decoder fills the item pointed to by v, from a request body or a form.
	Decoder func(v interface{}) error

	// ModalState is the type-erased table.Modal of a screen.
	ModalState struct {
		Open  bool
		Mode  string
		ID    string
		Value interface{}
		Err   error
	}

	// Screen is a page seen from outside, whatever its item type.
	Screen interface {
		Name() string
		Title() string
		Filters() []table.Filter
		View(ctx context.Context, q table.Query) (table.View, error)
		Form(ctx context.Context) []table.FormField
		Modal() ModalState
		OpenAdd(ctx context.Context)
		OpenEdit(ctx context.Context, id string) error
		Cancel()
		Add(ctx context.Context, decode Decoder) error
		Edit(ctx context.Context, id string, decode Decoder) error
		Delete(ctx context.Context, id string) error
		Import(ctx context.Context, r io.Reader, format table.Format) (table.ImportReport, error)
		Export(ctx context.Context, w io.Writer, q table.Query, format table.Format) (string, error)
		Card(ctx context.Context, id string) (profile.Card, error)
		Printable() bool
		Importable() bool
		Exportable() bool
	}
)

// DependencyError is returned when a page could not load the page its forms are checked against.
type DependencyError struct {
	Resource string
	Err      error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Resource, e.Err)
}

func (e *DependencyError) Cause() error  { return e.Err }
func (e *DependencyError) Unwrap() error { return e.Err }

func (e *DependencyError) Message() string {
	return fmt.Sprintf("%s indisponibles (%s)", e.Resource, page.Message(e.Err))
}

type pageScreen[T any] struct {
	*page.Page[T]
	card      func(item T) profile.Card
	printable bool
	prepare   func(ctx context.Context) error // loads what the page depends on
	notify    page.Notifier
}

var _ Screen = (*pageScreen[school.Student])(nil)

// beforeRead loads the dependencies of a display. Failures are shown but the page still renders.
func (s *pageScreen[T]) beforeRead(ctx context.Context) {
	if s.prepare == nil {
		return
	}
	if err := s.prepare(ctx); err != nil {
		s.notify.Notify(page.LevelWarning, s.Title()+" : "+page.Message(err))
	}
}

// beforeWrite loads the dependencies a change is checked against.
func (s *pageScreen[T]) beforeWrite(ctx context.Context) error {
	if s.prepare == nil {
		return nil
	}
	return s.prepare(ctx)
}

func (s *pageScreen[T]) Filters() []table.Filter { return s.Config().Filters }

func (s *pageScreen[T]) Printable() bool { return s.printable }

func (s *pageScreen[T]) Importable() bool { return s.Config().Import != nil }

func (s *pageScreen[T]) Exportable() bool { return s.Config().Export != nil }

func (s *pageScreen[T]) View(ctx context.Context, q table.Query) (table.View, error) {
	s.beforeRead(ctx)
	return s.Page.View(ctx, q)
}

func (s *pageScreen[T]) Form(ctx context.Context) []table.FormField {
	s.beforeRead(ctx)
	return s.FormFields()
}

func (s *pageScreen[T]) Modal() ModalState {
	m := s.Page.Modal()
	return ModalState{Open: m.Open, Mode: m.Mode.String(), ID: m.ID, Value: m.Value, Err: m.Err}
}

func (s *pageScreen[T]) OpenAdd(context.Context) { s.Page.OpenAdd() }

func (s *pageScreen[T]) Add(ctx context.Context, decode Decoder) error {
	var item T
	if err := decode(&item); err != nil {
		return s.Page.Reject(table.FormAdd, "", err)
	}
	if err := s.beforeWrite(ctx); err != nil {
		return s.Page.Reject(table.FormAdd, "", err)
	}
	return s.Page.Add(ctx, item)
}

func (s *pageScreen[T]) Edit(ctx context.Context, id string, decode Decoder) error {
	var item T
	if err := decode(&item); err != nil {
		return s.Page.Reject(table.FormEdit, id, err)
	}
	if err := s.beforeWrite(ctx); err != nil {
		return s.Page.Reject(table.FormEdit, id, err)
	}
	return s.Page.Edit(ctx, id, item)
}

func (s *pageScreen[T]) Import(ctx context.Context, r io.Reader, format table.Format) (table.ImportReport, error) {
	if err := s.beforeWrite(ctx); err != nil {
		s.notify.Notify(page.LevelError, fmt.Sprintf("%s : import impossible (%s)", s.Title(), page.Message(err)))
		return table.ImportReport{}, err
	}
	return s.Page.Import(ctx, r, format)
}

func (s *pageScreen[T]) Card(ctx context.Context, id string) (profile.Card, error) {
	s.beforeRead(ctx)
	item, err := s.Click(ctx, id)
	if err != nil {
		return profile.Card{}, err
	}
	return s.card(item), nil
}

// Workspace is the set of pages of one user. Pages cache their lists for as long as the workspace lives.
type Workspace struct {
	Toasts  *page.Toasts
	screens []Screen
}

func New(client *restapi.Client, v *school.Validator, logger core.Logger) *Workspace {
	toasts := &page.Toasts{}

	formations := page.New(school.FormationTable(v), client.Formations(), toasts, logger)
	known := formations.Items
	loadFormations := func(ctx context.Context) error {
		if err := formations.Load(ctx); err != nil {
			return &DependencyError{Resource: school.ResourceFormations, Err: err}
		}
		return nil
	}

	students := page.New(school.StudentTable(v, known), client.Etudiants(), toasts, logger)
	professors := page.New(school.ProfessorTable(v), client.Professeurs(), toasts, logger)
	programmes := page.New(school.ProgrammeTable(v, known), client.Programmes(), toasts, logger)
	diplomes := page.New(school.DiplomeTable(v), client.Diplomes(), toasts, logger)
	matieres := page.New(school.MatiereTable(v), client.Matieres(), toasts, logger)
	horaires := page.New(school.HoraireTable(v, known), client.Horaires(), toasts, logger)

	return &Workspace{
		Toasts: toasts,
		screens: []Screen{
			&pageScreen[school.Student]{
				Page:      students,
				card:      func(s school.Student) profile.Card { return school.StudentCard(s, known()) },
				printable: true,
				prepare:   loadFormations,
				notify:    toasts,
			},
			&pageScreen[school.Professor]{
				Page:      professors,
				card:      school.ProfessorCard,
				printable: true,
				notify:    toasts,
			},
			&pageScreen[school.Formation]{
				Page:   formations,
				card:   school.FormationCard,
				notify: toasts,
			},
			&pageScreen[school.Programme]{
				Page:    programmes,
				card:    genericCard(programmes),
				prepare: loadFormations,
				notify:  toasts,
			},
			&pageScreen[school.Diplome]{
				Page:   diplomes,
				card:   genericCard(diplomes),
				notify: toasts,
			},
			&pageScreen[school.Matiere]{
				Page:   matieres,
				card:   genericCard(matieres),
				notify: toasts,
			},
			&pageScreen[school.Horaire]{
				Page:    horaires,
				card:    genericCard(horaires),
				prepare: loadFormations,
				notify:  toasts,
			},
		},
	}
}

func genericCard[T any](p *page.Page[T]) func(T) profile.Card {
	return func(item T) profile.Card { return school.GenericCard(p.Config(), item) }
}

// Screens returns the pages in menu order.
func (ws *Workspace) Screens() []Screen { return ws.screens }

// Screen returns the page of resource name.
func (ws *Workspace) Screen(name string) (Screen, error) {
	for _, scr := range ws.screens {
		if scr.Name() == name {
			return scr, nil
		}
	}
	return nil, errors.Wrap(ErrUnknownResource, name)
}
