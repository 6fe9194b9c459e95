package school

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/table"
)

func newValidator() *Validator {
	translator := core.NewTranslator()
	return NewValidator(core.NewValidator(translator), translator)
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "want a validation error, got %v", err)
	return vErr.FieldMap()
}

func TestValidator_Check(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name       string
		item       Validatable
		wantFields []string
	}{
		{name: "valid student", item: Student{Matricule: "s-001", LastName: "Mwamba", FirstName: "Neema"}},
		{name: "blank names", item: Student{Matricule: "S001", LastName: "  ", FirstName: ""}, wantFields: []string{"nom", "prenom"}},
		{name: "bad matricule", item: Student{Matricule: "S 001", LastName: "M", FirstName: "N"}, wantFields: []string{"matricule"}},
		{name: "bad email", item: Student{Matricule: "S1", LastName: "M", FirstName: "N", Email: "nope"}, wantFields: []string{"email"}},
		{name: "valid professor", item: Professor{LastName: "Ilunga", FirstName: "Jean", Status: "Vacataire"}},
		{name: "bad professor status", item: Professor{LastName: "Ilunga", FirstName: "Jean", Status: "retraité"}, wantFields: []string{"statut"}},
		{name: "formation needs a name", item: Formation{Cost: 10}, wantFields: []string{"nom"}},
		{name: "negative cost", item: Formation{Name: "Droit", Cost: -1}, wantFields: []string{"cout"}},
		{name: "valid diplome", item: Diplome{Title: "Licence", Year: 2019}},
		{name: "diplome year", item: Diplome{Title: "Licence", Year: 19}, wantFields: []string{"annee"}},
		{name: "matiere", item: Matiere{Name: "Algèbre", Coefficient: 2}},
		{name: "valid horaire", item: Horaire{Day: "lundi", Start: "08:00", End: "10:00"}},
		{name: "horaire bad time", item: Horaire{Day: "lundi", Start: "8h", End: "10:00"}, wantFields: []string{"heureDebut"}},
		{name: "horaire ends before start", item: Horaire{Day: "mardi", Start: "10:00", End: "08:00"}, wantFields: []string{"heureFin"}},
		{name: "horaire on sunday", item: Horaire{Day: "dimanche", Start: "08:00", End: "10:00"}, wantFields: []string{"jour"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(tt.item)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			flds := fieldErrors(t, err)
			for _, name := range tt.wantFields {
				assert.Contains(t, flds, name)
			}
			assert.Len(t, flds, len(tt.wantFields))
		})
	}
}

func TestValidator_translations(t *testing.T) {
	v := newValidator()
	flds := fieldErrors(t, v.Check(Student{LastName: " ", FirstName: "N"}))
	assert.Equal(t, "matricule is required", flds["matricule"])
	assert.Equal(t, "nom is required", flds["nom"], "names are trimmed before validation")

	flds = fieldErrors(t, v.Check(Student{Matricule: "S/01", LastName: "M", FirstName: "N"}))
	assert.Equal(t, "matricule must only contain letters, digits and dashes", flds["matricule"])
}

func TestStudentForm_CheckFormation(t *testing.T) {
	formations := []Formation{{ID: "1", Name: "Droit"}, {ID: "2", Name: "Informatique"}}
	v := newValidator()
	base := Student{Matricule: "S001", LastName: "Mwamba", FirstName: "Neema"}

	tests := []struct {
		name    string
		student func(s Student) Student
		wantErr bool
	}{
		{name: "no formation", student: func(s Student) Student { return s }},
		{name: "known nested", student: func(s Student) Student { s.Formation = &FormationRef{Formation: &formations[1]}; return s }},
		{name: "known id", student: func(s Student) Student { s.Formation = &FormationRef{ID: "1"}; return s }},
		{name: "known foreign key", student: func(s Student) Student { s.FormationID = "2"; return s }},
		{name: "unknown id", student: func(s Student) Student { s.Formation = &FormationRef{ID: "9"}; return s }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CheckStudent(tt.student(base), formations)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrUnknownFormation))
			assert.Contains(t, fieldErrors(t, err), "formation")
		})
	}
}

func TestStudent_Clean(t *testing.T) {
	s := Student{Matricule: " s-01 ", LastName: " Mwamba ", Email: " Neema@Mail.CD "}.Clean()
	assert.Equal(t, "S-01", s.Matricule)
	assert.Equal(t, "Mwamba", s.LastName)
	assert.Equal(t, "neema@mail.cd", s.Email)
}

func TestStudentTable_Import(t *testing.T) {
	formations := []Formation{{ID: "1", Name: "Droit"}}
	var added []Student
	tbl := table.New(StudentTable(newValidator(), func() []Formation { return formations }), table.Handlers[Student]{
		OnAdd: func(_ context.Context, s Student) error {
			added = append(added, s)
			return nil
		},
	})

	input := strings.Join([]string{
		"Matricule;Nom;Prénom;Formation;Date de naissance;Actif",
		"S001;Mwamba;Neema;1;12/04/2001;oui",
		"S002;;Baraka;;;",
		"S003;Ilunga;Amani;;;",
		"S004;Kasongo;Zawadi;9;;",
		"S005;Kabila;Furaha;;hier;",
	}, "\n")

	report, err := tbl.Import(context.Background(), strings.NewReader(input), table.CSV)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 2, report.Imported)
	require.Len(t, report.Errors, 3)
	assert.Equal(t, table.RowError{Line: 2, Messages: []string{"Nom is required"}}, report.Errors[0])
	assert.Equal(t, 4, report.Errors[1].Line)
	assert.Equal(t, []string{ErrUnknownFormation.Error()}, report.Errors[1].Messages)
	assert.Equal(t, 5, report.Errors[2].Line)

	require.Len(t, added, 2)
	assert.Equal(t, "S001", added[0].Matricule)
	assert.Equal(t, ID("1"), added[0].FormationKey())
	assert.Equal(t, "2001-04-12", added[0].BirthDate.String())
	assert.True(t, added[0].Active)
	assert.Equal(t, "S003", added[1].Matricule)
}

// roundTrip exports data with cfg then imports the file back, in every format.
func roundTrip[T any](t *testing.T, cfg table.Config[T], data []T) {
	t.Helper()
	for _, format := range []table.Format{table.CSV, table.XLSX} {
		t.Run(string(format), func(t *testing.T) {
			src := table.New(cfg, table.Handlers[T]{})
			src.SetData(data)
			var buf bytes.Buffer
			_, err := src.Export(&buf, table.Query{}, format)
			require.NoError(t, err)

			var got []T
			dst := table.New(cfg, table.Handlers[T]{
				OnImport: func(_ context.Context, items []T) error {
					got = items
					return nil
				},
			})
			report, err := dst.Import(context.Background(), &buf, format)
			require.NoError(t, err)
			require.Empty(t, report.Errors)
			assert.Equal(t, data, got)
		})
	}
}

func TestTables_ExportImportRoundTrip(t *testing.T) {
	v := newValidator()
	formations := []Formation{{ID: "1", Name: "Droit"}}
	known := func() []Formation { return formations }
	birth, _ := ParseDate("2001-04-12")
	hired, _ := ParseDate("2015-09-01")

	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{name: ResourceEtudiants, run: func(t *testing.T) {
			roundTrip(t, StudentTable(v, known), []Student{
				{Matricule: "S001", LastName: "Mwamba", FirstName: "Neema", Email: "n@mail.cd", BirthDate: birth, Formation: &FormationRef{ID: "1"}, Active: true},
				{Matricule: "S002", LastName: "Kasongo", FirstName: "Baraka", Level: "L2", Scholarship: true},
			})
		}},
		{name: ResourceProfesseurs, run: func(t *testing.T) {
			roundTrip(t, ProfessorTable(v), []Professor{
				{LastName: "Dupont", FirstName: "Jean", Email: "jean@mail.cd", Phone: "+243 810 000 000", Specialty: "Réseaux", Status: "permanent", HireDate: hired, WeeklyHours: 20},
				{LastName: "Ilunga", FirstName: "Bea"},
			})
		}},
		{name: ResourceFormations, run: func(t *testing.T) {
			roundTrip(t, FormationTable(v), []Formation{
				{Name: "Informatique", Duration: "3 ans", Cost: 1500.5, Mode: "hybride", AcademicYear: "2024-2025", AccessLevel: "Bac", Capacity: 40, Active: true, Description: "Licence, option réseaux"},
				{Name: "Droit"},
			})
		}},
		{name: ResourceProgrammes, run: func(t *testing.T) {
			roundTrip(t, ProgrammeTable(v, known), []Programme{
				{Name: "Tronc commun", Formation: &FormationRef{ID: "1"}, Description: "Première année"},
				{Name: "Option"},
			})
		}},
		{name: ResourceDiplomes, run: func(t *testing.T) {
			roundTrip(t, DiplomeTable(v), []Diplome{
				{Title: "Master", Level: "Bac+5", Institution: "UNIKIN", Year: 2019},
				{Title: "Licence"},
			})
		}},
		{name: ResourceMatieres, run: func(t *testing.T) {
			roundTrip(t, MatiereTable(v), []Matiere{
				{Name: "Algorithmique", Code: "ALG1", Coefficient: 2.5, Hours: 40},
				{Name: "Anglais"},
			})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, tt.run)
	}

	// schedules are export only
	assert.Nil(t, HoraireTable(v, known).Import)
}

func TestStudentTable_View(t *testing.T) {
	formations := []Formation{{ID: "1", Name: "Droit"}}
	tbl := table.New(StudentTable(newValidator(), func() []Formation { return formations }), table.Handlers[Student]{})
	tbl.SetData([]Student{
		{ID: "1", Matricule: "S001", LastName: "Mwamba", FirstName: "Neema", FormationID: "1", Level: "L1", Active: true},
		{ID: "2", Matricule: "S002", LastName: "Kasongo", FirstName: "Baraka", Level: "L2"},
	})

	view := tbl.View(table.Query{Filters: map[string]string{"actif": "true"}})
	require.Len(t, view.Rows, 1)
	assert.Equal(t, []string{"S001", "Mwamba", "Neema", "-", "Droit", "L1", "oui"}, view.Rows[0].Cells)

	view = tbl.View(table.Query{Filters: map[string]string{"niveau": "L2"}})
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "2", view.Rows[0].ID)
	assert.Equal(t, "-", view.Rows[0].Cells[4], "no formation")

	assert.NotEmpty(t, tbl.FormFields())
}
