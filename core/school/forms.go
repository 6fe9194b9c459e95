package school

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/table"
)

var (
	ErrUnknownFormation = errors.New("formation does not exist")
	ErrInvalidSchedule  = errors.New("end time must be after start time")
)

// Validatable is implemented by every entity form.
type Validatable interface {
	Validate(validate *validator.Validate) error
}

// Validator checks entity forms and translates failures into *core.ValidationError.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator(validate *validator.Validate, translator ut.Translator) *Validator {
	return &Validator{validate: validate, translator: translator}
}

// Check validates item.
func (v *Validator) Check(item Validatable) error {
	return core.TranslateValidation(item.Validate(v.validate), v.translator)
}

// CheckStudent validates s and checks its formation against the known formations.
func (v *Validator) CheckStudent(s Student, formations []Formation) error {
	if err := v.Check(s); err != nil {
		return err
	}
	return StudentForm{Formations: formations}.CheckFormation(s)
}

// Clean

func (s Student) Clean() Student {
	s.Matricule = strings.ToUpper(core.CleanString(s.Matricule))
	s.LastName = core.CleanString(s.LastName)
	s.FirstName = core.CleanString(s.FirstName)
	s.Email = core.CleanString(s.Email, true)
	s.Phone = core.CleanString(s.Phone)
	s.Address = core.CleanString(s.Address)
	s.Level = core.CleanString(s.Level)
	s.Group = core.CleanString(s.Group)
	s.Year = core.CleanString(s.Year)
	return s
}

func (p Professor) Clean() Professor {
	p.LastName = core.CleanString(p.LastName)
	p.FirstName = core.CleanString(p.FirstName)
	p.Email = core.CleanString(p.Email, true)
	p.Phone = core.CleanString(p.Phone)
	p.Specialty = core.CleanString(p.Specialty)
	p.Status = core.CleanString(p.Status, true)
	return p
}

func (f Formation) Clean() Formation {
	f.Name = core.CleanString(f.Name)
	f.Duration = core.CleanString(f.Duration)
	f.Mode = core.CleanString(f.Mode, true)
	f.AcademicYear = core.CleanString(f.AcademicYear)
	f.AccessLevel = core.CleanString(f.AccessLevel)
	f.Description = core.CleanString(f.Description)
	return f
}

func (p Programme) Clean() Programme {
	p.Name = core.CleanString(p.Name)
	p.Description = core.CleanString(p.Description)
	return p
}

func (d Diplome) Clean() Diplome {
	d.Title = core.CleanString(d.Title)
	d.Level = core.CleanString(d.Level)
	d.Institution = core.CleanString(d.Institution)
	return d
}

func (m Matiere) Clean() Matiere {
	m.Name = core.CleanString(m.Name)
	m.Code = strings.ToUpper(core.CleanString(m.Code))
	return m
}

func (h Horaire) Clean() Horaire {
	h.Day = core.CleanString(h.Day, true)
	h.Start = core.CleanString(h.Start)
	h.End = core.CleanString(h.End)
	h.Room = core.CleanString(h.Room)
	return h
}

// Validate

func (s Student) Validate(validate *validator.Validate) error { return validate.Struct(s.Clean()) }

func (p Professor) Validate(validate *validator.Validate) error { return validate.Struct(p.Clean()) }

func (f Formation) Validate(validate *validator.Validate) error { return validate.Struct(f.Clean()) }

func (p Programme) Validate(validate *validator.Validate) error { return validate.Struct(p.Clean()) }

func (d Diplome) Validate(validate *validator.Validate) error { return validate.Struct(d.Clean()) }

func (m Matiere) Validate(validate *validator.Validate) error { return validate.Struct(m.Clean()) }

func (h Horaire) Validate(validate *validator.Validate) error {
	h = h.Clean()
	if err := validate.Struct(h); err != nil {
		return err
	}
	// "HH:MM" strings order like the times they hold
	if h.End <= h.Start {
		return core.NewValidationError(ErrInvalidSchedule, core.FieldError{Field: "heureFin", Error: ErrInvalidSchedule.Error()})
	}
	return nil
}

// StudentForm checks a student against the formations currently loaded.
type StudentForm struct {
	Formations []Formation
}

// CheckFormation fails when the student references a formation that is not loaded.
// Students without a formation pass.
func (f StudentForm) CheckFormation(s Student) error {
	key := s.FormationKey()
	if key == "" {
		return nil
	}
	for _, formation := range f.Formations {
		if formation.ID == key {
			return nil
		}
	}
	return core.NewValidationError(ErrUnknownFormation, core.FieldError{Field: "formation", Error: ErrUnknownFormation.Error()})
}

// Form fields

func formationOptions(formations []Formation) []table.Option {
	opts := make([]table.Option, 0, len(formations))
	for _, f := range formations {
		opts = append(opts, table.Option{Label: f.Name, Value: f.ID.String()})
	}
	return opts
}

func StudentFields(formations []Formation) []table.FormField {
	return []table.FormField{
		{Name: "matricule", Label: "Matricule", Type: table.InputText, Required: true},
		{Name: "nom", Label: "Nom", Type: table.InputText, Required: true},
		{Name: "prenom", Label: "Prénom", Type: table.InputText, Required: true},
		{Name: "email", Label: "Email", Type: table.InputEmail},
		{Name: "telephone", Label: "Téléphone", Type: table.InputTel},
		{Name: "adresse", Label: "Adresse", Type: table.InputText},
		{Name: "dateNaissance", Label: "Date de naissance", Type: table.InputDate},
		{Name: "formation", Label: "Formation", Type: table.InputSelect, Options: formationOptions(formations)},
		{Name: "niveau", Label: "Niveau", Type: table.InputSelect, Options: table.Options(Levels...)},
		{Name: "groupe", Label: "Groupe", Type: table.InputText},
		{Name: "annee", Label: "Année", Type: table.InputText},
		{Name: "actif", Label: "Actif", Type: table.InputCheckbox},
		{Name: "boursier", Label: "Boursier", Type: table.InputCheckbox},
		{Name: "handicap", Label: "Situation de handicap", Type: table.InputCheckbox},
	}
}

func ProfessorFields() []table.FormField {
	return []table.FormField{
		{Name: "nom", Label: "Nom", Type: table.InputText, Required: true},
		{Name: "prenom", Label: "Prénom", Type: table.InputText, Required: true},
		{Name: "email", Label: "Email", Type: table.InputEmail},
		{Name: "telephone", Label: "Téléphone", Type: table.InputTel},
		{Name: "specialite", Label: "Spécialité", Type: table.InputText},
		{Name: "statut", Label: "Statut", Type: table.InputSelect, Options: table.Options(ProfessorStatuses...)},
		{Name: "dateEmbauche", Label: "Date d'embauche", Type: table.InputDate},
		{Name: "heuresHebdo", Label: "Heures par semaine", Type: table.InputNumber},
		{Name: "photo", Label: "Photo (URL)", Type: table.InputText},
	}
}

func FormationFields() []table.FormField {
	return []table.FormField{
		{Name: "nom", Label: "Nom", Type: table.InputText, Required: true},
		{Name: "duree", Label: "Durée", Type: table.InputText},
		{Name: "cout", Label: "Coût", Type: table.InputNumber},
		{Name: "modalite", Label: "Modalité", Type: table.InputSelect, Options: table.Options(DeliveryModes...)},
		{Name: "anneeAcademique", Label: "Année académique", Type: table.InputText},
		{Name: "niveauAcces", Label: "Niveau d'accès", Type: table.InputText},
		{Name: "capacite", Label: "Capacité", Type: table.InputNumber},
		{Name: "active", Label: "Active", Type: table.InputCheckbox},
		{Name: "description", Label: "Description", Type: table.InputTextArea},
	}
}

func ProgrammeFields(formations []Formation) []table.FormField {
	return []table.FormField{
		{Name: "nom", Label: "Nom", Type: table.InputText, Required: true},
		{Name: "formation", Label: "Formation", Type: table.InputSelect, Options: formationOptions(formations)},
		{Name: "description", Label: "Description", Type: table.InputTextArea},
	}
}

func DiplomeFields() []table.FormField {
	return []table.FormField{
		{Name: "intitule", Label: "Intitulé", Type: table.InputText, Required: true},
		{Name: "niveau", Label: "Niveau", Type: table.InputText},
		{Name: "etablissement", Label: "Établissement", Type: table.InputText},
		{Name: "annee", Label: "Année", Type: table.InputNumber},
	}
}

func MatiereFields() []table.FormField {
	return []table.FormField{
		{Name: "nom", Label: "Nom", Type: table.InputText, Required: true},
		{Name: "code", Label: "Code", Type: table.InputText},
		{Name: "coefficient", Label: "Coefficient", Type: table.InputNumber},
		{Name: "volumeHoraire", Label: "Volume horaire", Type: table.InputNumber},
	}
}

func HoraireFields(formations []Formation) []table.FormField {
	return []table.FormField{
		{Name: "jour", Label: "Jour", Type: table.InputSelect, Required: true, Options: table.Options(Days...)},
		{Name: "heureDebut", Label: "Début", Type: table.InputTime, Required: true},
		{Name: "heureFin", Label: "Fin", Type: table.InputTime, Required: true},
		{Name: "salle", Label: "Salle", Type: table.InputText},
		{Name: "matiere", Label: "Matière", Type: table.InputText},
		{Name: "professeur", Label: "Professeur", Type: table.InputText},
		{Name: "formation", Label: "Formation", Type: table.InputSelect, Options: formationOptions(formations)},
	}
}

// WithID

func (s Student) WithID(id string) Student { s.ID = ID(id); return s }

func (p Professor) WithID(id string) Professor { p.ID = ID(id); return p }

func (f Formation) WithID(id string) Formation { f.ID = ID(id); return f }

func (p Programme) WithID(id string) Programme { p.ID = ID(id); return p }

func (d Diplome) WithID(id string) Diplome { d.ID = ID(id); return d }

func (m Matiere) WithID(id string) Matiere { m.ID = ID(id); return m }

func (h Horaire) WithID(id string) Horaire { h.ID = ID(id); return h }
