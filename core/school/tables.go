package school

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/masomo-console/core/table"
)

var yesNo = []table.Option{{Label: "Oui", Value: "true"}, {Label: "Non", Value: "false"}}

func yes(b bool) string {
	if b {
		return "oui"
	}
	return "non"
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oui", "o", "true", "vrai", "1", "yes", "x":
		return true
	}
	return false
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
	return f
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func formatNumber(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// numeric returns an import validator rejecting non numeric values in the given columns.
func numeric(headers ...string) func(row table.Row, _ int) []string {
	return func(row table.Row, _ int) []string {
		var msgs []string
		for _, h := range headers {
			v := strings.Replace(row.Get(h), ",", ".", 1)
			if v == "" {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				msgs = append(msgs, fmt.Sprintf("%s must be a number", h))
			}
		}
		return msgs
	}
}

func dateColumn(header string) func(row table.Row, _ int) []string {
	return func(row table.Row, _ int) []string {
		if _, err := ParseDate(row.Get(header)); err != nil {
			return []string{fmt.Sprintf("%s must be a date", header)}
		}
		return nil
	}
}

func validators(fns ...func(table.Row, int) []string) func(table.Row, int) []string {
	return func(row table.Row, index int) []string {
		var msgs []string
		for _, fn := range fns {
			msgs = append(msgs, fn(row, index)...)
		}
		return msgs
	}
}

func formationName(formations func() []Formation, ref *FormationRef, fk ID) string {
	if ref != nil && ref.Formation != nil && ref.Formation.Name != "" {
		return ref.Formation.Name
	}
	key := ref.Key()
	if key == "" {
		key = fk
	}
	for _, f := range loadedFormations(formations) {
		if f.ID == key {
			return f.Name
		}
	}
	return key.String()
}

func loadedFormations(formations func() []Formation) []Formation {
	if formations == nil {
		return nil
	}
	return formations()
}

func formationRef(id string) *FormationRef {
	if id = strings.TrimSpace(id); id == "" {
		return nil
	}
	return &FormationRef{ID: ID(id)}
}

var studentHeaders = []string{
	"Matricule", "Nom", "Prénom", "Email", "Téléphone", "Adresse", "Date de naissance",
	"Formation", "Niveau", "Groupe", "Année", "Actif", "Boursier", "Handicap",
}

// StudentTable configures the students table. formations returns the formations currently loaded.
func StudentTable(v *Validator, formations func() []Formation) table.Config[Student] {
	known := func() []Formation { return loadedFormations(formations) }
	return table.Config[Student]{
		Name:  ResourceEtudiants,
		Title: "Étudiants",
		Columns: table.Columns[Student]().
			Add("matricule", "Matricule").
			Add("nom", "Nom").
			Add("prenom", "Prénom").
			Add("email", "Email").
			Render("formation", "Formation", func(s Student) string {
				return formationName(formations, s.Formation, s.FormationID)
			}).
			Add("niveau", "Niveau").
			Bool("actif", "Actif", "oui", "non").
			Build(),
		Filters: []table.Filter{
			{Key: "niveau", Label: "Niveau", Options: table.Options(Levels...)},
			{Key: "actif", Label: "Actif", Options: yesNo},
			{Key: "boursier", Label: "Boursier", Options: yesNo},
		},
		SearchKeys: []string{"matricule", "nom", "prenom", "email"},
		Form:       func() []table.FormField { return StudentFields(known()) },
		Validate:   func(s Student) error { return v.CheckStudent(s, known()) },
		Unique:     []string{"matricule"},
		Import: &table.ImportConfig[Student]{
			Headers:   []string{"Matricule", "Nom", "Prénom"},
			Required:  []string{"Matricule", "Nom", "Prénom"},
			Validator: dateColumn("Date de naissance"),
			Mapper: func(row table.Row) Student {
				birth, _ := ParseDate(row.Get("Date de naissance"))
				return Student{
					Matricule:   row.Get("Matricule"),
					LastName:    row.Get("Nom"),
					FirstName:   row.Get("Prénom"),
					Email:       row.Get("Email"),
					Phone:       row.Get("Téléphone"),
					Address:     row.Get("Adresse"),
					BirthDate:   birth,
					Formation:   formationRef(row.Get("Formation")),
					Level:       row.Get("Niveau"),
					Group:       row.Get("Groupe"),
					Year:        row.Get("Année"),
					Active:      parseBool(row.Get("Actif")),
					Scholarship: parseBool(row.Get("Boursier")),
					Disability:  parseBool(row.Get("Handicap")),
				}
			},
		},
		Export: &table.ExportConfig[Student]{
			Filename: ResourceEtudiants,
			Headers:  studentHeaders,
			Mapper: func(s Student) table.Record {
				return table.Record{
					"Matricule":         s.Matricule,
					"Nom":               s.LastName,
					"Prénom":            s.FirstName,
					"Email":             s.Email,
					"Téléphone":         s.Phone,
					"Adresse":           s.Address,
					"Date de naissance": s.BirthDate.String(),
					"Formation":         s.FormationKey().String(),
					"Niveau":            s.Level,
					"Groupe":            s.Group,
					"Année":             s.Year,
					"Actif":             yes(s.Active),
					"Boursier":          yes(s.Scholarship),
					"Handicap":          yes(s.Disability),
				}
			},
		},
	}
}

var professorHeaders = []string{
	"Nom", "Prénom", "Email", "Téléphone", "Spécialité", "Statut", "Date d'embauche", "Heures par semaine",
}

func ProfessorTable(v *Validator) table.Config[Professor] {
	return table.Config[Professor]{
		Name:  ResourceProfesseurs,
		Title: "Professeurs",
		Columns: table.Columns[Professor]().
			Add("nom", "Nom").
			Add("prenom", "Prénom").
			Add("email", "Email").
			Add("specialite", "Spécialité").
			Add("statut", "Statut").
			Add("heuresHebdo", "Heures/semaine").
			Add("formations", "Formations").
			Build(),
		Filters: []table.Filter{
			{Key: "statut", Label: "Statut", Options: table.Options(ProfessorStatuses...)},
		},
		SearchKeys: []string{"nom", "prenom", "email", "specialite"},
		Form:       ProfessorFields,
		Validate:   func(p Professor) error { return v.Check(p) },
		Import: &table.ImportConfig[Professor]{
			Headers:   []string{"Nom", "Prénom"},
			Required:  []string{"Nom", "Prénom"},
			Validator: validators(numeric("Heures par semaine"), dateColumn("Date d'embauche")),
			Mapper: func(row table.Row) Professor {
				hired, _ := ParseDate(row.Get("Date d'embauche"))
				return Professor{
					LastName:    row.Get("Nom"),
					FirstName:   row.Get("Prénom"),
					Email:       row.Get("Email"),
					Phone:       row.Get("Téléphone"),
					Specialty:   row.Get("Spécialité"),
					Status:      row.Get("Statut"),
					HireDate:    hired,
					WeeklyHours: parseInt(row.Get("Heures par semaine")),
				}
			},
		},
		Export: &table.ExportConfig[Professor]{
			Filename: ResourceProfesseurs,
			Headers:  professorHeaders,
			Mapper: func(p Professor) table.Record {
				return table.Record{
					"Nom":                p.LastName,
					"Prénom":             p.FirstName,
					"Email":              p.Email,
					"Téléphone":          p.Phone,
					"Spécialité":         p.Specialty,
					"Statut":             p.Status,
					"Date d'embauche":    p.HireDate.String(),
					"Heures par semaine": formatInt(p.WeeklyHours),
				}
			},
		},
	}
}

var formationHeaders = []string{
	"Nom", "Durée", "Coût", "Modalité", "Année académique", "Niveau d'accès", "Capacité", "Active", "Description",
}

func FormationTable(v *Validator) table.Config[Formation] {
	return table.Config[Formation]{
		Name:  ResourceFormations,
		Title: "Formations",
		Columns: table.Columns[Formation]().
			Add("nom", "Nom").
			Add("duree", "Durée").
			Add("cout", "Coût").
			Add("modalite", "Modalité").
			Add("anneeAcademique", "Année académique").
			Render("professeurs", "Professeurs", Formation.ProfessorNames).
			Bool("active", "Active", "oui", "non").
			Build(),
		Filters: []table.Filter{
			{Key: "modalite", Label: "Modalité", Options: table.Options(DeliveryModes...)},
			{Key: "active", Label: "Active", Options: yesNo},
		},
		SearchKeys: []string{"nom", "description", "anneeAcademique"},
		Form:       FormationFields,
		Validate:   func(f Formation) error { return v.Check(f) },
		Import: &table.ImportConfig[Formation]{
			Headers:   []string{"Nom"},
			Required:  []string{"Nom"},
			Validator: numeric("Coût", "Capacité"),
			Mapper: func(row table.Row) Formation {
				return Formation{
					Name:         row.Get("Nom"),
					Duration:     row.Get("Durée"),
					Cost:         parseFloat(row.Get("Coût")),
					Mode:         row.Get("Modalité"),
					AcademicYear: row.Get("Année académique"),
					AccessLevel:  row.Get("Niveau d'accès"),
					Capacity:     parseInt(row.Get("Capacité")),
					Active:       parseBool(row.Get("Active")),
					Description:  row.Get("Description"),
				}
			},
		},
		Export: &table.ExportConfig[Formation]{
			Filename: ResourceFormations,
			Headers:  formationHeaders,
			Mapper: func(f Formation) table.Record {
				return table.Record{
					"Nom":              f.Name,
					"Durée":            f.Duration,
					"Coût":             formatNumber(f.Cost),
					"Modalité":         f.Mode,
					"Année académique": f.AcademicYear,
					"Niveau d'accès":   f.AccessLevel,
					"Capacité":         formatInt(f.Capacity),
					"Active":           yes(f.Active),
					"Description":      f.Description,
				}
			},
		},
	}
}

func ProgrammeTable(v *Validator, formations func() []Formation) table.Config[Programme] {
	return table.Config[Programme]{
		Name:  ResourceProgrammes,
		Title: "Programmes",
		Columns: table.Columns[Programme]().
			Add("nom", "Nom").
			Render("formation", "Formation", func(p Programme) string {
				return formationName(formations, p.Formation, "")
			}).
			Add("matieres", "Matières").
			Add("description", "Description").
			Build(),
		SearchKeys: []string{"nom", "description"},
		Form:       func() []table.FormField { return ProgrammeFields(loadedFormations(formations)) },
		Validate:   func(p Programme) error { return v.Check(p) },
		Import: &table.ImportConfig[Programme]{
			Headers:  []string{"Nom"},
			Required: []string{"Nom"},
			Mapper: func(row table.Row) Programme {
				return Programme{
					Name:        row.Get("Nom"),
					Formation:   formationRef(row.Get("Formation")),
					Description: row.Get("Description"),
				}
			},
		},
		Export: &table.ExportConfig[Programme]{
			Filename: ResourceProgrammes,
			Headers:  []string{"Nom", "Formation", "Description"},
			Mapper: func(p Programme) table.Record {
				return table.Record{"Nom": p.Name, "Formation": p.Formation.Key().String(), "Description": p.Description}
			},
		},
	}
}

func DiplomeTable(v *Validator) table.Config[Diplome] {
	return table.Config[Diplome]{
		Name:  ResourceDiplomes,
		Title: "Diplômes",
		Columns: table.Columns[Diplome]().
			Add("intitule", "Intitulé").
			Add("niveau", "Niveau").
			Add("etablissement", "Établissement").
			Add("annee", "Année").
			Build(),
		SearchKeys: []string{"intitule", "etablissement"},
		Form:       DiplomeFields,
		Validate:   func(d Diplome) error { return v.Check(d) },
		Import: &table.ImportConfig[Diplome]{
			Headers:   []string{"Intitulé"},
			Required:  []string{"Intitulé"},
			Validator: numeric("Année"),
			Mapper: func(row table.Row) Diplome {
				return Diplome{
					Title:       row.Get("Intitulé"),
					Level:       row.Get("Niveau"),
					Institution: row.Get("Établissement"),
					Year:        parseInt(row.Get("Année")),
				}
			},
		},
		Export: &table.ExportConfig[Diplome]{
			Filename: ResourceDiplomes,
			Headers:  []string{"Intitulé", "Niveau", "Établissement", "Année"},
			Mapper: func(d Diplome) table.Record {
				return table.Record{
					"Intitulé":      d.Title,
					"Niveau":        d.Level,
					"Établissement": d.Institution,
					"Année":         formatInt(d.Year),
				}
			},
		},
	}
}

func MatiereTable(v *Validator) table.Config[Matiere] {
	return table.Config[Matiere]{
		Name:  ResourceMatieres,
		Title: "Matières",
		Columns: table.Columns[Matiere]().
			Add("code", "Code").
			Add("nom", "Nom").
			Add("coefficient", "Coefficient").
			Add("volumeHoraire", "Volume horaire").
			Build(),
		SearchKeys: []string{"code", "nom"},
		Form:       MatiereFields,
		Validate:   func(m Matiere) error { return v.Check(m) },
		Import: &table.ImportConfig[Matiere]{
			Headers:   []string{"Nom"},
			Required:  []string{"Nom"},
			Validator: numeric("Coefficient", "Volume horaire"),
			Mapper: func(row table.Row) Matiere {
				return Matiere{
					Name:        row.Get("Nom"),
					Code:        row.Get("Code"),
					Coefficient: parseFloat(row.Get("Coefficient")),
					Hours:       parseInt(row.Get("Volume horaire")),
				}
			},
		},
		Export: &table.ExportConfig[Matiere]{
			Filename: ResourceMatieres,
			Headers:  []string{"Code", "Nom", "Coefficient", "Volume horaire"},
			Mapper: func(m Matiere) table.Record {
				return table.Record{
					"Code":           m.Code,
					"Nom":            m.Name,
					"Coefficient":    formatNumber(m.Coefficient),
					"Volume horaire": formatInt(m.Hours),
				}
			},
		},
	}
}

func HoraireTable(v *Validator, formations func() []Formation) table.Config[Horaire] {
	return table.Config[Horaire]{
		Name:  ResourceHoraires,
		Title: "Horaires",
		Columns: table.Columns[Horaire]().
			Add("jour", "Jour").
			Add("heureDebut", "Début").
			Add("heureFin", "Fin").
			Add("salle", "Salle").
			Add("matiere", "Matière").
			Add("professeur", "Professeur").
			Render("formation", "Formation", func(h Horaire) string {
				return formationName(formations, h.Formation, "")
			}).
			Build(),
		Filters: []table.Filter{
			{Key: "jour", Label: "Jour", Options: table.Options(Days...)},
		},
		SearchKeys: []string{"salle", "matiere", "professeur"},
		Form:       func() []table.FormField { return HoraireFields(loadedFormations(formations)) },
		Validate:   func(h Horaire) error { return v.Check(h) },
		Export: &table.ExportConfig[Horaire]{
			Filename: ResourceHoraires,
			Headers:  []string{"Jour", "Début", "Fin", "Salle", "Matière", "Professeur", "Formation"},
			Mapper: func(h Horaire) table.Record {
				rec := table.Record{
					"Jour":      h.Day,
					"Début":     h.Start,
					"Fin":       h.End,
					"Salle":     h.Room,
					"Formation": h.Formation.Key().String(),
				}
				if h.Matiere != nil {
					rec["Matière"] = h.Matiere.String()
				}
				if h.Professor != nil {
					rec["Professeur"] = h.Professor.FullName()
				}
				return rec
			},
		},
	}
}
