package school

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/masomo-console/core/profile"
	"github.com/trezcool/masomo-console/core/table"
)

func refNames(refs []Ref) string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.String())
	}
	return strings.Join(names, ", ")
}

// StudentCard builds the detail card of s. formations resolves the formation name when s only carries its id.
func StudentCard(s Student, formations []Formation) profile.Card {
	return profile.Card{
		ID:       s.ID.String(),
		Kind:     ResourceEtudiants,
		Title:    s.FullName(),
		Subtitle: "Matricule " + s.Matricule,
		Sections: []profile.Section{
			profile.NewSection("Identité",
				"Nom", s.LastName,
				"Prénom", s.FirstName,
				"Date de naissance", s.BirthDate.String(),
				"Situation de handicap", yes(s.Disability),
			),
			profile.NewSection("Contact",
				"Email", s.Email,
				"Téléphone", s.Phone,
				"Adresse", s.Address,
			),
			profile.NewSection("Scolarité",
				"Formation", formationName(func() []Formation { return formations }, s.Formation, s.FormationID),
				"Niveau", s.Level,
				"Groupe", s.Group,
				"Année", s.Year,
				"Actif", yes(s.Active),
				"Boursier", yes(s.Scholarship),
			),
		},
	}
}

// ProfessorCard builds the detail card of p.
func ProfessorCard(p Professor) profile.Card {
	hours := ""
	if p.WeeklyHours > 0 {
		hours = fmt.Sprintf("%d h", p.WeeklyHours)
	}
	return profile.Card{
		ID:       p.ID.String(),
		Kind:     ResourceProfesseurs,
		Title:    p.FullName(),
		Subtitle: p.Specialty,
		Photo:    p.Photo,
		Sections: []profile.Section{
			profile.NewSection("Contact",
				"Email", p.Email,
				"Téléphone", p.Phone,
			),
			profile.NewSection("Poste",
				"Statut", p.Status,
				"Date d'embauche", p.HireDate.String(),
				"Heures par semaine", hours,
			),
			profile.NewSection("Enseignement",
				"Formations", refNames(p.Formations),
				"Diplômes", refNames(p.Diplomes),
			),
		},
	}
}

// FormationCard builds the detail card of f; professors are shown from the names cached in f.
func FormationCard(f Formation) profile.Card {
	cost := ""
	if f.Cost > 0 {
		cost = strconv.FormatFloat(f.Cost, 'f', -1, 64)
	}
	return profile.Card{
		ID:       f.ID.String(),
		Kind:     ResourceFormations,
		Title:    f.Name,
		Subtitle: f.AcademicYear,
		Sections: []profile.Section{
			profile.NewSection("Organisation",
				"Durée", f.Duration,
				"Modalité", f.Mode,
				"Coût", cost,
				"Capacité", formatInt(f.Capacity),
				"Niveau d'accès", f.AccessLevel,
				"Active", yes(f.Active),
			),
			profile.NewSection("Équipe", "Professeurs", f.ProfessorNames()),
			profile.NewSection("Description", "Description", f.Description),
		},
	}
}

// GenericCard builds a card listing every column of a table row.
func GenericCard[T any](cfg table.Config[T], item T) profile.Card {
	t := table.New(cfg, table.Handlers[T]{})
	pairs := make([]string, 0, 2*len(cfg.Columns))
	title := ""
	for _, col := range cfg.Columns {
		cell := col.Cell(item)
		if title == "" {
			title = cell
		}
		pairs = append(pairs, col.Title, cell)
	}
	return profile.Card{
		ID:       t.RowID(item),
		Kind:     cfg.Name,
		Title:    title,
		Subtitle: cfg.Title,
		Sections: []profile.Section{profile.NewSection(cfg.Title, pairs...)},
	}
}
