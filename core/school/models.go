package school

import "strings"

// Resource paths on the REST backend.
const (
	ResourceEtudiants   = "etudiants"
	ResourceProfesseurs = "professeurs"
	ResourceFormations  = "formations"
	ResourceProgrammes  = "programmes"
	ResourceDiplomes    = "diplomes"
	ResourceMatieres    = "matieres"
	ResourceHoraires    = "horaires"
)

// Resources lists every resource the console manages, in menu order.
var Resources = []string{
	ResourceEtudiants,
	ResourceProfesseurs,
	ResourceFormations,
	ResourceProgrammes,
	ResourceDiplomes,
	ResourceMatieres,
	ResourceHoraires,
}

// Options offered by the forms and filters.
var (
	Levels = []string{"L1", "L2", "L3", "M1", "M2"}

	ProfessorStatuses = []string{"permanent", "vacataire", "contractuel"}

	DeliveryModes = []string{"presentiel", "distanciel", "hybride"}

	Days = []string{"lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}
)

type Student struct {
	ID          ID            `json:"id,omitempty"`
	Matricule   string        `json:"matricule" validate:"required,matricule"`
	LastName    string        `json:"nom" validate:"required,notblank"`
	FirstName   string        `json:"prenom" validate:"required,notblank"`
	Email       string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string        `json:"telephone,omitempty"`
	Address     string        `json:"adresse,omitempty"`
	BirthDate   Date          `json:"dateNaissance,omitempty"`
	Formation   *FormationRef `json:"formation,omitempty" validate:"-"`
	FormationID ID            `json:"formationId,omitempty"`
	Active      bool          `json:"actif"`
	Scholarship bool          `json:"boursier"`
	Disability  bool          `json:"handicap"`
	Level       string        `json:"niveau,omitempty"`
	Group       string        `json:"groupe,omitempty"`
	Year        string        `json:"annee,omitempty"`
}

// FormationKey returns the id of the student's current formation, from the nested object or the foreign key.
func (s Student) FormationKey() ID {
	if key := s.Formation.Key(); key != "" {
		return key
	}
	return s.FormationID
}

func (s Student) FullName() string { return joinName(s.FirstName, s.LastName) }

type Professor struct {
	ID          ID     `json:"id,omitempty"`
	LastName    string `json:"nom" validate:"required,notblank"`
	FirstName   string `json:"prenom" validate:"required,notblank"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string `json:"telephone,omitempty"`
	Specialty   string `json:"specialite,omitempty"`
	Status      string `json:"statut,omitempty" validate:"omitempty,oneof=permanent vacataire contractuel"`
	HireDate    Date   `json:"dateEmbauche,omitempty"`
	WeeklyHours int    `json:"heuresHebdo,omitempty" validate:"gte=0,lte=80"`
	Formations  []Ref  `json:"formations,omitempty"`
	Diplomes    []Ref  `json:"diplomes,omitempty"`
	Photo       string `json:"photo,omitempty"`
}

func (p Professor) FullName() string { return joinName(p.FirstName, p.LastName) }

type Formation struct {
	ID           ID          `json:"id,omitempty"`
	Name         string      `json:"nom" validate:"required,notblank"`
	Duration     string      `json:"duree,omitempty"`
	Cost         float64     `json:"cout,omitempty" validate:"gte=0"`
	Mode         string      `json:"modalite,omitempty" validate:"omitempty,oneof=presentiel distanciel hybride"`
	AcademicYear string      `json:"anneeAcademique,omitempty"`
	Active       bool        `json:"active"`
	AccessLevel  string      `json:"niveauAcces,omitempty"`
	Capacity     int         `json:"capacite,omitempty" validate:"gte=0"`
	Description  string      `json:"description,omitempty"`
	Professors   []PersonRef `json:"professeurs,omitempty"`
}

// ProfessorNames joins the names of the professors as cached in the formation.
func (f Formation) ProfessorNames() string {
	names := make([]string, 0, len(f.Professors))
	for _, p := range f.Professors {
		names = append(names, p.FullName())
	}
	return strings.Join(names, ", ")
}

type Programme struct {
	ID          ID            `json:"id,omitempty"`
	Name        string        `json:"nom" validate:"required,notblank"`
	Description string        `json:"description,omitempty"`
	Formation   *FormationRef `json:"formation,omitempty" validate:"-"`
	Matieres    []Ref         `json:"matieres,omitempty"`
}

type Diplome struct {
	ID          ID     `json:"id,omitempty"`
	Title       string `json:"intitule" validate:"required,notblank"`
	Level       string `json:"niveau,omitempty"`
	Institution string `json:"etablissement,omitempty"`
	Year        int    `json:"annee,omitempty" validate:"omitempty,gte=1900,lte=2100"`
}

type Matiere struct {
	ID          ID      `json:"id,omitempty"`
	Name        string  `json:"nom" validate:"required,notblank"`
	Code        string  `json:"code,omitempty"`
	Coefficient float64 `json:"coefficient,omitempty" validate:"gte=0"`
	Hours       int     `json:"volumeHoraire,omitempty" validate:"gte=0"`
}

type Horaire struct {
	ID        ID            `json:"id,omitempty"`
	Day       string        `json:"jour" validate:"required,oneof=lundi mardi mercredi jeudi vendredi samedi"`
	Start     string        `json:"heureDebut" validate:"required,datetime=15:04"`
	End       string        `json:"heureFin" validate:"required,datetime=15:04"`
	Room      string        `json:"salle,omitempty"`
	Matiere   *Ref          `json:"matiere,omitempty"`
	Professor *PersonRef    `json:"professeur,omitempty"`
	Formation *FormationRef `json:"formation,omitempty" validate:"-"`
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
