package school

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// ID identifies an entity within its collection.
// The backend sends numbers for some resources and strings for others; both are accepted.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

func (id ID) numeric() bool {
	if id == "" {
		return false
	}
	_, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.Wrap(err, "decoding string id")
		}
		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return errors.Wrap(err, "decoding numeric id")
		}
		*id = ID(n.String())
	}
	return nil
}

// Ref is a reference to another entity: either a bare id or a nested object carrying at least an id.
type Ref struct {
	ID   ID     `json:"id"`
	Name string `json:"nom,omitempty"`
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		type ref Ref
		var tmp ref
		if err := json.Unmarshal(b, &tmp); err != nil {
			return errors.Wrap(err, "decoding reference")
		}
		*r = Ref(tmp)
		return nil
	}
	*r = Ref{}
	return r.ID.UnmarshalJSON(b)
}

// PersonRef is a reference to a person with the name fields joined in by the backend.
type PersonRef struct {
	ID        ID     `json:"id"`
	LastName  string `json:"nom,omitempty"`
	FirstName string `json:"prenom,omitempty"`
}

func (r *PersonRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		type ref PersonRef
		var tmp ref
		if err := json.Unmarshal(b, &tmp); err != nil {
			return errors.Wrap(err, "decoding person reference")
		}
		*r = PersonRef(tmp)
		return nil
	}
	*r = PersonRef{}
	return r.ID.UnmarshalJSON(b)
}

// FullName returns "Prenom Nom", or the id when no name was joined in.
func (r PersonRef) FullName() string {
	name := joinName(r.FirstName, r.LastName)
	if name == "" {
		return r.ID.String()
	}
	return name
}

// FormationRef references a Formation either by nested object or by id.
type FormationRef struct {
	ID        ID
	Formation *Formation
}

// Key returns the referenced formation id.
func (r *FormationRef) Key() ID {
	if r == nil {
		return ""
	}
	if r.ID == "" && r.Formation != nil {
		return r.Formation.ID
	}
	return r.ID
}

// Label returns the formation name when known, or its id.
func (r *FormationRef) Label() string {
	if r == nil {
		return ""
	}
	if r.Formation != nil && r.Formation.Name != "" {
		return r.Formation.Name
	}
	return r.Key().String()
}

func (r FormationRef) MarshalJSON() ([]byte, error) {
	if r.Formation != nil {
		return json.Marshal(r.Formation)
	}
	return r.ID.MarshalJSON()
}

func (r *FormationRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var f Formation
		if err := json.Unmarshal(b, &f); err != nil {
			return errors.Wrap(err, "decoding nested formation")
		}
		*r = FormationRef{ID: f.ID, Formation: &f}
		return nil
	}
	*r = FormationRef{}
	return r.ID.UnmarshalJSON(b)
}

// String makes a FormationRef render as its label in tables.
func (r FormationRef) String() string { return r.Label() }

func (r Ref) String() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID.String()
}

func (r PersonRef) String() string { return r.FullName() }

// FormValue returns the id submitted by forms.
func (r FormationRef) FormValue() string { return r.Key().String() }

func (r Ref) FormValue() string { return r.ID.String() }

func (r PersonRef) FormValue() string { return r.ID.String() }
