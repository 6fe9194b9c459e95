// Package profile renders the read-only detail card of an entity and exports it as a PDF badge.
package profile

import (
	"unicode"

	"github.com/trezcool/masomo-console/core"
)

type (
	Field struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}

	Section struct {
		Title  string  `json:"title"`
		Fields []Field `json:"fields"`
	}

	// Card is the detail view of one entity.
	Card struct {
		ID       string    `json:"id"`
		Kind     string    `json:"kind"` // resource name
		Title    string    `json:"title"`
		Subtitle string    `json:"subtitle"`
		Photo    string    `json:"photo,omitempty"`
		Sections []Section `json:"sections"`
	}
)

// NewSection builds a section from label/value pairs. Blank values show the placeholder.
func NewSection(title string, pairs ...string) Section {
	sec := Section{Title: title, Fields: make([]Field, 0, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		sec.Fields = append(sec.Fields, Field{Label: pairs[i], Value: core.OrPlaceholder(pairs[i+1])})
	}
	return sec
}

// Initials returns up to two capital letters from the card title, shown in place of a missing photo.
func (c Card) Initials() string {
	var out []rune
	start := true
	for _, r := range c.Title {
		switch {
		case r == ' ' || r == '-':
			start = true
		case start:
			out = append(out, unicode.ToUpper(r))
			start = false
		}
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}
