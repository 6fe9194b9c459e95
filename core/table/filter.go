package table

import (
	"sort"
	"strconv"
	"strings"
)

// Option is one choice of a Filter. The empty Value stands for "all".
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Filter restricts rows to those whose field Key equals the selected option value.
type Filter struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

// WithAll returns the filter options preceded by the "all" option.
func (f Filter) WithAll(label string) []Option {
	opts := make([]Option, 0, len(f.Options)+1)
	opts = append(opts, Option{Label: label})
	return append(opts, f.Options...)
}

// Options builds filter options whose label is the value itself.
func Options(values ...string) []Option {
	opts := make([]Option, 0, len(values))
	for _, v := range values {
		opts = append(opts, Option{Label: v, Value: v})
	}
	return opts
}

// Ordering sorts displayed rows by a field.
type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}

// ParseOrdering reads a comma separated field list; a leading "-" sorts descending.
func ParseOrdering(s string) []Ordering {
	var orderings []Ordering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, Ordering{Field: field, Ascending: !descending})
	}
	return orderings
}

// Query selects the rows to display.
type Query struct {
	Search    string
	Filters   map[string]string // filter key -> selected value; "" means all
	Orderings []Ordering
}

func matchesFilters(item interface{}, filters map[string]string) bool {
	for key, want := range filters {
		if want == "" {
			continue
		}
		if FieldString(item, key) != want {
			return false
		}
	}
	return true
}

func matchesSearch(item interface{}, keys []string, needle string) bool {
	if needle == "" {
		return true
	}
	for _, key := range keys {
		if strings.Contains(strings.ToLower(FieldString(item, key)), needle) {
			return true
		}
	}
	return false
}

func compareValues(a, b string) int {
	if fa, err := strconv.ParseFloat(a, 64); err == nil {
		if fb, err := strconv.ParseFloat(b, 64); err == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func sortItems[T any](items []T, orderings []Ordering) {
	if len(orderings) == 0 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range orderings {
			c := compareValues(FieldString(items[i], ord.Field), FieldString(items[j], ord.Field))
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}
