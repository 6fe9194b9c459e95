package table

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Column describes one cell of every row.
// Render is optional; without it the cell shows the row's field named Key.
type Column[T any] struct {
	Key    string
	Title  string
	Render func(item T) string
}

// Cell renders the column for item.
func (c Column[T]) Cell(item T) string {
	if c.Render != nil {
		return c.Render(item)
	}
	return FieldString(item, c.Key)
}

// ColumnBuilder builds a column list in display order.
type ColumnBuilder[T any] struct {
	cols []Column[T]
}

// Columns starts a column list for rows of type T.
func Columns[T any]() *ColumnBuilder[T] {
	return &ColumnBuilder[T]{}
}

// Add appends a column displaying the field named key.
func (b *ColumnBuilder[T]) Add(key, title string) *ColumnBuilder[T] {
	b.cols = append(b.cols, Column[T]{Key: key, Title: title})
	return b
}

// Render appends a column formatted by fn.
func (b *ColumnBuilder[T]) Render(key, title string, fn func(item T) string) *ColumnBuilder[T] {
	b.cols = append(b.cols, Column[T]{Key: key, Title: title, Render: fn})
	return b
}

// Bool appends a column showing yes or no for a boolean field.
func (b *ColumnBuilder[T]) Bool(key, title, yes, no string) *ColumnBuilder[T] {
	return b.Render(key, title, func(item T) string {
		if FieldString(item, key) == "true" {
			return yes
		}
		return no
	})
}

func (b *ColumnBuilder[T]) Build() []Column[T] {
	cols := make([]Column[T], len(b.cols))
	copy(cols, b.cols)
	return cols
}

// fields caches, per struct type, the field index of each JSON name.
var fields sync.Map // map[reflect.Type]map[string][]int

func fieldIndexes(typ reflect.Type) map[string][]int {
	if cached, ok := fields.Load(typ); ok {
		return cached.(map[string][]int)
	}
	idx := make(map[string][]int)
	for _, fld := range reflect.VisibleFields(typ) {
		if !fld.IsExported() || fld.Anonymous {
			continue
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			continue
		case "":
			name = fld.Name
		}
		if _, exists := idx[name]; !exists {
			idx[name] = fld.Index
		}
	}
	fields.Store(typ, idx)
	return idx
}

// Field returns the value of item's field named key, matching the JSON name first and the Go name second.
// Maps keyed by string are looked up directly.
func Field(item interface{}, key string) (interface{}, bool) {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		index, ok := fieldIndexes(v.Type())[key]
		if !ok {
			return nil, false
		}
		fv, err := v.FieldByIndexErr(index)
		if err != nil {
			return nil, false
		}
		return fv.Interface(), true
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	}
	return nil, false
}

// FieldString stringifies item's field named key; missing fields give "".
func FieldString(item interface{}, key string) string {
	val, ok := Field(item, key)
	if !ok {
		return ""
	}
	return Stringify(val)
}

// Stringify formats a field value for display, search and filtering.
func Stringify(val interface{}) string {
	if val == nil {
		return ""
	}
	if isNil(val) {
		return ""
	}
	rv := reflect.ValueOf(val)
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	switch rv.Kind() {
	case reflect.Ptr:
		return Stringify(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s := Stringify(rv.Index(i).Interface()); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case reflect.String:
		return rv.String()
	}
	return fmt.Sprint(val)
}

func isNil(val interface{}) bool {
	if val == nil {
		return true
	}
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
