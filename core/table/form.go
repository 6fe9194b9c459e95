package table

// InputType is the kind of input a form field is rendered with.
type InputType string

const (
	InputText     InputType = "text"
	InputEmail    InputType = "email"
	InputTel      InputType = "tel"
	InputNumber   InputType = "number"
	InputDate     InputType = "date"
	InputTime     InputType = "time"
	InputTextArea InputType = "textarea"
	InputCheckbox InputType = "checkbox"
	InputSelect   InputType = "select"
	InputMulti    InputType = "multiselect"
)

// FormField describes one input of an add/edit form. Name is the JSON name of the item field.
type FormField struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     InputType `json:"type"`
	Required bool      `json:"required,omitempty"`
	Options  []Option  `json:"options,omitempty"`
}

// FormValuer is implemented by field types whose input value differs from their display text,
// such as references shown by name but submitted by id.
type FormValuer interface {
	FormValue() string
}

// Value returns the current value of the field in item, formatted for an input.
func (f FormField) Value(item interface{}) string {
	val, ok := Field(item, f.Name)
	if !ok {
		return ""
	}
	if fv, ok := val.(FormValuer); ok && !isNil(val) {
		return fv.FormValue()
	}
	return Stringify(val)
}
