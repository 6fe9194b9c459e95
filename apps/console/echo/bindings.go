package echoweb

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/apps/workspace"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/table"
)

const (
	searchParam   = "q"
	orderingParam = "ordering"
	formatParam   = "format"
)

// wantsJSON reports whether the client asked for JSON rather than HTML.
func wantsJSON(ctx echo.Context) bool {
	return strings.Contains(ctx.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

func isJSONBody(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

// bindQuery reads the search, ordering and selected filter values from the query string.
func bindQuery(ctx echo.Context, filters []table.Filter) table.Query {
	q := table.Query{
		Search:    ctx.QueryParam(searchParam),
		Orderings: table.ParseOrdering(ctx.QueryParam(orderingParam)),
		Filters:   make(map[string]string, len(filters)),
	}
	for _, f := range filters {
		if val := ctx.QueryParam(f.Key); val != "" {
			q.Filters[f.Key] = val
		}
	}
	return q
}

// bindFormat reads the file format from the query string, CSV by default.
func bindFormat(ctx echo.Context) (table.Format, error) {
	val := ctx.QueryParam(formatParam)
	if val == "" {
		val = ctx.FormValue(formatParam)
	}
	if val == "" {
		return table.CSV, nil
	}
	return table.ParseFormat(val)
}

var errInvalidPayload = errors.New("invalid payload")

// newDecoder returns a decoder reading a JSON body, or the form inputs of fields.
func newDecoder(ctx echo.Context, fields []table.FormField) workspace.Decoder {
	return func(v interface{}) error {
		if isJSONBody(ctx) {
			if err := json.NewDecoder(ctx.Request().Body).Decode(v); err != nil {
				return core.NewValidationError(errors.Wrap(errInvalidPayload, err.Error()))
			}
			return nil
		}

		values, err := formValues(ctx, fields)
		if err != nil {
			return err
		}
		data, err := json.Marshal(values)
		if err != nil {
			return errors.Wrap(err, "encoding form values")
		}
		if err := json.Unmarshal(data, v); err != nil {
			return core.NewValidationError(errors.Wrap(errInvalidPayload, err.Error()))
		}
		return nil
	}
}

// formValues converts the posted inputs to the JSON values of the item fields.
// Empty inputs are left out so the item keeps its zero value.
func formValues(ctx echo.Context, fields []table.FormField) (map[string]interface{}, error) {
	form, err := ctx.FormParams()
	if err != nil {
		return nil, errors.Wrap(err, "parsing form")
	}

	values := make(map[string]interface{}, len(fields))
	var fldErrs []core.FieldError
	for _, fld := range fields {
		raw := strings.TrimSpace(form.Get(fld.Name))
		switch fld.Type {
		case table.InputCheckbox:
			values[fld.Name] = raw == "on" || raw == "true" || raw == "1"
		case table.InputMulti:
			if vals := form[fld.Name]; len(vals) > 0 {
				values[fld.Name] = vals
			}
		case table.InputNumber:
			if raw == "" {
				continue
			}
			n, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
			if err != nil {
				fldErrs = append(fldErrs, core.FieldError{Field: fld.Name, Error: fld.Label + " must be a number"})
				continue
			}
			values[fld.Name] = n
		default:
			if raw != "" {
				values[fld.Name] = raw
			}
		}
	}
	if len(fldErrs) > 0 {
		return nil, core.NewValidationError(nil, fldErrs...)
	}
	return values, nil
}
