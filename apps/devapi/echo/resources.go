package devapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/storage/memdb"
)

const contextResourceKey = "resource"

// resource describes one collection. Enveloped collections answer `{"data": ...}`, the others raw JSON.
type resource struct {
	name      string
	enveloped bool
	check     func(rec memdb.Record) error
	unique    []string // fields no two records may share
}

// checkUnique fails with a conflict when rec repeats a unique field of a record other than id.
func (res resource) checkUnique(tbl *memdb.Table[memdb.Record], rec memdb.Record, id string) error {
	for _, key := range res.unique {
		val := recordString(rec, key)
		if val == "" {
			continue
		}
		for _, other := range tbl.All() {
			if id != "" && other.ID() == id {
				continue
			}
			if strings.EqualFold(recordString(other, key), val) {
				msg := fmt.Sprintf("%s %s already used", key, val)
				return echo.NewHTTPError(http.StatusConflict, echo.Map{
					"message": msg,
					"fields":  map[string]string{key: msg},
				})
			}
		}
	}
	return nil
}

func recordString(rec memdb.Record, key string) string {
	val, ok := rec[key]
	if !ok || val == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(val))
}

// checker validates a record as the entity T.
func checker[T school.Validatable](v *school.Validator) func(memdb.Record) error {
	return func(rec memdb.Record) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrap(err, "encoding record")
		}
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return core.NewValidationError(errors.Wrap(err, "invalid payload"))
		}
		return v.Check(item)
	}
}

type resourceApi struct {
	db        *memdb.DB
	resources map[string]resource
}

func registerResourceAPI(g *echo.Group, jwt echo.MiddlewareFunc, db *memdb.DB, resources []resource) {
	api := resourceApi{
		db:        db,
		resources: make(map[string]resource, len(resources)),
	}
	for _, res := range resources {
		api.resources[res.name] = res
	}

	rg := g.Group("/:resource", jwt, api.resourceMiddleware)
	rg.GET("", api.query)
	rg.POST("", api.create)
	rg.GET("/:id", api.retrieve)
	rg.PUT("/:id", api.update)
	rg.DELETE("/:id", api.destroy)
}

func (api *resourceApi) resourceMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		res, ok := api.resources[ctx.Param("resource")]
		if !ok {
			return errHttpNotFound
		}
		ctx.Set(contextResourceKey, res)
		return next(ctx)
	}
}

func (api *resourceApi) context(ctx echo.Context) (resource, *memdb.Table[memdb.Record], error) {
	res, ok := ctx.Get(contextResourceKey).(resource)
	if !ok {
		return res, nil, errHttpNotFound
	}
	tbl, ok := api.db.Table(res.name)
	if !ok {
		return res, nil, errHttpNotFound
	}
	return res, tbl, nil
}

// bindRecord decodes the JSON body. An empty body is an empty record.
func bindRecord(ctx echo.Context) (memdb.Record, error) {
	rec := memdb.Record{}
	if err := json.NewDecoder(ctx.Request().Body).Decode(&rec); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding body")
	}
	return rec, nil
}

func respond(ctx echo.Context, res resource, code int, data interface{}, total ...int) error {
	if !res.enveloped {
		return ctx.JSON(code, data)
	}
	body := echo.Map{"data": data}
	if len(total) > 0 {
		body["total"] = total[0]
	}
	return ctx.JSON(code, body)
}

// Handlers

func (api *resourceApi) query(ctx echo.Context) error {
	res, tbl, err := api.context(ctx)
	if err != nil {
		return err
	}
	rows := tbl.All()
	return respond(ctx, res, http.StatusOK, rows, len(rows))
}

func (api *resourceApi) retrieve(ctx echo.Context) error {
	res, tbl, err := api.context(ctx)
	if err != nil {
		return err
	}
	row, err := tbl.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, res, http.StatusOK, row)
}

func (api *resourceApi) create(ctx echo.Context) error {
	res, tbl, err := api.context(ctx)
	if err != nil {
		return err
	}
	rec, err := bindRecord(ctx)
	if err != nil {
		return err
	}
	if rec.ID() == "" {
		delete(rec, "id")
	}
	if err := res.check(rec); err != nil {
		return err
	}
	if err := res.checkUnique(tbl, rec, ""); err != nil {
		return err
	}
	row, err := tbl.Insert(rec)
	if err != nil {
		return errors.Wrap(err, "inserting record")
	}
	return respond(ctx, res, http.StatusCreated, row)
}

// update merges the fields sent into the stored record.
func (api *resourceApi) update(ctx echo.Context) error {
	res, tbl, err := api.context(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")
	existing, err := tbl.Get(id)
	if err != nil {
		return err
	}
	patch, err := bindRecord(ctx)
	if err != nil {
		return err
	}
	delete(patch, "id")

	merged := existing.Merge(patch)
	if err := res.check(merged); err != nil {
		return err
	}
	if err := res.checkUnique(tbl, merged, id); err != nil {
		return err
	}
	row, err := tbl.Update(id, func(memdb.Record) memdb.Record { return merged })
	if err != nil {
		return err
	}
	return respond(ctx, res, http.StatusOK, row)
}

func (api *resourceApi) destroy(ctx echo.Context) error {
	_, tbl, err := api.context(ctx)
	if err != nil {
		return err
	}
	if err := tbl.Delete(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
