package restapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/trezcool/masomo-console/core/school"
)

// Resource maps the REST conventions of one collection:
// GET/POST /{path}, GET/PUT/DELETE /{path}/{id}.
type Resource[T any] struct {
	client *Client
	path   string
}

// NewResource returns the collection served at path, e.g. "etudiants".
func NewResource[T any](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: "/" + path}
}

func (r *Resource[T]) Name() string { return r.path[1:] }

func (r *Resource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	data, err := r.client.do(ctx, http.MethodGet, r.path, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[T](data)
}

// Get returns the item identified by id; an empty answer is reported as a 404.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	data, err := r.client.do(ctx, http.MethodGet, r.itemPath(id), nil)
	if err != nil {
		var zero T
		return zero, err
	}
	item, ok, err := decodeOne[T](data)
	if err == nil && !ok {
		err = &HTTPError{Method: http.MethodGet, URL: r.client.baseURL + r.itemPath(id), StatusCode: http.StatusNotFound}
	}
	return item, err
}

// Add creates item. ok is false when the backend answered without a body.
func (r *Resource[T]) Add(ctx context.Context, item T) (created T, ok bool, err error) {
	data, err := r.client.do(ctx, http.MethodPost, r.path, item)
	if err != nil {
		return created, false, err
	}
	return decodeOne[T](data)
}

// Update replaces the item identified by id. ok is false when the backend answered without a body.
func (r *Resource[T]) Update(ctx context.Context, id string, item T) (updated T, ok bool, err error) {
	data, err := r.client.do(ctx, http.MethodPut, r.itemPath(id), item)
	if err != nil {
		return updated, false, err
	}
	return decodeOne[T](data)
}

// Patch sends only fields; the backend merges them into the stored item.
func (r *Resource[T]) Patch(ctx context.Context, id string, fields map[string]interface{}) (updated T, ok bool, err error) {
	data, err := r.client.do(ctx, http.MethodPut, r.itemPath(id), fields)
	if err != nil {
		return updated, false, err
	}
	return decodeOne[T](data)
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.client.do(ctx, http.MethodDelete, r.itemPath(id), nil)
	return err
}

func (c *Client) Etudiants() *Resource[school.Student] {
	return NewResource[school.Student](c, school.ResourceEtudiants)
}

func (c *Client) Professeurs() *Resource[school.Professor] {
	return NewResource[school.Professor](c, school.ResourceProfesseurs)
}

func (c *Client) Formations() *Resource[school.Formation] {
	return NewResource[school.Formation](c, school.ResourceFormations)
}

func (c *Client) Programmes() *Resource[school.Programme] {
	return NewResource[school.Programme](c, school.ResourceProgrammes)
}

func (c *Client) Diplomes() *Resource[school.Diplome] {
	return NewResource[school.Diplome](c, school.ResourceDiplomes)
}

func (c *Client) Matieres() *Resource[school.Matiere] {
	return NewResource[school.Matiere](c, school.ResourceMatieres)
}

func (c *Client) Horaires() *Resource[school.Horaire] {
	return NewResource[school.Horaire](c, school.ResourceHoraires)
}
