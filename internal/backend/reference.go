package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/certportal/certportal/internal/domain"
)

// ListPeople handles GET /api/people
func (c *Client) ListPeople(ctx context.Context, filter domain.PeopleFilter) ([]domain.Person, error) {
	q := url.Values{}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Batch != "" {
		q.Set("batch", filter.Batch)
	}
	path := "/api/people"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return listJSON[domain.Person](ctx, c, path)
}

// CreatePerson handles POST /api/people
func (c *Client) CreatePerson(ctx context.Context, p domain.Person) (*domain.Person, error) {
	var out domain.Person
	if err := c.doJSON(ctx, http.MethodPost, "/api/people", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePerson handles PUT /api/people/:id
func (c *Client) UpdatePerson(ctx context.Context, id string, p domain.Person) (*domain.Person, error) {
	var out domain.Person
	if err := c.doJSON(ctx, http.MethodPut, "/api/people/"+url.PathEscape(id), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePerson handles DELETE /api/people/:id
func (c *Client) DeletePerson(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/people/"+url.PathEscape(id), nil, nil)
}

// ListBatches handles GET /api/batches
func (c *Client) ListBatches(ctx context.Context, category string) ([]domain.Batch, error) {
	path := "/api/batches"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}
	return listJSON[domain.Batch](ctx, c, path)
}

// CreateBatch handles POST /api/batches
func (c *Client) CreateBatch(ctx context.Context, b domain.Batch) (*domain.Batch, error) {
	var out domain.Batch
	if err := c.doJSON(ctx, http.MethodPost, "/api/batches", b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBatch handles PUT /api/batches/:id
func (c *Client) UpdateBatch(ctx context.Context, id string, b domain.Batch) (*domain.Batch, error) {
	var out domain.Batch
	if err := c.doJSON(ctx, http.MethodPut, "/api/batches/"+url.PathEscape(id), b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBatch handles DELETE /api/batches/:id
func (c *Client) DeleteBatch(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/batches/"+url.PathEscape(id), nil, nil)
}

// ListCategories handles GET /api/categories
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return listJSON[domain.Category](ctx, c, "/api/categories")
}

// CreateCategory handles POST /api/categories
func (c *Client) CreateCategory(ctx context.Context, cat domain.Category) (*domain.Category, error) {
	var out domain.Category
	if err := c.doJSON(ctx, http.MethodPost, "/api/categories", cat, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategory handles PUT /api/categories/:id
func (c *Client) UpdateCategory(ctx context.Context, id string, cat domain.Category) (*domain.Category, error) {
	var out domain.Category
	if err := c.doJSON(ctx, http.MethodPut, "/api/categories/"+url.PathEscape(id), cat, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory handles DELETE /api/categories/:id
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil)
}

// ListStudentDocuments handles GET /api/documents/students/documents
func (c *Client) ListStudentDocuments(ctx context.Context) ([]domain.StudentDocuments, error) {
	return listJSON[domain.StudentDocuments](ctx, c, "/api/documents/students/documents")
}

// UpdateDocumentStatus handles PUT /api/documents/students/:id/documents/:type/status
func (c *Client) UpdateDocumentStatus(ctx context.Context, studentID, docType string, update domain.DocumentStatusUpdate) error {
	path := "/api/documents/students/" + url.PathEscape(studentID) + "/documents/" + url.PathEscape(docType) + "/status"
	return c.doJSON(ctx, http.MethodPut, path, update, nil)
}

// CurrentAdmin handles GET /api/admins/me
func (c *Client) CurrentAdmin(ctx context.Context) (*domain.Admin, error) {
	var out domain.Admin
	if err := c.doJSON(ctx, http.MethodGet, "/api/admins/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCurrentAdmin handles PUT /api/admins/me
func (c *Client) UpdateCurrentAdmin(ctx context.Context, update domain.ProfileUpdate) (*domain.Admin, error) {
	var out domain.Admin
	if err := c.doJSON(ctx, http.MethodPut, "/api/admins/me", update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAdmins handles GET /api/admins
func (c *Client) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	return listJSON[domain.Admin](ctx, c, "/api/admins")
}
