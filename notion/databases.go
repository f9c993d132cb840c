package notion

import (
	"context"
	"fmt"
	"net/http"
)

// CreateDatabaseRequest describes a database to create under a page.
type CreateDatabaseRequest struct {
	Title        string
	Description  string
	Properties   map[string]PropertySchema
	ParentPageID string // defaults to the client's default parent
	Icon         *Icon
	Cover        *FileObject
	IsInline     bool
}

type createDatabaseBody struct {
	Parent            Parent            `json:"parent"`
	Title             []RichText        `json:"title"`
	Description       []RichText        `json:"description,omitempty"`
	Icon              *Icon             `json:"icon,omitempty"`
	Cover             *FileObject       `json:"cover,omitempty"`
	IsInline          bool              `json:"is_inline,omitempty"`
	InitialDataSource initialDataSource `json:"initial_data_source"`
}

type initialDataSource struct {
	Properties map[string]PropertySchema `json:"properties"`
}

// CreateDatabase creates a database with one data source holding the schema.
func (c *Client) CreateDatabase(ctx context.Context, req CreateDatabaseRequest) (*Database, error) {
	parentID, err := c.RequireParent(req.ParentPageID)
	if err != nil {
		return nil, err
	}
	if err := ValidateSchema(req.Properties); err != nil {
		return nil, err
	}
	body := createDatabaseBody{
		Parent:            PageParent(parentID),
		Title:             RichTextFrom(req.Title),
		Icon:              req.Icon,
		Cover:             req.Cover,
		IsInline:          req.IsInline,
		InitialDataSource: initialDataSource{Properties: req.Properties},
	}
	if req.Description != "" {
		body.Description = RichTextFrom(req.Description)
	}
	var db Database
	if err := c.do(ctx, http.MethodPost, "/databases", body, &db); err != nil {
		return nil, fmt.Errorf("create database %q: %w", req.Title, err)
	}
	c.log.DebugContext(ctx, "created database", "id", db.ID, "title", req.Title, "data_sources", len(db.DataSources))
	return &db, nil
}

// UpdateDatabaseRequest changes database container attributes. Nil fields
// are left unchanged; the schema lives on the data source.
type UpdateDatabaseRequest struct {
	Title       []RichText `json:"title,omitempty"`
	Description []RichText `json:"description,omitempty"`
	Icon        *Icon      `json:"icon,omitempty"`
	Parent      *Parent    `json:"parent,omitempty"`
	InTrash     *bool      `json:"in_trash,omitempty"`
}

// UpdateDatabase patches a database container.
func (c *Client) UpdateDatabase(ctx context.Context, databaseID string, req UpdateDatabaseRequest) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodPatch, "/databases/"+NormalizeID(databaseID), req, &db); err != nil {
		return nil, fmt.Errorf("update database %s: %w", databaseID, err)
	}
	return &db, nil
}

// MoveDatabase re-parents a database under another page.
func (c *Client) MoveDatabase(ctx context.Context, databaseID, newParentID string) (*Database, error) {
	parent := PageParent(NormalizeID(newParentID))
	c.log.DebugContext(ctx, "moving database", "id", databaseID, "parent", parent.PageID)
	return c.UpdateDatabase(ctx, databaseID, UpdateDatabaseRequest{Parent: &parent})
}

// GetDatabase retrieves a database container, including its data source list.
func (c *Client) GetDatabase(ctx context.Context, databaseID string) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodGet, "/databases/"+NormalizeID(databaseID), nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// GetDataSourceID returns the ID of the index-th data source of a database.
func (c *Client) GetDataSourceID(ctx context.Context, databaseID string, index int) (string, error) {
	db, err := c.GetDatabase(ctx, databaseID)
	if err != nil {
		return "", err
	}
	if len(db.DataSources) == 0 {
		return "", fmt.Errorf("database %s: %w", db.ID, ErrNoDataSources)
	}
	if index < 0 || index >= len(db.DataSources) {
		return "", fmt.Errorf("database %s has %d data sources, index %d: %w", db.ID, len(db.DataSources), index, ErrDataSourceIndex)
	}
	return db.DataSources[index].ID, nil
}

// GetDataSource retrieves a data source with its schema.
func (c *Client) GetDataSource(ctx context.Context, dataSourceID string) (*DataSource, error) {
	var ds DataSource
	if err := c.do(ctx, http.MethodGet, "/data_sources/"+NormalizeID(dataSourceID), nil, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// UpdateDataSourceRequest modifies a data source schema. A nil entry in
// Properties removes that property; an entry with only Name renames it.
type UpdateDataSourceRequest struct {
	Title      []RichText                 `json:"title,omitempty"`
	Properties map[string]*PropertySchema `json:"properties,omitempty"`
}

// UpdateDataSource changes a data source's title or schema.
func (c *Client) UpdateDataSource(ctx context.Context, dataSourceID string, req UpdateDataSourceRequest) (*DataSource, error) {
	var ds DataSource
	if err := c.do(ctx, http.MethodPatch, "/data_sources/"+NormalizeID(dataSourceID), req, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Sort orders query results by a property or a timestamp.
type Sort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"` // "created_time" or "last_edited_time"
	Direction string `json:"direction"`           // "ascending" or "descending"
}

// QueryOptions filters and pages a data source query.
type QueryOptions struct {
	Filter      any    `json:"filter,omitempty"`
	Sorts       []Sort `json:"sorts,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// QueryDataSource returns one page of rows from a data source.
func (c *Client) QueryDataSource(ctx context.Context, dataSourceID string, opts *QueryOptions) (*QueryResponse, error) {
	if opts == nil {
		opts = &QueryOptions{}
	}
	if opts.PageSize <= 0 || opts.PageSize > 100 {
		opts.PageSize = 100
	}
	var resp QueryResponse
	if err := c.do(ctx, http.MethodPost, "/data_sources/"+NormalizeID(dataSourceID)+"/query", opts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryDataSourceAll returns every row of a data source matching opts.
func (c *Client) QueryDataSourceAll(ctx context.Context, dataSourceID string, opts *QueryOptions) ([]Page, error) {
	q := QueryOptions{}
	if opts != nil {
		q = *opts
	}
	var pages []Page
	for {
		resp, err := c.QueryDataSource(ctx, dataSourceID, &q)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		q.StartCursor = *resp.NextCursor
	}
	return pages, nil
}

// QueryDatabase returns every row of a database matching filter. When
// dataSourceID is empty the database's first data source is queried.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter any, dataSourceID string) ([]Page, error) {
	if dataSourceID == "" {
		var err error
		if dataSourceID, err = c.GetDataSourceID(ctx, databaseID, 0); err != nil {
			return nil, err
		}
	}
	return c.QueryDataSourceAll(ctx, dataSourceID, &QueryOptions{Filter: filter})
}

// PageOptions holds optional attributes of a new page.
type PageOptions struct {
	Icon         *Icon
	Cover        *FileObject
	DataSourceID string // skips data source resolution when set
}

// CreatePageInDatabase adds a row to a database. The parent is always the
// database's data source.
func (c *Client) CreatePageInDatabase(ctx context.Context, databaseID string, properties map[string]PropertyValue, children []Block, opts *PageOptions) (*Page, error) {
	if opts == nil {
		opts = &PageOptions{}
	}
	dsID := opts.DataSourceID
	if dsID == "" {
		var err error
		if dsID, err = c.GetDataSourceID(ctx, databaseID, 0); err != nil {
			return nil, err
		}
	}
	return c.createPage(ctx, createPageBody{
		Parent:     DataSourceParent(NormalizeID(dsID)),
		Properties: properties,
		Icon:       opts.Icon,
		Cover:      opts.Cover,
	}, children)
}
