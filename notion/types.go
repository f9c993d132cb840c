// Defines the Notion API object model for API version 2025-09-03.

package notion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaginatedResponse is the common structure for paginated API responses.
type PaginatedResponse[T any] struct {
	Object     string  `json:"object"`
	Results    []T     `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// QueryResponse is the response from the data source query endpoint.
type QueryResponse = PaginatedResponse[Page]

// BlocksResponse is the response from the block children endpoint.
type BlocksResponse = PaginatedResponse[Block]

// SearchResponse is the response from the search endpoint.
type SearchResponse = PaginatedResponse[SearchResult]

// ParentType discriminates Parent.
type ParentType string

// Parent types.
const (
	ParentPage       ParentType = "page_id"
	ParentDatabase   ParentType = "database_id"
	ParentDataSource ParentType = "data_source_id"
	ParentBlock      ParentType = "block_id"
	ParentWorkspace  ParentType = "workspace"
)

// Parent is the parent of a page, database, data source or block.
//
// Exactly one ID field matching Type is set.
type Parent struct {
	Type         ParentType `json:"type"`
	PageID       string     `json:"page_id,omitempty"`
	DatabaseID   string     `json:"database_id,omitempty"`
	DataSourceID string     `json:"data_source_id,omitempty"`
	BlockID      string     `json:"block_id,omitempty"`
	Workspace    bool       `json:"workspace,omitempty"`
}

// PageParent returns a parent pointing at a page.
func PageParent(pageID string) Parent {
	return Parent{Type: ParentPage, PageID: pageID}
}

// DataSourceParent returns a parent pointing at a data source.
func DataSourceParent(dataSourceID string) Parent {
	return Parent{Type: ParentDataSource, DataSourceID: dataSourceID}
}

// ID returns the identifier of the parent object, whatever its type.
func (p Parent) ID() string {
	switch p.Type {
	case ParentPage:
		return p.PageID
	case ParentDatabase:
		return p.DatabaseID
	case ParentDataSource:
		return p.DataSourceID
	case ParentBlock:
		return p.BlockID
	}
	return ""
}

// Icon is a page, database or callout icon.
type Icon struct {
	Type     string        `json:"type"` // "emoji", "external", "file"
	Emoji    string        `json:"emoji,omitempty"`
	External *ExternalFile `json:"external,omitempty"`
	File     *HostedFile   `json:"file,omitempty"`
}

// EmojiIcon returns an emoji icon, or nil for an empty emoji.
func EmojiIcon(emoji string) *Icon {
	if emoji == "" {
		return nil
	}
	return &Icon{Type: "emoji", Emoji: emoji}
}

// ExternalFile references a file by URL.
type ExternalFile struct {
	URL string `json:"url"`
}

// HostedFile is a file hosted by Notion; the URL expires.
type HostedFile struct {
	URL        string     `json:"url"`
	ExpiryTime *time.Time `json:"expiry_time,omitempty"`
}

// FileUploadRef references a completed file upload.
type FileUploadRef struct {
	ID string `json:"id"`
}

// FileObject is a file reference used by covers, media blocks and files properties.
type FileObject struct {
	Type       string         `json:"type"` // "external", "file", "file_upload"
	Name       string         `json:"name,omitempty"`
	External   *ExternalFile  `json:"external,omitempty"`
	File       *HostedFile    `json:"file,omitempty"`
	FileUpload *FileUploadRef `json:"file_upload,omitempty"`
	Caption    []RichText     `json:"caption,omitempty"`
}

// ExternalFileObject returns a file object pointing at url.
func ExternalFileObject(url string) *FileObject {
	if url == "" {
		return nil
	}
	return &FileObject{Type: "external", External: &ExternalFile{URL: url}}
}

// URL returns the file URL, if any.
func (f *FileObject) URL() string {
	switch {
	case f == nil:
		return ""
	case f.External != nil:
		return f.External.URL
	case f.File != nil:
		return f.File.URL
	}
	return ""
}

// User is a Notion user or bot.
type User struct {
	Object    string         `json:"object,omitempty"`
	ID        string         `json:"id"`
	Name      string         `json:"name,omitempty"`
	AvatarURL *string        `json:"avatar_url,omitempty"`
	Type      string         `json:"type,omitempty"` // "person" or "bot"
	Person    *PersonDetails `json:"person,omitempty"`
}

// PersonDetails contains person-specific details.
type PersonDetails struct {
	Email string `json:"email"`
}

// Page is a Notion page: a database row when its parent is a data source,
// a hierarchy node when its parent is a page.
type Page struct {
	Object         string                   `json:"object"`
	ID             string                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time"`
	LastEditedTime time.Time                `json:"last_edited_time"`
	Parent         Parent                   `json:"parent"`
	Archived       bool                     `json:"archived"`
	InTrash        bool                     `json:"in_trash,omitempty"`
	Icon           *Icon                    `json:"icon,omitempty"`
	Cover          *FileObject              `json:"cover,omitempty"`
	Properties     map[string]PropertyValue `json:"properties"`
	URL            string                   `json:"url,omitempty"`
}

// Title returns the plain text of the page's title property.
func (p *Page) Title() string {
	for _, prop := range p.Properties {
		if prop.Type == PropertyTypeTitle {
			return PlainText(prop.Title)
		}
	}
	return ""
}

// TitlePropertyName returns the name of the title property, "title" for plain pages.
func (p *Page) TitlePropertyName() string {
	for name, prop := range p.Properties {
		if prop.Type == PropertyTypeTitle {
			return name
		}
	}
	return "title"
}

// DataSourceRef is an entry of Database.DataSources.
type DataSourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Database is the container of one or more data sources.
type Database struct {
	Object         string          `json:"object"`
	ID             string          `json:"id"`
	CreatedTime    time.Time       `json:"created_time"`
	LastEditedTime time.Time       `json:"last_edited_time"`
	Title          []RichText      `json:"title"`
	Description    []RichText      `json:"description,omitempty"`
	Icon           *Icon           `json:"icon,omitempty"`
	Cover          *FileObject     `json:"cover,omitempty"`
	Parent         Parent          `json:"parent"`
	DataSources    []DataSourceRef `json:"data_sources"`
	IsInline       bool            `json:"is_inline"`
	Archived       bool            `json:"archived"`
	InTrash        bool            `json:"in_trash,omitempty"`
	URL            string          `json:"url,omitempty"`
}

// DataSource holds a database schema and its rows.
type DataSource struct {
	Object         string                    `json:"object"`
	ID             string                    `json:"id"`
	CreatedTime    time.Time                 `json:"created_time"`
	LastEditedTime time.Time                 `json:"last_edited_time"`
	Title          []RichText                `json:"title"`
	Parent         Parent                    `json:"parent"`
	Properties     map[string]PropertySchema `json:"properties"`
	Archived       bool                      `json:"archived"`
}

// SearchResult is an item of search results: a page or a data source.
type SearchResult struct {
	Object         string     `json:"object"` // "page" or "data_source"
	ID             string     `json:"id"`
	CreatedTime    time.Time  `json:"created_time"`
	LastEditedTime time.Time  `json:"last_edited_time"`
	Parent         Parent     `json:"parent"`
	Archived       bool       `json:"archived"`
	URL            string     `json:"url,omitempty"`
	Title          []RichText `json:"title,omitempty"`

	// PropertiesRaw holds property values for pages and the schema for data
	// sources; the shapes differ so decoding is left to DisplayTitle.
	PropertiesRaw json.RawMessage `json:"properties,omitempty"`
}

// DisplayTitle returns the title of a search result, page or data source.
func (r *SearchResult) DisplayTitle() string {
	if len(r.Title) > 0 || r.Object != "page" {
		return PlainText(r.Title)
	}
	var props map[string]PropertyValue
	if err := json.Unmarshal(r.PropertiesRaw, &props); err != nil {
		return ""
	}
	p := Page{Properties: props}
	return p.Title()
}

// Comment is a comment on a page or block.
type Comment struct {
	ID          string     `json:"id"`
	CreatedTime time.Time  `json:"created_time"`
	CreatedBy   User       `json:"created_by"`
	RichText    []RichText `json:"rich_text"`
	Parent      Parent     `json:"parent"`
}

// FileUpload is a file upload object.
type FileUpload struct {
	Object      string `json:"object"`
	ID          string `json:"id"`
	Status      string `json:"status"` // "pending", "uploaded", "expired", "failed"
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	UploadURL   string `json:"upload_url,omitempty"`
}

// NormalizeID turns a Notion ID or page URL into the canonical dashed UUID form.
// Values that are not UUIDs are returned trimmed but otherwise unchanged.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.IndexAny(id, "?#"); i >= 0 {
		id = id[:i]
	}
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	// Page URLs end with "Title-Words-<32 hex>".
	compact := strings.ReplaceAll(id, "-", "")
	if len(compact) > 32 {
		if u, err := uuid.Parse(compact[len(compact)-32:]); err == nil {
			return u.String()
		}
	}
	return id
}

// ValidateID normalizes id and fails when it is not a Notion UUID.
func ValidateID(id string) (string, error) {
	n := NormalizeID(id)
	if _, err := uuid.Parse(n); err != nil {
		return "", fmt.Errorf("invalid Notion ID %q", id)
	}
	return n, nil
}
