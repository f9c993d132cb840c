package notion

import (
	"context"
	"fmt"
	"net/http"
)

type createPageBody struct {
	Parent     Parent                   `json:"parent"`
	Properties map[string]PropertyValue `json:"properties"`
	Children   []Block                  `json:"children,omitempty"`
	Icon       *Icon                    `json:"icon,omitempty"`
	Cover      *FileObject              `json:"cover,omitempty"`
}

// CreatePageRequest describes a page to create under another page.
type CreatePageRequest struct {
	ParentPageID string // defaults to the client's default parent
	Title        string
	Icon         *Icon
	Cover        *FileObject
	Children     []Block
}

// CreatePage creates a page under a page.
func (c *Client) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
	parentID, err := c.RequireParent(req.ParentPageID)
	if err != nil {
		return nil, err
	}
	return c.createPage(ctx, createPageBody{
		Parent:     PageParent(parentID),
		Properties: map[string]PropertyValue{"title": TitleValue(req.Title)},
		Icon:       req.Icon,
		Cover:      req.Cover,
	}, req.Children)
}

// createPage sends the first MaxBlocksPerRequest children with the page and
// appends the rest in batches.
func (c *Client) createPage(ctx context.Context, body createPageBody, children []Block) (*Page, error) {
	var rest []Block
	if len(children) > MaxBlocksPerRequest {
		children, rest = children[:MaxBlocksPerRequest], children[MaxBlocksPerRequest:]
	}
	body.Children = children
	if body.Properties == nil {
		body.Properties = map[string]PropertyValue{}
	}
	var page Page
	if err := c.do(ctx, http.MethodPost, "/pages", body, &page); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	c.log.DebugContext(ctx, "created page", "id", page.ID, "parent", body.Parent.ID(), "blocks", len(children)+len(rest))
	if len(rest) > 0 {
		if err := c.AppendBlocksBatched(ctx, page.ID, rest); err != nil {
			return &page, fmt.Errorf("append remaining content to page %s: %w", page.ID, err)
		}
	}
	return &page, nil
}

// GetPage retrieves a page and its properties.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodGet, "/pages/"+NormalizeID(pageID), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePageRequest changes page attributes. Nil fields are left unchanged.
type UpdatePageRequest struct {
	Properties   map[string]PropertyValue `json:"properties,omitempty"`
	Icon         *Icon                    `json:"icon,omitempty"`
	Cover        *FileObject              `json:"cover,omitempty"`
	Archived     *bool                    `json:"archived,omitempty"`
	EraseContent bool                     `json:"erase_content,omitempty"`
}

// UpdatePage patches a page.
func (c *Client) UpdatePage(ctx context.Context, pageID string, req UpdatePageRequest) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodPatch, "/pages/"+NormalizeID(pageID), req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ArchivePage moves a page to the trash. Archiving is the only way to delete.
func (c *Client) ArchivePage(ctx context.Context, pageID string) (*Page, error) {
	archived := true
	return c.UpdatePage(ctx, pageID, UpdatePageRequest{Archived: &archived})
}

// RestorePage takes a page out of the trash.
func (c *Client) RestorePage(ctx context.Context, pageID string) (*Page, error) {
	archived := false
	return c.UpdatePage(ctx, pageID, UpdatePageRequest{Archived: &archived})
}

// RenamePage sets the title of a page.
func (c *Client) RenamePage(ctx context.Context, page *Page, title string) (*Page, error) {
	return c.UpdatePage(ctx, page.ID, UpdatePageRequest{
		Properties: map[string]PropertyValue{page.TitlePropertyName(): TitleValue(title)},
	})
}

type movePageBody struct {
	Parent Parent `json:"parent"`
}

// MovePage re-parents a page under another page through the move endpoint,
// then restores it if it was in the trash.
func (c *Client) MovePage(ctx context.Context, pageID, newParentID string) (*Page, error) {
	id := NormalizeID(pageID)
	body := movePageBody{Parent: PageParent(NormalizeID(newParentID))}
	c.log.DebugContext(ctx, "moving page", "id", id, "parent", body.Parent.PageID)
	var page Page
	if err := c.do(ctx, http.MethodPost, "/pages/"+id+"/move", body, &page); err != nil {
		return nil, fmt.Errorf("move page %s: %w", id, err)
	}
	if page.Archived || page.InTrash {
		return c.RestorePage(ctx, id)
	}
	return &page, nil
}

// ErasePageContent removes every block of a page in a single call.
func (c *Client) ErasePageContent(ctx context.Context, pageID string) error {
	_, err := c.UpdatePage(ctx, pageID, UpdatePageRequest{EraseContent: true})
	return err
}

// ChildPages lists the child_page blocks directly under a page, in order.
func (c *Client) ChildPages(ctx context.Context, pageID string) ([]Block, error) {
	blocks, err := c.GetBlockChildrenAll(ctx, pageID)
	if err != nil {
		return nil, err
	}
	var out []Block
	for _, b := range blocks {
		if b.Type == BlockChildPage {
			out = append(out, b)
		}
	}
	return out, nil
}

// ReparentPages moves pages back under parentID, in order, so they appear
// after the parent's content.
func (c *Client) ReparentPages(ctx context.Context, parentID string, pageIDs []string) error {
	for _, id := range pageIDs {
		if _, err := c.MovePage(ctx, id, parentID); err != nil {
			return fmt.Errorf("reparent page %s: %w", id, err)
		}
	}
	return nil
}
