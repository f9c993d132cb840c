package notion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"time"
)

// Search object filters.
const (
	SearchPages       = "page"
	SearchDataSources = "data_source"
)

// SearchFilter restricts search results to one object type.
type SearchFilter struct {
	Property string `json:"property"` // always "object"
	Value    string `json:"value"`    // SearchPages or SearchDataSources
}

// SearchRequest is the body of the search endpoint.
type SearchRequest struct {
	Query       string        `json:"query,omitempty"`
	Filter      *SearchFilter `json:"filter,omitempty"`
	StartCursor string        `json:"start_cursor,omitempty"`
	PageSize    int           `json:"page_size,omitempty"`
}

// Search returns one page of results.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 100
	}
	var resp SearchResponse
	if err := c.do(ctx, http.MethodPost, "/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchAll returns every page or data source whose title matches query.
// objectFilter is SearchPages, SearchDataSources or empty for both. limit
// caps the number of results; zero means no cap.
func (c *Client) SearchAll(ctx context.Context, query, objectFilter string, limit int) ([]SearchResult, error) {
	req := &SearchRequest{Query: query}
	if objectFilter != "" {
		req.Filter = &SearchFilter{Property: "object", Value: objectFilter}
	}
	var results []SearchResult
	for {
		resp, err := c.Search(ctx, req)
		if err != nil {
			return nil, err
		}
		results = append(results, resp.Results...)
		if limit > 0 && len(results) >= limit {
			return results[:limit], nil
		}
		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		req.StartCursor = *resp.NextCursor
	}
	return results, nil
}

// ListComments returns the unresolved comments on a page or block.
func (c *Client) ListComments(ctx context.Context, blockID string) ([]Comment, error) {
	var comments []Comment
	q := url.Values{"block_id": {NormalizeID(blockID)}, "page_size": {"100"}}
	for {
		var resp PaginatedResponse[Comment]
		if err := c.do(ctx, http.MethodGet, "/comments?"+q.Encode(), nil, &resp); err != nil {
			return nil, err
		}
		comments = append(comments, resp.Results...)
		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		q.Set("start_cursor", *resp.NextCursor)
	}
	return comments, nil
}

// CreateComment adds a comment to a page.
func (c *Client) CreateComment(ctx context.Context, pageID, text string) (*Comment, error) {
	body := struct {
		Parent   Parent     `json:"parent"`
		RichText []RichText `json:"rich_text"`
	}{PageParent(NormalizeID(pageID)), RichTextFrom(text)}
	var out Comment
	if err := c.do(ctx, http.MethodPost, "/comments", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateFileUpload starts a single-part file upload.
func (c *Client) CreateFileUpload(ctx context.Context, filename, contentType string) (*FileUpload, error) {
	body := map[string]string{"mode": "single_part", "filename": filename}
	if contentType != "" {
		body["content_type"] = contentType
	}
	var fu FileUpload
	if err := c.do(ctx, http.MethodPost, "/file_uploads", body, &fu); err != nil {
		return nil, err
	}
	return &fu, nil
}

// SendFileUpload sends the content of a pending upload. The returned upload
// has status "uploaded" and can be attached with MediaUpload.
func (c *Client) SendFileUpload(ctx context.Context, uploadID, filename, contentType string, r io.Reader) (*FileUpload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read upload content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	start := time.Now()
	var fu FileUpload
	if err := c.doRaw(ctx, http.MethodPost, "/file_uploads/"+uploadID+"/send", w.FormDataContentType(), buf.Bytes(), &fu); err != nil {
		return nil, err
	}
	c.log.DebugContext(ctx, "uploaded file", "id", fu.ID, "name", filename, "bytes", buf.Len(), "elapsed", time.Since(start))
	return &fu, nil
}
