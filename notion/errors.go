package notion

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNoParent is returned when content must be created but no parent page is known.
	ErrNoParent = errors.New("no parent page: set NOTION_PARENT_PAGE_ID or pass a parent")
	// ErrNoDataSources is returned when a database has no data sources.
	ErrNoDataSources = errors.New("database has no data sources")
	// ErrDataSourceIndex is returned when a data source index is out of range.
	ErrDataSourceIndex = errors.New("data source index out of range")
	// ErrTooManyBlocks is returned when a single append exceeds MaxBlocksPerRequest.
	ErrTooManyBlocks = errors.New("too many blocks in one request")
)

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	Status     int           `json:"status"`
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	RequestID  string        `json:"request_id,omitempty"`
	RetryAfter time.Duration `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion API error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion API error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	switch e.Status {
	case http.StatusTooManyRequests, http.StatusConflict,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsNotFound reports whether err is an object_not_found API error.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
