// Implements the Notion API client with rate limiting and retries.

package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Notion API base URL.
	DefaultBaseURL = "https://api.notion.com/v1"
	// APIVersion is the pinned Notion API version (data sources architecture).
	APIVersion = "2025-09-03"
	// DefaultRateLimit is Notion's documented average request rate per integration.
	DefaultRateLimit = 3.0
	// DefaultMaxRetries is the number of retries for transient failures.
	DefaultMaxRetries = 3

	maxBackoff = 30 * time.Second
)

// Client is a rate-limited Notion API client. It is safe for concurrent use.
type Client struct {
	apiKey        string
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	maxRetries    int
	backoff       time.Duration
	defaultParent string
	log           *slog.Logger

	mu        sync.Mutex
	userCache map[string]string // user ID -> name
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, such as a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRateLimit sets the sustained request rate and burst. A non-positive
// rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = max(n, 0) }
}

// WithBackoff sets the initial retry delay; it doubles on each attempt.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithDefaultParent sets the page under which content is created when no
// parent is given.
func WithDefaultParent(pageID string) Option {
	return func(c *Client) {
		if pageID != "" {
			c.defaultParent = NormalizeID(pageID)
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("notion API key is required")
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), int(DefaultRateLimit)),
		maxRetries: DefaultMaxRetries,
		backoff:    500 * time.Millisecond,
		log:        slog.Default(),
		userCache:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DefaultParent returns the configured default parent page ID, if any.
func (c *Client) DefaultParent() string {
	return c.defaultParent
}

// RequireParent returns pageID normalized, or the default parent when pageID
// is empty. It fails with ErrNoParent when neither is set.
func (c *Client) RequireParent(pageID string) (string, error) {
	if pageID != "" {
		return ValidateID(pageID)
	}
	if c.defaultParent == "" {
		return "", ErrNoParent
	}
	return c.defaultParent, nil
}

// do sends a JSON request and decodes the JSON response into out, which may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}
	return c.doRaw(ctx, method, path, "application/json", data, out)
}

// doRaw sends body with the given content type, retrying transient failures.
func (c *Client) doRaw(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		respBody, err := c.send(ctx, method, path, contentType, body)
		if err == nil {
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to parse response of %s %s: %w", method, path, err)
			}
			return nil
		}
		if attempt >= c.maxRetries || !c.retryable(ctx, method, path, err) {
			c.log.WarnContext(ctx, "notion request failed", "method", method, "path", path, "attempts", attempt+1, "err", err)
			return err
		}
		wait := c.retryDelay(attempt, err)
		c.log.DebugContext(ctx, "notion request retry", "method", method, "path", path, "attempt", attempt+1, "wait", wait, "err", err)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	c.log.DebugContext(ctx, "notion request", "method", method, "path", path, "bytes", len(body))
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.DebugContext(ctx, "notion response", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(start))

	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp, respBody)
	}
	return respBody, nil
}

func parseAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	apiErr.Status = resp.StatusCode
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return apiErr
}

// retryable reports whether a failed request may be sent again. Requests that
// create something are only resent when the API rejected them with 429 or
// the connection was never made, so a lost response cannot duplicate content.
func (c *Client) retryable(ctx context.Context, method, path string, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if !idempotent(method, path) {
			return apiErr.Status == http.StatusTooManyRequests
		}
		return apiErr.Retryable()
	}
	if !idempotent(method, path) {
		return notSent(err)
	}
	return true
}

// idempotent reports whether sending the request twice has the same effect
// as sending it once.
func idempotent(method, path string) bool {
	switch method {
	case http.MethodPost:
		return path == "/search" || strings.HasSuffix(path, "/query") || strings.HasSuffix(path, "/move")
	case http.MethodPatch:
		return !strings.HasSuffix(path, "/children")
	}
	return true
}

// notSent reports whether err shows the request never reached the server.
func notSent(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func (c *Client) retryDelay(attempt int, err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}
	d := c.backoff << attempt
	if d <= 0 || d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// GetUser retrieves a user by ID.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/"+NormalizeID(userID), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ResolveUserName returns the display name of a user, caching lookups.
// Unresolvable users are reported as "Unknown".
func (c *Client) ResolveUserName(ctx context.Context, userID string) string {
	c.mu.Lock()
	name, ok := c.userCache[userID]
	c.mu.Unlock()
	if ok {
		return name
	}

	name = "Unknown"
	if u, err := c.GetUser(ctx, userID); err == nil && u.Name != "" {
		name = u.Name
	}
	c.mu.Lock()
	c.userCache[userID] = name
	c.mu.Unlock()
	return name
}

// FlattenPage decodes a page's properties, resolving the names of users the
// API returned by ID only. page is left unchanged.
func (c *Client) FlattenPage(ctx context.Context, page *Page) map[string]any {
	out := make(map[string]any, len(page.Properties)+1)
	out["_id"] = page.ID
	for name, prop := range page.Properties {
		if len(prop.People) > 0 {
			people := make([]User, len(prop.People))
			for i, u := range prop.People {
				people[i] = c.resolved(ctx, u)
			}
			prop.People = people
		}
		if prop.CreatedBy != nil {
			u := c.resolved(ctx, *prop.CreatedBy)
			prop.CreatedBy = &u
		}
		if prop.LastEditedBy != nil {
			u := c.resolved(ctx, *prop.LastEditedBy)
			prop.LastEditedBy = &u
		}
		out[name] = ExtractPropertyValue(prop)
	}
	return out
}

func (c *Client) resolved(ctx context.Context, u User) User {
	if u.Name == "" && u.ID != "" {
		u.Name = c.ResolveUserName(ctx, u.ID)
	}
	return u
}
