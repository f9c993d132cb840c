// Package notiontest provides an in-memory fake of the Notion API for tests.
//
// The fake implements the subset of the 2025-09-03 API used by this module:
// databases with data sources, pages, block children, search, users,
// comments and file uploads. It records every request so tests can assert
// how many mutating calls were made.
package notiontest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

// Request is a request received by the server.
type Request struct {
	Method string
	Path   string
}

type failure struct {
	method, prefix string
	status         int
	retryAfter     string
	remaining      int
}

// Server is a fake Notion API backed by maps.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	pages       map[string]*notion.Page
	pageOrder   []string
	databases   map[string]*notion.Database
	dataSources map[string]*notion.DataSource
	dsOrder     []string
	blocks      map[string]*notion.Block
	children    map[string][]string // parent ID -> ordered child block IDs
	users       map[string]notion.User
	comments    map[string][]notion.Comment
	uploads     map[string]*notion.FileUpload
	uploadSizes map[string]int64
	requests    []Request
	failures    []*failure
	bot         notion.User
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		pages:       make(map[string]*notion.Page),
		databases:   make(map[string]*notion.Database),
		dataSources: make(map[string]*notion.DataSource),
		blocks:      make(map[string]*notion.Block),
		children:    make(map[string][]string),
		users:       make(map[string]notion.User),
		comments:    make(map[string][]notion.Comment),
		uploads:     make(map[string]*notion.FileUpload),
		uploadSizes: make(map[string]int64),
	}
	s.bot = notion.User{Object: "user", ID: uuid.NewString(), Name: "Content OS", Type: "bot"}
	s.users[s.bot.ID] = s.bot
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// Client returns a client talking to the server with rate limiting disabled
// and millisecond retry backoff.
func (s *Server) Client(t testing.TB, opts ...notion.Option) *notion.Client {
	t.Helper()
	all := append([]notion.Option{
		notion.WithBaseURL(s.URL),
		notion.WithRateLimit(0, 0),
		notion.WithBackoff(time.Millisecond),
	}, opts...)
	c, err := notion.NewClient("secret_test", all...)
	if err != nil {
		t.Fatalf("notiontest: %v", err)
	}
	return c
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /databases", s.createDatabase)
	mux.HandleFunc("GET /databases/{id}", s.getDatabase)
	mux.HandleFunc("PATCH /databases/{id}", s.updateDatabase)
	mux.HandleFunc("GET /data_sources/{id}", s.getDataSource)
	mux.HandleFunc("PATCH /data_sources/{id}", s.updateDataSource)
	mux.HandleFunc("POST /data_sources/{id}/query", s.queryDataSource)
	mux.HandleFunc("POST /pages", s.createPage)
	mux.HandleFunc("GET /pages/{id}", s.getPage)
	mux.HandleFunc("PATCH /pages/{id}", s.updatePage)
	mux.HandleFunc("POST /pages/{id}/move", s.movePage)
	mux.HandleFunc("GET /blocks/{id}", s.getBlock)
	mux.HandleFunc("PATCH /blocks/{id}", s.updateBlock)
	mux.HandleFunc("DELETE /blocks/{id}", s.deleteBlock)
	mux.HandleFunc("GET /blocks/{id}/children", s.getChildren)
	mux.HandleFunc("PATCH /blocks/{id}/children", s.appendChildren)
	mux.HandleFunc("POST /search", s.search)
	mux.HandleFunc("GET /users/{id}", s.getUser)
	mux.HandleFunc("GET /comments", s.listComments)
	mux.HandleFunc("POST /comments", s.createComment)
	mux.HandleFunc("POST /file_uploads", s.createUpload)
	mux.HandleFunc("POST /file_uploads/{id}/send", s.sendUpload)
	return s.middleware(mux)
}

// middleware records requests, checks headers, injects failures and
// serializes access to the state.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path})

		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthorized", "API token is invalid.")
			return
		}
		if r.Header.Get("Notion-Version") != notion.APIVersion {
			writeError(w, http.StatusBadRequest, "missing_version", "Notion-Version header is missing or unsupported.")
			return
		}
		for _, f := range s.failures {
			if f.remaining > 0 && f.method == r.Method && strings.HasPrefix(r.URL.Path, f.prefix) {
				f.remaining--
				if f.retryAfter != "" {
					w.Header().Set("Retry-After", f.retryAfter)
				}
				writeError(w, f.status, errorCode(f.status), "injected failure")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// FailNext makes the next times requests matching method and path prefix
// fail with status. A non-empty retryAfter is sent as the Retry-After header.
func (s *Server) FailNext(method, pathPrefix string, status, times int, retryAfter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, &failure{method: method, prefix: pathPrefix, status: status, retryAfter: retryAfter, remaining: times})
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// MutationCount returns the number of requests that could change state.
// Queries and searches are sent with POST but are not mutations.
func (s *Server) MutationCount() int {
	n := 0
	for _, r := range s.Requests() {
		if IsMutation(r) {
			n++
		}
	}
	return n
}

// IsMutation reports whether r could change state.
func IsMutation(r Request) bool {
	if r.Method == http.MethodGet {
		return false
	}
	return r.Path != "/search" && !strings.HasSuffix(r.Path, "/query")
}

// ResetRequests forgets the recorded requests.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"object":     "error",
		"status":     status,
		"code":       code,
		"message":    message,
		"request_id": uuid.NewString(),
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusConflict:
		return "conflict_error"
	case http.StatusNotFound:
		return "object_not_found"
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	}
	return "internal_server_error"
}

func notFound(w http.ResponseWriter, id string) {
	writeError(w, http.StatusNotFound, "object_not_found", "Could not find object with ID: "+id+".")
}

func validation(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "validation_error", message)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		validation(w, "body failed validation: "+err.Error())
		return false
	}
	return true
}

func now() *time.Time {
	t := time.Now().UTC().Truncate(time.Millisecond)
	return &t
}

func pageURL(id string) string {
	return "https://www.notion.so/" + strings.ReplaceAll(id, "-", "")
}
