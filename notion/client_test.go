package notion_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/contentos-notion-mcp/notion"
	"github.com/vthunder/contentos-notion-mcp/notion/notiontest"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := notion.NewClient("")
	assert.Error(t, err)
}

func TestDatabaseLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	parent := srv.AddPage("", "Content OS")
	c := srv.Client(t)

	db, err := c.CreateDatabase(ctx, notion.CreateDatabaseRequest{
		Title:        "Ideas",
		ParentPageID: parent,
		Properties:   map[string]notion.PropertySchema{"Name": notion.TitleProperty()},
	})
	require.NoError(t, err)
	require.Len(t, db.DataSources, 1)

	rows, err := c.QueryDatabase(ctx, db.ID, nil, "")
	require.NoError(t, err)
	assert.Empty(t, rows)

	page, err := c.CreatePageInDatabase(ctx, db.ID, map[string]notion.PropertyValue{"Name": notion.TitleValue("X")}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, notion.ParentDataSource, page.Parent.Type)
	assert.Equal(t, db.DataSources[0].ID, page.Parent.DataSourceID)

	rows, err = c.QueryDatabase(ctx, db.ID, nil, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "X", rows[0].Title())
}

func TestCreateDatabaseNeedsParentAndTitle(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	c := srv.Client(t)

	_, err := c.CreateDatabase(ctx, notion.CreateDatabaseRequest{
		Title:      "Ideas",
		Properties: map[string]notion.PropertySchema{"Name": notion.TitleProperty()},
	})
	assert.ErrorIs(t, err, notion.ErrNoParent)

	_, err = c.CreateDatabase(ctx, notion.CreateDatabaseRequest{
		Title:        "Ideas",
		ParentPageID: srv.AddPage("", "Parent"),
		Properties:   map[string]notion.PropertySchema{"Notes": notion.RichTextProperty()},
	})
	assert.ErrorIs(t, err, notion.ErrSchemaTitle)
	assert.Zero(t, srv.MutationCount())
}

func TestGetDataSourceID(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	parent := srv.AddPage("", "Parent")
	dbID, dsID := srv.AddDatabase(parent, "Pillars", map[string]notion.PropertySchema{"Name": notion.TitleProperty()})
	empty := srv.AddDatabaseWithoutDataSources(parent, "Empty")
	c := srv.Client(t)

	got, err := c.GetDataSourceID(ctx, dbID, 0)
	require.NoError(t, err)
	assert.Equal(t, dsID, got)

	_, err = c.GetDataSourceID(ctx, dbID, 1)
	assert.ErrorIs(t, err, notion.ErrDataSourceIndex)

	_, err = c.GetDataSourceID(ctx, empty, 0)
	assert.ErrorIs(t, err, notion.ErrNoDataSources)

	_, err = c.CreatePageInDatabase(ctx, empty, nil, nil, nil)
	assert.ErrorIs(t, err, notion.ErrNoDataSources)
}

func TestRetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	page := srv.AddPage("", "Draft")
	c := srv.Client(t)

	srv.FailNext(http.MethodGet, "/pages/", http.StatusTooManyRequests, 2, "0")
	got, err := c.GetPage(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.Title())
	assert.Len(t, srv.Requests(), 3)
}

func TestRetriesGiveUp(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	page := srv.AddPage("", "Draft")
	c := srv.Client(t, notion.WithMaxRetries(1))

	srv.FailNext(http.MethodGet, "/pages/", http.StatusServiceUnavailable, 5, "")
	_, err := c.GetPage(ctx, page)
	var apiErr *notion.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Len(t, srv.Requests(), 2)
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	c := srv.Client(t)

	_, err := c.GetPage(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, notion.IsNotFound(err))
	assert.Len(t, srv.Requests(), 1)

	srv.ResetRequests()
	srv.FailNext(http.MethodGet, "/pages/", http.StatusBadRequest, 1, "")
	_, err = c.GetPage(ctx, "00000000-0000-0000-0000-000000000000")
	var apiErr *notion.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, apiErr.Retryable())
	assert.Len(t, srv.Requests(), 1)
}

func TestCreateIsNotResentAfterServerError(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	parent := srv.AddPage("", "Parent")
	c := srv.Client(t)
	srv.ResetRequests()

	srv.FailNext(http.MethodPost, "/pages", http.StatusGatewayTimeout, 1, "")
	_, err := c.CreatePage(ctx, notion.CreatePageRequest{ParentPageID: parent, Title: "Guide"})
	var apiErr *notion.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusGatewayTimeout, apiErr.Status)
	assert.Equal(t, []notiontest.Request{{Method: http.MethodPost, Path: "/pages"}}, srv.Requests())
	assert.Empty(t, srv.ChildPageTitles(parent))

	srv.ResetRequests()
	srv.FailNext(http.MethodPatch, "/blocks/", http.StatusBadGateway, 1, "")
	_, err = c.AppendBlocks(ctx, parent, []notion.Block{notion.Paragraph("once")})
	require.ErrorAs(t, err, &apiErr)
	assert.Len(t, srv.Requests(), 1)
	assert.Empty(t, srv.Children(parent))
}

func TestCreateIsResentWhenRateLimited(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	parent := srv.AddPage("", "Parent")
	c := srv.Client(t)
	srv.ResetRequests()

	srv.FailNext(http.MethodPost, "/pages", http.StatusTooManyRequests, 1, "0")
	_, err := c.CreatePage(ctx, notion.CreatePageRequest{ParentPageID: parent, Title: "Guide"})
	require.NoError(t, err)
	assert.Len(t, srv.Requests(), 2)
	assert.Equal(t, []string{"Guide"}, srv.ChildPageTitles(parent))
}

func TestIdempotentWritesAreRetried(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	page := srv.AddPage("", "Draft")
	c := srv.Client(t)
	srv.ResetRequests()

	srv.FailNext(http.MethodPatch, "/pages/", http.StatusServiceUnavailable, 1, "")
	_, err := c.ArchivePage(ctx, page)
	require.NoError(t, err)
	assert.Len(t, srv.Requests(), 2)
}

type failingTransport struct {
	calls atomic.Int32
	err   error
}

func (f *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls.Add(1)
	return nil, f.err
}

func TestTransportErrorRetries(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	tests := []struct {
		name   string
		err    error
		create bool
		calls  int32
	}{
		{"read after dial", dialErr, false, 3},
		{"create after dial", dialErr, true, 3},
		{"read after lost response", io.ErrUnexpectedEOF, false, 3},
		{"create after lost response", io.ErrUnexpectedEOF, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &failingTransport{err: tt.err}
			c, err := notion.NewClient("secret_test",
				notion.WithBaseURL("http://notion.invalid"),
				notion.WithHTTPClient(&http.Client{Transport: rt}),
				notion.WithRateLimit(0, 0),
				notion.WithBackoff(time.Millisecond),
				notion.WithMaxRetries(2),
			)
			require.NoError(t, err)

			if tt.create {
				_, err = c.CreatePage(context.Background(), notion.CreatePageRequest{
					ParentPageID: "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f", Title: "Guide",
				})
			} else {
				_, err = c.GetPage(context.Background(), "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f")
			}
			assert.Error(t, err)
			assert.Equal(t, tt.calls, rt.calls.Load())
		})
	}
}

func TestAppendBlocksLimit(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	page := srv.AddPage("", "Long post")
	c := srv.Client(t)

	blocks := make([]notion.Block, notion.MaxBlocksPerRequest+1)
	for i := range blocks {
		blocks[i] = notion.Paragraph("line")
	}

	_, err := c.AppendBlocks(ctx, page, blocks)
	assert.ErrorIs(t, err, notion.ErrTooManyBlocks)
	assert.Zero(t, srv.MutationCount())

	require.NoError(t, c.AppendBlocksBatched(ctx, page, blocks))
	assert.Equal(t, 2, srv.MutationCount())
	assert.Len(t, srv.Children(page), notion.MaxBlocksPerRequest+1)
}

func TestCreatePageWithManyBlocks(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	parent := srv.AddPage("", "Parent")
	c := srv.Client(t, notion.WithDefaultParent(parent))

	blocks := make([]notion.Block, 250)
	for i := range blocks {
		blocks[i] = notion.BulletedListItem("point")
	}
	page, err := c.CreatePage(ctx, notion.CreatePageRequest{Title: "Guide", Children: blocks})
	require.NoError(t, err)
	assert.Equal(t, parent, page.Parent.PageID)
	assert.Len(t, srv.Children(page.ID), 250)
	assert.Contains(t, srv.ChildPageTitles(parent), "Guide")
}

func TestMoveAndArchive(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	a := srv.AddPage("", "A")
	b := srv.AddPage("", "B")
	child := srv.AddPage(a, "Child")
	c := srv.Client(t)

	srv.ResetRequests()
	_, err := c.MovePage(ctx, child, b)
	require.NoError(t, err)
	assert.Equal(t, []notiontest.Request{{Method: http.MethodPost, Path: "/pages/" + child + "/move"}}, srv.Requests())
	assert.Equal(t, []string{"Child"}, srv.ChildPageTitles(b))
	assert.Empty(t, srv.ChildPageTitles(a))

	_, err = c.ArchivePage(ctx, child)
	require.NoError(t, err)
	p, ok := srv.Page(child)
	require.True(t, ok)
	assert.True(t, p.Archived)

	_, err = c.RestorePage(ctx, child)
	require.NoError(t, err)
	p, _ = srv.Page(child)
	assert.False(t, p.Archived)
}

func TestMoveRestoresTrashedPage(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	a := srv.AddPage("", "A")
	b := srv.AddPage("", "B")
	child := srv.AddPage(a, "Child")
	c := srv.Client(t)

	_, err := c.ArchivePage(ctx, child)
	require.NoError(t, err)
	moved, err := c.MovePage(ctx, child, b)
	require.NoError(t, err)
	assert.False(t, moved.Archived)
	assert.Equal(t, b, moved.Parent.PageID)
	assert.Equal(t, []string{"Child"}, srv.ChildPageTitles(b))
}

func TestMoveDatabase(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	a := srv.AddPage("", "A")
	b := srv.AddPage("", "B")
	db, _ := srv.AddDatabase(a, "Hooks", map[string]notion.PropertySchema{"Name": notion.TitleProperty()})
	c := srv.Client(t)

	got, err := c.MoveDatabase(ctx, db, b)
	require.NoError(t, err)
	assert.Equal(t, b, got.Parent.PageID)
	assert.Empty(t, srv.Children(a))
	kids := srv.Children(b)
	require.Len(t, kids, 1)
	assert.Equal(t, notion.BlockChildDatabase, kids[0].Type)
}

func TestFlattenPageLeavesPageUnchanged(t *testing.T) {
	srv := notiontest.New(t)
	ada := srv.AddUser("Ada")
	c := srv.Client(t)

	people := []notion.User{{Object: "user", ID: ada}}
	page := &notion.Page{
		ID: "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f",
		Properties: map[string]notion.PropertyValue{
			"Owner":  {Type: notion.PropertyTypePeople, People: people},
			"Author": {Type: notion.PropertyTypeCreatedBy, CreatedBy: &notion.User{Object: "user", ID: ada}},
			"Editor": {Type: notion.PropertyTypeLastEditedBy, LastEditedBy: &notion.User{Object: "user", ID: ada}},
		},
	}

	out := c.FlattenPage(context.Background(), page)
	assert.Equal(t, []string{"Ada"}, out["Owner"])
	assert.Equal(t, "Ada", out["Author"])
	assert.Equal(t, "Ada", out["Editor"])

	assert.Empty(t, people[0].Name)
	assert.Empty(t, page.Properties["Owner"].People[0].Name)
	assert.Empty(t, page.Properties["Author"].CreatedBy.Name)
	assert.Empty(t, page.Properties["Editor"].LastEditedBy.Name)
}

func TestSearchAll(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	parent := srv.AddPage("", "Content OS")
	srv.AddPage(parent, "Weekly review template")
	srv.AddDatabase(parent, "Weekly Reviews", map[string]notion.PropertySchema{"Week": notion.TitleProperty()})
	c := srv.Client(t)

	pages, err := c.SearchAll(ctx, "weekly", notion.SearchPages, 10)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Weekly review template", pages[0].DisplayTitle())

	sources, err := c.SearchAll(ctx, "weekly", notion.SearchDataSources, 10)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "Weekly Reviews", sources[0].DisplayTitle())
}
