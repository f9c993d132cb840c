package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/contentos-notion-mcp/notion"
	"github.com/vthunder/contentos-notion-mcp/notion/notiontest"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"🎨 Brand & Voice", "brand voice"},
		{"brand &  voice", "brand voice"},
		{"⚙️ Automation & Workflows", "automation workflows"},
		{"  Content-Calendar 2025 ", "contentcalendar 2025"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.in))
		})
	}
}

func TestKeywordClassifier(t *testing.T) {
	k := NewKeywordClassifier()
	tests := []struct {
		title, content string
		want           string
		matches        int
	}{
		{"Brand Voice Discovery", "", "Brand & Voice", 3},
		{"Content Pillars", "", "Content Strategy", 2},
		{"Posting Schedule", "", "Content Calendar", 1},
		{"Weekly numbers", "analytics and performance review", "Performance & Analytics", 2},
		{"Zapier workflow", "", "Automation & Workflows", 1},
		{"Random notes", "", "General Resources", 0},
		// Brand & Voice comes first in the order.
		{"Voice of content", "", "Brand & Voice", 1},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := k.Classify(tt.title, tt.content)
			assert.Equal(t, tt.want, got.Category)
			assert.Equal(t, tt.matches, got.Matches)
		})
	}
}

func TestMatchCategory(t *testing.T) {
	k := NewKeywordClassifier()
	c, ok := k.MatchCategory("brand & voice")
	require.True(t, ok)
	assert.Equal(t, "🎨 Brand & Voice", c.Label())

	c, ok = k.MatchCategory("📚 General Resources")
	require.True(t, ok)
	assert.Equal(t, GeneralResources.Name, c.Name)

	_, ok = k.MatchCategory("Brand & Voice notes")
	assert.False(t, ok)
}

func TestWalk(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	ctx := context.Background()

	root := srv.AddPage("", "Content OS")
	a := srv.AddPage(root, "A", notion.Paragraph("text"))
	srv.AddPage(a, "A1")
	srv.AddPage(root, "B")
	srv.AddDatabase(root, "Content Hub", map[string]notion.PropertySchema{"Name": notion.TitleProperty()})

	records, err := Walk(ctx, c, root, 3)
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, "Content OS", records[0].Title)
	assert.Equal(t, 0, records[0].Depth)
	assert.True(t, records[0].HasChildren)

	assert.Equal(t, "A", records[1].Title)
	assert.Equal(t, 1, records[1].Depth)
	assert.True(t, records[1].HasChildren)
	assert.Equal(t, "A1", records[2].Title)
	assert.Equal(t, 2, records[2].Depth)
	assert.Equal(t, a, records[2].ParentID)
	assert.Equal(t, "B", records[3].Title)
	assert.Equal(t, KindDatabase, records[4].Kind)

	shallow, err := Walk(ctx, c, root, 1)
	require.NoError(t, err)
	assert.Len(t, shallow, 4)

	s := AnalyzeStructure(records, NewKeywordClassifier())
	assert.Equal(t, 3, s.Pages)
	assert.Equal(t, 1, s.Databases)
	assert.Equal(t, 2, s.MaxDepth)
	assert.Equal(t, 2, s.Categories["General Resources"])
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteJSON(dir, "Content OS", "structure_test", map[string]int{"pages": 3})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Content OS_structure_test.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pages": 3}`, string(data))
}

// seedDuplicates builds a root with "Brand & Voice" twice; the duplicate
// holds one child page.
func seedDuplicates(srv *notiontest.Server) (root, canonical, duplicate, orphan string) {
	root = srv.AddPage("", "Content OS")
	canonical = srv.AddPage(root, "🎨 Brand & Voice")
	srv.AddPage(root, "Content Strategy")
	duplicate = srv.AddPage(root, "Brand & Voice")
	orphan = srv.AddPage(duplicate, "Voice notes")
	return root, canonical, duplicate, orphan
}

func TestAnalyzeCleanup(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root, canonical, duplicate, _ := seedDuplicates(srv)

	records, err := Walk(context.Background(), c, root, 2)
	require.NoError(t, err)

	a := AnalyzeCleanup(records, NewKeywordClassifier())
	require.Len(t, a.PagesToDelete, 1)
	assert.Equal(t, duplicate, a.PagesToDelete[0].ID)
	assert.GreaterOrEqual(t, len(a.PagesToKeep), 1)
	assert.Equal(t, canonical, a.PagesToKeep[0].ID)
	require.Len(t, a.Groups, 1)
	assert.Equal(t, "brand voice", a.Groups[0].Key)
}

func TestExecuteCleanupWithoutConfirmation(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root, _, _, _ := seedDuplicates(srv)

	ctx := context.Background()
	records, err := Walk(ctx, c, root, 2)
	require.NoError(t, err)
	srv.ResetRequests()

	res, err := ExecuteCleanup(ctx, c, AnalyzeCleanup(records, nil), false)
	require.NoError(t, err)
	assert.False(t, res.Confirmed)
	assert.Nil(t, res.Report)
	assert.Len(t, res.Preview, 2)
	assert.Empty(t, srv.Requests())
	assert.Zero(t, srv.MutationCount())
}

func TestExecuteCleanup(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root, canonical, duplicate, orphan := seedDuplicates(srv)
	ctx := context.Background()

	res, err := Cleanup(ctx, c, root, nil, true)
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.Equal(t, 2, res.Report.Succeeded)
	assert.Zero(t, res.Report.Failed)

	dup, _ := srv.Page(duplicate)
	assert.True(t, dup.Archived)
	moved, _ := srv.Page(orphan)
	assert.Equal(t, canonical, moved.Parent.PageID)
	assert.False(t, moved.Archived)
	assert.Equal(t, []string{"🎨 Brand & Voice", "Content Strategy"}, srv.ChildPageTitles(root))

	// A second run finds nothing to do.
	res, err = Cleanup(ctx, c, root, nil, true)
	require.NoError(t, err)
	assert.Empty(t, res.Analysis.PagesToDelete)
	assert.Zero(t, res.Report.Succeeded)
}

func TestAnalyzeCleanupIgnoresOtherPages(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root := srv.AddPage("", "Content OS")
	srv.AddPage(root, "Meeting notes")
	srv.AddPage(root, "Meeting notes")
	srv.AddPage(root, "📊 Performance & Analytics")
	srv.AddPage(root, "performance analytics")

	records, err := Walk(context.Background(), c, root, 2)
	require.NoError(t, err)

	a := AnalyzeCleanup(records, NewKeywordClassifier())
	require.Len(t, a.Groups, 1)
	assert.Equal(t, "performance analytics", a.Groups[0].Key)
	require.Len(t, a.PagesToDelete, 1)
	assert.Equal(t, "performance analytics", a.PagesToDelete[0].Title)
	for _, r := range append(a.PagesToKeep, a.PagesToDelete...) {
		assert.NotEqual(t, "Meeting notes", r.Title)
	}
}

func TestExecuteCleanupMovesDatabases(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root, canonical, duplicate, orphan := seedDuplicates(srv)
	db, ds := srv.AddDatabase(duplicate, "Voice samples", map[string]notion.PropertySchema{"Name": notion.TitleProperty()})
	srv.AddRow(ds, map[string]notion.PropertyValue{"Name": notion.TitleValue("Opening line")})
	ctx := context.Background()

	res, err := Cleanup(ctx, c, root, nil, true)
	require.NoError(t, err)
	assert.Contains(t, res.Preview, fmt.Sprintf("move database %q (%s) to %s: keep content of duplicate %q", "Voice samples", db, canonical, "Brand & Voice"))
	assert.Equal(t, 3, res.Report.Succeeded)
	assert.Zero(t, res.Report.Failed)

	got, err := c.GetDatabase(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, canonical, got.Parent.PageID)
	rows, err := c.QueryDatabase(ctx, db, nil, "")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	var kids []string
	for _, b := range srv.Children(canonical) {
		kids = append(kids, b.ID)
	}
	assert.ElementsMatch(t, []string{orphan, db}, kids)
	dup, _ := srv.Page(duplicate)
	assert.True(t, dup.Archived)
}

func TestExecuteCleanupKeepsDuplicateWithContent(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root := srv.AddPage("", "Content OS")
	canonical := srv.AddPage(root, "🎨 Brand & Voice")
	duplicate := srv.AddPage(root, "Brand & Voice", notion.Paragraph("Tone: direct and warm."))
	child := srv.AddPage(duplicate, "Voice notes")
	ctx := context.Background()

	res, err := Cleanup(ctx, c, root, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.Succeeded)
	require.Equal(t, 1, res.Report.Failed)
	assert.Equal(t, OpArchive, res.Report.Failures[0].Operation.Kind)
	assert.Contains(t, res.Report.Failures[0].Error, ErrNotEmpty.Error())

	dup, _ := srv.Page(duplicate)
	assert.False(t, dup.Archived)
	blocks := srv.Children(duplicate)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Tone: direct and warm.", blocks[0].PlainText())
	moved, _ := srv.Page(child)
	assert.Equal(t, canonical, moved.Parent.PageID)
}

func TestApplySkipsOperationsInEffect(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root := srv.AddPage("", "Root")
	target := srv.AddPage(root, "Target")
	page := srv.AddPage(root, "Page")
	ctx := context.Background()

	plan := &Plan{}
	plan.Add(
		Operation{Kind: OpMove, PageID: page, Title: "Page", TargetID: target},
		Operation{Kind: OpCreate, Title: "New", TargetID: root, Ref: "new"},
		Operation{Kind: OpRename, PageID: target, Title: "Renamed"},
	)
	report, err := plan.Apply(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Succeeded)
	assert.NotEmpty(t, report.Created["new"])

	srv.ResetRequests()
	report, err = plan.Apply(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Skipped)
	assert.Zero(t, report.Succeeded)
	assert.Zero(t, srv.MutationCount())
}

func TestApplyRecordsFailures(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root := srv.AddPage("", "Root")

	plan := &Plan{}
	plan.Add(
		Operation{Kind: OpArchive, PageID: "00000000-0000-0000-0000-000000000000", Title: "Missing"},
		Operation{Kind: OpMove, PageID: root, TargetRef: "never-created"},
		Operation{Kind: OpCreate, Title: "Still runs", TargetID: root},
	)
	report, err := plan.Apply(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, OpArchive, report.Failures[0].Operation.Kind)
}

func TestApplyStopsWhenCanceled(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root := srv.AddPage("", "Root")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan := &Plan{}
	plan.Add(Operation{Kind: OpCreate, Title: "X", TargetID: root})
	_, err := plan.Apply(ctx, c)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, srv.Requests())
}

func TestPlanReorganization(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root := srv.AddPage("", "Content OS")
	brand := srv.AddPage(root, "Brand & Voice")
	discovery := srv.AddPage(root, "Voice Discovery Session")
	calendar := srv.AddPage(root, "Posting Schedule")
	misc := srv.AddPage(root, "Misc notes")
	ctx := context.Background()

	records, err := Walk(ctx, c, root, 1)
	require.NoError(t, err)
	k := NewKeywordClassifier()

	plan := PlanReorganization(records, k, StrategyMove)
	srv.ResetRequests()
	preview := plan.Preview()
	assert.Empty(t, srv.Requests())
	// Two categories are created; three pages are moved.
	assert.Len(t, preview, 5)

	report, err := plan.Apply(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Succeeded)

	p, _ := srv.Page(discovery)
	assert.Equal(t, brand, p.Parent.PageID)
	p, _ = srv.Page(calendar)
	assert.Equal(t, report.Created["category:Content Calendar"], p.Parent.PageID)
	p, _ = srv.Page(misc)
	assert.Equal(t, report.Created["category:General Resources"], p.Parent.PageID)
	assert.ElementsMatch(t, []string{"Brand & Voice", "📅 Content Calendar", "📚 General Resources"}, srv.ChildPageTitles(root))

	// Reorganizing again plans nothing.
	records, err = Walk(ctx, c, root, 1)
	require.NoError(t, err)
	assert.Zero(t, PlanReorganization(records, k, StrategyMove).Len())
}

func TestPlanReorganizationCopy(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root := srv.AddPage("", "Content OS")
	page := srv.AddPage(root, "Analytics dashboard", notion.Heading2("KPIs"), notion.BulletedListItem("reach"))
	ctx := context.Background()

	records, err := Walk(ctx, c, root, 1)
	require.NoError(t, err)
	plan := PlanReorganization(records, NewKeywordClassifier(), StrategyCopy)
	require.Len(t, plan.Operations, 2)
	assert.Equal(t, OpCopy, plan.Operations[1].Kind)

	report, err := plan.Apply(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)

	original, _ := srv.Page(page)
	assert.Equal(t, root, original.Parent.PageID)
	category := report.Created["category:Performance & Analytics"]
	assert.Equal(t, []string{"Analytics dashboard"}, srv.ChildPageTitles(category))

	report, err = plan.Apply(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyMove, s)
	s, err = ParseStrategy("COPY")
	require.NoError(t, err)
	assert.Equal(t, StrategyCopy, s)
	_, err = ParseStrategy("merge")
	assert.Error(t, err)
}

func TestFixEmojiConsistencyIsIdempotent(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root := srv.AddPage("", "Content OS")
	srv.AddPage(root, "brand & voice")
	srv.AddPage(root, "📅 Content Calendar")
	srv.AddPage(root, "Content Strategy!")
	srv.AddPage(root, "Something else")
	ctx := context.Background()
	k := NewKeywordClassifier()

	records, err := Walk(ctx, c, root, 1)
	require.NoError(t, err)
	plan := FixEmojiConsistency(records, k)
	require.Equal(t, 2, plan.Len())

	report, err := plan.Apply(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, []string{"🎨 Brand & Voice", "📅 Content Calendar", "🎯 Content Strategy", "Something else"}, srv.ChildPageTitles(root))

	records, err = Walk(ctx, c, root, 1)
	require.NoError(t, err)
	assert.Zero(t, FixEmojiConsistency(records, k).Len())
}

func TestExtractContent(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root := srv.AddPage("", "Content Ideas",
		notion.Heading1("Pillars"),
		notion.Paragraph("Write about content systems."),
		notion.BulletedListItem("Post about hooks"),
		notion.ToDo("Thread on hooks", false),
	)
	srv.AddPage(root, "Calendar", notion.NumberedListItem("Monday carousel"))
	ctx := context.Background()
	k := NewKeywordClassifier()

	e, err := ExtractContent(ctx, c, root, 1, k)
	require.NoError(t, err)
	assert.Equal(t, "Content Ideas", e.Title)
	assert.Equal(t, []string{"Pillars"}, e.Headings)
	assert.Equal(t, []string{"Post about hooks", "Thread on hooks"}, e.Ideas)
	assert.Equal(t, "Content Strategy", e.Classification.Category)
	assert.Empty(t, e.Children)
	assert.Equal(t, 11, e.WordCount)

	e, err = ExtractContent(ctx, c, root, 2, k)
	require.NoError(t, err)
	require.Len(t, e.Children, 1)
	assert.Equal(t, "Content Calendar", e.Children[0].Classification.Category)
	assert.Equal(t, []string{"Post about hooks", "Thread on hooks", "Monday carousel"}, e.AllIdeas())
}

func TestSaveIdeas(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)
	root := srv.AddPage("", "Content OS")
	db, ds := srv.AddDatabase(root, "Content Hub", map[string]notion.PropertySchema{
		"Post":   notion.TitleProperty(),
		"Status": notion.SelectProperty(notion.Options("Idea", "Draft")...),
		"Source": notion.RichTextProperty(),
	})

	ids, err := SaveIdeas(context.Background(), c, db, []string{"Hook post", "Story post"}, "Brainstorm")
	require.NoError(t, err)
	require.Len(t, ids, 2)

	p, ok := srv.Page(ids[0])
	require.True(t, ok)
	assert.Equal(t, ds, p.Parent.DataSourceID)
	assert.Equal(t, "Hook post", p.Title())
	assert.Equal(t, "Idea", p.Properties["Status"].Select.Name)
	assert.Equal(t, "Brainstorm", notion.PlainText(p.Properties["Source"].RichText))
}
