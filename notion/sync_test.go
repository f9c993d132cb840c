package notion_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/contentos-notion-mcp/notion"
	"github.com/vthunder/contentos-notion-mcp/notion/notiontest"
)

func TestFrontmatter(t *testing.T) {
	fm := notion.Frontmatter{
		NotionID:   "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f",
		Title:      "Voice & Tone",
		PulledAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		ChildPages: []string{"a", "b"},
	}
	header, err := notion.FormatFrontmatter(fm)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(header, "---\n"))
	assert.True(t, strings.HasSuffix(header, "---\n\n"))

	got, body, err := notion.ParseFrontmatter(header + "# Body\r\n")
	require.NoError(t, err)
	assert.Equal(t, fm, got)
	assert.Equal(t, "# Body\n", body)

	got, body, err = notion.ParseFrontmatter("# No header\n")
	require.NoError(t, err)
	assert.Empty(t, got.NotionID)
	assert.Equal(t, "# No header\n", body)

	_, _, err = notion.ParseFrontmatter("---\nnotion_id: [\n---\nbody")
	assert.ErrorContains(t, err, "parse frontmatter")
}

func TestDiffLines(t *testing.T) {
	assert.Empty(t, notion.DiffLines("a\nb\n", "a\nb"))
	assert.Equal(t, "- b\n+ c\n", notion.DiffLines("a\nc", "a\nb"))
	assert.Equal(t, "+ d\n", notion.DiffLines("a\nd", "a"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Q1_Q2 plan", notion.SanitizeFilename(" Q1/Q2 plan "))
	assert.Equal(t, "untitled", notion.SanitizeFilename(""))
	assert.Len(t, notion.SanitizeFilename(strings.Repeat("x", 300)), 100)
}

func TestPullPushPage(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	page := srv.AddPage("", "Voice Guide",
		notion.Heading2("Tone"),
		notion.Paragraph("Direct and warm."),
	)
	child := srv.AddPage(page, "Examples")
	srv.AddComment(page, srv.AddUser("Ada"), "Love this")
	c := srv.Client(t)

	dir := t.TempDir()
	res, err := c.PullPage(ctx, page, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Voice Guide.md"), res.FilePath)
	assert.Equal(t, []string{child}, res.ChildPages)
	assert.Contains(t, res.Markdown, "notion_id: "+page)
	assert.Contains(t, res.Markdown, "## Tone\n\nDirect and warm.")
	assert.Contains(t, res.Markdown, "**Ada**")
	assert.NotContains(t, res.Markdown, "notion://"+child)

	data, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	edited := strings.Replace(string(data), "Direct and warm.", "Direct, warm and brief.", 1)
	require.NoError(t, os.WriteFile(res.FilePath, []byte(edited), 0o644))

	diff, err := c.DiffPage(ctx, res.FilePath)
	require.NoError(t, err)
	assert.Contains(t, diff, "- Direct and warm.")
	assert.Contains(t, diff, "+ Direct, warm and brief.")

	require.NoError(t, c.PushPage(ctx, res.FilePath))

	blocks := srv.Children(page)
	require.NotEmpty(t, blocks)
	assert.Equal(t, notion.BlockHeading2, blocks[0].Type)
	assert.Equal(t, "Direct, warm and brief.", blocks[1].PlainText())
	assert.Equal(t, notion.BlockChildPage, blocks[len(blocks)-1].Type)
	assert.Equal(t, []string{"Examples"}, srv.ChildPageTitles(page))
	p, _ := srv.Page(child)
	assert.False(t, p.Archived)
}

func TestDiffPageUnchanged(t *testing.T) {
	ctx := context.Background()
	srv := notiontest.New(t)
	page := srv.AddPage("", "Hooks", notion.BulletedListItem("Ask a question"))
	c := srv.Client(t)

	res, err := c.PullPage(ctx, page, t.TempDir())
	require.NoError(t, err)
	diff, err := c.DiffPage(ctx, res.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "No changes detected.", diff)
}

func TestPushRequiresFrontmatterID(t *testing.T) {
	srv := notiontest.New(t)
	c := srv.Client(t)

	err := c.PushMarkdown(context.Background(), "# Just markdown\n")
	assert.ErrorIs(t, err, notion.ErrNoFrontmatterID)
	assert.Zero(t, srv.MutationCount())
}
