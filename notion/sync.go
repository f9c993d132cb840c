// Synchronizes Notion pages with local markdown files.
//
// Pull renders a page to markdown with YAML frontmatter recording the page ID
// and its child pages. Push erases the page in one call, appends the
// converted blocks in batches and re-parents the child pages so they sit at
// the bottom of the page again.

package notion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPullDir is where pulled pages are written when no directory is given.
const DefaultPullDir = "/tmp/notion"

// ErrNoFrontmatterID is returned when a markdown file has no notion_id.
var ErrNoFrontmatterID = errors.New("no notion_id found in frontmatter")

// Frontmatter is the YAML header of a pulled page.
type Frontmatter struct {
	NotionID   string    `yaml:"notion_id"`
	Title      string    `yaml:"title,omitempty"`
	PulledAt   time.Time `yaml:"pulled_at,omitempty"`
	ChildPages []string  `yaml:"child_pages,omitempty"`
}

// PullResult contains the result of pulling a page.
type PullResult struct {
	Markdown   string
	FilePath   string
	PageID     string
	Title      string
	ChildPages []string // IDs of child pages, restored on push
}

// RenderPage converts a page, its comments and frontmatter to markdown
// without writing anything.
func (c *Client) RenderPage(ctx context.Context, pageID string) (*PullResult, error) {
	pageID = NormalizeID(pageID)

	title := pageID
	if page, err := c.GetPage(ctx, pageID); err == nil {
		if t := page.Title(); t != "" {
			title = t
		}
	}

	blocks, err := c.GetBlockChildrenRecursive(ctx, pageID, DefaultMaxDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blocks: %w", err)
	}

	// Child pages after the last non-child_page block are trailing; they are
	// restored at the bottom on push so they are left out of the body.
	var childPageIDs []string
	lastContent := -1
	for i, b := range blocks {
		if b.Type == BlockChildPage {
			childPageIDs = append(childPageIDs, b.ID)
		} else {
			lastContent = i
		}
	}
	trailing := make(map[string]bool)
	for _, b := range blocks[lastContent+1:] {
		trailing[b.ID] = true
	}
	c.log.DebugContext(ctx, "rendering page", "id", pageID, "blocks", len(blocks), "child_pages", len(childPageIDs), "trailing", len(trailing))

	markdown := BlocksToMarkdownWithChildPages(blocks, trailing)

	comments, err := c.ListComments(ctx, pageID)
	if err != nil {
		c.log.DebugContext(ctx, "comments unavailable", "id", pageID, "err", err)
	}
	if len(comments) > 0 {
		var sb strings.Builder
		sb.WriteString("\n---\n\n## Comments\n\n")
		for _, cm := range comments {
			author := cm.CreatedBy.Name
			if author == "" && cm.CreatedBy.ID != "" {
				author = c.ResolveUserName(ctx, cm.CreatedBy.ID)
			}
			fmt.Fprintf(&sb, "> **%s** *(%s)*: %s\n\n", author, cm.CreatedTime.Format("Jan 2, 2006"), PlainText(cm.RichText))
		}
		markdown += sb.String()
	}

	fm, err := FormatFrontmatter(Frontmatter{
		NotionID:   pageID,
		Title:      title,
		PulledAt:   time.Now().UTC().Truncate(time.Second),
		ChildPages: childPageIDs,
	})
	if err != nil {
		return nil, err
	}

	return &PullResult{
		Markdown:   fm + markdown,
		PageID:     pageID,
		Title:      title,
		ChildPages: childPageIDs,
	}, nil
}

// PullPage renders a page to markdown and saves it as <title>.md in outputDir.
func (c *Client) PullPage(ctx context.Context, pageID, outputDir string) (*PullResult, error) {
	res, err := c.RenderPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if outputDir == "" {
		outputDir = DefaultPullDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	res.FilePath = filepath.Join(outputDir, SanitizeFilename(res.Title)+".md")
	if err := os.WriteFile(res.FilePath, []byte(res.Markdown), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	return res, nil
}

// PushPage reads a pulled markdown file and replaces the page content with it.
func (c *Client) PushPage(ctx context.Context, filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return c.PushMarkdown(ctx, string(content))
}

// PushMarkdown replaces the content of the page named in the frontmatter.
// Child pages listed in the frontmatter are re-parented after the push so
// they appear at the bottom of the page.
func (c *Client) PushMarkdown(ctx context.Context, content string) error {
	fm, markdown, err := ParseFrontmatter(content)
	if err != nil {
		return err
	}
	if fm.NotionID == "" {
		return ErrNoFrontmatterID
	}
	pageID := NormalizeID(fm.NotionID)

	markdown, preservedComments := extractCommentsSection(markdown)
	blocks := MarkdownToBlocks(markdown)
	if preservedComments != "" {
		blocks = append(blocks, Divider(), Heading2("Comments"))
		blocks = append(blocks, MarkdownToBlocks(preservedComments)...)
	}
	c.log.DebugContext(ctx, "pushing page", "id", pageID, "blocks", len(blocks), "child_pages", len(fm.ChildPages))

	if err := c.ErasePageContent(ctx, pageID); err != nil {
		return fmt.Errorf("failed to erase page: %w", err)
	}
	if err := c.AppendBlocksBatched(ctx, pageID, blocks); err != nil {
		return fmt.Errorf("failed to append blocks: %w", err)
	}
	if len(fm.ChildPages) > 0 {
		if err := c.ReparentPages(ctx, pageID, fm.ChildPages); err != nil {
			return fmt.Errorf("failed to reparent child pages: %w", err)
		}
	}
	return nil
}

// DiffPage compares a local markdown file against the current page content,
// line by line.
func (c *Client) DiffPage(ctx context.Context, filePath string) (string, error) {
	localContent, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	fm, localMarkdown, err := ParseFrontmatter(string(localContent))
	if err != nil {
		return "", err
	}
	if fm.NotionID == "" {
		return "", ErrNoFrontmatterID
	}

	blocks, err := c.GetBlockChildrenRecursive(ctx, fm.NotionID, DefaultMaxDepth)
	if err != nil {
		return "", fmt.Errorf("failed to fetch blocks: %w", err)
	}
	localMarkdown, _ = extractCommentsSection(localMarkdown)
	diff := DiffLines(localMarkdown, BlocksToMarkdown(blocks))
	if diff == "" {
		return "No changes detected.", nil
	}
	return fmt.Sprintf("Comparing %s against Notion page %s\n\n%s", filePath, fm.NotionID, diff), nil
}

// DiffLines reports lines that differ at the same position, "-" for remote
// and "+" for local. It returns "" when the texts match.
func DiffLines(local, remote string) string {
	localLines := strings.Split(strings.TrimSpace(local), "\n")
	remoteLines := strings.Split(strings.TrimSpace(remote), "\n")

	var diff strings.Builder
	for i := range max(len(localLines), len(remoteLines)) {
		var l, r string
		if i < len(localLines) {
			l = localLines[i]
		}
		if i < len(remoteLines) {
			r = remoteLines[i]
		}
		if l == r {
			continue
		}
		if r != "" {
			diff.WriteString("- " + r + "\n")
		}
		if l != "" {
			diff.WriteString("+ " + l + "\n")
		}
	}
	return diff.String()
}

// FormatFrontmatter renders fm as a "---" delimited YAML header.
func FormatFrontmatter(fm Frontmatter) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	buf.WriteString("---\n\n")
	return buf.String(), nil
}

// ParseFrontmatter splits content into its YAML header and markdown body.
// Content without a header yields an empty Frontmatter.
func ParseFrontmatter(content string) (Frontmatter, string, error) {
	var fm Frontmatter
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---\n") {
		return fm, content, nil
	}
	end := strings.Index(content[4:], "\n---\n")
	if end == -1 {
		return fm, content, nil
	}
	if err := yaml.Unmarshal([]byte(content[4:4+end]), &fm); err != nil {
		return fm, content, fmt.Errorf("parse frontmatter: %w", err)
	}
	return fm, strings.TrimLeft(content[4+end+5:], "\n"), nil
}

func extractCommentsSection(markdown string) (content, comments string) {
	idx := strings.Index(markdown, "\n## Comments\n")
	if idx == -1 {
		return markdown, ""
	}
	body := strings.TrimSpace(markdown[idx+len("\n## Comments\n"):])
	if divider := strings.LastIndex(markdown[:idx], "\n---\n"); divider != -1 {
		return strings.TrimSpace(markdown[:divider]), body
	}
	return strings.TrimSpace(markdown[:idx]), body
}

var unsafeFilename = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename replaces characters that are unsafe in file names and
// limits the length to 100 bytes.
func SanitizeFilename(name string) string {
	name = unsafeFilename.ReplaceAllString(strings.TrimSpace(name), "_")
	if len(name) > 100 {
		name = strings.ToValidUTF8(name[:100], "")
	}
	if name == "" {
		name = "untitled"
	}
	return name
}
