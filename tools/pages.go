package tools

import (
	"context"
	"fmt"

	"github.com/vthunder/contentos-notion-mcp/notion"
	"github.com/vthunder/contentos-notion-mcp/workspace"
)

// GetPage returns a page's properties and, with include_content, its
// content as markdown.
func (t *Toolset) GetPage(ctx context.Context, args Args) Result {
	id, bad := args.require("page_id")
	if bad != nil {
		return bad
	}
	page, err := t.client.GetPage(ctx, id)
	if err != nil {
		return failure(err)
	}
	out := map[string]any{
		"page_id":    page.ID,
		"title":      page.Title(),
		"url":        page.URL,
		"archived":   page.Archived,
		"parent_id":  page.Parent.ID(),
		"properties": t.client.FlattenPage(ctx, page),
	}
	if args.Bool("include_content") {
		blocks, err := t.client.GetBlockChildrenRecursive(ctx, page.ID, notion.DefaultMaxDepth)
		if err != nil {
			return failure(err)
		}
		out["content"] = notion.BlocksToMarkdown(blocks)
		out["block_count"] = len(blocks)
	}
	return success(out)
}

// CreatePage creates a page with markdown content under parent_id or the
// default parent.
func (t *Toolset) CreatePage(ctx context.Context, args Args) Result {
	title, bad := args.require("title")
	if bad != nil {
		return bad
	}
	blocks := notion.MarkdownToBlocks(args.String("content"))
	page, err := t.client.CreatePage(ctx, notion.CreatePageRequest{
		ParentPageID: args.String("parent_id"),
		Title:        title,
		Icon:         notion.EmojiIcon(args.String("icon")),
		Children:     blocks,
	})
	if err != nil {
		return failure(err)
	}
	return success(map[string]any{
		"page_id":      page.ID,
		"url":          page.URL,
		"title":        title,
		"blocks_added": len(blocks),
	})
}

// UpdatePage changes the title, icon or properties of a page. Property
// values are encoded according to the page's existing property types.
func (t *Toolset) UpdatePage(ctx context.Context, args Args) Result {
	id, bad := args.require("page_id")
	if bad != nil {
		return bad
	}
	page, err := t.client.GetPage(ctx, id)
	if err != nil {
		return failure(err)
	}
	req := notion.UpdatePageRequest{Properties: map[string]notion.PropertyValue{}}
	if title := args.String("title"); title != "" {
		req.Properties[page.TitlePropertyName()] = notion.TitleValue(title)
	}
	for name, v := range args.Map("properties") {
		existing, ok := page.Properties[name]
		if !ok {
			return failuref("page has no property %q", name)
		}
		pv, err := notion.BuildPropertyValue(existing.Type, v)
		if err != nil {
			return failuref("property %q: %v", name, err)
		}
		req.Properties[name] = pv
	}
	if icon := args.String("icon"); icon != "" {
		req.Icon = notion.EmojiIcon(icon)
	}
	if len(req.Properties) == 0 && req.Icon == nil {
		return failuref("nothing to update: pass title, icon or properties")
	}
	updated, err := t.client.UpdatePage(ctx, page.ID, req)
	if err != nil {
		return failure(err)
	}
	return success(map[string]any{
		"page_id":        updated.ID,
		"title":          updated.Title(),
		"updated_fields": len(req.Properties),
		"properties":     t.client.FlattenPage(ctx, updated),
		"icon_updated":   req.Icon != nil,
	})
}

// AppendContent converts markdown to blocks and appends them to a page.
func (t *Toolset) AppendContent(ctx context.Context, args Args) Result {
	id, bad := args.require("page_id")
	if bad != nil {
		return bad
	}
	content, bad := args.require("content")
	if bad != nil {
		return bad
	}
	blocks := notion.MarkdownToBlocks(content)
	if err := t.client.AppendBlocksBatched(ctx, id, blocks); err != nil {
		return failure(err)
	}
	return success(map[string]any{"page_id": notion.NormalizeID(id), "blocks_added": len(blocks)})
}

// DeletePage archives a page. It refuses unless confirm_deletion is true.
func (t *Toolset) DeletePage(ctx context.Context, args Args) Result {
	id, bad := args.require("page_id")
	if bad != nil {
		return bad
	}
	if !args.Bool("confirm_deletion") {
		return failuref("refusing to delete page %s: set confirm_deletion to true", id)
	}
	page, err := t.client.ArchivePage(ctx, id)
	if err != nil {
		return failure(err)
	}
	return success(map[string]any{"page_id": page.ID, "archived": true, "title": page.Title()})
}

// RestorePage takes a page out of the trash.
func (t *Toolset) RestorePage(ctx context.Context, args Args) Result {
	id, bad := args.require("page_id")
	if bad != nil {
		return bad
	}
	page, err := t.client.RestorePage(ctx, id)
	if err != nil {
		return failure(err)
	}
	return success(map[string]any{"page_id": page.ID, "archived": page.Archived, "title": page.Title()})
}

// MovePage moves a page under another page.
func (t *Toolset) MovePage(ctx context.Context, args Args) Result {
	id, bad := args.require("page_id")
	if bad != nil {
		return bad
	}
	parent, bad := args.require("new_parent_id")
	if bad != nil {
		return bad
	}
	page, err := t.client.MovePage(ctx, id, parent)
	if err != nil {
		return failure(err)
	}
	return success(map[string]any{"page_id": page.ID, "parent_id": page.Parent.ID(), "title": page.Title()})
}

// DuplicatePage copies a page and its content.
func (t *Toolset) DuplicatePage(ctx context.Context, args Args) Result {
	id, bad := args.require("page_id")
	if bad != nil {
		return bad
	}
	page, err := workspace.DuplicatePage(ctx, t.client, id, args.String("parent_id"), args.String("title"))
	if err != nil {
		return failure(err)
	}
	return success(map[string]any{"page_id": page.ID, "url": page.URL, "title": page.Title(), "source_id": notion.NormalizeID(id)})
}

// PullPage writes a page as markdown with frontmatter to output_dir.
func (t *Toolset) PullPage(ctx context.Context, args Args) Result {
	id, bad := args.require("page_id")
	if bad != nil {
		return bad
	}
	res, err := t.client.PullPage(ctx, id, args.StringOr("output_dir", t.settings.PullDir))
	if err != nil {
		return failure(err)
	}
	return success(map[string]any{
		"page_id":        res.PageID,
		"title":          res.Title,
		"file_path":      res.FilePath,
		"content_length": len(res.Markdown),
		"child_pages":    len(res.ChildPages),
	})
}

// PushPage replaces a page's content with a pulled markdown file.
func (t *Toolset) PushPage(ctx context.Context, args Args) Result {
	path, bad := args.require("file_path")
	if bad != nil {
		return bad
	}
	if err := t.client.PushPage(ctx, path); err != nil {
		return failure(err)
	}
	return success(map[string]any{"file_path": path, "message": fmt.Sprintf("pushed %s to Notion", path)})
}

// DiffPage compares a pulled markdown file against the live page.
func (t *Toolset) DiffPage(ctx context.Context, args Args) Result {
	path, bad := args.require("file_path")
	if bad != nil {
		return bad
	}
	diff, err := t.client.DiffPage(ctx, path)
	if err != nil {
		return failure(err)
	}
	return success(map[string]any{"file_path": path, "diff": diff})
}
