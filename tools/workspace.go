package tools

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/vthunder/contentos-notion-mcp/notion"
	"github.com/vthunder/contentos-notion-mcp/workspace"
)

// Search finds pages and data sources by title.
func (t *Toolset) Search(ctx context.Context, args Args) Result {
	filter := args.String("filter")
	switch filter {
	case "", notion.SearchPages, notion.SearchDataSources:
	case "database":
		filter = notion.SearchDataSources
	default:
		return failuref("filter must be page or data_source, got %q", filter)
	}
	results, err := t.client.SearchAll(ctx, args.String("query"), filter, args.Int("limit", 20))
	if err != nil {
		return failure(err)
	}
	items := make([]map[string]any, 0, len(results))
	for i := range results {
		r := &results[i]
		items = append(items, map[string]any{
			"id":     r.ID,
			"object": r.Object,
			"title":  r.DisplayTitle(),
			"url":    r.URL,
		})
	}
	return success(map[string]any{"count": len(items), "results": items})
}

func (t *Toolset) walk(ctx context.Context, args Args, defDepth int) ([]workspace.PageRecord, Result) {
	root, bad := t.rootID(args)
	if bad != nil {
		return nil, bad
	}
	records, err := workspace.Walk(ctx, t.client, root, args.Int("max_depth", defDepth))
	if err != nil {
		return nil, failure(err)
	}
	return records, nil
}

// AnalyzeStructure walks the workspace under root_id and summarizes it.
// With save set the full structure is written to <root>_structure_<time>.json.
func (t *Toolset) AnalyzeStructure(ctx context.Context, args Args) Result {
	records, bad := t.walk(ctx, args, 3)
	if bad != nil {
		return bad
	}
	s := workspace.AnalyzeStructure(records, t.classifier)
	out := map[string]any{
		"root_id":           s.RootID,
		"root_title":        s.RootTitle,
		"total_pages":       s.Pages,
		"total_databases":   s.Databases,
		"max_depth":         s.MaxDepth,
		"pages_by_depth":    s.ByDepth,
		"pages_by_category": s.Categories,
	}
	if args.Bool("save") {
		path, err := workspace.WriteJSON(t.settings.ExportDir, s.RootTitle+"_structure", "", s)
		if err != nil {
			return failure(err)
		}
		out["file_path"] = path
	} else {
		out["pages"] = s.Records
	}
	return success(out)
}

// ExtractContent collects the text and idea candidates of a page tree. With
// save_to_database the ideas become rows of that database, or of the
// configured content hub when the argument is "true".
func (t *Toolset) ExtractContent(ctx context.Context, args Args) Result {
	id, bad := args.require("page_id")
	if bad != nil {
		return bad
	}
	e, err := workspace.ExtractContent(ctx, t.client, id, args.Int("depth", 1), t.classifier)
	if err != nil {
		return failure(err)
	}
	ideas := e.AllIdeas()
	out := map[string]any{"extraction": e, "total_ideas": len(ideas)}
	if target := args.String("save_to_database"); target != "" && target != "false" {
		if target == "true" {
			target = t.settings.Databases["content_hub"]
			if target == "" {
				return failuref("save_to_database is true but no content_hub database is configured")
			}
		}
		saved, err := workspace.SaveIdeas(ctx, t.client, target, ideas, e.Title)
		out["saved_ids"] = saved
		out["saved"] = len(saved)
		if err != nil {
			out["status"] = StatusError
			out["message"] = err.Error()
			return Result(out)
		}
	}
	return success(out)
}

// ClassifyPages reports the category each page under the root falls into.
func (t *Toolset) ClassifyPages(ctx context.Context, args Args) Result {
	records, bad := t.walk(ctx, args, 1)
	if bad != nil {
		return bad
	}
	placements := workspace.ClassifyPages(records, t.classifier)
	byCategory := map[string][]string{}
	for _, p := range placements {
		byCategory[p.Category] = append(byCategory[p.Category], p.Page.Title)
	}
	return success(map[string]any{
		"total":       len(placements),
		"placements":  placements,
		"by_category": byCategory,
	})
}

func (t *Toolset) reorganization(ctx context.Context, args Args) (*workspace.Plan, Result) {
	strategy, err := workspace.ParseStrategy(args.String("strategy"))
	if err != nil {
		return nil, failure(err)
	}
	records, bad := t.walk(ctx, args, 1)
	if bad != nil {
		return nil, bad
	}
	return workspace.PlanReorganization(records, t.classifier, strategy), nil
}

// PlanReorganization previews moving every page under the root into its
// category page. It changes nothing.
func (t *Toolset) PlanReorganization(ctx context.Context, args Args) Result {
	plan, bad := t.reorganization(ctx, args)
	if bad != nil {
		return bad
	}
	return success(map[string]any{"operations": plan.Len(), "preview": plan.Preview()})
}

// ApplyReorganization executes the reorganization plan when confirm is true
// and otherwise only previews it.
func (t *Toolset) ApplyReorganization(ctx context.Context, args Args) Result {
	plan, bad := t.reorganization(ctx, args)
	if bad != nil {
		return bad
	}
	return t.applyPlan(ctx, plan, args.Bool("confirm"))
}

// FixEmojiConsistency renames category pages to "<emoji> <category>" when
// confirm is true and otherwise only previews the renames.
func (t *Toolset) FixEmojiConsistency(ctx context.Context, args Args) Result {
	records, bad := t.walk(ctx, args, 1)
	if bad != nil {
		return bad
	}
	return t.applyPlan(ctx, workspace.FixEmojiConsistency(records, t.classifier), args.Bool("confirm"))
}

func (t *Toolset) applyPlan(ctx context.Context, plan *workspace.Plan, confirm bool) Result {
	out := map[string]any{"confirmed": confirm, "operations": plan.Len(), "preview": plan.Preview()}
	if !confirm {
		out["message"] = "preview only: set confirm to true to apply"
		return success(out)
	}
	report, err := plan.Apply(ctx, t.client)
	if err != nil {
		return failure(err)
	}
	t.log.InfoContext(ctx, "plan applied", "succeeded", report.Succeeded, "skipped", report.Skipped, "failed", report.Failed)
	out["report"] = report
	return success(out)
}

// AnalyzeCleanup finds duplicate category pages under the root.
func (t *Toolset) AnalyzeCleanup(ctx context.Context, args Args) Result {
	root, bad := t.rootID(args)
	if bad != nil {
		return bad
	}
	records, err := workspace.Walk(ctx, t.client, root, 2)
	if err != nil {
		return failure(err)
	}
	a := workspace.AnalyzeCleanup(records, t.classifier)
	return success(map[string]any{
		"root_id":          a.RootID,
		"duplicate_groups": a.Groups,
		"pages_to_delete":  len(a.PagesToDelete),
		"pages_to_keep":    len(a.PagesToKeep),
		"preview":          a.Plan().Preview(),
	})
}

// ExecuteCleanup archives duplicate category pages after moving their child
// pages and databases to the page that is kept. A duplicate that still has
// content is left in place and reported. It needs confirm_deletion.
func (t *Toolset) ExecuteCleanup(ctx context.Context, args Args) Result {
	root, bad := t.rootID(args)
	if bad != nil {
		return bad
	}
	res, err := workspace.Cleanup(ctx, t.client, root, t.classifier, args.Bool("confirm_deletion"))
	if err != nil {
		return failure(err)
	}
	out := map[string]any{
		"confirmed":       res.Confirmed,
		"preview":         res.Preview,
		"pages_to_delete": len(res.Analysis.PagesToDelete),
		"pages_to_keep":   len(res.Analysis.PagesToKeep),
	}
	if !res.Confirmed {
		out["message"] = "preview only: set confirm_deletion to true to archive duplicates"
		return success(out)
	}
	deleted := len(res.Analysis.PagesToDelete)
	for _, f := range res.Report.Failures {
		if f.Operation.Kind == workspace.OpArchive {
			deleted--
		}
	}
	out["deleted_count"] = deleted
	out["moved_count"] = res.Report.Succeeded + res.Report.Skipped - deleted
	out["skipped_count"] = res.Report.Skipped
	out["failed_count"] = res.Report.Failed
	out["failed_pages"] = res.Report.Failures
	return success(out)
}

// UploadFile uploads a local file and attaches it to a page as an image,
// video, audio, pdf or file block depending on its content type.
func (t *Toolset) UploadFile(ctx context.Context, args Args) Result {
	path, bad := args.require("file_path")
	if bad != nil {
		return bad
	}
	pageID, bad := args.require("page_id")
	if bad != nil {
		return bad
	}
	name := filepath.Base(path)
	ct := args.StringOr("content_type", mime.TypeByExtension(filepath.Ext(name)))
	ct, _, _ = strings.Cut(ct, ";")
	if ct == "" {
		ct = "application/octet-stream"
	}
	f, err := os.Open(path)
	if err != nil {
		return failure(err)
	}
	defer f.Close()

	upload, err := t.client.CreateFileUpload(ctx, name, ct)
	if err != nil {
		return failure(err)
	}
	if upload, err = t.client.SendFileUpload(ctx, upload.ID, name, ct, f); err != nil {
		return failure(err)
	}
	kind := mediaBlockType(ct)
	if _, err := t.client.AppendBlocks(ctx, pageID, []notion.Block{notion.MediaUpload(kind, upload.ID)}); err != nil {
		return failure(err)
	}
	return success(map[string]any{
		"file_upload_id": upload.ID,
		"filename":       name,
		"content_type":   ct,
		"block_type":     kind,
		"page_id":        notion.NormalizeID(pageID),
	})
}

func mediaBlockType(contentType string) notion.BlockType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return notion.BlockImage
	case strings.HasPrefix(contentType, "video/"):
		return notion.BlockVideo
	case strings.HasPrefix(contentType, "audio/"):
		return notion.BlockAudio
	case contentType == "application/pdf":
		return notion.BlockPDF
	}
	return notion.BlockFile
}
