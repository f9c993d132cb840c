package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

// OpKind is the kind of a planned operation.
type OpKind string

const (
	OpCreate  OpKind = "create"
	OpArchive OpKind = "archive"
	OpMove    OpKind = "move"
	OpCopy    OpKind = "copy"
	OpRename  OpKind = "rename"

	OpMoveDatabase OpKind = "move_database"
)

// ErrNotEmpty is reported for an archive that would take remaining content
// of the page with it.
var ErrNotEmpty = errors.New("page still has content")

// Operation is one planned change.
//
// Create operations may set Ref so later operations can name the created
// page through TargetRef before its ID is known. Archive operations with
// OnlyIfEmpty fail with ErrNotEmpty while the page has child blocks.
type Operation struct {
	Kind        OpKind `json:"kind"`
	PageID      string `json:"page_id,omitempty"`
	Title       string `json:"title,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
	TargetID    string `json:"target_id,omitempty"`
	TargetRef   string `json:"target_ref,omitempty"`
	Ref         string `json:"ref,omitempty"`
	Reason      string `json:"reason,omitempty"`
	OnlyIfEmpty bool   `json:"only_if_empty,omitempty"`
}

func (op Operation) target() string {
	if op.TargetRef != "" {
		return op.TargetRef
	}
	return op.TargetID
}

// String describes the operation in one line.
func (op Operation) String() string {
	var s string
	switch op.Kind {
	case OpCreate:
		s = fmt.Sprintf("create page %q under %s", op.Title, op.target())
	case OpArchive:
		s = fmt.Sprintf("archive %q (%s)", op.Title, op.PageID)
		if op.OnlyIfEmpty {
			s += " once empty"
		}
	case OpMove:
		s = fmt.Sprintf("move %q (%s) to %s", op.Title, op.PageID, op.target())
	case OpMoveDatabase:
		s = fmt.Sprintf("move database %q (%s) to %s", op.Title, op.PageID, op.target())
	case OpCopy:
		s = fmt.Sprintf("copy %q (%s) to %s", op.Title, op.PageID, op.target())
	case OpRename:
		s = fmt.Sprintf("rename %s to %q", op.PageID, op.Title)
	default:
		s = fmt.Sprintf("%s %s", op.Kind, op.PageID)
	}
	if op.Reason != "" {
		s += ": " + op.Reason
	}
	return s
}

// Plan is an ordered list of operations.
type Plan struct {
	Operations []Operation `json:"operations"`
}

// Add appends operations to the plan.
func (p *Plan) Add(ops ...Operation) {
	p.Operations = append(p.Operations, ops...)
}

// Len returns the number of operations.
func (p *Plan) Len() int { return len(p.Operations) }

// Preview describes every operation without calling the API.
func (p *Plan) Preview() []string {
	out := make([]string, len(p.Operations))
	for i, op := range p.Operations {
		out[i] = op.String()
	}
	return out
}

// Failure is an operation that could not be applied.
type Failure struct {
	Operation Operation `json:"operation"`
	Error     string    `json:"error"`
}

// Report counts the outcome of applying a plan.
type Report struct {
	Succeeded int       `json:"succeeded"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
	// Created maps create references to the IDs of the created pages.
	Created map[string]string `json:"created,omitempty"`
}

// Apply executes the operations in order. Operations already in effect are
// skipped, so applying a plan twice changes nothing the second time. A failed
// operation is recorded and the rest still run; the returned error is only
// set when ctx is done.
func (p *Plan) Apply(ctx context.Context, c *notion.Client) (*Report, error) {
	r := &Report{Created: map[string]string{}}
	for _, op := range p.Operations {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		skipped, err := apply(ctx, c, op, r.Created)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return r, ctx.Err()
			}
			slog.WarnContext(ctx, "operation failed", "op", op.Kind, "page", op.PageID, "err", err)
			r.Failed++
			r.Failures = append(r.Failures, Failure{Operation: op, Error: err.Error()})
		case skipped:
			slog.DebugContext(ctx, "operation already applied", "op", op.Kind, "page", op.PageID)
			r.Skipped++
		default:
			slog.InfoContext(ctx, "applied", "op", op.String())
			r.Succeeded++
		}
	}
	return r, nil
}

func apply(ctx context.Context, c *notion.Client, op Operation, created map[string]string) (skipped bool, err error) {
	target := op.TargetID
	if op.TargetRef != "" {
		id, ok := created[op.TargetRef]
		if !ok {
			return false, fmt.Errorf("target %s was not created", op.TargetRef)
		}
		target = id
	}

	switch op.Kind {
	case OpCreate:
		existing, err := findChildPage(ctx, c, target, op.Title)
		if err != nil {
			return false, err
		}
		if existing != "" {
			if op.Ref != "" {
				created[op.Ref] = existing
			}
			return true, nil
		}
		page, err := c.CreatePage(ctx, notion.CreatePageRequest{
			ParentPageID: target, Title: op.Title, Icon: notion.EmojiIcon(op.Emoji),
		})
		if err != nil {
			return false, err
		}
		if op.Ref != "" {
			created[op.Ref] = page.ID
		}
		return false, nil

	case OpArchive:
		page, err := c.GetPage(ctx, op.PageID)
		if err != nil {
			return false, err
		}
		if page.Archived || page.InTrash {
			return true, nil
		}
		if op.OnlyIfEmpty {
			blocks, err := c.GetBlockChildrenAll(ctx, op.PageID)
			if err != nil {
				return false, err
			}
			if n := countLive(blocks); n > 0 {
				return false, fmt.Errorf("%w: %d blocks left in %q", ErrNotEmpty, n, page.Title())
			}
		}
		_, err = c.ArchivePage(ctx, op.PageID)
		return false, err

	case OpMove:
		page, err := c.GetPage(ctx, op.PageID)
		if err != nil {
			return false, err
		}
		if page.Parent.PageID == notion.NormalizeID(target) && !page.Archived {
			return true, nil
		}
		_, err = c.MovePage(ctx, op.PageID, target)
		return false, err

	case OpMoveDatabase:
		db, err := c.GetDatabase(ctx, op.PageID)
		if err != nil {
			return false, err
		}
		if db.Parent.PageID == notion.NormalizeID(target) {
			return true, nil
		}
		_, err = c.MoveDatabase(ctx, op.PageID, target)
		return false, err

	case OpCopy:
		page, err := c.GetPage(ctx, op.PageID)
		if err != nil {
			return false, err
		}
		existing, err := findChildPage(ctx, c, target, page.Title())
		if err != nil {
			return false, err
		}
		if existing != "" {
			return true, nil
		}
		_, err = copyPage(ctx, c, page, target, page.Title())
		return false, err

	case OpRename:
		page, err := c.GetPage(ctx, op.PageID)
		if err != nil {
			return false, err
		}
		if page.Title() == op.Title {
			return true, nil
		}
		req := notion.UpdatePageRequest{
			Properties: map[string]notion.PropertyValue{page.TitlePropertyName(): notion.TitleValue(op.Title)},
		}
		if op.Emoji != "" {
			req.Icon = notion.EmojiIcon(op.Emoji)
		}
		_, err = c.UpdatePage(ctx, op.PageID, req)
		return false, err
	}
	return false, fmt.Errorf("unknown operation %q", op.Kind)
}

func countLive(blocks []notion.Block) int {
	n := 0
	for _, b := range blocks {
		if !b.Archived {
			n++
		}
	}
	return n
}

// findChildPage returns the ID of the child page of parentID whose normalized
// title equals title's, or "".
func findChildPage(ctx context.Context, c *notion.Client, parentID, title string) (string, error) {
	pages, err := c.ChildPages(ctx, parentID)
	if err != nil {
		return "", err
	}
	want := NormalizeTitle(title)
	for _, b := range pages {
		if NormalizeTitle(b.PlainText()) == want {
			return b.ID, nil
		}
	}
	return "", nil
}

// copyPage duplicates a page's title, icon, cover and content under
// parentID. Child pages and databases are not copied.
func copyPage(ctx context.Context, c *notion.Client, page *notion.Page, parentID, title string) (*notion.Page, error) {
	blocks, err := c.GetBlockChildrenRecursive(ctx, page.ID, notion.DefaultMaxDepth)
	if err != nil {
		return nil, err
	}
	children := make([]notion.Block, 0, len(blocks))
	for _, b := range blocks {
		if cp, ok := b.CopyForCreate(); ok {
			children = append(children, cp)
		}
	}
	return c.CreatePage(ctx, notion.CreatePageRequest{
		ParentPageID: parentID, Title: title, Icon: page.Icon, Cover: page.Cover, Children: children,
	})
}

// DuplicatePage copies a page under parentID, or under its current parent
// when parentID is empty, and returns the new page.
func DuplicatePage(ctx context.Context, c *notion.Client, pageID, parentID, title string) (*notion.Page, error) {
	page, err := c.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if parentID == "" {
		if page.Parent.Type != notion.ParentPage {
			return nil, fmt.Errorf("page %s has no parent page: %w", pageID, notion.ErrNoParent)
		}
		parentID = page.Parent.PageID
	}
	if title == "" {
		title = page.Title() + " (copy)"
	}
	return copyPage(ctx, c, page, parentID, title)
}
