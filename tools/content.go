package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/vthunder/contentos-notion-mcp/contentos"
	"github.com/vthunder/contentos-notion-mcp/workspace"
)

// Update formats accepted by GenerateUpdate.
const (
	FormatMarkdown = "markdown"
	FormatPlain    = "plain"
	FormatSlack    = "slack"
	FormatEmail    = "email"
	FormatLinkedIn = "linkedin"
)

// LinkedInPostLimit is the maximum length of a LinkedIn post.
const LinkedInPostLimit = 3000

// Update is the content of a status update before formatting.
type Update struct {
	Title      string
	Body       string
	Highlights []string
	Hashtags   []string
}

// FormatUpdate renders u in one of the update formats.
func FormatUpdate(u Update, format string) (string, error) {
	var b strings.Builder
	switch format {
	case FormatMarkdown, "":
		fmt.Fprintf(&b, "# %s\n", u.Title)
		if u.Body != "" {
			fmt.Fprintf(&b, "\n%s\n", u.Body)
		}
		if len(u.Highlights) > 0 {
			b.WriteString("\n## Highlights\n\n")
			for _, h := range u.Highlights {
				fmt.Fprintf(&b, "- %s\n", h)
			}
		}
	case FormatPlain:
		fmt.Fprintf(&b, "%s\n%s\n", strings.ToUpper(u.Title), strings.Repeat("=", len([]rune(u.Title))))
		if u.Body != "" {
			fmt.Fprintf(&b, "\n%s\n", u.Body)
		}
		if len(u.Highlights) > 0 {
			b.WriteString("\nHighlights:\n")
			for _, h := range u.Highlights {
				fmt.Fprintf(&b, "  * %s\n", h)
			}
		}
	case FormatSlack:
		fmt.Fprintf(&b, "*%s*\n", u.Title)
		if u.Body != "" {
			fmt.Fprintf(&b, "\n%s\n", u.Body)
		}
		if len(u.Highlights) > 0 {
			b.WriteString("\n")
			for _, h := range u.Highlights {
				fmt.Fprintf(&b, "• %s\n", h)
			}
		}
	case FormatEmail:
		fmt.Fprintf(&b, "Subject: %s\n\nHi team,\n", u.Title)
		if u.Body != "" {
			fmt.Fprintf(&b, "\n%s\n", u.Body)
		}
		if len(u.Highlights) > 0 {
			b.WriteString("\nHighlights:\n")
			for _, h := range u.Highlights {
				fmt.Fprintf(&b, "- %s\n", h)
			}
		}
		b.WriteString("\nBest regards\n")
	case FormatLinkedIn:
		fmt.Fprintf(&b, "%s\n", u.Title)
		if u.Body != "" {
			fmt.Fprintf(&b, "\n%s\n", u.Body)
		}
		if len(u.Highlights) > 0 {
			b.WriteString("\n")
			for _, h := range u.Highlights {
				fmt.Fprintf(&b, "✅ %s\n", h)
			}
		}
		if len(u.Hashtags) > 0 {
			tags := make([]string, len(u.Hashtags))
			for i, t := range u.Hashtags {
				tags[i] = "#" + strings.ReplaceAll(strings.TrimPrefix(t, "#"), " ", "")
			}
			fmt.Fprintf(&b, "\n%s\n", strings.Join(tags, " "))
		}
	default:
		return "", fmt.Errorf("unknown format %q (want markdown, plain, slack, email or linkedin)", format)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// GenerateUpdate formats an update from title, content and highlights. With
// page_id the missing parts are taken from that page: its title, its text and
// its headings as highlights.
func (t *Toolset) GenerateUpdate(ctx context.Context, args Args) Result {
	u := Update{
		Title:      args.String("title"),
		Body:       args.String("content"),
		Highlights: args.Strings("highlights"),
		Hashtags:   args.Strings("hashtags"),
	}
	if id := args.String("page_id"); id != "" {
		e, err := workspace.ExtractContent(ctx, t.client, id, 1, t.classifier)
		if err != nil {
			return failure(err)
		}
		if u.Title == "" {
			u.Title = e.Title
		}
		if u.Body == "" {
			u.Body = e.Text
		}
		if len(u.Highlights) == 0 {
			u.Highlights = e.Headings
		}
	}
	if u.Title == "" {
		return failuref("title is required (or pass page_id)")
	}
	format := args.StringOr("format", FormatMarkdown)
	text, err := FormatUpdate(u, format)
	if err != nil {
		return failure(err)
	}
	out := map[string]any{"format": format, "content": text, "characters": len([]rune(text))}
	if format == FormatLinkedIn {
		out["over_limit"] = len([]rune(text)) > LinkedInPostLimit
	}
	return success(out)
}

// SetupContentOS creates the Content OS workspace under parent_id or the
// default parent.
func (t *Toolset) SetupContentOS(ctx context.Context, args Args) Result {
	tmpl := t.template
	if tmpl == nil {
		var err error
		if tmpl, err = contentos.DefaultTemplate(); err != nil {
			return failure(err)
		}
	}
	res, err := contentos.Setup(ctx, t.client, tmpl, contentos.Options{
		ParentPageID: args.String("parent_id"),
		SkipRows:     args.Bool("skip_rows"),
	})
	if err != nil {
		out := failure(err)
		if res != nil {
			out["partial"] = res
		}
		return out
	}
	t.log.InfoContext(ctx, "content os created", "root", res.RootPageID, "databases", len(res.Databases))
	return success(map[string]any{
		"root_page_id": res.RootPageID,
		"url":          res.RootURL,
		"databases":    res.Databases,
		"pages":        res.Pages,
		"database_ids": res.DatabaseIDs(),
	})
}
