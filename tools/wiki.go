package tools

import (
	"context"
	"sort"
	"time"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

// wikiDatabase is the configured database name used when no database_id is
// passed to the wiki tools.
const wikiDatabase = "wiki"

// DefaultVerificationDays is how long a wiki verification lasts.
const DefaultVerificationDays = 90

// tagsProperty returns the "Tags" multi-select property, or the first
// multi-select property in name order.
func tagsProperty(schema map[string]notion.PropertySchema) string {
	if s, ok := schema["Tags"]; ok && s.Kind() == notion.PropertyTypeMultiSelect {
		return "Tags"
	}
	names := make([]string, 0, len(schema))
	for name, s := range schema {
		if s.Kind() == notion.PropertyTypeMultiSelect {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func propertyOfType(props map[string]notion.PropertyValue, t notion.PropertyType) string {
	names := make([]string, 0, 1)
	for name, v := range props {
		if v.Type == t {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// isVerified reports whether a wiki page carries a current verification or
// a checked "Verified" checkbox.
func isVerified(p *notion.Page, now time.Time) bool {
	if name := propertyOfType(p.Properties, notion.PropertyTypeVerification); name != "" {
		v := p.Properties[name].Verification
		if v == nil || v.State != "verified" {
			return false
		}
		if v.Date != nil && v.Date.End != nil {
			end := *v.Date.End
			if len(end) > len(time.DateOnly) {
				end = end[:len(time.DateOnly)]
			}
			if until, err := time.Parse(time.DateOnly, end); err == nil {
				return now.Before(until.AddDate(0, 0, 1))
			}
		}
		return true
	}
	if v, ok := p.Properties["Verified"]; ok && v.Checkbox != nil {
		return *v.Checkbox
	}
	return false
}

// WikiCreateEntry adds a page to the wiki database with markdown content
// and optional tags.
func (t *Toolset) WikiCreateEntry(ctx context.Context, args Args) Result {
	title, bad := args.require("title")
	if bad != nil {
		return bad
	}
	dbID, ds, bad := t.dataSourceFor(ctx, args, wikiDatabase)
	if bad != nil {
		return bad
	}
	titleProp := notion.SchemaTitleProperty(ds.Properties)
	if titleProp == "" {
		return failure(notion.ErrSchemaTitle)
	}
	props := map[string]notion.PropertyValue{titleProp: notion.TitleValue(title)}
	tags := args.Strings("tags")
	if len(tags) > 0 {
		name := tagsProperty(ds.Properties)
		if name == "" {
			return failuref("wiki database has no multi-select property for tags")
		}
		v, err := notion.BuildPropertyValue(notion.PropertyTypeMultiSelect, tags)
		if err != nil {
			return failure(err)
		}
		props[name] = v
	}
	blocks := notion.MarkdownToBlocks(args.String("content"))
	page, err := t.client.CreatePageInDatabase(ctx, dbID, props, blocks, &notion.PageOptions{
		Icon:         notion.EmojiIcon(args.String("icon")),
		DataSourceID: ds.ID,
	})
	if err != nil {
		return failure(err)
	}
	return success(map[string]any{
		"page_id":      page.ID,
		"url":          page.URL,
		"title":        title,
		"tags":         tags,
		"blocks_added": len(blocks),
	})
}

// WikiListEntries lists wiki pages, optionally only those with a tag or
// only verified ones.
func (t *Toolset) WikiListEntries(ctx context.Context, args Args) Result {
	dbID, ds, bad := t.dataSourceFor(ctx, args, wikiDatabase)
	if bad != nil {
		return bad
	}
	tagsProp := tagsProperty(ds.Properties)
	var filter any
	if tag := args.String("tag"); tag != "" {
		if tagsProp == "" {
			return failuref("wiki database has no multi-select property for tags")
		}
		filter = map[string]any{"property": tagsProp, "multi_select": map[string]any{"contains": tag}}
	}
	pages, err := t.client.QueryDatabase(ctx, dbID, filter, ds.ID)
	if err != nil {
		return failure(err)
	}
	now := time.Now()
	verifiedOnly := args.Bool("verified_only")
	entries := make([]map[string]any, 0, len(pages))
	for i := range pages {
		p := &pages[i]
		verified := isVerified(p, now)
		if verifiedOnly && !verified {
			continue
		}
		entry := map[string]any{"page_id": p.ID, "title": p.Title(), "url": p.URL, "verified": verified}
		if tagsProp != "" {
			entry["tags"] = notion.ExtractPropertyValue(p.Properties[tagsProp])
		}
		entries = append(entries, entry)
	}
	return success(map[string]any{"count": len(entries), "entries": entries})
}

// WikiVerifyEntry marks a wiki page verified for days days. Pages with a
// verification property get a dated verification; otherwise a "Verified"
// checkbox is checked.
func (t *Toolset) WikiVerifyEntry(ctx context.Context, args Args) Result {
	id, bad := args.require("page_id")
	if bad != nil {
		return bad
	}
	days := args.Int("days", DefaultVerificationDays)
	if days <= 0 {
		return failuref("days must be positive, got %d", days)
	}
	page, err := t.client.GetPage(ctx, id)
	if err != nil {
		return failure(err)
	}
	now := time.Now()
	start := now.Format(time.DateOnly)
	end := now.AddDate(0, 0, days).Format(time.DateOnly)

	props := map[string]notion.PropertyValue{}
	out := map[string]any{"page_id": page.ID, "title": page.Title()}
	if name := propertyOfType(page.Properties, notion.PropertyTypeVerification); name != "" {
		props[name] = notion.PropertyValue{
			Type: notion.PropertyTypeVerification,
			Verification: &notion.VerificationValue{
				State: "verified",
				Date:  &notion.DateValue{Start: start, End: &end},
			},
		}
		out["property"] = name
		out["verified_until"] = end
	} else if v, ok := page.Properties["Verified"]; ok && v.Type == notion.PropertyTypeCheckbox {
		checked := true
		props["Verified"] = notion.PropertyValue{Type: notion.PropertyTypeCheckbox, Checkbox: &checked}
		out["property"] = "Verified"
	} else {
		return failuref("page %s has no verification property or Verified checkbox", page.ID)
	}
	if _, err := t.client.UpdatePage(ctx, page.ID, notion.UpdatePageRequest{Properties: props}); err != nil {
		return failure(err)
	}
	out["verified"] = true
	return success(out)
}
