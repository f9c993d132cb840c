package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

// Extraction is the text content of a page tree.
type Extraction struct {
	PageID         string         `json:"page_id"`
	Title          string         `json:"title"`
	Text           string         `json:"text"`
	Headings       []string       `json:"headings"`
	Ideas          []string       `json:"ideas"`
	WordCount      int            `json:"word_count"`
	Classification Classification `json:"classification"`
	Children       []*Extraction  `json:"children,omitempty"`
}

// AllIdeas returns the ideas of e and its descendants.
func (e *Extraction) AllIdeas() []string {
	ideas := append([]string(nil), e.Ideas...)
	for _, c := range e.Children {
		ideas = append(ideas, c.AllIdeas()...)
	}
	return ideas
}

// ExtractContent collects the plain text, headings and idea candidates of a
// page and of its child pages down to depth levels, and classifies each page.
// List items and to-dos are treated as idea candidates.
func ExtractContent(ctx context.Context, c *notion.Client, pageID string, depth int, k *KeywordClassifier) (*Extraction, error) {
	page, err := c.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return extract(ctx, c, page.ID, page.Title(), depth, k)
}

func extract(ctx context.Context, c *notion.Client, pageID, title string, depth int, k *KeywordClassifier) (*Extraction, error) {
	blocks, err := c.GetBlockChildrenRecursive(ctx, pageID, notion.DefaultMaxDepth)
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", pageID, err)
	}
	e := &Extraction{PageID: pageID, Title: title, Headings: []string{}, Ideas: []string{}}
	var text strings.Builder
	var childPages []notion.Block
	var visit func([]notion.Block)
	visit = func(blocks []notion.Block) {
		for _, b := range blocks {
			if b.Type == notion.BlockChildPage {
				childPages = append(childPages, b)
				continue
			}
			t := strings.TrimSpace(b.PlainText())
			if t != "" && b.Type != notion.BlockChildDatabase {
				text.WriteString(t)
				text.WriteByte('\n')
				switch {
				case b.IsHeading():
					e.Headings = append(e.Headings, t)
				case b.Type == notion.BlockBulletedListItem, b.Type == notion.BlockNumberedListItem, b.Type == notion.BlockToDo:
					e.Ideas = append(e.Ideas, t)
				}
			}
			visit(b.Children)
		}
	}
	visit(blocks)

	e.Text = strings.TrimSpace(text.String())
	e.WordCount = len(strings.Fields(e.Text))
	e.Classification = k.Classify(title, e.Text)

	if depth > 1 {
		for _, b := range childPages {
			child, err := extract(ctx, c, b.ID, b.PlainText(), depth-1, k)
			if err != nil {
				return nil, err
			}
			e.Children = append(e.Children, child)
		}
	}
	return e, nil
}

// SaveIdeas adds one row per idea to a database. The title property is
// detected from the schema; a "Status" select or status property is set to
// "Idea" and a "Source" text property to source when the schema has them.
// It returns the IDs of the created rows.
func SaveIdeas(ctx context.Context, c *notion.Client, databaseID string, ideas []string, source string) ([]string, error) {
	dsID, err := c.GetDataSourceID(ctx, databaseID, 0)
	if err != nil {
		return nil, err
	}
	ds, err := c.GetDataSource(ctx, dsID)
	if err != nil {
		return nil, err
	}
	titleProp := notion.SchemaTitleProperty(ds.Properties)
	if titleProp == "" {
		return nil, notion.ErrSchemaTitle
	}

	ids := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		props := map[string]notion.PropertyValue{titleProp: notion.TitleValue(idea)}
		if s, ok := ds.Properties["Status"]; ok && hasOption(s, "Idea") {
			v, err := notion.BuildPropertyValue(s.Kind(), "Idea")
			if err == nil {
				props["Status"] = v
			}
		}
		if s, ok := ds.Properties["Source"]; ok && s.Kind() == notion.PropertyTypeRichText && source != "" {
			props["Source"] = notion.RichTextValue(source)
		}
		page, err := c.CreatePageInDatabase(ctx, databaseID, props, nil, &notion.PageOptions{DataSourceID: dsID})
		if err != nil {
			return ids, fmt.Errorf("save idea %q: %w", idea, err)
		}
		ids = append(ids, page.ID)
	}
	return ids, nil
}

func hasOption(s notion.PropertySchema, name string) bool {
	if k := s.Kind(); k != notion.PropertyTypeSelect && k != notion.PropertyTypeStatus {
		return false
	}
	for _, o := range s.OptionNames() {
		if o == name {
			return true
		}
	}
	return false
}
