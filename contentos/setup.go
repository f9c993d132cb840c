package contentos

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

// CreatedDatabase identifies a database created by Setup.
type CreatedDatabase struct {
	Title        string `json:"title" yaml:"-"`
	DatabaseID   string `json:"database_id" yaml:"database_id"`
	DataSourceID string `json:"data_source_id" yaml:"data_source_id"`
	Rows         int    `json:"rows" yaml:"-"`
}

// Result lists what Setup created.
type Result struct {
	RootPageID string                     `json:"root_page_id"`
	RootURL    string                     `json:"root_url,omitempty"`
	Databases  map[string]CreatedDatabase `json:"databases"`
	Pages      map[string]string          `json:"pages"`
}

// DatabaseIDs maps database keys to database IDs, the form used by the
// "databases" section of the config file.
func (r *Result) DatabaseIDs() map[string]string {
	ids := make(map[string]string, len(r.Databases))
	for k, db := range r.Databases {
		ids[k] = db.DatabaseID
	}
	return ids
}

// Options controls Setup.
type Options struct {
	// ParentPageID is the page the workspace is created under. Empty means
	// the client's default parent.
	ParentPageID string
	// SkipRows leaves the databases empty.
	SkipRows bool
}

// Setup creates the template under a parent page: a root page, the
// databases, the relations between them, the sample rows and the onboarding
// pages. It stops at the first error and returns what was created so far.
func Setup(ctx context.Context, c *notion.Client, t *Template, opts Options) (*Result, error) {
	parentID, err := c.RequireParent(opts.ParentPageID)
	if err != nil {
		return nil, err
	}
	res := &Result{Databases: map[string]CreatedDatabase{}, Pages: map[string]string{}}

	root, err := c.CreatePage(ctx, notion.CreatePageRequest{
		ParentPageID: parentID,
		Title:        t.Title,
		Icon:         notion.EmojiIcon(t.Icon),
		Children:     rootContent(t),
	})
	if err != nil {
		return res, fmt.Errorf("create root page: %w", err)
	}
	res.RootPageID, res.RootURL = root.ID, root.URL
	slog.InfoContext(ctx, "created root page", "title", t.Title, "id", root.ID)

	for _, def := range t.Databases {
		schema, err := def.Schema()
		if err != nil {
			return res, err
		}
		db, err := c.CreateDatabase(ctx, notion.CreateDatabaseRequest{
			Title:        def.Title,
			Description:  def.Description,
			Properties:   schema,
			ParentPageID: root.ID,
			Icon:         notion.EmojiIcon(def.Icon),
		})
		if err != nil {
			return res, err
		}
		if len(db.DataSources) == 0 {
			return res, fmt.Errorf("database %q: %w", def.Title, notion.ErrNoDataSources)
		}
		res.Databases[def.Key] = CreatedDatabase{Title: def.Title, DatabaseID: db.ID, DataSourceID: db.DataSources[0].ID}
		slog.InfoContext(ctx, "created database", "title", def.Title, "id", db.ID)
	}

	if err := linkRelations(ctx, c, t, res); err != nil {
		return res, err
	}

	if !opts.SkipRows {
		for _, def := range t.Databases {
			n, err := addRows(ctx, c, def, res.Databases[def.Key])
			created := res.Databases[def.Key]
			created.Rows = n
			res.Databases[def.Key] = created
			if err != nil {
				return res, err
			}
		}
	}

	for _, p := range t.Pages {
		page, err := c.CreatePage(ctx, notion.CreatePageRequest{
			ParentPageID: root.ID,
			Title:        p.Title,
			Icon:         notion.EmojiIcon(p.Icon),
			Children:     notion.MarkdownToBlocks(p.Content),
		})
		if err != nil {
			return res, fmt.Errorf("create page %q: %w", p.Title, err)
		}
		res.Pages[p.Title] = page.ID
		slog.InfoContext(ctx, "created page", "title", p.Title, "id", page.ID)
	}
	return res, nil
}

func rootContent(t *Template) []notion.Block {
	var blocks []notion.Block
	if t.Description != "" {
		blocks = append(blocks, notion.Callout(t.Description, t.Icon, notion.ColorBlueBackground))
	}
	return append(blocks, notion.TableOfContentsBlock(), notion.Divider())
}

// linkRelations adds the relation properties once every database exists.
func linkRelations(ctx context.Context, c *notion.Client, t *Template, res *Result) error {
	for _, def := range t.Databases {
		rels := def.Relations()
		if len(rels) == 0 {
			continue
		}
		props := make(map[string]*notion.PropertySchema, len(rels))
		for _, r := range rels {
			s := notion.RelationProperty(res.Databases[r.Target].DataSourceID, r.Dual)
			props[r.Name] = &s
		}
		src := res.Databases[def.Key].DataSourceID
		if _, err := c.UpdateDataSource(ctx, src, notion.UpdateDataSourceRequest{Properties: props}); err != nil {
			return fmt.Errorf("add relations to %q: %w", def.Title, err)
		}
		slog.DebugContext(ctx, "linked relations", "database", def.Title, "count", len(rels))
	}
	return nil
}

func addRows(ctx context.Context, c *notion.Client, def DatabaseDef, db CreatedDatabase) (int, error) {
	n := 0
	for _, row := range def.Rows {
		props := make(map[string]notion.PropertyValue, len(row))
		for name, v := range row {
			typ, ok := def.PropertyType(name)
			if !ok {
				return n, fmt.Errorf("%s row: unknown property %q", def.Key, name)
			}
			pv, err := notion.BuildPropertyValue(typ, v)
			if err != nil {
				return n, fmt.Errorf("%s row: property %q: %w", def.Key, name, err)
			}
			props[name] = pv
		}
		if _, err := c.CreatePageInDatabase(ctx, db.DatabaseID, props, nil, &notion.PageOptions{DataSourceID: db.DataSourceID}); err != nil {
			return n, fmt.Errorf("add row to %q: %w", def.Title, err)
		}
		n++
	}
	return n, nil
}
