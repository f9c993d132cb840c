package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/vthunder/contentos-notion-mcp/contentos"
	"github.com/vthunder/contentos-notion-mcp/notion"
	"github.com/vthunder/contentos-notion-mcp/workspace"
)

// QueryDatabase returns the rows of a database matching an optional filter
// in Notion filter syntax.
func (t *Toolset) QueryDatabase(ctx context.Context, args Args) Result {
	dbID, bad := t.databaseID(args, args.String("database"))
	if bad != nil {
		return bad
	}
	var filter any
	if f := args.Map("filter"); len(f) > 0 {
		filter = f
	}
	pages, err := t.client.QueryDatabase(ctx, dbID, filter, args.String("data_source_id"))
	if err != nil {
		return failure(err)
	}
	total := len(pages)
	if limit := args.Int("limit", 0); limit > 0 && limit < len(pages) {
		pages = pages[:limit]
	}
	rows := make([]map[string]any, 0, len(pages))
	for i := range pages {
		rows = append(rows, t.client.FlattenPage(ctx, &pages[i]))
	}
	return success(map[string]any{"database_id": notion.NormalizeID(dbID), "count": total, "results": rows})
}

// CreateDatabase creates a database under parent_id. properties maps names
// to a type name or to {type, options, format, expression, data_source_id}.
func (t *Toolset) CreateDatabase(ctx context.Context, args Args) Result {
	title, bad := args.require("title")
	if bad != nil {
		return bad
	}
	schema, err := parseSchema(args.Map("properties"))
	if err != nil {
		return failure(err)
	}
	if len(schema) == 0 {
		schema = map[string]notion.PropertySchema{"Name": notion.TitleProperty()}
	}
	db, err := t.client.CreateDatabase(ctx, notion.CreateDatabaseRequest{
		Title:        title,
		Description:  args.String("description"),
		Properties:   schema,
		ParentPageID: args.String("parent_id"),
		Icon:         notion.EmojiIcon(args.String("icon")),
		IsInline:     args.Bool("inline"),
	})
	if err != nil {
		return failure(err)
	}
	out := map[string]any{"database_id": db.ID, "url": db.URL, "title": title, "properties": len(schema)}
	if len(db.DataSources) > 0 {
		out["data_source_id"] = db.DataSources[0].ID
	}
	return success(out)
}

// parseSchema converts tool arguments into property schemas.
func parseSchema(props map[string]any) (map[string]notion.PropertySchema, error) {
	schema := make(map[string]notion.PropertySchema, len(props))
	for name, raw := range props {
		s, err := parseProperty(name, raw)
		if err != nil {
			return nil, err
		}
		schema[name] = s
	}
	return schema, nil
}

// parseProperty accepts a type name such as "select" or an object with a
// "type" key and its configuration.
func parseProperty(name string, raw any) (notion.PropertySchema, error) {
	def := contentos.PropertyDef{Name: name}
	a, _ := raw.(map[string]any)
	if a == nil {
		def.Type = fmt.Sprint(raw)
	} else {
		cfg := Args(a)
		def.Type = cfg.String("type")
		def.Options = cfg.Strings("options")
		def.Format = cfg.String("format")
		def.Expression = cfg.String("expression")
		if def.Type == string(notion.PropertyTypeRelation) {
			dsID := cfg.String("data_source_id")
			if dsID == "" {
				return notion.PropertySchema{}, fmt.Errorf("property %q: relation needs data_source_id", name)
			}
			return notion.RelationProperty(notion.NormalizeID(dsID), cfg.Bool("dual")), nil
		}
	}
	s, err := def.PropertySchema()
	if err != nil {
		return s, fmt.Errorf("property %q: %w", name, err)
	}
	return s, nil
}

func (t *Toolset) dataSource(ctx context.Context, args Args) (string, *notion.DataSource, Result) {
	return t.dataSourceFor(ctx, args, args.String("database"))
}

// dataSourceFor resolves database_id, or the configured database named def,
// to its data source.
func (t *Toolset) dataSourceFor(ctx context.Context, args Args, def string) (string, *notion.DataSource, Result) {
	dbID, bad := t.databaseID(args, def)
	if bad != nil {
		return "", nil, bad
	}
	dsID := args.String("data_source_id")
	if dsID == "" {
		var err error
		if dsID, err = t.client.GetDataSourceID(ctx, dbID, 0); err != nil {
			return "", nil, failure(err)
		}
	}
	ds, err := t.client.GetDataSource(ctx, dsID)
	if err != nil {
		return "", nil, failure(err)
	}
	return dbID, ds, nil
}

func describeSchema(props map[string]notion.PropertySchema) map[string]any {
	out := make(map[string]any, len(props))
	for name, p := range props {
		d := map[string]any{"type": p.Kind()}
		if opts := p.OptionNames(); len(opts) > 0 {
			d["options"] = opts
		}
		if p.Relation != nil {
			d["data_source_id"] = p.Relation.DataSourceID
		}
		if p.Formula != nil {
			d["expression"] = p.Formula.Expression
		}
		out[name] = d
	}
	return out
}

// GetDatabaseSchema describes the properties of a database.
func (t *Toolset) GetDatabaseSchema(ctx context.Context, args Args) Result {
	dbID, ds, bad := t.dataSource(ctx, args)
	if bad != nil {
		return bad
	}
	return success(map[string]any{
		"database_id":    notion.NormalizeID(dbID),
		"data_source_id": ds.ID,
		"title":          notion.PlainText(ds.Title),
		"title_property": notion.SchemaTitleProperty(ds.Properties),
		"properties":     describeSchema(ds.Properties),
	})
}

// UpdateDatabaseSchema adds, renames and removes properties. add takes the
// same form as create_database properties; rename maps old to new names;
// remove lists names.
func (t *Toolset) UpdateDatabaseSchema(ctx context.Context, args Args) Result {
	_, ds, bad := t.dataSource(ctx, args)
	if bad != nil {
		return bad
	}
	add, err := parseSchema(args.Map("add"))
	if err != nil {
		return failure(err)
	}
	props := map[string]*notion.PropertySchema{}
	for name, s := range add {
		if s.Kind() == notion.PropertyTypeTitle {
			return failuref("property %q: a database has exactly one title property", name)
		}
		props[name] = &s
	}
	for from, to := range args.Map("rename") {
		if _, ok := ds.Properties[from]; !ok {
			return failuref("no property %q to rename", from)
		}
		props[from] = &notion.PropertySchema{Name: fmt.Sprint(to)}
	}
	for _, name := range args.Strings("remove") {
		p, ok := ds.Properties[name]
		if !ok {
			return failuref("no property %q to remove", name)
		}
		if p.Kind() == notion.PropertyTypeTitle {
			return failuref("cannot remove the title property %q", name)
		}
		props[name] = nil
	}
	if len(props) == 0 {
		return failuref("nothing to update: pass add, rename or remove")
	}
	updated, err := t.client.UpdateDataSource(ctx, ds.ID, notion.UpdateDataSourceRequest{Properties: props})
	if err != nil {
		return failure(err)
	}
	return success(map[string]any{
		"data_source_id": updated.ID,
		"changes":        len(props),
		"properties":     describeSchema(updated.Properties),
	})
}

// AnalyzeDatabase reports the row count, the fill rate of every property
// and the value distribution of select-like properties.
func (t *Toolset) AnalyzeDatabase(ctx context.Context, args Args) Result {
	dbID, ds, bad := t.dataSource(ctx, args)
	if bad != nil {
		return bad
	}
	pages, err := t.client.QueryDatabase(ctx, dbID, nil, ds.ID)
	if err != nil {
		return failure(err)
	}
	analysis := AnalyzeRows(ds.Properties, pages)
	analysis["database_id"] = notion.NormalizeID(dbID)
	analysis["title"] = notion.PlainText(ds.Title)
	return success(analysis)
}

// AnalyzeRows computes database statistics from a schema and its rows.
func AnalyzeRows(schema map[string]notion.PropertySchema, pages []notion.Page) map[string]any {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	fill := make(map[string]any, len(names))
	dist := map[string]map[string]int{}
	for _, name := range names {
		filled := 0
		prop := schema[name]
		kind := prop.Kind()
		selectLike := kind == notion.PropertyTypeSelect || kind == notion.PropertyTypeMultiSelect || kind == notion.PropertyTypeStatus
		if selectLike {
			dist[name] = map[string]int{}
		}
		for _, p := range pages {
			v := notion.ExtractPropertyValue(p.Properties[name])
			if !notion.IsEmptyValue(v) {
				filled++
			}
			if !selectLike {
				continue
			}
			switch tv := v.(type) {
			case string:
				if tv != "" {
					dist[name][tv]++
				}
			case []string:
				for _, s := range tv {
					dist[name][s]++
				}
			}
		}
		rate := 0.0
		if len(pages) > 0 {
			rate = float64(filled) / float64(len(pages))
		}
		fill[name] = map[string]any{"type": kind, "filled": filled, "fill_rate": rate}
	}
	return map[string]any{
		"total_rows":    len(pages),
		"properties":    fill,
		"distributions": dist,
	}
}

// ExportDatabase writes every row of a database to <title>_export.json.
func (t *Toolset) ExportDatabase(ctx context.Context, args Args) Result {
	dbID, ds, bad := t.dataSource(ctx, args)
	if bad != nil {
		return bad
	}
	pages, err := t.client.QueryDatabase(ctx, dbID, nil, ds.ID)
	if err != nil {
		return failure(err)
	}
	rows := make([]map[string]any, 0, len(pages))
	for i := range pages {
		rows = append(rows, t.client.FlattenPage(ctx, &pages[i]))
	}
	title := notion.PlainText(ds.Title)
	snapshot := map[string]any{
		"database_id":    notion.NormalizeID(dbID),
		"data_source_id": ds.ID,
		"title":          title,
		"schema":         describeSchema(ds.Properties),
		"rows":           rows,
	}
	path, err := workspace.WriteJSON(args.StringOr("output_dir", t.settings.ExportDir), title, "export", snapshot)
	if err != nil {
		return failure(err)
	}
	return success(map[string]any{"file_path": path, "rows": len(rows), "title": title})
}
