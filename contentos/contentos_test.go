package contentos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/contentos-notion-mcp/notion"
	"github.com/vthunder/contentos-notion-mcp/notion/notiontest"
)

func TestDefaultTemplate(t *testing.T) {
	tmpl, err := DefaultTemplate()
	require.NoError(t, err)

	var keys []string
	for _, db := range tmpl.Databases {
		keys = append(keys, db.Key)
	}
	assert.Equal(t, []string{"content_pillars", "content_hub", "voice_discovery", "prompt_library", "weekly_review"}, keys)
	assert.NotEmpty(t, tmpl.Pages)

	hub, ok := tmpl.Database("content_hub")
	require.True(t, ok)
	schema, err := hub.Schema()
	require.NoError(t, err)
	assert.NotContains(t, schema, "Pillar")
	assert.Equal(t, notion.PropertyTypeFormula, schema["Engagement Rate"].Kind())
	pillars, err := mustDatabase(t, tmpl, "content_pillars").Schema()
	require.NoError(t, err)
	assert.Equal(t, []string{"High", "Medium", "Low"}, pillars["Priority"].OptionNames())

	rows := map[string]int{}
	for _, db := range tmpl.Databases {
		rows[db.Key] = len(db.Rows)
	}
	assert.Equal(t, map[string]int{
		"content_pillars": 3,
		"content_hub":     1,
		"voice_discovery": 5,
		"prompt_library":  4,
		"weekly_review":   0,
	}, rows)
	voice := mustDatabase(t, tmpl, "voice_discovery")
	assert.Equal(t, "What do you want to be known for?", voice.Rows[0]["Question"])
	assert.Equal(t, true, mustDatabase(t, tmpl, "content_pillars").Rows[0]["Active"])
	require.Len(t, hub.Relations(), 1)
	assert.Equal(t, "content_pillars", hub.Relations()[0].Target)
}

func TestParseTemplateErrors(t *testing.T) {
	tests := []struct {
		name, yaml, want string
	}{
		{"no title", "databases: []", "missing title"},
		{"duplicate key", `
title: T
databases:
  - {key: a, title: A, properties: [{name: N, type: title}]}
  - {key: a, title: B, properties: [{name: N, type: title}]}
`, "duplicate key"},
		{"unknown target", `
title: T
databases:
  - key: a
    title: A
    properties:
      - {name: N, type: title}
      - {name: R, type: relation, target: nope}
`, "unknown relation target"},
		{"no title property", `
title: T
databases:
  - {key: a, title: A, properties: [{name: N, type: rich_text}]}
`, "exactly one title property"},
		{"bad type", `
title: T
databases:
  - {key: a, title: A, properties: [{name: N, type: title}, {name: X, type: rollup}]}
`, "unsupported type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplate([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSetup(t *testing.T) {
	srv := notiontest.New(t)
	parent := srv.AddPage("", "Home")
	c := srv.Client(t, notion.WithDefaultParent(parent))
	tmpl, err := DefaultTemplate()
	require.NoError(t, err)

	res, err := Setup(context.Background(), c, tmpl, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"LinkedIn Content OS"}, srv.ChildPageTitles(parent))
	assert.Len(t, res.Databases, 5)
	assert.Len(t, res.Pages, len(tmpl.Pages))

	hub := res.Databases["content_hub"]
	ds, ok := srv.DataSource(hub.DataSourceID)
	require.True(t, ok)
	rel := ds.Properties["Pillar"]
	require.NotNil(t, rel.Relation)
	assert.Equal(t, res.Databases["content_pillars"].DataSourceID, rel.Relation.DataSourceID)

	assert.Equal(t, 3, res.Databases["content_pillars"].Rows)
	assert.Equal(t, 1, res.Databases["content_hub"].Rows)
	assert.Equal(t, 4, res.Databases["prompt_library"].Rows)
	assert.Equal(t, 5, res.Databases["voice_discovery"].Rows)
	assert.Zero(t, res.Databases["weekly_review"].Rows)

	rows, err := c.QueryDatabase(context.Background(), res.Databases["prompt_library"].DatabaseID, nil, "")
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	rows, err = c.QueryDatabase(context.Background(), res.Databases["voice_discovery"].DatabaseID, nil, "")
	require.NoError(t, err)
	var questions []string
	for i := range rows {
		questions = append(questions, rows[i].Title())
	}
	assert.Contains(t, questions, "Who do you write for and what keeps them up at night?")

	start := srv.Children(res.Pages["Start Here"])
	require.NotEmpty(t, start)
	assert.Equal(t, notion.BlockHeading1, start[0].Type)

	ids := res.DatabaseIDs()
	assert.Equal(t, hub.DatabaseID, ids["content_hub"])
}

func TestSetupSkipRows(t *testing.T) {
	srv := notiontest.New(t)
	parent := srv.AddPage("", "Home")
	c := srv.Client(t)
	tmpl, err := DefaultTemplate()
	require.NoError(t, err)

	res, err := Setup(context.Background(), c, tmpl, Options{ParentPageID: parent, SkipRows: true})
	require.NoError(t, err)
	for key, db := range res.Databases {
		assert.Zero(t, db.Rows, key)
	}
}

func TestSetupRequiresParent(t *testing.T) {
	srv := notiontest.New(t)
	tmpl, err := DefaultTemplate()
	require.NoError(t, err)

	_, err = Setup(context.Background(), srv.Client(t), tmpl, Options{})
	assert.ErrorIs(t, err, notion.ErrNoParent)
	assert.Empty(t, srv.Requests())
}

func mustDatabase(t *testing.T, tmpl *Template, key string) DatabaseDef {
	t.Helper()
	db, ok := tmpl.Database(key)
	require.True(t, ok, key)
	return db
}
