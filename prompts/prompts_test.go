package prompts

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	all, err := Load()
	require.NoError(t, err)

	var names []string
	for _, p := range all {
		names = append(names, p.Name)
		assert.NotEmpty(t, p.Description, p.Name)
		assert.NotEmpty(t, p.Body, p.Name)
	}
	assert.Equal(t, []string{
		"content-os-guide",
		"notion-api-notes",
		"voice-discovery",
		"weekly-review",
		"write-linkedin-post",
	}, names)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"no header", "just text", "missing header"},
		{"unterminated", "---\nname: x\nbody", "unterminated header"},
		{"no name", "---\ndescription: d\n---\nbody", "no name"},
		{"bad yaml", "---\nname: [\n---\nbody", "parse header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRender(t *testing.T) {
	p, err := Parse("---\nname: post\narguments:\n  - name: topic\n    required: true\n  - name: pillar\n    default: any\n---\nWrite about {{topic}} for {{pillar}}.\n")
	require.NoError(t, err)

	text, err := p.Render(map[string]string{"topic": "hooks"})
	require.NoError(t, err)
	assert.Equal(t, "Write about hooks for any.", text)

	text, err = p.Render(map[string]string{"topic": "hooks", "pillar": "Craft"})
	require.NoError(t, err)
	assert.Equal(t, "Write about hooks for Craft.", text)

	_, err = p.Render(nil)
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestLoadRejectsDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"d/a.md": {Data: []byte("---\nname: same\n---\none")},
		"d/b.md": {Data: []byte("---\nname: same\n---\ntwo")},
	}
	_, err := load(fsys, "d")
	assert.ErrorContains(t, err, "duplicate")
}

func TestHandle(t *testing.T) {
	all, err := Load()
	require.NoError(t, err)
	var post Prompt
	for _, p := range all {
		if p.Name == "write-linkedin-post" {
			post = p
		}
	}
	def := post.Definition()
	assert.Equal(t, "write-linkedin-post", def.Name)
	require.Len(t, def.Arguments, 2)

	var req mcp.GetPromptRequest
	req.Params.Arguments = map[string]string{"topic": "shipping weekly"}
	res, err := post.handle(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Draft a LinkedIn post about: shipping weekly")
	assert.Contains(t, text.Text, "pick the pillar that fits best")
}
