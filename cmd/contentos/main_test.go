package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/contentos-notion-mcp/config"
	"github.com/vthunder/contentos-notion-mcp/notion"
	"github.com/vthunder/contentos-notion-mcp/notion/notiontest"
)

func setEnv(t *testing.T, parent string) {
	t.Helper()
	t.Setenv("NOTION_API_KEY", "secret_test")
	t.Setenv("NOTION_PARENT_PAGE_ID", parent)
	for _, k := range []string{"CONTENTOS_CONFIG", "LOG_LEVEL", "DEBUG", "NOTION_DEBUG", "CONTENTOS_EXPORT_DIR", "NOTION_RATE_LIMIT", "NOTION_MAX_RETRIES"} {
		t.Setenv(k, "")
	}
}

func runCLI(t *testing.T, srv *notiontest.Server, stdin string, args ...string) (map[string]any, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp()
	a.stdout = &out
	a.stdin = strings.NewReader(stdin)
	a.clientOptions = []notion.Option{
		notion.WithBaseURL(srv.URL),
		notion.WithRateLimit(0, 0),
		notion.WithBackoff(time.Millisecond),
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	var res map[string]any
	if out.Len() > 0 {
		require.NoError(t, json.Unmarshal(out.Bytes(), &res), out.String())
	}
	return res, err
}

func TestMissingAPIKeyFailsBeforeAnyRequest(t *testing.T) {
	srv := notiontest.New(t)
	setEnv(t, "")
	t.Setenv("NOTION_API_KEY", "")

	_, err := runCLI(t, srv, "", "structure")
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
	assert.Empty(t, srv.Requests())
}

func TestSetupRequiresParent(t *testing.T) {
	srv := notiontest.New(t)
	setEnv(t, "")

	_, err := runCLI(t, srv, "", "setup")
	assert.ErrorIs(t, err, config.ErrMissingParent)
	assert.Empty(t, srv.Requests())
}

func TestInvalidLogLevel(t *testing.T) {
	srv := notiontest.New(t)
	setEnv(t, "")

	_, err := runCLI(t, srv, "", "--log-level", "loud", "structure")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestStructure(t *testing.T) {
	srv := notiontest.New(t)
	root := srv.AddPage("", "Workspace")
	srv.AddPage(root, "Posting calendar")
	child := srv.AddPage(root, "Brand notes")
	srv.AddPage(child, "Voice samples")
	setEnv(t, root)

	res, err := runCLI(t, srv, "", "structure", "--depth", "2")
	require.NoError(t, err)
	assert.Equal(t, "success", res["status"])
	assert.EqualValues(t, 3, res["total_pages"])
	assert.EqualValues(t, 2, res["max_depth"])
}

func TestCleanup(t *testing.T) {
	srv := notiontest.New(t)
	root := srv.AddPage("", "Workspace")
	srv.AddPage(root, "📅 Content Calendar")
	dup := srv.AddPage(root, "Content Calendar")
	setEnv(t, root)
	srv.ResetRequests()

	res, err := runCLI(t, srv, "", "cleanup")
	require.NoError(t, err)
	assert.Equal(t, false, res["confirmed"])
	assert.Zero(t, srv.MutationCount())

	res, err = runCLI(t, srv, "", "cleanup", "--confirm")
	require.NoError(t, err)
	assert.EqualValues(t, 1, res["deleted_count"])
	p, _ := srv.Page(dup)
	assert.True(t, p.Archived)
}

func TestAppendFromStdin(t *testing.T) {
	srv := notiontest.New(t)
	page := srv.AddPage("", "Draft")
	setEnv(t, "")

	res, err := runCLI(t, srv, "## Hook\n\nFirst line.\n", "append", page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res["blocks_added"])
	assert.Len(t, srv.Children(page), 2)
}

func TestAppendReportsToolErrors(t *testing.T) {
	srv := notiontest.New(t)
	setEnv(t, "")

	res, err := runCLI(t, srv, "text", "append", "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.Equal(t, "error", res["status"])
}

func TestExportDBByConfiguredName(t *testing.T) {
	srv := notiontest.New(t)
	parent := srv.AddPage("", "Parent")
	dbID, dsID := srv.AddDatabase(parent, "Content Hub", map[string]notion.PropertySchema{
		"Post": notion.TitleProperty(),
	})
	srv.AddRow(dsID, map[string]notion.PropertyValue{"Post": notion.TitleValue("First")})
	setEnv(t, "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "contentos.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("export_dir: "+dir+"\ndatabases:\n  content_hub: "+dbID+"\n"), 0o644))

	res, err := runCLI(t, srv, "", "--config", cfgPath, "export-db", "content_hub")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Content Hub_export.json"), res["file_path"])
	assert.FileExists(t, filepath.Join(dir, "Content Hub_export.json"))
}

func TestSetupWritesConfig(t *testing.T) {
	srv := notiontest.New(t)
	parent := srv.AddPage("", "Parent")
	setEnv(t, parent)

	out := filepath.Join(t.TempDir(), "ids.yaml")
	res, err := runCLI(t, srv, "", "setup", "--skip-rows", "--write-config", out)
	require.NoError(t, err)
	assert.Equal(t, "success", res["status"])

	cfg, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "content_hub:")
	assert.Contains(t, string(cfg), parent)
}
