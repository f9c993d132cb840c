package tools

import (
	"log/slog"

	"github.com/vthunder/contentos-notion-mcp/contentos"
	"github.com/vthunder/contentos-notion-mcp/notion"
	"github.com/vthunder/contentos-notion-mcp/workspace"
)

// Settings configures a Toolset.
type Settings struct {
	// RootPageID is used by workspace tools when no root_id is given.
	// Defaults to the client's default parent.
	RootPageID string
	// ExportDir receives structure and database exports.
	ExportDir string
	// PullDir receives pulled markdown files.
	PullDir string
	// Databases maps names such as "content_hub" or "wiki" to database IDs.
	Databases map[string]string
}

// Toolset holds the dependencies shared by every tool.
type Toolset struct {
	client     *notion.Client
	settings   Settings
	classifier *workspace.KeywordClassifier
	template   *contentos.Template
	log        *slog.Logger
}

// New returns a Toolset using c. The Content OS template is the built-in
// one unless tmpl is non-nil.
func New(c *notion.Client, s Settings, tmpl *contentos.Template, logger *slog.Logger) *Toolset {
	if s.ExportDir == "" {
		s.ExportDir = "."
	}
	if s.PullDir == "" {
		s.PullDir = notion.DefaultPullDir
	}
	if s.Databases == nil {
		s.Databases = map[string]string{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Toolset{
		client:     c,
		settings:   s,
		classifier: workspace.NewKeywordClassifier(),
		template:   tmpl,
		log:        logger,
	}
}

// rootID returns the root_id argument, the configured root or the client's
// default parent.
func (t *Toolset) rootID(args Args) (string, Result) {
	id := args.StringOr("root_id", t.settings.RootPageID)
	if id == "" {
		id = t.client.DefaultParent()
	}
	if id == "" {
		return "", failure(notion.ErrNoParent)
	}
	return id, nil
}

// databaseID returns the database_id argument or the configured database
// named def.
func (t *Toolset) databaseID(args Args, def string) (string, Result) {
	id := args.String("database_id")
	if id == "" && def != "" {
		id = t.settings.Databases[def]
	}
	if id == "" {
		if def != "" {
			return "", failuref("database_id is required (no %q database configured)", def)
		}
		return "", failuref("database_id is required")
	}
	return id, nil
}
