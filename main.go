// contentos-notion-mcp serves the LinkedIn Content OS tools over MCP.
//
// Key features:
//   - Pages and databases: create, query, update, analyze and export
//   - Sync: pull pages as markdown with frontmatter, push them back, diff
//   - Workspace: structure analysis, keyword classification, reorganization
//     and duplicate cleanup, each previewed before anything changes
//   - Content OS: one call creates the pillars, hub, voice, prompt library
//     and weekly review databases with their guides
//
// The server speaks MCP over stdio. Logs go to stderr.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/contentos-notion-mcp/config"
	"github.com/vthunder/contentos-notion-mcp/prompts"
	"github.com/vthunder/contentos-notion-mcp/tools"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stderr, cfg.Level())
	slog.SetDefault(logger)

	client, err := cfg.NewClient(logger)
	if err != nil {
		logger.Error("failed to create client", "err", err)
		os.Exit(1)
	}
	ts := tools.New(client, tools.Settings{
		RootPageID: cfg.ParentPageID,
		ExportDir:  cfg.ExportDir,
		Databases:  cfg.Databases,
	}, nil, logger)

	s := server.NewMCPServer(
		"contentos-notion-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
	)

	// Register tools
	s.AddTools(ts.ServerTools()...)
	n, err := prompts.Register(s)
	if err != nil {
		logger.Error("failed to load prompts", "err", err)
		os.Exit(1)
	}
	logger.Info("starting server", "version", version, "tools", len(ts.Names()), "prompts", n)

	// Run server
	if err := server.ServeStdio(s); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
