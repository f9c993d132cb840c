package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vthunder/contentos-notion-mcp/config"
	"github.com/vthunder/contentos-notion-mcp/contentos"
	"github.com/vthunder/contentos-notion-mcp/notion"
	"github.com/vthunder/contentos-notion-mcp/tools"
)

// app holds what every command shares once configuration is loaded.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	log    *slog.Logger
	client *notion.Client

	stdout io.Writer
	stdin  io.Reader

	// clientOptions are appended when the client is created.
	clientOptions []notion.Option
}

func newApp() *app {
	return &app{stdout: os.Stdout, stdin: os.Stdin}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "contentos",
		Short:        "Manage a LinkedIn Content OS workspace in Notion",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default $CONTENTOS_CONFIG)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL or info)")

	cmd.AddCommand(newSetupCmd(a))
	cmd.AddCommand(newStructureCmd(a))
	cmd.AddCommand(newCleanupCmd(a))
	cmd.AddCommand(newReorganizeCmd(a))
	cmd.AddCommand(newFixEmojiCmd(a))
	cmd.AddCommand(newExportDBCmd(a))
	cmd.AddCommand(newAppendCmd(a))
	return cmd
}

// load reads the configuration and creates the client. It runs before any
// command and fails before any API call.
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := config.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.LogLevel = a.logLevel
		cfg.Debug = false
	}
	a.cfg = cfg
	a.log = config.NewLogger(os.Stderr, cfg.Level())
	slog.SetDefault(a.log)

	client, err := cfg.NewClient(a.log, a.clientOptions...)
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

func (a *app) toolset(tmpl *contentos.Template) *tools.Toolset {
	return tools.New(a.client, tools.Settings{
		RootPageID: a.cfg.ParentPageID,
		ExportDir:  a.cfg.ExportDir,
		Databases:  a.cfg.Databases,
	}, tmpl, a.log)
}

// run calls a tool, prints its result and turns an error status into an
// error.
func (a *app) run(cmd *cobra.Command, ts *tools.Toolset, name string, args tools.Args) (tools.Result, error) {
	res, err := ts.Call(cmd.Context(), name, args)
	if err != nil {
		return nil, err
	}
	if err := a.print(res); err != nil {
		return res, err
	}
	if res.Status() == tools.StatusError {
		return res, errors.New(res.Message())
	}
	return res, nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
