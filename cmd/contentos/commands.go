package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vthunder/contentos-notion-mcp/contentos"
	"github.com/vthunder/contentos-notion-mcp/tools"
)

func newSetupCmd(a *app) *cobra.Command {
	var (
		parent       string
		templatePath string
		skipRows     bool
		writeConfig  string
	)
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the Content OS workspace under the parent page",
		Long: `Create the Content OS root page, its databases with their relations,
sample rows and onboarding pages under --parent or NOTION_PARENT_PAGE_ID.

With --write-config the IDs of the created databases are written to a YAML
file that can be passed back with --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if parent == "" {
				if err := a.cfg.RequireParent(); err != nil {
					return err
				}
			}
			var tmpl *contentos.Template
			if templatePath != "" {
				data, err := os.ReadFile(templatePath)
				if err != nil {
					return err
				}
				if tmpl, err = contentos.ParseTemplate(data); err != nil {
					return err
				}
			}
			res, err := a.run(cmd, a.toolset(tmpl), "setup_content_os", tools.Args{"parent_id": parent, "skip_rows": skipRows})
			if err != nil || writeConfig == "" {
				return err
			}
			ids, _ := res["database_ids"].(map[string]string)
			return writeDatabaseConfig(writeConfig, a.cfg.ParentPageID, ids)
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent page ID (default NOTION_PARENT_PAGE_ID)")
	cmd.Flags().StringVar(&templatePath, "template", "", "YAML template to use instead of the built-in one")
	cmd.Flags().BoolVar(&skipRows, "skip-rows", false, "Do not add sample rows")
	cmd.Flags().StringVar(&writeConfig, "write-config", "", "Write the created database IDs to this YAML file")
	return cmd
}

func writeDatabaseConfig(path, parent string, ids map[string]string) error {
	data, err := yaml.Marshal(struct {
		ParentPageID string            `yaml:"parent_page_id,omitempty"`
		Databases    map[string]string `yaml:"databases"`
	}{parent, ids})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newStructureCmd(a *app) *cobra.Command {
	var (
		root  string
		depth int
		save  bool
	)
	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Analyze the page tree under the root page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.run(cmd, a.toolset(nil), "analyze_structure", tools.Args{"root_id": root, "max_depth": depth, "save": save})
			return err
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Root page ID (default NOTION_PARENT_PAGE_ID)")
	cmd.Flags().IntVar(&depth, "depth", 3, "How deep to walk")
	cmd.Flags().BoolVar(&save, "save", false, "Write <root>_structure_<time>.json to the export directory")
	return cmd
}

func newCleanupCmd(a *app) *cobra.Command {
	var (
		root    string
		confirm bool
	)
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Archive duplicate category pages",
		Long: `Find category pages under the root that share a title, move the children
of the duplicates to the first one and archive the duplicates.

Without --confirm only the plan is printed and nothing changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.run(cmd, a.toolset(nil), "execute_cleanup", tools.Args{"root_id": root, "confirm_deletion": confirm})
			return err
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Root page ID (default NOTION_PARENT_PAGE_ID)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Apply the cleanup")
	return cmd
}

func newReorganizeCmd(a *app) *cobra.Command {
	var (
		root     string
		strategy string
		confirm  bool
	)
	cmd := &cobra.Command{
		Use:   "reorganize",
		Short: "Move pages under the root into category pages",
		Long: `Classify the pages under the root by keyword and move (or copy, with
--strategy copy) each into its category page, creating missing category
pages first.

Without --confirm only the plan is printed and nothing changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.run(cmd, a.toolset(nil), "apply_reorganization", tools.Args{"root_id": root, "strategy": strategy, "confirm": confirm})
			return err
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Root page ID (default NOTION_PARENT_PAGE_ID)")
	cmd.Flags().StringVar(&strategy, "strategy", "move", "move or copy")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Apply the reorganization")
	return cmd
}

func newFixEmojiCmd(a *app) *cobra.Command {
	var (
		root    string
		confirm bool
	)
	cmd := &cobra.Command{
		Use:   "fix-emoji",
		Short: `Rename category pages to "<emoji> <category>"`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.run(cmd, a.toolset(nil), "fix_emoji_consistency", tools.Args{"root_id": root, "confirm": confirm})
			return err
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Root page ID (default NOTION_PARENT_PAGE_ID)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Apply the renames")
	return cmd
}

func newExportDBCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-db <name-or-id>",
		Short: "Export a database to <title>_export.json",
		Long: `Export the schema and rows of a database. The argument is either a
database name from the config file, such as content_hub, or a database ID.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targs := tools.Args{"output_dir": out}
			if _, ok := a.cfg.Databases[args[0]]; ok {
				targs["database"] = args[0]
			} else {
				targs["database_id"] = args[0]
			}
			_, err := a.run(cmd, a.toolset(nil), "export_database", targs)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory (default export_dir)")
	return cmd
}

func newAppendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append <page-id> [file]",
		Short: "Append markdown to a page",
		Long:  `Append markdown from a file, or from stdin when the file is "-" or omitted.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = a.stdin
			if len(args) == 2 && args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			content, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read markdown: %w", err)
			}
			_, err = a.run(cmd, a.toolset(nil), "append_content", tools.Args{"page_id": args[0], "content": string(content)})
			return err
		},
	}
	return cmd
}
