package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Handler is the signature of every tool.
type Handler func(ctx context.Context, args Args) Result

type definition struct {
	tool    mcp.Tool
	handler Handler
}

var stringItems = mcp.Items(map[string]any{"type": "string"})

func pageID(desc string) mcp.ToolOption {
	return mcp.WithString("page_id", mcp.Required(), mcp.Description(desc))
}

func databaseIDOption() mcp.ToolOption {
	return mcp.WithString("database_id", mcp.Description("Notion database ID. Defaults to the configured database named by database"))
}

func databaseNameOption() mcp.ToolOption {
	return mcp.WithString("database", mcp.Description("Name of a configured database, such as content_hub"))
}

func rootIDOption() mcp.ToolOption {
	return mcp.WithString("root_id", mcp.Description("Root page of the workspace. Defaults to the configured root or parent page"))
}

func (t *Toolset) definitions() map[string]definition {
	defs := map[string]definition{
		"get_page": {mcp.NewTool("get_page",
			mcp.WithDescription("Get a page's properties and, optionally, its content as markdown."),
			pageID("Notion page ID or URL"),
			mcp.WithBoolean("include_content", mcp.Description("Also return the page content as markdown"), mcp.DefaultBool(false)),
		), t.GetPage},
		"create_page": {mcp.NewTool("create_page",
			mcp.WithDescription("Create a page with markdown content. Uses the default parent page when parent_id is empty."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Page title")),
			mcp.WithString("content", mcp.Description("Markdown content")),
			mcp.WithString("parent_id", mcp.Description("Parent page ID")),
			mcp.WithString("icon", mcp.Description("Emoji icon")),
		), t.CreatePage},
		"update_page": {mcp.NewTool("update_page",
			mcp.WithDescription("Update a page's title, icon or properties. Property values are plain JSON values encoded by the page's property types."),
			pageID("Notion page ID or URL"),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("icon", mcp.Description("New emoji icon")),
			mcp.WithObject("properties", mcp.Description("Property name to value, e.g. {\"Status\": \"Draft\", \"Tags\": [\"a\"]}")),
		), t.UpdatePage},
		"append_content": {mcp.NewTool("append_content",
			mcp.WithDescription("Append markdown content to a page. Large content is sent in batches of 100 blocks."),
			pageID("Notion page ID or URL"),
			mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content")),
		), t.AppendContent},
		"delete_page": {mcp.NewTool("delete_page",
			mcp.WithDescription("Move a page to the trash. Requires confirm_deletion."),
			pageID("Notion page ID or URL"),
			mcp.WithBoolean("confirm_deletion", mcp.Description("Must be true to delete"), mcp.DefaultBool(false)),
		), t.DeletePage},
		"restore_page": {mcp.NewTool("restore_page",
			mcp.WithDescription("Restore a page from the trash."),
			pageID("Notion page ID or URL"),
		), t.RestorePage},
		"move_page": {mcp.NewTool("move_page",
			mcp.WithDescription("Move a page under another page."),
			pageID("Page to move"),
			mcp.WithString("new_parent_id", mcp.Required(), mcp.Description("New parent page ID")),
		), t.MovePage},
		"duplicate_page": {mcp.NewTool("duplicate_page",
			mcp.WithDescription("Copy a page and its content. Child pages are not copied."),
			pageID("Page to copy"),
			mcp.WithString("parent_id", mcp.Description("Parent of the copy. Defaults to the original's parent")),
			mcp.WithString("title", mcp.Description("Title of the copy. Defaults to \"<title> (copy)\"")),
		), t.DuplicatePage},
		"pull_page": {mcp.NewTool("pull_page",
			mcp.WithDescription("Pull a page to a local markdown file with frontmatter and comments."),
			pageID("Notion page ID or URL"),
			mcp.WithString("output_dir", mcp.Description("Directory for the markdown file. Default: /tmp/notion")),
		), t.PullPage},
		"push_page": {mcp.NewTool("push_page",
			mcp.WithDescription("Replace a page's content with a pulled markdown file. The file must have notion_id in its frontmatter."),
			mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the markdown file")),
		), t.PushPage},
		"diff_page": {mcp.NewTool("diff_page",
			mcp.WithDescription("Compare a pulled markdown file against the live page."),
			mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the markdown file")),
		), t.DiffPage},

		"query_database": {mcp.NewTool("query_database",
			mcp.WithDescription("Query the rows of a database, optionally with a Notion filter object."),
			databaseIDOption(),
			databaseNameOption(),
			mcp.WithString("data_source_id", mcp.Description("Data source to query. Defaults to the database's first")),
			mcp.WithObject("filter", mcp.Description("Notion filter, e.g. {\"property\": \"Status\", \"select\": {\"equals\": \"Idea\"}}")),
			mcp.WithNumber("limit", mcp.Description("Maximum rows to return; 0 returns all")),
		), t.QueryDatabase},
		"create_database": {mcp.NewTool("create_database",
			mcp.WithDescription("Create a database. properties maps names to a type (\"select\") or to {type, options, format, expression, data_source_id}."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Database title")),
			mcp.WithObject("properties", mcp.Description("Property definitions; exactly one must be of type title")),
			mcp.WithString("parent_id", mcp.Description("Parent page ID")),
			mcp.WithString("description", mcp.Description("Database description")),
			mcp.WithString("icon", mcp.Description("Emoji icon")),
			mcp.WithBoolean("inline", mcp.Description("Create an inline database"), mcp.DefaultBool(false)),
		), t.CreateDatabase},
		"get_database_schema": {mcp.NewTool("get_database_schema",
			mcp.WithDescription("Describe the properties of a database."),
			databaseIDOption(),
			databaseNameOption(),
			mcp.WithString("data_source_id", mcp.Description("Data source. Defaults to the database's first")),
		), t.GetDatabaseSchema},
		"update_database_schema": {mcp.NewTool("update_database_schema",
			mcp.WithDescription("Add, rename or remove database properties."),
			databaseIDOption(),
			databaseNameOption(),
			mcp.WithString("data_source_id", mcp.Description("Data source. Defaults to the database's first")),
			mcp.WithObject("add", mcp.Description("Properties to add, as in create_database")),
			mcp.WithObject("rename", mcp.Description("Old name to new name")),
			mcp.WithArray("remove", mcp.Description("Names of properties to remove"), stringItems),
		), t.UpdateDatabaseSchema},
		"analyze_database": {mcp.NewTool("analyze_database",
			mcp.WithDescription("Report row count, fill rate per property and select option distributions."),
			databaseIDOption(),
			databaseNameOption(),
		), t.AnalyzeDatabase},
		"export_database": {mcp.NewTool("export_database",
			mcp.WithDescription("Write the schema and every row of a database to <title>_export.json."),
			databaseIDOption(),
			databaseNameOption(),
			mcp.WithString("output_dir", mcp.Description("Directory for the export. Defaults to the configured export directory")),
		), t.ExportDatabase},

		"upload_file": {mcp.NewTool("upload_file",
			mcp.WithDescription("Upload a local file and attach it to a page as an image, video, audio, pdf or file block."),
			mcp.WithString("file_path", mcp.Required(), mcp.Description("Local file to upload")),
			pageID("Page to attach the file to"),
			mcp.WithString("content_type", mcp.Description("MIME type. Guessed from the extension when empty")),
		), t.UploadFile},

		"search": {mcp.NewTool("search",
			mcp.WithDescription("Search pages and databases by title."),
			mcp.WithString("query", mcp.Description("Text to search for; empty lists everything shared with the integration")),
			mcp.WithString("filter", mcp.Description("page or data_source")),
			mcp.WithNumber("limit", mcp.Description("Maximum results"), mcp.DefaultNumber(20)),
		), t.Search},
		"analyze_structure": {mcp.NewTool("analyze_structure",
			mcp.WithDescription("Walk the page tree under the root and count pages by depth and category."),
			rootIDOption(),
			mcp.WithNumber("max_depth", mcp.Description("How deep to walk"), mcp.DefaultNumber(3)),
			mcp.WithBoolean("save", mcp.Description("Write the structure to <root>_structure_<time>.json"), mcp.DefaultBool(false)),
		), t.AnalyzeStructure},
		"extract_content": {mcp.NewTool("extract_content",
			mcp.WithDescription("Extract text, headings and idea candidates from a page and its child pages."),
			pageID("Page to extract"),
			mcp.WithNumber("depth", mcp.Description("Levels of child pages to include"), mcp.DefaultNumber(1)),
			mcp.WithString("save_to_database", mcp.Description("Database ID to save ideas to, or \"true\" for the configured content hub")),
		), t.ExtractContent},
		"classify_pages": {mcp.NewTool("classify_pages",
			mcp.WithDescription("Classify the pages under the root into content categories by keyword."),
			rootIDOption(),
		), t.ClassifyPages},
		"plan_reorganization": {mcp.NewTool("plan_reorganization",
			mcp.WithDescription("Preview moving every page under the root into its category page."),
			rootIDOption(),
			mcp.WithString("strategy", mcp.Description("move or copy"), mcp.DefaultString("move")),
		), t.PlanReorganization},
		"apply_reorganization": {mcp.NewTool("apply_reorganization",
			mcp.WithDescription("Move or copy every page under the root into its category page. Previews unless confirm is true."),
			rootIDOption(),
			mcp.WithString("strategy", mcp.Description("move or copy"), mcp.DefaultString("move")),
			mcp.WithBoolean("confirm", mcp.Description("Apply the changes"), mcp.DefaultBool(false)),
		), t.ApplyReorganization},
		"analyze_cleanup": {mcp.NewTool("analyze_cleanup",
			mcp.WithDescription("Find duplicate category pages under the root."),
			rootIDOption(),
		), t.AnalyzeCleanup},
		"execute_cleanup": {mcp.NewTool("execute_cleanup",
			mcp.WithDescription("Move the children of duplicate category pages to the kept page and archive the duplicates. Previews unless confirm_deletion is true."),
			rootIDOption(),
			mcp.WithBoolean("confirm_deletion", mcp.Description("Archive the duplicates"), mcp.DefaultBool(false)),
		), t.ExecuteCleanup},
		"fix_emoji_consistency": {mcp.NewTool("fix_emoji_consistency",
			mcp.WithDescription("Rename category pages to \"<emoji> <category>\". Previews unless confirm is true."),
			rootIDOption(),
			mcp.WithBoolean("confirm", mcp.Description("Apply the renames"), mcp.DefaultBool(false)),
		), t.FixEmojiConsistency},

		"wiki_create_entry": {mcp.NewTool("wiki_create_entry",
			mcp.WithDescription("Add an entry to the wiki database."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Entry title")),
			mcp.WithString("content", mcp.Description("Markdown content")),
			mcp.WithArray("tags", mcp.Description("Tags"), stringItems),
			mcp.WithString("icon", mcp.Description("Emoji icon")),
			mcp.WithString("database_id", mcp.Description("Wiki database ID. Defaults to the configured wiki")),
		), t.WikiCreateEntry},
		"wiki_list_entries": {mcp.NewTool("wiki_list_entries",
			mcp.WithDescription("List wiki entries, optionally by tag or only verified ones."),
			mcp.WithString("tag", mcp.Description("Only entries with this tag")),
			mcp.WithBoolean("verified_only", mcp.Description("Only verified entries"), mcp.DefaultBool(false)),
			mcp.WithString("database_id", mcp.Description("Wiki database ID. Defaults to the configured wiki")),
		), t.WikiListEntries},
		"wiki_verify_entry": {mcp.NewTool("wiki_verify_entry",
			mcp.WithDescription("Mark a wiki entry as verified."),
			pageID("Wiki entry page ID"),
			mcp.WithNumber("days", mcp.Description("Days the verification lasts"), mcp.DefaultNumber(DefaultVerificationDays)),
		), t.WikiVerifyEntry},

		"generate_update": {mcp.NewTool("generate_update",
			mcp.WithDescription("Format an update as markdown, plain text, Slack, email or a LinkedIn post."),
			mcp.WithString("title", mcp.Description("Update title; defaults to the page title")),
			mcp.WithString("content", mcp.Description("Body text; defaults to the page text")),
			mcp.WithArray("highlights", mcp.Description("Highlights; default to the page headings"), stringItems),
			mcp.WithArray("hashtags", mcp.Description("Hashtags for LinkedIn posts"), stringItems),
			mcp.WithString("format", mcp.Description("markdown, plain, slack, email or linkedin"), mcp.DefaultString(FormatMarkdown)),
			mcp.WithString("page_id", mcp.Description("Page to take the content from")),
		), t.GenerateUpdate},
		"setup_content_os": {mcp.NewTool("setup_content_os",
			mcp.WithDescription("Create the LinkedIn Content OS workspace: root page, databases, sample rows and guides."),
			mcp.WithString("parent_id", mcp.Description("Parent page ID. Defaults to NOTION_PARENT_PAGE_ID")),
			mcp.WithBoolean("skip_rows", mcp.Description("Do not add sample rows"), mcp.DefaultBool(false)),
		), t.SetupContentOS},

		"web_search": {mcp.NewTool("web_search",
			mcp.WithDescription("Research a topic on the web. Not connected yet: returns example results."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		), t.WebSearch},
		"analyze_content_ai": {mcp.NewTool("analyze_content_ai",
			mcp.WithDescription("Score a draft post. Not connected yet: returns an example analysis."),
			mcp.WithString("content", mcp.Required(), mcp.Description("Draft text")),
		), t.AnalyzeContentAI},
		"generate_enhancements": {mcp.NewTool("generate_enhancements",
			mcp.WithDescription("Suggest additions to a workspace page. Not connected yet: returns example suggestions."),
			mcp.WithString("page_id", mcp.Description("Page to enhance")),
			mcp.WithString("focus", mcp.Description("Area to focus on")),
		), t.GenerateEnhancements},
	}
	export := defs["pull_page"]
	export.tool.Name = "export_page"
	export.tool.Description = "Export a page to a local markdown file. Same as pull_page."
	defs["export_page"] = export
	return defs
}

// Names returns the names of all tools in sorted order.
func (t *Toolset) Names() []string {
	defs := t.definitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs the named tool.
func (t *Toolset) Call(ctx context.Context, name string, args Args) (Result, error) {
	d, ok := t.definitions()[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	if args == nil {
		args = Args{}
	}
	return d.handler(ctx, args), nil
}

// ServerTools returns every tool ready to be added to an MCP server.
func (t *Toolset) ServerTools() []server.ServerTool {
	defs := t.definitions()
	out := make([]server.ServerTool, 0, len(defs))
	for _, name := range t.Names() {
		d := defs[name]
		out = append(out, server.ServerTool{Tool: d.tool, Handler: t.handle(name, d.handler)})
	}
	return out
}

func (t *Toolset) handle(name string, h Handler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		t.log.DebugContext(ctx, "tool call", "tool", name)
		res := h(ctx, Args(args))
		if res.Status() == StatusError {
			t.log.WarnContext(ctx, "tool failed", "tool", name, "err", res.Message())
			return mcp.NewToolResultError(res.Message()), nil
		}
		text, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode %s result: %v", name, err)), nil
		}
		return mcp.NewToolResultText(string(text)), nil
	}
}
