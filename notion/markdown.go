package notion

import (
	"fmt"
	"strings"
)

// MarkdownToBlocks converts markdown text to Notion blocks.
func MarkdownToBlocks(markdown string) []Block {
	var blocks []Block
	lines := splitLines(markdown)

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t\r")

		if line == "" {
			continue
		}

		// Child page markers are placeholders; child pages are restored separately.
		if strings.HasPrefix(line, "<!-- child_page:") && strings.HasSuffix(line, "-->") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "# "):
			blocks = append(blocks, headingRich(1, parseInlineMarkdown(line[2:])))
			continue
		case strings.HasPrefix(line, "## "):
			blocks = append(blocks, headingRich(2, parseInlineMarkdown(line[3:])))
			continue
		case strings.HasPrefix(line, "### "):
			blocks = append(blocks, headingRich(3, parseInlineMarkdown(line[4:])))
			continue
		case line == "---" || line == "***":
			blocks = append(blocks, Divider())
			continue
		case line == "[TOC]":
			blocks = append(blocks, TableOfContentsBlock())
			continue
		}

		// Fenced code block.
		if strings.HasPrefix(line, "```") {
			lang := strings.TrimSpace(line[3:])
			var codeLines []string
			for i+1 < len(lines) {
				i++
				if strings.HasPrefix(lines[i], "```") {
					break
				}
				codeLines = append(codeLines, lines[i])
			}
			blocks = append(blocks, Code(strings.Join(codeLines, "\n"), lang))
			continue
		}

		// Block equation on one line: $$expr$$
		if len(line) > 4 && strings.HasPrefix(line, "$$") && strings.HasSuffix(line, "$$") {
			blocks = append(blocks, EquationBlock(strings.TrimSpace(line[2:len(line)-2])))
			continue
		}

		// Image: ![caption](url)
		if strings.HasPrefix(line, "![") && strings.HasSuffix(line, ")") {
			if end := strings.Index(line, "]("); end > 0 {
				img := Image(line[end+2 : len(line)-1])
				if caption := line[2:end]; caption != "" && img.Image != nil {
					img.Image.Caption = RichTextFrom(caption)
				}
				blocks = append(blocks, img)
				continue
			}
		}

		// Checkbox
		if len(line) >= 5 && (line[0:5] == "- [ ]" || line[0:5] == "- [x]" || line[0:5] == "- [X]") {
			text := ""
			if len(line) > 6 {
				text = line[6:]
			}
			b := ToDo("", line[3] != ' ')
			b.ToDo.RichText = parseInlineMarkdown(text)
			blocks = append(blocks, b)
			continue
		}

		// Bullet list
		if len(line) > 2 && (line[0:2] == "- " || line[0:2] == "* ") {
			b := BulletedListItem("")
			b.BulletedListItem.RichText = parseInlineMarkdown(line[2:])
			blocks = append(blocks, b)
			continue
		}

		// Numbered list
		if n := numberedPrefix(line); n > 0 {
			b := NumberedListItem("")
			b.NumberedListItem.RichText = parseInlineMarkdown(line[n:])
			blocks = append(blocks, b)
			continue
		}

		// Callout: "> <emoji> text" where the first token is not ASCII.
		if strings.HasPrefix(line, "> ") {
			text := line[2:]
			if emoji, rest, ok := leadingEmoji(text); ok {
				b := Callout("", emoji, "")
				b.Callout.RichText = parseInlineMarkdown(rest)
				blocks = append(blocks, b)
				continue
			}
			b := Quote("")
			b.Quote.RichText = parseInlineMarkdown(text)
			blocks = append(blocks, b)
			continue
		}

		// Table
		if line[0] == '|' {
			tableRows := []string{line}
			for i+1 < len(lines) && len(lines[i+1]) > 0 && lines[i+1][0] == '|' {
				i++
				tableRows = append(tableRows, lines[i])
			}
			if table, ok := parseMarkdownTable(tableRows); ok {
				blocks = append(blocks, table)
			}
			continue
		}

		blocks = append(blocks, ParagraphRich(parseInlineMarkdown(line)...))
	}

	return blocks
}

func headingRich(level int, runs []RichText) Block {
	b := Heading(level, "", "", false)
	switch level {
	case 1:
		b.Heading1.RichText = runs
	case 2:
		b.Heading2.RichText = runs
	default:
		b.Heading3.RichText = runs
	}
	return b
}

// numberedPrefix returns the length of a "12. " prefix, or 0.
func numberedPrefix(line string) int {
	j := 0
	for j < len(line) && j < 4 && line[j] >= '0' && line[j] <= '9' {
		j++
	}
	if j == 0 || j+1 >= len(line) || line[j] != '.' || line[j+1] != ' ' {
		return 0
	}
	return j + 2
}

// leadingEmoji splits "💡 text" into its emoji and the rest.
func leadingEmoji(text string) (emoji, rest string, ok bool) {
	first, after, found := strings.Cut(text, " ")
	if !found || first == "" {
		return "", "", false
	}
	for _, r := range first {
		if r < 0x2000 {
			return "", "", false
		}
	}
	return first, after, true
}

// BlocksToMarkdown converts blocks to markdown.
func BlocksToMarkdown(blocks []Block) string {
	return BlocksToMarkdownWithChildPages(blocks, nil)
}

// BlocksToMarkdownWithChildPages converts blocks to markdown.
// Child pages that are not trailing become mentions [@Title](notion://ID).
// Trailing child pages (those after the last real content) are skipped
// since they are restored at the bottom of the page on push.
func BlocksToMarkdownWithChildPages(blocks []Block, trailingChildPages map[string]bool) string {
	var w strings.Builder
	writeBlocks(&w, blocks, trailingChildPages, "")
	return w.String()
}

func writeBlocks(w *strings.Builder, blocks []Block, trailing map[string]bool, indent string) {
	listNum := 1
	var lastType BlockType

	for i := range blocks {
		b := &blocks[i]
		if b.Type == "" {
			continue
		}
		if b.Type != BlockNumberedListItem && lastType == BlockNumberedListItem {
			listNum = 1
		}
		lastType = b.Type

		text := richTextToMarkdown(b.RichText())
		nested := true

		switch b.Type {
		case BlockHeading1:
			w.WriteString(indent + "# " + text + "\n\n")
		case BlockHeading2:
			w.WriteString(indent + "## " + text + "\n\n")
		case BlockHeading3:
			w.WriteString(indent + "### " + text + "\n\n")
		case BlockParagraph:
			w.WriteString(indent + text + "\n\n")
		case BlockBulletedListItem, BlockToggle:
			w.WriteString(indent + "- " + text + "\n")
		case BlockNumberedListItem:
			fmt.Fprintf(w, "%s%d. %s\n", indent, listNum, text)
			listNum++
		case BlockToDo:
			check := " "
			if b.ToDo != nil && b.ToDo.Checked {
				check = "x"
			}
			fmt.Fprintf(w, "%s- [%s] %s\n", indent, check, text)
		case BlockQuote:
			w.WriteString(indent + "> " + text + "\n\n")
		case BlockCallout:
			prefix := ""
			if b.Callout != nil && b.Callout.Icon != nil && b.Callout.Icon.Emoji != "" {
				prefix = b.Callout.Icon.Emoji + " "
			}
			w.WriteString(indent + "> " + prefix + text + "\n\n")
		case BlockCode:
			lang := ""
			if b.Code != nil {
				lang = b.Code.Language
			}
			w.WriteString(indent + "```" + lang + "\n" + PlainText(b.RichText()) + "\n```\n\n")
		case BlockEquation:
			w.WriteString(indent + "$$" + b.PlainText() + "$$\n\n")
		case BlockDivider:
			w.WriteString(indent + "---\n\n")
		case BlockTableOfContents:
			w.WriteString(indent + "[TOC]\n\n")
		case BlockImage, BlockVideo, BlockAudio, BlockFile, BlockPDF:
			f := mediaFile(b)
			caption := ""
			if f != nil {
				caption = PlainText(f.Caption)
			}
			if b.Type == BlockImage {
				w.WriteString(indent + "![" + caption + "](" + f.URL() + ")\n\n")
			} else {
				if caption == "" {
					caption = string(b.Type)
				}
				w.WriteString(indent + "[" + caption + "](" + f.URL() + ")\n\n")
			}
		case BlockBookmark, BlockEmbed, BlockLinkPreview:
			u := linkURL(b)
			w.WriteString(indent + "[" + u + "](" + u + ")\n\n")
		case BlockChildPage:
			nested = false
			if trailing[b.ID] {
				continue
			}
			title := b.PlainText()
			if title == "" {
				title = "Untitled"
			}
			fmt.Fprintf(w, "%s[@%s](notion://%s)\n\n", indent, title, b.ID)
		case BlockChildDatabase:
			nested = false
			fmt.Fprintf(w, "%s<!-- child_database: %s %s -->\n\n", indent, b.ID, b.PlainText())
		case BlockTable:
			nested = false
			w.WriteString(tableMarkdown(b) + "\n")
		default:
			if text != "" {
				w.WriteString(indent + text + "\n\n")
			}
		}

		if nested {
			if children := b.ChildBlocks(); len(children) > 0 {
				writeBlocks(w, children, nil, indent+"  ")
			}
		}
	}
}

func mediaFile(b *Block) *FileObject {
	switch b.Type {
	case BlockImage:
		return b.Image
	case BlockVideo:
		return b.Video
	case BlockAudio:
		return b.Audio
	case BlockFile:
		return b.File
	case BlockPDF:
		return b.PDF
	}
	return nil
}

func linkURL(b *Block) string {
	switch {
	case b.Bookmark != nil:
		return b.Bookmark.URL
	case b.Embed != nil:
		return b.Embed.URL
	case b.LinkPreview != nil:
		return b.LinkPreview.URL
	}
	return ""
}

// richTextToMarkdown converts rich text to markdown, preserving formatting,
// links and page mentions.
func richTextToMarkdown(runs []RichText) string {
	var text strings.Builder
	for _, rt := range runs {
		if rt.Type == "mention" && rt.Mention != nil && rt.Mention.Type == "page" && rt.Mention.Page != nil {
			title := rt.PlainText
			if title == "" {
				title = "Page"
			}
			fmt.Fprintf(&text, "[@%s](notion://%s)", title, rt.Mention.Page.ID)
			continue
		}

		content := rt.Content()
		if rt.Type == "equation" && rt.Equation != nil {
			content = "$" + rt.Equation.Expression + "$"
		}
		if a := rt.Annotations; a != nil && content != "" {
			if a.Code {
				content = "`" + content + "`"
			}
			if a.Bold {
				content = "**" + content + "**"
			}
			if a.Italic {
				content = "*" + content + "*"
			}
			if a.Strikethrough {
				content = "~~" + content + "~~"
			}
			// Underline has no markdown equivalent.
		}
		if rt.Text != nil && rt.Text.Link != nil && rt.Text.Link.URL != "" {
			content = "[" + content + "](" + rt.Text.Link.URL + ")"
		}
		text.WriteString(content)
	}
	return text.String()
}

func tableMarkdown(b *Block) string {
	var rows [][]string
	for _, child := range b.ChildBlocks() {
		if child.TableRow == nil {
			continue
		}
		cells := make([]string, 0, len(child.TableRow.Cells))
		for _, cell := range child.TableRow.Cells {
			cells = append(cells, richTextToMarkdown(cell))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return ""
	}

	var result strings.Builder
	for i, row := range rows {
		result.WriteString("| " + strings.Join(row, " | ") + " |\n")
		if i == 0 {
			sep := make([]string, len(row))
			for j := range sep {
				sep[j] = "---"
			}
			result.WriteString("| " + strings.Join(sep, " | ") + " |\n")
		}
	}
	return result.String()
}

// parseInlineMarkdown converts inline markdown (bold, italic, code, links,
// page mentions) to rich text.
func parseInlineMarkdown(text string) []RichText {
	var result []RichText
	i := 0

	for i < len(text) {
		// Bold: **text**
		if strings.HasPrefix(text[i:], "**") {
			if end := strings.Index(text[i+2:], "**"); end > 0 {
				result = append(result, NewStyledText(text[i+2:i+2+end], Annotations{Bold: true}))
				i += end + 4
				continue
			}
		}

		// Strikethrough: ~~text~~
		if strings.HasPrefix(text[i:], "~~") {
			if end := strings.Index(text[i+2:], "~~"); end > 0 {
				result = append(result, NewStyledText(text[i+2:i+2+end], Annotations{Strikethrough: true}))
				i += end + 4
				continue
			}
		}

		// Italic: *text*
		if text[i] == '*' {
			if end := strings.IndexByte(text[i+1:], '*'); end > 0 {
				result = append(result, NewStyledText(text[i+1:i+1+end], Annotations{Italic: true}))
				i += end + 2
				continue
			}
		}

		// Inline code: `text`
		if text[i] == '`' {
			if end := strings.IndexByte(text[i+1:], '`'); end > 0 {
				result = append(result, NewStyledText(text[i+1:i+1+end], Annotations{Code: true}))
				i += end + 2
				continue
			}
		}

		// Link [text](url) or page mention [@Title](notion://page-id)
		if text[i] == '[' {
			if rt, n, ok := parseLink(text[i:]); ok {
				result = append(result, rt)
				i += n
				continue
			}
		}

		// Plain text up to the next special character.
		start := i
		for i < len(text) && !strings.ContainsRune("*`[~", rune(text[i])) {
			i++
		}
		if i == start {
			// Special character without a closing marker.
			i++
		}
		result = appendPlain(result, text[start:i])
	}

	if len(result) == 0 {
		return []RichText{NewText(text)}
	}
	return result
}

// appendPlain merges consecutive unstyled runs.
func appendPlain(runs []RichText, s string) []RichText {
	if n := len(runs); n > 0 {
		last := &runs[n-1]
		if last.Type == "text" && last.Annotations == nil && last.Text.Link == nil {
			last.Text.Content += s
			return runs
		}
	}
	return append(runs, NewText(s))
}

func parseLink(s string) (RichText, int, bool) {
	closeBracket := strings.IndexByte(s, ']')
	if closeBracket < 1 || closeBracket+1 >= len(s) || s[closeBracket+1] != '(' {
		return RichText{}, 0, false
	}
	closeParen := strings.IndexByte(s[closeBracket+2:], ')')
	if closeParen < 0 {
		return RichText{}, 0, false
	}
	label := s[1:closeBracket]
	target := s[closeBracket+2 : closeBracket+2+closeParen]
	n := closeBracket + 3 + closeParen

	if strings.HasPrefix(target, "notion://") && strings.HasPrefix(label, "@") {
		rt := PageMention(strings.TrimPrefix(target, "notion://"))
		rt.PlainText = strings.TrimPrefix(label, "@")
		return rt, n, true
	}
	return NewLink(label, target), n, true
}

func parseMarkdownTable(rows []string) (Block, bool) {
	parseCells := func(row string) []string {
		row = strings.TrimSpace(row)
		row = strings.TrimPrefix(row, "|")
		row = strings.TrimSuffix(row, "|")
		parts := strings.Split(row, "|")
		cells := make([]string, 0, len(parts))
		for _, p := range parts {
			cells = append(cells, strings.TrimSpace(p))
		}
		return cells
	}

	isSeparator := func(row string) bool {
		row = strings.TrimSpace(row)
		for _, c := range row {
			if c != '|' && c != '-' && c != ':' && c != ' ' {
				return false
			}
		}
		return strings.Contains(row, "-")
	}

	var dataRows [][]string
	hasHeader := false
	for i, row := range rows {
		if isSeparator(row) {
			hasHeader = hasHeader || i == 1
			continue
		}
		dataRows = append(dataRows, parseCells(row))
	}
	if len(dataRows) == 0 {
		return Block{}, false
	}

	table := Table(dataRows, hasHeader)
	width := table.Table.TableWidth
	for i, cells := range dataRows {
		row := table.Table.Children[i].TableRow
		for j := 0; j < width && j < len(cells); j++ {
			row.Cells[j] = parseInlineMarkdown(cells[j])
		}
	}
	return table, true
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// mapLanguageToNotion maps markdown language hints to Notion's language values.
func mapLanguageToNotion(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "plain text"
	}
	if mapped, ok := languageAliases[lang]; ok {
		return mapped
	}
	if knownLanguages[lang] {
		return lang
	}
	return "plain text"
}

var languageAliases = map[string]string{
	"plaintext":  "plain text",
	"plain":      "plain text",
	"text":       "plain text",
	"txt":        "plain text",
	"js":         "javascript",
	"ts":         "typescript",
	"py":         "python",
	"rb":         "ruby",
	"sh":         "shell",
	"bash":       "shell",
	"zsh":        "shell",
	"yml":        "yaml",
	"golang":     "go",
	"dockerfile": "docker",
	"md":         "markdown",
}

var knownLanguages = map[string]bool{
	"abap": true, "arduino": true, "assembly": true, "bash": true,
	"c": true, "c#": true, "c++": true, "clojure": true, "coffeescript": true,
	"css": true, "dart": true, "diff": true, "docker": true, "elixir": true,
	"elm": true, "erlang": true, "flow": true, "fortran": true, "f#": true,
	"gherkin": true, "glsl": true, "go": true, "graphql": true, "groovy": true,
	"haskell": true, "html": true, "java": true, "javascript": true, "json": true,
	"julia": true, "kotlin": true, "latex": true, "less": true, "lisp": true,
	"livescript": true, "lua": true, "makefile": true, "markdown": true,
	"markup": true, "matlab": true, "mermaid": true, "nix": true,
	"objective-c": true, "ocaml": true, "pascal": true, "perl": true,
	"php": true, "plain text": true, "powershell": true, "prolog": true,
	"protobuf": true, "python": true, "r": true, "reason": true, "ruby": true,
	"rust": true, "sass": true, "scala": true, "scheme": true, "scss": true,
	"shell": true, "sql": true, "swift": true, "typescript": true,
	"vb.net": true, "verilog": true, "vhdl": true, "visual basic": true,
	"webassembly": true, "xml": true, "yaml": true, "java/c/c++/c#": true,
}
