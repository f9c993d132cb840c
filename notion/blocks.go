// Defines the Block union and its builders.

package notion

import (
	"encoding/json"
	"time"
)

// BlockType discriminates Block.
type BlockType string

// Block types.
const (
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockParagraph        BlockType = "paragraph"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockToDo             BlockType = "to_do"
	BlockToggle           BlockType = "toggle"
	BlockCallout          BlockType = "callout"
	BlockQuote            BlockType = "quote"
	BlockCode             BlockType = "code"
	BlockTable            BlockType = "table"
	BlockTableRow         BlockType = "table_row"
	BlockColumnList       BlockType = "column_list"
	BlockColumn           BlockType = "column"
	BlockImage            BlockType = "image"
	BlockVideo            BlockType = "video"
	BlockAudio            BlockType = "audio"
	BlockFile             BlockType = "file"
	BlockPDF              BlockType = "pdf"
	BlockBookmark         BlockType = "bookmark"
	BlockEmbed            BlockType = "embed"
	BlockLinkPreview      BlockType = "link_preview"
	BlockEquation         BlockType = "equation"
	BlockDivider          BlockType = "divider"
	BlockBreadcrumb       BlockType = "breadcrumb"
	BlockTableOfContents  BlockType = "table_of_contents"
	BlockSyncedBlock      BlockType = "synced_block"
	BlockChildPage        BlockType = "child_page"
	BlockChildDatabase    BlockType = "child_database"
)

// MaxBlocksPerRequest is the API ceiling on children appended in one call.
const MaxBlocksPerRequest = 100

// Block is a Notion content block. Only the field matching Type is set.
type Block struct {
	Object         string     `json:"object,omitempty"`
	ID             string     `json:"id,omitempty"`
	Parent         *Parent    `json:"parent,omitempty"`
	Type           BlockType  `json:"type"`
	CreatedTime    *time.Time `json:"created_time,omitempty"`
	LastEditedTime *time.Time `json:"last_edited_time,omitempty"`
	HasChildren    bool       `json:"has_children,omitempty"`
	Archived       bool       `json:"archived,omitempty"`

	Heading1         *HeadingBlock    `json:"heading_1,omitempty"`
	Heading2         *HeadingBlock    `json:"heading_2,omitempty"`
	Heading3         *HeadingBlock    `json:"heading_3,omitempty"`
	Paragraph        *TextBlock       `json:"paragraph,omitempty"`
	BulletedListItem *TextBlock       `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock       `json:"numbered_list_item,omitempty"`
	ToDo             *ToDoBlock       `json:"to_do,omitempty"`
	Toggle           *TextBlock       `json:"toggle,omitempty"`
	Callout          *CalloutBlock    `json:"callout,omitempty"`
	Quote            *TextBlock       `json:"quote,omitempty"`
	Code             *CodeBlock       `json:"code,omitempty"`
	Table            *TableBlock      `json:"table,omitempty"`
	TableRow         *TableRowBlock   `json:"table_row,omitempty"`
	ColumnList       *ContainerBlock  `json:"column_list,omitempty"`
	Column           *ContainerBlock  `json:"column,omitempty"`
	Image            *FileObject      `json:"image,omitempty"`
	Video            *FileObject      `json:"video,omitempty"`
	Audio            *FileObject      `json:"audio,omitempty"`
	File             *FileObject      `json:"file,omitempty"`
	PDF              *FileObject      `json:"pdf,omitempty"`
	Bookmark         *BookmarkBlock   `json:"bookmark,omitempty"`
	Embed            *URLBlock        `json:"embed,omitempty"`
	LinkPreview      *URLBlock        `json:"link_preview,omitempty"`
	Equation         *Equation        `json:"equation,omitempty"`
	Divider          *struct{}        `json:"divider,omitempty"`
	Breadcrumb       *struct{}        `json:"breadcrumb,omitempty"`
	TableOfContents  *TableOfContents `json:"table_of_contents,omitempty"`
	SyncedBlock      *SyncedBlock     `json:"synced_block,omitempty"`
	ChildPage        *ChildTitle      `json:"child_page,omitempty"`
	ChildDatabase    *ChildTitle      `json:"child_database,omitempty"`

	// Children is filled by recursive fetches; it is never sent to the API.
	// Blocks created locally carry their children inside the variant instead.
	Children []Block `json:"-"`
}

// TextBlock is the content of paragraph, list item, toggle and quote blocks.
type TextBlock struct {
	RichText []RichText `json:"rich_text"`
	Color    Color      `json:"color,omitempty"`
	Children []Block    `json:"children,omitempty"`
}

// HeadingBlock is the content of heading blocks.
type HeadingBlock struct {
	RichText     []RichText `json:"rich_text"`
	Color        Color      `json:"color,omitempty"`
	IsToggleable bool       `json:"is_toggleable"`
	Children     []Block    `json:"children,omitempty"`
}

// ToDoBlock is the content of a to-do block.
type ToDoBlock struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
	Color    Color      `json:"color,omitempty"`
	Children []Block    `json:"children,omitempty"`
}

// CalloutBlock is the content of a callout block.
type CalloutBlock struct {
	RichText []RichText `json:"rich_text"`
	Icon     *Icon      `json:"icon,omitempty"`
	Color    Color      `json:"color,omitempty"`
	Children []Block    `json:"children,omitempty"`
}

// CodeBlock is the content of a code block.
type CodeBlock struct {
	RichText []RichText `json:"rich_text"`
	Caption  []RichText `json:"caption,omitempty"`
	Language string     `json:"language"`
}

// TableBlock is the content of a table block. Rows are table_row children.
type TableBlock struct {
	TableWidth      int     `json:"table_width"`
	HasColumnHeader bool    `json:"has_column_header"`
	HasRowHeader    bool    `json:"has_row_header"`
	Children        []Block `json:"children,omitempty"`
}

// TableRowBlock is one row of a table; each cell is a rich text array.
type TableRowBlock struct {
	Cells [][]RichText `json:"cells"`
}

// ContainerBlock is the content of column_list and column blocks.
type ContainerBlock struct {
	Children []Block `json:"children,omitempty"`
}

// BookmarkBlock is the content of a bookmark block.
type BookmarkBlock struct {
	URL     string     `json:"url"`
	Caption []RichText `json:"caption,omitempty"`
}

// URLBlock is the content of embed and link_preview blocks.
type URLBlock struct {
	URL string `json:"url"`
}

// TableOfContents is the content of a table_of_contents block.
type TableOfContents struct {
	Color Color `json:"color,omitempty"`
}

// SyncedBlock is the content of a synced block. An original synced block has
// a nil SyncedFrom and owns its children; a reference points at the original.
type SyncedBlock struct {
	SyncedFrom *SyncedFrom `json:"synced_from"`
	Children   []Block     `json:"children,omitempty"`
}

// SyncedFrom points at the original synced block.
type SyncedFrom struct {
	Type    string `json:"type"`
	BlockID string `json:"block_id"`
}

// ChildTitle is the content of child_page and child_database blocks.
type ChildTitle struct {
	Title string `json:"title"`
}

func newBlock(t BlockType) Block {
	return Block{Object: "block", Type: t}
}

// Heading returns a heading block of level 1 to 3; other levels clamp.
func Heading(level int, text string, color Color, toggleable bool) Block {
	h := &HeadingBlock{RichText: RichTextFrom(text), Color: color, IsToggleable: toggleable}
	switch {
	case level <= 1:
		b := newBlock(BlockHeading1)
		b.Heading1 = h
		return b
	case level == 2:
		b := newBlock(BlockHeading2)
		b.Heading2 = h
		return b
	default:
		b := newBlock(BlockHeading3)
		b.Heading3 = h
		return b
	}
}

// Heading1 returns a level 1 heading.
func Heading1(text string) Block { return Heading(1, text, "", false) }

// Heading2 returns a level 2 heading.
func Heading2(text string) Block { return Heading(2, text, "", false) }

// Heading3 returns a level 3 heading.
func Heading3(text string) Block { return Heading(3, text, "", false) }

// Paragraph returns a paragraph.
func Paragraph(text string) Block {
	return ParagraphRich(RichTextFrom(text)...)
}

// ParagraphRich returns a paragraph made of styled runs.
func ParagraphRich(runs ...RichText) Block {
	b := newBlock(BlockParagraph)
	b.Paragraph = &TextBlock{RichText: runs}
	return b
}

// BulletedListItem returns a bulleted list item with optional nested children.
func BulletedListItem(text string, children ...Block) Block {
	b := newBlock(BlockBulletedListItem)
	b.BulletedListItem = &TextBlock{RichText: RichTextFrom(text), Children: children}
	return b
}

// NumberedListItem returns a numbered list item with optional nested children.
func NumberedListItem(text string, children ...Block) Block {
	b := newBlock(BlockNumberedListItem)
	b.NumberedListItem = &TextBlock{RichText: RichTextFrom(text), Children: children}
	return b
}

// ToDo returns a to-do item.
func ToDo(text string, checked bool) Block {
	b := newBlock(BlockToDo)
	b.ToDo = &ToDoBlock{RichText: RichTextFrom(text), Checked: checked}
	return b
}

// Toggle returns a toggle whose body is children.
func Toggle(text string, children ...Block) Block {
	b := newBlock(BlockToggle)
	b.Toggle = &TextBlock{RichText: RichTextFrom(text), Children: children}
	return b
}

// Callout returns a callout with an emoji icon.
func Callout(text, emoji string, color Color) Block {
	b := newBlock(BlockCallout)
	b.Callout = &CalloutBlock{RichText: RichTextFrom(text), Icon: EmojiIcon(emoji), Color: color}
	return b
}

// Quote returns a quote.
func Quote(text string) Block {
	b := newBlock(BlockQuote)
	b.Quote = &TextBlock{RichText: RichTextFrom(text)}
	return b
}

// Code returns a code block; language is mapped to a Notion language name.
func Code(text, language string) Block {
	b := newBlock(BlockCode)
	b.Code = &CodeBlock{RichText: RichTextFrom(text), Language: mapLanguageToNotion(language)}
	return b
}

// Divider returns a horizontal rule.
func Divider() Block {
	b := newBlock(BlockDivider)
	b.Divider = &struct{}{}
	return b
}

// Breadcrumb returns a breadcrumb block.
func Breadcrumb() Block {
	b := newBlock(BlockBreadcrumb)
	b.Breadcrumb = &struct{}{}
	return b
}

// TableOfContentsBlock returns a table of contents.
func TableOfContentsBlock() Block {
	b := newBlock(BlockTableOfContents)
	b.TableOfContents = &TableOfContents{}
	return b
}

// EquationBlock returns a block-level LaTeX equation.
func EquationBlock(expression string) Block {
	b := newBlock(BlockEquation)
	b.Equation = &Equation{Expression: expression}
	return b
}

// Bookmark returns a bookmark of url.
func Bookmark(url string) Block {
	b := newBlock(BlockBookmark)
	b.Bookmark = &BookmarkBlock{URL: url}
	return b
}

// Embed returns an embed of url.
func Embed(url string) Block {
	b := newBlock(BlockEmbed)
	b.Embed = &URLBlock{URL: url}
	return b
}

// LinkPreview returns a link preview of url.
func LinkPreview(url string) Block {
	b := newBlock(BlockLinkPreview)
	b.LinkPreview = &URLBlock{URL: url}
	return b
}

// Media returns an image, video, audio, file or pdf block for an external URL.
func Media(t BlockType, url string) Block {
	return mediaBlock(t, ExternalFileObject(url))
}

// MediaUpload returns a media block for a completed file upload.
func MediaUpload(t BlockType, fileUploadID string) Block {
	return mediaBlock(t, &FileObject{Type: "file_upload", FileUpload: &FileUploadRef{ID: fileUploadID}})
}

func mediaBlock(t BlockType, f *FileObject) Block {
	b := newBlock(t)
	switch t {
	case BlockImage:
		b.Image = f
	case BlockVideo:
		b.Video = f
	case BlockAudio:
		b.Audio = f
	case BlockPDF:
		b.PDF = f
	default:
		b.Type = BlockFile
		b.File = f
	}
	return b
}

// Image returns an external image block.
func Image(url string) Block { return Media(BlockImage, url) }

// Video returns an external video block.
func Video(url string) Block { return Media(BlockVideo, url) }

// Audio returns an external audio block.
func Audio(url string) Block { return Media(BlockAudio, url) }

// File returns an external file block.
func File(url string) Block { return Media(BlockFile, url) }

// PDF returns an external PDF block.
func PDF(url string) Block { return Media(BlockPDF, url) }

// Table returns a table; the first row is the column header when hasHeader.
// Short rows are padded to the widest row.
func Table(rows [][]string, hasHeader bool) Block {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	children := make([]Block, 0, len(rows))
	for _, r := range rows {
		cells := make([]string, width)
		copy(cells, r)
		children = append(children, TableRow(cells))
	}
	b := newBlock(BlockTable)
	b.Table = &TableBlock{TableWidth: width, HasColumnHeader: hasHeader, Children: children}
	return b
}

// TableRow returns one table row.
func TableRow(cells []string) Block {
	rt := make([][]RichText, len(cells))
	for i, c := range cells {
		rt[i] = RichTextFrom(c)
	}
	b := newBlock(BlockTableRow)
	b.TableRow = &TableRowBlock{Cells: rt}
	return b
}

// ColumnList returns a column list; pass Column blocks.
func ColumnList(columns ...Block) Block {
	b := newBlock(BlockColumnList)
	b.ColumnList = &ContainerBlock{Children: columns}
	return b
}

// Column returns a column holding children.
func Column(children ...Block) Block {
	b := newBlock(BlockColumn)
	b.Column = &ContainerBlock{Children: children}
	return b
}

// SyncedBlockOriginal returns an original synced block owning children.
func SyncedBlockOriginal(children ...Block) Block {
	b := newBlock(BlockSyncedBlock)
	b.SyncedBlock = &SyncedBlock{Children: children}
	return b
}

// SyncedBlockRef returns a synced block mirroring the original blockID.
func SyncedBlockRef(blockID string) Block {
	b := newBlock(BlockSyncedBlock)
	b.SyncedBlock = &SyncedBlock{SyncedFrom: &SyncedFrom{Type: "block_id", BlockID: blockID}}
	return b
}

// RichText returns the rich text of text-bearing blocks, nil otherwise.
func (b *Block) RichText() []RichText {
	switch b.Type {
	case BlockHeading1:
		return headingText(b.Heading1)
	case BlockHeading2:
		return headingText(b.Heading2)
	case BlockHeading3:
		return headingText(b.Heading3)
	case BlockParagraph:
		return textBlockText(b.Paragraph)
	case BlockBulletedListItem:
		return textBlockText(b.BulletedListItem)
	case BlockNumberedListItem:
		return textBlockText(b.NumberedListItem)
	case BlockToggle:
		return textBlockText(b.Toggle)
	case BlockQuote:
		return textBlockText(b.Quote)
	case BlockToDo:
		if b.ToDo != nil {
			return b.ToDo.RichText
		}
	case BlockCallout:
		if b.Callout != nil {
			return b.Callout.RichText
		}
	case BlockCode:
		if b.Code != nil {
			return b.Code.RichText
		}
	}
	return nil
}

func headingText(h *HeadingBlock) []RichText {
	if h == nil {
		return nil
	}
	return h.RichText
}

func textBlockText(t *TextBlock) []RichText {
	if t == nil {
		return nil
	}
	return t.RichText
}

// PlainText returns the visible text of the block itself, not of its children.
func (b *Block) PlainText() string {
	switch b.Type {
	case BlockChildPage:
		if b.ChildPage != nil {
			return b.ChildPage.Title
		}
	case BlockChildDatabase:
		if b.ChildDatabase != nil {
			return b.ChildDatabase.Title
		}
	case BlockEquation:
		if b.Equation != nil {
			return b.Equation.Expression
		}
	case BlockTableRow:
		if b.TableRow != nil {
			var s string
			for i, c := range b.TableRow.Cells {
				if i > 0 {
					s += " | "
				}
				s += PlainText(c)
			}
			return s
		}
	}
	return PlainText(b.RichText())
}

// IsHeading reports whether the block is a heading of any level.
func (b *Block) IsHeading() bool {
	return b.Type == BlockHeading1 || b.Type == BlockHeading2 || b.Type == BlockHeading3
}

// ChildBlocks returns fetched children, or the nested children of a locally built block.
func (b *Block) ChildBlocks() []Block {
	if len(b.Children) > 0 {
		return b.Children
	}
	if p := b.variantChildren(); p != nil {
		return *p
	}
	return nil
}

// DetachChildren removes and returns the children nested in the block's
// variant, as the API does when it stores a block.
func (b *Block) DetachChildren() []Block {
	p := b.variantChildren()
	if p == nil {
		return nil
	}
	children := *p
	*p = nil
	return children
}

func (b *Block) variantChildren() *[]Block {
	switch {
	case b.Heading1 != nil:
		return &b.Heading1.Children
	case b.Heading2 != nil:
		return &b.Heading2.Children
	case b.Heading3 != nil:
		return &b.Heading3.Children
	case b.Paragraph != nil:
		return &b.Paragraph.Children
	case b.BulletedListItem != nil:
		return &b.BulletedListItem.Children
	case b.NumberedListItem != nil:
		return &b.NumberedListItem.Children
	case b.Toggle != nil:
		return &b.Toggle.Children
	case b.Quote != nil:
		return &b.Quote.Children
	case b.ToDo != nil:
		return &b.ToDo.Children
	case b.Callout != nil:
		return &b.Callout.Children
	case b.Table != nil:
		return &b.Table.Children
	case b.ColumnList != nil:
		return &b.ColumnList.Children
	case b.Column != nil:
		return &b.Column.Children
	case b.SyncedBlock != nil:
		return &b.SyncedBlock.Children
	}
	return nil
}

// CopyForCreate returns a copy of a fetched block that can be appended
// elsewhere: server fields are cleared, fetched children are nested and
// Notion-hosted files become external references. It returns false for
// blocks the API cannot create (child pages and databases).
func (b Block) CopyForCreate() (Block, bool) {
	if b.Type == BlockChildPage || b.Type == BlockChildDatabase {
		return Block{}, false
	}
	data, err := json.Marshal(b)
	if err != nil {
		return Block{}, false
	}
	var c Block
	if err := json.Unmarshal(data, &c); err != nil {
		return Block{}, false
	}
	c.Object = "block"
	c.ID = ""
	c.Parent = nil
	c.CreatedTime = nil
	c.LastEditedTime = nil
	c.HasChildren = false
	c.Archived = false
	for _, f := range []*FileObject{c.Image, c.Video, c.Audio, c.File, c.PDF} {
		if f != nil && f.File != nil {
			f.Type = "external"
			f.External = &ExternalFile{URL: f.File.URL}
			f.File = nil
		}
	}
	if len(b.Children) > 0 {
		if p := c.variantChildren(); p != nil {
			var nested []Block
			for _, child := range b.Children {
				if cc, ok := child.CopyForCreate(); ok {
					nested = append(nested, cc)
				}
			}
			*p = nested
		}
	}
	return c, true
}

// SplitBlocks chunks blocks into batches of at most size blocks.
func SplitBlocks(blocks []Block, size int) [][]Block {
	if size <= 0 {
		size = MaxBlocksPerRequest
	}
	var out [][]Block
	for i := 0; i < len(blocks); i += size {
		out = append(out, blocks[i:min(i+size, len(blocks))])
	}
	return out
}
