package notion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockBuilders(t *testing.T) {
	tests := []struct {
		block Block
		typ   BlockType
		text  string
	}{
		{Heading1("Pillars"), BlockHeading1, "Pillars"},
		{Heading(2, "Hooks", ColorBlue, true), BlockHeading2, "Hooks"},
		{Heading(7, "Deep", "", false), BlockHeading3, "Deep"},
		{Paragraph("Write daily."), BlockParagraph, "Write daily."},
		{BulletedListItem("one"), BlockBulletedListItem, "one"},
		{NumberedListItem("first"), BlockNumberedListItem, "first"},
		{ToDo("publish", true), BlockToDo, "publish"},
		{Toggle("more"), BlockToggle, "more"},
		{Callout("Tip", "💡", ColorGrayBackground), BlockCallout, "Tip"},
		{Quote("Ship it"), BlockQuote, "Ship it"},
		{Code("fmt.Println()", "golang"), BlockCode, "fmt.Println()"},
		{Divider(), BlockDivider, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, "block", tt.block.Object)
			assert.Equal(t, tt.typ, tt.block.Type)
			assert.Equal(t, tt.text, tt.block.PlainText())
			if tt.text != "" {
				runs := tt.block.RichText()
				require.NotEmpty(t, runs)
				assert.Equal(t, tt.text, runs[0].Text.Content)
			}
		})
	}

	assert.Equal(t, "go", Code("", "golang").Code.Language)
	assert.Equal(t, "plain text", Code("", "brainfuck").Code.Language)
	assert.True(t, Heading(2, "x", "", true).Heading2.IsToggleable)
	assert.True(t, ToDo("x", true).ToDo.Checked)
	assert.Equal(t, "💡", Callout("x", "💡", "").Callout.Icon.Emoji)
}

func TestMarkdownToBlocks(t *testing.T) {
	blocks := MarkdownToBlocks(`# Weekly review

Wins this week: **three posts**.

- Hook A
* Hook B
1. Draft
2. Publish
- [x] Schedule
- [ ] Reply to comments

> 💡 Post before 9am
> Quoted line

` + "```py\nprint('hi')\n```" + `

---
`)
	types := make([]BlockType, len(blocks))
	for i := range blocks {
		types[i] = blocks[i].Type
	}
	assert.Equal(t, []BlockType{
		BlockHeading1, BlockParagraph,
		BlockBulletedListItem, BlockBulletedListItem,
		BlockNumberedListItem, BlockNumberedListItem,
		BlockToDo, BlockToDo,
		BlockCallout, BlockQuote,
		BlockCode, BlockDivider,
	}, types)

	assert.Equal(t, "Wins this week: three posts.", blocks[1].PlainText())
	runs := blocks[1].RichText()
	require.Len(t, runs, 3)
	require.NotNil(t, runs[1].Annotations)
	assert.True(t, runs[1].Annotations.Bold)

	assert.True(t, blocks[6].ToDo.Checked)
	assert.False(t, blocks[7].ToDo.Checked)
	assert.Equal(t, "💡", blocks[8].Callout.Icon.Emoji)
	assert.Equal(t, "Post before 9am", blocks[8].PlainText())
	assert.Equal(t, "python", blocks[10].Code.Language)
	assert.Equal(t, "print('hi')", blocks[10].PlainText())
}

func TestMarkdownRoundTrip(t *testing.T) {
	src := MarkdownToBlocks("# Title\n\nHello *there* and `code`.\n\n- one\n- two\n\n1. first\n2. second\n\n> quoted\n\n```go\nx := 1\n```\n\n---\n")
	again := MarkdownToBlocks(BlocksToMarkdown(src))
	require.Len(t, again, len(src))
	for i := range src {
		assert.Equal(t, src[i].Type, again[i].Type, "block %d", i)
		assert.Equal(t, src[i].PlainText(), again[i].PlainText(), "block %d", i)
	}
}

func TestBlocksToMarkdownNumbersLists(t *testing.T) {
	md := BlocksToMarkdown([]Block{
		NumberedListItem("a"),
		NumberedListItem("b"),
		Paragraph("break"),
		NumberedListItem("c"),
	})
	assert.Equal(t, "1. a\n2. b\nbreak\n\n1. c\n", md)
}

func TestSplitBlocks(t *testing.T) {
	blocks := make([]Block, 205)
	batches := SplitBlocks(blocks, MaxBlocksPerRequest)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[2], 5)
	assert.Empty(t, SplitBlocks(nil, MaxBlocksPerRequest))
}
