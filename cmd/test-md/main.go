// test-md converts markdown from stdin to Notion blocks and back, to check
// the converter by eye.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

func main() {
	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
		os.Exit(1)
	}
	blocks := notion.MarkdownToBlocks(string(input))

	out, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode blocks: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	batches := notion.SplitBlocks(blocks, notion.MaxBlocksPerRequest)
	fmt.Fprintf(os.Stderr, "%d blocks, %d append requests\n", len(blocks), len(batches))

	fmt.Println("\n--- Round-trip markdown ---")
	fmt.Println(notion.BlocksToMarkdown(blocks))
}
