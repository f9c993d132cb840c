package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultMaxDepth bounds recursive child fetching.
const DefaultMaxDepth = 10

// GetBlockChildren returns one page of the children of a block or page.
func (c *Client) GetBlockChildren(ctx context.Context, blockID, cursor string) (*BlocksResponse, error) {
	q := url.Values{"page_size": {"100"}}
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	var resp BlocksResponse
	if err := c.do(ctx, http.MethodGet, "/blocks/"+NormalizeID(blockID)+"/children?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBlockChildrenAll returns all direct children of a block, following pagination.
func (c *Client) GetBlockChildrenAll(ctx context.Context, blockID string) ([]Block, error) {
	var blocks []Block
	cursor := ""
	for {
		resp, err := c.GetBlockChildren(ctx, blockID, cursor)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, resp.Results...)
		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor
	}
	return blocks, nil
}

// GetBlockChildrenRecursive returns all children of a block with nested
// children loaded into Block.Children, down to maxDepth levels. Child pages
// and child databases are not descended into.
func (c *Client) GetBlockChildrenRecursive(ctx context.Context, blockID string, maxDepth int) ([]Block, error) {
	blocks, err := c.GetBlockChildrenAll(ctx, blockID)
	if err != nil {
		return nil, err
	}
	if maxDepth <= 1 {
		return blocks, nil
	}
	for i := range blocks {
		b := &blocks[i]
		if !b.HasChildren || b.Type == BlockChildPage || b.Type == BlockChildDatabase {
			continue
		}
		children, err := c.GetBlockChildrenRecursive(ctx, b.ID, maxDepth-1)
		if err != nil {
			return nil, fmt.Errorf("children of block %s: %w", b.ID, err)
		}
		b.Children = children
	}
	return blocks, nil
}

type appendBody struct {
	Children []Block `json:"children"`
}

// AppendBlocks appends at most MaxBlocksPerRequest blocks to a block or page
// and returns the created blocks.
func (c *Client) AppendBlocks(ctx context.Context, blockID string, children []Block) ([]Block, error) {
	if len(children) > MaxBlocksPerRequest {
		return nil, fmt.Errorf("%d blocks, limit %d: %w", len(children), MaxBlocksPerRequest, ErrTooManyBlocks)
	}
	if len(children) == 0 {
		return nil, nil
	}
	var resp BlocksResponse
	if err := c.do(ctx, http.MethodPatch, "/blocks/"+NormalizeID(blockID)+"/children", appendBody{Children: children}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// AppendBlocksBatched appends any number of blocks in batches of MaxBlocksPerRequest.
// Batches already sent are not rolled back on failure.
func (c *Client) AppendBlocksBatched(ctx context.Context, blockID string, children []Block) error {
	batches := SplitBlocks(children, MaxBlocksPerRequest)
	for i, batch := range batches {
		c.log.DebugContext(ctx, "appending blocks", "block", blockID, "batch", i+1, "batches", len(batches), "blocks", len(batch))
		if _, err := c.AppendBlocks(ctx, blockID, batch); err != nil {
			return fmt.Errorf("append batch %d/%d: %w", i+1, len(batches), err)
		}
	}
	return nil
}

// GetBlock retrieves a single block.
func (c *Client) GetBlock(ctx context.Context, blockID string) (*Block, error) {
	var b Block
	if err := c.do(ctx, http.MethodGet, "/blocks/"+NormalizeID(blockID), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBlock replaces the content of a block. Only the variant matching
// b.Type is sent.
func (c *Client) UpdateBlock(ctx context.Context, blockID string, b Block) (*Block, error) {
	body, ok := b.CopyForCreate()
	if !ok {
		return nil, fmt.Errorf("block type %s cannot be updated", b.Type)
	}
	body.Object = ""
	body.DetachChildren()
	var out Block
	if err := c.do(ctx, http.MethodPatch, "/blocks/"+NormalizeID(blockID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBlock archives a block.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	return c.do(ctx, http.MethodDelete, "/blocks/"+NormalizeID(blockID), nil, nil)
}
