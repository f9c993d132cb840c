// Package workspace analyzes and reorganizes a tree of Notion pages.
//
// Analysis functions work on a flat list of PageRecord built by Walk and make
// no API calls. Changes are expressed as a Plan which can be previewed
// without touching the workspace and applied idempotently.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

// Record kinds.
const (
	KindPage     = "page"
	KindDatabase = "database"
)

// PageRecord is one node of a walked page tree.
type PageRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ParentID    string `json:"parent_id,omitempty"`
	Depth       int    `json:"depth"`
	HasChildren bool   `json:"has_children"`
	Kind        string `json:"kind"`
}

// Walk lists the root page and the pages and databases below it, depth
// first, down to maxDepth levels. Databases are listed but not descended into.
func Walk(ctx context.Context, c *notion.Client, rootID string, maxDepth int) ([]PageRecord, error) {
	rootID = notion.NormalizeID(rootID)
	root, err := c.GetPage(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("get root page: %w", err)
	}
	records := []PageRecord{{ID: root.ID, Title: root.Title(), Depth: 0, Kind: KindPage}}
	if err := walk(ctx, c, rootID, 1, maxDepth, &records); err != nil {
		return nil, err
	}
	records[0].HasChildren = len(records) > 1
	return records, nil
}

func walk(ctx context.Context, c *notion.Client, parentID string, depth, maxDepth int, out *[]PageRecord) error {
	if depth > maxDepth {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	blocks, err := c.GetBlockChildrenAll(ctx, parentID)
	if err != nil {
		return fmt.Errorf("list children of %s: %w", parentID, err)
	}
	for _, b := range blocks {
		switch b.Type {
		case notion.BlockChildPage:
			*out = append(*out, PageRecord{
				ID: b.ID, Title: b.PlainText(), ParentID: parentID,
				Depth: depth, HasChildren: b.HasChildren, Kind: KindPage,
			})
			if b.HasChildren {
				if err := walk(ctx, c, b.ID, depth+1, maxDepth, out); err != nil {
					return err
				}
			}
		case notion.BlockChildDatabase:
			*out = append(*out, PageRecord{
				ID: b.ID, Title: b.PlainText(), ParentID: parentID,
				Depth: depth, Kind: KindDatabase,
			})
		}
	}
	return nil
}

// Children returns the records whose parent is parentID, in walk order.
func Children(records []PageRecord, parentID string) []PageRecord {
	var out []PageRecord
	for _, r := range records {
		if r.ParentID == parentID {
			out = append(out, r)
		}
	}
	return out
}

// Structure summarizes a walked tree.
type Structure struct {
	RootID     string         `json:"root_id"`
	RootTitle  string         `json:"root_title"`
	Pages      int            `json:"total_pages"`
	Databases  int            `json:"total_databases"`
	MaxDepth   int            `json:"max_depth"`
	ByDepth    map[int]int    `json:"pages_by_depth"`
	Categories map[string]int `json:"pages_by_category"`
	Records    []PageRecord   `json:"pages"`
}

// AnalyzeStructure counts pages and databases and classifies the pages
// directly under the root.
func AnalyzeStructure(records []PageRecord, k *KeywordClassifier) *Structure {
	s := &Structure{ByDepth: map[int]int{}, Categories: map[string]int{}, Records: records}
	if len(records) > 0 {
		s.RootID, s.RootTitle = records[0].ID, records[0].Title
	}
	for _, r := range records {
		if r.Kind == KindDatabase {
			s.Databases++
			continue
		}
		if r.Depth == 0 {
			continue
		}
		s.Pages++
		s.ByDepth[r.Depth]++
		s.MaxDepth = max(s.MaxDepth, r.Depth)
		if r.Depth == 1 {
			s.Categories[k.Classify(r.Title, "").Category]++
		}
	}
	return s
}

// WriteJSON writes v as indented JSON to dir/<name>_<suffix>.json and
// returns the path. An empty suffix uses a timestamp.
func WriteJSON(dir, name, suffix string, v any) (string, error) {
	if suffix == "" {
		suffix = time.Now().Format("20060102_150405")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, notion.SanitizeFilename(name)+"_"+suffix+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
