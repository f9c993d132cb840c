package workspace

import (
	"context"
	"fmt"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

// DuplicateGroup is a set of category pages sharing a normalized title.
// The first page in walk order is kept.
type DuplicateGroup struct {
	Key        string       `json:"key"`
	Canonical  PageRecord   `json:"canonical"`
	Duplicates []PageRecord `json:"duplicates"`
}

// CleanupAnalysis lists duplicate category pages under a root page.
type CleanupAnalysis struct {
	RootID        string           `json:"root_id"`
	Groups        []DuplicateGroup `json:"duplicate_groups"`
	PagesToDelete []PageRecord     `json:"pages_to_delete"`
	PagesToKeep   []PageRecord     `json:"pages_to_keep"`

	records []PageRecord
}

// AnalyzeCleanup groups the category pages directly under the root by the
// category their title names. Pages whose title names no category of k are
// left alone. In every group with more than one page the first is kept and
// the others are marked for deletion. It makes no API calls.
func AnalyzeCleanup(records []PageRecord, k *KeywordClassifier) *CleanupAnalysis {
	if k == nil {
		k = NewKeywordClassifier()
	}
	a := &CleanupAnalysis{records: records, PagesToDelete: []PageRecord{}, PagesToKeep: []PageRecord{}}
	if len(records) == 0 {
		return a
	}
	a.RootID = records[0].ID

	groups := map[string]*DuplicateGroup{}
	var order []string
	for _, r := range Children(records, a.RootID) {
		if r.Kind != KindPage {
			continue
		}
		cat, ok := k.MatchCategory(r.Title)
		if !ok {
			continue
		}
		key := NormalizeTitle(cat.Name)
		g, ok := groups[key]
		if !ok {
			groups[key] = &DuplicateGroup{Key: key, Canonical: r}
			order = append(order, key)
			continue
		}
		g.Duplicates = append(g.Duplicates, r)
	}
	for _, key := range order {
		g := groups[key]
		a.PagesToKeep = append(a.PagesToKeep, g.Canonical)
		if len(g.Duplicates) == 0 {
			continue
		}
		a.Groups = append(a.Groups, *g)
		a.PagesToDelete = append(a.PagesToDelete, g.Duplicates...)
	}
	return a
}

// Plan moves the child pages and databases of every duplicate under its
// canonical page and then archives the duplicate. The archive is skipped
// when the duplicate still holds any block once the moves are done.
func (a *CleanupAnalysis) Plan() *Plan {
	p := &Plan{}
	for _, g := range a.Groups {
		for _, dup := range g.Duplicates {
			reason := fmt.Sprintf("keep content of duplicate %q", dup.Title)
			for _, child := range Children(a.records, dup.ID) {
				op := Operation{Kind: OpMove, PageID: child.ID, Title: child.Title, TargetID: g.Canonical.ID, Reason: reason}
				if child.Kind == KindDatabase {
					op.Kind = OpMoveDatabase
				}
				p.Add(op)
			}
			p.Add(Operation{
				Kind: OpArchive, PageID: dup.ID, Title: dup.Title, OnlyIfEmpty: true,
				Reason: fmt.Sprintf("duplicate of %q (%s)", g.Canonical.Title, g.Canonical.ID),
			})
		}
	}
	return p
}

// CleanupResult is the outcome of ExecuteCleanup.
type CleanupResult struct {
	Confirmed bool             `json:"confirmed"`
	Preview   []string         `json:"preview"`
	Report    *Report          `json:"report,omitempty"`
	Analysis  *CleanupAnalysis `json:"analysis"`
}

// ExecuteCleanup applies the cleanup plan of a. Unless confirm is set it only
// returns the preview and makes no API calls.
func ExecuteCleanup(ctx context.Context, c *notion.Client, a *CleanupAnalysis, confirm bool) (*CleanupResult, error) {
	plan := a.Plan()
	res := &CleanupResult{Confirmed: confirm, Preview: plan.Preview(), Analysis: a}
	if !confirm {
		return res, nil
	}
	report, err := plan.Apply(ctx, c)
	res.Report = report
	return res, err
}

// Cleanup walks rootID and runs ExecuteCleanup on the result.
func Cleanup(ctx context.Context, c *notion.Client, rootID string, k *KeywordClassifier, confirm bool) (*CleanupResult, error) {
	records, err := Walk(ctx, c, rootID, 2)
	if err != nil {
		return nil, err
	}
	return ExecuteCleanup(ctx, c, AnalyzeCleanup(records, k), confirm)
}
