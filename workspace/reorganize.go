package workspace

import (
	"fmt"
	"strings"
)

// Strategy selects whether reorganization moves or copies pages.
type Strategy string

const (
	StrategyMove Strategy = "move"
	StrategyCopy Strategy = "copy"
)

// ParseStrategy parses "move" or "copy"; empty means move.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyMove:
		return StrategyMove, nil
	case StrategyCopy:
		return StrategyCopy, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want move or copy)", s)
}

// Placement is the category chosen for one page.
type Placement struct {
	Page PageRecord `json:"page"`
	Classification
}

// ClassifyPages classifies the pages directly under the root by title,
// leaving out pages that are themselves category pages.
func ClassifyPages(records []PageRecord, k *KeywordClassifier) []Placement {
	if len(records) == 0 {
		return nil
	}
	var out []Placement
	for _, r := range Children(records, records[0].ID) {
		if r.Kind != KindPage {
			continue
		}
		if _, ok := k.MatchCategory(r.Title); ok {
			continue
		}
		out = append(out, Placement{Page: r, Classification: k.Classify(r.Title, "")})
	}
	return out
}

// PlanReorganization plans moving (or copying) every page under the root
// into a category page. Missing category pages are created first, titled
// "<emoji> <category>". Existing category pages are recognized by
// normalized title.
func PlanReorganization(records []PageRecord, k *KeywordClassifier, strategy Strategy) *Plan {
	p := &Plan{}
	if len(records) == 0 {
		return p
	}
	rootID := records[0].ID

	existing := map[string]string{}
	for _, r := range Children(records, rootID) {
		if r.Kind != KindPage {
			continue
		}
		if c, ok := k.MatchCategory(r.Title); ok {
			if _, seen := existing[c.Name]; !seen {
				existing[c.Name] = r.ID
			}
		}
	}

	kind := OpMove
	if strategy == StrategyCopy {
		kind = OpCopy
	}
	created := map[string]bool{}
	for _, pl := range ClassifyPages(records, k) {
		cat, _ := k.Lookup(pl.Category)
		op := Operation{Kind: kind, PageID: pl.Page.ID, Title: pl.Page.Title}
		if id, ok := existing[cat.Name]; ok {
			op.TargetID = id
		} else {
			ref := "category:" + cat.Name
			if !created[ref] {
				created[ref] = true
				p.Add(Operation{
					Kind: OpCreate, Title: cat.Label(), Emoji: cat.Emoji,
					TargetID: rootID, Ref: ref, Reason: "category page",
				})
			}
			op.TargetRef = ref
		}
		if pl.Matches > 0 {
			op.Reason = fmt.Sprintf("%s (%d keyword matches)", cat.Name, pl.Matches)
		} else {
			op.Reason = cat.Name + " (no keyword match)"
		}
		p.Add(op)
	}
	return p
}

// FixEmojiConsistency plans renaming category pages under the root to their
// canonical "<emoji> <category>" title. Pages already titled that way get
// no operation, so the plan is empty once applied.
func FixEmojiConsistency(records []PageRecord, k *KeywordClassifier) *Plan {
	p := &Plan{}
	if len(records) == 0 {
		return p
	}
	for _, r := range Children(records, records[0].ID) {
		if r.Kind != KindPage {
			continue
		}
		c, ok := k.MatchCategory(r.Title)
		if !ok || r.Title == c.Label() {
			continue
		}
		p.Add(Operation{
			Kind: OpRename, PageID: r.ID, Title: c.Label(), Emoji: c.Emoji,
			Reason: fmt.Sprintf("was %q", r.Title),
		})
	}
	return p
}
