package tools

import "context"

// The tools below have no backing service yet. They answer with
// StatusPlaceholder and an example of the result they will produce.

// WebSearch would research a topic on the web.
func (t *Toolset) WebSearch(_ context.Context, args Args) Result {
	query, bad := args.require("query")
	if bad != nil {
		return bad
	}
	return placeholder("web search is not connected to a search provider", map[string]any{
		"query": query,
		"results": []map[string]any{
			{
				"title":   "How to write LinkedIn hooks that stop the scroll",
				"url":     "https://example.com/linkedin-hooks",
				"snippet": "The first two lines decide whether a post is read. Lead with a tension, a number or a claim.",
			},
			{
				"title":   "Content pillars: a simple framework for consistent posting",
				"url":     "https://example.com/content-pillars",
				"snippet": "Three to five pillars keep a feed recognizable without making it repetitive.",
			},
		},
	})
}

// AnalyzeContentAI would score a draft for hook strength, clarity and
// voice.
func (t *Toolset) AnalyzeContentAI(_ context.Context, args Args) Result {
	if _, bad := args.require("content"); bad != nil {
		return bad
	}
	return placeholder("AI content analysis is not connected to a model", map[string]any{
		"scores": map[string]any{
			"hook_strength": 7,
			"clarity":       8,
			"voice_match":   6,
		},
		"suggestions": []string{
			"Open with the result, then explain how you got there.",
			"Cut the second paragraph to one sentence.",
			"End with a question that invites a specific answer.",
		},
		"detected_pillar": "Content Strategy",
	})
}

// GenerateEnhancements would propose additions to a workspace page.
func (t *Toolset) GenerateEnhancements(_ context.Context, args Args) Result {
	return placeholder("enhancement generation is not connected to a model", map[string]any{
		"page_id": args.String("page_id"),
		"focus":   args.StringOr("focus", "general"),
		"enhancements": []map[string]any{
			{"type": "section", "title": "Hook Swipe File", "description": "Collect openings that performed well, grouped by pillar."},
			{"type": "database_property", "title": "Repurpose Count", "description": "Track how often a post was turned into new formats."},
			{"type": "checklist", "title": "Pre-publish Review", "description": "Hook, one idea, clear call to action, formatting on mobile."},
		},
	})
}
