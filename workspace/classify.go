package workspace

import (
	"strings"
	"unicode"
)

// Category is a bucket of the Content OS workspace.
type Category struct {
	Name     string   `json:"name" yaml:"name"`
	Emoji    string   `json:"emoji" yaml:"emoji"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords"`
}

// Label returns the canonical page title of the category, "<emoji> <name>".
func (c Category) Label() string {
	if c.Emoji == "" {
		return c.Name
	}
	return c.Emoji + " " + c.Name
}

// DefaultCategories are checked in order; the first match wins.
var DefaultCategories = []Category{
	{Name: "Brand & Voice", Emoji: "🎨", Keywords: []string{"brand", "discovery", "voice"}},
	{Name: "Content Strategy", Emoji: "🎯", Keywords: []string{"content", "pillar", "ideas"}},
	{Name: "Content Calendar", Emoji: "📅", Keywords: []string{"calendar", "schedule"}},
	{Name: "Performance & Analytics", Emoji: "📊", Keywords: []string{"performance", "analytics"}},
	{Name: "Automation & Workflows", Emoji: "⚙️", Keywords: []string{"automation", "workflow"}},
}

// GeneralResources is the category of pages matching no keyword.
var GeneralResources = Category{Name: "General Resources", Emoji: "📚"}

// Classification is the result of classifying a page.
type Classification struct {
	Category string `json:"category"`
	Matches  int    `json:"keyword_matches"`
}

// KeywordClassifier assigns pages to categories by case-insensitive keyword
// substring matching. It does no semantic analysis.
type KeywordClassifier struct {
	Categories []Category
	Default    Category
}

// NewKeywordClassifier returns a classifier over DefaultCategories.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{Categories: DefaultCategories, Default: GeneralResources}
}

// Classify returns the first category, in order, with a keyword occurring
// in title or content, and the number of its keywords that occur.
func (k *KeywordClassifier) Classify(title, content string) Classification {
	text := strings.ToLower(title + " " + content)
	for _, c := range k.Categories {
		n := 0
		for _, kw := range c.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				n++
			}
		}
		if n > 0 {
			return Classification{Category: c.Name, Matches: n}
		}
	}
	return Classification{Category: k.Default.Name}
}

// All returns the categories followed by the default category.
func (k *KeywordClassifier) All() []Category {
	return append(append([]Category(nil), k.Categories...), k.Default)
}

// Lookup returns the category named name, including the default.
func (k *KeywordClassifier) Lookup(name string) (Category, bool) {
	for _, c := range k.All() {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// MatchCategory returns the category whose name equals title once both are
// normalized, so "🎨 Brand & Voice" and "brand & voice" both match.
func (k *KeywordClassifier) MatchCategory(title string) (Category, bool) {
	n := NormalizeTitle(title)
	for _, c := range k.All() {
		if NormalizeTitle(c.Name) == n {
			return c, true
		}
	}
	return Category{}, false
}

// NormalizeTitle lowercases title and drops emoji, punctuation and extra
// spaces, keeping letters and digits.
func NormalizeTitle(title string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}
