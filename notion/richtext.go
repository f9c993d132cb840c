package notion

import "strings"

// MaxRichTextLength is the API limit on the content of one text run.
const MaxRichTextLength = 2000

// Color is a Notion text or background color.
type Color string

// Colors accepted by blocks and annotations.
const (
	ColorDefault          Color = "default"
	ColorGray             Color = "gray"
	ColorBrown            Color = "brown"
	ColorOrange           Color = "orange"
	ColorYellow           Color = "yellow"
	ColorGreen            Color = "green"
	ColorBlue             Color = "blue"
	ColorPurple           Color = "purple"
	ColorPink             Color = "pink"
	ColorRed              Color = "red"
	ColorGrayBackground   Color = "gray_background"
	ColorBlueBackground   Color = "blue_background"
	ColorGreenBackground  Color = "green_background"
	ColorYellowBackground Color = "yellow_background"
	ColorRedBackground    Color = "red_background"
	ColorPurpleBackground Color = "purple_background"
)

// RichText is one styled run of text; runs concatenate into a block's visible text.
type RichText struct {
	Type        string       `json:"type"` // "text", "mention", "equation"
	Text        *Text        `json:"text,omitempty"`
	Mention     *Mention     `json:"mention,omitempty"`
	Equation    *Equation    `json:"equation,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
	Href        string       `json:"href,omitempty"`
}

// Text is the content of a "text" run.
type Text struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link is a hyperlink.
type Link struct {
	URL string `json:"url"`
}

// Mention is the content of a "mention" run.
type Mention struct {
	Type     string     `json:"type"` // "user", "page", "database", "date", "link_preview"
	User     *User      `json:"user,omitempty"`
	Page     *IDRef     `json:"page,omitempty"`
	Database *IDRef     `json:"database,omitempty"`
	Date     *DateValue `json:"date,omitempty"`
}

// IDRef is a reference to an object by ID.
type IDRef struct {
	ID string `json:"id"`
}

// Equation is an inline or block LaTeX expression.
type Equation struct {
	Expression string `json:"expression"`
}

// Annotations is text formatting.
type Annotations struct {
	Bold          bool  `json:"bold,omitempty"`
	Italic        bool  `json:"italic,omitempty"`
	Strikethrough bool  `json:"strikethrough,omitempty"`
	Underline     bool  `json:"underline,omitempty"`
	Code          bool  `json:"code,omitempty"`
	Color         Color `json:"color,omitempty"`
}

// NewText returns a single unstyled text run.
func NewText(content string) RichText {
	return RichText{Type: "text", Text: &Text{Content: content}}
}

// NewStyledText returns a text run with annotations.
func NewStyledText(content string, a Annotations) RichText {
	rt := NewText(content)
	rt.Annotations = &a
	return rt
}

// NewLink returns a text run linking to url.
func NewLink(content, url string) RichText {
	return RichText{Type: "text", Text: &Text{Content: content, Link: &Link{URL: url}}}
}

// PageMention returns a mention of another page.
func PageMention(pageID string) RichText {
	return RichText{Type: "mention", Mention: &Mention{Type: "page", Page: &IDRef{ID: pageID}}}
}

// RichTextFrom splits text into runs no longer than MaxRichTextLength runes.
// Empty text yields a single empty run.
func RichTextFrom(text string) []RichText {
	runes := []rune(text)
	if len(runes) <= MaxRichTextLength {
		return []RichText{NewText(text)}
	}
	var out []RichText
	for len(runes) > 0 {
		n := min(len(runes), MaxRichTextLength)
		out = append(out, NewText(string(runes[:n])))
		runes = runes[n:]
	}
	return out
}

// Content returns the visible text of a run, preferring plain_text from the API.
func (r RichText) Content() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	switch {
	case r.Text != nil:
		return r.Text.Content
	case r.Equation != nil:
		return r.Equation.Expression
	}
	return ""
}

// PlainText concatenates the visible text of runs.
func PlainText(runs []RichText) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Content())
	}
	return b.String()
}
