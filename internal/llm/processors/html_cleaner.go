package processors

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagPattern        = regexp.MustCompile(`(?i)<\s*/?\s*(p|div|br|ul|ol|li|h[1-6]|span|strong|em|b|i|a|section|article|table|tr|td|body|html)\b[^>]*>`)
	inlineSpace       = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	excessiveNewlines = regexp.MustCompile(`\n{3,}`)
)

// blockTags end a line of text when the offer is flattened
var blockTags = []string{
	"p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6",
	"tr", "section", "article", "ul", "ol", "table",
}

// HTMLCleaner turns job offers pasted as HTML into plain text before they are
// embedded in a prompt
type HTMLCleaner struct {
	// Tags to remove completely
	removeTags []string
}

// NewHTMLCleaner creates a new HTML cleaner instance
func NewHTMLCleaner() *HTMLCleaner {
	return &HTMLCleaner{
		removeTags: []string{
			"script", "style", "noscript", "iframe", "object", "embed",
			"form", "input", "button", "select", "textarea",
			"nav", "header", "footer", "aside", "svg",
			"meta", "link", "title", "base",
		},
	}
}

// LooksLikeHTML reports whether text contains markup worth parsing
func LooksLikeHTML(text string) bool {
	return tagPattern.MatchString(text)
}

// CleanOffer returns the offer as plain text. Text without markup only has
// its whitespace normalized.
func (hc *HTMLCleaner) CleanOffer(text string) string {
	if !LooksLikeHTML(text) {
		return hc.cleanExtractedText(text)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return hc.cleanExtractedText(text)
	}

	for _, tag := range hc.removeTags {
		doc.Find(tag).Remove()
	}
	for _, tag := range blockTags {
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			if tag == "li" {
				s.PrependHtml("- ")
			}
			s.AppendHtml("\n")
		})
	}

	return hc.cleanExtractedText(doc.Text())
}

// cleanExtractedText collapses runs of spaces and blank lines
func (hc *HTMLCleaner) cleanExtractedText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = excessiveNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// EstimateTokens returns a rough token count for the cleaned text
func (hc *HTMLCleaner) EstimateTokens(text string) int {
	// Roughly four characters per token
	return len([]rune(text)) / 4
}
