package catalog

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

var (
	htmlMarkup = regexp.MustCompile(`(?i)</?[a-z][\s\S]*>`)
	blankLines = regexp.MustCompile(`\n[ \t]*\n+`)
)

// plainText converts free text into exactly one paragraph. Only the
// paragraph block parser is registered, so list or heading syntax stays
// text, while inline emphasis, code spans and links still render.
var plainText = goldmark.New(
	goldmark.WithParser(parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewCodeSpanParser(), 100),
			util.Prioritized(parser.NewLinkParser(), 200),
			util.Prioritized(parser.NewAutoLinkParser(), 300),
			util.Prioritized(parser.NewEmphasisParser(), 500),
		),
	)),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// LooksLikeHTML reports whether s contains at least one tag.
func LooksLikeHTML(s string) bool {
	return htmlMarkup.MatchString(s)
}

// NormalizeDescription returns s unchanged when it already carries markup,
// "" when blank, and otherwise the text wrapped as a single paragraph.
func NormalizeDescription(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if LooksLikeHTML(s) {
		return s
	}

	text := blankLines.ReplaceAllString(strings.TrimSpace(s), "\n")
	var buf bytes.Buffer
	if err := plainText.Convert([]byte(text), &buf); err != nil {
		return "<p>" + strings.TrimSpace(s) + "</p>"
	}
	return strings.TrimSpace(buf.String())
}
