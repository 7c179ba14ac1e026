// Package normalise converts corpus documents to plain text before
// chunking. Markup syntax embeds poorly: heading markers and tags
// dominate the vector without carrying meaning.
package normalise

import (
	"html"
	"path"
	"regexp"
	"strings"
)

// Func converts raw document text to plain text.
type Func func(text string) string

// ForID selects a normaliser by the document ID's extension.
func ForID(id string) Func {
	switch strings.ToLower(path.Ext(id)) {
	case ".md", ".markdown":
		return Markdown
	case ".html", ".htm", ".xhtml":
		return HTML
	default:
		return Plain
	}
}

// Pre-compiled regular expressions for markdown stripping.
var (
	codeBlock  = regexp.MustCompile("(?s)```[^`]*```")
	inlineCode = regexp.MustCompile("`[^`]+`")
	images     = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links      = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquote = regexp.MustCompile(`(?m)^>\s*`)
	hrLine     = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
)

// Markdown strips common markdown formatting, keeping link and
// emphasis text.
func Markdown(text string) string {
	text = codeBlock.ReplaceAllString(text, "")
	text = inlineCode.ReplaceAllString(text, "")
	text = images.ReplaceAllString(text, "")
	text = links.ReplaceAllString(text, "$1")
	text = headings.ReplaceAllString(text, "")
	text = blockquote.ReplaceAllString(text, "")
	text = hrLine.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = strings.ReplaceAll(text, "*", "")
	text = strings.ReplaceAll(text, "_", " ")

	return Plain(text)
}

// Pre-compiled regular expressions for HTML stripping.
var (
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag        = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
)

// HTML strips tags and extracts readable text. Script, style and head
// content is discarded entirely.
func HTML(text string) string {
	text = scriptTag.ReplaceAllString(text, "")
	text = styleTag.ReplaceAllString(text, "")
	text = noscriptTag.ReplaceAllString(text, "")
	text = headTag.ReplaceAllString(text, "")
	text = svgTag.ReplaceAllString(text, "")
	text = htmlComments.ReplaceAllString(text, "")

	// Block boundaries become line breaks so words don't run together.
	text = blockElements.ReplaceAllString(text, "\n")
	text = allTags.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)

	return Plain(text)
}

var (
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Plain tidies whitespace without touching the words: runs of spaces
// collapse, three or more blank lines become one.
func Plain(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = multiSpaces.ReplaceAllString(text, " ")
	text = multiNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
