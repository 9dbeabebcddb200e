package ingest

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/user/chathub/internal/types"
)

var htmlTag = regexp.MustCompile(`(?i)</?(p|br|div|span|b|i|u|strong|em|a|ul|ol|li|blockquote|code|pre|h[1-6])\b[^>]*>`)

// Normalize rewrites HTML message bodies (Teams, email bridges) as
// Markdown so keyword triggers and analysis see plain text. Messages are
// treated as HTML when Metadata["format"] is "html" or the content carries
// common HTML tags.
func Normalize(msg *types.Message) *types.Message {
	if !isHTML(msg) {
		return msg
	}
	md, err := htmltomarkdown.ConvertString(msg.Content)
	if err != nil {
		return msg
	}
	msg.Content = strings.TrimSpace(md)
	setMeta(msg, "format", "markdown")
	return msg
}

func isHTML(msg *types.Message) bool {
	if msg.Metadata["format"] == "html" {
		return true
	}
	return htmlTag.MatchString(msg.Content)
}
