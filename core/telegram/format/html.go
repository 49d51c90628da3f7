package format

import (
	"fmt"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes text for Telegram HTML parse mode.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// Bold wraps text in bold tags without escaping it.
func Bold(text string) string {
	return "<b>" + text + "</b>"
}

// Code wraps text in inline code tags, escaping the content.
func Code(text string) string {
	return "<code>" + EscapeHTML(text) + "</code>"
}

// Caption composes the standard screen caption: bold title, blank line, body.
func Caption(title, body string) string {
	if title == "" {
		return body
	}
	if body == "" {
		return Bold(title)
	}
	return fmt.Sprintf("%s\n\n%s", Bold(title), body)
}
