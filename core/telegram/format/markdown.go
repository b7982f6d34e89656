// Package format contains text formatting helpers for outgoing messages.
package format

import "strings"

var markdownV1Replacer = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

var markdownV2Replacer = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMarkdown escapes the characters that break Telegram Markdown (V1).
func EscapeMarkdown(s string) string {
	return markdownV1Replacer.Replace(s)
}

// EscapeMarkdownV2 escapes the full MarkdownV2 special character set.
func EscapeMarkdownV2(s string) string {
	return markdownV2Replacer.Replace(s)
}
