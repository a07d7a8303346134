package inbox

import (
	"strings"
	"unicode"

	"github.com/deepgram/courier/internal/config"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const previewLength = 100

var titleCaser = cases.Title(language.Und)

// NameFromAddress guesses a display name from the local part of an address,
// e.g. "jane.doe42@school.edu" becomes "Jane Doe".
func NameFromAddress(address string) string {
	local, _, _ := strings.Cut(address, "@")
	local = strings.Map(func(r rune) rune {
		switch {
		case r == '.' || r == '_' || r == '-':
			return ' '
		case unicode.IsDigit(r):
			return -1
		}
		return r
	}, local)

	words := strings.Fields(local)
	for i, w := range words {
		words[i] = titleCaser.String(w)
	}
	return strings.Join(words, " ")
}

// ReplySubject prefixes "Re: " unless subject is already a reply.
func ReplySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// FormatReply wraps each line of content at width columns while keeping
// paragraph breaks. Words longer than width are split.
func FormatReply(content string, width int) string {
	if width <= 0 {
		width = config.DefaultWrapWidth
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.TrimRight(content, "\n")

	paragraphs := strings.Split(content, "\n\n")
	for i, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			paragraphs[i] = ""
			continue
		}
		lines := strings.Split(p, "\n")
		for j, line := range lines {
			lines[j] = wrap.String(wordwrap.String(line, width), width)
		}
		paragraphs[i] = strings.Join(lines, "\n")
	}
	return strings.Join(paragraphs, "\n\n")
}

// preview shortens s to previewLength runes for the batch summary.
func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return string(r[:previewLength]) + "..."
}
