package conversion

import (
	"regexp"
	"strings"
)

// markdownControlChars are removed, not interpreted: exports carry plain text only.
var markdownControlChars = regexp.MustCompile("[*#>`]")

// StripMarkdown removes the markdown control characters * # > and `.
// Every other character, including '<' and '&', is kept verbatim.
func StripMarkdown(content string) string {
	return markdownControlChars.ReplaceAllString(content, "")
}

// Paragraphs splits content on newlines. Every segment is kept, including empty
// ones, so len(Paragraphs(s)) == strings.Count(s, "\n")+1.
func Paragraphs(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// ChapterText turns stored chapter content into export-ready paragraphs.
func ChapterText(content string) []string {
	return Paragraphs(StripMarkdown(content))
}
