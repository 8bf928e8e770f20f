// Package converter turns fetched HTML documents into text lines that can be
// fed to vocabulary training.
package converter

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// HTMLToMarkdown converts an HTML string to Markdown.
func HTMLToMarkdown(html string) (string, error) {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

// HTMLToLines converts html to Markdown and returns its non-blank lines,
// trimmed of surrounding whitespace.
func HTMLToLines(html string) ([]string, error) {
	md, err := HTMLToMarkdown(html)
	if err != nil {
		return nil, err
	}
	return SplitLines(md), nil
}

// SplitLines splits text on newlines and drops blank lines.
func SplitLines(text string) []string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

// IsHTMLContentType returns true if the content type header indicates HTML.
func IsHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "xhtml")
}
