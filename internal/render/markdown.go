package render

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"github.com/starford/procforge/internal/document"
)

var excessiveLinesRe = regexp.MustCompile(`\n{3,}`)

// MarkdownRenderer converts documents to GitHub-flavoured Markdown.
type MarkdownRenderer struct {
	converter *md.Converter
}

// NewMarkdownRenderer creates a Markdown renderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &MarkdownRenderer{converter: converter}
}

// Render converts doc to Markdown. The logo and print-only blocks are
// omitted.
func (r *MarkdownRenderer) Render(doc document.Document) (string, error) {
	page, err := renderTree(buildPage(doc, false))
	if err != nil {
		return "", err
	}
	out, err := r.converter.ConvertString(string(page))
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	out = excessiveLinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out) + "\n", nil
}
