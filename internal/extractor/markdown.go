package extractor

import (
	"bytes"
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// markdownText renders Markdown and keeps only the visible text, one block
// per line.
func markdownText(md []byte) string {
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	p := parser.NewWithExtensions(parser.CommonExtensions)
	rendered := string(markdown.Render(p.Parse(md), renderer))

	text := html.UnescapeString(stripTags(rendered))

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}

func stripTags(s string) string {
	var result bytes.Buffer
	inTag := false

	for _, ch := range s {
		switch ch {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				result.WriteRune(ch)
			}
		}
	}

	return result.String()
}
