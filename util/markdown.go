package util

import (
	"bytes"
	"html/template"
	"strings"

	"gitlab.com/golang-commonmark/markdown"
)

// raw HTML is disabled as well, the escaper is the first line of defense
var markdownParser = markdown.New(markdown.HTML(false), markdown.Linkify(true), markdown.Typographer(true), markdown.MaxNesting(10))

// escapes markup but keeps ">" for blockquotes
var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;")

// Markdown escapes user-authored text and renders it to HTML.
func Markdown(text string) template.HTML {

	// remove all tabs from the beginning of each line, lines may be arbitrarily long
	var unindented = &bytes.Buffer{}
	for _, line := range strings.Split(markupEscaper.Replace(text), "\n") {
		line = strings.TrimSuffix(line, "\r")
		line = strings.TrimLeft(line, "\t")
		unindented.WriteString(line)
		unindented.WriteString("\n")
	}

	return template.HTML(markdownParser.RenderToString(unindented.Bytes()))
}
