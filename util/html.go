package util

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Excerpt returns the text content of an HTML fragment, truncated to maxRunes.
func Excerpt(input io.Reader, maxRunes int) string {

	tokenizer := html.NewTokenizerFragment(input, "body")
	tokenizer.SetMaxBuf(16384)

	var text = &strings.Builder{}

	for text.Len() <= 4*maxRunes { // a rune has at most 4 bytes

		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break // assuming tokenizer.Err() == io.EOF
		}

		switch tt {
		case html.TextToken:
			text.Write(tokenizer.Text()) // unescaped
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// block elements and line breaks separate words
			text.WriteString(" ")
		}
	}

	return Trunc(strings.Join(strings.Fields(text.String()), " "), maxRunes)
}
