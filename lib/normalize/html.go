// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML reduces HTML to plain text: tags dropped, script and style
// contents skipped, entities unescaped, whitespace collapsed to single
// spaces. Input without markup passes through with the same whitespace
// collapse, so callers can feed it any body field unconditionally.
func StripHTML(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return collapseWhitespace(input)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(input))
	var text strings.Builder
	skipDepth := 0

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			return collapseWhitespace(text.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style":
				if tokenType == html.StartTagToken {
					skipDepth++
				}
			case "br", "p", "div", "li", "tr":
				text.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skipDepth > 0 && (string(name) == "script" || string(name) == "style") {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				text.Write(tokenizer.Text())
			}
		}
	}
}

// collapseWhitespace folds runs of whitespace into single spaces and
// trims the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
