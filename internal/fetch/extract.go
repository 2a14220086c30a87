package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoText is returned when a page has no readable description.
var ErrNoText = errors.New("no text content")

// Extraction sources reported by ExtractPosting.
const (
	SourceStructuredData = "json-ld"
	SourceSelectors      = "selectors"
)

const pageNoise = "nav, footer, header, script, style, noscript, iframe, svg"

// ExtractPosting returns the posting text of an HTML page and where it came
// from. A schema.org JobPosting in JSON-LD wins; otherwise the platform's
// content selectors are tried, falling back to <body>.
func ExtractPosting(page []byte, platform Platform) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	if text := structuredPosting(doc); text != "" {
		return text, SourceStructuredData, nil
	}
	text := selectText(doc, ContentSelectors(platform), NoiseSelectors(platform))
	if text == "" {
		return "", "", ErrNoText
	}
	return text, SourceSelectors, nil
}

// ExtractMainText returns the cleaned text of the first element matching
// contentSelectors after removing noise. Falls back to <body>.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return selectText(doc, contentSelectors, noiseSelectors), nil
}

func selectText(doc *goquery.Document, contentSelectors, noiseSelectors []string) string {
	doc.Find(pageNoise).Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return cleanWhitespace(sel.First().Text())
		}
	}
	return cleanWhitespace(doc.Find("body").Text())
}

// structuredPosting reads the first JobPosting found in the page's JSON-LD
// blocks. The description field is itself HTML.
func structuredPosting(doc *goquery.Document) string {
	var text string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		posting := findJobPosting(data)
		if posting == nil {
			return true
		}
		description, _ := posting["description"].(string)
		body, err := goquery.NewDocumentFromReader(strings.NewReader(description))
		if err != nil {
			return true
		}
		description = cleanWhitespace(body.Text())
		if description == "" {
			return true
		}
		if title, _ := posting["title"].(string); strings.TrimSpace(title) != "" {
			text = strings.TrimSpace(title) + "\n" + description
		} else {
			text = description
		}
		return false
	})
	return text
}

// findJobPosting walks JSON-LD values (single objects, arrays and @graph lists).
func findJobPosting(v any) map[string]any {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if p := findJobPosting(item); p != nil {
				return p
			}
		}
	case map[string]any:
		if isJobPosting(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"]; ok {
			return findJobPosting(graph)
		}
	}
	return nil
}

func isJobPosting(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, item := range v {
			if s, _ := item.(string); s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

// cleanWhitespace collapses runs of spaces and drops blank lines.
func cleanWhitespace(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Truncate cuts text to at most maxChars runes, preferring the last word boundary.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	cut := string([]rune(text)[:maxChars])
	if i := strings.LastIndexAny(cut, " \n"); i >= maxChars/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + " ..."
}
