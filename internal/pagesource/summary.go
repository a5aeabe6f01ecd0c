// internal/pagesource/summary.go
package pagesource

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxButtons caps how many buttons a summary lists.
const maxButtons = 10

// Frame describes an iframe found in a page.
type Frame struct {
	ID  string `json:"id,omitempty"`
	Src string `json:"src,omitempty"`
}

// Summary is a compact view of a page, small enough to log.
type Summary struct {
	Title        string   `json:"title,omitempty"`
	Frames       []Frame  `json:"frames,omitempty"`
	Buttons      []string `json:"buttons,omitempty"`
	NextControls int      `json:"next_controls"`
	Bytes        int      `json:"bytes"`
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "title=%q bytes=%d frames=%d next_controls=%d", s.Title, s.Bytes, len(s.Frames), s.NextControls)
	if len(s.Buttons) > 0 {
		fmt.Fprintf(&b, " buttons=[%s]", strings.Join(s.Buttons, ", "))
	}
	return b.String()
}

// Summarize parses html and reports its title, iframes and buttons.
// nextSelector is a CSS selector counted into NextControls; empty skips it.
func Summarize(html, nextSelector string) (Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	summary := Summary{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Bytes: len(html),
	}

	doc.Find("iframe, frame").Each(func(i int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		src, _ := s.Attr("src")
		summary.Frames = append(summary.Frames, Frame{ID: id, Src: src})
	})

	doc.Find("button").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(summary.Buttons) >= maxButtons {
			return false
		}
		summary.Buttons = append(summary.Buttons, describeButton(s))
		return true
	})

	if nextSelector != "" {
		summary.NextControls = doc.Find(nextSelector).Length()
	}

	return summary, nil
}

func describeButton(s *goquery.Selection) string {
	label := strings.Join(strings.Fields(s.Text()), " ")
	if label == "" {
		label, _ = s.Attr("aria-label")
	}
	if class, ok := s.Attr("class"); ok && class != "" {
		return fmt.Sprintf("%q(.%s)", label, strings.Join(strings.Fields(class), "."))
	}
	return fmt.Sprintf("%q", label)
}

var (
	classContainsXPath = regexp.MustCompile(`^//([a-zA-Z][\w-]*|\*)\[contains\(@class,\s*'([^']+)'\)\]$`)
	idXPath            = regexp.MustCompile(`^//([a-zA-Z][\w-]*|\*)\[@id='([^']+)'\]$`)
)

// CSSFor derives a CSS selector from a locator so it can be counted in a
// static page. It handles ids, CSS selectors and the simple
// //tag[contains(@class,'x')] and //tag[@id='x'] xpath forms; anything else
// yields "".
func CSSFor(by, value string) string {
	switch by {
	case "css":
		return value
	case "id":
		return fmt.Sprintf("[id=%q]", value)
	case "xpath":
		if m := classContainsXPath.FindStringSubmatch(value); m != nil {
			return fmt.Sprintf("%s[class*=%q]", cssTag(m[1]), m[2])
		}
		if m := idXPath.FindStringSubmatch(value); m != nil {
			return fmt.Sprintf("%s[id=%q]", cssTag(m[1]), m[2])
		}
	}
	return ""
}

func cssTag(tag string) string {
	if tag == "*" {
		return ""
	}
	return tag
}
