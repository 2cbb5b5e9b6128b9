package executor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hairizuanbinnoorazman/validation-agent/browser"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
)

const maxCandidates = 5

// Diagnose inspects a page snapshot to explain why loc matched nothing:
// how many elements came close and what they look like.
func Diagnose(html string, loc scenario.Locator) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	var lines []string
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		lines = append(lines, fmt.Sprintf("page title: %q", title))
	}

	switch loc.Strategy {
	case scenario.StrategyRole:
		sel := doc.Find(browser.RoleSelector(loc.Role))
		lines = append(lines, fmt.Sprintf("%d element(s) with role %q", sel.Length(), loc.Role))
		if names := candidateNames(sel); len(names) > 0 {
			lines = append(lines, "available names: "+strings.Join(names, ", "))
		}

	case scenario.StrategyText:
		want := strings.ToLower(normalise(loc.Text))
		hits := doc.Find("body *").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(strings.ToLower(normalise(s.Text())), want)
		})
		lines = append(lines, fmt.Sprintf("%d element(s) containing text %q in the static markup", hits.Length(), loc.Text))
		if hits.Length() == 0 {
			if headings := candidateNames(doc.Find("h1, h2, h3")); len(headings) > 0 {
				lines = append(lines, "headings on page: "+strings.Join(headings, ", "))
			}
		}

	case scenario.StrategyAttribute:
		sel := doc.Find("[" + loc.Attribute + "]")
		lines = append(lines, fmt.Sprintf("%d element(s) with attribute %q", sel.Length(), loc.Attribute))
		var values []string
		sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr(loc.Attribute)
			values = append(values, fmt.Sprintf("%q", v))
			return len(values) < maxCandidates
		})
		if len(values) > 0 {
			lines = append(lines, loc.Attribute+" values: "+strings.Join(values, ", "))
		}

	case scenario.StrategyCSS:
		lines = append(lines, fmt.Sprintf("%d element(s) match selector %q in the static markup", doc.Find(loc.Selector).Length(), loc.Selector))
	}
	return lines, nil
}

// candidateNames approximates the accessible names of the first few
// elements in sel.
func candidateNames(sel *goquery.Selection) []string {
	var names []string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := ""
		for _, attr := range []string{"aria-label", "alt", "title", "value", "placeholder"} {
			if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
				name = v
				break
			}
		}
		if name == "" {
			name = s.Text()
		}
		if name = normalise(name); name != "" {
			names = append(names, fmt.Sprintf("%q", truncate(name, 60)))
		}
		return len(names) < maxCandidates
	})
	return names
}

func normalise(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
