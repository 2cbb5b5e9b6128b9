// Package a11y audits page markup for common accessibility defects: controls
// without accessible names, images without alternative text, vague link
// text and tablists whose children lack the expected role.
package a11y

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rule identifies the check a finding came from.
type Rule string

const (
	RuleButtonName    Rule = "button-name"
	RuleInputLabel    Rule = "input-label"
	RuleLinkText      Rule = "link-text"
	RuleImageAlt      Rule = "image-alt"
	RuleTablistRole   Rule = "tablist-children"
	RuleTablistAbsent Rule = "tablist-missing"
)

// DefaultTablistSelector finds every tablist on the page.
const DefaultTablistSelector = `[role="tablist"]`

// DefaultTabRole is the role tablist children are expected to carry.
const DefaultTabRole = "tab"

// maxExamples bounds the elements listed per rule in a summary.
const maxExamples = 5

var ruleLabels = map[Rule]string{
	RuleButtonName:    "button(s) without accessible names",
	RuleInputLabel:    "form input(s) without labels",
	RuleLinkText:      "link(s) with poor or missing descriptive text",
	RuleImageAlt:      "image(s) without alt text",
	RuleTablistRole:   "tablist child(ren) without the expected role",
	RuleTablistAbsent: "tablist(s) not found",
}

var ruleOrder = []Rule{RuleButtonName, RuleInputLabel, RuleLinkText, RuleImageAlt, RuleTablistAbsent, RuleTablistRole}

// poorLinkTexts are link texts that say nothing about the destination.
var poorLinkTexts = map[string]bool{
	"click here": true,
	"read more":  true,
	"more":       true,
	"link":       true,
	"here":       true,
}

// Finding is one element that failed a rule.
type Finding struct {
	Rule     Rule   `json:"rule"`
	Selector string `json:"selector"`
	Detail   string `json:"detail,omitempty"`
}

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}
	return doc, nil
}

// AuditNames checks buttons, form inputs, links and images for an
// accessible name.
func AuditNames(html string) ([]Finding, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	doc.Find(`button, input[type="button"], input[type="submit"], input[type="reset"]`).Each(func(_ int, s *goquery.Selection) {
		if hasAria(s) || nonEmpty(s.Text()) || attrSet(s, "value") || attrSet(s, "title") {
			return
		}
		findings = append(findings, Finding{Rule: RuleButtonName, Selector: describe(s)})
	})

	doc.Find(`input, textarea, select`).Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "input" {
			switch strings.ToLower(s.AttrOr("type", "text")) {
			case "hidden", "button", "submit", "reset":
				return
			}
		}
		if hasAria(s) || attrSet(s, "placeholder") || attrSet(s, "title") || labelled(doc, s) {
			return
		}
		findings = append(findings, Finding{Rule: RuleInputLabel, Selector: describe(s)})
	})

	doc.Find(`a[href]`).Each(func(_ int, s *goquery.Selection) {
		if hasAria(s) || attrSet(s, "title") {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text != "" && len(text) >= 4 && !poorLinkTexts[strings.ToLower(text)] {
			return
		}
		findings = append(findings, Finding{Rule: RuleLinkText, Selector: describe(s), Detail: fmt.Sprintf("text %q", text)})
	})

	doc.Find(`img`).Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("alt"); ok {
			return
		}
		if hasAria(s) {
			return
		}
		if role := s.AttrOr("role", ""); role == "presentation" || role == "none" {
			return
		}
		findings = append(findings, Finding{Rule: RuleImageAlt, Selector: describe(s)})
	})
	return findings, nil
}

// CheckTablistChildren verifies that every direct element child of the
// tablists matched by selector carries role. A selector that matches
// nothing and a tablist without children are both findings.
func CheckTablistChildren(html, selector, role string) ([]Finding, error) {
	if selector == "" {
		selector = DefaultTablistSelector
	}
	if role == "" {
		role = DefaultTabRole
	}
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	lists := doc.Find(selector)
	if lists.Length() == 0 {
		return []Finding{{Rule: RuleTablistAbsent, Selector: selector}}, nil
	}

	var findings []Finding
	lists.Each(func(_ int, list *goquery.Selection) {
		children := list.Children()
		if children.Length() == 0 {
			findings = append(findings, Finding{Rule: RuleTablistRole, Selector: describe(list), Detail: "tablist has no children"})
			return
		}
		children.Each(func(_ int, child *goquery.Selection) {
			got := strings.TrimSpace(child.AttrOr("role", ""))
			if strings.EqualFold(got, role) {
				return
			}
			detail := fmt.Sprintf("role %q, want %q", got, role)
			if got == "" {
				detail = fmt.Sprintf("no role, want %q", role)
			}
			findings = append(findings, Finding{Rule: RuleTablistRole, Selector: describe(child), Detail: detail})
		})
	})
	return findings, nil
}

// Summarize renders findings as one line per rule, listing the first few
// offending elements of each.
func Summarize(findings []Finding) string {
	byRule := make(map[Rule][]Finding)
	for _, f := range findings {
		byRule[f.Rule] = append(byRule[f.Rule], f)
	}

	var parts []string
	for _, rule := range ruleOrder {
		fs := byRule[rule]
		if len(fs) == 0 {
			continue
		}
		examples := make([]string, 0, maxExamples)
		for i, f := range fs {
			if i == maxExamples {
				examples = append(examples, fmt.Sprintf("and %d more", len(fs)-maxExamples))
				break
			}
			if f.Detail != "" {
				examples = append(examples, f.Selector+" ("+f.Detail+")")
			} else {
				examples = append(examples, f.Selector)
			}
		}
		parts = append(parts, fmt.Sprintf("%d %s: %s", len(fs), ruleLabels[rule], strings.Join(examples, ", ")))
	}
	return strings.Join(parts, "; ")
}

func hasAria(s *goquery.Selection) bool {
	return attrSet(s, "aria-label") || attrSet(s, "aria-labelledby")
}

func attrSet(s *goquery.Selection, name string) bool {
	v, ok := s.Attr(name)
	return ok && nonEmpty(v)
}

func nonEmpty(v string) bool {
	return strings.TrimSpace(v) != ""
}

// labelled reports whether a <label> names s, by for= or by wrapping it.
func labelled(doc *goquery.Document, s *goquery.Selection) bool {
	if s.Closest("label").Length() > 0 {
		return true
	}
	id, ok := s.Attr("id")
	if !ok || id == "" {
		return false
	}
	found := false
	doc.Find("label[for]").EachWithBreak(func(_ int, l *goquery.Selection) bool {
		if l.AttrOr("for", "") == id {
			found = true
		}
		return !found
	})
	return found
}

// describe builds a short CSS-like description of s.
func describe(s *goquery.Selection) string {
	name := goquery.NodeName(s)
	if id := s.AttrOr("id", ""); id != "" {
		return name + "#" + id
	}
	switch name {
	case "a":
		return fmt.Sprintf(`a[href=%q]`, s.AttrOr("href", ""))
	case "img":
		if src := s.AttrOr("src", ""); src != "" {
			return fmt.Sprintf(`img[src=%q]`, src)
		}
	case "input", "select", "textarea":
		if n := s.AttrOr("name", ""); n != "" {
			return fmt.Sprintf(`%s[name=%q]`, name, n)
		}
	}
	if class := strings.Fields(s.AttrOr("class", "")); len(class) > 0 {
		return name + "." + strings.Join(class, ".")
	}
	return name
}
