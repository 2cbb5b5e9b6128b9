package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
)

// Resolver finds the element a Locator describes. Finder returns the source
// of a JavaScript arrow function that takes no arguments and returns the
// matching Element or null. It runs inside the step script, where the
// helpers declared in stepPrelude are in scope.
type Resolver interface {
	Finder() string
}

// resolverFor selects the resolver variant for the locator's strategy.
func resolverFor(loc scenario.Locator) (Resolver, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	switch loc.Strategy {
	case scenario.StrategyRole:
		return roleResolver{role: loc.Role, name: loc.Name, exact: loc.Exact}, nil
	case scenario.StrategyText:
		return textResolver{text: loc.Text, exact: loc.Exact}, nil
	case scenario.StrategyAttribute:
		return attributeResolver{attribute: loc.Attribute, value: loc.Value, exact: loc.Exact}, nil
	case scenario.StrategyCSS:
		return cssResolver{selector: loc.Selector}, nil
	}
	return nil, fmt.Errorf("%w: unknown strategy %q", scenario.ErrInvalidLocator, loc.Strategy)
}

// implicitRoles maps ARIA roles to the native elements that carry them.
var implicitRoles = map[string][]string{
	"button":      {"button", "input[type=button]", "input[type=submit]", "input[type=reset]", "input[type=image]", "summary"},
	"link":        {"a[href]", "area[href]"},
	"heading":     {"h1", "h2", "h3", "h4", "h5", "h6"},
	"textbox":     {"input:not([type])", "input[type=text]", "input[type=email]", "input[type=password]", "input[type=search]", "input[type=tel]", "input[type=url]", "textarea"},
	"checkbox":    {"input[type=checkbox]"},
	"radio":       {"input[type=radio]"},
	"combobox":    {"select"},
	"img":         {"img[alt]:not([alt=''])", "svg[aria-label]"},
	"navigation":  {"nav"},
	"main":        {"main"},
	"banner":      {"header"},
	"contentinfo": {"footer"},
	"list":        {"ul", "ol"},
	"listitem":    {"li"},
	"form":        {"form"},
	"dialog":      {"dialog"},
	"table":       {"table"},
}

// RoleSelector returns the CSS selector matching explicit and implicit
// carriers of role.
func RoleSelector(role string) string {
	role = strings.ToLower(role)
	parts := []string{fmt.Sprintf("[role=%s]", jsString(role))}
	parts = append(parts, implicitRoles[role]...)
	return strings.Join(parts, ", ")
}

type roleResolver struct {
	role  string
	name  string
	exact bool
}

func (r roleResolver) Finder() string {
	return fmt.Sprintf(`() => {
  const els = Array.from(document.querySelectorAll(%s));
  const want = %s;
  const hits = want === '' ? els : els.filter((el) => __match(__accessibleName(el), want, %t));
  return hits.find(__visible) || hits[0] || null;
}`, jsString(RoleSelector(r.role)), jsString(r.name), r.exact)
}

type textResolver struct {
	text  string
	exact bool
}

func (r textResolver) Finder() string {
	return fmt.Sprintf(`() => {
  if (!document.body) return null;
  const want = %s;
  const hits = Array.from(document.body.querySelectorAll('*')).filter((el) =>
    !['SCRIPT', 'STYLE', 'NOSCRIPT', 'TEMPLATE'].includes(el.tagName) && __match(__text(el), want, %t));
  const leaves = hits.filter((el) => !hits.some((o) => o !== el && el.contains(o)));
  return leaves.find(__visible) || leaves[0] || null;
}`, jsString(r.text), r.exact)
}

type attributeResolver struct {
	attribute string
	value     string
	exact     bool
}

func (r attributeResolver) Finder() string {
	return fmt.Sprintf(`() => {
  const attr = %s;
  const want = %s;
  const els = Array.from(document.querySelectorAll('[' + CSS.escape(attr) + ']'));
  const hits = want === '' ? els : els.filter((el) => __match(el.getAttribute(attr), want, %t));
  return hits.find(__visible) || hits[0] || null;
}`, jsString(r.attribute), jsString(r.value), r.exact)
}

type cssResolver struct {
	selector string
}

func (r cssResolver) Finder() string {
	return fmt.Sprintf(`() => {
  const hits = Array.from(document.querySelectorAll(%s));
  return hits.find(__visible) || hits[0] || null;
}`, jsString(r.selector))
}

// jsString encodes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
