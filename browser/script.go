package browser

import (
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
)

// Step scripts resolve to {status, value, detail}. status is one of ok,
// not_found, failed or error.
const (
	statusOK       = "ok"
	statusNotFound = "not_found"
	statusFailed   = "failed"
	statusError    = "error"
)

// stepPrelude declares the helpers shared by resolvers and action bodies.
// __until waits for pred to return a truthy value, re-checking on DOM
// mutations and history changes, and resolves null when the timeout fires.
const stepPrelude = `
const __norm = (s) => String(s == null ? '' : s).replace(/\s+/g, ' ').trim();
const __match = (actual, want, exact) => exact
  ? __norm(actual) === __norm(want)
  : __norm(actual).toLowerCase().includes(__norm(want).toLowerCase());
const __text = (el) => el.innerText !== undefined ? el.innerText : el.textContent;
const __visible = (el) => {
  if (!el || !el.isConnected) return false;
  const style = getComputedStyle(el);
  if (style.visibility === 'hidden' || style.display === 'none' || style.opacity === '0') return false;
  return el.getClientRects().length > 0;
};
const __accessibleName = (el) => {
  const label = el.getAttribute('aria-label');
  if (label) return label;
  const by = el.getAttribute('aria-labelledby');
  if (by) {
    const text = by.split(/\s+/).map((id) => document.getElementById(id)).filter(Boolean).map(__text).join(' ');
    if (__norm(text)) return text;
  }
  if (el.id) {
    const forLabel = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
    if (forLabel) return __text(forLabel);
  }
  return el.getAttribute('alt') || el.getAttribute('title') || __text(el) || el.getAttribute('placeholder') || el.value || '';
};
const __until = (pred, timeout) => new Promise((resolve) => {
  let done = false;
  let obs = null;
  let timer = null;
  const finish = (v) => {
    if (done) return;
    done = true;
    if (obs) obs.disconnect();
    clearTimeout(timer);
    window.removeEventListener('popstate', poke);
    window.removeEventListener('hashchange', poke);
    resolve(v);
  };
  const poke = () => {
    let v = null;
    try { v = pred(); } catch (e) { v = null; }
    if (v) finish(v);
  };
  timer = setTimeout(() => finish(null), timeout);
  obs = new MutationObserver(poke);
  obs.observe(document, { childList: true, subtree: true, attributes: true, characterData: true });
  window.addEventListener('popstate', poke);
  window.addEventListener('hashchange', poke);
  poke();
});
const __ok = (value) => ({ status: 'ok', value: value == null ? '' : String(value) });
const __notFound = (detail) => ({ status: 'not_found', detail });
const __failed = (detail) => ({ status: 'failed', detail });
`

// buildStepScript assembles the self-contained expression executed for an
// element or URL step.
func buildStepScript(st scenario.Step, finder string, timeout time.Duration) string {
	return fmt.Sprintf(`(async () => {
try {
%s
const __find = %s;
const __timeout = %d;
%s
} catch (e) {
  return { status: 'error', detail: String(e && e.message ? e.message : e) };
}
})()`, stepPrelude, finderOrNull(finder), timeout.Milliseconds(), actionBody(st))
}

func finderOrNull(finder string) string {
	if finder == "" {
		return "() => null"
	}
	return finder
}

func actionBody(st scenario.Step) string {
	switch st.Action {
	case scenario.ActionClick:
		return `const el = await __until(() => { const e = __find(); return __visible(e) ? e : null; }, __timeout);
if (!el) return __find() ? __failed('element present but not visible') : __notFound('no matching element');
el.scrollIntoView({ block: 'center', inline: 'center' });
el.click();
return __ok('');`

	case scenario.ActionType:
		return fmt.Sprintf(`const el = await __until(() => { const e = __find(); return __visible(e) ? e : null; }, __timeout);
if (!el) return __find() ? __failed('element present but not visible') : __notFound('no matching element');
const text = %s;
el.focus();
if ('value' in el) {
  const desc = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), 'value');
  if (desc && desc.set) { desc.set.call(el, text); } else { el.value = text; }
} else if (el.isContentEditable) {
  el.textContent = text;
} else {
  return { status: 'error', detail: 'element is not editable' };
}
el.dispatchEvent(new Event('input', { bubbles: true }));
el.dispatchEvent(new Event('change', { bubbles: true }));
return __ok('');`, jsString(st.Value))

	case scenario.ActionAssertVisible:
		return `const el = await __until(() => { const e = __find(); return __visible(e) ? e : null; }, __timeout);
if (!el) return __find() ? __failed('element present but not visible') : __notFound('no matching element');
return __ok('');`

	case scenario.ActionAssertHidden:
		return `const gone = await __until(() => (__visible(__find()) ? null : true), __timeout);
if (!gone) return __failed('element is still visible');
return __ok('');`

	case scenario.ActionAssertText:
		return fmt.Sprintf(`const want = %s;
const el = await __until(() => { const e = __find(); return e && __match(__text(e), want, %t) ? e : null; }, __timeout);
if (el) return __ok(__norm(__text(el)));
const found = __find();
if (!found) return __notFound('no matching element');
return __failed('expected text ' + JSON.stringify(want) + ', got ' + JSON.stringify(__norm(__text(found))));`,
			jsString(st.Expected), st.Locator != nil && st.Locator.Exact)

	case scenario.ActionReadText:
		return `const el = await __until(__find, __timeout);
if (!el) return __notFound('no matching element');
return __ok(__norm(__text(el)));`

	case scenario.ActionReadAttribute:
		return fmt.Sprintf(`const attr = %s;
const want = %s;
const el = await __until(__find, __timeout);
if (!el) return __notFound('no matching element');
const value = el.getAttribute(attr);
if (value === null) return __failed('attribute ' + JSON.stringify(attr) + ' is not present');
if (want !== '' && value !== want) return __failed('expected ' + attr + '=' + JSON.stringify(want) + ', got ' + JSON.stringify(value));
return __ok(value);`, jsString(st.Attribute), jsString(st.Expected))

	case scenario.ActionAssertURL:
		return fmt.Sprintf(`const want = %s;
const hit = await __until(() => (location.href.includes(want) ? location.href : null), __timeout);
if (hit) return __ok(hit);
return __failed('expected URL containing ' + JSON.stringify(want) + ', got ' + JSON.stringify(location.href));`, jsString(st.Expected))
	}

	return fmt.Sprintf(`return { status: 'error', detail: %s };`, jsString("unsupported action "+string(st.Action)))
}

// pageHTMLScript returns the serialised document.
const pageHTMLScript = `document.documentElement ? document.documentElement.outerHTML : ''`
