package auth

import "fmt"

// SignalBinding is the page function the overlay button calls.
const SignalBinding = "__validationAgentSignedIn"

const overlayID = "__validation-agent-auth"

// overlayScript draws a banner with an "I'm signed in" button. It is
// registered as an init script so it reappears on every document the login
// flow passes through.
func overlayScript(runID string) string {
	return fmt.Sprintf(`(() => {
  if (window.__validationAgentAuthDone) return;
  const draw = () => {
    if (document.getElementById(%[1]q) || !document.body) return;
    const bar = document.createElement('div');
    bar.id = %[1]q;
    bar.setAttribute('role', 'dialog');
    bar.setAttribute('aria-label', 'Validation agent sign-in');
    bar.style.cssText = 'position:fixed;z-index:2147483647;right:16px;bottom:16px;padding:12px 16px;' +
      'background:#1f2937;color:#fff;font:14px/1.4 sans-serif;border-radius:8px;box-shadow:0 4px 12px rgba(0,0,0,.3);';
    const text = document.createElement('span');
    text.textContent = 'Sign in to continue the test run (' + %[2]q + '). ';
    const button = document.createElement('button');
    button.type = 'button';
    button.textContent = "I'm signed in";
    button.style.cssText = 'margin-left:8px;padding:4px 10px;cursor:pointer;';
    button.addEventListener('click', () => {
      button.disabled = true;
      button.textContent = 'Continuing...';
      if (typeof window[%[3]q] === 'function') window[%[3]q]('signed-in');
    });
    bar.append(text, button);
    document.body.appendChild(bar);
  };
  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', draw, { once: true });
  } else {
    draw();
  }
})();`, overlayID, runID, SignalBinding)
}

var overlayCleanup = fmt.Sprintf(`(() => {
  window.__validationAgentAuthDone = true;
  const bar = document.getElementById(%q);
  if (bar) bar.remove();
})();`, overlayID)
