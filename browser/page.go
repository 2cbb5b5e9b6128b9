package browser

import (
	"context"
	"encoding/json"
)

// Page is the driver-level view of one browser tab. Implementations must be
// safe for sequential use by a single run; the Manager never calls a Page
// from more than one goroutine at a time.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// Evaluate runs a JavaScript expression, awaiting a returned promise,
	// and returns the result serialised as JSON.
	Evaluate(ctx context.Context, expr string) (json.RawMessage, error)

	// CaptureScreenshot returns the current viewport as PNG bytes.
	CaptureScreenshot(ctx context.Context) ([]byte, error)

	// AddInitScript registers source to run in every new document and
	// returns an identifier for RemoveInitScript.
	AddInitScript(ctx context.Context, source string) (string, error)

	// RemoveInitScript unregisters a script added by AddInitScript.
	RemoveInitScript(ctx context.Context, id string) error

	// Bind exposes a function called name on window. Each call from the page
	// delivers its string payload on the returned channel.
	Bind(ctx context.Context, name string) (<-chan string, error)

	// Close releases the tab and any process started for it.
	Close(ctx context.Context) error
}

// LaunchOptions configures a new Page.
type LaunchOptions struct {
	// Headless hides the browser window. Interactive authentication needs a
	// visible window.
	Headless bool
}

// Launcher creates Pages.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Page, error)
}
