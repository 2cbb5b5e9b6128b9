// Package browsertest provides in-memory browser drivers for tests.
package browsertest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hairizuanbinnoorazman/validation-agent/browser"
)

// EvaluateFunc answers a script evaluation.
type EvaluateFunc func(ctx context.Context, expr string) (json.RawMessage, error)

// Page is a scripted browser.Page.
type Page struct {
	mu sync.Mutex

	NavigateErr error
	// NavigateBlocks makes Navigate wait for its context to end, like a
	// page whose load event never fires.
	NavigateBlocks bool
	Evaluator   EvaluateFunc
	Shot        []byte
	ShotErr     error

	navigated   []string
	evaluated   []string
	initScripts map[string]string
	nextID      int
	bindings    map[string]chan string
	closeCount  int
}

// NewPage returns a page whose scripts all succeed.
func NewPage() *Page {
	return &Page{
		Shot:        []byte("\x89PNG"),
		initScripts: map[string]string{},
		bindings:    map[string]chan string{},
	}
}

// Present answers ok for scripts that mention any of needles and
// not_found for the rest, mimicking a page containing those elements.
func Present(needles ...string) EvaluateFunc {
	return func(_ context.Context, expr string) (json.RawMessage, error) {
		for _, n := range needles {
			if strings.Contains(expr, n) {
				return json.RawMessage(`{"status":"ok","value":""}`), nil
			}
		}
		return json.RawMessage(`{"status":"not_found"}`), nil
	}
}

// Reply answers every script with the given result.
func Reply(status, value, detail string) EvaluateFunc {
	return func(context.Context, string) (json.RawMessage, error) {
		b, _ := json.Marshal(map[string]string{"status": status, "value": value, "detail": detail})
		return b, nil
	}
}

// Markup answers every script with html, as the page serialiser would.
func Markup(html string) EvaluateFunc {
	return func(context.Context, string) (json.RawMessage, error) {
		return json.Marshal(html)
	}
}

// Document answers the page serialiser with html and every other script
// like Present(needles...).
func Document(html string, needles ...string) EvaluateFunc {
	markup, present := Markup(html), Present(needles...)
	return func(ctx context.Context, expr string) (json.RawMessage, error) {
		if strings.Contains(expr, "outerHTML") {
			return markup(ctx, expr)
		}
		return present(ctx, expr)
	}
}

// Block waits for the context to end, like a script that never settles.
func Block() EvaluateFunc {
	return func(ctx context.Context, _ string) (json.RawMessage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.navigated = append(p.navigated, url)
	err := p.NavigateErr
	blocks := p.NavigateBlocks
	p.mu.Unlock()
	if blocks {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (p *Page) Evaluate(ctx context.Context, expr string) (json.RawMessage, error) {
	p.mu.Lock()
	p.evaluated = append(p.evaluated, expr)
	fn := p.Evaluator
	p.mu.Unlock()
	if fn == nil {
		return json.RawMessage(`{"status":"ok","value":""}`), nil
	}
	return fn(ctx, expr)
}

func (p *Page) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Shot, p.ShotErr
}

func (p *Page) AddInitScript(ctx context.Context, source string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := fmt.Sprintf("script-%d", p.nextID)
	p.initScripts[id] = source
	return id, nil
}

func (p *Page) RemoveInitScript(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.initScripts[id]; !ok {
		return errors.New("unknown script")
	}
	delete(p.initScripts, id)
	return nil
}

func (p *Page) Bind(ctx context.Context, name string) (<-chan string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan string, 1)
	p.bindings[name] = ch
	return ch, nil
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCount++
	return nil
}

// CallBinding simulates the page calling window[name](payload).
func (p *Page) CallBinding(name, payload string) bool {
	p.mu.Lock()
	ch, ok := p.bindings[name]
	p.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- payload:
		return true
	default:
		return false
	}
}

// HasBinding reports whether name was bound.
func (p *Page) HasBinding(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.bindings[name]
	return ok
}

// Navigated returns the URLs passed to Navigate.
func (p *Page) Navigated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigated...)
}

// Evaluated returns every evaluated script.
func (p *Page) Evaluated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.evaluated...)
}

// InitScripts returns the registered init scripts.
func (p *Page) InitScripts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.initScripts))
	for _, s := range p.initScripts {
		out = append(out, s)
	}
	return out
}

// Closes returns how many times Close was called.
func (p *Page) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCount
}

// Launcher hands out a fixed Page.
type Launcher struct {
	mu       sync.Mutex
	Page     *Page
	Err      error
	launched []browser.LaunchOptions
}

// NewLauncher returns a Launcher for page.
func NewLauncher(page *Page) *Launcher {
	return &Launcher{Page: page}
}

func (l *Launcher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launched = append(l.launched, opts)
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Page, nil
}

// Launched returns the options of every Launch call.
func (l *Launcher) Launched() []browser.LaunchOptions {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]browser.LaunchOptions(nil), l.launched...)
}

// Screenshots is an in-memory browser.ScreenshotSaver.
type Screenshots struct {
	mu    sync.Mutex
	Err   error
	saved []string
}

func (s *Screenshots) SaveScreenshot(ctx context.Context, runID, label string, png []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	ref := fmt.Sprintf("mem://%s/%s/%d", runID, label, len(s.saved))
	s.saved = append(s.saved, ref)
	return ref, nil
}

// Saved returns every stored reference.
func (s *Screenshots) Saved() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.saved...)
}
