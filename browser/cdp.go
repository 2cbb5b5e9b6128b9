package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/page"
	"github.com/mafredri/cdp/protocol/runtime"
	"github.com/mafredri/cdp/rpcc"
)

// CDPConfig configures the Chrome DevTools Protocol launcher.
type CDPConfig struct {
	// DevToolsURL attaches to an already running browser, for example
	// http://127.0.0.1:9222. When empty a local Chrome is started per page.
	DevToolsURL string

	// ExecPath is the Chrome binary. Common install names are searched
	// when empty.
	ExecPath       string
	ExtraArgs      []string
	WindowWidth    int
	WindowHeight   int
	StartupTimeout time.Duration
}

// CDPLauncher creates Pages backed by Chrome over the DevTools protocol.
type CDPLauncher struct {
	config CDPConfig
	logger logger.Logger
}

// NewCDPLauncher creates a CDPLauncher.
func NewCDPLauncher(config CDPConfig, log logger.Logger) *CDPLauncher {
	if config.StartupTimeout <= 0 {
		config.StartupTimeout = 20 * time.Second
	}
	if config.WindowWidth <= 0 || config.WindowHeight <= 0 {
		config.WindowWidth, config.WindowHeight = 1366, 900
	}
	return &CDPLauncher{config: config, logger: log}
}

// Launch opens a new tab. With no DevToolsURL configured it starts a
// dedicated Chrome process that is killed when the page closes.
func (l *CDPLauncher) Launch(ctx context.Context, opts LaunchOptions) (Page, error) {
	devtoolsURL := l.config.DevToolsURL
	var proc *chromeProcess
	if devtoolsURL == "" {
		var err error
		proc, err = startChrome(ctx, l.config, opts.Headless, l.logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
		}
		devtoolsURL = proc.devtoolsURL
	} else if !opts.Headless {
		l.logger.Warn(ctx, "interactive session requested on a remote browser; window visibility depends on how it was started", map[string]interface{}{
			"devtools_url": devtoolsURL,
		})
	}

	p, err := attach(ctx, devtoolsURL, proc)
	if err != nil {
		if proc != nil {
			proc.stop()
		}
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	return p, nil
}

type cdpPage struct {
	devtools *devtool.DevTools
	target   *devtool.Target
	conn     *rpcc.Conn
	client   *cdp.Client
	proc     *chromeProcess

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	bindings map[string]chan string
	listen   sync.Once
}

func attach(ctx context.Context, devtoolsURL string, proc *chromeProcess) (*cdpPage, error) {
	dt := devtool.New(devtoolsURL)

	var target *devtool.Target
	var err error
	if proc != nil {
		target, err = dt.Get(ctx, devtool.Page)
	}
	if target == nil || err != nil {
		target, err = dt.Create(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create target: %w", err)
		}
	}

	conn, err := rpcc.DialContext(ctx, target.WebSocketDebuggerURL)
	if err != nil {
		dt.Close(context.WithoutCancel(ctx), target)
		return nil, fmt.Errorf("failed to connect to target: %w", err)
	}
	client := cdp.NewClient(conn)

	if err := client.Page.Enable(ctx); err != nil {
		conn.Close()
		dt.Close(context.WithoutCancel(ctx), target)
		return nil, fmt.Errorf("failed to enable page domain: %w", err)
	}
	if err := client.Runtime.Enable(ctx); err != nil {
		conn.Close()
		dt.Close(context.WithoutCancel(ctx), target)
		return nil, fmt.Errorf("failed to enable runtime domain: %w", err)
	}

	pctx, cancel := context.WithCancel(context.Background())
	return &cdpPage{
		devtools: dt,
		target:   target,
		conn:     conn,
		client:   client,
		proc:     proc,
		ctx:      pctx,
		cancel:   cancel,
		bindings: make(map[string]chan string),
	}, nil
}

func (p *cdpPage) Navigate(ctx context.Context, url string) error {
	loaded, err := p.client.Page.LoadEventFired(ctx)
	if err != nil {
		return err
	}
	defer loaded.Close()

	reply, err := p.client.Page.Navigate(ctx, page.NewNavigateArgs(url))
	if err != nil {
		return err
	}
	if reply.ErrorText != nil && *reply.ErrorText != "" {
		return errors.New(*reply.ErrorText)
	}
	if reply.LoaderID == nil {
		// Same-document navigation fires no load event.
		return nil
	}
	_, err = loaded.Recv()
	return err
}

func (p *cdpPage) Evaluate(ctx context.Context, expr string) (json.RawMessage, error) {
	args := runtime.NewEvaluateArgs(expr).
		SetReturnByValue(true).
		SetAwaitPromise(true)
	reply, err := p.client.Runtime.Evaluate(ctx, args)
	if err != nil {
		return nil, err
	}
	if ex := reply.ExceptionDetails; ex != nil {
		msg := ex.Text
		if ex.Exception != nil && ex.Exception.Description != nil {
			msg = *ex.Exception.Description
		}
		return nil, fmt.Errorf("script exception: %s", msg)
	}
	return reply.Result.Value, nil
}

func (p *cdpPage) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	reply, err := p.client.Page.CaptureScreenshot(ctx, page.NewCaptureScreenshotArgs().SetFormat("png"))
	if err != nil {
		return nil, err
	}
	return reply.Data, nil
}

func (p *cdpPage) AddInitScript(ctx context.Context, source string) (string, error) {
	reply, err := p.client.Page.AddScriptToEvaluateOnNewDocument(ctx, page.NewAddScriptToEvaluateOnNewDocumentArgs(source))
	if err != nil {
		return "", err
	}
	return string(reply.Identifier), nil
}

func (p *cdpPage) RemoveInitScript(ctx context.Context, id string) error {
	return p.client.Page.RemoveScriptToEvaluateOnNewDocument(ctx,
		page.NewRemoveScriptToEvaluateOnNewDocumentArgs(page.ScriptIdentifier(id)))
}

func (p *cdpPage) Bind(ctx context.Context, name string) (<-chan string, error) {
	var listenErr error
	p.listen.Do(func() {
		stream, err := p.client.Runtime.BindingCalled(p.ctx)
		if err != nil {
			listenErr = err
			return
		}
		go p.dispatchBindings(stream)
	})
	if listenErr != nil {
		return nil, listenErr
	}

	ch := make(chan string, 1)
	p.mu.Lock()
	p.bindings[name] = ch
	p.mu.Unlock()

	if err := p.client.Runtime.AddBinding(ctx, runtime.NewAddBindingArgs(name)); err != nil {
		p.mu.Lock()
		delete(p.bindings, name)
		p.mu.Unlock()
		return nil, err
	}
	return ch, nil
}

func (p *cdpPage) dispatchBindings(stream runtime.BindingCalledClient) {
	defer stream.Close()
	for {
		ev, err := stream.Recv()
		if err != nil {
			return
		}
		p.mu.Lock()
		ch, ok := p.bindings[ev.Name]
		p.mu.Unlock()
		if !ok {
			continue
		}
		select {
		case ch <- ev.Payload:
		default:
		}
	}
}

func (p *cdpPage) Close(ctx context.Context) error {
	p.cancel()
	var errs []error
	if err := p.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close connection: %w", err))
	}
	if p.proc != nil {
		p.proc.stop()
		return errors.Join(errs...)
	}
	if err := p.devtools.Close(ctx, p.target); err != nil {
		errs = append(errs, fmt.Errorf("close target: %w", err))
	}
	return errors.Join(errs...)
}
