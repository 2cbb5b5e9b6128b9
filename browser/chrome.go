package browser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/mafredri/cdp/devtool"
)

var chromeNames = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"}

type chromeProcess struct {
	cmd         *exec.Cmd
	userDataDir string
	devtoolsURL string
	exited      chan struct{}
}

func startChrome(ctx context.Context, cfg CDPConfig, headless bool, log logger.Logger) (*chromeProcess, error) {
	execPath := cfg.ExecPath
	if execPath == "" {
		for _, name := range chromeNames {
			if p, err := exec.LookPath(name); err == nil {
				execPath = p
				break
			}
		}
	}
	if execPath == "" {
		return nil, errors.New("no Chrome executable found; set browser.exec_path or browser.devtools_url")
	}

	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate debugging port: %w", err)
	}
	dataDir, err := os.MkdirTemp("", "validation-agent-chrome-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	args := []string{
		"--remote-debugging-port=" + strconv.Itoa(port),
		"--user-data-dir=" + dataDir,
		"--no-first-run",
		"--no-default-browser-check",
		fmt.Sprintf("--window-size=%d,%d", cfg.WindowWidth, cfg.WindowHeight),
	}
	if headless {
		args = append(args, "--headless=new", "--hide-scrollbars", "--mute-audio")
	}
	args = append(args, cfg.ExtraArgs...)
	args = append(args, "about:blank")

	cmd := exec.Command(execPath, args...)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(dataDir)
		return nil, fmt.Errorf("failed to start %s: %w", execPath, err)
	}

	proc := &chromeProcess{
		cmd:         cmd,
		userDataDir: dataDir,
		devtoolsURL: "http://127.0.0.1:" + strconv.Itoa(port),
		exited:      make(chan struct{}),
	}
	go func() {
		cmd.Wait()
		close(proc.exited)
	}()

	log.Debug(ctx, "chrome started", map[string]interface{}{
		"pid":      cmd.Process.Pid,
		"port":     port,
		"headless": headless,
	})

	if err := proc.waitReady(ctx, cfg.StartupTimeout); err != nil {
		proc.stop()
		return nil, err
	}
	return proc, nil
}

// waitReady blocks until the DevTools endpoint answers, the process exits
// or the timeout elapses.
func (p *chromeProcess) waitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dt := devtool.New(p.devtoolsURL)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := dt.Version(ctx); err == nil {
			return nil
		}
		select {
		case <-ticker.C:
		case <-p.exited:
			return errors.New("chrome exited before the DevTools endpoint was ready")
		case <-ctx.Done():
			return fmt.Errorf("chrome DevTools endpoint not ready: %w", ctx.Err())
		}
	}
}

func (p *chromeProcess) stop() {
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	select {
	case <-p.exited:
	case <-time.After(5 * time.Second):
	}
	os.RemoveAll(p.userDataDir)
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
