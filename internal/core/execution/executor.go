// Package execution launches generated scripts with the platform interpreter.
package execution

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/Lin-Jiong-HDU/jarvis/internal/core/platform"
	"github.com/Lin-Jiong-HDU/jarvis/internal/logging"
	"github.com/Lin-Jiong-HDU/jarvis/internal/metrics"
)

const (
	DefaultAHKPath       = `D:\AutoHotkey\v2\AutoHotkey64.exe`
	DefaultOsascriptPath = "osascript"
)

var (
	ErrScriptNotFound      = errors.New("script not found")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Config holds the interpreter binaries per platform.
type Config struct {
	AHKPath       string `mapstructure:"ahk_path"`
	OsascriptPath string `mapstructure:"osascript_path"`
}

// DefaultConfig returns the stock interpreter locations.
func DefaultConfig() Config {
	return Config{AHKPath: DefaultAHKPath, OsascriptPath: DefaultOsascriptPath}
}

// ExitStatus is reported once a launched script exits.
type ExitStatus struct {
	Code int
	Err  error
}

// Handle refers to a launched script process.
type Handle struct {
	Path     string
	Platform platform.Platform
	PID      int

	done chan ExitStatus
}

// Done delivers the exit status once, then is closed.
func (h *Handle) Done() <-chan ExitStatus {
	return h.done
}

// Dispatcher starts scripts without waiting for them.
type Dispatcher struct {
	interpreters map[platform.Platform]string
	onExit       func(*Handle, ExitStatus)
	logger       *logging.Logger
	metrics      *metrics.Metrics

	wg sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithInterpreter overrides the binary used for p.
func WithInterpreter(p platform.Platform, bin string) Option {
	return func(d *Dispatcher) { d.interpreters[p] = bin }
}

// WithExitCallback registers fn to run after every launched script exits.
func WithExitCallback(fn func(*Handle, ExitStatus)) Option {
	return func(d *Dispatcher) { d.onExit = fn }
}

func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) { d.logger = l.With("dispatch") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New creates a dispatcher. Empty config fields fall back to the defaults.
func New(cfg Config, opts ...Option) *Dispatcher {
	if cfg.AHKPath == "" {
		cfg.AHKPath = DefaultAHKPath
	}
	if cfg.OsascriptPath == "" {
		cfg.OsascriptPath = DefaultOsascriptPath
	}

	d := &Dispatcher{
		interpreters: map[platform.Platform]string{
			platform.Windows: cfg.AHKPath,
			platform.Mac:     cfg.OsascriptPath,
		},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Dispatch launches the script at path with the interpreter for p and returns
// immediately. It returns nil when nothing was launched: empty path, missing
// file, unsupported platform or a failed start. Those cases are logged only.
func (d *Dispatcher) Dispatch(path string, p platform.Platform) *Handle {
	if path == "" {
		d.logger.Debugf("no script to dispatch")
		return nil
	}

	bin, err := d.resolve(path, p)
	if err != nil {
		d.logger.Warnf("skipping %s: %v", path, err)
		d.metrics.Launch(p.Label(), "skipped")
		return nil
	}

	cmd := exec.Command(bin, path)
	configureCommandProcess(cmd)

	if err := cmd.Start(); err != nil {
		d.logger.Errorf("failed to launch %s with %s: %v", path, bin, err)
		d.metrics.Launch(p.Label(), "failed")
		return nil
	}

	h := &Handle{
		Path:     path,
		Platform: p,
		PID:      cmd.Process.Pid,
		done:     make(chan ExitStatus, 1),
	}
	d.logger.Infof("launched %s (pid %d)", path, h.PID)
	d.metrics.Launch(p.Label(), "started")

	d.wg.Add(1)
	go d.wait(cmd, h)

	return h
}

// Wait blocks until every launched script has exited. Servers never call it;
// it lets one-shot commands and tests collect their children.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) resolve(path string, p platform.Platform) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrScriptNotFound
		}
		return "", fmt.Errorf("failed to stat script: %w", err)
	}

	bin, ok := d.interpreters[p]
	if !ok || bin == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, p)
	}
	return bin, nil
}

func (d *Dispatcher) wait(cmd *exec.Cmd, h *Handle) {
	defer d.wg.Done()

	status := ExitStatus{}
	if err := cmd.Wait(); err != nil {
		status.Err = err
		status.Code = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status.Code = exitErr.ExitCode()
		}
	}

	if status.Err != nil {
		d.logger.Warnf("%s exited with code %d: %v", h.Path, status.Code, status.Err)
	} else {
		d.logger.Debugf("%s exited cleanly", h.Path)
	}

	h.done <- status
	close(h.done)

	if d.onExit != nil {
		d.onExit(h, status)
	}
}
