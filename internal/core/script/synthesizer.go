// Package script turns approved plans into AutoHotkey or AppleScript files.
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/platform"
	"github.com/Lin-Jiong-HDU/jarvis/internal/logging"
	"github.com/google/uuid"
)

// Result describes a synthesized script. Path is empty when nothing was
// written because the platform has no generator.
type Result struct {
	Path string
}

// Synthesizer maps plans to script files under one output directory.
type Synthesizer struct {
	dir        string
	generators map[platform.Platform]Generator
	now        func() time.Time
	suffix     func() string
	logger     *logging.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithGenerator registers (or replaces) the generator for p.
func WithGenerator(p platform.Platform, g Generator) Option {
	return func(s *Synthesizer) { s.generators[p] = g }
}

// WithClock overrides time.Now for file names.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Synthesizer) { s.logger = l.With("script") }
}

// New creates a synthesizer writing into dir, with the AutoHotkey generator
// for Windows and the AppleScript generator for macOS.
func New(dir string, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		dir: dir,
		generators: map[platform.Platform]Generator{
			platform.Windows: NewAHKGenerator(),
			platform.Mac:     NewAppleScriptGenerator(),
		},
		now:    time.Now,
		suffix: randomSuffix,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dir returns the output directory.
func (s *Synthesizer) Dir() string {
	return s.dir
}

// Render returns the script source and extension for plan on p without
// touching the filesystem. ok is false when p has no generator.
func (s *Synthesizer) Render(plan ai.Plan, p platform.Platform) (source, ext string, ok bool) {
	g, found := s.generators[p]
	if !found {
		return "", "", false
	}
	return g.Generate(plan), g.Extension(), true
}

// Synthesize writes the script for plan to a new file and returns its path.
// Unsupported platforms yield an empty Result and no error.
func (s *Synthesizer) Synthesize(plan ai.Plan, p platform.Platform) (Result, error) {
	source, ext, ok := s.Render(plan, p)
	if !ok {
		s.logger.Debugf("no generator for platform %q", p)
		return Result{}, nil
	}

	name := s.fileName(ext)
	path := filepath.Join(s.dir, name)

	// O_EXCL: generated files are create-once, never overwritten.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create script file: %w", err)
	}
	if _, err := f.WriteString(source); err != nil {
		f.Close()
		return Result{}, fmt.Errorf("failed to write script file: %w", err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close script file: %w", err)
	}

	s.logger.Infof("wrote %s script %s", p, path)
	return Result{Path: path}, nil
}

// fileName returns cmd_<YYYYmmdd_HHMMSS>_<suffix><ext>.
func (s *Synthesizer) fileName(ext string) string {
	return fmt.Sprintf("cmd_%s_%s%s", s.now().Format("20060102_150405"), s.suffix(), ext)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
