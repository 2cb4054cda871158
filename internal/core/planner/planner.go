// Package planner turns free text into a Plan.
//
// The planner is total: whatever happens upstream (no credential, network
// failure, timeout, garbage payload, even a panicking provider) Interpret
// returns a well-formed Plan, falling back to a fixed "open the mail inbox"
// plan when nothing better is available.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
	"github.com/Lin-Jiong-HDU/jarvis/internal/logging"
	"github.com/Lin-Jiong-HDU/jarvis/internal/metrics"
)

// DefaultTimeout bounds a single interpretation request.
const DefaultTimeout = 20 * time.Second

const fallbackURL = "https://mail.google.com"

// FallbackReason says why the fallback plan was returned.
type FallbackReason string

const (
	ReasonNoCredential   FallbackReason = "no_credential"
	ReasonRequestFailed  FallbackReason = "request_failed"
	ReasonTimeout        FallbackReason = "timeout"
	ReasonEmptyResponse  FallbackReason = "empty_response"
	ReasonInvalidPayload FallbackReason = "invalid_payload"
	ReasonPanic          FallbackReason = "panic"
)

// Fallback returns the plan used whenever interpretation is not possible.
func Fallback() ai.Plan {
	return ai.NewPlan(
		ai.IntentOpenWebsite,
		[]string{"Open browser", "Go to " + fallbackURL},
		map[string]string{"browser": "chrome", "url": fallbackURL},
	)
}

// Planner interprets user text with an external provider.
type Planner struct {
	provider ai.Provider
	timeout  time.Duration
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// Option configures a Planner.
type Option func(*Planner)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Planner) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Planner) { p.logger = l.With("planner") }
}

// WithMetrics records fallbacks and planning latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Planner) { p.metrics = m }
}

// New creates a planner. A nil provider means no credential is configured
// and every call returns the fallback plan without touching the network.
func New(provider ai.Provider, opts ...Option) *Planner {
	p := &Planner{
		provider: provider,
		timeout:  DefaultTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type completion struct {
	content string
	err     error
}

// Interpret returns the plan for userText. It never fails.
func (p *Planner) Interpret(ctx context.Context, userText string) (plan ai.Plan) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			plan = p.fallback(ReasonPanic, fmt.Errorf("panic: %v", r))
		}
		p.metrics.ObservePlan(time.Since(start))
	}()

	if p.provider == nil {
		return p.fallback(ReasonNoCredential, ai.ErrNoCredential)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// The provider runs in its own goroutine so a client that ignores ctx
	// still cannot hold the request past the timeout.
	done := make(chan completion, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- completion{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		content, err := p.provider.Complete(ctx, BuildPrompt(userText))
		done <- completion{content: content, err: err}
	}()

	var res completion
	select {
	case res = <-done:
	case <-ctx.Done():
		return p.fallback(ReasonTimeout, ctx.Err())
	}

	if res.err != nil {
		return p.fallback(classify(ctx, res.err), res.err)
	}
	if strings.TrimSpace(res.content) == "" {
		return p.fallback(ReasonEmptyResponse, ai.ErrEmptyResponse)
	}

	parsed, err := ParsePlan(res.content)
	if err != nil {
		return p.fallback(ReasonInvalidPayload, err)
	}

	if !parsed.Intent().Known() {
		p.logger.Warnf("unrecognized intent %q, passing it through", parsed.Intent())
	}
	p.logger.Debugf("planned intent=%s actions=%d", parsed.Intent(), len(parsed.Actions()))
	return parsed
}

func classify(ctx context.Context, err error) FallbackReason {
	switch {
	case errors.Is(err, ai.ErrNoCredential):
		return ReasonNoCredential
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonRequestFailed
	}
}

func (p *Planner) fallback(reason FallbackReason, err error) ai.Plan {
	if reason == ReasonNoCredential {
		p.logger.Infof("no API key configured, using fallback plan (%s)", reason)
	} else {
		p.logger.Warnf("falling back (%s): %v", reason, err)
	}
	p.metrics.PlanFallback(string(reason))
	return Fallback()
}
