package core

import (
	"context"
	"strings"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/execution"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/platform"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/script"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/security"
	"github.com/Lin-Jiong-HDU/jarvis/internal/logging"
	"github.com/Lin-Jiong-HDU/jarvis/internal/metrics"
)

const (
	MessageBlocked     = "Blocked potentially dangerous command."
	MessageExecuted    = "Command executed successfully."
	MessageNoScript    = "No script generated (unsupported platform)."
	MessageChatDefault = "I'm here to help you automate things!"
	MessageCancelled   = "Cancelled, no script generated."
	MessageNotLaunched = "Script generated but could not be launched."
)

// Branch is the path a request took through the engine.
type Branch string

const (
	BranchBlocked  Branch = "blocked"
	BranchChat     Branch = "chat"
	BranchAutomate Branch = "automate"
)

// Request is one natural-language command.
type Request struct {
	Text string `json:"text"`
	// Platform is optional; the host platform is used when empty.
	Platform string `json:"platform,omitempty"`
}

// Outcome is the result reported back to the caller.
type Outcome struct {
	Message    string   `json:"message"`
	Platform   string   `json:"platform"`
	ScriptPath string   `json:"script_path,omitempty"`
	Actions    []string `json:"actions"`
	Blocked    bool     `json:"blocked"`
	Reason     string   `json:"reason,omitempty"`

	Branch Branch `json:"-"`
}

// Interpreter turns text into a plan. Implementations must not fail.
type Interpreter interface {
	Interpret(ctx context.Context, text string) ai.Plan
}

// Synthesizer writes the script for a plan.
type Synthesizer interface {
	Synthesize(plan ai.Plan, p platform.Platform) (script.Result, error)
}

// Dispatcher launches a script file. A nil Handle means nothing was launched.
type Dispatcher interface {
	Dispatch(path string, p platform.Platform) *execution.Handle
}

// Confirmer approves an automation before its script is written. It is
// optional and only set by interactive front ends.
type Confirmer interface {
	Confirm(plan ai.Plan, p platform.Platform) bool
}

// Recorder keeps a record of processed commands.
type Recorder interface {
	Record(req Request, out Outcome) error
}

// Engine runs the plan, check, synthesize, dispatch pipeline.
type Engine struct {
	planner    Interpreter
	policy     security.Policy
	synth      Synthesizer
	dispatcher Dispatcher
	confirm    Confirmer
	recorder   Recorder

	host    func() platform.Platform
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l.With("engine") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithConfirmer asks c before every automation.
func WithConfirmer(c Confirmer) Option {
	return func(e *Engine) { e.confirm = c }
}

// WithRecorder records every outcome. Recording failures are logged only.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithHostPlatform overrides host detection for requests without a platform.
func WithHostPlatform(fn func() platform.Platform) Option {
	return func(e *Engine) { e.host = fn }
}

// NewEngine creates an engine. A nil policy allows everything.
func NewEngine(planner Interpreter, policy security.Policy, synth Synthesizer, dispatcher Dispatcher, opts ...Option) *Engine {
	if policy == nil {
		policy = security.Chain{}
	}
	e := &Engine{
		planner:    planner,
		policy:     policy,
		synth:      synth,
		dispatcher: dispatcher,
		host:       platform.Host,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Process handles one request from text to outcome. It never returns an
// error: upstream failures become the fallback plan, unsafe plans are
// blocked and unsupported platforms are reported in the message.
func (e *Engine) Process(ctx context.Context, req Request) Outcome {
	target := e.resolvePlatform(req.Platform)

	plan := e.planner.Interpret(ctx, req.Text)
	e.logger.Debugf("plan intent=%s platform=%s", plan.Intent(), target)

	var out Outcome
	if verdict := e.policy.Check(plan); !verdict.Safe {
		out = e.blocked(plan, target, verdict)
	} else if plan.Intent() == ai.IntentChat {
		out = e.chat(plan, target)
	} else {
		out = e.automate(plan, target)
	}

	e.metrics.Command(string(out.Branch), target.Label())
	if e.recorder != nil {
		if err := e.recorder.Record(req, out); err != nil {
			e.logger.Warnf("failed to record command: %v", err)
		}
	}
	return out
}

func (e *Engine) resolvePlatform(hint string) platform.Platform {
	if strings.TrimSpace(hint) == "" {
		return e.host()
	}
	return platform.Parse(hint)
}

func (e *Engine) blocked(plan ai.Plan, target platform.Platform, v security.Verdict) Outcome {
	e.logger.Warnf("blocked intent=%s: %s", plan.Intent(), v.Reason)
	return Outcome{
		Message:  MessageBlocked,
		Platform: string(target),
		Actions:  plan.Actions(),
		Blocked:  true,
		Reason:   v.Reason,
		Branch:   BranchBlocked,
	}
}

func (e *Engine) chat(plan ai.Plan, target platform.Platform) Outcome {
	actions := plan.Actions()
	if len(actions) == 0 {
		actions = []string{"reply"}
	}
	return Outcome{
		Message:  plan.Argument("response", MessageChatDefault),
		Platform: string(target),
		Actions:  actions,
		Branch:   BranchChat,
	}
}

func (e *Engine) automate(plan ai.Plan, target platform.Platform) Outcome {
	out := Outcome{
		Platform: string(target),
		Actions:  plan.Actions(),
		Branch:   BranchAutomate,
	}

	if e.confirm != nil && !e.confirm.Confirm(plan, target) {
		e.logger.Infof("automation declined intent=%s", plan.Intent())
		out.Message = MessageCancelled
		return out
	}

	res, err := e.synth.Synthesize(plan, target)
	if err != nil {
		e.logger.Errorf("script synthesis failed: %v", err)
		out.Message = "No script generated: " + err.Error()
		return out
	}
	if res.Path == "" {
		out.Message = MessageNoScript
		return out
	}

	out.ScriptPath = res.Path
	if h := e.dispatcher.Dispatch(res.Path, target); h == nil {
		out.Message = MessageNotLaunched
		return out
	}
	out.Message = MessageExecuted
	return out
}
