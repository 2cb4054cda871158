package ai

import (
	"encoding/json"
	"sort"
	"strings"
)

// Intent is the tag the planner attaches to a user command.
//
// Values outside the known set are kept as-is so later stages can degrade
// gracefully instead of rejecting the plan.
type Intent string

const (
	IntentOpenWebsite Intent = "open_website"
	IntentOpenApp     Intent = "open_app"
	IntentTypeText    Intent = "type_text"
	IntentChat        Intent = "chat"
	IntentUnknown     Intent = "unknown"
)

// Known reports whether the intent is one of the four planner intents.
func (i Intent) Known() bool {
	switch i {
	case IntentOpenWebsite, IntentOpenApp, IntentTypeText, IntentChat:
		return true
	}
	return false
}

// Plan is the structured representation of a user command.
//
// A Plan is immutable: NewPlan copies its inputs and every accessor returns a
// copy, so plans can be shared between goroutines without locking.
type Plan struct {
	intent    Intent
	actions   []string
	arguments map[string]string
}

// NewPlan builds a plan. An empty intent becomes IntentUnknown, nil actions and
// arguments become empty collections.
func NewPlan(intent Intent, actions []string, arguments map[string]string) Plan {
	if strings.TrimSpace(string(intent)) == "" {
		intent = IntentUnknown
	}

	a := make([]string, len(actions))
	copy(a, actions)

	args := make(map[string]string, len(arguments))
	for k, v := range arguments {
		args[k] = v
	}

	return Plan{intent: intent, actions: a, arguments: args}
}

// Intent returns the plan intent. It is never empty for plans built with NewPlan.
func (p Plan) Intent() Intent {
	if p.intent == "" {
		return IntentUnknown
	}
	return p.intent
}

// Actions returns a copy of the human-readable steps.
func (p Plan) Actions() []string {
	a := make([]string, len(p.actions))
	copy(a, p.actions)
	return a
}

// Arguments returns a copy of the argument map.
func (p Plan) Arguments() map[string]string {
	args := make(map[string]string, len(p.arguments))
	for k, v := range p.arguments {
		args[k] = v
	}
	return args
}

// Argument returns the value stored under key, or def when the key is absent.
func (p Plan) Argument(key, def string) string {
	if v, ok := p.arguments[key]; ok {
		return v
	}
	return def
}

// ArgumentKeys returns the argument keys in sorted order.
func (p Plan) ArgumentKeys() []string {
	keys := make([]string, 0, len(p.arguments))
	for k := range p.arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type planJSON struct {
	Intent    Intent            `json:"intent"`
	Actions   []string          `json:"actions"`
	Arguments map[string]string `json:"arguments"`
}

// MarshalJSON renders the plan in the same shape the planner asks for.
func (p Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(planJSON{
		Intent:    p.Intent(),
		Actions:   p.Actions(),
		Arguments: p.Arguments(),
	})
}
