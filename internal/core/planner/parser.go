package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
)

// ErrInvalidPlan is returned when a payload is not a usable plan.
var ErrInvalidPlan = errors.New("invalid plan payload")

type planPayload struct {
	Intent    *string        `json:"intent"`
	Actions   []string       `json:"actions"`
	Arguments map[string]any `json:"arguments"`
}

// ParsePlan decodes a provider payload into a Plan.
//
// intent must be a non-empty string, actions an array of strings and
// arguments an object. Argument values that are not strings are rendered as
// JSON text.
func ParsePlan(payload string) (ai.Plan, error) {
	cleaned := cleanJSONResponse(payload)

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()

	var p planPayload
	if err := dec.Decode(&p); err != nil {
		return ai.Plan{}, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ai.Plan{}, fmt.Errorf("%w: trailing data after plan object", ErrInvalidPlan)
	}

	switch {
	case p.Intent == nil || strings.TrimSpace(*p.Intent) == "":
		return ai.Plan{}, fmt.Errorf("%w: missing intent", ErrInvalidPlan)
	case p.Actions == nil:
		return ai.Plan{}, fmt.Errorf("%w: missing actions", ErrInvalidPlan)
	case p.Arguments == nil:
		return ai.Plan{}, fmt.Errorf("%w: missing arguments", ErrInvalidPlan)
	}

	args := make(map[string]string, len(p.Arguments))
	for k, v := range p.Arguments {
		s, err := stringify(v)
		if err != nil {
			return ai.Plan{}, fmt.Errorf("%w: argument %q: %v", ErrInvalidPlan, k, err)
		}
		args[k] = s
	}

	return ai.NewPlan(ai.Intent(strings.TrimSpace(*p.Intent)), p.Actions, args), nil
}

func stringify(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// cleanJSONResponse removes markdown code blocks from AI responses
func cleanJSONResponse(response string) string {
	trimmed := strings.TrimSpace(response)

	// Check for ```json at start
	if strings.HasPrefix(trimmed, "```json") {
		trimmed = trimmed[7:]
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
	}

	// Check for ``` at end
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}
