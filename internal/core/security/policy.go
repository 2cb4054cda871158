package security

import (
	"fmt"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
)

// Verdict is the outcome of a policy check.
type Verdict struct {
	Safe bool
	// Reason is set iff Safe is false.
	Reason string
	// Keyword is the denylist entry that matched, if any.
	Keyword string
}

// Allow is the verdict for a plan that passed.
func Allow() Verdict {
	return Verdict{Safe: true}
}

// Block returns a blocking verdict with a formatted reason.
func Block(format string, args ...any) Verdict {
	return Verdict{Safe: false, Reason: fmt.Sprintf(format, args...)}
}

// Policy decides whether a plan may proceed to script synthesis.
//
// Implementations must be deterministic, free of side effects and safe for
// concurrent use.
type Policy interface {
	Check(plan ai.Plan) Verdict
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(plan ai.Plan) Verdict

// Check calls f(plan).
func (f PolicyFunc) Check(plan ai.Plan) Verdict {
	return f(plan)
}

// Chain runs policies in order and returns the first blocking verdict.
type Chain []Policy

// Check implements Policy.
func (c Chain) Check(plan ai.Plan) Verdict {
	for _, p := range c {
		if p == nil {
			continue
		}
		if v := p.Check(plan); !v.Safe {
			return v
		}
	}
	return Allow()
}

// PolicyConfig is the security section of the config file.
type PolicyConfig struct {
	// Keywords replaces the built-in denylist when non-empty.
	Keywords []string `mapstructure:"keywords"`

	// KeywordsFile is an optional YAML file whose keywords extend the list.
	KeywordsFile string `mapstructure:"keywords_file"`

	// PolicyScript is an optional Lua script defining check(intent, arguments).
	PolicyScript string `mapstructure:"policy_script"`
}

// DefaultPolicyConfig returns the built-in configuration.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Keywords: DefaultKeywords(),
	}
}

// NewPolicy builds the policy described by cfg: the keyword denylist, then
// the Lua script when one is configured.
func NewPolicy(cfg PolicyConfig) (Policy, error) {
	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords()
	}

	if cfg.KeywordsFile != "" {
		extra, err := LoadKeywordFile(cfg.KeywordsFile)
		if err != nil {
			return nil, err
		}
		keywords = append(append([]string{}, keywords...), extra...)
	}

	chain := Chain{NewKeywordPolicy(keywords)}

	if cfg.PolicyScript != "" {
		lp, err := NewLuaPolicy(cfg.PolicyScript)
		if err != nil {
			return nil, err
		}
		chain = append(chain, lp)
	}

	return chain, nil
}
