package security

import (
	"strings"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
)

// DefaultKeywords returns the built-in denylist.
func DefaultKeywords() []string {
	return []string{
		"delete_file", "shutdown", "reboot", "format", "rm -rf", "poweroff",
	}
}

// KeywordPolicy blocks plans whose intent or arguments mention a denylisted
// token. It is a plain substring scan, not semantic analysis.
type KeywordPolicy struct {
	keywords []string
}

// NewKeywordPolicy creates a keyword policy. Keywords are lowercased and
// blanks dropped; order is kept, so the first listed match wins.
func NewKeywordPolicy(keywords []string) *KeywordPolicy {
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	return &KeywordPolicy{keywords: kws}
}

// Keywords returns a copy of the denylist.
func (kp *KeywordPolicy) Keywords() []string {
	return append([]string(nil), kp.keywords...)
}

// Check implements Policy.
func (kp *KeywordPolicy) Check(plan ai.Plan) Verdict {
	blob := strings.ToLower(TextBlob(plan))

	for _, kw := range kp.keywords {
		if strings.Contains(blob, kw) {
			v := Block("Blocked dangerous keyword: %s", kw)
			v.Keyword = kw
			return v
		}
	}
	return Allow()
}

// TextBlob renders the intent and all arguments (keys included) as one
// string, with arguments in sorted key order.
func TextBlob(plan ai.Plan) string {
	var b strings.Builder
	b.WriteString(string(plan.Intent()))
	b.WriteString(" {")
	for i, k := range plan.ArgumentKeys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(plan.Argument(k, ""))
	}
	b.WriteString("}")
	return b.String()
}
