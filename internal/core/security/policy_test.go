package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	calls := 0
	counting := PolicyFunc(func(ai.Plan) Verdict {
		calls++
		return Allow()
	})
	blocking := PolicyFunc(func(ai.Plan) Verdict {
		return Block("nope")
	})

	plan := ai.NewPlan(ai.IntentChat, nil, nil)

	assert.True(t, Chain{counting, nil, counting}.Check(plan).Safe)
	assert.Equal(t, 2, calls)

	v := Chain{counting, blocking, counting}.Check(plan)
	assert.False(t, v.Safe)
	assert.Equal(t, "nope", v.Reason)
	assert.Equal(t, 3, calls)

	assert.True(t, Chain{}.Check(plan).Safe)
}

func TestNewPolicy_Default(t *testing.T) {
	policy, err := NewPolicy(PolicyConfig{})
	require.NoError(t, err)

	v := policy.Check(ai.NewPlan(ai.IntentTypeText, nil, map[string]string{"text": "shutdown /s"}))
	assert.False(t, v.Safe)
	assert.Equal(t, "Blocked dangerous keyword: shutdown", v.Reason)
}

func TestNewPolicy_KeywordsFileAndScript(t *testing.T) {
	dir := t.TempDir()

	kwPath := filepath.Join(dir, "keywords.yaml")
	require.NoError(t, os.WriteFile(kwPath, []byte("keywords:\n  - diskpart\n  - killall\n"), 0600))

	luaPath := filepath.Join(dir, "policy.lua")
	require.NoError(t, os.WriteFile(luaPath, []byte(`
function check(intent, arguments)
  if intent == "type_text" and #(arguments.text or "") > 20 then
    return false, "text too long"
  end
  return true
end
`), 0600))

	policy, err := NewPolicy(PolicyConfig{
		Keywords:     DefaultKeywords(),
		KeywordsFile: kwPath,
		PolicyScript: luaPath,
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		plan   ai.Plan
		reason string
	}{
		{
			name:   "built-in keyword",
			plan:   ai.NewPlan(ai.IntentOpenApp, nil, map[string]string{"app_name": "reboot"}),
			reason: "Blocked dangerous keyword: reboot",
		},
		{
			name:   "keyword from file",
			plan:   ai.NewPlan(ai.IntentOpenApp, nil, map[string]string{"app_name": "diskpart.exe"}),
			reason: "Blocked dangerous keyword: diskpart",
		},
		{
			name:   "lua rule",
			plan:   ai.NewPlan(ai.IntentTypeText, nil, map[string]string{"text": "a very long sentence to type out"}),
			reason: "text too long",
		},
		{
			name: "allowed",
			plan: ai.NewPlan(ai.IntentTypeText, nil, map[string]string{"text": "hello"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := policy.Check(tt.plan)
			assert.Equal(t, tt.reason == "", v.Safe)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

func TestNewPolicy_Errors(t *testing.T) {
	_, err := NewPolicy(PolicyConfig{KeywordsFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)

	_, err = NewPolicy(PolicyConfig{PolicyScript: filepath.Join(t.TempDir(), "nope.lua")})
	assert.Error(t, err)
}

func TestParseKeywords(t *testing.T) {
	kws, err := ParseKeywords([]byte("keywords: [diskpart, \"del /q\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"diskpart", "del /q"}, kws)

	_, err = ParseKeywords([]byte("keywords: {not: [a list"))
	assert.Error(t, err)
}
