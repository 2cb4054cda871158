package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const allowlistScript = `
local allowed = { ["notepad.exe"] = true, ["Notes"] = true }

function check(intent, arguments)
  if intent ~= "open_app" then
    return true
  end
  if allowed[arguments.app_name] then
    return true
  end
  return false, "app not allowed: " .. tostring(arguments.app_name)
end
`

func TestLuaPolicy_AllowAndBlock(t *testing.T) {
	policy, err := NewLuaPolicyFromSource("allowlist.lua", allowlistScript)
	require.NoError(t, err)

	v := policy.Check(ai.NewPlan(ai.IntentOpenApp, nil, map[string]string{"app_name": "notepad.exe"}))
	assert.True(t, v.Safe)

	v = policy.Check(ai.NewPlan(ai.IntentOpenApp, nil, map[string]string{"app_name": "regedit.exe"}))
	assert.False(t, v.Safe)
	assert.Equal(t, "app not allowed: regedit.exe", v.Reason)

	v = policy.Check(ai.NewPlan(ai.IntentOpenWebsite, nil, map[string]string{"url": "https://example.com"}))
	assert.True(t, v.Safe)
}

func TestLuaPolicy_TableResult(t *testing.T) {
	script := `
function check(intent, arguments)
  if string.find(arguments.url or "", "casino", 1, true) then
    return { safe = false, reason = "gambling site" }
  end
  return { safe = true }
end
`
	policy, err := NewLuaPolicyFromSource("table.lua", script)
	require.NoError(t, err)

	v := policy.Check(ai.NewPlan(ai.IntentOpenWebsite, nil, map[string]string{"url": "https://casino.example"}))
	assert.False(t, v.Safe)
	assert.Equal(t, "gambling site", v.Reason)

	v = policy.Check(ai.NewPlan(ai.IntentOpenWebsite, nil, map[string]string{"url": "https://example.com"}))
	assert.True(t, v.Safe)
}

func TestLuaPolicy_FailsClosed(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "runtime error", script: `function check(i, a) error("boom") end`},
		{name: "wrong return type", script: `function check(i, a) return "yes" end`},
		{name: "no return", script: `function check(i, a) end`},
		{name: "table without safe", script: `function check(i, a) return { reason = "x" } end`},
		{name: "infinite loop", script: `function check(i, a) while true do end end`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := NewLuaPolicyFromSource(tt.name, tt.script)
			require.NoError(t, err)

			v := policy.Check(ai.NewPlan(ai.IntentChat, nil, nil))
			assert.False(t, v.Safe)
			assert.True(t, strings.HasPrefix(v.Reason, "Blocked by policy script error"), v.Reason)
		})
	}
}

func TestLuaPolicy_Sandboxed(t *testing.T) {
	script := `
function check(i, a)
  if io ~= nil or os ~= nil or dofile ~= nil or loadfile ~= nil then
    return false, "sandbox leak"
  end
  return true
end
`
	policy, err := NewLuaPolicyFromSource("sandbox.lua", script)
	require.NoError(t, err)
	assert.True(t, policy.Check(ai.NewPlan(ai.IntentChat, nil, nil)).Safe)
}

func TestLuaPolicy_NoStateBetweenChecks(t *testing.T) {
	script := `
calls = 0
function check(i, a)
  calls = calls + 1
  if calls > 1 then
    return false, "state leaked"
  end
  return true
end
`
	policy, err := NewLuaPolicyFromSource("state.lua", script)
	require.NoError(t, err)

	plan := ai.NewPlan(ai.IntentChat, nil, nil)
	assert.True(t, policy.Check(plan).Safe)
	assert.True(t, policy.Check(plan).Safe)
}

func TestNewLuaPolicy_Invalid(t *testing.T) {
	_, err := NewLuaPolicyFromSource("syntax.lua", `function check(`)
	assert.Error(t, err)

	_, err = NewLuaPolicyFromSource("nocheck.lua", `x = 1`)
	assert.ErrorContains(t, err, "check(intent, arguments)")

	_, err = NewLuaPolicy(filepath.Join(t.TempDir(), "missing.lua"))
	assert.Error(t, err)
}

func TestNewLuaPolicy_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.lua")
	require.NoError(t, os.WriteFile(path, []byte(allowlistScript), 0600))

	policy, err := NewLuaPolicy(path)
	require.NoError(t, err)
	assert.False(t, policy.Check(ai.NewPlan(ai.IntentOpenApp, nil, map[string]string{"app_name": "cmd.exe"})).Safe)
}
