package security

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
	lua "github.com/yuin/gopher-lua"
)

// DefaultScriptTimeout bounds one run of a policy script.
const DefaultScriptTimeout = time.Second

// LuaPolicy delegates the decision to a user supplied Lua script.
//
// The script must define a global function check(intent, arguments) where
// arguments is a table of strings. It returns either
//
//	true                      -- allow
//	false, "reason"           -- block
//	{ safe = bool, reason = "..." }
//
// Each check runs in a fresh interpreter with only the base, table, string and
// math libraries, so scripts cannot touch the filesystem or keep state between
// plans. Any script error blocks the plan.
type LuaPolicy struct {
	name    string
	source  string
	timeout time.Duration
}

// NewLuaPolicy loads the script at path and verifies it defines check.
func NewLuaPolicy(path string) (*LuaPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy script %s: %w", path, err)
	}
	return NewLuaPolicyFromSource(path, string(data))
}

// NewLuaPolicyFromSource builds a policy from script text. name is used in
// error messages.
func NewLuaPolicyFromSource(name, source string) (*LuaPolicy, error) {
	lp := &LuaPolicy{name: name, source: source, timeout: DefaultScriptTimeout}

	L, err := lp.load(context.Background())
	if err != nil {
		return nil, err
	}
	L.Close()
	return lp, nil
}

func (lp *LuaPolicy) load(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	L.SetContext(ctx)

	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.fn), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("policy %s: open %s: %w", lp.name, lib.name, err)
		}
	}
	// base still exposes file loaders.
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)

	if err := L.DoString(lp.source); err != nil {
		L.Close()
		return nil, fmt.Errorf("policy %s: load script: %w", lp.name, err)
	}

	fn := L.GetGlobal("check")
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("policy %s: script must define global function check(intent, arguments), got %s", lp.name, fn.Type())
	}
	return L, nil
}

// Check implements Policy.
func (lp *LuaPolicy) Check(plan ai.Plan) Verdict {
	v, err := lp.run(plan)
	if err != nil {
		return Block("Blocked by policy script error: %v", err)
	}
	return v
}

func (lp *LuaPolicy) run(plan ai.Plan) (Verdict, error) {
	ctx, cancel := context.WithTimeout(context.Background(), lp.timeout)
	defer cancel()

	L, err := lp.load(ctx)
	if err != nil {
		return Verdict{}, err
	}
	defer L.Close()

	args := L.NewTable()
	for _, k := range plan.ArgumentKeys() {
		args.RawSetString(k, lua.LString(plan.Argument(k, "")))
	}

	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("check"),
		NRet:    2,
		Protect: true,
	}, lua.LString(plan.Intent()), args); err != nil {
		return Verdict{}, fmt.Errorf("check(): %w", err)
	}

	first, second := L.Get(-2), L.Get(-1)
	L.Pop(2)

	switch ret := first.(type) {
	case lua.LBool:
		if ret == lua.LTrue {
			return Allow(), nil
		}
		return blockWithReason(second), nil
	case *lua.LTable:
		safe, ok := ret.RawGetString("safe").(lua.LBool)
		if !ok {
			return Verdict{}, fmt.Errorf("check() table must have a boolean safe field")
		}
		if safe == lua.LTrue {
			return Allow(), nil
		}
		return blockWithReason(ret.RawGetString("reason")), nil
	default:
		return Verdict{}, fmt.Errorf("check() must return boolean or table { safe, reason }, got %s", first.Type())
	}
}

func blockWithReason(v lua.LValue) Verdict {
	if s, ok := v.(lua.LString); ok && s != "" {
		return Block("%s", string(s))
	}
	return Block("Blocked by policy script")
}
