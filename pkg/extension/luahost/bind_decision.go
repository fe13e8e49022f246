package luahost

import (
	"fmt"

	"github.com/inbucket/sanitizer/pkg/extension/event"
	lua "github.com/yuin/gopher-lua"
)

const decisionName = "decision"

func registerDecisionType(ls *lua.LState) {
	mt := ls.NewTypeMetatable(decisionName)
	ls.SetGlobal(decisionName, mt)

	// Static attributes.
	ls.SetField(mt, "cancel", ls.NewFunction(newDecision(true)))
	ls.SetField(mt, "proceed", ls.NewFunction(newDecision(false)))
}

func newDecision(cancel bool) func(*lua.LState) int {
	return func(ls *lua.LState) int {
		ls.Push(wrapUserData(ls, decisionName, &event.Decision{Cancel: cancel}))
		return 1
	}
}

func unwrapDecision(lv lua.LValue) (*event.Decision, error) {
	if ud, ok := lv.(*lua.LUserData); ok {
		if v, ok := ud.Value.(*event.Decision); ok {
			return v, nil
		}
	}

	return nil, fmt.Errorf("expected Decision, got %q", lv.Type().String())
}
