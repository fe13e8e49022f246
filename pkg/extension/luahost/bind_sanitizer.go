package luahost

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

const (
	sanitizerName       = "sanitizer"
	sanitizerBeforeName = "sanitizer_before"
	sanitizerAfterName  = "sanitizer_after"
)

// Sanitizer holds the hook functions registered by a script on the sanitizer global.
type Sanitizer struct {
	Before SanitizerBeforeFuncs
	After  SanitizerAfterFuncs
}

// SanitizerBeforeFuncs are called before a removal, and may veto it.
type SanitizerBeforeFuncs struct {
	AtRuleRemoved    *lua.LFunction
	AttributeRemoved *lua.LFunction
	CommentRemoved   *lua.LFunction
	CSSClassRemoved  *lua.LFunction
	StyleRemoved     *lua.LFunction
	TagRemoved       *lua.LFunction
}

// SanitizerAfterFuncs are called once filtering has completed.
type SanitizerAfterFuncs struct {
	NodeFiltered *lua.LFunction
	Sanitized    *lua.LFunction
}

// Hook names as seen by scripts, in the order they are wired.
var beforeFuncNames = []string{
	"at_rule_removed",
	"attribute_removed",
	"comment_removed",
	"css_class_removed",
	"style_removed",
	"tag_removed",
}

var afterFuncNames = []string{
	"node_filtered",
	"sanitized",
}

func (b *SanitizerBeforeFuncs) field(name string) **lua.LFunction {
	switch name {
	case "at_rule_removed":
		return &b.AtRuleRemoved
	case "attribute_removed":
		return &b.AttributeRemoved
	case "comment_removed":
		return &b.CommentRemoved
	case "css_class_removed":
		return &b.CSSClassRemoved
	case "style_removed":
		return &b.StyleRemoved
	case "tag_removed":
		return &b.TagRemoved
	}
	return nil
}

func (a *SanitizerAfterFuncs) field(name string) **lua.LFunction {
	switch name {
	case "node_filtered":
		return &a.NodeFiltered
	case "sanitized":
		return &a.Sanitized
	}
	return nil
}

func registerSanitizerTypes(ls *lua.LState) {
	// sanitizer type.
	mt := ls.NewTypeMetatable(sanitizerName)
	ls.SetField(mt, "__index", ls.NewFunction(sanitizerIndex))

	// sanitizer.before type.
	mt = ls.NewTypeMetatable(sanitizerBeforeName)
	ls.SetField(mt, "__index", ls.NewFunction(sanitizerBeforeIndex))
	ls.SetField(mt, "__newindex", ls.NewFunction(sanitizerBeforeNewIndex))

	// sanitizer.after type.
	mt = ls.NewTypeMetatable(sanitizerAfterName)
	ls.SetField(mt, "__index", ls.NewFunction(sanitizerAfterIndex))
	ls.SetField(mt, "__newindex", ls.NewFunction(sanitizerAfterNewIndex))

	// sanitizer global.
	ls.SetGlobal(sanitizerName, wrapUserData(ls, sanitizerName, &Sanitizer{}))
}

func wrapUserData(ls *lua.LState, typeName string, val any) *lua.LUserData {
	ud := ls.NewUserData()
	ud.Value = val
	ls.SetMetatable(ud, ls.GetTypeMetatable(typeName))

	return ud
}

func getSanitizer(ls *lua.LState) (*Sanitizer, error) {
	lv := ls.GetGlobal(sanitizerName)
	if lv == nil || lv == lua.LNil {
		return nil, errors.New("sanitizer object was nil")
	}

	ud, ok := lv.(*lua.LUserData)
	if !ok {
		return nil, fmt.Errorf("sanitizer object was type %s instead of UserData", lv.Type())
	}

	val, ok := ud.Value.(*Sanitizer)
	if !ok {
		return nil, fmt.Errorf("sanitizer object (%v) could not be cast", ud.Value)
	}

	return val, nil
}

func checkSanitizer(ls *lua.LState, pos int) *Sanitizer {
	ud := ls.CheckUserData(pos)
	if val, ok := ud.Value.(*Sanitizer); ok {
		return val
	}
	ls.ArgError(pos, sanitizerName+" expected")
	return nil
}

func checkSanitizerBefore(ls *lua.LState, pos int) *SanitizerBeforeFuncs {
	ud := ls.CheckUserData(pos)
	if val, ok := ud.Value.(*SanitizerBeforeFuncs); ok {
		return val
	}
	ls.ArgError(pos, sanitizerBeforeName+" expected")
	return nil
}

func checkSanitizerAfter(ls *lua.LState, pos int) *SanitizerAfterFuncs {
	ud := ls.CheckUserData(pos)
	if val, ok := ud.Value.(*SanitizerAfterFuncs); ok {
		return val
	}
	ls.ArgError(pos, sanitizerAfterName+" expected")
	return nil
}

// sanitizer getter.
func sanitizerIndex(ls *lua.LState) int {
	s := checkSanitizer(ls, 1)
	field := ls.CheckString(2)

	switch field {
	case "before":
		ls.Push(wrapUserData(ls, sanitizerBeforeName, &s.Before))
	case "after":
		ls.Push(wrapUserData(ls, sanitizerAfterName, &s.After))
	default:
		// Unknown field.
		ls.Push(lua.LNil)
	}

	return 1
}

// sanitizer.before getter.
func sanitizerBeforeIndex(ls *lua.LState) int {
	before := checkSanitizerBefore(ls, 1)
	if fn := before.field(ls.CheckString(2)); fn != nil {
		ls.Push(funcOrNil(*fn))
	} else {
		ls.Push(lua.LNil)
	}

	return 1
}

// sanitizer.before setter.
func sanitizerBeforeNewIndex(ls *lua.LState) int {
	before := checkSanitizerBefore(ls, 1)
	index := ls.CheckString(2)

	fn := before.field(index)
	if fn == nil {
		ls.RaiseError("invalid sanitizer.before index %q", index)
		return 0
	}
	*fn = ls.CheckFunction(3)

	return 0
}

// sanitizer.after getter.
func sanitizerAfterIndex(ls *lua.LState) int {
	after := checkSanitizerAfter(ls, 1)
	if fn := after.field(ls.CheckString(2)); fn != nil {
		ls.Push(funcOrNil(*fn))
	} else {
		ls.Push(lua.LNil)
	}

	return 1
}

// sanitizer.after setter.
func sanitizerAfterNewIndex(ls *lua.LState) int {
	after := checkSanitizerAfter(ls, 1)
	index := ls.CheckString(2)

	fn := after.field(index)
	if fn == nil {
		ls.RaiseError("invalid sanitizer.after index %q", index)
		return 0
	}
	*fn = ls.CheckFunction(3)

	return 0
}

func funcOrNil(f *lua.LFunction) lua.LValue {
	if f == nil {
		return lua.LNil
	}

	return f
}
