package luahost

import (
	"github.com/inbucket/sanitizer/pkg/extension/event"
	lua "github.com/yuin/gopher-lua"
)

const removalName = "removal"

// Removal kinds exposed to scripts.
const (
	removalAtRule    = "at_rule"
	removalAttribute = "attribute"
	removalComment   = "comment"
	removalCSSClass  = "css_class"
	removalStyle     = "style"
	removalTag       = "tag"
)

// Removal is the read-only view of a pending removal given to before hooks.
type Removal struct {
	Kind   string
	Reason event.Reason
	Tag    string // Owning element.
	Name   string // Attribute, property, class or rule name.
	Value  string
}

func registerRemovalType(ls *lua.LState) {
	mt := ls.NewTypeMetatable(removalName)
	ls.SetField(mt, "__index", ls.NewFunction(removalIndex))
	ls.SetField(mt, "__newindex", ls.NewFunction(removalNewIndex))
}

func checkRemoval(ls *lua.LState, pos int) *Removal {
	ud := ls.CheckUserData(pos)
	if v, ok := ud.Value.(*Removal); ok {
		return v
	}
	ls.ArgError(pos, removalName+" expected")
	return nil
}

// Gets a field value from the Removal user object.  This emulates a Lua table, allowing
// `removal.tag` instead of `removal:tag()`.
func removalIndex(ls *lua.LState) int {
	r := checkRemoval(ls, 1)
	field := ls.CheckString(2)

	switch field {
	case "kind":
		ls.Push(lua.LString(r.Kind))
	case "reason":
		if r.Reason == 0 {
			ls.Push(lua.LNil)
		} else {
			ls.Push(lua.LString(r.Reason.String()))
		}
	case "tag":
		ls.Push(lua.LString(r.Tag))
	case "name":
		ls.Push(lua.LString(r.Name))
	case "value":
		ls.Push(lua.LString(r.Value))
	default:
		// Unknown field.
		ls.Push(lua.LNil)
	}

	return 1
}

func removalNewIndex(ls *lua.LState) int {
	checkRemoval(ls, 1)
	ls.RaiseError("removal is read-only")
	return 0
}
