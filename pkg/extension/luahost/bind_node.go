package luahost

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/net/html"
)

const nodeName = "node"

var nodeTypeNames = map[html.NodeType]string{
	html.ErrorNode:    "error",
	html.TextNode:     "text",
	html.DocumentNode: "document",
	html.ElementNode:  "element",
	html.CommentNode:  "comment",
	html.DoctypeNode:  "doctype",
	html.RawNode:      "raw",
}

var nodeMethods = map[string]lua.LGFunction{
	"get_attr":    nodeGetAttr,
	"set_attr":    nodeSetAttr,
	"remove_attr": nodeRemoveAttr,
}

func registerNodeType(ls *lua.LState) {
	mt := ls.NewTypeMetatable(nodeName)
	ls.SetField(mt, "__index", ls.NewFunction(nodeIndex))
	ls.SetField(mt, "__newindex", ls.NewFunction(nodeNewIndex))
}

func checkNode(ls *lua.LState, pos int) *html.Node {
	ud := ls.CheckUserData(pos)
	if v, ok := ud.Value.(*html.Node); ok {
		return v
	}
	ls.ArgError(pos, nodeName+" expected")
	return nil
}

// Gets a field or method from the node user object.
func nodeIndex(ls *lua.LState) int {
	n := checkNode(ls, 1)
	field := ls.CheckString(2)

	if fn, ok := nodeMethods[field]; ok {
		ls.Push(ls.NewFunction(fn))
		return 1
	}

	switch field {
	case "type":
		ls.Push(lua.LString(nodeTypeNames[n.Type]))
	case "tag":
		if n.Type == html.ElementNode {
			ls.Push(lua.LString(strings.ToLower(n.Data)))
		} else {
			ls.Push(lua.LNil)
		}
	case "data":
		ls.Push(lua.LString(n.Data))
	case "parent_tag":
		if n.Parent != nil && n.Parent.Type == html.ElementNode {
			ls.Push(lua.LString(strings.ToLower(n.Parent.Data)))
		} else {
			ls.Push(lua.LNil)
		}
	default:
		// Unknown field.
		ls.Push(lua.LNil)
	}

	return 1
}

// Sets the data of text and comment nodes.
func nodeNewIndex(ls *lua.LState) int {
	n := checkNode(ls, 1)
	index := ls.CheckString(2)

	switch index {
	case "data":
		if n.Type != html.TextNode && n.Type != html.CommentNode {
			ls.RaiseError("data is read-only for %s nodes", nodeTypeNames[n.Type])
			return 0
		}
		n.Data = ls.CheckString(3)
	default:
		ls.RaiseError("invalid node index %q", index)
	}

	return 0
}

func nodeGetAttr(ls *lua.LState) int {
	n := checkNode(ls, 1)
	name := strings.ToLower(ls.CheckString(2))
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.ToLower(a.Key) == name {
			ls.Push(lua.LString(a.Val))
			return 1
		}
	}
	ls.Push(lua.LNil)
	return 1
}

func nodeSetAttr(ls *lua.LState) int {
	n := checkNode(ls, 1)
	name := strings.ToLower(ls.CheckString(2))
	val := ls.CheckString(3)
	if n.Type != html.ElementNode {
		ls.RaiseError("set_attr requires an element node")
		return 0
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.ToLower(a.Key) == name {
			n.Attr[i].Val = val
			return 0
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
	return 0
}

func nodeRemoveAttr(ls *lua.LState) int {
	n := checkNode(ls, 1)
	name := strings.ToLower(ls.CheckString(2))
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.ToLower(a.Key) == name {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
	return 0
}
