// Package luahost binds sanitizer events to hook functions defined by a Lua script.
package luahost

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	luajson "github.com/inbucket/gopher-json"
	"github.com/inbucket/sanitizer/pkg/config"
	"github.com/inbucket/sanitizer/pkg/extension"
	"github.com/inbucket/sanitizer/pkg/extension/event"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const listenerName = "lua"

// Host of Lua extensions.
type Host struct {
	Functions []string // Hook functions detected in lua script, eg. before.tag_removed.
	extHost   *extension.Host
	pool      *statePool
	logger    zerolog.Logger
}

// New constructs a new Lua Host, pre-compiling the source.  A nil Host is returned when no script
// is configured or the script file does not exist.
func New(conf config.Lua, extHost *extension.Host) (*Host, error) {
	scriptPath := conf.Path
	if scriptPath == "" {
		return nil, nil
	}

	logger := log.With().Str("module", "lua").Logger()
	startLog := logger.With().Str("phase", "startup").Str("path", scriptPath).Logger()

	// Pre-load, parse, and compile script.
	if fi, err := os.Stat(scriptPath); err != nil {
		startLog.Info().Msg("Script file not found")
		return nil, nil
	} else if fi.IsDir() {
		return nil, fmt.Errorf("lua script %v is a directory", scriptPath)
	}

	startLog.Info().Msg("Loading script")
	file, err := os.Open(scriptPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return NewFromReader(logger, extHost, bufio.NewReader(file), scriptPath)
}

// NewFromReader constructs a new Lua Host, loading Lua source from the provided reader.
// The provided path is used in logging and error messages.
func NewFromReader(logger zerolog.Logger, extHost *extension.Host, r io.Reader, path string) (*Host, error) {
	// Pre-parse, and compile script.
	chunk, err := parse.Parse(r, path)
	if err != nil {
		return nil, err
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, err
	}

	// Build the pool and confirm LState is retrievable.
	pool := newStatePool(logger, proto)
	h := &Host{extHost: extHost, pool: pool, logger: logger}
	ls, err := pool.getState()
	if err != nil {
		return nil, err
	}
	h.wireFunctions(ls)
	pool.putState(ls)

	return h, nil
}

// CreateChannel creates a channel and places it into the named global variable
// in newly created LStates.
func (h *Host) CreateChannel(name string) chan lua.LValue {
	return h.pool.createChannel(name)
}

// Close releases pooled Lua states.  Listeners stay registered; later hook calls create new states.
func (h *Host) Close() {
	h.pool.close()
}

// hookPicker selects one hook function from the sanitizer global.
type hookPicker func(*Sanitizer) *lua.LFunction

// wireFunctions registers event listeners for the hook functions the script defined.
func (h *Host) wireFunctions(ls *lua.LState) {
	s, err := getSanitizer(ls)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Script did not leave a sanitizer object")
		return
	}

	events := h.extHost.Events
	for _, name := range beforeFuncNames {
		if *s.Before.field(name) == nil {
			continue
		}
		h.Functions = append(h.Functions, "before."+name)
		switch name {
		case "at_rule_removed":
			events.BeforeAtRuleRemoved.AddListener(listenerName, h.handleBeforeAtRuleRemoved)
		case "attribute_removed":
			events.BeforeAttributeRemoved.AddListener(listenerName, h.handleBeforeAttributeRemoved)
		case "comment_removed":
			events.BeforeCommentRemoved.AddListener(listenerName, h.handleBeforeCommentRemoved)
		case "css_class_removed":
			events.BeforeCSSClassRemoved.AddListener(listenerName, h.handleBeforeCSSClassRemoved)
		case "style_removed":
			events.BeforeStyleRemoved.AddListener(listenerName, h.handleBeforeStyleRemoved)
		case "tag_removed":
			events.BeforeTagRemoved.AddListener(listenerName, h.handleBeforeTagRemoved)
		}
	}
	if s.After.NodeFiltered != nil {
		h.Functions = append(h.Functions, "after.node_filtered")
		events.NodeFiltered.AddListener(listenerName, h.handleNodeFiltered)
	}
	if s.After.Sanitized != nil {
		h.Functions = append(h.Functions, "after.sanitized")
		events.AfterSanitized.AddListener(listenerName, h.handleAfterSanitized)
	}

	h.logger.Debug().Strs("functions", h.Functions).Msg("Wired Lua hooks")
}

// call runs the hook chosen by pick on a pooled LState.  args builds the hook arguments, result
// receives the first returned value.  Failures are logged, and leave result uncalled.
func (h *Host) call(hook string, pick hookPicker,
	args func(*lua.LState) ([]lua.LValue, error), result func(lua.LValue)) {
	logger := h.logger.With().Str("hook", hook).Logger()

	ls, err := h.pool.getState()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get Lua state instance from pool")
		return
	}
	defer h.pool.putState(ls)

	s, err := getSanitizer(ls)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get sanitizer object")
		return
	}
	fn := pick(s)
	if fn == nil {
		return
	}

	argv, err := args(ls)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build Lua arguments")
		return
	}
	if err := ls.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, argv...); err != nil {
		logger.Error().Err(err).Msg("Failed to call Lua function")
		return
	}

	lv := ls.Get(-1)
	ls.Pop(1)
	if result != nil {
		result(lv)
	}
}

// decide runs a before hook with the removal, converting its return value into a decision.
func (h *Host) decide(hook string, pick hookPicker, r *Removal) *event.Decision {
	var d *event.Decision
	h.call(hook, pick,
		func(ls *lua.LState) ([]lua.LValue, error) {
			return []lua.LValue{wrapUserData(ls, removalName, r)}, nil
		},
		func(lv lua.LValue) {
			if lv == lua.LNil {
				return
			}
			var err error
			if d, err = unwrapDecision(lv); err != nil {
				h.logger.Error().Err(err).Str("hook", hook).Msg("Invalid hook return value")
			}
		})
	return d
}

func (h *Host) handleBeforeAtRuleRemoved(e event.AtRuleRemoval) *event.Decision {
	return h.decide("before.at_rule_removed",
		func(s *Sanitizer) *lua.LFunction { return s.Before.AtRuleRemoved },
		&Removal{Kind: removalAtRule, Reason: e.Reason, Name: e.Name, Value: e.Kind.String()})
}

func (h *Host) handleBeforeAttributeRemoved(e event.AttributeRemoval) *event.Decision {
	return h.decide("before.attribute_removed",
		func(s *Sanitizer) *lua.LFunction { return s.Before.AttributeRemoved },
		&Removal{Kind: removalAttribute, Reason: e.Reason, Tag: e.Tag, Name: e.Name, Value: e.Value})
}

func (h *Host) handleBeforeCommentRemoved(e event.CommentRemoval) *event.Decision {
	return h.decide("before.comment_removed",
		func(s *Sanitizer) *lua.LFunction { return s.Before.CommentRemoved },
		&Removal{Kind: removalComment, Value: e.Data})
}

func (h *Host) handleBeforeCSSClassRemoved(e event.CSSClassRemoval) *event.Decision {
	return h.decide("before.css_class_removed",
		func(s *Sanitizer) *lua.LFunction { return s.Before.CSSClassRemoved },
		&Removal{Kind: removalCSSClass, Reason: e.Reason, Tag: e.Tag, Name: e.Class})
}

func (h *Host) handleBeforeStyleRemoved(e event.StyleRemoval) *event.Decision {
	return h.decide("before.style_removed",
		func(s *Sanitizer) *lua.LFunction { return s.Before.StyleRemoved },
		&Removal{Kind: removalStyle, Reason: e.Reason, Tag: e.Tag, Name: e.Property, Value: e.Value})
}

func (h *Host) handleBeforeTagRemoved(e event.TagRemoval) *event.Decision {
	return h.decide("before.tag_removed",
		func(s *Sanitizer) *lua.LFunction { return s.Before.TagRemoved },
		&Removal{Kind: removalTag, Reason: e.Reason, Tag: e.Tag, Name: e.Tag})
}

// handleNodeFiltered lets the script edit a node in place, or return markup to replace it.
func (h *Host) handleNodeFiltered(e event.FilteredNode) *event.Replacement {
	var r *event.Replacement
	h.call("after.node_filtered",
		func(s *Sanitizer) *lua.LFunction { return s.After.NodeFiltered },
		func(ls *lua.LState) ([]lua.LValue, error) {
			return []lua.LValue{wrapUserData(ls, nodeName, e.Node)}, nil
		},
		func(lv lua.LValue) {
			if lv == lua.LNil {
				return
			}
			markup, ok := lv.(lua.LString)
			if !ok {
				h.logger.Error().Str("hook", "after.node_filtered").Str("type", lv.Type().String()).
					Msg("Expected markup string or nil")
				return
			}
			nodes, err := parseReplacement(e.Node, string(markup))
			if err != nil {
				h.logger.Error().Err(err).Str("hook", "after.node_filtered").Msg("Invalid markup")
				return
			}
			r = &event.Replacement{Nodes: nodes}
		})
	return r
}

// handleAfterSanitized hands the report to the script as a table.
func (h *Host) handleAfterSanitized(report event.ChangeReport) {
	data, err := json.Marshal(report)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode report")
		return
	}
	h.call("after.sanitized",
		func(s *Sanitizer) *lua.LFunction { return s.After.Sanitized },
		func(ls *lua.LState) ([]lua.LValue, error) {
			lv, err := luajson.Decode(ls, data)
			if err != nil {
				return nil, err
			}
			return []lua.LValue{lv}, nil
		},
		nil)
}

// parseReplacement parses markup in the context of the node's parent element.
func parseReplacement(n *html.Node, markup string) ([]*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	if n.Parent != nil && n.Parent.Type == html.ElementNode {
		context = &html.Node{
			Type:      html.ElementNode,
			Data:      n.Parent.Data,
			DataAtom:  n.Parent.DataAtom,
			Namespace: n.Parent.Namespace,
		}
	}
	return html.ParseFragment(strings.NewReader(markup), context)
}
