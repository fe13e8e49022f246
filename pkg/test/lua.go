package test

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/cosmotek/loguago"
	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"
)

// LuaInit defines assertion helpers for sanitizer hook scripts.  A script whose hooks run off the
// test goroutine sets async = true: failed assertions are then logged and recorded in test_ok,
// for the hook to send back over a channel, instead of raised as errors.
const LuaInit = `
	local logger = require("logger")

	async = false
	test_ok = true

	function assert_async(value, message)
		if value then
			return
		end
		if async then
			logger.error(message, {from = "assert_async"})
			test_ok = false
		else
			error(message, 2)
		end
	end

	-- Compares plain values, or list tables element by element.
	function assert_eq(got, want)
		if type(got) == "table" and type(want) == "table" then
			assert_async(#got == #want, string.format("got %d elements, wanted %d", #got, #want))
			for i = 1, math.min(#got, #want) do
				assert_eq(got[i], want[i])
			end
			return
		end
		assert_async(got == want,
			string.format("got %s, wanted %s", tostring(got), tostring(want)))
	end

	function assert_contains(got, want)
		assert_async(string.find(got, want, 1, true),
			string.format("got %q, wanted it to contain %q", got, want))
	end

	-- Checks the kind and reason of a removal passed to a before hook.
	function assert_removal(r, kind, reason)
		assert_eq(r.kind, kind)
		assert_eq(r.reason, reason)
	end

	-- Totals the removals listed in a sanitize report.
	function count_removals(report)
		local n = report.removedComments or 0
		for _, field in ipairs({"removedTags", "removedAttributes", "removedStyles",
				"removedAtRules", "removedCssClasses"}) do
			if report[field] then
				n = n + #report[field]
			end
		end
		return n
	end
`

// LuaScript prefixes a hook script with the helpers in LuaInit.
func LuaScript(body string) io.Reader {
	return strings.NewReader(LuaInit + body)
}

// NewLuaState returns a bare LState with the logger module and the LuaInit helpers loaded, for
// testing bindings without a full luahost.  Logger output is collected in the returned builder.
func NewLuaState() (*lua.LState, *strings.Builder) {
	output := &strings.Builder{}
	ls := lua.NewState()
	ls.PreloadModule("logger", loguago.NewLogger(zerolog.New(output)).Loader)
	if err := ls.DoString(LuaInit); err != nil {
		panic(err)
	}
	return ls, output
}

// AssertNotified waits for an async hook to send its test_ok value over notify, failing the
// test if the hook reported a failed assertion or never answered.
func AssertNotified(t *testing.T, notify chan lua.LValue) {
	t.Helper()
	select {
	case ok := <-notify:
		if lua.LVIsFalse(ok) {
			t.Error("Lua hook reported a failed assertion, see log output")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Lua hook did not notify within timeout")
	}
}
