package sanitize_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/inbucket/sanitizer/pkg/extension"
	"github.com/inbucket/sanitizer/pkg/extension/event"
	"github.com/inbucket/sanitizer/pkg/policy"
	"github.com/inbucket/sanitizer/pkg/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func sanitizeString(t *testing.T, s *sanitize.Sanitizer, input, baseURL string) string {
	t.Helper()
	got, err := s.Sanitize(input, baseURL)
	require.NoError(t, err)
	return got
}

// TestSanitizePlainStrings tests plain text passthrough.
func TestSanitizePlainStrings(t *testing.T) {
	s := sanitize.New(nil, nil)
	for _, ts := range []string{
		"",
		"plain string",
		"one &lt; two",
	} {
		t.Run(ts, func(t *testing.T) {
			assert.Equal(t, ts, sanitizeString(t, s, ts, ""))
		})
	}
}

// TestSanitizeSimpleFormatting tests basic tags we should allow.
func TestSanitizeSimpleFormatting(t *testing.T) {
	s := sanitize.New(nil, nil)
	for _, ts := range []string{
		"<div>Test</div>",
		"<p>paragraph</p>",
		"<b>bold</b>",
		"<em>emphasis</em>",
		"<div><span>text</span></div>",
		"<center>text</center>",
		`<a href="http://example.com/" title="x">link</a>`,
		`<div style="color: red">red</div>`,
		`<table><tbody><tr><td colspan="2">cell</td></tr></tbody></table>`,
	} {
		t.Run(ts, func(t *testing.T) {
			assert.Equal(t, ts, sanitizeString(t, s, ts, ""))
		})
	}
}

func TestSanitizeRemovals(t *testing.T) {
	testCases := []struct {
		name, input, want string
	}{
		{"script", `safe<script>nope</script>`, `safe`},
		{"img javascript src", `<IMG SRC=javascript:alert('XSS')>`, `<img/>`},
		{"event handler", `<a href="http://example.com" onclick="x()">x</a>`, `<a href="http://example.com">x</a>`},
		{"encoded scheme", `<a href="javascript&#58;alert(1)">x</a>`, `<a>x</a>`},
		{"named colon", `<a href="jAvAsCrIpT&colon;alert(1)">x</a>`, `<a>x</a>`},
		{"tab in scheme", `<img src="jav&#x09;ascript:alert(1)">`, `<img/>`},
		{"style url", `<div style="background-image: url(javascript:alert('XSS'))">x</div>`, `<div>x</div>`},
		{"style escaped url", `<div style="background:\75rl(javascript:alert(1))">x</div>`, `<div>x</div>`},
		{"style expression", `<div style="width: expression(alert(1))">x</div>`, `<div>x</div>`},
		{"style property", `<div style="position: fixed; color: red">x</div>`, `<div style="color: red">x</div>`},
		{"script entity", `<div title="&{alert(1)}">x</div>`, `<div>x</div>`},
		{"comment", `a<!-- secret -->b`, `ab`},
		{"iframe", `<iframe src="http://example.com/"></iframe>after`, `after`},
		{"svg", `<svg onload="alert(1)"><circle r="1"></circle></svg>x`, `x`},
		{"data attribute", `<div data-x="1">x</div>`, `<div>x</div>`},
		{"angle bracket in attribute", `<div title="a<b">x</div>`, `<div title="a&lt;b">x</div>`},
	}
	s := sanitize.New(nil, nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeString(t, s, tc.input, ""))
		})
	}
}

func TestSanitizeXSSVectors(t *testing.T) {
	vectors := []string{
		`<IMG SRC="javascript:alert('XSS');">`,
		`<IMG SRC=JaVaScRiPt:alert('XSS')>`,
		`<IMG SRC=&#106;&#97;&#118;&#97;&#115;&#99;&#114;&#105;&#112;&#116;&#58;&#97;&#108;&#101;&#114;&#116;&#40;&#39;&#88;&#83;&#83;&#39;&#41;>`,
		`<IMG SRC=&#x6A&#x61&#x76&#x61&#x73&#x63&#x72&#x69&#x70&#x74&#x3A&#x61&#x6C&#x65&#x72&#x74&#x28&#x27&#x58&#x53&#x53&#x27&#x29>`,
		`<IMG SRC=" &#14;  javascript:alert('XSS');">`,
		`<IMG """><SCRIPT>alert("XSS")</SCRIPT>">`,
		`<SCRIPT/XSS SRC="http://example.com/xss.js"></SCRIPT>`,
		`<<SCRIPT>alert("XSS");//<</SCRIPT>`,
		`<BODY ONLOAD=alert('XSS')>`,
		`<INPUT TYPE="IMAGE" SRC="javascript:alert('XSS');">`,
		`<DIV STYLE="background-image: url(javascript:alert('XSS'))">`,
		`<DIV STYLE="background-image:\0075\0072\006C\0028'\006a\0061\0076\0061\0073\0063\0072\0069\0070\0074\003a\0061\006c\0065\0072\0074\0028.1027\0058.1053\0053\0027\0029'\0029">`,
		`<DIV STYLE="width: expression(alert('XSS'));">`,
		`<IMG STYLE="xss:expr/*XSS*/ession(alert('XSS'))">`,
		`<STYLE>@import'http://example.com/xss.css';</STYLE>`,
		`<TABLE BACKGROUND="javascript:alert('XSS')"></TABLE>`,
		`<A HREF="data:text/html;base64,PHNjcmlwdD5hbGVydCgnWFNTJyk8L3NjcmlwdD4K">x</A>`,
		`<object data="javascript:alert(1)"></object>`,
		`<math><mtext><table><mglyph><style><img src=x onerror=alert(1)></style></mglyph></table></mtext></math>`,
	}
	needles := []string{"javascript", "<script", "onerror", "alert(", "expression"}
	s := sanitize.New(nil, nil)
	for _, v := range vectors {
		t.Run(v, func(t *testing.T) {
			got := strings.ToLower(sanitizeString(t, s, v, ""))
			for _, needle := range needles {
				assert.NotContains(t, got, needle)
			}
		})
	}
}

func TestSanitizeBaseURL(t *testing.T) {
	s := sanitize.New(nil, nil)

	got := sanitizeString(t, s, `<a href="test">x</a>`, "http://www.example.com/")
	assert.Equal(t, `<a href="http://www.example.com/test">x</a>`, got)

	got = sanitizeString(t, s, `<img src="../a.png">`, "http://www.example.com/b/c/")
	assert.Equal(t, `<img src="http://www.example.com/b/a.png"/>`, got)

	got = sanitizeString(t, s, `<a href="test">x</a>`, "")
	assert.Equal(t, `<a href="test">x</a>`, got, "relative URL without base should pass through")

	got = sanitizeString(t, s, `<a href="test">x</a>`, "relative/base")
	assert.Equal(t, `<a>x</a>`, got, "unusable base should reject relative URLs")
}

func TestSanitizeKeepChildNodes(t *testing.T) {
	p := policy.Default()
	p.KeepChildNodes = true
	s := sanitize.New(p, nil)

	testCases := []struct {
		input, want string
	}{
		{`<div><foo>bar<b>baz</b></foo></div>`, `<div>bar<b>baz</b></div>`},
		{`<foo><bar><i>x</i></bar></foo>`, `<i>x</i>`},
		{`<div><script>alert(1)</script>ok</div>`, `<div>ok</div>`},
		{`<div><style>p { color: red }</style>ok</div>`, `<div>ok</div>`},
		{`<foo><script>x()</script><b>y</b></foo>`, `<b>y</b>`},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeString(t, s, tc.input, ""))
		})
	}
}

func TestSanitizeDataAttributes(t *testing.T) {
	p := policy.Default()
	p.AllowDataAttributes = true
	s := sanitize.New(p, nil)

	got := sanitizeString(t, s, `<div data-x="1" data-="2" onclick="y">x</div>`, "")
	assert.Equal(t, `<div data-x="1">x</div>`, got)
}

func TestSanitizeCSSClasses(t *testing.T) {
	p := policy.Default()
	p.AllowedCSSClasses = policy.NewSet("good", "also-good")
	s := sanitize.New(p, nil)

	got, report, err := s.SanitizeWithReport(`<div class="good bad also-good">x</div>`, "")
	require.NoError(t, err)
	assert.Equal(t, `<div class="good also-good">x</div>`, got)
	assert.Equal(t, []event.CSSClassChange{
		{Tag: "div", Class: "bad", Reason: event.NotAllowedCSSClass},
	}, report.RemovedCSSClasses)

	got, report, err = s.SanitizeWithReport(`<p class="bad worse">x</p>`, "")
	require.NoError(t, err)
	assert.Equal(t, `<p>x</p>`, got)
	assert.Len(t, report.RemovedCSSClasses, 2)
	require.Len(t, report.RemovedAttributes, 1)
	assert.Equal(t, event.ClassAttributeEmpty, report.RemovedAttributes[0].Reason)
}

func TestSanitizeReport(t *testing.T) {
	s := sanitize.New(nil, nil)
	got, report, err := s.SanitizeWithReport(
		`<div onclick="x()"><script>y()</script><!-- c --><a href="b">z</a></div>`,
		"http://example.com/")
	require.NoError(t, err)

	assert.Equal(t, `<div><a href="http://example.com/b">z</a></div>`, got)
	assert.Equal(t, "http://example.com/", report.BaseURL)
	assert.Equal(t, []event.TagChange{{Tag: "script", Reason: event.NotAllowedTag}}, report.RemovedTags)
	assert.Equal(t, []event.AttributeChange{
		{Tag: "div", Name: "onclick", Value: "x()", Reason: event.NotAllowedAttribute},
	}, report.RemovedAttributes)
	assert.Equal(t, []event.AttributeChange{
		{Tag: "a", Name: "href", Value: "b", NewValue: "http://example.com/b"},
	}, report.ModifiedAttributes)
	assert.Equal(t, 1, report.RemovedComments)
	assert.True(t, report.Changed())
	assert.Equal(t, 3, report.Removals())

	_, report, err = s.SanitizeWithReport(`<p>clean</p>`, "")
	require.NoError(t, err)
	assert.False(t, report.Changed())
}

func TestSanitizeDocument(t *testing.T) {
	s := sanitize.New(nil, nil)
	got, err := s.SanitizeDocument(
		`<html><head><title>t</title></head><body onload="x()"><p>a</p></body></html>`, "")
	require.NoError(t, err)
	assert.Equal(t, `<html><head></head><body><p>a</p></body></html>`, got)

	got, report, err := s.SanitizeDocumentWithReport(`<!DOCTYPE html><p>hi<script>x</script>`, "")
	require.NoError(t, err)
	assert.Equal(t, `<!DOCTYPE html><html><head></head><body><p>hi</p></body></html>`, got)
	assert.Len(t, report.RemovedTags, 1)
}

func TestSanitizeReader(t *testing.T) {
	s := sanitize.New(nil, nil)
	w := &bytes.Buffer{}
	report, err := s.SanitizeReader(strings.NewReader(`<b onmouseover="x">hi</b>`), w, "")
	require.NoError(t, err)
	assert.Equal(t, `<b>hi</b>`, w.String())
	assert.Len(t, report.RemovedAttributes, 1)
}

func TestSanitizeStyleElement(t *testing.T) {
	p := policy.Default()
	p.AllowedTags.Add("style")
	p.AllowedAtRules = policy.NewRuleKinds(policy.RuleStyle, policy.RuleMedia)
	s := sanitize.New(p, nil)

	got, report, err := s.SanitizeWithReport(
		`<style>@media screen { p { color: red; position: fixed } } `+
			`@font-face { font-family: x; src: url(x.woff) }</style><p>x</p>`, "")
	require.NoError(t, err)

	assert.Contains(t, got, "@media")
	assert.Contains(t, got, "color: red")
	assert.NotContains(t, got, "position")
	assert.NotContains(t, got, "@font-face")
	assert.Contains(t, got, "<p>x</p>")

	require.Len(t, report.RemovedAtRules, 1)
	assert.Equal(t, "font-face", report.RemovedAtRules[0].Kind)
	require.Len(t, report.RemovedStyles, 1)
	assert.Equal(t, event.StyleChange{
		Tag: "style", Property: "position", Value: "fixed", Reason: event.NotAllowedStyle,
	}, report.RemovedStyles[0])
}

func TestSanitizeIdempotent(t *testing.T) {
	p := policy.Default()
	p.AllowedTags.Add("style")
	p.KeepChildNodes = true
	s := sanitize.New(p, nil)

	inputs := []string{
		`<div style="background: url(a.png) no-repeat; color: red">x</div>`,
		`<a href="rel/path?a=1&amp;b=2">link</a><foo>bar</foo>`,
		`<style>p { color: red; background: url("b.png") } @import url(x.css);</style>`,
		`<p title="a<b>c">text &amp; more</p><!-- gone -->`,
		`<IMG SRC=javascript:alert('XSS')><table><tr><td>cell`,
		`<div style="font-family: '\\'; width: 1px">x</div>`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			once := sanitizeString(t, s, input, "http://example.com/dir/")
			twice := sanitizeString(t, s, once, "http://example.com/dir/")
			assert.Equal(t, once, twice)
		})
	}
}

func TestSanitizeCancelRemoval(t *testing.T) {
	host := extension.NewHost()
	host.Events.BeforeTagRemoved.AddListener("keep-script",
		func(e event.TagRemoval) *event.Decision {
			if e.Tag == "script" {
				return event.Cancel()
			}
			return nil
		})
	host.Events.BeforeAttributeRemoved.AddListener("keep-onclick",
		func(e event.AttributeRemoval) *event.Decision {
			if e.Name == "onclick" {
				return event.Cancel()
			}
			return nil
		})
	host.Events.BeforeCommentRemoved.AddListener("keep-comments",
		func(e event.CommentRemoval) *event.Decision {
			return event.Cancel()
		})
	s := sanitize.New(nil, host)

	got, report, err := s.SanitizeWithReport(
		`<p onclick="x()" onmouseover="y()">a</p><script>b()</script><!-- c -->`, "")
	require.NoError(t, err)
	assert.Equal(t, `<p onclick="x()">a</p><script>b()</script><!-- c -->`, got)
	assert.Empty(t, report.RemovedTags)
	assert.Equal(t, 0, report.RemovedComments)
	require.Len(t, report.RemovedAttributes, 1)
	assert.Equal(t, "onmouseover", report.RemovedAttributes[0].Name)
}

func TestSanitizeCancelledTagChildrenFiltered(t *testing.T) {
	host := extension.NewHost()
	host.Events.BeforeTagRemoved.AddListener("keep-foo",
		func(e event.TagRemoval) *event.Decision {
			if e.Tag == "foo" {
				return event.Cancel()
			}
			return nil
		})
	s := sanitize.New(nil, host)

	got := sanitizeString(t, s, `<foo><script>x</script>y</foo>`, "")
	assert.Equal(t, `<foo>y</foo>`, got)
}

func TestSanitizeProceedStopsListeners(t *testing.T) {
	host := extension.NewHost()
	host.Events.BeforeTagRemoved.AddListener("first",
		func(e event.TagRemoval) *event.Decision { return event.Proceed() })
	host.Events.BeforeTagRemoved.AddListener("second",
		func(e event.TagRemoval) *event.Decision { return event.Cancel() })
	s := sanitize.New(nil, host)

	assert.Equal(t, "", sanitizeString(t, s, `<script>x</script>`, ""))
}

func TestSanitizeFilterURL(t *testing.T) {
	host := extension.NewHost()
	host.Events.FilterURL.AddListener("proxy",
		func(e event.URLFilter) *string {
			if strings.Contains(e.Sanitized, "blocked") {
				empty := ""
				return &empty
			}
			proxied := "https://proxy.example/?u=" + e.Sanitized
			return &proxied
		})
	s := sanitize.New(nil, host)

	got := sanitizeString(t, s, `<img src="http://a.example/x.png">`, "")
	assert.Equal(t, `<img src="https://proxy.example/?u=http://a.example/x.png"/>`, got)

	got = sanitizeString(t, s, `<img src="http://blocked.example/x.png">`, "")
	assert.Equal(t, `<img/>`, got)
}

func TestSanitizeNodeFilteredReplacement(t *testing.T) {
	host := extension.NewHost()
	host.Events.NodeFiltered.AddListener("swap-bold",
		func(e event.FilteredNode) *event.Replacement {
			if e.Node.Type != html.ElementNode {
				return nil
			}
			switch e.Node.Data {
			case "b":
				return &event.Replacement{Nodes: []*html.Node{{Type: html.TextNode, Data: "B"}}}
			case "i":
				return &event.Replacement{}
			}
			return nil
		})
	documentSeen := false
	host.Events.DocumentFiltered.AddListener("doc",
		func(e event.FilteredDocument) *extension.Void {
			documentSeen = true
			assert.Equal(t, "http://example.com/", e.BaseURL)
			return nil
		})
	s := sanitize.New(nil, host)

	got := sanitizeString(t, s, `<p><b>x</b>y<i>z</i></p>`, "http://example.com/")
	assert.Equal(t, `<p>By</p>`, got)
	assert.True(t, documentSeen)
}

func TestSanitizeAfterSanitized(t *testing.T) {
	host := extension.NewHost()
	listener := host.Events.AfterSanitized.AsyncTestListener("test", 1)
	s := sanitize.New(nil, host)

	sanitizeString(t, s, `<script>x</script>`, "")

	got, err := listener()
	require.NoError(t, err)
	assert.Equal(t, []event.TagChange{{Tag: "script", Reason: event.NotAllowedTag}}, got.RemovedTags)
}

func TestSanitizeInlineStyle(t *testing.T) {
	testCases := []struct {
		name, input, want string
		removed           []event.StyleChange
	}{
		{
			name:  "single declaration",
			input: `<div style="color: red">x</div>`,
			want:  `<div style="color: red">x</div>`,
		},
		{
			name:  "terminated",
			input: `<div style="color:red;">x</div>`,
			want:  `<div style="color: red">x</div>`,
		},
		{
			name:  "empty declarations",
			input: `<div style=";color: red;; width: 1px ;">x</div>`,
			want:  `<div style="color: red; width: 1px">x</div>`,
		},
		{
			name:  "important",
			input: `<div style="font-weight: bold !IMPORTANT">x</div>`,
			want:  `<div style="font-weight: bold !important">x</div>`,
		},
		{
			name:  "last declaration removed",
			input: `<div style="color: red; width: expression(alert(1))">x</div>`,
			want:  `<div style="color: red">x</div>`,
			removed: []event.StyleChange{
				{Tag: "div", Property: "width", Value: "expression(alert(1))", Reason: event.NotAllowedValue},
			},
		},
		{
			name:  "escaped url",
			input: `<div style="background:\75rl(javascript:alert(1))">x</div>`,
			want:  `<div>x</div>`,
			removed: []event.StyleChange{
				{Tag: "div", Property: "background", Value: `\75rl(javascript:alert(1))`,
					Reason: event.NotAllowedURLValue},
			},
		},
		{
			name:  "escaped semicolon",
			input: `<div style="color: red\3b position\3a fixed;">x</div>`,
			want:  `<div>x</div>`,
			removed: []event.StyleChange{
				{Tag: "div", Property: "color", Value: `red\3b position\3a fixed`, Reason: event.NotAllowedValue},
			},
		},
		{
			name:  "escaped brace",
			input: `<div style="color: red\7d; width: 1px">x</div>`,
			want:  `<div style="width: 1px">x</div>`,
			removed: []event.StyleChange{
				{Tag: "div", Property: "color", Value: `red\7d`, Reason: event.NotAllowedValue},
			},
		},
		{
			name:  "escaped important",
			input: `<div style="color: red \21 important">x</div>`,
			want:  `<div>x</div>`,
			removed: []event.StyleChange{
				{Tag: "div", Property: "color", Value: `red \21 important`, Reason: event.NotAllowedValue},
			},
		},
		{
			name:  "escaped quote",
			input: `<div style="font-family: \22 x">x</div>`,
			want:  `<div>x</div>`,
			removed: []event.StyleChange{
				{Tag: "div", Property: "font-family", Value: `\22 x`, Reason: event.NotAllowedValue},
			},
		},
	}
	s := sanitize.New(nil, nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, report, err := s.SanitizeWithReport(tc.input, "")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.removed, report.RemovedStyles)
		})
	}
}

func TestSanitizeInlineStyleUnparsable(t *testing.T) {
	s := sanitize.New(nil, nil)

	for _, input := range []string{
		`<div style="color red">x</div>`,
		`<div style="color: 'unclosed">x</div>`,
		`<div style=": red">x</div>`,
	} {
		t.Run(input, func(t *testing.T) {
			got, report, err := s.SanitizeWithReport(input, "")
			require.NoError(t, err)
			assert.Equal(t, `<div>x</div>`, got)
			require.Len(t, report.RemovedAttributes, 1)
			assert.Equal(t, "style", report.RemovedAttributes[0].Name)
			assert.Equal(t, event.NotAllowedStyle, report.RemovedAttributes[0].Reason)
		})
	}
}

func TestSanitizeEscapedStyleIdempotent(t *testing.T) {
	s := sanitize.New(nil, nil)

	inputs := []string{
		`<div style="color: red">x</div>`,
		`<div style="font-family: a\5c 3b b; color: red">x</div>`,
		`<div style="color: \72 ed; background: \75rl(a.png)">x</div>`,
		`<div style="color: red\3b position\3a fixed; width: 1px">x</div>`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			once := sanitizeString(t, s, input, "http://example.com/")
			twice := sanitizeString(t, s, once, "http://example.com/")
			assert.Equal(t, once, twice)
			assert.NotContains(t, once, "position")
		})
	}
}

func TestSanitizeNodeFilteredKeepsSelf(t *testing.T) {
	host := extension.NewHost()
	host.Events.NodeFiltered.AddListener("bracket-bold",
		func(e event.FilteredNode) *event.Replacement {
			if e.Node.Type != html.ElementNode || e.Node.Data != "b" {
				return nil
			}
			return &event.Replacement{Nodes: []*html.Node{
				{Type: html.TextNode, Data: "["},
				e.Node,
				{Type: html.TextNode, Data: "]"},
			}}
		})
	host.Events.NodeFiltered.AddListener("same-italic",
		func(e event.FilteredNode) *event.Replacement {
			if e.Node.Type != html.ElementNode || e.Node.Data != "i" {
				return nil
			}
			return &event.Replacement{Nodes: []*html.Node{e.Node}}
		})
	s := sanitize.New(nil, host)

	got := sanitizeString(t, s, `<p><b>x</b>y<i>z</i></p>`, "")
	assert.Equal(t, `<p>[<b>x</b>]y<i>z</i></p>`, got)
}

func TestSanitizeNodeFilteredDetached(t *testing.T) {
	host := extension.NewHost()
	host.Events.NodeFiltered.AddListener("drop-italic",
		func(e event.FilteredNode) *event.Replacement {
			if e.Node.Type != html.ElementNode || e.Node.Data != "i" {
				return nil
			}
			e.Node.Parent.RemoveChild(e.Node)
			return &event.Replacement{Nodes: []*html.Node{{Type: html.TextNode, Data: "gone"}}}
		})
	s := sanitize.New(nil, host)

	got := sanitizeString(t, s, `<p>a<i>b</i>c</p>`, "")
	assert.Equal(t, `<p>ac</p>`, got)
}
