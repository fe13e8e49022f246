package sanitize

import (
	"fmt"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/gorilla/css/scanner"
	"github.com/inbucket/sanitizer/pkg/extension/event"
	"github.com/inbucket/sanitizer/pkg/policy"
	"golang.org/x/net/html"
)

// styleOwner identifies where a declaration lives: an element's style attribute or a rule.
type styleOwner struct {
	tag  string
	node *html.Node
	rule *css.Rule
}

// SanitizeStyleSheet cleans the text of a stylesheet.  Rules of disallowed kinds and declarations
// failing the CSS guard are removed; relative url() references are resolved against baseURL.
func (s *Sanitizer) SanitizeStyleSheet(text, baseURL string) (string, *Report, error) {
	p := s.newPass(baseURL)
	out, err := p.sanitizeStyleSheet(text)
	if err != nil {
		return "", nil, err
	}
	s.events.AfterSanitized.Emit(p.report)
	return out, p.report, nil
}

func (p *pass) sanitizeStyleSheet(text string) (string, error) {
	chunks, err := splitRules(text)
	if err != nil {
		return "", err
	}
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		sheet, err := parseRule(chunk)
		if err != nil {
			// Drop the one rule, not the stylesheet.
			r := unparsedRule(chunk)
			p.logger.Debug().Err(err).Str("name", ruleName(r)).Msg("Unparsable CSS rule")
			if !p.removeAtRule(r, ruleKind(r, policy.RuleUnknown), event.NotAllowedStyle) {
				out = append(out, strings.TrimSpace(chunk))
			}
			continue
		}
		for _, r := range p.sanitizeRules(sheet.Rules, policy.RuleUnknown) {
			out = append(out, r.String())
		}
	}

	return styleCloseRE.ReplaceAllString(strings.Join(out, "\n"), `<\/${1}`), nil
}

// splitRules cuts a stylesheet into the text of its top level rules, so that each can be parsed
// on its own.  A rule ends with a semicolon or a closing brace at the top level.  An error is
// returned only when the text cannot be tokenized, eg. an unclosed string or comment.
func splitRules(text string) ([]string, error) {
	var chunks []string
	b := &strings.Builder{}
	content := false
	depth := 0

	flush := func() {
		if content {
			chunks = append(chunks, b.String())
		}
		b.Reset()
		content = false
	}

	scan := scanner.New(text)
	for {
		t := scan.Next()
		switch t.Type {
		case scanner.TokenEOF:
			flush()
			return chunks, nil
		case scanner.TokenError:
			return nil, fmt.Errorf("failed to parse stylesheet at line %d: %s", t.Line, t.Value)
		case scanner.TokenCDO, scanner.TokenCDC, scanner.TokenBOM:
			if depth == 0 {
				continue
			}
		case scanner.TokenS, scanner.TokenComment:
		case scanner.TokenChar:
			if t.Value != ";" || depth > 0 {
				content = true
			}
		default:
			content = true
		}
		b.WriteString(t.Value)

		if t.Type != scanner.TokenChar {
			continue
		}
		switch t.Value {
		case "{":
			depth++
		case "}":
			depth--
			if depth <= 0 {
				depth = 0
				flush()
			}
		case ";":
			if depth == 0 {
				flush()
			}
		}
	}
}

// Statement states within a block of rules.
const (
	stmtNone = iota
	stmtAt
	stmtQualified
)

// parseRule parses the text of one top level rule.  Text the parser would never finish, a
// semicolon ending a selector or an empty statement where rules are expected, is rejected first.
func parseRule(text string) (*css.Stylesheet, error) {
	if err := checkStatements(text); err != nil {
		return nil, err
	}
	return parser.Parse(text)
}

func checkStatements(text string) error {
	type block struct {
		rules bool // Holds rules rather than declarations.
		stmt  int
		name  string
	}
	stack := []*block{{rules: true}}

	scan := scanner.New(text)
	for {
		t := scan.Next()
		top := stack[len(stack)-1]
		switch t.Type {
		case scanner.TokenEOF:
			return nil
		case scanner.TokenError:
			return fmt.Errorf("failed to parse stylesheet at line %d: %s", t.Line, t.Value)
		case scanner.TokenS, scanner.TokenComment, scanner.TokenCDO, scanner.TokenCDC, scanner.TokenBOM:
			continue
		case scanner.TokenAtKeyword:
			if top.stmt == stmtNone {
				top.stmt = stmtAt
				top.name = t.Value
				continue
			}
		case scanner.TokenChar:
			switch t.Value {
			case "{":
				at := &css.Rule{Kind: css.AtRule, Name: top.name}
				stack = append(stack, &block{rules: top.rules && top.stmt == stmtAt && at.EmbedsRules()})
				continue
			case "}":
				if len(stack) > 1 {
					stack = stack[:len(stack)-1]
				}
				stack[len(stack)-1].stmt = stmtNone
				continue
			case ";":
				if top.rules && top.stmt != stmtAt {
					return fmt.Errorf("unexpected ; at line %d, column %d", t.Line, t.Column)
				}
				top.stmt = stmtNone
				continue
			}
		}
		if top.stmt == stmtNone {
			top.stmt = stmtQualified
		}
	}
}

// unparsedRule describes a rule the parser rejected, using its leading at-keyword or selector.
func unparsedRule(text string) *css.Rule {
	r := &css.Rule{Kind: css.QualifiedRule}
	prelude := &strings.Builder{}
	scan := scanner.New(text)
loop:
	for {
		t := scan.Next()
		switch t.Type {
		case scanner.TokenEOF, scanner.TokenError:
			break loop
		case scanner.TokenS, scanner.TokenComment:
			if prelude.Len() == 0 {
				continue
			}
		case scanner.TokenAtKeyword:
			if r.Name == "" && prelude.Len() == 0 {
				r.Kind = css.AtRule
				r.Name = t.Value
				continue
			}
		case scanner.TokenChar:
			if t.Value == "{" || t.Value == ";" {
				break loop
			}
		}
		prelude.WriteString(t.Value)
	}
	r.Prelude = strings.TrimSpace(prelude.String())
	if r.Kind == css.QualifiedRule {
		r.Selectors = []string{r.Prelude}
	}
	return r
}

// sanitizeStyleElement rewrites the content of a <style> element, removing the element when its
// content cannot be tokenized.
func (p *pass) sanitizeStyleElement(n *html.Node) {
	if n.Parent == nil {
		return
	}
	text, err := p.sanitizeStyleSheet(textContent(n))
	if err != nil {
		p.logger.Debug().Err(err).Msg("Unparsable stylesheet")
		if p.removeTag(n, event.NotAllowedValue) {
			n.Parent.RemoveChild(n)
		}
		return
	}
	setText(n, text)
}

// sanitizeRules filters a rule list.  parent is the kind of the enclosing rule, RuleUnknown at the
// top level.
func (p *pass) sanitizeRules(rules []*css.Rule, parent policy.RuleKind) []*css.Rule {
	kept := make([]*css.Rule, 0, len(rules))
	for _, r := range rules {
		if r == nil {
			continue
		}
		kind := ruleKind(r, parent)
		reason, ok := p.sanitizeRule(r, kind)
		if !ok && p.removeAtRule(r, kind, reason) {
			continue
		}
		if ok && r.Kind == css.QualifiedRule && len(r.Declarations) == 0 {
			// Would render as a bare selector.
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// sanitizeRule cleans r in place, returning false and a reason if the whole rule must go.
func (p *pass) sanitizeRule(r *css.Rule, kind policy.RuleKind) (event.Reason, bool) {
	if !p.policy.AtRuleAllowed(kind) {
		return event.NotAllowedStyle, false
	}

	prelude := r.Prelude
	if r.Kind == css.QualifiedRule && len(r.Selectors) > 0 {
		prelude = strings.Join(r.Selectors, ", ")
	}
	if !preludeSafe(prelude) {
		return event.NotAllowedValue, false
	}
	if !p.preludeURLsSafe(kind, prelude) {
		return event.NotAllowedURLValue, false
	}

	if len(r.Declarations) > 0 {
		r.Declarations, _ = p.sanitizeDeclarations(r.Declarations, styleOwner{tag: "style", rule: r})
	}
	if len(r.Rules) > 0 {
		r.Rules = p.sanitizeRules(r.Rules, kind)
	}
	return 0, true
}

// preludeURLsSafe checks references made from a prelude, such as @import url(x) or
// @namespace svg "x".  References are not rewritten.
func (p *pass) preludeURLsSafe(kind policy.RuleKind, prelude string) bool {
	decoded := DecodeCSS(prelude)
	for _, m := range cssURLRE.FindAllStringSubmatch(decoded, -1) {
		raw := m[1] + m[2] + strings.TrimSpace(m[3])
		if _, ok := p.resolveURL("style", "", raw); !ok {
			return false
		}
	}
	if kind == policy.RuleImport || kind == policy.RuleNamespace {
		for _, raw := range preludeStrings(decoded) {
			if _, ok := p.resolveURL("style", "", raw); !ok {
				return false
			}
		}
	}
	return true
}

// ruleKind classifies a rule.  Qualified rules inside @keyframes are keyframe selectors.
func ruleKind(r *css.Rule, parent policy.RuleKind) policy.RuleKind {
	if r.Kind == css.QualifiedRule {
		if parent == policy.RuleKeyframes {
			return policy.RuleKeyframe
		}
		return policy.RuleStyle
	}
	return policy.AtRuleKind(r.Name)
}

// ruleName describes a rule for events and reports.
func ruleName(r *css.Rule) string {
	if r.Kind == css.QualifiedRule {
		return strings.Join(r.Selectors, ", ")
	}
	return r.Name
}
