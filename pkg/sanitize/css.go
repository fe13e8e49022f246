package sanitize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aymerick/douceur/css"
	"github.com/gorilla/css/scanner"
	"github.com/inbucket/sanitizer/pkg/extension/event"
)

var (
	// cssEscapeRE matches a hex escape with its optional trailing whitespace, or an escaped char.
	cssEscapeRE = regexp.MustCompile(`\\([0-9a-fA-F]{1,6})\s?|\\(.)`)

	cssCommentRE = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// expressionRE matches the legacy IE expression() trigger, including full-width and IPA
	// extension homoglyphs of its letters.
	expressionRE = regexp.MustCompile(
		`[eE\x{FF25}\x{FF45}][xX\x{FF38}\x{FF58}][pP\x{FF30}\x{FF50}][rR\x{0280}\x{FF32}\x{FF52}]` +
			`[eE\x{FF25}\x{FF45}][sS\x{FF33}\x{FF53}]{2}[iI\x{026A}\x{FF29}\x{FF49}]` +
			`[oO\x{FF2F}\x{FF4F}][nN\x{0274}\x{FF2E}\x{FF4E}]`)

	// cssURLRE matches url() references.  An unterminated reference runs to the end of the value,
	// as it does in browsers.
	cssURLRE = regexp.MustCompile(
		`[uU\x{FF35}\x{FF55}][rR\x{0280}\x{FF32}\x{FF52}][lL\x{029F}\x{FF2C}\x{FF4C}]\s*\(\s*` +
			`(?:"([^"]*)"|'([^']*)'|([^)]*?))\s*(?:\)|$)`)

	// jsIncludeRE matches the Netscape JavaScript entity syntax, &{...};
	jsIncludeRE = regexp.MustCompile(`&\s*\{`)

	// importantRE matches a trailing !important flag.
	importantRE = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)

	// styleCloseRE matches text that would terminate a <style> element early.
	styleCloseRE = regexp.MustCompile(`(?i)</(style)`)

	// cssURLReplacer percent encodes the characters that would break out of a quoted url().
	cssURLReplacer = strings.NewReplacer(
		`'`, "%27",
		`\`, "%5C",
		"\n", "%0A",
		"\r", "%0D",
		"\f", "%0C",
	)
)

// StyleOp is the outcome of sanitizing a single CSS declaration.
type StyleOp int

// Style operations.
const (
	StyleKeep StyleOp = iota
	StyleRewrite
	StyleRemove
)

func (op StyleOp) String() string {
	switch op {
	case StyleKeep:
		return "keep"
	case StyleRewrite:
		return "rewrite"
	case StyleRemove:
		return "remove"
	}
	return "StyleOp(" + strconv.Itoa(int(op)) + ")"
}

// StyleAction describes what to do with a CSS declaration.  Name and Value hold the canonical
// declaration for StyleKeep and StyleRewrite; Reason is set for StyleRemove.
type StyleAction struct {
	Op     StyleOp
	Name   string
	Value  string
	Reason event.Reason
}

// DecodeCSS resolves CSS escapes and strips comments, so that obfuscated tokens such as \75rl(
// are seen for what they are.  Hex escapes become their code point, invalid code points become
// U+FFFD.  Any other escaped character becomes itself, except a backslash, which is left doubled
// whether it was escaped by hex or not, so decoding never produces a new escape.
func DecodeCSS(s string) string {
	if strings.IndexByte(s, '\\') >= 0 {
		s = cssEscapeRE.ReplaceAllStringFunc(s, decodeCSSEscape)
	}
	if strings.Contains(s, "/*") {
		s = cssCommentRE.ReplaceAllString(s, "")
	}
	return s
}

func decodeCSSEscape(match string) string {
	m := cssEscapeRE.FindStringSubmatch(match)
	if m[1] != "" {
		code, err := strconv.ParseUint(m[1], 16, 32)
		if err != nil || code == 0 || !utf8.ValidRune(rune(code)) {
			return string(utf8.RuneError)
		}
		if code == '\\' {
			return `\\`
		}
		return string(rune(code))
	}
	if m[2] == `\` {
		return `\\`
	}
	return m[2]
}

// styleAction runs the decoder and value guard over one declaration.
func (p *pass) styleAction(tag, name, value string) StyleAction {
	key := strings.ToLower(strings.TrimSpace(DecodeCSS(name)))
	val := strings.TrimSpace(DecodeCSS(value))

	if !p.policy.CSSPropertyAllowed(key) {
		return StyleAction{Op: StyleRemove, Reason: event.NotAllowedStyle}
	}
	if expressionRE.MatchString(val) ||
		(p.policy.DisallowCSSValue != nil && p.policy.DisallowCSSValue.MatchString(val)) {
		return StyleAction{Op: StyleRemove, Reason: event.NotAllowedValue}
	}
	if cssURLRE.MatchString(val) {
		rewritten, ok := p.rewriteCSSURLs(tag, val)
		if !ok {
			return StyleAction{Op: StyleRemove, Reason: event.NotAllowedURLValue}
		}
		val = rewritten
	}
	if breaksOut(val) {
		return StyleAction{Op: StyleRemove, Reason: event.NotAllowedValue}
	}

	if key != strings.ToLower(strings.TrimSpace(name)) || val != strings.TrimSpace(value) {
		return StyleAction{Op: StyleRewrite, Name: key, Value: val}
	}
	return StyleAction{Op: StyleKeep, Name: key, Value: val}
}

// rewriteCSSURLs resolves every url() in value, returning false if any of them is unsafe.
func (p *pass) rewriteCSSURLs(tag, value string) (string, bool) {
	ok := true
	out := cssURLRE.ReplaceAllStringFunc(value, func(match string) string {
		if !ok {
			return match
		}
		m := cssURLRE.FindStringSubmatch(match)
		raw := m[1] + m[2] + strings.TrimSpace(m[3])
		resolved, safe := p.resolveURL(tag, "", raw)
		if !safe {
			ok = false
			return match
		}
		return "url('" + cssURLReplacer.Replace(resolved) + "')"
	})
	return out, ok
}

// sanitizeDeclarations filters and canonicalizes declarations in place, returning those to keep.
// Removals are announced through BeforeStyleRemoved; a vetoed declaration is kept unmodified.
func (p *pass) sanitizeDeclarations(decls []*css.Declaration, owner styleOwner) ([]*css.Declaration, bool) {
	kept := make([]*css.Declaration, 0, len(decls))
	rewritten := false
	for _, decl := range decls {
		action := p.styleAction(owner.tag, decl.Property, decl.Value)
		switch action.Op {
		case StyleRemove:
			if p.removeStyle(owner, decl, action.Reason) {
				continue
			}
		default:
			decl.Property = action.Name
			decl.Value = action.Value
			rewritten = rewritten || action.Op == StyleRewrite
		}
		kept = append(kept, decl)
	}
	return kept, rewritten
}

// breaksOut reports whether a decoded value would no longer read as a single value once
// serialized: a top level ; : { } or !, an HTML comment delimiter, or text the tokenizer rejects
// such as an unbalanced quote.
func breaksOut(value string) bool {
	scan := scanner.New(value)
	for {
		t := scan.Next()
		switch t.Type {
		case scanner.TokenEOF:
			return false
		case scanner.TokenError, scanner.TokenCDO, scanner.TokenCDC:
			return true
		case scanner.TokenChar:
			switch t.Value {
			case ";", ":", "{", "}", "!":
				return true
			}
		}
	}
}

// parseStyleAttribute splits the text of a style attribute into declarations.  The last
// declaration needs no terminating semicolon.  The first top level colon ends the property name,
// and a semicolon inside parentheses does not end the declaration.
func parseStyleAttribute(text string) ([]*css.Declaration, error) {
	var decls []*css.Declaration
	name := &strings.Builder{}
	value := &strings.Builder{}
	inValue := false
	depth := 0

	flush := func() error {
		prop := strings.TrimSpace(name.String())
		val := value.String()
		hadColon := inValue
		name.Reset()
		value.Reset()
		inValue = false
		if prop == "" && !hadColon && strings.TrimSpace(val) == "" {
			// Empty declaration, as in "a: b;;".
			return nil
		}
		if prop == "" || !hadColon {
			return fmt.Errorf("invalid declaration %q", prop+val)
		}
		decl := css.NewDeclaration()
		decl.Property = prop
		if importantRE.MatchString(val) {
			decl.Important = true
			val = importantRE.ReplaceAllString(val, "")
		}
		decl.Value = strings.TrimSpace(val)
		decls = append(decls, decl)
		return nil
	}

	scan := scanner.New(text)
	for {
		t := scan.Next()
		switch t.Type {
		case scanner.TokenEOF:
			if err := flush(); err != nil {
				return nil, err
			}
			return decls, nil
		case scanner.TokenError:
			return nil, fmt.Errorf("failed to parse style at column %d: %s", t.Column, t.Value)
		case scanner.TokenComment:
			continue
		case scanner.TokenFunction:
			depth++
		case scanner.TokenChar:
			switch t.Value {
			case "(":
				depth++
			case ")":
				if depth > 0 {
					depth--
				}
			case ";":
				if depth == 0 {
					if err := flush(); err != nil {
						return nil, err
					}
					continue
				}
			case ":":
				if !inValue {
					inValue = true
					continue
				}
			}
		}
		if inValue {
			value.WriteString(t.Value)
		} else {
			name.WriteString(t.Value)
		}
	}
}

// formatDeclarations renders declarations for a style attribute.
func formatDeclarations(decls []*css.Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, decl := range decls {
		s := decl.Property + ": " + decl.Value
		if decl.Important {
			s += " !important"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

// preludeSafe tokenizes a rule prelude or selector list, rejecting anything that is not plain CSS:
// scanner errors, HTML comment delimiters and '<'.
func preludeSafe(prelude string) bool {
	scan := scanner.New(prelude)
	for {
		t := scan.Next()
		switch t.Type {
		case scanner.TokenEOF:
			return true
		case scanner.TokenError, scanner.TokenCDO, scanner.TokenCDC:
			return false
		case scanner.TokenChar:
			if t.Value == "<" {
				return false
			}
		}
	}
}

// preludeStrings returns the quoted strings found in a prelude, as used by @import "x".
func preludeStrings(prelude string) []string {
	var strs []string
	scan := scanner.New(prelude)
	for {
		t := scan.Next()
		switch t.Type {
		case scanner.TokenEOF, scanner.TokenError:
			return strs
		case scanner.TokenString:
			if len(t.Value) >= 2 {
				strs = append(strs, t.Value[1:len(t.Value)-1])
			}
		}
	}
}
