package policy

import (
	"fmt"
	"strings"
)

// RuleKind identifies the type of a CSS rule, following the CSSOM rule types.
type RuleKind int

// CSS rule kinds.  Qualified rules are RuleStyle, or RuleKeyframe when nested inside a keyframes
// container; every other kind is an at-rule.
const (
	RuleUnknown RuleKind = iota
	RuleStyle
	RuleCharset
	RuleImport
	RuleMedia
	RuleFontFace
	RulePage
	RuleKeyframes
	RuleKeyframe
	RuleMargin
	RuleNamespace
	RuleCounterStyle
	RuleSupports
	RuleDocument
	RuleFontFeatureValues
	RuleViewport
)

var ruleKindNames = map[RuleKind]string{
	RuleUnknown:           "unknown",
	RuleStyle:             "style",
	RuleCharset:           "charset",
	RuleImport:            "import",
	RuleMedia:             "media",
	RuleFontFace:          "font-face",
	RulePage:              "page",
	RuleKeyframes:         "keyframes",
	RuleKeyframe:          "keyframe",
	RuleMargin:            "margin",
	RuleNamespace:         "namespace",
	RuleCounterStyle:      "counter-style",
	RuleSupports:          "supports",
	RuleDocument:          "document",
	RuleFontFeatureValues: "font-feature-values",
	RuleViewport:          "viewport",
}

// at-rule keywords (without the @) mapped to their kind.  Vendor prefixes are stripped before lookup.
var atRuleKinds = map[string]RuleKind{
	"charset":             RuleCharset,
	"import":              RuleImport,
	"media":               RuleMedia,
	"font-face":           RuleFontFace,
	"page":                RulePage,
	"keyframes":           RuleKeyframes,
	"namespace":           RuleNamespace,
	"counter-style":       RuleCounterStyle,
	"supports":            RuleSupports,
	"document":            RuleDocument,
	"font-feature-values": RuleFontFeatureValues,
	"viewport":            RuleViewport,
	"top-left-corner":     RuleMargin,
	"top-left":            RuleMargin,
	"top-center":          RuleMargin,
	"top-right":           RuleMargin,
	"top-right-corner":    RuleMargin,
	"bottom-left-corner":  RuleMargin,
	"bottom-left":         RuleMargin,
	"bottom-center":       RuleMargin,
	"bottom-right":        RuleMargin,
	"bottom-right-corner": RuleMargin,
	"left-top":            RuleMargin,
	"left-middle":         RuleMargin,
	"left-bottom":         RuleMargin,
	"right-top":           RuleMargin,
	"right-middle":        RuleMargin,
	"right-bottom":        RuleMargin,
}

var vendorPrefixes = []string{"-webkit-", "-moz-", "-ms-", "-o-"}

func (k RuleKind) String() string {
	if name, ok := ruleKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RuleKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k RuleKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *RuleKind) UnmarshalText(text []byte) error {
	parsed, err := ParseRuleKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseRuleKind converts a rule kind name, as produced by String, into a RuleKind.
func ParseRuleKind(name string) (RuleKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, v := range ruleKindNames {
		if v == name {
			return k, nil
		}
	}
	return RuleUnknown, fmt.Errorf("unknown CSS rule kind %q", name)
}

// AtRuleKind maps an at-rule keyword such as "@media" or "@-webkit-keyframes" to its kind.
func AtRuleKind(keyword string) RuleKind {
	name := strings.ToLower(strings.TrimSpace(keyword))
	name = strings.TrimPrefix(name, "@")
	for _, prefix := range vendorPrefixes {
		if strings.HasPrefix(name, prefix) {
			name = name[len(prefix):]
			break
		}
	}
	if k, ok := atRuleKinds[name]; ok {
		return k
	}
	return RuleUnknown
}
