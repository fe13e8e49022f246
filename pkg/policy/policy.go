// Package policy holds the allow-lists and behavioral flags that drive HTML sanitization.
package policy

import (
	"regexp"
	"strings"
	"sync"
)

// DefaultDataAttributePrefix is the attribute name prefix spared when AllowDataAttributes is set.
const DefaultDataAttributePrefix = "data-"

// Policy describes what survives sanitization.  A Policy must not be modified while a sanitize
// call is using it; callers that need different rules should Clone the policy instead.
type Policy struct {
	AllowedTags          Set // Element names kept in output.
	AllowedAttributes    Set // Attribute names kept in output.
	URIAttributes        Set // Attributes whose values are URLs.
	AllowedSchemes       Set // URL schemes permitted in URI attributes and CSS url().
	AllowedCSSProperties Set // CSS properties kept in style attributes and stylesheets.
	AllowedCSSClasses    Set // CSS classes kept in class attributes, nil allows any.
	AllowedAtRules       map[RuleKind]struct{}

	// DisallowCSSValue rejects any CSS declaration whose decoded value matches.
	DisallowCSSValue *regexp.Regexp

	AllowDataAttributes bool   // Keep attributes starting with DataAttributePrefix.
	DataAttributePrefix string // Defaults to DefaultDataAttributePrefix when empty.
	KeepChildNodes      bool   // Unwrap disallowed elements instead of dropping their subtree.
}

var (
	defaultPolicy     *Policy
	defaultPolicyOnce sync.Once
)

// Default returns a new copy of the default policy.  The default tables are built once and never
// mutated, so the returned policy may be modified freely.
func Default() *Policy {
	defaultPolicyOnce.Do(func() {
		defaultPolicy = &Policy{
			AllowedTags:          NewSet(defaultTags...),
			AllowedAttributes:    NewSet(defaultAttributes...),
			URIAttributes:        NewSet(defaultURIAttributes...),
			AllowedSchemes:       NewSet(defaultSchemes...),
			AllowedCSSProperties: NewSet(defaultCSSProperties...),
			AllowedAtRules:       NewRuleKinds(RuleStyle, RuleNamespace),
			DisallowCSSValue:     regexp.MustCompile(`[<>]`),
			DataAttributePrefix:  DefaultDataAttributePrefix,
		}
	})
	return defaultPolicy.Clone()
}

// NewRuleKinds builds an at-rule allow-list from the provided kinds.
func NewRuleKinds(kinds ...RuleKind) map[RuleKind]struct{} {
	m := make(map[RuleKind]struct{}, len(kinds))
	for _, k := range kinds {
		m[k] = struct{}{}
	}
	return m
}

// Clone returns a deep copy of the policy.
func (p *Policy) Clone() *Policy {
	c := *p
	c.AllowedTags = p.AllowedTags.Clone()
	c.AllowedAttributes = p.AllowedAttributes.Clone()
	c.URIAttributes = p.URIAttributes.Clone()
	c.AllowedSchemes = p.AllowedSchemes.Clone()
	c.AllowedCSSProperties = p.AllowedCSSProperties.Clone()
	c.AllowedCSSClasses = p.AllowedCSSClasses.Clone()
	if p.AllowedAtRules != nil {
		c.AllowedAtRules = make(map[RuleKind]struct{}, len(p.AllowedAtRules))
		for k := range p.AllowedAtRules {
			c.AllowedAtRules[k] = struct{}{}
		}
	}
	// Compiled regexps are safe for concurrent use, sharing is fine.
	return &c
}

// TagAllowed indicates if the named element may be kept.
func (p *Policy) TagAllowed(name string) bool {
	return p.AllowedTags.Has(name)
}

// AttributeAllowed indicates if the named attribute may be kept, taking data attributes into
// account.
func (p *Policy) AttributeAllowed(name string) bool {
	if p.AllowedAttributes.Has(name) {
		return true
	}
	return p.AllowDataAttributes && p.IsDataAttribute(name)
}

// IsDataAttribute indicates if the name carries the data attribute prefix.
func (p *Policy) IsDataAttribute(name string) bool {
	prefix := p.DataAttributePrefix
	if prefix == "" {
		prefix = DefaultDataAttributePrefix
	}
	return len(name) > len(prefix) && strings.EqualFold(name[:len(prefix)], prefix)
}

// IsURIAttribute indicates if the named attribute holds a URL.
func (p *Policy) IsURIAttribute(name string) bool {
	return p.URIAttributes.Has(name)
}

// SchemeAllowed indicates if the URL scheme is permitted.
func (p *Policy) SchemeAllowed(scheme string) bool {
	return p.AllowedSchemes.Has(scheme)
}

// CSSPropertyAllowed indicates if the CSS property may be kept.
func (p *Policy) CSSPropertyAllowed(name string) bool {
	return p.AllowedCSSProperties.Has(name)
}

// AtRuleAllowed indicates if CSS rules of this kind may be kept.
func (p *Policy) AtRuleAllowed(kind RuleKind) bool {
	_, ok := p.AllowedAtRules[kind]
	return ok
}

// RestrictsCSSClasses is true when a CSS class allow-list is configured.
func (p *Policy) RestrictsCSSClasses() bool {
	return p.AllowedCSSClasses != nil
}

// CSSClassAllowed indicates if the class token may be kept.
func (p *Policy) CSSClassAllowed(class string) bool {
	if p.AllowedCSSClasses == nil {
		return true
	}
	return p.AllowedCSSClasses.Has(class)
}
