package event

// ChangeReport enumerates every change made by one sanitize call.  Element scoped entries are
// keyed by the owning tag name.
type ChangeReport struct {
	BaseURL            string            `json:"baseUrl,omitempty"`
	RemovedTags        []TagChange       `json:"removedTags,omitempty"`
	RemovedAttributes  []AttributeChange `json:"removedAttributes,omitempty"`
	ModifiedAttributes []AttributeChange `json:"modifiedAttributes,omitempty"`
	RemovedStyles      []StyleChange     `json:"removedStyles,omitempty"`
	RemovedAtRules     []AtRuleChange    `json:"removedAtRules,omitempty"`
	RemovedCSSClasses  []CSSClassChange  `json:"removedCssClasses,omitempty"`
	RemovedComments    int               `json:"removedComments,omitempty"`
}

// TagChange records a removed element.
type TagChange struct {
	Tag    string `json:"tag"`
	Reason Reason `json:"reason"`
}

// AttributeChange records a removed or rewritten attribute.  For rewrites Value holds the
// original value and NewValue the replacement.
type AttributeChange struct {
	Tag      string `json:"tag"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	NewValue string `json:"newValue,omitempty"`
	Reason   Reason `json:"reason,omitempty"`
}

// StyleChange records a removed CSS declaration.  Tag is "style" for stylesheet declarations.
type StyleChange struct {
	Tag      string `json:"tag"`
	Property string `json:"property"`
	Value    string `json:"value"`
	Reason   Reason `json:"reason"`
}

// AtRuleChange records a removed CSS rule.
type AtRuleChange struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Reason Reason `json:"reason"`
}

// CSSClassChange records a removed class token.
type CSSClassChange struct {
	Tag    string `json:"tag"`
	Class  string `json:"class"`
	Reason Reason `json:"reason"`
}

// Changed returns true if the report holds any change.
func (r *ChangeReport) Changed() bool {
	return len(r.RemovedTags) > 0 ||
		len(r.RemovedAttributes) > 0 ||
		len(r.ModifiedAttributes) > 0 ||
		len(r.RemovedStyles) > 0 ||
		len(r.RemovedAtRules) > 0 ||
		len(r.RemovedCSSClasses) > 0 ||
		r.RemovedComments > 0
}

// Removals counts removed constructs, excluding rewrites.
func (r *ChangeReport) Removals() int {
	return len(r.RemovedTags) + len(r.RemovedAttributes) + len(r.RemovedStyles) +
		len(r.RemovedAtRules) + len(r.RemovedCSSClasses) + r.RemovedComments
}
