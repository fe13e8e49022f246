package event

import (
	"github.com/aymerick/douceur/css"
	"github.com/inbucket/sanitizer/pkg/policy"
	"golang.org/x/net/html"
)

// TagRemoval is emitted before a disallowed element is removed.
type TagRemoval struct {
	Tag    string
	Reason Reason
	Node   *html.Node
}

// AttributeRemoval is emitted before an attribute is removed from an element.
type AttributeRemoval struct {
	Tag    string
	Name   string
	Value  string
	Reason Reason
	Node   *html.Node
}

// StyleRemoval is emitted before a CSS declaration is removed.  Node is the owning element for
// inline styles, Rule is the owning rule for stylesheet declarations; one of them is nil.
type StyleRemoval struct {
	Tag      string
	Property string
	Value    string
	Reason   Reason
	Node     *html.Node
	Rule     *css.Rule
}

// AtRuleRemoval is emitted before a CSS rule and its nested rules are removed from a stylesheet.
type AtRuleRemoval struct {
	Kind   policy.RuleKind
	Name   string // At-rule keyword, or the selector list of a qualified rule.
	Reason Reason
	Rule   *css.Rule
}

// CSSClassRemoval is emitted before a single class token is removed from a class attribute.
type CSSClassRemoval struct {
	Tag    string
	Class  string
	Reason Reason
	Node   *html.Node
}

// CommentRemoval is emitted before a comment node is removed.
type CommentRemoval struct {
	Data string
	Node *html.Node
}

// URLFilter is emitted after a URL passed the scheme check, allowing listeners to rewrite it.
// Listeners return the replacement URL, or an empty string to reject it.
type URLFilter struct {
	Tag       string
	Attribute string // Empty for CSS url() references.
	Original  string
	Sanitized string
}

// FilteredNode is emitted once for every node remaining after filtering.  Listeners may mutate
// Node directly.
type FilteredNode struct {
	Node *html.Node
}

// FilteredDocument is emitted once per sanitize call, after FilteredNode processing.
type FilteredDocument struct {
	Root    *html.Node
	BaseURL string
}

// Decision is returned by listeners of removal events.
type Decision struct {
	Cancel bool // Suppress the default removal.
}

// Cancel returns a decision that vetoes the removal.
func Cancel() *Decision {
	return &Decision{Cancel: true}
}

// Proceed returns a decision that allows the removal, skipping any remaining listeners.
func Proceed() *Decision {
	return &Decision{Cancel: false}
}

// Replacement is returned by FilteredNode listeners to swap the node for the provided nodes.  An
// empty Nodes slice removes the node.  Including the filtered node itself keeps it, with the
// other nodes placed around it.  Nodes already in the tree are moved.
type Replacement struct {
	Nodes []*html.Node
}
