// Package sanitize removes unsafe markup and CSS from untrusted HTML, reporting every change and
// allowing extensions to veto or customize each removal.
package sanitize

import (
	"fmt"
	"io"
	"strings"

	"github.com/inbucket/sanitizer/pkg/extension"
	"github.com/inbucket/sanitizer/pkg/extension/event"
	"github.com/inbucket/sanitizer/pkg/policy"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Report enumerates the changes made by a sanitize call.
type Report = event.ChangeReport

// Sanitizer applies a policy to HTML fragments, documents and stylesheets.  A Sanitizer is safe for
// concurrent use provided its policy is not modified.
type Sanitizer struct {
	policy *policy.Policy
	events *extension.Events
	logger zerolog.Logger
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithLogger sets the logger used for debug output of removals.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sanitizer) {
		s.logger = logger.With().Str("module", "sanitize").Logger()
	}
}

// New creates a Sanitizer for the policy, the default policy is used if p is nil.  Extension
// events are emitted through extHost, which may be nil.
func New(p *policy.Policy, extHost *extension.Host, opts ...Option) *Sanitizer {
	if p == nil {
		p = policy.Default()
	}
	events := &extension.Events{}
	if extHost != nil && extHost.Events != nil {
		events = extHost.Events
	}
	s := &Sanitizer{
		policy: p,
		events: events,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the policy in use.
func (s *Sanitizer) Policy() *policy.Policy {
	return s.policy
}

// WithPolicy returns a Sanitizer sharing the events and logger of s, applying p instead.
func (s *Sanitizer) WithPolicy(p *policy.Policy) *Sanitizer {
	return &Sanitizer{policy: p, events: s.events, logger: s.logger}
}

// Sanitize cleans an HTML fragment.  The fragment is parsed as body content.
func (s *Sanitizer) Sanitize(fragment, baseURL string) (string, error) {
	out, _, err := s.SanitizeWithReport(fragment, baseURL)
	return out, err
}

// SanitizeWithReport cleans an HTML fragment, returning the changes made.
func (s *Sanitizer) SanitizeWithReport(fragment, baseURL string) (string, *Report, error) {
	b := &strings.Builder{}
	report, err := s.SanitizeReader(strings.NewReader(fragment), b, baseURL)
	if err != nil {
		return "", nil, err
	}
	return b.String(), report, nil
}

// SanitizeReader cleans the HTML fragment read from r, writing the result to w.
func (s *Sanitizer) SanitizeReader(r io.Reader, w io.Writer, baseURL string) (*Report, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	report := s.SanitizeNode(body, baseURL)

	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return nil, fmt.Errorf("failed to render fragment: %w", err)
		}
	}
	return report, nil
}

// SanitizeDocument cleans a complete HTML document.  The html, head and body elements are
// structural and never removed.
func (s *Sanitizer) SanitizeDocument(document, baseURL string) (string, error) {
	out, _, err := s.SanitizeDocumentWithReport(document, baseURL)
	return out, err
}

// SanitizeDocumentWithReport cleans a complete HTML document, returning the changes made.
func (s *Sanitizer) SanitizeDocumentWithReport(document, baseURL string) (string, *Report, error) {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse document: %w", err)
	}

	report := s.SanitizeNode(doc, baseURL)

	b := &strings.Builder{}
	if err := html.Render(b, doc); err != nil {
		return "", nil, fmt.Errorf("failed to render document: %w", err)
	}
	return b.String(), report, nil
}

// SanitizeNode cleans the descendants of root in place.  The root itself is treated as a
// container: it is never removed, though its attributes are sanitized when it is an element.
func (s *Sanitizer) SanitizeNode(root *html.Node, baseURL string) *Report {
	p := s.newPass(baseURL)
	p.document = root.Type == html.DocumentNode

	p.filterChildren(root)
	for _, n := range collect(root, isStyleElement) {
		p.sanitizeStyleElement(n)
	}
	if root.Type == html.ElementNode {
		p.sanitizeAttributes(root)
	}
	for _, n := range collect(root, isElement) {
		p.sanitizeAttributes(n)
	}
	for _, n := range collect(root, isComment) {
		p.removeComment(n)
	}
	p.finish(root)

	s.events.AfterSanitized.Emit(p.report)
	return p.report
}

// SanitizeStyle runs the CSS guard over a single declaration, without emitting removal events.
func (s *Sanitizer) SanitizeStyle(name, value, baseURL string) StyleAction {
	return s.newPass(baseURL).styleAction("", name, value)
}

// pass holds the state of a single sanitize call.
type pass struct {
	policy   *policy.Policy
	events   *extension.Events
	logger   zerolog.Logger
	baseURL  string
	document bool
	report   *Report
}

func (s *Sanitizer) newPass(baseURL string) *pass {
	return &pass{
		policy:  s.policy,
		events:  s.events,
		logger:  s.logger,
		baseURL: baseURL,
		report:  &Report{BaseURL: baseURL},
	}
}

// resolveURL checks raw against the scheme allow-list and base URL, then gives FilterURL listeners
// the final say.
func (p *pass) resolveURL(tag, attr, raw string) (string, bool) {
	resolved, ok := ResolveURL(raw, p.baseURL, p.policy.AllowedSchemes)
	if !ok {
		return "", false
	}
	if p.events.FilterURL.HasListeners() {
		if rewrite := p.events.FilterURL.Emit(&event.URLFilter{
			Tag:       tag,
			Attribute: attr,
			Original:  raw,
			Sanitized: resolved,
		}); rewrite != nil {
			if *rewrite == "" {
				return "", false
			}
			resolved = *rewrite
		}
	}
	return resolved, true
}

// finish emits NodeFiltered for every remaining node, applying replacements, then
// DocumentFiltered once.
func (p *pass) finish(root *html.Node) {
	if p.events.NodeFiltered.HasListeners() {
		for _, n := range collect(root, func(*html.Node) bool { return true }) {
			if !attached(n, root) {
				// An ancestor was replaced.
				continue
			}
			r := p.events.NodeFiltered.Emit(&event.FilteredNode{Node: n})
			if r == nil || n.Parent == nil {
				// A listener may have detached n itself.
				continue
			}
			replace(n, r.Nodes)
		}
	}

	p.events.DocumentFiltered.Emit(&event.FilteredDocument{Root: root, BaseURL: p.baseURL})
}

// replace substitutes nodes for n.  When nodes includes n itself, n stays where it is with the
// other nodes placed around it in order.  Nodes containing n are ignored.
func replace(n *html.Node, nodes []*html.Node) {
	keep := false
	var before, after []*html.Node
	for _, rn := range nodes {
		switch {
		case rn == nil || attached(n, rn):
		case rn == n:
			keep = true
		case keep:
			after = append(after, rn)
		default:
			before = append(before, rn)
		}
	}
	for _, rn := range append(before, after...) {
		if rn.Parent != nil {
			rn.Parent.RemoveChild(rn)
		}
	}
	parent, next := n.Parent, n.NextSibling
	for _, rn := range before {
		parent.InsertBefore(rn, n)
	}
	for _, rn := range after {
		parent.InsertBefore(rn, next)
	}
	if !keep {
		parent.RemoveChild(n)
	}
}
