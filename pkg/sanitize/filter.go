package sanitize

import (
	"strings"

	"github.com/inbucket/sanitizer/pkg/extension/event"
	"golang.org/x/net/html"
)

type attrVerdict int

const (
	attrKeep   attrVerdict = iota
	attrRemove             // Remove, announcing it to listeners.
	attrDrop               // Remove silently.
)

func (p *pass) filterChildren(n *html.Node) {
	for _, c := range children(n) {
		p.filterNode(c)
	}
}

// filterNode removes n if its tag is not allowed, then continues with whatever remains of the
// subtree.
func (p *pass) filterNode(n *html.Node) {
	if n.Type != html.ElementNode {
		return
	}
	if p.policy.TagAllowed(tagName(n)) || (p.document && structural(n)) {
		p.filterChildren(n)
		return
	}
	if !p.removeTag(n, event.NotAllowedTag) {
		p.filterChildren(n)
		return
	}
	if p.policy.KeepChildNodes && !rawText(n) {
		for _, c := range unwrap(n) {
			p.filterNode(c)
		}
		return
	}
	n.Parent.RemoveChild(n)
}

// sanitizeAttributes runs the attribute checks over n, in order: allow-list, URLs, inline
// style, script entities and classes.
func (p *pass) sanitizeAttributes(n *html.Node) {
	if len(n.Attr) == 0 {
		return
	}
	tag := tagName(n)

	p.filterAttrs(n, tag, func(a *html.Attribute) (attrVerdict, event.Reason) {
		if p.policy.AttributeAllowed(attrName(*a)) {
			return attrKeep, 0
		}
		return attrRemove, event.NotAllowedAttribute
	})

	p.filterAttrs(n, tag, func(a *html.Attribute) (attrVerdict, event.Reason) {
		name := attrName(*a)
		if !p.policy.IsURIAttribute(name) {
			return attrKeep, 0
		}
		resolved, ok := p.resolveURL(tag, name, a.Val)
		if !ok {
			return attrRemove, event.NotAllowedURLValue
		}
		if resolved != a.Val {
			p.recordModified(tag, name, a.Val, resolved)
			a.Val = resolved
		}
		return attrKeep, 0
	})

	p.filterAttrs(n, tag, func(a *html.Attribute) (attrVerdict, event.Reason) {
		if attrName(*a) != "style" {
			return attrKeep, 0
		}
		return p.sanitizeInlineStyle(n, tag, a)
	})

	p.filterAttrs(n, tag, func(a *html.Attribute) (attrVerdict, event.Reason) {
		if jsIncludeRE.MatchString(a.Val) {
			return attrRemove, event.NotAllowedValue
		}
		return attrKeep, 0
	})

	if p.policy.RestrictsCSSClasses() {
		p.filterAttrs(n, tag, func(a *html.Attribute) (attrVerdict, event.Reason) {
			if attrName(*a) != "class" {
				return attrKeep, 0
			}
			return p.sanitizeClasses(n, tag, a)
		})
	}
}

// filterAttrs applies check to every attribute of n.  Attributes may be modified by check.
func (p *pass) filterAttrs(n *html.Node, tag string,
	check func(a *html.Attribute) (attrVerdict, event.Reason)) {
	kept := make([]html.Attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		switch verdict, reason := check(&a); verdict {
		case attrDrop:
			continue
		case attrRemove:
			if p.removeAttribute(n, tag, a, reason) {
				continue
			}
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func (p *pass) sanitizeInlineStyle(n *html.Node, tag string, a *html.Attribute) (attrVerdict, event.Reason) {
	decls, err := parseStyleAttribute(a.Val)
	if err != nil {
		p.logger.Debug().Err(err).Str("tag", tag).Msg("Unparsable style attribute")
		return attrRemove, event.NotAllowedStyle
	}
	kept, rewritten := p.sanitizeDeclarations(decls, styleOwner{tag: tag, node: n})
	if len(kept) == 0 {
		return attrDrop, 0
	}
	val := formatDeclarations(kept)
	if rewritten {
		p.recordModified(tag, "style", a.Val, val)
	}
	a.Val = val
	return attrKeep, 0
}

func (p *pass) sanitizeClasses(n *html.Node, tag string, a *html.Attribute) (attrVerdict, event.Reason) {
	tokens := strings.Fields(a.Val)
	kept := tokens[:0]
	for _, class := range tokens {
		if p.policy.CSSClassAllowed(class) || !p.removeCSSClass(n, tag, class) {
			kept = append(kept, class)
		}
	}
	if len(kept) == 0 {
		return attrRemove, event.ClassAttributeEmpty
	}
	a.Val = strings.Join(kept, " ")
	return attrKeep, 0
}
