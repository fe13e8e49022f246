package sanitize

import (
	"github.com/aymerick/douceur/css"
	"github.com/inbucket/sanitizer/pkg/extension/event"
	"github.com/inbucket/sanitizer/pkg/policy"
	"golang.org/x/net/html"
)

// The remove methods announce a pending removal to listeners.  They return true and record the
// removal in the report if it should proceed, false if a listener cancelled it.

func (p *pass) removeTag(n *html.Node, reason event.Reason) bool {
	tag := tagName(n)
	if cancelled(p.events.BeforeTagRemoved.Emit(&event.TagRemoval{
		Tag:    tag,
		Reason: reason,
		Node:   n,
	})) {
		p.logger.Debug().Str("tag", tag).Msg("Tag removal cancelled")
		return false
	}
	p.logger.Debug().Str("tag", tag).Stringer("reason", reason).Msg("Removing tag")
	p.report.RemovedTags = append(p.report.RemovedTags, event.TagChange{Tag: tag, Reason: reason})
	return true
}

func (p *pass) removeAttribute(n *html.Node, tag string, a html.Attribute, reason event.Reason) bool {
	name := attrName(a)
	if cancelled(p.events.BeforeAttributeRemoved.Emit(&event.AttributeRemoval{
		Tag:    tag,
		Name:   name,
		Value:  a.Val,
		Reason: reason,
		Node:   n,
	})) {
		return false
	}
	p.logger.Debug().Str("tag", tag).Str("attr", name).Stringer("reason", reason).
		Msg("Removing attribute")
	p.report.RemovedAttributes = append(p.report.RemovedAttributes, event.AttributeChange{
		Tag:    tag,
		Name:   name,
		Value:  a.Val,
		Reason: reason,
	})
	return true
}

func (p *pass) removeStyle(owner styleOwner, decl *css.Declaration, reason event.Reason) bool {
	if cancelled(p.events.BeforeStyleRemoved.Emit(&event.StyleRemoval{
		Tag:      owner.tag,
		Property: decl.Property,
		Value:    decl.Value,
		Reason:   reason,
		Node:     owner.node,
		Rule:     owner.rule,
	})) {
		return false
	}
	p.logger.Debug().Str("tag", owner.tag).Str("property", decl.Property).
		Stringer("reason", reason).Msg("Removing style")
	p.report.RemovedStyles = append(p.report.RemovedStyles, event.StyleChange{
		Tag:      owner.tag,
		Property: decl.Property,
		Value:    decl.Value,
		Reason:   reason,
	})
	return true
}

func (p *pass) removeAtRule(r *css.Rule, kind policy.RuleKind, reason event.Reason) bool {
	name := ruleName(r)
	if cancelled(p.events.BeforeAtRuleRemoved.Emit(&event.AtRuleRemoval{
		Kind:   kind,
		Name:   name,
		Reason: reason,
		Rule:   r,
	})) {
		return false
	}
	p.logger.Debug().Stringer("kind", kind).Str("name", name).Stringer("reason", reason).
		Msg("Removing CSS rule")
	p.report.RemovedAtRules = append(p.report.RemovedAtRules, event.AtRuleChange{
		Kind:   kind.String(),
		Name:   name,
		Reason: reason,
	})
	return true
}

func (p *pass) removeCSSClass(n *html.Node, tag, class string) bool {
	if cancelled(p.events.BeforeCSSClassRemoved.Emit(&event.CSSClassRemoval{
		Tag:    tag,
		Class:  class,
		Reason: event.NotAllowedCSSClass,
		Node:   n,
	})) {
		return false
	}
	p.report.RemovedCSSClasses = append(p.report.RemovedCSSClasses, event.CSSClassChange{
		Tag:    tag,
		Class:  class,
		Reason: event.NotAllowedCSSClass,
	})
	return true
}

// removeComment detaches the comment n unless a listener objects.
func (p *pass) removeComment(n *html.Node) {
	if n.Parent == nil {
		return
	}
	if cancelled(p.events.BeforeCommentRemoved.Emit(&event.CommentRemoval{Data: n.Data, Node: n})) {
		return
	}
	n.Parent.RemoveChild(n)
	p.report.RemovedComments++
}

func (p *pass) recordModified(tag, name, from, to string) {
	p.report.ModifiedAttributes = append(p.report.ModifiedAttributes, event.AttributeChange{
		Tag:      tag,
		Name:     name,
		Value:    from,
		NewValue: to,
	})
}

func cancelled(d *event.Decision) bool {
	return d != nil && d.Cancel
}
