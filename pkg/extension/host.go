package extension

import (
	"github.com/inbucket/sanitizer/pkg/extension/event"
)

// Host defines extension points for the sanitizer.
type Host struct {
	Events *Events
}

// Events defines all the event types supported by the extension host.
//
// Before-events are emitted immediately before the sanitizer removes something.  They are
// processed synchronously on the sanitizing goroutine; expensive listeners slow every sanitize
// call.  The first listener in the list to respond with a non-nil Decision determines the
// outcome, and the remaining listeners will not be called.  A Decision with Cancel set keeps the
// construct in the output.
//
// NodeFiltered and DocumentFiltered are emitted after all filtering completed, so listeners never
// observe a node that has yet to be checked.
//
// After-events allow extensions to take an action after a sanitize call has completed.  These
// events are processed asynchronously with respect to the sanitizer.
type Events struct {
	BeforeAtRuleRemoved    EventBroker[event.AtRuleRemoval, event.Decision]
	BeforeAttributeRemoved EventBroker[event.AttributeRemoval, event.Decision]
	BeforeCommentRemoved   EventBroker[event.CommentRemoval, event.Decision]
	BeforeCSSClassRemoved  EventBroker[event.CSSClassRemoval, event.Decision]
	BeforeStyleRemoved     EventBroker[event.StyleRemoval, event.Decision]
	BeforeTagRemoved       EventBroker[event.TagRemoval, event.Decision]
	FilterURL              EventBroker[event.URLFilter, string]
	NodeFiltered           EventBroker[event.FilteredNode, event.Replacement]
	DocumentFiltered       EventBroker[event.FilteredDocument, Void]
	AfterSanitized         AsyncEventBroker[event.ChangeReport]
}

// Void indicates the event emitter will ignore any value returned by listeners.
type Void struct{}

// NewHost creates a new extension host.
func NewHost() *Host {
	return &Host{Events: &Events{}}
}
