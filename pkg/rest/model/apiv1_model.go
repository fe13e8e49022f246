// Package model holds the JSON types exchanged by the sanitizer REST API.
package model

import (
	"time"

	"github.com/inbucket/sanitizer/pkg/extension/event"
	"github.com/inbucket/sanitizer/pkg/message"
	"github.com/inbucket/sanitizer/pkg/policy"
	"github.com/inbucket/sanitizer/pkg/sanitize"
)

// JSONSanitizeRequestV1 asks for an HTML fragment, or a whole document, to be sanitized.
type JSONSanitizeRequestV1 struct {
	HTML     string `json:"html"`
	BaseURL  string `json:"baseUrl,omitempty"`
	Document bool   `json:"document,omitempty"`
}

// JSONSanitizeResponseV1 contains the sanitized HTML and the changes made to it.
type JSONSanitizeResponseV1 struct {
	HTML   string              `json:"html"`
	Report *event.ChangeReport `json:"report"`
}

// JSONSanitizeCSSRequestV1 asks for a stylesheet to be sanitized.
type JSONSanitizeCSSRequestV1 struct {
	CSS     string `json:"css"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// JSONSanitizeCSSResponseV1 contains the regenerated stylesheet and the changes made to it.
type JSONSanitizeCSSResponseV1 struct {
	CSS    string              `json:"css"`
	Report *event.ChangeReport `json:"report"`
}

// JSONStyleRequestV1 asks for the verdict on a single CSS declaration.
type JSONStyleRequestV1 struct {
	Property string `json:"property"`
	Value    string `json:"value"`
	BaseURL  string `json:"baseUrl,omitempty"`
}

// JSONStyleResponseV1 is the verdict on a single CSS declaration.  Op is one of `keep`, `rewrite`
// or `remove`.
type JSONStyleResponseV1 struct {
	Op       string       `json:"op"`
	Property string       `json:"property"`
	Value    string       `json:"value"`
	Reason   event.Reason `json:"reason,omitempty"`
}

// NewJSONStyleResponseV1 converts a style verdict.
func NewJSONStyleResponseV1(action sanitize.StyleAction) *JSONStyleResponseV1 {
	return &JSONStyleResponseV1{
		Op:       action.Op.String(),
		Property: action.Name,
		Value:    action.Value,
		Reason:   action.Reason,
	}
}

// JSONMessageV1 contains the sanitized content of a MIME message.
type JSONMessageV1 struct {
	Subject    string              `json:"subject"`
	HTML       string              `json:"html"`
	Text       string              `json:"text"`
	ContentIDs []string            `json:"contentIds,omitempty"`
	Report     *event.ChangeReport `json:"report,omitempty"`
	Warnings   []string            `json:"warnings,omitempty"`
}

// NewJSONMessageV1 converts a sanitized message.
func NewJSONMessageV1(result *message.Result) *JSONMessageV1 {
	return &JSONMessageV1{
		Subject:    result.Subject,
		HTML:       result.HTML,
		Text:       result.Text,
		ContentIDs: result.ContentIDs,
		Report:     result.Report,
		Warnings:   result.Warnings,
	}
}

// JSONPolicyV1 describes the policy applied by the server.
type JSONPolicyV1 struct {
	Tags                []string `json:"tags"`
	Attributes          []string `json:"attributes"`
	URIAttributes       []string `json:"uriAttributes"`
	Schemes             []string `json:"schemes"`
	CSSProperties       []string `json:"cssProperties"`
	CSSClasses          []string `json:"cssClasses,omitempty"`
	AtRules             []string `json:"atRules"`
	DisallowCSSValue    string   `json:"disallowCssValue,omitempty"`
	AllowDataAttributes bool     `json:"allowDataAttributes"`
	DataAttributePrefix string   `json:"dataAttributePrefix"`
	KeepChildNodes      bool     `json:"keepChildNodes"`
}

// NewJSONPolicyV1 describes p.
func NewJSONPolicyV1(p *policy.Policy) *JSONPolicyV1 {
	out := &JSONPolicyV1{
		Tags:                p.AllowedTags.Items(),
		Attributes:          p.AllowedAttributes.Items(),
		URIAttributes:       p.URIAttributes.Items(),
		Schemes:             p.AllowedSchemes.Items(),
		CSSProperties:       p.AllowedCSSProperties.Items(),
		AllowDataAttributes: p.AllowDataAttributes,
		DataAttributePrefix: p.DataAttributePrefix,
		KeepChildNodes:      p.KeepChildNodes,
	}
	if p.RestrictsCSSClasses() {
		out.CSSClasses = p.AllowedCSSClasses.Items()
	}
	for k := policy.RuleUnknown; k <= policy.RuleViewport; k++ {
		if p.AtRuleAllowed(k) {
			out.AtRules = append(out.AtRules, k.String())
		}
	}
	if p.DisallowCSSValue != nil {
		out.DisallowCSSValue = p.DisallowCSSValue.String()
	}
	return out
}

// JSONMonitorEventV1 is sent to monitor clients for every recorded change report.
type JSONMonitorEventV1 struct {
	// Event variant: `report`.
	Variant string              `json:"variant"`
	Seq     uint64              `json:"seq"`
	Time    time.Time           `json:"time"`
	Report  *event.ChangeReport `json:"report"`
}
