package config

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"text/tabwriter"
	"time"

	"github.com/inbucket/sanitizer/pkg/policy"
	"github.com/kelseyhightower/envconfig"
)

const (
	prefix      = "sanitizer"
	tableFormat = `The sanitizer is configured via the environment. The following environment
variables can be used:

KEY	DEFAULT	REQUIRED	DESCRIPTION
{{range .}}{{usage_key .}}	{{usage_default .}}	{{usage_required .}}	{{usage_description .}}
{{end}}`
)

var (
	// Version of this build, set by main
	Version = ""

	// BuildDate for this build, set by main
	BuildDate = ""
)

// Root wraps all other configurations.
type Root struct {
	LogLevel string `required:"true" default:"INFO" desc:"DEBUG, INFO, WARN, or ERROR"`
	Policy   Policy
	Lua      Lua
	Web      Web
}

// Policy adjusts the default sanitizer policy.  Empty lists keep the built-in defaults.
type Policy struct {
	Tags                []string `desc:"Allowed elements, replaces defaults"`
	ExtraTags           []string `desc:"Elements allowed in addition to the tag list"`
	Attributes          []string `desc:"Allowed attributes, replaces defaults"`
	ExtraAttributes     []string `desc:"Attributes allowed in addition to the attribute list"`
	URIAttributes       []string `desc:"Attributes holding URLs, replaces defaults"`
	Schemes             []string `desc:"Allowed URL schemes, replaces defaults"`
	CSSProperties       []string `desc:"Allowed CSS properties, replaces defaults"`
	CSSClasses          []string `desc:"Allowed CSS classes, empty allows all"`
	AtRules             []string `default:"style,namespace" desc:"Allowed CSS rule kinds"`
	DisallowCSSValue    string   `default:"[<>]" desc:"Regexp rejecting CSS values, empty disables"`
	AllowDataAttributes bool     `default:"false" desc:"Keep data- attributes?"`
	DataAttributePrefix string   `default:"data-" desc:"Prefix of data attributes"`
	KeepChildNodes      bool     `default:"false" desc:"Unwrap disallowed elements instead of dropping?"`
}

// Lua contains the Lua extension host configuration.
type Lua struct {
	Path string `default:"sanitizer.lua" desc:"Lua hook script path"`
}

// Web contains the HTTP server configuration.
type Web struct {
	Addr            string        `required:"true" default:"0.0.0.0:9080" desc:"Web server IP4 host:port"`
	BasePath        string        `default:"" desc:"Base path prefix for URLs"`
	MaxBodyBytes    int64         `required:"true" default:"4194304" desc:"Maximum request body size"`
	MonitorVisible  bool          `required:"true" default:"true" desc:"Enable the report monitor socket?"`
	MonitorHistory  int           `required:"true" default:"30" desc:"Monitor remembered reports"`
	ShutdownTimeout time.Duration `required:"true" default:"5s" desc:"Graceful shutdown timeout"`
	PProf           bool          `required:"true" default:"false" desc:"Expose profiling tools"`
}

// Process loads and parses configuration from the environment.
func Process() (*Root, error) {
	c := &Root{}
	err := envconfig.Process(prefix, c)
	return c, err
}

// Usage prints out the envconfig usage to Stderr.
func Usage() {
	tabs := tabwriter.NewWriter(os.Stderr, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef(prefix, &Root{}, tabs, tableFormat); err != nil {
		log.Fatalf("Unable to parse env config: %v", err)
	}
	tabs.Flush()
}

// Build produces the sanitizer policy described by the configuration.
func (c *Policy) Build() (*policy.Policy, error) {
	p := policy.Default()

	if len(c.Tags) > 0 {
		p.AllowedTags = policy.NewSet(c.Tags...)
	}
	for _, t := range c.ExtraTags {
		p.AllowedTags.Add(t)
	}
	if len(c.Attributes) > 0 {
		p.AllowedAttributes = policy.NewSet(c.Attributes...)
	}
	for _, a := range c.ExtraAttributes {
		p.AllowedAttributes.Add(a)
	}
	if len(c.URIAttributes) > 0 {
		p.URIAttributes = policy.NewSet(c.URIAttributes...)
	}
	if len(c.Schemes) > 0 {
		p.AllowedSchemes = policy.NewSet(c.Schemes...)
	}
	if len(c.CSSProperties) > 0 {
		p.AllowedCSSProperties = policy.NewSet(c.CSSProperties...)
	}
	if len(c.CSSClasses) > 0 {
		p.AllowedCSSClasses = policy.NewSet(c.CSSClasses...)
	}

	if len(c.AtRules) > 0 {
		kinds := make([]policy.RuleKind, 0, len(c.AtRules))
		for _, name := range c.AtRules {
			kind, err := policy.ParseRuleKind(name)
			if err != nil {
				return nil, fmt.Errorf("invalid at-rule kind: %w", err)
			}
			kinds = append(kinds, kind)
		}
		p.AllowedAtRules = policy.NewRuleKinds(kinds...)
	}

	p.DisallowCSSValue = nil
	if c.DisallowCSSValue != "" {
		re, err := regexp.Compile(c.DisallowCSSValue)
		if err != nil {
			return nil, fmt.Errorf("invalid CSS value pattern: %w", err)
		}
		p.DisallowCSSValue = re
	}

	p.AllowDataAttributes = c.AllowDataAttributes
	if c.DataAttributePrefix != "" {
		p.DataAttributePrefix = c.DataAttributePrefix
	}
	p.KeepChildNodes = c.KeepChildNodes

	return p, nil
}
