package config

import (
	"testing"
	"time"

	"github.com/inbucket/sanitizer/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDefaults(t *testing.T) {
	c, err := Process()
	require.NoError(t, err)

	assert.Equal(t, "INFO", c.LogLevel)
	assert.Equal(t, "sanitizer.lua", c.Lua.Path)
	assert.Equal(t, "0.0.0.0:9080", c.Web.Addr)
	assert.Equal(t, 30, c.Web.MonitorHistory)
	assert.Equal(t, 5*time.Second, c.Web.ShutdownTimeout)
	assert.Equal(t, []string{"style", "namespace"}, c.Policy.AtRules)
	assert.Equal(t, "[<>]", c.Policy.DisallowCSSValue)
}

func TestProcessEnvironment(t *testing.T) {
	t.Setenv("SANITIZER_LOGLEVEL", "DEBUG")
	t.Setenv("SANITIZER_POLICY_EXTRATAGS", "style,marquee")
	t.Setenv("SANITIZER_POLICY_SCHEMES", "https,mailto")
	t.Setenv("SANITIZER_POLICY_KEEPCHILDNODES", "true")
	t.Setenv("SANITIZER_WEB_ADDR", "127.0.0.1:1234")

	c, err := Process()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", c.LogLevel)
	assert.Equal(t, []string{"style", "marquee"}, c.Policy.ExtraTags)
	assert.Equal(t, "127.0.0.1:1234", c.Web.Addr)

	p, err := c.Policy.Build()
	require.NoError(t, err)
	assert.True(t, p.TagAllowed("marquee"))
	assert.True(t, p.TagAllowed("div"), "extra tags should keep defaults")
	assert.True(t, p.SchemeAllowed("mailto"))
	assert.False(t, p.SchemeAllowed("http"))
	assert.True(t, p.KeepChildNodes)
}

func TestPolicyBuild(t *testing.T) {
	c := &Policy{
		Tags:                []string{"p", "b"},
		CSSClasses:          []string{"note"},
		AtRules:             []string{"style", "media"},
		DisallowCSSValue:    "",
		AllowDataAttributes: true,
		DataAttributePrefix: "x-",
	}
	p, err := c.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "p"}, p.AllowedTags.Items())
	assert.True(t, p.RestrictsCSSClasses())
	assert.True(t, p.AtRuleAllowed(policy.RuleMedia))
	assert.False(t, p.AtRuleAllowed(policy.RuleNamespace))
	assert.Nil(t, p.DisallowCSSValue)
	assert.True(t, p.AttributeAllowed("x-id"))
	assert.False(t, p.AttributeAllowed("data-id"))
}

func TestPolicyBuildErrors(t *testing.T) {
	_, err := (&Policy{AtRules: []string{"bogus"}}).Build()
	require.Error(t, err)

	_, err = (&Policy{DisallowCSSValue: "["}).Build()
	require.Error(t, err)
}
