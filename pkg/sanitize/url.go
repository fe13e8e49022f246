package sanitize

import (
	"net/url"
	"regexp"

	"github.com/inbucket/sanitizer/pkg/policy"
)

// schemeRE finds a scheme-like prefix, terminated by a colon or a numeric character reference for
// one.  Zero padded references are tolerated since they are a common way to hide "javascript:".
var schemeRE = regexp.MustCompile(`(?i)^\s*([^/#]*?)(?::|&#0*58|&#x0*3a)`)

// URLScheme returns the scheme of raw, or false if raw is a relative reference.  The scheme is
// returned as written, it may contain characters no real scheme would.
func URLScheme(raw string) (string, bool) {
	m := schemeRE.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ResolveURL decides if raw is a safe reference.  Absolute references are returned unchanged when
// their scheme is in schemes.  Relative references are resolved against baseURL if one is given,
// otherwise they are returned unchanged.  The second return value is false when the reference must
// be dropped.
func ResolveURL(raw, baseURL string, schemes policy.Set) (string, bool) {
	if scheme, ok := URLScheme(raw); ok {
		if !schemes.Has(scheme) {
			return "", false
		}
		return raw, true
	}

	if baseURL == "" {
		return raw, true
	}

	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	return base.ResolveReference(ref).String(), true
}
