package message

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// From http://daringfireball.net/2010/07/improved_regex_for_matching_urls
var urlRE = regexp.MustCompile("(?i)\\b((?:[a-z][\\w-]+:(?:/{1,3}|[a-z0-9%])|www\\d{0,3}[.]|[a-z0-9.\\-]+[.][a-z]{2,4}/)(?:[^\\s()<>]+|\\(([^\\s()<>]+|(\\([^\\s()<>]+\\)))*\\))+(?:\\(([^\\s()<>]+|(\\([^\\s()<>]+\\)))*\\)|[^\\s`!()\\[\\]{};:'\".,<>?«»“”‘’]))")

// textPolicy only permits the markup produced by TextToHTML, with links forced to safe schemes.
var textPolicy = bluemonday.NewPolicy().
	AllowElements("br").
	AllowAttrs("href").OnElements("a").
	AllowURLSchemes("http", "https", "mailto").
	RequireNoFollowOnLinks(true).
	AddTargetBlankToFullyQualifiedLinks(true)

var lineBreaks = strings.NewReplacer("\r\n", "<br/>\n", "\r", "<br/>\n", "\n", "<br/>\n")

// TextToHTML takes plain text, escapes it and links URLs for HTML display.  The result is passed
// through a restrictive bluemonday policy, so links with unexpected schemes lose their anchors.
func TextToHTML(text string) string {
	if text == "" {
		return ""
	}
	text = html.EscapeString(text)
	text = urlRE.ReplaceAllStringFunc(text, wrapURL)
	return textPolicy.Sanitize(lineBreaks.Replace(text))
}

// wrapURL wraps an <a href> tag around the provided, already escaped, URL.
func wrapURL(url string) string {
	return fmt.Sprintf("<a href=\"%s\">%s</a>", url, url)
}
