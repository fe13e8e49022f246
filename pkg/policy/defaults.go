package policy

var defaultTags = []string{
	// HTML4
	"a", "abbr", "acronym", "address", "area", "b", "big", "blockquote", "br", "button", "caption",
	"center", "cite", "code", "col", "colgroup", "dd", "del", "dfn", "dir", "div", "dl", "dt", "em",
	"fieldset", "font", "form", "h1", "h2", "h3", "h4", "h5", "h6", "hr", "i", "img", "input",
	"ins", "kbd", "label", "legend", "li", "map", "menu", "ol", "optgroup", "option", "p", "pre",
	"q", "s", "samp", "select", "small", "span", "strike", "strong", "sub", "sup", "table",
	"tbody", "td", "textarea", "tfoot", "th", "thead", "tr", "tt", "u", "ul", "var",
	// HTML5
	"article", "aside", "bdi", "data", "details", "figcaption", "figure", "footer", "header",
	"main", "mark", "meter", "nav", "progress", "rp", "rt", "ruby", "section", "summary", "time",
	"wbr",
}

var defaultAttributes = []string{
	"abbr", "accept", "accept-charset", "accesskey", "action", "align", "alt", "axis", "background",
	"bgcolor", "border", "cellpadding", "cellspacing", "char", "charoff", "charset", "checked",
	"cite", "class", "clear", "color", "cols", "colspan", "compact", "coords", "datetime", "dir",
	"disabled", "enctype", "for", "frame", "headers", "height", "high", "href", "hreflang",
	"hspace", "id", "ismap", "label", "lang", "longdesc", "low", "max", "maxlength", "media",
	"method", "min", "multiple", "name", "nohref", "noshade", "nowrap", "open", "optimum",
	"pattern", "placeholder", "prompt", "pubdate", "radiogroup", "readonly", "rel", "required",
	"rev", "reversed", "rows", "rowspan", "rules", "scope", "selected", "shape", "size", "span",
	"spellcheck", "src", "start", "step", "style", "summary", "tabindex", "target", "title",
	"type", "usemap", "valign", "value", "vspace", "width", "wrap",
}

var defaultURIAttributes = []string{"action", "background", "dynsrc", "href", "lowsrc", "src"}

var defaultSchemes = []string{"http", "https"}

var defaultCSSProperties = []string{
	"background", "background-attachment", "background-clip", "background-color",
	"background-image", "background-origin", "background-position", "background-repeat",
	"background-size", "border", "border-bottom", "border-bottom-color",
	"border-bottom-left-radius", "border-bottom-right-radius", "border-bottom-style",
	"border-bottom-width", "border-collapse", "border-color", "border-image",
	"border-image-outset", "border-image-repeat", "border-image-slice", "border-image-source",
	"border-image-width", "border-left", "border-left-color", "border-left-style",
	"border-left-width", "border-radius", "border-right", "border-right-color",
	"border-right-style", "border-right-width", "border-spacing", "border-style", "border-top",
	"border-top-color", "border-top-left-radius", "border-top-right-radius", "border-top-style",
	"border-top-width", "border-width", "bottom", "box-shadow", "box-sizing", "caption-side",
	"clear", "clip", "color", "column-count", "column-gap", "column-rule", "column-width",
	"columns", "content", "counter-increment", "counter-reset", "cursor", "direction", "display",
	"empty-cells", "float", "font", "font-family", "font-feature-settings", "font-kerning",
	"font-size", "font-size-adjust", "font-stretch", "font-style", "font-variant", "font-weight",
	"height", "hyphens", "left", "letter-spacing", "line-height", "list-style",
	"list-style-image", "list-style-position", "list-style-type", "margin", "margin-bottom",
	"margin-left", "margin-right", "margin-top", "max-height", "max-width", "min-height",
	"min-width", "opacity", "orphans", "outline", "outline-color", "outline-offset",
	"outline-style", "outline-width", "overflow", "overflow-wrap", "overflow-x", "overflow-y",
	"padding", "padding-bottom", "padding-left", "padding-right", "padding-top",
	"page-break-after", "page-break-before", "page-break-inside", "quotes", "right",
	"table-layout", "tab-size", "text-align", "text-align-last", "text-decoration",
	"text-decoration-color", "text-decoration-line", "text-decoration-style", "text-indent",
	"text-justify", "text-overflow", "text-shadow", "text-transform", "text-underline-position",
	"top", "transform", "transform-origin", "transition", "transition-delay",
	"transition-duration", "transition-property", "transition-timing-function",
	"unicode-bidi", "vertical-align", "visibility", "white-space", "widows", "width",
	"word-break", "word-spacing", "word-wrap", "z-index",
}

// DefaultTags returns the default element allow-list.
func DefaultTags() []string { return append([]string(nil), defaultTags...) }

// DefaultAttributes returns the default attribute allow-list.
func DefaultAttributes() []string { return append([]string(nil), defaultAttributes...) }

// DefaultURIAttributes returns the default list of URL bearing attributes.
func DefaultURIAttributes() []string { return append([]string(nil), defaultURIAttributes...) }

// DefaultSchemes returns the default URL scheme allow-list.
func DefaultSchemes() []string { return append([]string(nil), defaultSchemes...) }

// DefaultCSSProperties returns the default CSS property allow-list.
func DefaultCSSProperties() []string { return append([]string(nil), defaultCSSProperties...) }
