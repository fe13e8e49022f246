package event

import "fmt"

// Reason explains why a construct was removed.
type Reason int

// Removal reasons.
const (
	NotAllowedTag Reason = iota + 1
	NotAllowedAttribute
	NotAllowedValue
	NotAllowedURLValue
	NotAllowedStyle
	NotAllowedCSSClass
	ClassAttributeEmpty
)

var reasonNames = map[Reason]string{
	NotAllowedTag:       "NotAllowedTag",
	NotAllowedAttribute: "NotAllowedAttribute",
	NotAllowedValue:     "NotAllowedValue",
	NotAllowedURLValue:  "NotAllowedUrlValue",
	NotAllowedStyle:     "NotAllowedStyle",
	NotAllowedCSSClass:  "NotAllowedCssClass",
	ClassAttributeEmpty: "ClassAttributeEmpty",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Reason) UnmarshalText(text []byte) error {
	for k, v := range reasonNames {
		if v == string(text) {
			*r = k
			return nil
		}
	}
	return fmt.Errorf("unknown removal reason %q", text)
}
