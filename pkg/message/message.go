// Package message sanitizes the bodies of MIME e-mail messages.
package message

import (
	"fmt"
	"io"

	"github.com/inbucket/sanitizer/pkg/policy"
	"github.com/inbucket/sanitizer/pkg/sanitize"
	"github.com/jhillyerd/enmime/v2"
	"github.com/rs/zerolog/log"
)

// cidScheme addresses inline parts of the same message, see RFC 2392.
const cidScheme = "cid"

// Result holds the sanitized content of a message.
type Result struct {
	Subject    string
	HTML       string           // Sanitized HTML document, empty if the message had no HTML part.
	Text       string           // Plain text part rendered as safe HTML.
	ContentIDs []string         // Content-IDs of inline parts, addressable through cid: URLs.
	Report     *sanitize.Report // Changes made to the HTML part, nil if there was none.
	Warnings   []string         // MIME parsing problems reported by enmime.
}

// Sanitize reads a MIME message from r and sanitizes its HTML body as a document.  References to
// inline parts through cid: URLs survive when the message carries inline parts.
func Sanitize(r io.Reader, s *sanitize.Sanitizer) (*Result, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	result := &Result{
		Subject: env.GetHeader("Subject"),
		Text:    TextToHTML(env.Text),
	}
	for _, e := range env.Errors {
		result.Warnings = append(result.Warnings, e.Error())
	}
	for _, part := range append(env.Inlines, env.OtherParts...) {
		if part.ContentID != "" {
			result.ContentIDs = append(result.ContentIDs, part.ContentID)
		}
	}

	if env.HTML == "" {
		return result, nil
	}

	if len(result.ContentIDs) > 0 && !s.Policy().SchemeAllowed(cidScheme) {
		p := s.Policy().Clone()
		if p.AllowedSchemes == nil {
			p.AllowedSchemes = policy.NewSet()
		}
		p.AllowedSchemes.Add(cidScheme)
		s = s.WithPolicy(p)
	}

	result.HTML, result.Report, err = s.SanitizeDocumentWithReport(env.HTML, "")
	if err != nil {
		return nil, fmt.Errorf("failed to sanitize HTML part: %w", err)
	}
	log.Debug().Str("module", "message").Str("subject", result.Subject).
		Int("removals", result.Report.Removals()).Msg("Sanitized message")

	return result, nil
}
