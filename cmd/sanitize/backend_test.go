package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/inbucket/sanitizer/pkg/config"
	"github.com/inbucket/sanitizer/pkg/extension/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackend(t *testing.T) *localBackend {
	t.Helper()
	b, err := newLocalBackend(&config.Root{
		Policy: config.Policy{AtRules: []string{"style", "namespace"}, DisallowCSSValue: "[<>]"},
	})
	require.NoError(t, err)
	return b
}

func TestLocalBackendHTML(t *testing.T) {
	b := testBackend(t)
	ctx := context.Background()

	got, err := b.SanitizeHTML(ctx, `<a href="/x" onclick="y()">link</a>`, "http://example.com/")
	require.NoError(t, err)
	assert.Equal(t, `<a href="http://example.com/x">link</a>`, got.HTML)
	require.Len(t, got.Report.RemovedAttributes, 1)
	assert.Equal(t, "onclick", got.Report.RemovedAttributes[0].Name)

	got, err = b.SanitizeDocument(ctx, "<html><head></head><body>ok</body></html>", "")
	require.NoError(t, err)
	assert.Equal(t, "<html><head></head><body>ok</body></html>", got.HTML)
}

func TestLocalBackendCSS(t *testing.T) {
	b := testBackend(t)
	ctx := context.Background()

	got, err := b.SanitizeCSS(ctx, "p { color: red } @media print { p { color: blue } }", "")
	require.NoError(t, err)
	assert.Contains(t, got.CSS, "color: red")
	assert.NotContains(t, got.CSS, "media")

	verdict, err := b.SanitizeStyle(ctx, "position", "fixed", "")
	require.NoError(t, err)
	assert.Equal(t, "remove", verdict.Op)
	assert.Equal(t, event.NotAllowedStyle, verdict.Reason)
}

func TestLocalBackendMessage(t *testing.T) {
	b := testBackend(t)
	msg := "Subject: Hi\r\nContent-Type: text/html\r\n\r\n<b onclick=\"x()\">bold</b>\r\n"

	got, err := b.SanitizeMessage(context.Background(), strings.NewReader(msg))
	require.NoError(t, err)
	assert.Equal(t, "Hi", got.Subject)
	assert.Contains(t, got.HTML, "<b>bold</b>")
}

func TestLocalBackendPolicy(t *testing.T) {
	got, err := testBackend(t).Policy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"style", "namespace"}, got.AtRules)
}

func TestLocalBackendBadConfig(t *testing.T) {
	_, err := newLocalBackend(&config.Root{Policy: config.Policy{AtRules: []string{"bogus"}}})
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	report := &event.ChangeReport{
		RemovedTags:     []event.TagChange{{Tag: "script", Reason: event.NotAllowedTag}},
		RemovedComments: 2,
	}

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, report, "text"))
	assert.Equal(t, "removed tag <script>: NotAllowedTag\nremoved 2 comment(s)\n", buf.String())

	buf.Reset()
	require.NoError(t, writeReport(&buf, report, "json"))
	assert.Contains(t, buf.String(), `"removedComments": 2`)

	buf.Reset()
	require.NoError(t, writeReport(&buf, report, "none"))
	assert.Empty(t, buf.String())

	assert.Error(t, writeReport(&buf, report, "xml"))
}
