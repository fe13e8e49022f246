package main

import (
	"context"
	"io"

	"github.com/inbucket/sanitizer/pkg/config"
	"github.com/inbucket/sanitizer/pkg/extension"
	"github.com/inbucket/sanitizer/pkg/extension/luahost"
	"github.com/inbucket/sanitizer/pkg/message"
	"github.com/inbucket/sanitizer/pkg/rest/client"
	"github.com/inbucket/sanitizer/pkg/rest/model"
	"github.com/inbucket/sanitizer/pkg/sanitize"
	"github.com/rs/zerolog/log"
)

// backend performs sanitization, either in process or on a server.
type backend interface {
	SanitizeHTML(ctx context.Context, html, baseURL string) (*model.JSONSanitizeResponseV1, error)
	SanitizeDocument(ctx context.Context, html, baseURL string) (*model.JSONSanitizeResponseV1, error)
	SanitizeCSS(ctx context.Context, css, baseURL string) (*model.JSONSanitizeCSSResponseV1, error)
	SanitizeStyle(ctx context.Context, property, value, baseURL string) (*model.JSONStyleResponseV1, error)
	SanitizeMessage(ctx context.Context, r io.Reader) (*model.JSONMessageV1, error)
	Policy(ctx context.Context) (*model.JSONPolicyV1, error)
}

var _ backend = &client.Client{}
var _ backend = &localBackend{}

// newBackend returns the REST client when a server was specified, otherwise a local sanitizer
// configured from the environment.
func newBackend() (backend, error) {
	if *server != "" {
		return client.New(*server)
	}
	conf, err := config.Process()
	if err != nil {
		return nil, err
	}
	return newLocalBackend(conf)
}

// localBackend sanitizes in process.
type localBackend struct {
	sanitizer *sanitize.Sanitizer
}

func newLocalBackend(conf *config.Root) (*localBackend, error) {
	p, err := conf.Policy.Build()
	if err != nil {
		return nil, err
	}
	extHost := extension.NewHost()
	if _, err := luahost.New(conf.Lua, extHost); err != nil {
		return nil, err
	}
	s := sanitize.New(p, extHost, sanitize.WithLogger(log.Logger))
	return &localBackend{sanitizer: s}, nil
}

func (b *localBackend) SanitizeHTML(
	_ context.Context, html, baseURL string) (*model.JSONSanitizeResponseV1, error) {
	out, report, err := b.sanitizer.SanitizeWithReport(html, baseURL)
	if err != nil {
		return nil, err
	}
	return &model.JSONSanitizeResponseV1{HTML: out, Report: report}, nil
}

func (b *localBackend) SanitizeDocument(
	_ context.Context, html, baseURL string) (*model.JSONSanitizeResponseV1, error) {
	out, report, err := b.sanitizer.SanitizeDocumentWithReport(html, baseURL)
	if err != nil {
		return nil, err
	}
	return &model.JSONSanitizeResponseV1{HTML: out, Report: report}, nil
}

func (b *localBackend) SanitizeCSS(
	_ context.Context, css, baseURL string) (*model.JSONSanitizeCSSResponseV1, error) {
	out, report, err := b.sanitizer.SanitizeStyleSheet(css, baseURL)
	if err != nil {
		return nil, err
	}
	return &model.JSONSanitizeCSSResponseV1{CSS: out, Report: report}, nil
}

func (b *localBackend) SanitizeStyle(
	_ context.Context, property, value, baseURL string) (*model.JSONStyleResponseV1, error) {
	return model.NewJSONStyleResponseV1(b.sanitizer.SanitizeStyle(property, value, baseURL)), nil
}

func (b *localBackend) SanitizeMessage(_ context.Context, r io.Reader) (*model.JSONMessageV1, error) {
	result, err := message.Sanitize(r, b.sanitizer)
	if err != nil {
		return nil, err
	}
	return model.NewJSONMessageV1(result), nil
}

func (b *localBackend) Policy(_ context.Context) (*model.JSONPolicyV1, error) {
	return model.NewJSONPolicyV1(b.sanitizer.Policy()), nil
}
