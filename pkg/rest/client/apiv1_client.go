// Package client provides a basic REST client for the sanitizer API
package client

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/inbucket/sanitizer/pkg/rest/model"
)

// Client accesses the sanitizer REST API v1
type Client struct {
	restClient
}

// New creates a new v1 REST API client given the base URL of a sanitizer server, ex:
// "http://localhost:9080"
func New(baseURL string, opts ...func(*ClientOptions)) (*Client, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	options := getDefaultClientOptions()
	for _, opt := range opts {
		opt(options)
	}
	c := &Client{
		restClient{
			client: &http.Client{
				Transport: options.transport,
				Timeout:   options.timeout,
			},
			baseURL: parsedURL,
		},
	}
	return c, nil
}

// SanitizeHTML sanitizes an HTML fragment, relative URLs are resolved against baseURL when it is
// not empty.
func (c *Client) SanitizeHTML(
	ctx context.Context, html, baseURL string) (*model.JSONSanitizeResponseV1, error) {
	return c.sanitize(ctx, &model.JSONSanitizeRequestV1{HTML: html, BaseURL: baseURL})
}

// SanitizeDocument sanitizes a complete HTML document.
func (c *Client) SanitizeDocument(
	ctx context.Context, html, baseURL string) (*model.JSONSanitizeResponseV1, error) {
	return c.sanitize(ctx, &model.JSONSanitizeRequestV1{HTML: html, BaseURL: baseURL, Document: true})
}

func (c *Client) sanitize(
	ctx context.Context, in *model.JSONSanitizeRequestV1) (*model.JSONSanitizeResponseV1, error) {
	out := &model.JSONSanitizeResponseV1{}
	if err := c.postJSON(ctx, "/api/v1/sanitize", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SanitizeCSS sanitizes a stylesheet.
func (c *Client) SanitizeCSS(
	ctx context.Context, css, baseURL string) (*model.JSONSanitizeCSSResponseV1, error) {
	out := &model.JSONSanitizeCSSResponseV1{}
	in := &model.JSONSanitizeCSSRequestV1{CSS: css, BaseURL: baseURL}
	if err := c.postJSON(ctx, "/api/v1/sanitize/css", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SanitizeStyle returns the server's verdict on a single CSS declaration.
func (c *Client) SanitizeStyle(
	ctx context.Context, property, value, baseURL string) (*model.JSONStyleResponseV1, error) {
	out := &model.JSONStyleResponseV1{}
	in := &model.JSONStyleRequestV1{Property: property, Value: value, BaseURL: baseURL}
	if err := c.postJSON(ctx, "/api/v1/sanitize/style", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SanitizeMessage uploads a MIME message and returns its sanitized content.
func (c *Client) SanitizeMessage(ctx context.Context, r io.Reader) (*model.JSONMessageV1, error) {
	source, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	out := &model.JSONMessageV1{}
	if err := c.doJSON(ctx, "POST", "/api/v1/sanitize/message", source, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Policy returns the policy applied by the server.
func (c *Client) Policy(ctx context.Context) (*model.JSONPolicyV1, error) {
	out := &model.JSONPolicyV1{}
	if err := c.doJSON(ctx, "GET", "/api/v1/policy", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// MonitorHistory returns the change reports remembered by the server, oldest first.
func (c *Client) MonitorHistory(ctx context.Context) (events []*model.JSONMonitorEventV1, err error) {
	err = c.doJSON(ctx, "GET", "/api/v1/monitor/history", nil, &events)
	return
}

// ClearMonitorHistory asks the server to forget its remembered change reports.
func (c *Client) ClearMonitorHistory(ctx context.Context) error {
	return c.doJSON(ctx, "DELETE", "/api/v1/monitor/history", nil, nil)
}
