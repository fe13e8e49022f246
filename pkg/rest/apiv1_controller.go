package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/inbucket/sanitizer/pkg/message"
	"github.com/inbucket/sanitizer/pkg/rest/model"
	"github.com/inbucket/sanitizer/pkg/server/web"
)

// SanitizeV1 sanitizes the HTML fragment or document in the request body.
func SanitizeV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	var in model.JSONSanitizeRequestV1
	if err := decodeBody(w, req, ctx, &in); err != nil {
		return err
	}
	web.ExpSanitizeRequests.Add(1)

	out := &model.JSONSanitizeResponseV1{}
	if in.Document {
		out.HTML, out.Report, err = ctx.Sanitizer.SanitizeDocumentWithReport(in.HTML, in.BaseURL)
	} else {
		out.HTML, out.Report, err = ctx.Sanitizer.SanitizeWithReport(in.HTML, in.BaseURL)
	}
	if err != nil {
		return fmt.Errorf("sanitize failed: %w", err)
	}
	return web.RenderJSON(w, out)
}

// SanitizeCSSV1 sanitizes the stylesheet in the request body.
func SanitizeCSSV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	var in model.JSONSanitizeCSSRequestV1
	if err := decodeBody(w, req, ctx, &in); err != nil {
		return err
	}
	web.ExpSanitizeRequests.Add(1)

	css, report, err := ctx.Sanitizer.SanitizeStyleSheet(in.CSS, in.BaseURL)
	if err != nil {
		// Unparsable stylesheets are the client's problem.
		return web.ClientError(http.StatusUnprocessableEntity, err)
	}
	return web.RenderJSON(w, &model.JSONSanitizeCSSResponseV1{CSS: css, Report: report})
}

// SanitizeStyleV1 returns the verdict on a single CSS declaration.
func SanitizeStyleV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	var in model.JSONStyleRequestV1
	if err := decodeBody(w, req, ctx, &in); err != nil {
		return err
	}
	action := ctx.Sanitizer.SanitizeStyle(in.Property, in.Value, in.BaseURL)
	return web.RenderJSON(w, model.NewJSONStyleResponseV1(action))
}

// SanitizeMessageV1 sanitizes the MIME message in the request body.
func SanitizeMessageV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	web.ExpSanitizeRequests.Add(1)

	result, err := message.Sanitize(limitBody(w, req, ctx), ctx.Sanitizer)
	if err != nil {
		return web.ClientError(http.StatusUnprocessableEntity, err)
	}
	return web.RenderJSON(w, model.NewJSONMessageV1(result))
}

// PolicyV1 renders the policy in use.
func PolicyV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	return web.RenderJSON(w, model.NewJSONPolicyV1(ctx.Sanitizer.Policy()))
}

// MonitorHistoryV1 renders the change reports remembered by the monitor.
func MonitorHistoryV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	entries := ctx.MsgHub.History()
	events := make([]*model.JSONMonitorEventV1, 0, len(entries))
	for _, e := range entries {
		events = append(events, entryToEvent(e))
	}
	return web.RenderJSON(w, events)
}

// MonitorClearV1 forgets the remembered change reports.
func MonitorClearV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	ctx.MsgHub.Clear()
	return web.RenderJSON(w, "OK")
}

// decodeBody reads the JSON request body into v, returning a 400 StatusError on failure.
func decodeBody(w http.ResponseWriter, req *http.Request, ctx *web.Context, v any) error {
	if err := json.NewDecoder(limitBody(w, req, ctx)).Decode(v); err != nil {
		return web.ClientError(http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

// limitBody applies the configured request size limit to the request body.
func limitBody(w http.ResponseWriter, req *http.Request, ctx *web.Context) io.Reader {
	if ctx.WebConfig.MaxBodyBytes > 0 {
		return http.MaxBytesReader(w, req.Body, ctx.WebConfig.MaxBodyBytes)
	}
	return req.Body
}
