package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/inbucket/sanitizer/pkg/server/web"
)

// SetupRoutes populates the routes for the REST interface
func SetupRoutes(r *mux.Router) {
	// API v1
	r.Path("/v1/sanitize").Handler(
		web.Handler(SanitizeV1)).Name("SanitizeV1").Methods("POST")
	r.Path("/v1/sanitize/css").Handler(
		web.Handler(SanitizeCSSV1)).Name("SanitizeCSSV1").Methods("POST")
	r.Path("/v1/sanitize/style").Handler(
		web.Handler(SanitizeStyleV1)).Name("SanitizeStyleV1").Methods("POST")
	r.Path("/v1/sanitize/message").Handler(
		web.Handler(SanitizeMessageV1)).Name("SanitizeMessageV1").Methods("POST")
	r.Path("/v1/policy").Handler(
		web.Handler(PolicyV1)).Name("PolicyV1").Methods("GET")
	r.Path("/v1/monitor/history").Handler(
		web.Handler(MonitorHistoryV1)).Name("MonitorHistoryV1").Methods("GET")
	r.Path("/v1/monitor/history").Handler(
		web.Handler(MonitorClearV1)).Name("MonitorClearV1").Methods("DELETE")
	r.Path("/v1/monitor/reports").Handler(
		web.Handler(MonitorReportsV1)).Name("MonitorReportsV1").Methods("GET")
}

// intParam parses the named query parameter, absent parameters are 0.
func intParam(req *http.Request, name string) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return n, nil
}
