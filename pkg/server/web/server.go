// Package web provides the HTTP plumbing for the sanitizer REST API.
package web

import (
	"context"
	"errors"
	"expvar"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/mux"
	"github.com/inbucket/sanitizer/pkg/config"
	"github.com/inbucket/sanitizer/pkg/msghub"
	"github.com/inbucket/sanitizer/pkg/sanitize"
	"github.com/rs/zerolog/log"
)

var (
	// msgHub holds a reference to the report pub/sub system
	msgHub     *msghub.Hub
	sanitizer  *sanitize.Sanitizer
	rootConfig *config.Root

	// Router sends incoming requests to the correct handler function
	Router = mux.NewRouter()

	// ExpWebSocketConnectsCurrent tracks the number of open WebSockets
	ExpWebSocketConnectsCurrent = new(expvar.Int)

	// ExpSanitizeRequests counts requests handled by the sanitize endpoints
	ExpSanitizeRequests = new(expvar.Int)
)

func init() {
	m := expvar.NewMap("http")
	m.Set("WebSocketConnectsCurrent", ExpWebSocketConnectsCurrent)
	m.Set("SanitizeRequests", ExpSanitizeRequests)
}

// Server defines an instance of the web server.
type Server struct {
	http     *http.Server
	listener net.Listener
	notify   chan error // Notify on fatal error.
}

// NewServer sets up things for unit tests or the Start() method.
func NewServer(conf *config.Root, s *sanitize.Sanitizer, mh *msghub.Hub) *Server {
	rootConfig = conf
	sanitizer = s
	msgHub = mh

	prefix := func(path string) string {
		return conf.Web.BasePath + path
	}

	Router.Handle(prefix("/debug/vars"), expvar.Handler())
	if conf.Web.PProf {
		Router.HandleFunc(prefix("/debug/pprof/"), pprof.Index)
		Router.HandleFunc(prefix("/debug/pprof/cmdline"), pprof.Cmdline)
		Router.HandleFunc(prefix("/debug/pprof/profile"), pprof.Profile)
		Router.HandleFunc(prefix("/debug/pprof/symbol"), pprof.Symbol)
		Router.HandleFunc(prefix("/debug/pprof/trace"), pprof.Trace)
		Router.Handle(prefix("/debug/pprof/{name}"), http.HandlerFunc(pprofNamed))
		log.Warn().Str("module", "web").Str("phase", "startup").
			Msg("Go pprof tools installed to " + prefix("/debug/pprof"))
	}
	Router.NotFoundHandler = noMatchHandler(http.StatusNotFound, "No route matches URI path")
	Router.MethodNotAllowedHandler = noMatchHandler(http.StatusMethodNotAllowed,
		"Method not allowed for URI path")

	return &Server{
		http: &http.Server{
			Addr:         conf.Web.Addr,
			Handler:      requestLoggingWrapper(Router),
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		notify: make(chan error, 1),
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start(ctx context.Context, readyFunc func()) {
	slog := log.With().Str("module", "web").Str("phase", "startup").Str("addr", s.http.Addr).
		Logger()

	// We don't use ListenAndServe because it lacks a way to close the listener
	var err error
	s.listener, err = net.Listen("tcp", s.http.Addr)
	if err != nil {
		slog.Error().Err(err).Msg("HTTP failed to start TCP listener")
		s.notify <- err
		close(s.notify)
		return
	}
	slog.Info().Msg("HTTP listening on tcp")

	// Listener go routine
	go s.serve(ctx)
	readyFunc()

	// Wait for shutdown
	<-ctx.Done()
	slog = log.With().Str("module", "web").Str("phase", "shutdown").Logger()
	slog.Debug().Msg("HTTP server shutting down on request")

	timeout := rootConfig.Web.ShutdownTimeout
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.http.Shutdown(sctx); err != nil {
		slog.Error().Err(err).Msg("HTTP server did not shut down cleanly")
	}
}

// serve begins serving HTTP requests
func (s *Server) serve(ctx context.Context) {
	// server.Serve blocks until we close the listener
	err := s.http.Serve(s.listener)

	select {
	case <-ctx.Done():
		// Nop
	default:
		if errors.Is(err, http.ErrServerClosed) {
			return
		}
		log.Error().Str("module", "web").Err(err).Msg("HTTP server failed")
		s.notify <- err
		close(s.notify)
	}
}

// Notify allows the running Web server to be monitored for a fatal error.
func (s *Server) Notify() <-chan error {
	return s.notify
}

func pprofNamed(w http.ResponseWriter, req *http.Request) {
	pprof.Handler(mux.Vars(req)["name"]).ServeHTTP(w, req)
}
