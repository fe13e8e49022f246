package web

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Handler is a function type that handles an HTTP request to the sanitizer API.
type Handler func(http.ResponseWriter, *http.Request, *Context) error

// StatusError is returned by a Handler when the request itself is at fault, such as an
// unparsable stylesheet or MIME message.  The client receives Status instead of a 500.
type StatusError struct {
	Status int
	Err    error
}

// ClientError wraps err with the response status it should produce.
func ClientError(status int, err error) error {
	return &StatusError{Status: status, Err: err}
}

func (e *StatusError) Error() string {
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// ServeHTTP builds the context and passes onto the real handler.  Errors are rendered as JSON.
func (h Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx, err := NewContext(req)
	if err != nil {
		log.Error().Str("module", "web").Err(err).Msg("HTTP failed to create context")
		_ = RenderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer ctx.Close()

	if err = h(w, req, ctx); err != nil {
		status := http.StatusInternalServerError
		level := zerolog.ErrorLevel
		var se *StatusError
		if errors.As(err, &se) {
			status = se.Status
			level = zerolog.WarnLevel
		}
		log.WithLevel(level).Str("module", "web").Str("path", req.RequestURI).Int("status", status).
			Err(err).Msg("Error handling request")
		_ = RenderError(w, status, err.Error())
	}
}

// noMatchHandler creates a handler to log requests that Gorilla mux is unable to route,
// returning statusCode and message to the client as a JSON error.
func noMatchHandler(statusCode int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log.Warn().Str("module", "web").Str("remote", req.RemoteAddr).Str("proto", req.Proto).
			Str("method", req.Method).Str("path", req.RequestURI).Msg(message)
		_ = RenderError(w, statusCode, message)
	})
}

// statusWriter records the response status for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	if sw.status == 0 {
		sw.status = status
	}
	sw.ResponseWriter.WriteHeader(status)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}
	return sw.ResponseWriter.Write(b)
}

// Hijack passes through to the underlying writer for the monitor websocket.
func (sw *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := sw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer %T cannot be hijacked", sw.ResponseWriter)
	}
	sw.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// requestLoggingWrapper returns middleware that logs client requests with their status and
// duration once handled.
func requestLoggingWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, req)
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		log.Debug().Str("module", "web").Str("remote", req.RemoteAddr).Str("proto", req.Proto).
			Str("method", req.Method).Str("path", req.RequestURI).Int("status", sw.status).
			Dur("elapsed", time.Since(start)).Msg("Request")
	})
}
