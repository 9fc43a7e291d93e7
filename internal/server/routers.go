package server

import (
	"net/http"
	"time"

	"webAPIProxy/internal/auth"
	"webAPIProxy/internal/handlers"
	"webAPIProxy/internal/logging"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader is echoed back on every response
const RequestIDHeader = "X-Request-Id"

// Router holds dependencies
type Router struct {
	Verifier     auth.SignatureVerifier
	ProxyHandler *handlers.ProxyHandler
	Logger       logrus.FieldLogger
}

// NewRouter wires the single catch-all proxy route and returns an http.Handler.
// Every method and every path goes through signature verification first.
func NewRouter(verifier auth.SignatureVerifier, proxyHandler *handlers.ProxyHandler, logger logrus.FieldLogger) http.Handler {
	rt := &Router{
		Verifier:     verifier,
		ProxyHandler: proxyHandler,
		Logger:       logger,
	}

	router := mux.NewRouter()
	// paths are forwarded exactly as received
	router.SkipClean(true)
	router.UseEncodedPath()
	router.Use(rt.requestIDMiddleware)
	router.Use(rt.loggingMiddleware)

	router.PathPrefix("/").Handler(auth.SignatureMiddleware(verifier, logger, proxyHandler))

	return router
}

// requestIDMiddleware tags each request with an id for log correlation
func (rt *Router) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// loggingMiddleware records method, path, status and duration
func (rt *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logging.FromContext(r.Context(), rt.Logger).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.EscapedPath(),
			"status":   sw.status,
			"bytes":    sw.written,
			"duration": time.Since(start).String(),
		}).Info("request completed")
	})
}

// statusWriter remembers the status code written through it
type statusWriter struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// Flush keeps streamed responses flowing through the wrapper
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
