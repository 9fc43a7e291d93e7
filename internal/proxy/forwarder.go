// Package proxy forwards a resolved request to its upstream and streams the
// response back.
//
// Bodies are never buffered: the inbound request body is handed to the
// outbound request as-is, and the upstream response is flushed to the caller
// as bytes arrive. The outbound request shares the inbound request's context,
// so a client disconnect cancels the upstream call.
package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"

	"webAPIProxy/internal/logging"

	"github.com/sirupsen/logrus"
)

type contextKey string

const targetKey contextKey = "target"

// Forwarder relays requests to the URL attached with WithTarget
type Forwarder struct {
	proxy  *httputil.ReverseProxy
	logger logrus.FieldLogger
	strip  []string
}

// NewForwarder creates a Forwarder. transport may be nil to use http.DefaultTransport.
// stripHeaders are removed from every outbound request.
func NewForwarder(transport http.RoundTripper, logger logrus.FieldLogger, stripHeaders ...string) *Forwarder {
	f := &Forwarder{
		logger: logger,
		strip:  stripHeaders,
	}
	f.proxy = &httputil.ReverseProxy{
		Rewrite:       f.rewrite,
		Transport:     transport,
		FlushInterval: -1,
		ErrorHandler:  f.handleError,
	}
	return f
}

// WithTarget attaches the resolved upstream URL to ctx
func WithTarget(ctx context.Context, target *url.URL) context.Context {
	return context.WithValue(ctx, targetKey, target)
}

func targetFromContext(ctx context.Context) (*url.URL, bool) {
	target, ok := ctx.Value(targetKey).(*url.URL)
	return target, ok && target != nil
}

// Forward sends r to target and copies the upstream response into w
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, target *url.URL) {
	f.proxy.ServeHTTP(w, r.WithContext(WithTarget(r.Context(), target)))
}

func (f *Forwarder) rewrite(pr *httputil.ProxyRequest) {
	target, ok := targetFromContext(pr.In.Context())
	if !ok {
		// ServeHTTP is only reached through Forward
		panic("proxy: request has no target")
	}

	out := *target
	pr.Out.URL = &out
	pr.Out.Host = ""

	for _, h := range f.strip {
		pr.Out.Header.Del(h)
	}
}

func (f *Forwarder) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context(), f.logger).WithError(err)
	if target, ok := targetFromContext(r.Context()); ok {
		log = log.WithField("upstream", upstreamForLog(target))
	}

	switch {
	case errors.Is(r.Context().Err(), context.Canceled):
		log.Debug("client went away before upstream responded")
		return
	case errors.Is(err, context.DeadlineExceeded), errors.Is(r.Context().Err(), context.DeadlineExceeded):
		log.Warn("upstream request timed out")
		http.Error(w, "Upstream request timed out", http.StatusGatewayTimeout)
	default:
		log.Error("upstream request failed")
		http.Error(w, "Upstream request failed", http.StatusBadGateway)
	}
}

// upstreamForLog drops the query string, which may hold resolved secrets
func upstreamForLog(target *url.URL) string {
	u := url.URL{Scheme: target.Scheme, Host: target.Host, Path: target.Path, RawPath: target.RawPath}
	return u.String()
}
