package models

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrInvalidHost is returned when the declared upstream host cannot be turned into a target URL
var ErrInvalidHost = errors.New("invalid API server host")

// Target describes where a single request is forwarded to.
// It lives only for the duration of one request.
type Target struct {
	Scheme   string       // http or https
	Host     string       // authority, including port if any
	Path     string       // host path prefix joined with the request path
	Query    *QueryParams // decoded, ordered query parameters
	Fragment string
}

// ParseTarget builds a Target from the declared upstream host and the inbound
// request URI (path and query). The two are joined as plain strings, so a host
// value carrying its own path prefix is preserved.
func ParseTarget(apiServerHost, requestURI string) (*Target, error) {
	u, err := url.Parse(apiServerHost + requestURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHost, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidHost, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrInvalidHost, apiServerHost)
	}

	return &Target{
		Scheme:   u.Scheme,
		Host:     u.Host,
		Path:     u.EscapedPath(),
		Query:    ParseQuery(u.RawQuery),
		Fragment: u.Fragment,
	}, nil
}

// Hostname returns the host without any port
func (t *Target) Hostname() string {
	u := url.URL{Host: t.Host}
	return u.Hostname()
}

// URL returns a fresh URL whose query string is re-encoded from Query,
// so changes made to Query are always reflected.
func (t *Target) URL() *url.URL {
	u := &url.URL{
		Scheme:   t.Scheme,
		Host:     t.Host,
		RawQuery: t.Query.Encode(),
		Fragment: t.Fragment,
	}
	if path, err := url.PathUnescape(t.Path); err == nil {
		u.Path = path
		u.RawPath = t.Path
	} else {
		u.Path = t.Path
	}
	return u
}

// String renders the target URL
func (t *Target) String() string {
	return t.URL().String()
}
