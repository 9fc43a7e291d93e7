package handlers

import (
	"net/http"
	"net/url"
)

// Forwarder defines what ProxyHandler needs from the proxy package so it can be mocked in tests.
type Forwarder interface {
	Forward(w http.ResponseWriter, r *http.Request, target *url.URL)
}
