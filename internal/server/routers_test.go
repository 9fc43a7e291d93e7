package server

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"webAPIProxy/internal/auth"
	"webAPIProxy/internal/handlers"
	"webAPIProxy/internal/handlers/mocks"
	"webAPIProxy/internal/logging"
	"webAPIProxy/internal/placeholder"
	"webAPIProxy/internal/proxy"
	"webAPIProxy/internal/secrets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func privateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return testKey
}

// recordedRequest is what the fake upstream saw
type recordedRequest struct {
	Method string
	URI    string
	Header http.Header
	Body   string
}

// Helper: start a fake upstream that records requests and answers with a fixed response.
func startUpstream(t *testing.T) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []recordedRequest
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recordedRequest{Method: r.Method, URI: r.RequestURI, Header: r.Header.Clone(), Body: string(b)})
		mu.Unlock()

		w.Header().Set("X-Upstream", "svc")
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, "upstream body")
	}))
	t.Cleanup(ts.Close)
	return ts, &seen
}

// Helper: start the proxy wired with real verifier, resolver and forwarder.
func startProxy(t *testing.T, ns *secrets.Namespace) *httptest.Server {
	t.Helper()
	logger := logging.Nop()
	verifier := auth.NewVerifier(&privateKey(t).PublicKey)
	forwarder := proxy.NewForwarder(nil, logger, auth.HostHeader, auth.SignatureHeader)
	proxyHandler := handlers.NewProxyHandler(ns, forwarder, logger)

	ts := httptest.NewServer(NewRouter(verifier, proxyHandler, logger))
	t.Cleanup(ts.Close)
	return ts
}

func sign(t *testing.T, host string) string {
	t.Helper()
	sig, err := auth.SignHost(privateKey(t), host)
	require.NoError(t, err)
	return sig
}

func doRequest(t *testing.T, method, url, host, signature string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if host != "" {
		req.Header.Set(auth.HostHeader, host)
	}
	if signature != "" {
		req.Header.Set(auth.SignatureHeader, signature)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// End-to-end: signed host, placeholder resolved, control headers stripped, response verbatim
func TestRouter_EndToEnd(t *testing.T) {
	upstream, seen := startUpstream(t)
	ns := secrets.New(map[string]string{
		placeholder.SecretName("127.0.0.1", "key", "APIKEY"): "xyz",
	})
	proxyServer := startProxy(t, ns)

	resp := doRequest(t, http.MethodGet, proxyServer.URL+"/data?key={APIKEY}", upstream.URL, sign(t, upstream.URL), nil)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "svc", resp.Header.Get("X-Upstream"))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Equal(t, "upstream body", readBody(t, resp))

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/data?key=xyz", got.URI)
	assert.Empty(t, got.Header.Values(auth.HostHeader))
	assert.Empty(t, got.Header.Values(auth.SignatureHeader))
}

// Any method and body are forwarded
func TestRouter_ForwardsAnyMethod(t *testing.T) {
	upstream, seen := startUpstream(t)
	proxyServer := startProxy(t, secrets.New(nil))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		resp := doRequest(t, method, proxyServer.URL+"/items/7", upstream.URL, sign(t, upstream.URL), strings.NewReader("body-"+method))
		assert.Equal(t, http.StatusAccepted, resp.StatusCode, method)
	}

	require.Len(t, *seen, 4)
	assert.Equal(t, http.MethodDelete, (*seen)[3].Method)
	assert.Equal(t, "body-DELETE", (*seen)[3].Body)
	assert.Equal(t, "/items/7", (*seen)[3].URI)
}

// Rejections never reach the upstream
func TestRouter_Rejections(t *testing.T) {
	upstream, seen := startUpstream(t)
	proxyServer := startProxy(t, secrets.New(nil))
	validSig := sign(t, upstream.URL)

	tests := []struct {
		name           string
		path           string
		host           string
		signature      string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing host header",
			path:           "/data",
			signature:      validSig,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Missing API server host header\n",
		},
		{
			name:           "missing signature",
			path:           "/data",
			host:           upstream.URL,
			expectedStatus: http.StatusForbidden,
			expectedBody:   "Missing signature\n",
		},
		{
			name:           "signature for another host",
			path:           "/data",
			host:           "https://evil.example.com",
			signature:      validSig,
			expectedStatus: http.StatusForbidden,
			expectedBody:   "Invalid signature\n",
		},
		{
			name:           "garbage signature",
			path:           "/data",
			host:           upstream.URL,
			signature:      "not-a-signature",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "Invalid signature\n",
		},
		{
			name:           "missing secret",
			path:           "/data?key={APIKEY}",
			host:           upstream.URL,
			signature:      validSig,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "No value for environment variable: " + placeholder.SecretName("127.0.0.1", "key", "APIKEY") + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, proxyServer.URL+tt.path, tt.host, tt.signature, nil)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, tt.expectedBody, readBody(t, resp))
		})
	}

	assert.Empty(t, *seen, "no request may reach the upstream")
}

// Paths are not cleaned or redirected by the router
func TestRouter_PreservesPath(t *testing.T) {
	forwarder := &mocks.MockForwarder{}
	verifier := &mocks.MockVerifier{}
	logger := logging.Nop()
	router := NewRouter(verifier, handlers.NewProxyHandler(secrets.New(nil), forwarder, logger), logger)

	req := httptest.NewRequest(http.MethodGet, "/a//b/../c%2Fd?x=1", nil)
	req.Header.Set(auth.HostHeader, "https://svc.io")
	req.Header.Set(auth.SignatureHeader, "sig")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.True(t, forwarder.Called)
	assert.True(t, verifier.Called)
	assert.Equal(t, "https://svc.io", verifier.Host)
	assert.Equal(t, "https://svc.io/a//b/../c%2Fd?x=1", forwarder.Target.String())
}
