package mocks

import (
	"io"
	"net/http"
	"net/url"
)

// MockForwarder implements the handlers.Forwarder interface for tests.
// It records the call instead of making a network request.
type MockForwarder struct {
	Called bool
	Calls  int
	Target *url.URL
	Method string
	Header http.Header
	Body   string

	// response written back to the caller
	Status       int
	ResponseBody string
}

func (m *MockForwarder) Forward(w http.ResponseWriter, r *http.Request, target *url.URL) {
	m.Called = true
	m.Calls++
	m.Target = target
	m.Method = r.Method
	m.Header = r.Header.Clone()
	if r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		m.Body = string(b)
	}

	status := m.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, m.ResponseBody)
}
