package mocks

// MockVerifier implements auth.SignatureVerifier
type MockVerifier struct {
	Err       error
	Called    bool
	Host      string
	Signature string
}

func (m *MockVerifier) Verify(host, signature string) error {
	m.Called = true
	m.Host = host
	m.Signature = signature
	return m.Err
}
