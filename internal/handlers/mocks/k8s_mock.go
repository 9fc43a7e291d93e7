package mocks

import (
	"fmt"
)

// MockK8sClient implements the k8s.SecretGetter interface for tests.
type MockK8sClient struct {
	// call flags for assertions
	GetSecretCalled bool

	// forceable errors (set in tests)
	GetErr error

	// Key - namespace/name
	Secrets map[string]ExampleSecret
}

type ExampleSecret struct {
	Namespace string
	Name      string
	Data      map[string]string
}

// helper: build a single unique key for a secret in K8s style: "<namespace>/<name>"
func makeKey(namespace, name string) string {
	return fmt.Sprintf("%s/%s", namespace, name)
}

func NewMockK8sClient() *MockK8sClient {
	return &MockK8sClient{
		Secrets: make(map[string]ExampleSecret),
	}
}

// cloneMap returns a copy of the provided map[string]string
func cloneMap(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// AddSecret stores a secret for later GetSecret calls
func (m *MockK8sClient) AddSecret(namespace, name string, data map[string]string) {
	if m.Secrets == nil {
		m.Secrets = make(map[string]ExampleSecret)
	}
	m.Secrets[makeKey(namespace, name)] = ExampleSecret{
		Namespace: namespace,
		Name:      name,
		Data:      cloneMap(data),
	}
}

// GetSecret returns a copy of the secret's data, or an error if not found.
func (m *MockK8sClient) GetSecret(namespace, name string) (map[string]string, error) {
	m.GetSecretCalled = true
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	key := makeKey(namespace, name)
	sec, ok := m.Secrets[key]
	if !ok {
		return nil, fmt.Errorf("secret %s not found", key)
	}

	return cloneMap(sec.Data), nil
}
