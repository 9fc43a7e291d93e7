package k8s

// SecretGetter defines the methods used by LoadNamespace so it can be mocked in tests.
// This interface isolates Kubernetes-specific logic inside the k8s package,
// so that the rest of the proxy only ever sees a secrets.Namespace
type SecretGetter interface {
	GetSecret(namespace, name string) (map[string]string, error)
}
