package k8s

import (
	"context"
	"fmt"

	"webAPIProxy/internal/secrets"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// GetSecret retrieves a Kubernetes secret as a map[string]string
func (c *Client) GetSecret(namespace, name string) (map[string]string, error) {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	secret, err := c.ClientSet.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret: %w", err)
	}

	result := make(map[string]string, len(secret.Data)+len(secret.StringData))
	for k, v := range secret.Data {
		result[k] = string(v) // convert from []byte to string
	}
	// StringData is write-only on a real API server, but fakes keep it as given
	for k, v := range secret.StringData {
		result[k] = v
	}

	return result, nil
}

// LoadNamespace reads one Kubernetes secret and turns its keys into a secret namespace.
// Each key of the secret is a full secret name, e.g. API_EXAMPLE_COM_TOKEN_SECRET_X.
func LoadNamespace(client SecretGetter, namespace, name string) (*secrets.Namespace, error) {
	data, err := client.GetSecret(namespace, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load secret namespace from %s/%s: %w", namespace, name, err)
	}
	return secrets.New(data), nil
}
