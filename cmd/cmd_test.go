package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"webAPIProxy/internal/auth"
	"webAPIProxy/internal/config"
	"webAPIProxy/internal/handlers/mocks"
	"webAPIProxy/internal/k8s"
	"webAPIProxy/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper: write a fresh key pair to dir and return the file paths.
func writeKeyPair(t *testing.T, dir string) (privPath, pubPath string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	privPath = filepath.Join(dir, "key.pem")
	pubPath = filepath.Join(dir, "key.pub")
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), 0o600))
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	}), 0o644))
	return privPath, pubPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// A signature printed by sign is accepted by verify
func TestSignThenVerify(t *testing.T) {
	dir := t.TempDir()
	privPath, pubPath := writeKeyPair(t, dir)
	t.Setenv("WEB_API_PROXY_PUBLIC_KEY_FILE", pubPath)

	out, err := execute(t, "sign", "--key", privPath, "https://api.example.com")
	require.NoError(t, err)
	sig := strings.TrimSpace(out)
	require.NotEmpty(t, sig)

	out, err = execute(t, "verify", "https://api.example.com", sig)
	require.NoError(t, err)
	assert.Contains(t, out, "signature valid")
	assert.Contains(t, out, pubPath)

	_, err = execute(t, "verify", "https://other.example.com", sig)
	assert.ErrorIs(t, err, auth.ErrInvalidSignature)
}

func TestSign_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))

	tests := []struct {
		name        string
		args        []string
		expectedErr string
	}{
		{name: "missing key file", args: []string{"sign", "--key", filepath.Join(dir, "nope.pem"), "h"}, expectedErr: "failed to read private key"},
		{name: "unparseable key", args: []string{"sign", "--key", garbage, "h"}, expectedErr: "failed to parse private key"},
		{name: "no host", args: []string{"sign", "--key", garbage}, expectedErr: "accepts 1 arg(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

// verify without any configured key reports the missing key
func TestVerify_NoPublicKey(t *testing.T) {
	t.Setenv("WEB_API_PROXY_PUBLIC_KEY_FILE", filepath.Join(t.TempDir(), "absent.pub"))
	t.Setenv("WEB_API_PROXY_PUBLIC_KEY", "")

	_, err := execute(t, "verify", "https://api.example.com", "c2ln")
	assert.ErrorIs(t, err, auth.ErrMissingPublicKey)
}

func TestBuildRouter_MissingPublicKey(t *testing.T) {
	cfg := &config.Config{
		Port:          3000,
		PublicKeyFile: filepath.Join(t.TempDir(), "absent.pub"),
	}
	router, err := buildRouter(context.Background(), cfg, logging.Nop())
	assert.Nil(t, router)
	assert.ErrorIs(t, err, auth.ErrMissingPublicKey)
}

func TestBuildRouter_FromFile(t *testing.T) {
	_, pubPath := writeKeyPair(t, t.TempDir())
	cfg := &config.Config{Port: 3000, PublicKeyFile: pubPath}

	router, err := buildRouter(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	assert.NotNil(t, router)
}

// Helper: swap the secret client factory for the duration of a test.
func useSecretClient(t *testing.T, client k8s.SecretGetter, err error) {
	t.Helper()
	orig := newSecretClient
	newSecretClient = func(context.Context, string) (k8s.SecretGetter, error) {
		return client, err
	}
	t.Cleanup(func() { newSecretClient = orig })
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("API_EXAMPLE_COM_TOKEN_A", "from-env")

	t.Run("environment only when kubernetes is disabled", func(t *testing.T) {
		mock := mocks.NewMockK8sClient()
		useSecretClient(t, mock, nil)

		ns, err := loadSecrets(context.Background(), config.KubernetesConfig{}, logging.Nop())
		require.NoError(t, err)
		assert.False(t, mock.GetSecretCalled)

		got, ok := ns.Lookup("API_EXAMPLE_COM_TOKEN_A")
		assert.True(t, ok)
		assert.Equal(t, "from-env", got)
	})

	t.Run("kubernetes secret merged under the environment", func(t *testing.T) {
		mock := mocks.NewMockK8sClient()
		mock.AddSecret("proxy", "upstream-secrets", map[string]string{
			"API_EXAMPLE_COM_TOKEN_A": "from-cluster",
			"API_EXAMPLE_COM_TOKEN_B": "cluster-only",
		})
		useSecretClient(t, mock, nil)

		kcfg := config.KubernetesConfig{Namespace: "proxy", Secret: "upstream-secrets"}
		ns, err := loadSecrets(context.Background(), kcfg, logging.Nop())
		require.NoError(t, err)
		assert.True(t, mock.GetSecretCalled)

		got, _ := ns.Lookup("API_EXAMPLE_COM_TOKEN_A")
		assert.Equal(t, "from-env", got)
		got, ok := ns.Lookup("API_EXAMPLE_COM_TOKEN_B")
		assert.True(t, ok)
		assert.Equal(t, "cluster-only", got)
	})

	t.Run("missing kubernetes secret", func(t *testing.T) {
		useSecretClient(t, mocks.NewMockK8sClient(), nil)

		kcfg := config.KubernetesConfig{Namespace: "proxy", Secret: "absent"}
		_, err := loadSecrets(context.Background(), kcfg, logging.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "proxy/absent")
	})

	t.Run("client construction fails", func(t *testing.T) {
		useSecretClient(t, nil, errors.New("no cluster"))

		kcfg := config.KubernetesConfig{Namespace: "proxy", Secret: "s"}
		_, err := loadSecrets(context.Background(), kcfg, logging.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create kubernetes client")
	})
}
