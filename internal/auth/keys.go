package auth

import (
	"bytes"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/ssh"
)

// DefaultPublicKeyFile is where the public key is looked for first
const DefaultPublicKeyFile = "./crypto/key.pub"

// Adding the following variables, so that the code can be tested
var (
	statFile = os.Stat
	readFile = os.ReadFile
)

// KeySource says where the public key comes from: a file, or failing that
// a value taken from the environment.
type KeySource struct {
	Path     string
	EnvValue string
}

// PublicKey returns the raw key bytes and a description of where they came from.
// ErrMissingPublicKey is returned when neither source has a key.
func (s KeySource) PublicKey() ([]byte, string, error) {
	if s.Path != "" {
		if _, err := statFile(s.Path); err == nil {
			data, err := readFile(s.Path)
			if err != nil {
				return nil, "", fmt.Errorf("failed to read public key %q: %w", s.Path, err)
			}
			return data, s.Path, nil
		}
	}

	value := strings.TrimSpace(s.EnvValue)
	if value == "" {
		return nil, "", ErrMissingPublicKey
	}
	// single-line env values often carry literal \n sequences
	if !strings.Contains(value, "\n") {
		value = strings.ReplaceAll(value, `\n`, "\n")
	}
	return []byte(value), "environment", nil
}

// LoadPublicKey resolves and parses the public key from src
func LoadPublicKey(src KeySource) (*rsa.PublicKey, string, error) {
	data, origin, err := src.PublicKey()
	if err != nil {
		return nil, "", err
	}
	key, err := ParsePublicKey(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", origin, err)
	}
	return key, origin, nil
}

// ParsePublicKey accepts a PEM public key (PKIX or PKCS#1), a PEM certificate,
// or an OpenSSH ssh-rsa authorized key line.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("ssh-")) {
		return parseAuthorizedKey(trimmed)
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

func parseAuthorizedKey(data []byte) (*rsa.PublicKey, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh public key: %w", err)
	}
	cryptoKey, ok := pub.(ssh.CryptoPublicKey)
	if !ok {
		return nil, errors.New("ssh public key does not expose a crypto key")
	}
	rsaKey, ok := cryptoKey.CryptoPublicKey().(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("ssh public key type %s is not RSA", pub.Type())
	}
	return rsaKey, nil
}
