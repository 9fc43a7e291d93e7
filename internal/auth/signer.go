package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ParsePrivateKey parses a PEM encoded PKCS#1 or PKCS#8 RSA private key
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

// SignHost produces the SignatureHeader value for host. It is the same as
//
//	printf '%s\n' "$host" | openssl dgst -sha1 -sign key.pem | base64
func SignHost(key *rsa.PrivateKey, host string) (string, error) {
	digest := sha1.Sum(Message(host))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign host: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}
