package auth

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	// HostHeader carries the upstream origin the caller wants to reach
	HostHeader = "X-Api-Server-Host"
	// SignatureHeader carries the base64 RSA-SHA1 signature of HostHeader
	SignatureHeader = "X-Proxy-Authorization"
)

var (
	ErrMissingHost      = errors.New("missing API server host header")
	ErrMissingPublicKey = errors.New("public key not found")
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Verifier checks host signatures against a single RSA public key.
// The key is set once at startup and never changed, so a Verifier is
// safe to share between requests.
type Verifier struct {
	PublicKey *rsa.PublicKey
}

// NewVerifier creates a new Verifier
func NewVerifier(publicKey *rsa.PublicKey) *Verifier {
	return &Verifier{PublicKey: publicKey}
}

// Message returns the exact bytes that are signed for host: the host followed by a newline
func Message(host string) []byte {
	return []byte(host + "\n")
}

// Verify checks that signature is a valid base64 RSA PKCS#1 v1.5 SHA-1
// signature over Message(host).
func (v *Verifier) Verify(host, signature string) error {
	if v == nil || v.PublicKey == nil {
		return ErrMissingPublicKey
	}
	if signature == "" {
		return ErrMissingSignature
	}

	sig, err := decodeSignature(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	digest := sha1.Sum(Message(host))
	if err := rsa.VerifyPKCS1v15(v.PublicKey, crypto.SHA1, digest[:], sig); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// decodeSignature accepts standard or URL-safe base64, padded or not,
// with any embedded whitespace (openssl | base64 wraps at 76 columns).
func decodeSignature(signature string) ([]byte, error) {
	compact := strings.Join(strings.Fields(signature), "")

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		sig, err := enc.DecodeString(compact)
		if err == nil {
			return sig, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("signature is not base64: %w", lastErr)
}
