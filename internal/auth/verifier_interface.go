package auth

// SignatureVerifier is implemented by Verifier and by test doubles
type SignatureVerifier interface {
	Verify(host, signature string) error
}
