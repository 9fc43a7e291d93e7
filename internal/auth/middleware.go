package auth

import (
	"errors"
	"net/http"

	"webAPIProxy/internal/logging"

	"github.com/sirupsen/logrus"
)

const publicKeyNotFoundMessage = "Public key not found in crypto/key.pub or WEB_API_PROXY_PUBLIC_KEY environment variable"

// SignatureMiddleware only lets a request through when it carries a valid
// signature for its declared upstream host. The verified host is injected
// into the request context for the next handler.
func SignatureMiddleware(verifier SignatureVerifier, logger logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context(), logger)

		host := r.Header.Get(HostHeader)
		if host == "" {
			log.Warn("rejected request without API server host header")
			http.Error(w, "Missing API server host header", http.StatusInternalServerError)
			return
		}

		signature := r.Header.Get(SignatureHeader)
		log.WithFields(logrus.Fields{
			"host":      host,
			"signature": signature,
		}).Info("verifying upstream host signature")

		if err := verifier.Verify(host, signature); err != nil {
			log = log.WithField("host", host).WithError(err)
			switch {
			case errors.Is(err, ErrMissingPublicKey):
				log.Error("no public key configured")
				http.Error(w, publicKeyNotFoundMessage, http.StatusInternalServerError)
			case errors.Is(err, ErrMissingSignature):
				log.Warn("rejected request without signature")
				http.Error(w, "Missing signature", http.StatusForbidden)
			default:
				log.Warn("rejected request with invalid signature")
				http.Error(w, "Invalid signature", http.StatusForbidden)
			}
			return
		}

		ctx := WithUpstreamHost(r.Context(), host)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
