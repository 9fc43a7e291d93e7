package handlers

import (
	"errors"
	"net/http"

	"webAPIProxy/internal/auth"
	"webAPIProxy/internal/logging"
	"webAPIProxy/internal/models"
	"webAPIProxy/internal/placeholder"
	"webAPIProxy/internal/secrets"

	"github.com/sirupsen/logrus"
)

// ProxyHandler resolves placeholders for a verified request and forwards it.
// It must sit behind auth.SignatureMiddleware.
type ProxyHandler struct {
	Secrets   secrets.Lookuper
	Forwarder Forwarder
	Logger    logrus.FieldLogger
}

// NewProxyHandler creates a new ProxyHandler
func NewProxyHandler(ns secrets.Lookuper, forwarder Forwarder, logger logrus.FieldLogger) *ProxyHandler {
	return &ProxyHandler{
		Secrets:   ns,
		Forwarder: forwarder,
		Logger:    logger,
	}
}

// ServeHTTP handles every method on every path
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context(), h.Logger)

	host, ok := auth.GetUpstreamHost(r.Context())
	if !ok {
		http.Error(w, "Missing API server host header", http.StatusInternalServerError)
		return
	}

	target, err := models.ParseTarget(host, r.URL.RequestURI())
	if err != nil {
		log.WithError(err).WithField("host", host).Warn("cannot build upstream URL")
		http.Error(w, "Invalid API server host header", http.StatusInternalServerError)
		return
	}

	placeholders := placeholder.Count(target)
	if err := placeholder.Resolve(target, h.Secrets); err != nil {
		var missing *placeholder.MissingSecretError
		if errors.As(err, &missing) {
			log.WithFields(logrus.Fields{
				"param":  missing.Param,
				"secret": missing.Name,
			}).Warn("no secret for placeholder")
			http.Error(w, missing.Error(), http.StatusInternalServerError)
			return
		}
		log.WithError(err).Error("failed to resolve placeholders")
		http.Error(w, "Failed to resolve placeholders", http.StatusInternalServerError)
		return
	}

	log.WithFields(logrus.Fields{
		"upstream":     target.Scheme + "://" + target.Host + target.Path,
		"placeholders": placeholders,
	}).Debug("forwarding request")

	h.Forwarder.Forward(w, r, target.URL())
}
