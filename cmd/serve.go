package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"webAPIProxy/internal/auth"
	"webAPIProxy/internal/config"
	"webAPIProxy/internal/handlers"
	"webAPIProxy/internal/k8s"
	"webAPIProxy/internal/logging"
	"webAPIProxy/internal/proxy"
	"webAPIProxy/internal/secrets"
	"webAPIProxy/internal/server"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Adding the following variable, so that the secret source can be tested
var newSecretClient = func(ctx context.Context, kubeconfig string) (k8s.SecretGetter, error) {
	client, err := k8s.NewClient(ctx, kubeconfig)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log, os.Stderr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			router, err := buildRouter(ctx, cfg, logger)
			if err != nil {
				logger.WithError(err).Error("refusing to start")
				return err
			}
			return server.New(cfg.Addr(), router, logger, cfg.ShutdownTimeout).Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.Int("port", 3000, "port to listen on (env PORT)")
	flags.String("public-key-file", auth.DefaultPublicKeyFile, "PEM or OpenSSH RSA public key file")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-format", "text", "text or json")
	mustBind(v, "port", flags.Lookup("port"))
	mustBind(v, "public_key_file", flags.Lookup("public-key-file"))
	mustBind(v, "log.level", flags.Lookup("log-level"))
	mustBind(v, "log.format", flags.Lookup("log-format"))

	return cmd
}

// buildRouter loads the public key and secret namespace once and wires the request pipeline.
// A missing public key is fatal: the proxy never serves unverifiable traffic.
func buildRouter(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (http.Handler, error) {
	publicKey, origin, err := auth.LoadPublicKey(cfg.KeySource())
	if err != nil {
		return nil, fmt.Errorf("failed to load public key: %w", err)
	}
	logger.WithField("source", origin).Info("loaded public key")

	ns, err := loadSecrets(ctx, cfg.Kubernetes, logger)
	if err != nil {
		return nil, err
	}

	verifier := auth.NewVerifier(publicKey)
	forwarder := proxy.NewForwarder(nil, logger, auth.HostHeader, auth.SignatureHeader)
	proxyHandler := handlers.NewProxyHandler(ns, forwarder, logger)

	return server.NewRouter(verifier, proxyHandler, logger), nil
}

// loadSecrets snapshots the process environment and, when configured, merges in
// a Kubernetes secret. Environment values win on conflicts.
func loadSecrets(ctx context.Context, kcfg config.KubernetesConfig, logger logrus.FieldLogger) (*secrets.Namespace, error) {
	env := secrets.FromProcessEnv()
	if !kcfg.Enabled() {
		return env, nil
	}

	client, err := newSecretClient(ctx, kcfg.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	cluster, err := k8s.LoadNamespace(client, kcfg.Namespace, kcfg.Secret)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"namespace": kcfg.Namespace,
		"secret":    kcfg.Secret,
		"entries":   cluster.Len(),
	}).Info("loaded secrets from kubernetes")

	return secrets.Merge(env, cluster), nil
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
