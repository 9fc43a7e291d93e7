// Package config loads process configuration from flags, environment and an
// optional config file. The result is read once at startup and never changed.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"webAPIProxy/internal/auth"
	"webAPIProxy/internal/logging"

	"github.com/spf13/viper"
)

// Config is the full process configuration
type Config struct {
	Port            int              `mapstructure:"port"`
	PublicKeyFile   string           `mapstructure:"public_key_file"`
	PublicKey       string           `mapstructure:"public_key"`
	ShutdownTimeout time.Duration    `mapstructure:"shutdown_timeout"`
	Log             logging.Config   `mapstructure:"log"`
	Kubernetes      KubernetesConfig `mapstructure:"kubernetes"`
}

// KubernetesConfig names an optional Kubernetes Secret whose keys are merged
// into the secret namespace. Disabled when Secret is empty.
type KubernetesConfig struct {
	Namespace  string `mapstructure:"namespace"`
	Secret     string `mapstructure:"secret"`
	Kubeconfig string `mapstructure:"kubeconfig"`
}

// Enabled reports whether a Kubernetes secret source is configured
func (k KubernetesConfig) Enabled() bool {
	return k.Secret != ""
}

// env holds the environment variable bound to each key
var env = map[string]string{
	"port":                  "PORT",
	"public_key_file":       "WEB_API_PROXY_PUBLIC_KEY_FILE",
	"public_key":            "WEB_API_PROXY_PUBLIC_KEY",
	"shutdown_timeout":      "WEB_API_PROXY_SHUTDOWN_TIMEOUT",
	"log.level":             "WEB_API_PROXY_LOG_LEVEL",
	"log.format":            "WEB_API_PROXY_LOG_FORMAT",
	"kubernetes.namespace":  "WEB_API_PROXY_K8S_NAMESPACE",
	"kubernetes.secret":     "WEB_API_PROXY_K8S_SECRET",
	"kubernetes.kubeconfig": "KUBECONFIG",
}

// SetDefaults registers defaults and environment bindings on v
func SetDefaults(v *viper.Viper) error {
	v.SetDefault("port", 3000)
	v.SetDefault("public_key_file", auth.DefaultPublicKeyFile)
	v.SetDefault("public_key", "")
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("kubernetes.namespace", "default")
	v.SetDefault("kubernetes.secret", "")
	v.SetDefault("kubernetes.kubeconfig", "")

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return fmt.Errorf("failed to bind %s to %s: %w", key, name, err)
		}
	}
	return nil
}

// Load reads v into a validated Config
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown_timeout must not be negative")
	}
	if c.Kubernetes.Enabled() && c.Kubernetes.Namespace == "" {
		return errors.New("kubernetes.namespace is required when kubernetes.secret is set")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// KeySource returns where the public key is read from
func (c *Config) KeySource() auth.KeySource {
	return auth.KeySource{
		Path:     c.PublicKeyFile,
		EnvValue: c.PublicKey,
	}
}
