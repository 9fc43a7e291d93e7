package main

import (
	"fmt"

	"webAPIProxy/internal/auth"
	"webAPIProxy/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newVerifyCmd checks a signature against the configured public key, the same
// way the proxy does for X-Proxy-Authorization.
func newVerifyCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <api-server-host> <signature>",
		Short: "Check a host signature against the configured public key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			publicKey, origin, err := auth.LoadPublicKey(cfg.KeySource())
			if err != nil {
				return fmt.Errorf("failed to load public key: %w", err)
			}
			if err := auth.NewVerifier(publicKey).Verify(args[0], args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "signature valid (key from %s)\n", origin)
			return err
		},
	}
}
