package main

import (
	"fmt"
	"os"

	"webAPIProxy/internal/auth"

	"github.com/spf13/cobra"
)

func newSignCmd() *cobra.Command {
	var keyFile string

	cmd := &cobra.Command{
		Use:   "sign <api-server-host>",
		Short: "Print the X-Proxy-Authorization value for a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(keyFile)
			if err != nil {
				return fmt.Errorf("failed to read private key: %w", err)
			}
			key, err := auth.ParsePrivateKey(data)
			if err != nil {
				return err
			}
			sig, err := auth.SignHost(key, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sig)
			return err
		},
	}
	cmd.Flags().StringVar(&keyFile, "key", "./crypto/key.pem", "PEM encoded RSA private key")

	return cmd
}
