package main

import (
	"fmt"

	"webAPIProxy/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newRootCmd builds the command tree around its own viper instance.
// Running the binary without a subcommand starts the proxy.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "webapiproxy",
		Short: "Signed reverse proxy that fills query placeholders from host-scoped secrets",
		Long: `webapiproxy forwards requests to the upstream named in the X-Api-Server-Host
header once X-Proxy-Authorization carries a valid RSA-SHA1 signature of that
host. Query values of the form {NAME} are replaced with the secret
<HOST>_<PARAM>_<NAME> before the request leaves the proxy.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")

	serve := newServeCmd(v)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newSignCmd(), newVerifyCmd(v))
	return root
}

// initConfig loads defaults, environment and the optional config file into v
func initConfig(v *viper.Viper, cfgFile string) error {
	if err := config.SetDefaults(v); err != nil {
		return err
	}
	if cfgFile == "" {
		return nil
	}

	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
	}
	return nil
}
