// Package cli implements gatectl, the management CLI for the gateway's
// admin API: virtual keys, provider credentials and usage statistics.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	gatewayURL string
	adminKey   string
	output     string
)

var rootCmd = &cobra.Command{
	Use:   "gatectl",
	Short: "LLM gateway management CLI",
	Long: `gatectl manages an LLM gateway instance over its admin API.

It creates, lists and revokes virtual API keys, configures real provider
credentials, and reports per-project usage statistics.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway-url", "http://localhost:8080", "Base URL of the gateway")
	rootCmd.PersistentFlags().StringVar(&adminKey, "admin-key", "", "Admin API key, if the gateway requires one")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table|json)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
