package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gateway provider configuration",
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider> <api-key>",
	Short: "Set the real API key for a provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, apiKey := args[0], args[1]
		client := newAdminClient()

		body := map[string]string{"api_key": apiKey}
		if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
			body["base_url"] = baseURL
		}

		if err := client.do("PUT", "/admin/provider-keys/"+provider, body, nil); err != nil {
			return err
		}

		fmt.Printf("API key for %s updated successfully\n", provider)
		return nil
	},
}

var configListKeysCmd = &cobra.Command{
	Use:   "list-keys",
	Short: "List configured provider API keys (masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAdminClient()

		var creds []struct {
			Provider string `json:"provider"`
			APIKey   string `json:"api_key"`
			BaseURL  string `json:"base_url,omitempty"`
		}
		if err := client.do("GET", "/admin/provider-keys", nil, &creds); err != nil {
			return err
		}

		if output == "json" {
			return printJSON(creds)
		}

		if len(creds) == 0 {
			fmt.Println("No API keys configured.")
			return nil
		}

		fmt.Printf("%-15s %-20s %s\n", "PROVIDER", "API KEY (MASKED)", "BASE URL")
		for _, c := range creds {
			fmt.Printf("%-15s %-20s %s\n", c.Provider, c.APIKey, c.BaseURL)
		}
		return nil
	},
}

func init() {
	configSetKeyCmd.Flags().String("base-url", "", "Override the provider's default base URL")
	configCmd.AddCommand(configSetKeyCmd, configListKeysCmd)
	rootCmd.AddCommand(configCmd)
}
