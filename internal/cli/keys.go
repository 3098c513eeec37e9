package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/llmgate/llmgate/internal/shared/models"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage virtual API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create <project-name>",
	Short: "Create a new virtual API key for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAdminClient()

		var key models.VirtualKey
		err := client.do("POST", "/admin/virtual-keys", map[string]string{"project_name": args[0]}, &key)
		if err != nil {
			return err
		}

		if output == "json" {
			return printJSON(key)
		}

		fmt.Println("Virtual API key created successfully!")
		fmt.Printf("  Project: %s\n", key.ProjectName)
		fmt.Printf("  Key ID:  %s\n", key.ID)
		fmt.Printf("  Created: %s\n", key.CreatedAt.Format(time.RFC3339))
		return nil
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all virtual API keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAdminClient()

		var keys []models.VirtualKey
		if err := client.do("GET", "/admin/virtual-keys", nil, &keys); err != nil {
			return err
		}

		if output == "json" {
			return printJSON(keys)
		}

		if len(keys) == 0 {
			fmt.Println("No virtual keys found.")
			return nil
		}

		fmt.Printf("%-20s %-36s %-20s %s\n", "PROJECT", "KEY ID", "CREATED", "ACTIVE")
		for _, k := range keys {
			active := "yes"
			if !k.IsActive {
				active = "no"
			}
			fmt.Printf("%-20s %-36s %-20s %s\n", k.ProjectName, k.ID, k.CreatedAt.Format("2006-01-02 15:04:05"), active)
		}
		return nil
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke a virtual API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAdminClient()

		if err := client.do("DELETE", "/admin/virtual-keys/"+args[0], nil, nil); err != nil {
			return err
		}

		fmt.Println("Virtual key revoked successfully")
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysCreateCmd, keysListCmd, keysRevokeCmd)
	rootCmd.AddCommand(keysCmd)
}
