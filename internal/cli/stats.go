package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llmgate/llmgate/internal/shared/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage statistics per virtual key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAdminClient()

		var stats []models.UsageStats
		if err := client.do("GET", "/admin/usage-stats", nil, &stats); err != nil {
			return err
		}

		if output == "json" {
			return printJSON(stats)
		}

		if len(stats) == 0 {
			fmt.Println("No usage statistics found.")
			return nil
		}

		var totalRequests, totalTokens int64
		var totalCost float64

		fmt.Printf("%-20s %-10s %-15s %s\n", "PROJECT", "REQUESTS", "TOKENS", "EST. COST ($)")
		for _, s := range stats {
			totalRequests += s.TotalRequests
			totalTokens += s.TotalTokens
			totalCost += s.EstimatedCost
			fmt.Printf("%-20s %-10d %-15d %.4f\n", s.ProjectName, s.TotalRequests, s.TotalTokens, s.EstimatedCost)
		}
		fmt.Printf("%-20s %-10d %-15d %.4f\n", "TOTAL", totalRequests, totalTokens, totalCost)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
