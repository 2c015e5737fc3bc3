package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"nhbrcforms/application"
	"nhbrcforms/domain/province"
)

var healthProvince string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check configuration, authentication and site access for a province",
	Long: `Check configuration, authentication and site access for a province.

The command exits non-zero unless the status is "ok".

Examples:
  formsctl health
  formsctl health --province "Western Cape"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := cfg.HealthProvince
		if healthProvince != "" {
			parsed, ok := province.Parse(healthProvince)
			if !ok {
				return fmt.Errorf("unknown province %q", healthProvince)
			}
			p = parsed
		}

		report := services.Health.Check(context.Background(), p)
		if err := printJSON(cmd, report); err != nil {
			return err
		}
		if report.Status != application.HealthOK {
			return fmt.Errorf("health check %s at stage %q", report.Status, report.Stage)
		}
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	healthCmd.Flags().StringVarP(&healthProvince, "province", "p", "", "province to check (default HEALTH_PROVINCE)")
	rootCmd.AddCommand(healthCmd)
}
