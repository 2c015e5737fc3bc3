package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Inspect or advance the reference number counter",
	Long: `Inspect or advance the reference number counter.

Examples:
  formsctl counter show
  formsctl counter next`,
}

var counterShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the last allocated reference number",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		last := services.Allocator.Peek(context.Background())
		fmt.Fprintf(cmd.OutOrStdout(), "%s (backend %s)\n", last, cfg.Counter.Backend)
		return nil
	},
}

var counterNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Allocate and print the next reference number",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := services.Allocator.Next(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ref)
		return nil
	},
}

func init() {
	counterCmd.AddCommand(counterShowCmd, counterNextCmd)
	rootCmd.AddCommand(counterCmd)
}
