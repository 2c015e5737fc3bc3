package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var recentLimit int

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "Inspect locally recorded submissions",
}

var submissionsShowCmd = &cobra.Command{
	Use:   "show <reference-number>",
	Short: "Print one recorded submission as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := services.Submissions.Lookup(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var submissionsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent submissions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := services.Records.ListRecent(context.Background(), recentLimit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REFERENCE\tPROVINCE\tBUILDER\tITEM\tFILES\tFAILED\tCREATED")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				r.ReferenceNumber, r.Province, r.BuilderName, r.ListItemID,
				len(r.UploadedFileURLs), len(r.FailedFiles),
				r.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

func init() {
	submissionsRecentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 20, "number of submissions to list")
	submissionsCmd.AddCommand(submissionsShowCmd, submissionsRecentCmd)
	rootCmd.AddCommand(submissionsCmd)
}
