package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var provincesCmd = &cobra.Command{
	Use:   "provinces",
	Short: "List the SharePoint site and list configured per province",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PROVINCE\tSITE\tLIST")
		for _, t := range services.Provinces.Configured() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Province, t.SiteURL, t.ListName)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if missing := services.Provinces.Missing(); len(missing) > 0 {
			fmt.Fprintln(out, "\nUnset:")
			for _, key := range missing {
				fmt.Fprintf(out, "  %s\n", key)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(provincesCmd)
}
