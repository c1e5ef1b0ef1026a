package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage askcmd configuration",
	Args:  cobra.ArbitraryArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// runConfig shows usage for a bare "config". Any other words make the line a
// request, e.g. "askcmd config files in etc".
func runConfig(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return runAsQuery(cmd, args)
	}
	return cmd.Help()
}
