package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hpkotak/askcmd/internal/setup"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Store an API key or configure a local provider",
	Args:  cobra.ArbitraryArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// runInit handles the literal query "init". Anything after it makes the
// whole line an ordinary request.
func runInit(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return runAsQuery(cmd, args)
	}
	return runSetup(providerFlag, ioIn, ioOut)
}

var runSetup = setup.Run
