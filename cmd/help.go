package cmd

import "github.com/spf13/cobra"

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Help about any command",
	Args:  cobra.ArbitraryArgs,
	RunE:  runHelp,
}

func init() {
	rootCmd.SetHelpCommand(helpCmd)
}

// runHelp shows help for "help" alone or "help <command path>". Anything
// else, like "help me find large files", is a request.
func runHelp(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Root().Help()
	}
	target, rest, err := cmd.Root().Find(args)
	if err == nil && target != cmd.Root() && len(rest) == 0 {
		return target.Help()
	}
	return runAsQuery(cmd, args)
}
