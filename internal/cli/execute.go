package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Execute runs the fixture command tree and maps failures onto the exit
// codes NormalizeError defines. Help requests exit zero.
func Execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		exitErr := NormalizeError(err)
		_ = writeCLIError(cmd.ErrOrStderr(), exitErr, jsonOutput(cmd))
		return exitErr.Code
	}
	return 0
}

// jsonOutput reads the persistent --json flag from wherever cobra parked it
// after parsing; errors can surface before a subcommand inherits flags.
func jsonOutput(cmd *cobra.Command) bool {
	for _, flags := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags(), cmd.InheritedFlags()} {
		if flags == nil || flags.Lookup("json") == nil {
			continue
		}
		if value, err := flags.GetBool("json"); err == nil {
			return value
		}
	}
	return false
}
