package gitfixture

import "github.com/osvaldoandrade/gitfixture/internal/cli"

// Execute runs the gitfixture CLI entrypoint.
func Execute() int {
	return cli.Execute()
}
