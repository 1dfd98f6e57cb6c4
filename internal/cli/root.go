package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/osvaldoandrade/gitfixture/internal/platform"
	"github.com/spf13/cobra"
)

type RootOptions struct {
	JSONOutput bool
	LogLevel   string
	LogFormat  string
	Registry   string
}

func newRootCmd() *cobra.Command {
	opts := &RootOptions{
		LogLevel:  envDefault("GITFIXTURE_LOG_LEVEL", "info"),
		LogFormat: envDefault("GITFIXTURE_LOG_FORMAT", "text"),
		Registry:  envDefault("GITFIXTURE_REGISTRY", defaultRegistryPath()),
	}
	cmd := &cobra.Command{
		Use:           "gitfixture",
		Short:         "Build and verify declarative git and git-annex test repositories",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := platform.ConfigureLogger(opts.LogLevel, opts.LogFormat, cmd.ErrOrStderr())
			return err
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.JSONOutput, "json", false, "Emit JSON output")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", opts.LogFormat, "Log format (text, json)")
	cmd.PersistentFlags().StringVar(&opts.Registry, "registry", opts.Registry, "Path to the fixture registry database")

	cmd.AddCommand(
		newBuildCmd(opts),
		newVerifyCmd(opts),
		newPresetsCmd(opts),
		newListCmd(opts),
	)

	return cmd
}

func defaultRegistryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gitfixture", "registry.db")
	}
	return filepath.Join(home, ".gitfixture", "registry.db")
}

func envDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
