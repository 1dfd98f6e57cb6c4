package fixturesdk

import (
	"io"
	"log/slog"
	"strings"
)

// Config defines where fixtures are built and how verbosely.
type Config struct {
	// Root is the directory definitions are resolved against. Typically a
	// test's temporary directory.
	Root string

	// Registry is the path of the build catalog database. Empty disables
	// cataloging.
	Registry string

	// Name tags cataloged builds.
	Name string

	// Logger receives build and verify tracing at debug level. Nil keeps
	// the SDK silent.
	Logger *slog.Logger

	// LogOutput builds a debug text logger when Logger is nil and this is
	// set. Convenience for tests that want tracing on t.Log-style writers.
	LogOutput io.Writer
}

// DefaultConfig returns a silent, registry-less configuration.
func DefaultConfig(root string) Config {
	return Config{Root: root}
}

func normalizeConfig(cfg Config) (Config, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return cfg, ErrRootRequired
	}
	if cfg.Logger == nil && cfg.LogOutput != nil {
		cfg.Logger = slog.New(slog.NewTextHandler(cfg.LogOutput,
			&slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return cfg, nil
}
