package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/osvaldoandrade/gitfixture/internal/app/fixture"
	"github.com/osvaldoandrade/gitfixture/internal/app/presets"
	"github.com/osvaldoandrade/gitfixture/internal/infra/gitcli"
	"github.com/osvaldoandrade/gitfixture/internal/infra/gitstate"
	"github.com/osvaldoandrade/gitfixture/internal/infra/ident"
	"github.com/osvaldoandrade/gitfixture/internal/infra/registry"
	"github.com/osvaldoandrade/gitfixture/internal/infra/schema"
	"github.com/spf13/cobra"
)

type definitionFlags struct {
	preset     string
	definition string
	patch      string
}

func (f *definitionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.preset, "preset", "", "Name of a shipped preset definition")
	cmd.Flags().StringVar(&f.definition, "definition", "", "Path to a JSON definition file")
	cmd.Flags().StringVar(&f.patch, "patch", "", "Path to a merge-patch file customizing the definition")
}

func (f *definitionFlags) load(cmd *cobra.Command) (fixture.Definition, error) {
	var def fixture.Definition
	switch {
	case f.preset != "" && f.definition != "":
		return nil, ExitError{Code: ExitInvalid, Kind: KindValidation,
			Message: "--preset and --definition are mutually exclusive"}
	case f.preset != "":
		var err error
		if def, err = presets.ByName(f.preset); err != nil {
			return nil, ExitError{Code: ExitInvalid, Kind: KindValidation, Err: err}
		}
	case f.definition != "":
		raw, err := os.ReadFile(f.definition)
		if err != nil {
			return nil, fmt.Errorf("read definition: %w", err)
		}
		if err := json.Unmarshal(raw, &def); err != nil {
			return nil, ExitError{Code: ExitInvalid, Kind: KindValidation,
				Message: fmt.Sprintf("decode definition: %v", err)}
		}
	default:
		return nil, ExitError{Code: ExitInvalid, Kind: KindValidation,
			Message: "one of --preset or --definition is required"}
	}

	if f.patch != "" {
		raw, err := os.ReadFile(f.patch)
		if err != nil {
			return nil, fmt.Errorf("read patch: %w", err)
		}
		if def, err = presets.Customize(cmd.Context(), def, raw); err != nil {
			return nil, ExitError{Code: ExitInvalid, Kind: KindValidation, Err: err}
		}
	}
	return def, nil
}

func buildOptions() (fixture.Options, error) {
	validator, err := schema.NewValidator()
	if err != nil {
		return fixture.Options{}, err
	}
	return fixture.Options{
		Runner:    gitcli.NewIsolatedRunner(),
		Inspector: gitstate.NewInspector(),
		Validator: validator,
		Logger:    slog.Default(),
	}, nil
}

func newBuildCmd(opts *RootOptions) *cobra.Command {
	var defFlags definitionFlags
	var path string
	var name string
	var record bool
	var verify bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Materialize a fixture definition into a directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := defFlags.load(cmd)
			if err != nil {
				return err
			}
			fixtureOpts, err := buildOptions()
			if err != nil {
				return err
			}

			built, err := fixture.Build(cmd.Context(), path, def, fixtureOpts)
			if err != nil {
				return err
			}
			if verify {
				if err := built.Verify(cmd.Context()); err != nil {
					return err
				}
			}

			digest, err := presets.Digest(cmd.Context(), def)
			if err != nil {
				return err
			}
			buildID := ""
			if record {
				if buildID, err = recordBuild(cmd, opts.Registry, name, built.Root(), digest); err != nil {
					return err
				}
			}
			return printBuild(cmd, opts, built, buildID, digest)
		},
	}
	defFlags.register(cmd)
	cmd.Flags().StringVar(&path, "path", "", "Target directory (must be empty or absent)")
	cmd.Flags().StringVar(&name, "name", "", "Name to catalog the build under")
	cmd.Flags().BoolVar(&record, "record", false, "Catalog the build in the fixture registry")
	cmd.Flags().BoolVar(&verify, "verify", false, "Verify integrity right after building")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func recordBuild(cmd *cobra.Command, registryPath, name, root, digest string) (string, error) {
	store, err := registry.Open(registryPath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	id, err := ident.NewULIDGenerator().NewID()
	if err != nil {
		return "", err
	}
	if err := store.Record(cmd.Context(), registry.Record{
		ID:        id,
		Name:      name,
		Path:      root,
		Digest:    digest,
		CreatedAt: time.Now(),
	}); err != nil {
		return "", err
	}
	return id, nil
}

func printBuild(cmd *cobra.Command, opts *RootOptions, built *fixture.Fixture, buildID, digest string) error {
	out := cmd.OutOrStdout()
	if opts.JSONOutput {
		payload := struct {
			ID     string   `json:"id,omitempty"`
			Path   string   `json:"path"`
			Digest string   `json:"digest"`
			Items  []string `json:"items"`
		}{buildID, built.Root(), digest, built.Keys()}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}

	ui := newRenderer(out, false)
	fmt.Fprintf(out, "%s %s\n", ui.ok("Built"), built.Root())
	fmt.Fprintf(out, "%s %s\n", ui.key("digest:"), digest)
	if buildID != "" {
		fmt.Fprintf(out, "%s %s\n", ui.key("id:"), buildID)
	}
	for _, key := range built.Keys() {
		fmt.Fprintf(out, "  %s\n", ui.dim(key))
	}
	return nil
}

func newVerifyCmd(opts *RootOptions) *cobra.Command {
	var defFlags definitionFlags
	var path string
	var keep bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Build a definition into a scratch directory and verify its integrity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := defFlags.load(cmd)
			if err != nil {
				return err
			}
			fixtureOpts, err := buildOptions()
			if err != nil {
				return err
			}

			target := path
			if target == "" {
				scratch, err := os.MkdirTemp("", "gitfixture-verify-")
				if err != nil {
					return fmt.Errorf("create scratch directory: %w", err)
				}
				target = scratch
				if !keep {
					defer os.RemoveAll(scratch)
				}
			}

			built, err := fixture.Build(cmd.Context(), target, def, fixtureOpts)
			if err != nil {
				return err
			}
			if err := built.Verify(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.JSONOutput {
				payload := struct {
					Path  string   `json:"path"`
					Items []string `json:"items"`
					OK    bool     `json:"ok"`
				}{built.Root(), built.Keys(), true}
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(payload)
			}
			ui := newRenderer(out, false)
			fmt.Fprintf(out, "%s %s\n", ui.ok("Verified"), built.Root())
			return nil
		},
	}
	defFlags.register(cmd)
	cmd.Flags().StringVar(&path, "path", "", "Build here instead of a scratch directory")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the scratch directory after verification")
	return cmd
}

func newPresetsCmd(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the shipped fixture definitions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if opts.JSONOutput {
				payload := make(map[string]fixture.Definition, len(presets.Names()))
				for _, name := range presets.Names() {
					def, err := presets.ByName(name)
					if err != nil {
						return err
					}
					payload[name] = def
				}
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(payload)
			}
			ui := newRenderer(out, false)
			for _, name := range presets.Names() {
				fmt.Fprintf(out, "%s\n", ui.key(name))
			}
			return nil
		},
	}
	return cmd
}

func newListCmd(opts *RootOptions) *cobra.Command {
	var digest string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cataloged fixture builds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := registry.Open(opts.Registry)
			if err != nil {
				return err
			}
			defer store.Close()

			var records []registry.Record
			if digest != "" {
				records, err = store.FindByDigest(cmd.Context(), digest)
			} else {
				records, err = store.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.JSONOutput {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(records)
			}
			ui := newRenderer(out, false)
			for _, rec := range records {
				name := rec.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(out, "%s  %s  %s  %s\n",
					ui.key(rec.ID), name, rec.Path, ui.dim(rec.CreatedAt.Format(time.RFC3339)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&digest, "digest", "", "Only builds of this definition digest")
	return cmd
}
