package fixturesdk

import (
	"context"
	"fmt"
	"time"

	"github.com/osvaldoandrade/gitfixture/internal/app/fixture"
	"github.com/osvaldoandrade/gitfixture/internal/app/presets"
	"github.com/osvaldoandrade/gitfixture/internal/infra/gitcli"
	"github.com/osvaldoandrade/gitfixture/internal/infra/gitstate"
	"github.com/osvaldoandrade/gitfixture/internal/infra/ident"
	"github.com/osvaldoandrade/gitfixture/internal/infra/registry"
	"github.com/osvaldoandrade/gitfixture/internal/infra/schema"
)

// Re-exported definition vocabulary so callers assemble definitions without
// importing internal packages.
type (
	Definition = fixture.Definition
	Entry      = fixture.Entry
	Kind       = fixture.Kind
	Fixture    = fixture.Fixture
)

const (
	KindRepo      = fixture.KindRepo
	KindSelf      = fixture.KindSelf
	KindFile      = fixture.KindFile
	KindInfo      = fixture.KindInfo
	KindCommand   = fixture.KindCommand
	KindCommit    = fixture.KindCommit
	KindDrop      = fixture.KindDrop
	KindSubmodule = fixture.KindSubmodule
)

// Client builds and verifies fixtures under one root directory.
type Client struct {
	cfg  Config
	opts fixture.Options
}

// New validates the configuration and wires the build collaborators: the
// git/git-annex binaries for materialization, a library-backed inspector for
// verification, and the embedded parameter schemas.
func New(cfg Config) (*Client, error) {
	normalized, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg: normalized,
		opts: fixture.Options{
			Runner:    gitcli.NewIsolatedRunner(),
			Inspector: gitstate.NewInspector(),
			Validator: validator,
			Logger:    normalized.Logger,
		},
	}, nil
}

// Build materializes a definition under the configured root and catalogs the
// build when a registry is configured.
func (c *Client) Build(ctx context.Context, def Definition) (*Fixture, error) {
	built, err := fixture.Build(ctx, c.cfg.Root, def, c.opts)
	if err != nil {
		return nil, err
	}
	if c.cfg.Registry != "" {
		if err := c.record(ctx, def, built); err != nil {
			return nil, err
		}
	}
	return built, nil
}

// BuildPreset materializes a shipped preset, optionally customized with a
// per-entry merge patch document.
func (c *Client) BuildPreset(ctx context.Context, name string, patch []byte) (*Fixture, error) {
	def, err := presets.ByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	if len(patch) > 0 {
		if def, err = presets.Customize(ctx, def, patch); err != nil {
			return nil, err
		}
	}
	return c.Build(ctx, def)
}

// Verify re-derives the built fixture's state from disk and fails on the
// first divergence.
func (c *Client) Verify(ctx context.Context, f *Fixture) error {
	return f.Verify(ctx)
}

// Presets lists the names BuildPreset accepts.
func (c *Client) Presets() []string {
	return presets.Names()
}

// Digest fingerprints a definition the way the registry catalogs it.
func (c *Client) Digest(ctx context.Context, def Definition) (string, error) {
	return presets.Digest(ctx, def)
}

func (c *Client) record(ctx context.Context, def Definition, built *Fixture) error {
	store, err := registry.Open(c.cfg.Registry)
	if err != nil {
		return err
	}
	defer store.Close()

	digest, err := presets.Digest(ctx, def)
	if err != nil {
		return err
	}
	id, err := ident.NewULIDGenerator().NewID()
	if err != nil {
		return err
	}
	return store.Record(ctx, registry.Record{
		ID:        id,
		Name:      c.cfg.Name,
		Path:      built.Root(),
		Digest:    digest,
		CreatedAt: time.Now(),
	})
}
