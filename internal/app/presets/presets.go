// Package presets ships ready-made fixture definitions and the machinery to
// customize and fingerprint them.
package presets

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/osvaldoandrade/gitfixture/internal/app/fixture"
	"github.com/osvaldoandrade/gitfixture/internal/infra/canonicaljson"
	"github.com/osvaldoandrade/gitfixture/internal/infra/hash"
	"github.com/osvaldoandrade/gitfixture/internal/infra/jsonpatch"
)

// BasicGit is a plain git repository with two committed files, one staged
// file and one untracked file.
func BasicGit() fixture.Definition {
	return fixture.Definition{
		{Kind: fixture.KindSelf, Params: map[string]any{}},
		{Kind: fixture.KindFile, Params: map[string]any{
			"path":       "test.dat",
			"content":    "123\n",
			"state":      []string{" ", " "},
			"commit_msg": "Adding a basic file",
		}},
		{Kind: fixture.KindInfo, Params: map[string]any{}},
		{Kind: fixture.KindFile, Params: map[string]any{
			"path":    "staged.dat",
			"content": "staged content\n",
			"state":   []string{"A", " "},
		}},
		{Kind: fixture.KindFile, Params: map[string]any{
			"path":    "untracked.dat",
			"content": "untracked content\n",
			"state":   []string{"?", "?"},
		}},
	}
}

// BasicMixed is an annex with one annexed file alongside a committed plain
// file, plus the usual info file.
func BasicMixed() fixture.Definition {
	return fixture.Definition{
		{Kind: fixture.KindSelf, Params: map[string]any{"annex": true}},
		{Kind: fixture.KindFile, Params: map[string]any{
			"path":       "test.dat",
			"content":    "123\n",
			"state":      []string{" ", " "},
			"commit_msg": "Adding a basic file",
		}},
		{Kind: fixture.KindInfo, Params: map[string]any{}},
		{Kind: fixture.KindFile, Params: map[string]any{
			"path":    "test-annex.dat",
			"content": "annexed content\n",
			"state":   []string{"A", " "},
			"annexed": true,
		}},
		{Kind: fixture.KindCommit, Params: map[string]any{
			"msg":  "Adding the annexed file",
			"refs": []string{"test-annex.dat"},
		}},
	}
}

// Names lists the available presets, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var catalog = map[string]func() fixture.Definition{
	"basic-git":   BasicGit,
	"basic-mixed": BasicMixed,
}

// ByName resolves a preset by its catalog name.
func ByName(name string) (fixture.Definition, error) {
	build, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %v)", name, Names())
	}
	return build(), nil
}

// Customize tweaks individual entries of a definition. The patch document
// maps entry indices to RFC 7386 merge patches; a merge patch cannot
// address array elements, so the indexing lives here. Example:
//
//	{"1": {"params": {"content": "other payload\n"}}}
func Customize(ctx context.Context, def fixture.Definition, patch []byte) (fixture.Definition, error) {
	var byIndex map[string]json.RawMessage
	if err := json.Unmarshal(patch, &byIndex); err != nil {
		return nil, fmt.Errorf("decode patch document: %w", err)
	}

	out := append(fixture.Definition(nil), def...)
	for key, entryPatch := range byIndex {
		index, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("patch key %q is not an entry index", key)
		}
		if index < 0 || index >= len(out) {
			return nil, fmt.Errorf("patch index %d outside definition of %d entries", index, len(out))
		}

		doc, err := json.Marshal(out[index])
		if err != nil {
			return nil, fmt.Errorf("encode entry %d: %w", index, err)
		}
		patched, err := (jsonpatch.Patcher{}).Merge(ctx, doc, entryPatch)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", index, err)
		}
		var entry fixture.Entry
		if err := json.Unmarshal(patched, &entry); err != nil {
			return nil, fmt.Errorf("decode customized entry %d: %w", index, err)
		}
		out[index] = entry
	}
	return out, nil
}

// Digest fingerprints a definition: canonical JSON, then sha256. Two
// definitions that differ only in key order or whitespace share a digest.
func Digest(ctx context.Context, def fixture.Definition) (string, error) {
	doc, err := json.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("encode definition: %w", err)
	}
	canonical, err := (canonicaljson.Canonicalizer{}).Canonicalize(ctx, doc)
	if err != nil {
		return "", err
	}
	return (hash.SHA256{}).SumHex(canonical), nil
}
