package fixture

import (
	"fmt"

	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

// Kind names a concrete item variant in a definition entry.
type Kind string

const (
	KindRepo      Kind = "repo"
	KindSelf      Kind = "self" // the repo the fixture exposes as its handle
	KindFile      Kind = "file"
	KindInfo      Kind = "info" // file with a defaulted path and content
	KindCommand   Kind = "command"
	KindCommit    Kind = "commit"
	KindDrop      Kind = "drop"
	KindSubmodule Kind = "submodule"
)

// InfoFilePath is the defaulted declared path of the info file kind.
const InfoFilePath = "INFO.txt"

func (k Kind) IsValid() bool {
	return k.IsRepo() || k.IsFile() || k.IsCommand()
}

// IsRepo reports whether the kind constructs a repository item.
func (k Kind) IsRepo() bool { return k == KindRepo || k == KindSelf }

// IsFile reports whether the kind constructs a file item.
func (k Kind) IsFile() bool { return k == KindFile || k == KindInfo }

// IsCommand reports whether the kind constructs a build-time command.
func (k Kind) IsCommand() bool {
	switch k {
	case KindCommand, KindCommit, KindDrop, KindSubmodule:
		return true
	}
	return false
}

// Entry is one (kind, parameter-map) element of a definition. Paths in
// parameter maps are relative to the fixture root; references to other
// entries are their declared relative paths.
type Entry struct {
	Kind   Kind           `json:"kind"`
	Params map[string]any `json:"params"`
}

// Definition is the ordered list of entries a fixture is built from. Later
// entries may reference earlier ones; forward references are illegal.
type Definition []Entry

// Parameter accessors. Definitions may be assembled programmatically or
// decoded from JSON, so numeric and list values arrive in either Go-native
// or JSON-decoded shape.

func stringParam(params map[string]any, key string) (string, bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", false, fmt.Errorf("parameter %q: want string, got %T", key, raw)
	}
	return value, true, nil
}

func boolParam(params map[string]any, key string) (bool, bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return false, false, nil
	}
	value, ok := raw.(bool)
	if !ok {
		return false, false, fmt.Errorf("parameter %q: want bool, got %T", key, raw)
	}
	return value, true, nil
}

func intParam(params map[string]any, key string) (int, bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch value := raw.(type) {
	case int:
		return value, true, nil
	case int64:
		return int(value), true, nil
	case float64:
		return int(value), true, nil
	default:
		return 0, false, fmt.Errorf("parameter %q: want integer, got %T", key, raw)
	}
}

func stringListParam(params map[string]any, key string) ([]string, bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return nil, false, nil
	}
	switch value := raw.(type) {
	case string:
		return []string{value}, true, nil
	case []string:
		return value, true, nil
	case []any:
		out := make([]string, 0, len(value))
		for _, elem := range value {
			s, ok := elem.(string)
			if !ok {
				return nil, false, fmt.Errorf("parameter %q: want string elements, got %T", key, elem)
			}
			out = append(out, s)
		}
		return out, true, nil
	default:
		return nil, false, fmt.Errorf("parameter %q: want string or string list, got %T", key, raw)
	}
}

// statePairParam decodes a two-element list of short-format codes, e.g.
// ["A", " "] for a staged, not yet committed file.
func statePairParam(params map[string]any, key string) (domain.StatusPair, bool, error) {
	codes, ok, err := stringListParam(params, key)
	if err != nil || !ok {
		return domain.StatusPair{}, ok, err
	}
	if len(codes) != 2 {
		return domain.StatusPair{}, false, fmt.Errorf("parameter %q: want exactly 2 state codes, got %d", key, len(codes))
	}
	index, err := domain.ParseFileState(codes[0])
	if err != nil {
		return domain.StatusPair{}, false, fmt.Errorf("parameter %q: %v", key, err)
	}
	worktree, err := domain.ParseFileState(codes[1])
	if err != nil {
		return domain.StatusPair{}, false, fmt.Errorf("parameter %q: %v", key, err)
	}
	return domain.StatusPair{Index: index, Worktree: worktree}, true, nil
}

func optionalBoolParam(params map[string]any, key string) (*bool, error) {
	value, ok, err := boolParam(params, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &value, nil
}
