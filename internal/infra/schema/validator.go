// Package schema validates definition entry parameters against embedded
// JSON Schemas, one per entry kind. Structural problems (wrong types,
// unknown parameters) are caught here; cross-field contradictions are the
// item constructors' business.
package schema

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Validator holds the compiled per-kind schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles the embedded schemas. Failing to compile one is a
// packaging defect, not a runtime condition.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("schema: list embedded schemas: %w", err)
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(entries))}
	for _, entry := range entries {
		kind := strings.TrimSuffix(entry.Name(), ".json")
		raw, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("schema: read %s: %w", entry.Name(), err)
		}
		url := "gitfixture:///" + entry.Name()
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("schema: add %s: %w", entry.Name(), err)
		}
		compiled, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("schema: compile %s: %w", entry.Name(), err)
		}
		v.schemas[kind] = compiled
	}
	return v, nil
}

// ValidateEntry checks the JSON-encoded parameter map of one entry against
// the schema of its kind.
func (v *Validator) ValidateEntry(ctx context.Context, kind string, params []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	compiled, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("no schema for kind %q", kind)
	}
	var decoded any
	if err := json.Unmarshal(params, &decoded); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("parameters for kind %q: %w", kind, err)
	}
	return nil
}

// Kinds returns the kind names a schema exists for, unsorted.
func (v *Validator) Kinds() []string {
	kinds := make([]string, 0, len(v.schemas))
	for kind := range v.schemas {
		kinds = append(kinds, kind)
	}
	return kinds
}
