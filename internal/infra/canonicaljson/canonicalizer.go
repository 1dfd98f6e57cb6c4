// Package canonicaljson produces the canonical encoding a definition is
// digested under, so the same definition always maps to the same digest
// regardless of key order or whitespace in the input.
package canonicaljson

import (
	"context"
	"fmt"

	"github.com/go-json-experiment/json/jsontext"
)

type Canonicalizer struct{}

func (Canonicalizer) Canonicalize(ctx context.Context, input []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value := jsontext.Value(append([]byte(nil), input...))
	if err := value.Canonicalize(); err != nil {
		return nil, fmt.Errorf("canonicalize json: %w", err)
	}

	return []byte(value), nil
}
