// Package jsonpatch customizes preset definitions with RFC 7386 merge
// patches before they are resolved.
package jsonpatch

import (
	"context"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

type Patcher struct{}

// Merge applies an RFC 7386 merge patch to doc.
func (Patcher) Merge(ctx context.Context, doc, patch []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, fmt.Errorf("apply merge patch: %w", err)
	}
	return out, nil
}
