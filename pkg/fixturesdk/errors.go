package fixturesdk

import (
	"errors"

	"github.com/osvaldoandrade/gitfixture/internal/app/fixture"
)

var (
	ErrRootRequired  = errors.New("fixturesdk: root path required")
	ErrUnknownPreset = errors.New("fixturesdk: unknown preset")
)

// Error types of the underlying engine, re-exported so callers can branch
// on the failure family without importing internal packages.
type (
	DefinitionError = fixture.DefinitionError
	CreationError   = fixture.CreationError
	IntegrityError  = fixture.IntegrityError
)

// IsDefinitionError reports whether err stems from malformed declarative
// input rather than from the build or verify machinery.
func IsDefinitionError(err error) bool {
	var target *DefinitionError
	return errors.As(err, &target)
}

// IsIntegrityError reports whether err is a divergence found by Verify.
func IsIntegrityError(err error) bool {
	var target *IntegrityError
	return errors.As(err, &target)
}
