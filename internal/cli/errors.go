package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/osvaldoandrade/gitfixture/internal/app/fixture"
	"github.com/osvaldoandrade/gitfixture/internal/app/paths"
)

type ErrorKind string

const (
	KindInternal   ErrorKind = "internal"
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
)

const (
	ExitInternal = 1
	ExitInvalid  = 2
	ExitConflict = 4
)

type ExitError struct {
	Code    int
	Kind    ErrorKind
	Message string
	Err     error
}

func (e ExitError) Error() string {
	return errorMessage(e)
}

// NormalizeError maps the three error families onto stable exit codes: bad
// definitions are the caller's fault, integrity divergence is a state
// conflict, everything else (including failed tool runs) is internal.
func NormalizeError(err error) ExitError {
	if err == nil {
		return ExitError{Code: 0}
	}
	var exitErr ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Code == 0 {
			exitErr.Code = ExitInternal
		}
		return exitErr
	}

	var defErr *fixture.DefinitionError
	var intErr *fixture.IntegrityError
	switch {
	case errors.As(err, &defErr), errors.Is(err, paths.ErrRootPathRequired):
		return ExitError{Code: ExitInvalid, Kind: KindValidation, Err: err}
	case errors.As(err, &intErr):
		return ExitError{Code: ExitConflict, Kind: KindConflict, Err: err}
	default:
		return ExitError{Code: ExitInternal, Kind: KindInternal, Err: err}
	}
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return NormalizeError(err).Code
}

func writeCLIError(w io.Writer, exitErr ExitError, asJSON bool) error {
	if exitErr.Code == 0 {
		return nil
	}
	message := errorMessage(exitErr)
	if asJSON {
		payload := struct {
			Code    int    `json:"code"`
			Kind    string `json:"kind"`
			Message string `json:"message"`
		}{
			Code:    exitErr.Code,
			Kind:    string(exitErr.Kind),
			Message: message,
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}

	ui := newRenderer(w, false)
	prefix := "Error"
	if exitErr.Kind != "" {
		prefix = fmt.Sprintf("Error (%s)", exitErr.Kind)
	}
	prefix = ui.err(prefix)
	_, err := fmt.Fprintf(w, "%s: %s\n", prefix, message)
	return err
}

func errorMessage(exitErr ExitError) string {
	if exitErr.Message != "" {
		return exitErr.Message
	}
	if exitErr.Err != nil {
		return exitErr.Err.Error()
	}
	return "unknown error"
}
