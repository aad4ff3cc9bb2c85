package commands

import (
	"errors"
	"fmt"
	"io"

	"todocal/internal/exitcode"
	"todocal/internal/service"
)

// userErrors are failures the user can fix by changing the request.
var userErrors = []error{
	service.ErrInvalidTask,
	service.ErrNotFound,
	service.ErrNotOwner,
	service.ErrSelfShare,
	service.ErrDuplicateShare,
	service.ErrConflict,
	service.ErrUnknownShare,
	service.ErrNotPending,
	service.ErrInvalidDecision,
	service.ErrResponseInFlight,
}

// reportError prints err to errOut and returns the matching exit code.
func reportError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrNotLoggedIn):
		fmt.Fprintln(errOut, "error: not logged in (run: todocal login)")
		return exitcode.AuthError
	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
