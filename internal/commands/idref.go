package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrIDRequired indicates no id argument was provided.
var ErrIDRequired = errors.New("id required")

// ParseID parses a positive numeric id from the first argument.
// A leading '#' is accepted so ids can be copied from list output.
func ParseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, ErrIDRequired
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("unexpected argument: %s", args[1])
	}

	raw := strings.TrimPrefix(args[0], "#")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id: %s", args[0])
	}
	return id, nil
}

// parseIDArg parses an id and prints a usage error naming what was expected.
func parseIDArg(args []string, what string, errOut io.Writer) (int64, bool) {
	id, err := ParseID(args)
	if err != nil {
		if errors.Is(err, ErrIDRequired) {
			fmt.Fprintf(errOut, "error: %s id required\n", what)
		} else {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return 0, false
	}
	return id, true
}
