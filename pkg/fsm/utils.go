package fsm

import (
	"errors"
	"strings"

	"github.com/looplab/fsm"
)

func isNoTransitionError(err error) bool {
	if err == nil {
		return false
	}
	var noTransitionError fsm.NoTransitionError
	return errors.As(err, &noTransitionError)
}

// canceledCause returns the error a before_ callback passed to Cancel.
func canceledCause(err error) (error, bool) {
	var canceled fsm.CanceledError
	if !errors.As(err, &canceled) {
		return nil, false
	}
	return canceled.Err, true
}

func joinText(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
