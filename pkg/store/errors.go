package store

import (
	"fmt"

	"github.com/vango-dev/depot/internal/errors"
)

// Sentinel errors. Errors returned by the store match them with errors.Is.
var (
	// ErrUnknownAction is returned by Call for a name that is not an action.
	ErrUnknownAction = errors.New("E120")

	// ErrNoReset is returned by Reset on a setup store without "$reset".
	ErrNoReset = errors.New("E121")
)

// PanicError reports a panic raised inside an action to OnError callbacks.
// The panic itself is propagated to the caller unchanged.
type PanicError struct {
	Action string
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("action %q panicked: %v", e.Action, e.Value)
}

// Is makes a PanicError match the E122 code.
func (e *PanicError) Is(target error) bool {
	t, ok := target.(*errors.Error)
	return ok && t.Code == "E122"
}

func unknownAction(id, name string) error {
	return errors.New("E120").
		WithStore(id).
		WithDetail(fmt.Sprintf("no action named %q", name))
}

func noReset(id string) error {
	return errors.New("E121").
		WithStore(id).
		WithSuggestion(`return a "$reset" action from the setup function`)
}
