package wheel

import "errors"

// Argument errors, reported at call time per spec's error-handling
// design. Flat package-level error values follow the style of the
// teacher's sibling timer/crontab package and intuitivelabs/wtimer's
// errors.go.
var (
	ErrInvalidTick      = errors.New("wheel: tick duration must be positive")
	ErrInvalidSlotCount = errors.New("wheel: slot count must be positive")
	ErrNilAction        = errors.New("wheel: action must not be nil")
)
