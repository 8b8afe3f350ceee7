package layoutshot

import (
	"errors"
	"fmt"
)

// Stage names the step of a run that failed.
type Stage string

const (
	StageLaunch   Stage = "launch"
	StageNavigate Stage = "navigate"
	StageViewport Stage = "viewport"
	StageCapture  Stage = "capture"
	StageInspect  Stage = "inspect"
)

// ErrFooterTooTall is returned by strict runs when the mobile footer is
// taller than the configured maximum.
var ErrFooterTooTall = errors.New("footer too tall for mobile")

// Error is a run failure tagged with the stage it happened in.
type Error struct {
	Stage Stage
	Path  string // page URL or artifact path, when known
	Err   error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(stage Stage, path string, err error) *Error {
	return &Error{Stage: stage, Path: path, Err: err}
}

// StageOf returns the stage of a run error, or "" if err did not come from
// a run.
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
