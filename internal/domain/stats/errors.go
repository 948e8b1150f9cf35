package stats

import "errors"

var (
	// ErrUnknownColumn is returned for a skill table column that does not exist.
	ErrUnknownColumn = errors.New("unknown sort column")
	// ErrUnknownDetailColumn is returned for a detail table column that does not exist.
	ErrUnknownDetailColumn = errors.New("unknown detail sort column")
	// ErrSkillNotInView is returned when a detail is requested for a skill
	// with no event in the current view.
	ErrSkillNotInView = errors.New("skill not in view")
)
