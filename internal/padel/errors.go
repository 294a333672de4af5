package padel

import (
	"fmt"
	"math"
	"time"
)

type ErrorKind string

const (
	IncompleteSelection ErrorKind = "incomplete_selection"
	SameTeamConflict    ErrorKind = "same_team_conflict"
	CooldownActive      ErrorKind = "cooldown_active"
	UnknownTeam         ErrorKind = "unknown_team"
	UnknownCourt        ErrorKind = "unknown_court"
)

var (
	ErrIncompleteSelection = &ValidationError{Kind: IncompleteSelection}
	ErrSameTeamConflict    = &ValidationError{Kind: SameTeamConflict}
	ErrCooldownActive      = &ValidationError{Kind: CooldownActive}
	ErrUnknownTeam         = &ValidationError{Kind: UnknownTeam}
	ErrUnknownCourt        = &ValidationError{Kind: UnknownCourt}
)

// ValidationError is a recoverable rejection of a proposed match. It never leaves state mutated.
type ValidationError struct {
	Kind      ErrorKind
	TeamID    string
	TeamName  string
	Court     string
	Remaining time.Duration
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case IncompleteSelection:
		return "select a winning team, a losing team and a court"
	case SameTeamConflict:
		return "the winning and losing team cannot be the same"
	case CooldownActive:
		return fmt.Sprintf("team %s played too recently, wait %s", e.teamLabel(), formatWait(e.Remaining))
	case UnknownTeam:
		return fmt.Sprintf("team %q does not exist", e.TeamID)
	case UnknownCourt:
		return fmt.Sprintf("court %q does not exist", e.Court)
	default:
		return string(e.Kind)
	}
}

// Is matches on Kind so callers can use errors.Is(err, padel.ErrCooldownActive)
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *ValidationError) teamLabel() string {
	if e.TeamName != "" {
		return e.TeamName
	}
	return e.TeamID
}

// Rounded up to the next whole minute, so "0m" is never shown while a wait remains
func formatWait(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	minutes := int(math.Ceil(d.Minutes()))
	return fmt.Sprintf("%dm", minutes)
}
