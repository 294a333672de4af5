package service

import (
	"slices"
	"time"

	"github.com/AdamBeresnev/padel-elo/internal/cooldown"
	"github.com/AdamBeresnev/padel-elo/internal/padel"
)

// ValidateMatch checks a proposed match against the roster and cooldown log and returns the
// first rule it breaks as a *padel.ValidationError. Courts may be empty to accept any court name,
// and a nil tracker means no team is cooling down.
func ValidateMatch(req padel.Selection, teams []padel.Team, tracker *cooldown.Tracker, courts []string, now time.Time) error {
	if req.WinnerID == "" || req.LoserID == "" {
		return &padel.ValidationError{Kind: padel.IncompleteSelection}
	}
	if req.Court == "" {
		return &padel.ValidationError{Kind: padel.IncompleteSelection}
	}
	if req.WinnerID == req.LoserID {
		return &padel.ValidationError{Kind: padel.SameTeamConflict, TeamID: req.WinnerID}
	}

	winner, err := lookupTeam(teams, req.WinnerID)
	if err != nil {
		return err
	}
	loser, err := lookupTeam(teams, req.LoserID)
	if err != nil {
		return err
	}
	if err := checkCourt(courts, req.Court); err != nil {
		return err
	}

	if err := checkCooldown(tracker, winner, now); err != nil {
		return err
	}
	return checkCooldown(tracker, loser, now)
}

func lookupTeam(teams []padel.Team, id string) (padel.Team, error) {
	team, ok := padel.FindTeam(teams, id)
	if !ok {
		return padel.Team{}, &padel.ValidationError{Kind: padel.UnknownTeam, TeamID: id}
	}
	return team, nil
}

func checkCourt(courts []string, court string) error {
	if len(courts) > 0 && !slices.Contains(courts, court) {
		return &padel.ValidationError{Kind: padel.UnknownCourt, Court: court}
	}
	return nil
}

func checkCooldown(tracker *cooldown.Tracker, team padel.Team, now time.Time) error {
	if tracker == nil {
		return nil
	}
	if remaining := tracker.Remaining(team.ID, now); remaining > 0 {
		return &padel.ValidationError{
			Kind:      padel.CooldownActive,
			TeamID:    team.ID,
			TeamName:  team.Name,
			Remaining: remaining,
		}
	}
	return nil
}
