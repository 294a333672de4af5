package service

import (
	"slices"
	"time"

	"github.com/AdamBeresnev/padel-elo/internal/cooldown"
	"github.com/AdamBeresnev/padel-elo/internal/padel"
	"github.com/AdamBeresnev/padel-elo/internal/rating"
	"github.com/google/uuid"
)

// State is everything the tournament knows during a session
type State struct {
	Teams    []padel.Team
	Cooldown *cooldown.Tracker
	// Newest first
	History []padel.Match
	Pending padel.Selection
}

func NewState(teams []padel.Team, tracker *cooldown.Tracker) *State {
	return &State{Teams: teams, Cooldown: tracker}
}

func (s *State) Clone() *State {
	return &State{
		Teams:    slices.Clone(s.Teams),
		Cooldown: s.Cooldown.Clone(),
		History:  slices.Clone(s.History),
		Pending:  s.Pending,
	}
}

type Rules struct {
	KFactor int
	// Empty means any non-blank court name is accepted
	Courts []string
}

func DefaultRules() Rules {
	return Rules{KFactor: rating.DefaultKFactor}
}

// RecordMatch validates req and, when it passes, applies the result to state: new ratings for both
// teams, both teams put on cooldown at now and the match prepended to the history.
// A rejected match leaves state exactly as it was.
func RecordMatch(state *State, req padel.Selection, rules Rules, now time.Time) (padel.MatchOutcome, error) {
	if err := ValidateMatch(req, state.Teams, state.Cooldown, rules.Courts, now); err != nil {
		return padel.MatchOutcome{}, err
	}

	winnerIdx := slices.IndexFunc(state.Teams, func(t padel.Team) bool { return t.ID == req.WinnerID })
	loserIdx := slices.IndexFunc(state.Teams, func(t padel.Team) bool { return t.ID == req.LoserID })
	winner := state.Teams[winnerIdx]
	loser := state.Teams[loserIdx]

	newWinnerRating, newLoserRating := rating.ComputeUpdate(winner.Rating, loser.Rating, rules.KFactor)

	teams := slices.Clone(state.Teams)
	teams[winnerIdx].Rating = newWinnerRating
	teams[loserIdx].Rating = newLoserRating

	match := padel.Match{
		ID:       uuid.New(),
		WinnerID: winner.ID,
		LoserID:  loser.ID,
		Court:    req.Court,
		PlayedAt: now,
	}

	state.Teams = teams
	state.Cooldown.RecordSelection(winner.ID, now)
	state.Cooldown.RecordSelection(loser.ID, now)
	state.History = append([]padel.Match{match}, state.History...)

	return padel.MatchOutcome{
		Match:           match,
		Winner:          teams[winnerIdx],
		Loser:           teams[loserIdx],
		WinnerNewRating: newWinnerRating,
		LoserNewRating:  newLoserRating,
		RatingDelta:     newWinnerRating - winner.Rating,
	}, nil
}
