package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/AdamBeresnev/padel-elo/internal/cooldown"
	"github.com/AdamBeresnev/padel-elo/internal/metrics"
	"github.com/AdamBeresnev/padel-elo/internal/padel"
	"github.com/AdamBeresnev/padel-elo/internal/store"
)

// TournamentService owns the tournament state and is the only way to change it.
// Commands are serialized, each one runs to completion before the next starts.
type TournamentService struct {
	mu      sync.Mutex
	store   *store.StateStore
	rules   Rules
	window  time.Duration
	metrics *metrics.Metrics
	state   *State
}

func NewTournamentService(store *store.StateStore, rules Rules, window time.Duration, m *metrics.Metrics) *TournamentService {
	if m == nil {
		m = metrics.New()
	}
	if window <= 0 {
		window = cooldown.DefaultWindow
	}
	return &TournamentService{
		store:   store,
		rules:   rules,
		window:  window,
		metrics: m,
		state:   NewState(padel.DefaultRoster(), cooldown.New(window)),
	}
}

type TeamStatus struct {
	Team      padel.Team    `json:"team"`
	Eligible  bool          `json:"eligible"`
	Remaining time.Duration `json:"-"`
}

// Load restores teams and the cooldown log from the store. Missing or malformed data falls back
// to the default roster and an empty log.
func (s *TournamentService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	teams, ok, err := s.store.LoadTeams(ctx)
	if err != nil {
		return err
	}
	if !ok {
		teams = padel.DefaultRoster()
	}

	tracker, err := s.store.LoadCooldown(ctx, s.window)
	if err != nil {
		return err
	}

	s.state = NewState(teams, tracker)
	s.publishRatings(teams)
	slog.Info("tournament loaded", "teams", len(teams), "restored", ok, "cooldowns", tracker.Len())
	return nil
}

func (s *TournamentService) SelectWinner(teamID string, now time.Time) error {
	return s.selectTeam(teamID, now, true)
}

func (s *TournamentService) SelectLoser(teamID string, now time.Time) error {
	return s.selectTeam(teamID, now, false)
}

func (s *TournamentService) selectTeam(teamID string, now time.Time, winner bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(teamID)
	if id == "" {
		if winner {
			s.state.Pending.WinnerID = ""
		} else {
			s.state.Pending.LoserID = ""
		}
		return nil
	}

	team, err := lookupTeam(s.state.Teams, id)
	if err != nil {
		return err
	}

	other := s.state.Pending.LoserID
	if !winner {
		other = s.state.Pending.WinnerID
	}
	if other == id {
		return &padel.ValidationError{Kind: padel.SameTeamConflict, TeamID: id, TeamName: team.Name}
	}
	if err := checkCooldown(s.state.Cooldown, team, now); err != nil {
		return err
	}

	if winner {
		s.state.Pending.WinnerID = id
	} else {
		s.state.Pending.LoserID = id
	}
	return nil
}

func (s *TournamentService) SelectCourt(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	court := strings.TrimSpace(name)
	if court != "" {
		if err := checkCourt(s.rules.Courts, court); err != nil {
			return err
		}
	}
	s.state.Pending.Court = court
	return nil
}

func (s *TournamentService) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Pending = padel.Selection{}
}

func (s *TournamentService) Pending() padel.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Pending
}

// SubmitMatch records the staged selection and clears it on success
func (s *TournamentService) SubmitMatch(ctx context.Context, now time.Time) (padel.MatchOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.record(ctx, s.state.Pending, now, true)
}

// RecordMatch records req directly, without touching the staged selection
func (s *TournamentService) RecordMatch(ctx context.Context, req padel.Selection, now time.Time) (padel.MatchOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req.WinnerID = strings.TrimSpace(req.WinnerID)
	req.LoserID = strings.TrimSpace(req.LoserID)
	req.Court = strings.TrimSpace(req.Court)
	return s.record(ctx, req, now, false)
}

func (s *TournamentService) record(ctx context.Context, req padel.Selection, now time.Time, clearPending bool) (padel.MatchOutcome, error) {
	next := s.state.Clone()

	outcome, err := RecordMatch(next, req, s.rules, now)
	if err != nil {
		var verr *padel.ValidationError
		if errors.As(err, &verr) {
			s.metrics.MatchRejected(string(verr.Kind))
			slog.Info("match rejected", "reason", verr.Kind, "winner", req.WinnerID, "loser", req.LoserID, "court", req.Court)
		}
		return padel.MatchOutcome{}, err
	}

	if err := s.persist(ctx, next); err != nil {
		return padel.MatchOutcome{}, err
	}

	if clearPending {
		next.Pending = padel.Selection{}
	}
	s.state = next

	s.metrics.MatchRecorded(outcome.Match.Court)
	s.metrics.SetRating(outcome.Winner.ID, outcome.Winner.Name, outcome.WinnerNewRating)
	s.metrics.SetRating(outcome.Loser.ID, outcome.Loser.Name, outcome.LoserNewRating)
	slog.Info("match recorded",
		"winner", outcome.Winner.Name,
		"loser", outcome.Loser.Name,
		"court", outcome.Match.Court,
		"delta", outcome.RatingDelta,
	)
	return outcome, nil
}

// Teams and cooldown log live under separate keys; if the second write fails the first is put back
func (s *TournamentService) persist(ctx context.Context, next *State) error {
	previous, existed, err := s.store.Snapshot(ctx, store.TeamsKey)
	if err != nil {
		return fmt.Errorf("failed to snapshot teams: %w", err)
	}

	if err := s.store.SaveTeams(ctx, next.Teams); err != nil {
		return err
	}
	if err := s.store.SaveCooldown(ctx, next.Cooldown); err != nil {
		if rerr := s.store.Restore(ctx, store.TeamsKey, previous, existed); rerr != nil {
			slog.Error("failed to restore teams after a failed write", "error", rerr)
		}
		return err
	}
	return nil
}

// ResetTournament goes back to the default roster and forgets cooldowns, history and the staged selection
func (s *TournamentService) ResetTournament(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to reset tournament: %w", err)
	}

	teams := padel.DefaultRoster()
	s.state = NewState(teams, cooldown.New(s.window))

	s.metrics.Reset()
	s.publishRatings(teams)
	slog.Info("tournament reset", "teams", len(teams))
	return nil
}

func (s *TournamentService) Ranking() padel.Ranking {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Rank(s.state.Teams)
}

func (s *TournamentService) History() []padel.Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.state.History)
}

// Teams lists the teams in roster order along with whether each team can be picked at now
func (s *TournamentService) Teams(now time.Time) []TeamStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]TeamStatus, len(s.state.Teams))
	for i, t := range s.state.Teams {
		remaining := s.state.Cooldown.Remaining(t.ID, now)
		statuses[i] = TeamStatus{Team: t, Eligible: remaining == 0, Remaining: remaining}
	}
	return statuses
}

func (s *TournamentService) Team(id string) (padel.Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return padel.FindTeam(s.state.Teams, id)
}

func (s *TournamentService) Courts() []string {
	return slices.Clone(s.rules.Courts)
}

func (s *TournamentService) publishRatings(teams []padel.Team) {
	for _, t := range teams {
		s.metrics.SetRating(t.ID, t.Name, t.Rating)
	}
}
