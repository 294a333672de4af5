package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/padel-elo/internal/cooldown"
	"github.com/AdamBeresnev/padel-elo/internal/padel"
	"github.com/go-playground/validator/v10"
)

const (
	TeamsKey       = "teams"
	CooldownLogKey = "team-cooldown-log"
)

// storedTeam mirrors padel.Team with a slice of players, since decoding into
// a fixed size array silently drops extra names.
type storedTeam struct {
	ID      string   `json:"id" validate:"required"`
	Name    string   `json:"name" validate:"required"`
	Players []string `json:"players" validate:"len=2,dive,required"`
	Rating  int      `json:"rating"`
}

func (st storedTeam) team() padel.Team {
	return padel.Team{
		ID:      st.ID,
		Name:    st.Name,
		Players: [2]string{st.Players[0], st.Players[1]},
		Rating:  st.Rating,
	}
}

// StateStore reads and writes the tournament state on top of a KeyValueStore.
// Anything missing or unreadable comes back as ok == false so the caller falls back to defaults.
type StateStore struct {
	kv       KeyValueStore
	validate *validator.Validate
}

func NewStateStore(kv KeyValueStore) *StateStore {
	return &StateStore{kv: kv, validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (s *StateStore) LoadTeams(ctx context.Context) ([]padel.Team, bool, error) {
	data, err := s.kv.Get(ctx, TeamsKey)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read teams: %w", err)
	}

	var stored []storedTeam
	if err := json.Unmarshal(data, &stored); err != nil {
		slog.Warn("stored teams are malformed, using default roster", "error", err)
		return nil, false, nil
	}
	if err := s.checkRoster(stored); err != nil {
		slog.Warn("stored teams are invalid, using default roster", "error", err)
		return nil, false, nil
	}

	teams := make([]padel.Team, len(stored))
	for i, st := range stored {
		teams[i] = st.team()
	}
	return teams, true, nil
}

func (s *StateStore) SaveTeams(ctx context.Context, teams []padel.Team) error {
	data, err := json.Marshal(teams)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, TeamsKey, data); err != nil {
		return fmt.Errorf("failed to save teams: %w", err)
	}
	return nil
}

func (s *StateStore) LoadCooldown(ctx context.Context, window time.Duration) (*cooldown.Tracker, error) {
	tracker := cooldown.New(window)

	data, err := s.kv.Get(ctx, CooldownLogKey)
	if errors.Is(err, ErrNotFound) {
		return tracker, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cooldown log: %w", err)
	}

	if err := json.Unmarshal(data, tracker); err != nil {
		slog.Warn("stored cooldown log is malformed, starting empty", "error", err)
		return cooldown.New(window), nil
	}
	return tracker, nil
}

func (s *StateStore) SaveCooldown(ctx context.Context, tracker *cooldown.Tracker) error {
	data, err := json.Marshal(tracker)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, CooldownLogKey, data); err != nil {
		return fmt.Errorf("failed to save cooldown log: %w", err)
	}
	return nil
}

// Raw access so a failed multi-key write can put the previous value back
func (s *StateStore) Snapshot(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *StateStore) Restore(ctx context.Context, key string, data []byte, ok bool) error {
	if !ok {
		return s.kv.Remove(ctx, key)
	}
	return s.kv.Set(ctx, key, data)
}

// Clear removes both keys. When the cooldown log cannot be removed the teams
// are written back so the store never ends up half cleared.
func (s *StateStore) Clear(ctx context.Context) error {
	teams, hadTeams, err := s.Snapshot(ctx, TeamsKey)
	if err != nil {
		return fmt.Errorf("failed to snapshot teams: %w", err)
	}

	if err := s.kv.Remove(ctx, TeamsKey); err != nil {
		return fmt.Errorf("failed to remove teams: %w", err)
	}
	if err := s.kv.Remove(ctx, CooldownLogKey); err != nil {
		if rerr := s.Restore(ctx, TeamsKey, teams, hadTeams); rerr != nil {
			slog.Error("failed to restore teams after partial clear", "error", rerr)
		}
		return fmt.Errorf("failed to remove cooldown log: %w", err)
	}
	return nil
}

func (s *StateStore) checkRoster(teams []storedTeam) error {
	if len(teams) == 0 {
		return errors.New("empty roster")
	}
	seen := make(map[string]struct{}, len(teams))
	for i := range teams {
		if err := s.validate.Struct(teams[i]); err != nil {
			return fmt.Errorf("team %d: %w", i, err)
		}
		if _, dup := seen[teams[i].ID]; dup {
			return fmt.Errorf("duplicate team id %q", teams[i].ID)
		}
		seen[teams[i].ID] = struct{}{}
	}
	return nil
}
