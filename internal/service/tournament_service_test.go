package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/AdamBeresnev/padel-elo/internal/cooldown"
	"github.com/AdamBeresnev/padel-elo/internal/db"
	"github.com/AdamBeresnev/padel-elo/internal/metrics"
	"github.com/AdamBeresnev/padel-elo/internal/padel"
	"github.com/AdamBeresnev/padel-elo/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database.DB), "Failed to apply migrations")
	return database
}

// failingStore wraps a KeyValueStore and fails writes and removals of one key
type failingStore struct {
	store.KeyValueStore
	failKey string
}

var errWriteFailed = errors.New("disk full")

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if key == s.failKey {
		return errWriteFailed
	}
	return s.KeyValueStore.Set(ctx, key, value)
}

func (s *failingStore) Remove(ctx context.Context, key string) error {
	if key == s.failKey {
		return errWriteFailed
	}
	return s.KeyValueStore.Remove(ctx, key)
}

func newTestService(t *testing.T, kv store.KeyValueStore) *TournamentService {
	t.Helper()

	svc := NewTournamentService(store.NewStateStore(kv), testRules(), cooldown.DefaultWindow, metrics.New())
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func TestTournamentService_LoadDefaults(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore())

	ranking := svc.Ranking()
	assert.Equal(t, 5, ranking.Total)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, rankedIDs(ranking))
	assert.Empty(t, svc.History())
	assert.True(t, svc.Pending().IsEmpty())
	assert.Equal(t, testCourts, svc.Courts())
}

func TestTournamentService_LoadFromStore(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()

	teams := padel.DefaultRoster()
	teams[4].Rating = 1100
	data, err := json.Marshal(teams)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, store.TeamsKey, data))

	lastPlayed := time.Now().Add(-time.Minute)
	log, err := json.Marshal(map[string]int64{"5": lastPlayed.UnixMilli()})
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, store.CooldownLogKey, log))

	svc := newTestService(t, kv)

	ranking := svc.Ranking()
	assert.Equal(t, "5", ranking.Teams[0].Team.ID)
	assert.Equal(t, 1100, ranking.Teams[0].Team.Rating)

	err = svc.SelectWinner("5", time.Now())
	assert.ErrorIs(t, err, padel.ErrCooldownActive)
}

func TestTournamentService_LoadMalformedFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, store.TeamsKey, []byte(`[{"id": 7}]`)))
	require.NoError(t, kv.Set(ctx, store.CooldownLogKey, []byte(`garbage`)))

	svc := newTestService(t, kv)

	assert.Equal(t, padel.DefaultRoster(), teamsOf(svc.Ranking()))
	for _, status := range svc.Teams(testNow) {
		assert.True(t, status.Eligible)
	}
}

func teamsOf(ranking padel.Ranking) []padel.Team {
	teams := make([]padel.Team, len(ranking.Teams))
	for i, rt := range ranking.Teams {
		teams[i] = rt.Team
	}
	return teams
}

func TestTournamentService_Selection(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore())

	require.NoError(t, svc.SelectWinner("1", testNow))
	require.NoError(t, svc.SelectLoser("2", testNow))
	require.NoError(t, svc.SelectCourt(" Pista 2 "))
	assert.Equal(t, padel.Selection{WinnerID: "1", LoserID: "2", Court: "Pista 2"}, svc.Pending())

	// A team staged on one side can't be staged on the other
	assert.ErrorIs(t, svc.SelectLoser("1", testNow), padel.ErrSameTeamConflict)
	assert.ErrorIs(t, svc.SelectWinner("2", testNow), padel.ErrSameTeamConflict)
	assert.ErrorIs(t, svc.SelectWinner("42", testNow), padel.ErrUnknownTeam)
	assert.ErrorIs(t, svc.SelectCourt("Pista 7"), padel.ErrUnknownCourt)
	assert.Equal(t, padel.Selection{WinnerID: "1", LoserID: "2", Court: "Pista 2"}, svc.Pending())

	// Blank clears a slot, which frees the team for the other side
	require.NoError(t, svc.SelectWinner("  ", testNow))
	require.NoError(t, svc.SelectLoser("1", testNow))
	assert.Equal(t, padel.Selection{LoserID: "1", Court: "Pista 2"}, svc.Pending())

	// Ids are trimmed the same way as courts
	require.NoError(t, svc.SelectWinner(" 3 ", testNow))
	assert.Equal(t, "3", svc.Pending().WinnerID)

	svc.ClearSelection()
	assert.True(t, svc.Pending().IsEmpty())
}

func TestTournamentService_SubmitMatch(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	svc := newTestService(t, kv)

	_, err := svc.SubmitMatch(ctx, testNow)
	assert.ErrorIs(t, err, padel.ErrIncompleteSelection)

	require.NoError(t, svc.SelectWinner("1", testNow))
	require.NoError(t, svc.SelectLoser("2", testNow))
	require.NoError(t, svc.SelectCourt("Pista 1"))

	outcome, err := svc.SubmitMatch(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 16, outcome.RatingDelta)
	assert.Equal(t, "Ruben & Aran", outcome.Winner.Name)
	assert.Equal(t, "Pista 1", outcome.Match.Court)
	assert.True(t, svc.Pending().IsEmpty(), "selection is cleared after a successful submit")

	history := svc.History()
	require.Len(t, history, 1)
	assert.Equal(t, outcome.Match, history[0])

	// Persisted synchronously
	states := store.NewStateStore(kv)
	teams, ok, err := states.LoadTeams(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1016, teams[0].Rating)
	assert.Equal(t, 984, teams[1].Rating)

	tracker, err := states.LoadCooldown(ctx, cooldown.DefaultWindow)
	require.NoError(t, err)
	assert.False(t, tracker.IsEligible("1", testNow.Add(time.Minute)))
	assert.False(t, tracker.IsEligible("2", testNow.Add(time.Minute)))

	// Both teams are now locked out of selection
	assert.ErrorIs(t, svc.SelectWinner("1", testNow.Add(time.Minute)), padel.ErrCooldownActive)
	assert.NoError(t, svc.SelectWinner("1", testNow.Add(15*time.Minute+time.Millisecond)))
}

func TestTournamentService_RejectedSubmitChangesNothing(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	svc := newTestService(t, kv)

	_, err := svc.RecordMatch(ctx, padel.Selection{WinnerID: "1", LoserID: "2", Court: "Pista 1"}, testNow)
	require.NoError(t, err)

	teamsBefore, err := kv.Get(ctx, store.TeamsKey)
	require.NoError(t, err)
	logBefore, err := kv.Get(ctx, store.CooldownLogKey)
	require.NoError(t, err)
	historyBefore := svc.History()
	rankingBefore := svc.Ranking()

	_, err = svc.RecordMatch(ctx, padel.Selection{WinnerID: "3", LoserID: "3", Court: "Pista 1"}, testNow.Add(time.Minute))
	assert.ErrorIs(t, err, padel.ErrSameTeamConflict)
	_, err = svc.RecordMatch(ctx, padel.Selection{WinnerID: "3", LoserID: "1", Court: "Pista 1"}, testNow.Add(time.Minute))
	assert.ErrorIs(t, err, padel.ErrCooldownActive)

	teamsAfter, err := kv.Get(ctx, store.TeamsKey)
	require.NoError(t, err)
	logAfter, err := kv.Get(ctx, store.CooldownLogKey)
	require.NoError(t, err)

	assert.Equal(t, teamsBefore, teamsAfter)
	assert.Equal(t, logBefore, logAfter)
	assert.Equal(t, historyBefore, svc.History())
	assert.Equal(t, rankingBefore, svc.Ranking())
}

func TestTournamentService_PersistFailureIsAtomic(t *testing.T) {
	ctx := context.Background()
	inner := store.NewMemoryStore()
	kv := &failingStore{KeyValueStore: inner, failKey: store.CooldownLogKey}
	svc := newTestService(t, kv)

	_, err := svc.RecordMatch(ctx, padel.Selection{WinnerID: "1", LoserID: "2", Court: "Pista 1"}, testNow)
	assert.ErrorIs(t, err, errWriteFailed)

	// The teams write that went through was rolled back
	_, err = inner.Get(ctx, store.TeamsKey)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Empty(t, svc.History())
	assert.Equal(t, padel.DefaultRoster(), teamsOf(svc.Ranking()))
	assert.NoError(t, svc.SelectWinner("1", testNow), "cooldown was not applied")
}

func TestTournamentService_Reset(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	svc := newTestService(t, kv)

	_, err := svc.RecordMatch(ctx, padel.Selection{WinnerID: "1", LoserID: "2", Court: "Pista 1"}, testNow)
	require.NoError(t, err)
	require.NoError(t, svc.SelectCourt("Pista 3"))

	require.NoError(t, svc.ResetTournament(ctx))

	assert.Equal(t, padel.DefaultRoster(), teamsOf(svc.Ranking()))
	assert.Empty(t, svc.History())
	assert.True(t, svc.Pending().IsEmpty())
	assert.NoError(t, svc.SelectWinner("1", testNow))

	_, err = kv.Get(ctx, store.TeamsKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = kv.Get(ctx, store.CooldownLogKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTournamentService_ResetFailureKeepsRatings(t *testing.T) {
	ctx := context.Background()
	inner := store.NewMemoryStore()
	svc := newTestService(t, inner)

	_, err := svc.RecordMatch(ctx, padel.Selection{WinnerID: "1", LoserID: "2", Court: "Pista 1"}, testNow)
	require.NoError(t, err)
	rankingBefore := svc.Ranking()
	savedTeams, err := inner.Get(ctx, store.TeamsKey)
	require.NoError(t, err)

	failing := &failingStore{KeyValueStore: inner, failKey: store.CooldownLogKey}
	svc.store = store.NewStateStore(failing)

	err = svc.ResetTournament(ctx)
	assert.ErrorIs(t, err, errWriteFailed)

	// Neither the stored teams nor the in-memory ranking were lost
	stored, err := inner.Get(ctx, store.TeamsKey)
	require.NoError(t, err)
	assert.Equal(t, savedTeams, stored)
	assert.Equal(t, rankingBefore, svc.Ranking())
	assert.Len(t, svc.History(), 1)
}

func TestTournamentService_Teams(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemoryStore())

	_, err := svc.RecordMatch(ctx, padel.Selection{WinnerID: "2", LoserID: "4", Court: "Pista 1"}, testNow)
	require.NoError(t, err)

	statuses := svc.Teams(testNow.Add(5 * time.Minute))
	require.Len(t, statuses, 5)
	for _, status := range statuses {
		switch status.Team.ID {
		case "2", "4":
			assert.False(t, status.Eligible)
			assert.Equal(t, 10*time.Minute, status.Remaining)
		default:
			assert.True(t, status.Eligible)
			assert.Zero(t, status.Remaining)
		}
	}

	team, ok := svc.Team("2")
	require.True(t, ok)
	assert.Equal(t, 1016, team.Rating)
	_, ok = svc.Team("nope")
	assert.False(t, ok)
}

func TestTournamentService_SQLiteRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	ctx := context.Background()
	svc := newTestService(t, store.NewSQLiteStore(database))

	_, err := svc.RecordMatch(ctx, padel.Selection{WinnerID: "5", LoserID: "3", Court: "Pista 2"}, testNow)
	require.NoError(t, err)

	// A fresh service over the same database picks up where the first left off
	restarted := newTestService(t, store.NewSQLiteStore(database))

	ranking := restarted.Ranking()
	assert.Equal(t, "5", ranking.Teams[0].Team.ID)
	assert.Equal(t, 1016, ranking.Teams[0].Team.Rating)
	assert.Equal(t, "3", ranking.Teams[4].Team.ID)
	assert.Empty(t, restarted.History(), "match history only lives for the session")
	assert.ErrorIs(t, restarted.SelectLoser("3", testNow.Add(time.Minute)), padel.ErrCooldownActive)
}
