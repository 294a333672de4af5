package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/AdamBeresnev/padel-elo/internal/cooldown"
	"github.com/AdamBeresnev/padel-elo/internal/httputil"
	"github.com/AdamBeresnev/padel-elo/internal/metrics"
	"github.com/AdamBeresnev/padel-elo/internal/padel"
	"github.com/AdamBeresnev/padel-elo/internal/service"
	"github.com/AdamBeresnev/padel-elo/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

type testApp struct {
	handler http.Handler
	clock   *testClock
	cookies []*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	m := metrics.New()
	rules := service.Rules{KFactor: 32, Courts: []string{"Pista 1", "Pista 2", "Pista 3"}}
	tournament := service.NewTournamentService(store.NewStateStore(store.NewMemoryStore()), rules, cooldown.DefaultWindow, m)
	require.NoError(t, tournament.Load(context.Background()))

	clock := &testClock{now: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)}
	return &testApp{
		handler: newRouter(scs.New(), tournament, m, clock.Now),
		clock:   clock,
	}
}

func (a *testApp) do(t *testing.T, method, target, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		a.cookies = cookies
	}
	return rec
}

func (a *testApp) json(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	return a.do(t, method, target, body, "application/json")
}

func TestAPI_RecordMatchAndRanking(t *testing.T) {
	app := newTestApp(t)

	rec := app.json(t, http.MethodPost, "/api/matches", `{"winner_id": "1", "loser_id": "2", "court": "Pista 1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var outcome padel.MatchOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, 16, outcome.RatingDelta)
	assert.Equal(t, 1016, outcome.WinnerNewRating)
	assert.Equal(t, 984, outcome.LoserNewRating)

	rec = app.json(t, http.MethodGet, "/api/ranking", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var ranking padel.Ranking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranking))
	assert.Equal(t, 5, ranking.Total)
	assert.Equal(t, "1", ranking.Teams[0].Team.ID)
	assert.Equal(t, 1, ranking.Teams[0].Position)
	assert.Equal(t, "2", ranking.Teams[4].Team.ID)
	assert.Equal(t, 5, ranking.Teams[4].Position)

	rec = app.json(t, http.MethodGet, "/api/matches", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var history []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "Ruben & Aran", history[0]["winner_name"])
	assert.Equal(t, "Marches & Javi", history[0]["loser_name"])
	assert.Equal(t, "Pista 1", history[0]["court"])
}

func TestAPI_ValidationErrors(t *testing.T) {
	app := newTestApp(t)

	rec := app.json(t, http.MethodPost, "/api/matches", `{"winner_id": "1", "loser_id": "2", "court": "Pista 1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	testCases := []struct {
		name     string
		body     string
		expected padel.ErrorKind
	}{
		{name: "Missing court", body: `{"winner_id": "3", "loser_id": "4"}`, expected: padel.IncompleteSelection},
		{name: "Same team", body: `{"winner_id": "3", "loser_id": "3", "court": "Pista 1"}`, expected: padel.SameTeamConflict},
		{name: "Cooldown", body: `{"winner_id": "3", "loser_id": "1", "court": "Pista 1"}`, expected: padel.CooldownActive},
		{name: "Unknown court", body: `{"winner_id": "3", "loser_id": "4", "court": "Centre"}`, expected: padel.UnknownCourt},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.json(t, http.MethodPost, "/api/matches", tc.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			var body httputil.ValidationErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.expected, body.Kind)
			assert.NotEmpty(t, body.Message)
		})
	}

	rec = app.json(t, http.MethodPost, "/api/matches", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_StagedSelection(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, app.json(t, http.MethodPut, "/api/selection/winner", `{"id": "4"}`).Code)
	require.Equal(t, http.StatusOK, app.json(t, http.MethodPut, "/api/selection/loser", `{"id": "5"}`).Code)

	rec := app.json(t, http.MethodPut, "/api/selection/loser", `{"id": "4"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = app.json(t, http.MethodPost, "/api/selection/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "court is still missing")

	rec = app.json(t, http.MethodPut, "/api/selection/court", `{"name": "Pista 3"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var pending padel.Selection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	assert.Equal(t, padel.Selection{WinnerID: "4", LoserID: "5", Court: "Pista 3"}, pending)

	rec = app.json(t, http.MethodPost, "/api/selection/submit", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.json(t, http.MethodGet, "/api/selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	assert.True(t, pending.IsEmpty())

	rec = app.json(t, http.MethodPut, "/api/selection/referee", `{"id": "1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusOK, app.json(t, http.MethodPut, "/api/selection/court", `{"name": "Pista 1"}`).Code)
	rec = app.json(t, http.MethodDelete, "/api/selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	assert.True(t, pending.IsEmpty())
}

func TestAPI_TeamsCooldown(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusCreated, app.json(t, http.MethodPost, "/api/matches", `{"winner_id": "2", "loser_id": "3", "court": "Pista 2"}`).Code)
	app.clock.now = app.clock.now.Add(10 * time.Minute)

	rec := app.json(t, http.MethodGet, "/api/teams", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var teams []struct {
		ID               string `json:"id"`
		Eligible         bool   `json:"eligible"`
		RemainingSeconds int    `json:"remaining_seconds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &teams))
	require.Len(t, teams, 5)
	assert.True(t, teams[0].Eligible)
	assert.False(t, teams[1].Eligible)
	assert.Equal(t, 300, teams[1].RemainingSeconds)
	assert.False(t, teams[2].Eligible)

	app.clock.now = app.clock.now.Add(5*time.Minute + time.Millisecond)
	rec = app.json(t, http.MethodPost, "/api/matches", `{"winner_id": "3", "loser_id": "2", "court": "Pista 2"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAPI_Reset(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusCreated, app.json(t, http.MethodPost, "/api/matches", `{"winner_id": "1", "loser_id": "2", "court": "Pista 1"}`).Code)

	rec := app.json(t, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var ranking padel.Ranking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranking))
	for _, rt := range ranking.Teams {
		assert.Equal(t, padel.DefaultRating, rt.Team.Rating)
	}

	rec = app.json(t, http.MethodGet, "/api/matches", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHTML_FormFlow(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Clasificación ELO")

	form := url.Values{"winner_id": {"1"}, "loser_id": {"2"}, "court": {"Pista 1"}}
	rec = app.do(t, http.MethodPost, "/matches", form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = app.do(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "¡Partido registrado!")
	assert.Contains(t, page, "ELO: +16")
	assert.Contains(t, page, "Partidos Registrados")

	// Same team twice is reported back through the notification
	form = url.Values{"winner_id": {"3"}, "loser_id": {"3"}, "court": {"Pista 1"}}
	rec = app.do(t, http.MethodPost, "/matches", form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = app.do(t, http.MethodGet, "/", "", "")
	assert.Contains(t, rec.Body.String(), "cannot be the same")

	rec = app.do(t, http.MethodPost, "/reset", "", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = app.do(t, http.MethodGet, "/", "", "")
	assert.Contains(t, rec.Body.String(), "Torneo reiniciado")
	assert.NotContains(t, rec.Body.String(), "Partidos Registrados")
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusCreated, app.json(t, http.MethodPost, "/api/matches", `{"winner_id": "1", "loser_id": "2", "court": "Pista 1"}`).Code)
	app.json(t, http.MethodPost, "/api/matches", `{"winner_id": "1", "loser_id": "1", "court": "Pista 1"}`)

	rec := app.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `padel_matches_recorded_total{court="Pista 1"} 1`)
	assert.Contains(t, body, `padel_matches_rejected_total{reason="same_team_conflict"} 1`)
	assert.Contains(t, body, `padel_team_rating{team="Ruben & Aran",team_id="1"} 1016`)
}
