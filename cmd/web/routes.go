package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AdamBeresnev/padel-elo/internal/httputil"
	"github.com/AdamBeresnev/padel-elo/internal/metrics"
	"github.com/AdamBeresnev/padel-elo/internal/middleware"
	"github.com/AdamBeresnev/padel-elo/internal/padel"
	"github.com/AdamBeresnev/padel-elo/internal/service"
	"github.com/AdamBeresnev/padel-elo/views"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type teamResponse struct {
	padel.Team
	Eligible         bool `json:"eligible"`
	RemainingSeconds int  `json:"remaining_seconds"`
}

type matchResponse struct {
	padel.Match
	WinnerName string `json:"winner_name"`
	LoserName  string `json:"loser_name"`
}

type selectionRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type matchRequest struct {
	WinnerID string `json:"winner_id"`
	LoserID  string `json:"loser_id"`
	Court    string `json:"court"`
}

func newRouter(sessionManager *scs.SessionManager, tournament *service.TournamentService, m *metrics.Metrics, now func() time.Time) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// HTML page, notifications travel through the session across the redirect
	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.LoadNotification(sessionManager))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			ranking := tournament.Ranking()
			statuses := tournament.Teams(now())
			teams := make([]padel.Team, len(statuses))
			for i, s := range statuses {
				teams[i] = s.Team
			}

			data := views.PageData{
				Ranking: views.PrepareRankingRows(ranking),
				Teams:   views.PrepareTeamOptions(statuses),
				Courts:  tournament.Courts(),
				Pending: tournament.Pending(),
				History: views.PrepareHistoryRows(tournament.History(), teams),
			}
			if err := views.Render(w, r, views.Index(data)); err != nil {
				httputil.InternalServerError(w, "Failed to render page", err)
			}
		})

		r.Post("/matches", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			req := padel.Selection{
				WinnerID: r.Form.Get("winner_id"),
				LoserID:  r.Form.Get("loser_id"),
				Court:    r.Form.Get("court"),
			}

			outcome, err := tournament.RecordMatch(r.Context(), req, now())
			if err != nil {
				var verr *padel.ValidationError
				if !errors.As(err, &verr) {
					httputil.InternalServerError(w, "Failed to record match", err)
					return
				}
				middleware.Notify(r.Context(), sessionManager, middleware.Notification{
					Level:   middleware.NotificationError,
					Title:   "Error",
					Message: verr.Error(),
				})
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			middleware.Notify(r.Context(), sessionManager, middleware.Notification{
				Level:   middleware.NotificationSuccess,
				Title:   "¡Partido registrado!",
				Message: outcomeMessage(outcome),
			})
			http.Redirect(w, r, "/", http.StatusSeeOther)
		})

		r.Post("/reset", func(w http.ResponseWriter, r *http.Request) {
			if err := tournament.ResetTournament(r.Context()); err != nil {
				httputil.InternalServerError(w, "Failed to reset tournament", err)
				return
			}
			middleware.Notify(r.Context(), sessionManager, middleware.Notification{
				Level:   middleware.NotificationSuccess,
				Title:   "Torneo reiniciado",
				Message: "Todas las parejas vuelven a 1000 ELO",
			})
			http.Redirect(w, r, "/", http.StatusSeeOther)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/ranking", func(w http.ResponseWriter, r *http.Request) {
			httputil.JSON(w, http.StatusOK, tournament.Ranking())
		})

		r.Get("/teams", func(w http.ResponseWriter, r *http.Request) {
			statuses := tournament.Teams(now())
			resp := make([]teamResponse, len(statuses))
			for i, s := range statuses {
				resp[i] = teamResponse{Team: s.Team, Eligible: s.Eligible, RemainingSeconds: int(s.Remaining.Seconds())}
			}
			httputil.JSON(w, http.StatusOK, resp)
		})

		r.Get("/matches", func(w http.ResponseWriter, r *http.Request) {
			history := tournament.History()
			resp := make([]matchResponse, len(history))
			for i, match := range history {
				resp[i] = matchResponse{Match: match}
				if t, ok := tournament.Team(match.WinnerID); ok {
					resp[i].WinnerName = t.Name
				}
				if t, ok := tournament.Team(match.LoserID); ok {
					resp[i].LoserName = t.Name
				}
			}
			httputil.JSON(w, http.StatusOK, resp)
		})

		r.Post("/matches", func(w http.ResponseWriter, r *http.Request) {
			var body matchRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid JSON body", err)
				return
			}
			outcome, err := tournament.RecordMatch(r.Context(), padel.Selection(body), now())
			if err != nil {
				httputil.MatchError(w, "Failed to record match", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, outcome)
		})

		r.Route("/selection", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				httputil.JSON(w, http.StatusOK, tournament.Pending())
			})

			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				tournament.ClearSelection()
				httputil.JSON(w, http.StatusOK, tournament.Pending())
			})

			r.Put("/{slot}", func(w http.ResponseWriter, r *http.Request) {
				var body selectionRequest
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					httputil.BadRequest(w, "Invalid JSON body", err)
					return
				}

				var err error
				switch slot := chi.URLParam(r, "slot"); slot {
				case "winner":
					err = tournament.SelectWinner(body.ID, now())
				case "loser":
					err = tournament.SelectLoser(body.ID, now())
				case "court":
					err = tournament.SelectCourt(body.Name)
				default:
					httputil.NotFound(w, fmt.Sprintf("Unknown selection slot %q", slot), nil)
					return
				}
				if err != nil {
					httputil.MatchError(w, "Failed to update selection", err)
					return
				}
				httputil.JSON(w, http.StatusOK, tournament.Pending())
			})

			r.Post("/submit", func(w http.ResponseWriter, r *http.Request) {
				outcome, err := tournament.SubmitMatch(r.Context(), now())
				if err != nil {
					httputil.MatchError(w, "Failed to submit match", err)
					return
				}
				httputil.JSON(w, http.StatusCreated, outcome)
			})
		})

		r.Post("/reset", func(w http.ResponseWriter, r *http.Request) {
			if err := tournament.ResetTournament(r.Context()); err != nil {
				httputil.InternalServerError(w, "Failed to reset tournament", err)
				return
			}
			httputil.JSON(w, http.StatusOK, tournament.Ranking())
		})
	})

	return r
}

func outcomeMessage(outcome padel.MatchOutcome) string {
	sign := ""
	if outcome.RatingDelta > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s venció a %s en %s. ELO: %s%d",
		outcome.Winner.Name, outcome.Loser.Name, outcome.Match.Court, sign, outcome.RatingDelta)
}
