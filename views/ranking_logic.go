package views

import (
	"fmt"
	"math"
	"time"

	"github.com/AdamBeresnev/padel-elo/internal/padel"
	"github.com/AdamBeresnev/padel-elo/internal/service"
)

type RankingRow struct {
	Position    int
	Team        padel.Team
	Badge       string
	RatingClass string
	RowClass    string
}

type TeamOption struct {
	Team     padel.Team
	Eligible bool
	Wait     string
}

type HistoryRow struct {
	Court    string
	Time     string
	Winner   string
	Loser    string
	PlayedAt time.Time
}

type PageData struct {
	Ranking []RankingRow
	Teams   []TeamOption
	Courts  []string
	Pending padel.Selection
	History []HistoryRow
}

func PrepareRankingRows(ranking padel.Ranking) []RankingRow {
	rows := make([]RankingRow, len(ranking.Teams))
	for i, rt := range ranking.Teams {
		rows[i] = RankingRow{
			Position:    rt.Position,
			Team:        rt.Team,
			Badge:       badge(ranking, rt.Position),
			RatingClass: ratingClass(rt.Team.Rating),
			RowClass:    rowClass(ranking, rt.Position),
		}
	}
	return rows
}

func badge(ranking padel.Ranking, position int) string {
	switch position {
	case 1:
		return "🥇 Campeón"
	case 2:
		return "🥈 Subcampeón"
	case 3:
		return "🥉 Tercer lugar"
	}
	if ranking.IsLast(position) {
		return "😤 Inútiles"
	}
	return ""
}

func rowClass(ranking padel.Ranking, position int) string {
	switch position {
	case 1:
		return "rank-gold"
	case 2:
		return "rank-silver"
	case 3:
		return "rank-bronze"
	}
	if ranking.IsLast(position) {
		return "rank-last"
	}
	return "rank"
}

func ratingClass(rating int) string {
	switch {
	case rating >= 1200:
		return "rating-elite"
	case rating >= 1100:
		return "rating-high"
	case rating >= 1000:
		return "rating-mid"
	default:
		return "rating-low"
	}
}

func PrepareTeamOptions(statuses []service.TeamStatus) []TeamOption {
	options := make([]TeamOption, len(statuses))
	for i, s := range statuses {
		options[i] = TeamOption{Team: s.Team, Eligible: s.Eligible}
		if !s.Eligible {
			options[i].Wait = fmt.Sprintf("%d min", int(math.Ceil(s.Remaining.Minutes())))
		}
	}
	return options
}

// PrepareHistoryRows resolves team names for the match log, keeping it newest first
func PrepareHistoryRows(history []padel.Match, teams []padel.Team) []HistoryRow {
	rows := make([]HistoryRow, len(history))
	for i, m := range history {
		rows[i] = HistoryRow{
			Court:    m.Court,
			Time:     m.PlayedAt.Format("15:04:05"),
			Winner:   teamName(teams, m.WinnerID),
			Loser:    teamName(teams, m.LoserID),
			PlayedAt: m.PlayedAt,
		}
	}
	return rows
}

func teamName(teams []padel.Team, id string) string {
	if t, ok := padel.FindTeam(teams, id); ok {
		return t.Name
	}
	return id
}
