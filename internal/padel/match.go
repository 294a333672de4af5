package padel

import (
	"time"

	"github.com/google/uuid"
)

type Match struct {
	ID       uuid.UUID `json:"id"`
	WinnerID string    `json:"winner_team_id"`
	LoserID  string    `json:"loser_team_id"`
	Court    string    `json:"court"`
	PlayedAt time.Time `json:"played_at"`
}

// Selection is a match proposal that hasn't been recorded yet. Empty fields mean nothing was picked.
type Selection struct {
	WinnerID string `json:"winner_id"`
	LoserID  string `json:"loser_id"`
	Court    string `json:"court"`
}

func (s Selection) IsEmpty() bool {
	return s.WinnerID == "" && s.LoserID == "" && s.Court == ""
}

type MatchOutcome struct {
	Match           Match `json:"match"`
	Winner          Team  `json:"winner"`
	Loser           Team  `json:"loser"`
	WinnerNewRating int   `json:"winner_new_rating"`
	LoserNewRating  int   `json:"loser_new_rating"`
	// Winner's gain, new minus old rating
	RatingDelta int `json:"rating_delta"`
}

type RankedTeam struct {
	Team     Team `json:"team"`
	Position int  `json:"position"`
}

type Ranking struct {
	Total int          `json:"total"`
	Teams []RankedTeam `json:"teams"`
}

// IsLast reports whether position is the bottom of a roster with more than one team
func (r Ranking) IsLast(position int) bool {
	return r.Total > 1 && position == r.Total
}
