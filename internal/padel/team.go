package padel

import "strings"

const DefaultRating = 1000

type Team struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Players [2]string `json:"players"`
	Rating  int       `json:"rating"`
}

// PlayersLabel joins both player names the way the ranking shows them
func (t Team) PlayersLabel() string {
	return strings.Join(t.Players[:], " & ")
}

// DefaultRoster returns a fresh copy of the starting roster, every team at DefaultRating
func DefaultRoster() []Team {
	return []Team{
		{ID: "1", Name: "Ruben & Aran", Players: [2]string{"Ruben", "Aran"}, Rating: DefaultRating},
		{ID: "2", Name: "Marches & Javi", Players: [2]string{"Marches", "Javi"}, Rating: DefaultRating},
		{ID: "3", Name: "Arturo & Pablo", Players: [2]string{"Arturo", "Pablo"}, Rating: DefaultRating},
		{ID: "4", Name: "Ruben & Nelson", Players: [2]string{"Ruben", "Nelson"}, Rating: DefaultRating},
		{ID: "5", Name: "Marcos & Perma", Players: [2]string{"Marcos", "Perma"}, Rating: DefaultRating},
	}
}

func FindTeam(teams []Team, id string) (Team, bool) {
	for _, t := range teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}
