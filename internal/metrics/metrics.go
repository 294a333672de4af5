package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the tournament collectors. Each instance owns its registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	matchesRecorded *prometheus.CounterVec
	matchesRejected *prometheus.CounterVec
	teamRating      *prometheus.GaugeVec
	resets          prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		matchesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "padel",
			Name:      "matches_recorded_total",
			Help:      "Matches recorded, by court.",
		}, []string{"court"}),
		matchesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "padel",
			Name:      "matches_rejected_total",
			Help:      "Match submissions rejected by validation, by reason.",
		}, []string{"reason"}),
		teamRating: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "padel",
			Name:      "team_rating",
			Help:      "Current Elo rating per team.",
		}, []string{"team_id", "team"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "padel",
			Name:      "tournament_resets_total",
			Help:      "Times the tournament was reset to the default roster.",
		}),
	}

	m.Registry.MustRegister(m.matchesRecorded, m.matchesRejected, m.teamRating, m.resets)
	return m
}

func (m *Metrics) MatchRecorded(court string) {
	m.matchesRecorded.WithLabelValues(court).Inc()
}

func (m *Metrics) MatchRejected(reason string) {
	m.matchesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetRating(teamID, name string, rating int) {
	m.teamRating.WithLabelValues(teamID, name).Set(float64(rating))
}

func (m *Metrics) Reset() {
	m.resets.Inc()
	m.teamRating.Reset()
}
