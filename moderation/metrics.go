package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sanctionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_sanctions_applied",
	Help: "Number of mutes applied, by matched reason keyword",
}, []string{"keyword"})

var sanctionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "modbot_sanction_duration_minutes",
	Help:    "Length of applied mutes",
	Buckets: []float64{5, 15, 30, 45, 60, 120, 240},
})

var sanctionsReversed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_sanctions_reversed",
	Help: "Number of mutes lifted, by trigger",
}, []string{"trigger"})

var moderationActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_actions",
	Help: "Number of ban, kick and purge actions performed",
}, []string{"action"})

var reconstructions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_sanction_reconstructions",
	Help: "Number of mute status lookups, by where the answer came from",
}, []string{"source"})

var gateDenials = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_gate_denials",
	Help: "Number of moderation requests refused by the permission gate",
}, []string{"action"})

var platformErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_platform_errors",
	Help: "Number of failed Discord calls, by operation",
}, []string{"op"})
