package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label names.
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelQuest  = "quest"
	LabelIntent = "intent"
	LabelReason = "reason"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sts_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sts_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{LabelMethod, LabelPath},
	)
)

// Loop Metrics
var (
	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sts_tick_duration_seconds",
			Help:    "Wall time spent in one simulation frame.",
			Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .0166, .05},
		},
	)

	FramesPerSecond = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sts_frames_per_second",
			Help: "Frames rendered during the last full second.",
		},
	)

	GamePaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sts_game_paused",
			Help: "1 while the simulation is paused.",
		},
	)
)

// Progression Metrics
var (
	QuestsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sts_quests_started_total",
			Help: "Quests started by id.",
		},
		[]string{LabelQuest},
	)

	QuestsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sts_quests_completed_total",
			Help: "Quests completed by id.",
		},
		[]string{LabelQuest},
	)

	LevelUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sts_level_ups_total",
			Help: "Character levels gained.",
		},
	)

	IntentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sts_intents_rejected_total",
			Help: "Player intents refused, by intent and reason.",
		},
		[]string{LabelIntent, LabelReason},
	)

	Saves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sts_saves_total",
			Help: "Save attempts by outcome.",
		},
		[]string{LabelStatus},
	)
)
