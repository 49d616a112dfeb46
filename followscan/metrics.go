package followscan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("followguard")

var followersEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "followguard_followers_evaluated_total",
	Help: "Number of followers handled by the evaluator, by outcome",
}, []string{"outcome"})

var listActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "followguard_list_actions_total",
	Help: "Number of list item creation attempts, by result",
}, []string{"result"})

var ledgerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "followguard_ledger_errors_total",
	Help: "Number of failed ledger operations",
}, []string{"op"})

var scansCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "followguard_scans_total",
	Help: "Number of follower scans run, by kind and status",
}, []string{"kind", "status"})

var scanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "followguard_scan_duration_seconds",
	Help:    "Duration of follower scans",
	Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
}, []string{"kind"})

var scansSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "followguard_scans_skipped_total",
	Help: "Number of scheduled scans skipped because another scan was in progress",
})
