package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder groups the application's counters. A nil *Recorder discards observations.
type Recorder struct {
	registry *prometheus.Registry

	smsResults      *prometheus.CounterVec
	workflowResults *prometheus.CounterVec
	listingFetches  *prometheus.CounterVec
	ledgerExports   *prometheus.CounterVec
}

// New registers the counters on a dedicated registry together with the Go and
// process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: reg,
		smsResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warehouse",
			Name:      "sms_notifications_total",
			Help:      "SMS notifications by result.",
		}, []string{"result"}),
		workflowResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warehouse",
			Name:      "outflow_workflows_total",
			Help:      "Outflow workflow runs by the state they stopped in.",
		}, []string{"state"}),
		listingFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warehouse",
			Name:      "listing_fetches_total",
			Help:      "Incremental listing page fetches by collection and outcome.",
		}, []string{"collection", "outcome"}),
		ledgerExports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warehouse",
			Name:      "ledger_exports_total",
			Help:      "Ledger exports by target and result.",
		}, []string{"target", "result"}),
	}

	reg.MustRegister(r.smsResults, r.workflowResults, r.listingFetches, r.ledgerExports)
	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// SMS counts one notification attempt.
func (r *Recorder) SMS(result string) {
	if r == nil {
		return
	}
	r.smsResults.WithLabelValues(result).Inc()
}

// Workflow counts one workflow run ending in state.
func (r *Recorder) Workflow(state string) {
	if r == nil {
		return
	}
	r.workflowResults.WithLabelValues(state).Inc()
}

// ListingFetch counts one page fetch.
func (r *Recorder) ListingFetch(collection, outcome string) {
	if r == nil {
		return
	}
	r.listingFetches.WithLabelValues(collection, outcome).Inc()
}

// LedgerExport counts one ledger export.
func (r *Recorder) LedgerExport(target, result string) {
	if r == nil {
		return
	}
	r.ledgerExports.WithLabelValues(target, result).Inc()
}
