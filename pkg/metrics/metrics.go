package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 排位与计分相关指标
type Metrics struct {
	Registry *prometheus.Registry

	SolveDuration   *prometheus.HistogramVec
	SolveOutcomes   *prometheus.CounterVec
	DraftVersions   prometheus.Counter
	Releases        *prometheus.CounterVec
	BallotsAccepted prometheus.Counter
	BallotsRejected prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New 在独立注册表上创建全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		SolveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spar",
			Name:      "draw_solve_duration_seconds",
			Help:      "Time spent solving a draw.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"outcome"}),
		SolveOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spar",
			Name:      "draw_solve_total",
			Help:      "Draw solves by outcome.",
		}, []string{"outcome"}),
		DraftVersions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "spar",
			Name:      "draft_versions_total",
			Help:      "Draft versions committed.",
		}),
		Releases: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spar",
			Name:      "draw_releases_total",
			Help:      "Release attempts by outcome.",
		}, []string{"outcome"}),
		BallotsAccepted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "spar",
			Name:      "ballots_accepted_total",
			Help:      "Ballots appended to the log.",
		}),
		BallotsRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: "spar",
			Name:      "ballots_rejected_total",
			Help:      "Ballots rejected as malformed.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spar",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spar",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveSolve 记录一次求解
func (m *Metrics) ObserveSolve(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SolveDuration.WithLabelValues(outcome).Observe(d.Seconds())
	m.SolveOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveRelease 记录一次发布尝试
func (m *Metrics) ObserveRelease(outcome string) {
	if m == nil {
		return
	}
	m.Releases.WithLabelValues(outcome).Inc()
}

// DraftCommitted 记录一次草稿提交
func (m *Metrics) DraftCommitted() {
	if m == nil {
		return
	}
	m.DraftVersions.Inc()
}

// BallotAccepted 记录一张有效选票
func (m *Metrics) BallotAccepted() {
	if m == nil {
		return
	}
	m.BallotsAccepted.Inc()
}

// BallotRejected 记录一张被拒选票
func (m *Metrics) BallotRejected() {
	if m == nil {
		return
	}
	m.BallotsRejected.Inc()
}
