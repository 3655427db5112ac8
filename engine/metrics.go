package engine

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the scheduler's run-lifecycle counters, grouped per Runner so
// tests can construct an isolated registry instead of colliding on the
// global default one.
type Metrics struct {
	RunsStarted   prometheus.Counter
	RunsSucceeded prometheus.Counter
	RunsFailed    prometheus.Counter
}

// NewMetrics creates a Metrics set registered against the default
// Prometheus registry, reusing the existing collector if called more than
// once (e.g. across tests constructing multiple Runners in one process).
func NewMetrics() *Metrics {
	return &Metrics{
		RunsStarted: registerCounter(prometheus.CounterOpts{
			Name: "overseer_engine_runs_started_total",
			Help: "Number of runs the engine has started executing.",
		}),
		RunsSucceeded: registerCounter(prometheus.CounterOpts{
			Name: "overseer_engine_runs_succeeded_total",
			Help: "Number of runs that completed with status succeeded.",
		}),
		RunsFailed: registerCounter(prometheus.CounterOpts{
			Name: "overseer_engine_runs_failed_total",
			Help: "Number of runs that completed with status failed.",
		}),
	}
}

func registerCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}
