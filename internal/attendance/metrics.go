package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rolloverRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollbook_rollover_runs_total",
		Help: "Completed daily rollover runs.",
	})
	rolloverFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollbook_rollover_failures_total",
		Help: "Rollover runs that aborted without committing.",
	})
	rolloverRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollbook_rollover_rows_total",
		Help: "Attendance rows advanced by rollover runs.",
	})
)
