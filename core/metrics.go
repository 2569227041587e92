package core

// metrics.go – Prometheus instrumentation for block and gas accounting,
// via prometheus/client_golang.

import "github.com/prometheus/client_golang/prometheus"

var (
	blocksCommitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainforge",
		Name:      "blocks_committed_total",
		Help:      "Blocks successfully appended, by chain.",
	}, []string{"chain"})

	blocksRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainforge",
		Name:      "blocks_rejected_total",
		Help:      "Blocks rejected during AddBlock, by chain.",
	}, []string{"chain"})

	gasUsed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainforge",
		Name:      "gas_used_total",
		Help:      "Gas consumed by executed transactions, faulted ones included, by chain.",
	}, []string{"chain"})

	faults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainforge",
		Name:      "runtime_faults_total",
		Help:      "Transaction faults, by chain.",
	}, []string{"chain"})
)

func init() {
	prometheus.MustRegister(blocksCommitted, blocksRejected, gasUsed, faults)
}

// recordBlockCommitted and recordBlockRejected are called from
// Chain.AddBlock; recordTxOutcome is called once a transaction's Runtime
// has run to completion.
func recordBlockCommitted(chain string) { blocksCommitted.WithLabelValues(chain).Inc() }
func recordBlockRejected(chain string)  { blocksRejected.WithLabelValues(chain).Inc() }

func recordTxOutcome(chain string, rt *Runtime) {
	gasUsed.WithLabelValues(chain).Add(float64(rt.GasUsed))
	if rt.State == Fault {
		faults.WithLabelValues(chain).Inc()
	}
}
