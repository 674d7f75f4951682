// Package metrics exposes the application's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerOperations counts ledger debit/credit attempts by outcome.
	LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankapp_ledger_operations_total",
		Help: "Ledger debit/credit attempts by operation and receipt outcome.",
	}, []string{"operation", "outcome"})

	// Movements counts movements reaching a terminal status.
	Movements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankapp_movements_total",
		Help: "Movements by kind and terminal status.",
	}, []string{"kind", "status"})

	// Compensations counts debits reversed after a failed record write.
	Compensations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankapp_compensations_total",
		Help: "Ledger operations reversed because the movement record could not be persisted.",
	})

	// LedgerCallRetries counts coordinator retries against the ledger.
	LedgerCallRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankapp_ledger_call_retries_total",
		Help: "Ledger calls retried after an indefinite outcome.",
	})
)
