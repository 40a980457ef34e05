package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commissionRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "network_commission_records_total",
		Help: "Commission records written, by initial status",
	}, []string{"status"})

	walletCredits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "network_wallet_credit_amount_total",
		Help: "Amount credited to wallets, by source",
	}, []string{"source"})

	ledgerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "network_commission_transitions_total",
		Help: "On-hold commissions moved by the periodic sweeps",
	}, []string{"to"})

	batchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "network_batch_account_failures_total",
		Help: "Per-account failures isolated inside batch runs",
	}, []string{"job"})
)
