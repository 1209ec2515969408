// Package metrics exposes Prometheus instrumentation for the trading loops.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds all Prometheus collectors for the bot.
type Metrics struct {
	ScansTotal       prometheus.Counter
	SnapshotFailures prometheus.Counter
	SignalsTotal     *prometheus.CounterVec // labels: side
	GovernanceBlocks *prometheus.CounterVec // labels: reason
	OrdersPlaced     prometheus.Counter
	OrdersRejected   prometheus.Counter
	SizingRejections prometheus.Counter
	TrailUpdates     prometheus.Counter
	TrailFailures    prometheus.Counter
	ReconcilePrunes  prometheus.Counter

	KillSwitchEngaged prometheus.Gauge // 0 or 1
	OpenTrades        prometheus.Gauge
	AccountBalance    prometheus.Gauge
	TradesToday       prometheus.Gauge
}

// New registers and returns all collectors on the given registerer.
// main passes prometheus.DefaultRegisterer; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalpbot_scans_total",
			Help: "Completed market scan passes",
		}),
		SnapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalpbot_snapshot_failures_total",
			Help: "Scan cycles where a symbol produced no usable snapshot",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalpbot_signals_total",
			Help: "Actionable signals emitted by the trade filter",
		}, []string{"side"}),
		GovernanceBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalpbot_governance_blocks_total",
			Help: "Candidate trades skipped by a governance gate",
		}, []string{"reason"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalpbot_orders_placed_total",
			Help: "Bracket orders acknowledged by the exchange",
		}),
		OrdersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalpbot_orders_rejected_total",
			Help: "Bracket orders refused or timed out",
		}),
		SizingRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalpbot_sizing_rejections_total",
			Help: "Candidate trades abandoned for sub-minimum notional",
		}),
		TrailUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalpbot_trail_updates_total",
			Help: "Stop-loss tightenings applied by the trailing engine",
		}),
		TrailFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalpbot_trail_failures_total",
			Help: "Stop modifications refused by the exchange",
		}),
		ReconcilePrunes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalpbot_reconcile_prunes_total",
			Help: "Registry entries pruned because the exchange reports no position",
		}),
		KillSwitchEngaged: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalpbot_kill_switch_engaged",
			Help: "Daily kill switch state (0=clear, 1=engaged)",
		}),
		OpenTrades: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalpbot_open_trades",
			Help: "Open trades currently tracked by the registry",
		}),
		AccountBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalpbot_account_balance",
			Help: "Last observed account balance in quote units",
		}),
		TradesToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalpbot_trades_today",
			Help: "Trades counted against today's cap",
		}),
	}

	reg.MustRegister(
		m.ScansTotal,
		m.SnapshotFailures,
		m.SignalsTotal,
		m.GovernanceBlocks,
		m.OrdersPlaced,
		m.OrdersRejected,
		m.SizingRejections,
		m.TrailUpdates,
		m.TrailFailures,
		m.ReconcilePrunes,
		m.KillSwitchEngaged,
		m.OpenTrades,
		m.AccountBalance,
		m.TradesToday,
	)

	return m
}
