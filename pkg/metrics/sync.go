package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics tracks traffic between the local store and the remote mirror.
type SyncMetrics struct {
	pushed     *prometheus.CounterVec
	pulled     *prometheus.CounterVec
	applied    *prometheus.CounterVec
	connection *prometheus.GaugeVec
	pending    prometheus.Gauge
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	pushed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_pushed_records_total",
		Help:      "Records pushed to the remote mirror by outcome.",
	}, []string{"collection", "op", "outcome"})
	pulled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_pulled_records_total",
		Help:      "Records merged into the local store by full pulls.",
	}, []string{"collection"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_feed_changes_total",
		Help:      "Remote change-feed notifications applied locally.",
	}, []string{"collection", "op"})
	connection := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "remote_connection_state",
		Help:      "1 for the current remote connection state, 0 otherwise.",
	}, []string{"state"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sync_outbox_pending",
		Help:      "Unpublished rows in the local sync outbox.",
	})
	reg.MustRegister(pushed, pulled, applied, connection, pending)
	return &SyncMetrics{
		pushed:     pushed,
		pulled:     pulled,
		applied:    applied,
		connection: connection,
		pending:    pending,
	}
}

func (m *SyncMetrics) IncPushed(collection, op string, ok bool) {
	if m == nil || m.pushed == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.pushed.WithLabelValues(normalizeLabel(collection), normalizeLabel(op), outcome).Inc()
}

func (m *SyncMetrics) AddPulled(collection string, n int) {
	if m == nil || m.pulled == nil || n <= 0 {
		return
	}
	m.pulled.WithLabelValues(normalizeLabel(collection)).Add(float64(n))
}

func (m *SyncMetrics) IncApplied(collection, op string) {
	if m == nil || m.applied == nil {
		return
	}
	m.applied.WithLabelValues(normalizeLabel(collection), normalizeLabel(op)).Inc()
}

// SetConnectionState flips the gauge so exactly one state reads 1.
func (m *SyncMetrics) SetConnectionState(current string, all ...string) {
	if m == nil || m.connection == nil {
		return
	}
	for _, state := range all {
		m.connection.WithLabelValues(state).Set(0)
	}
	m.connection.WithLabelValues(normalizeLabel(current)).Set(1)
}

func (m *SyncMetrics) SetPending(n int64) {
	if m == nil || m.pending == nil {
		return
	}
	m.pending.Set(float64(n))
}
