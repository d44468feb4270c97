// Package metrics exposes relayd's runtime counters through a
// prometheus.Registry (§4.14): connection/channel gauges, a
// messages-relayed counter labeled by kind, a flood-kill counter, and a
// per-target history-size gauge. cmd/relayd sets the connection gauge on
// accept and teardown, the connection actor counts flood kills, and the
// dispatcher counts relayed direct (non-channel) messages. Nothing calls
// SetChannels or SetHistoryItems, so those two gauges stay at zero.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every relayd gauge/counter and the registry they are
// registered against.
type Metrics struct {
	Registry *prometheus.Registry

	connectionsCurrent  prometheus.Gauge
	channelsCurrent      prometheus.Gauge
	messagesRelayedTotal *prometheus.CounterVec
	floodKillsTotal      prometheus.Counter
	historyItemsCurrent  *prometheus.GaugeVec
}

// New builds and registers every metric against a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		connectionsCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relayd_connections_current",
			Help: "Number of currently open connections.",
		}),
		channelsCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relayd_channels_current",
			Help: "Number of currently live channels.",
		}),
		messagesRelayedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relayd_messages_relayed_total",
			Help: "Total messages relayed, labeled by command kind.",
		}, []string{"kind"}),
		floodKillsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relayd_flood_kills_total",
			Help: "Total connections torn down for flooding.",
		}),
		historyItemsCurrent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "relayd_history_items_current",
			Help: "Current history ring size, labeled by target.",
		}, []string{"target"}),
	}

	reg.MustRegister(
		m.connectionsCurrent,
		m.channelsCurrent,
		m.messagesRelayedTotal,
		m.floodKillsTotal,
		m.historyItemsCurrent,
	)
	return m
}

// SetConnections records the current connection count.
func (m *Metrics) SetConnections(n int) { m.connectionsCurrent.Set(float64(n)) }

// SetChannels records the current channel count.
func (m *Metrics) SetChannels(n int) { m.channelsCurrent.Set(float64(n)) }

// MessageRelayed increments the relayed-message counter for kind
// ("privmsg", "notice", "tagmsg").
func (m *Metrics) MessageRelayed(kind string) { m.messagesRelayedTotal.WithLabelValues(kind).Inc() }

// FloodKill increments the flood-kill counter.
func (m *Metrics) FloodKill() { m.floodKillsTotal.Inc() }

// SetHistoryItems records target's current ring size.
func (m *Metrics) SetHistoryItems(target string, n int) {
	m.historyItemsCurrent.WithLabelValues(target).Set(float64(n))
}
