package observability

import (
	"time"

	"github.com/aretw0/smoc/pkg/client"
	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smoc"

// Metrics holds the session collectors.
type Metrics struct {
	Connected      prometheus.Gauge
	Dials          prometheus.Counter
	Reconnects     prometheus.Counter
	ReconnectDelay prometheus.Histogram
	Frames         *prometheus.CounterVec
	Messages       *prometheus.CounterVec
	Commands       *prometheus.CounterVec
	LogSize        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_connected",
			Help:      "1 while the websocket session is open, 0 otherwise",
		}),
		Dials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_dials_total",
			Help:      "Total number of websocket connection attempts",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_reconnects_total",
			Help:      "Total number of scheduled reconnects",
		}),
		ReconnectDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_reconnect_delay_seconds",
			Help:      "Backoff delay before each reconnect",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 30},
		}),
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_frames_total",
			Help:      "Frames seen on the websocket, by kind",
		}, []string{"kind"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_messages_total",
			Help:      "Node messages merged into the conversation log, by outcome",
		}, []string{"outcome"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_commands_total",
			Help:      "Commands sent, by type",
		}, []string{"type"}),
		LogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conversation_log_size",
			Help:      "Number of entries in the conversation log",
		}),
	}

	reg.MustRegister(
		m.Connected,
		m.Dials,
		m.Reconnects,
		m.ReconnectDelay,
		m.Frames,
		m.Messages,
		m.Commands,
		m.LogSize,
	)
	return m
}

// TransportHooks returns hooks that record connection attempts, reconnects and frames.
func (m *Metrics) TransportHooks() transport.Hooks {
	return transport.Hooks{
		OnDial: func(int) {
			m.Dials.Inc()
		},
		OnReconnect: func(_ int, delay time.Duration) {
			m.Reconnects.Inc()
			m.ReconnectDelay.Observe(delay.Seconds())
		},
		OnFrame: func(kind transport.FrameKind) {
			m.Frames.WithLabelValues(string(kind)).Inc()
		},
	}
}

// ClientHooks returns hooks that record status, merges and commands.
func (m *Metrics) ClientHooks() client.Hooks {
	return client.Hooks{
		OnStatus: func(st transport.Status) {
			if st == transport.StatusConnected {
				m.Connected.Set(1)
				return
			}
			m.Connected.Set(0)
		},
		OnMerged: func(_ domain.NodeMessage, o reconcile.Outcome) {
			m.Messages.WithLabelValues(o.Kind.String()).Inc()
			if o.Kind == reconcile.Appended {
				m.LogSize.Set(float64(o.Index + 1))
			}
		},
		OnCommand: func(cmd domain.Command) {
			m.Commands.WithLabelValues(string(cmd.CommandType())).Inc()
		},
	}
}
