package observability

import (
	"testing"
	"time"

	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_TransportHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := m.TransportHooks()

	h.OnDial(1)
	h.OnDial(2)
	h.OnReconnect(1, 1500*time.Millisecond)
	h.OnFrame(transport.FrameMessage)
	h.OnFrame(transport.FrameMessage)
	h.OnFrame(transport.FramePong)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Dials))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reconnects))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Frames.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Frames.WithLabelValues("pong")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ReconnectDelay))
}

func TestMetrics_ClientHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := m.ClientHooks()

	h.OnStatus(transport.StatusConnected)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connected))
	h.OnStatus(transport.StatusConnecting)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Connected))

	msg := domain.NewVisitorNodeMessage("hi")
	h.OnMerged(msg, reconcile.Outcome{Kind: reconcile.Appended, Index: 0})
	h.OnMerged(msg, reconcile.Outcome{Kind: reconcile.Appended, Index: 1})
	h.OnMerged(msg, reconcile.Outcome{Kind: reconcile.Updated, Index: 0})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Messages.WithLabelValues("appended")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Messages.WithLabelValues("updated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LogSize))

	h.OnCommand(domain.PerformAction{})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("action")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["smoc_session_connected"])
	assert.True(t, names["smoc_conversation_messages_total"])
}
