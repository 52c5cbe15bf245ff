package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/smoc/pkg/adapters/redis"
	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/privacy"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestPublisher_Hooks(t *testing.T) {
	_, client := newClient(t)
	ctx := context.Background()

	pub := redis.NewFromClient(client, redis.WithChannel(redis.ConversationChannel("c-1")))
	assert.Equal(t, "smoc:conversation:c-1", pub.Channel())
	require.NoError(t, pub.Ping(ctx))

	sub := client.Subscribe(ctx, pub.Channel())
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	msgs := sub.Channel()

	hooks := pub.Hooks(ctx)
	hooks.OnStatus(transport.StatusConnected)
	hooks.OnMerged(domain.NewVisitorNodeMessage("hi"), reconcile.Outcome{Kind: reconcile.Appended, Index: 2})
	hooks.OnCommand(domain.PerformAction{NodePath: []string{"root"}})

	var events []map[string]any
	for len(events) < 3 {
		select {
		case m := <-msgs:
			var ev map[string]any
			require.NoError(t, json.Unmarshal([]byte(m.Payload), &ev))
			events = append(events, ev)
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout, got %d events", len(events))
		}
	}

	assert.Equal(t, "status", events[0]["event"])
	assert.Equal(t, "connected", events[0]["status"])
	assert.Equal(t, "message", events[1]["event"])
	assert.Equal(t, "appended", events[1]["outcome"])
	assert.EqualValues(t, 2, events[1]["index"])
	assert.Equal(t, "command", events[2]["event"])
	assert.Equal(t, map[string]any{"type": "action", "nodePath": []any{"root"}}, events[2]["command"])
}

func TestPublisher_FailuresDoNotPanic(t *testing.T) {
	mr, client := newClient(t)
	pub := redis.NewFromClient(client, redis.WithTimeout(100*time.Millisecond))
	mr.Close()

	assert.Error(t, pub.Ping(context.Background()))
	assert.NotPanics(t, func() {
		pub.Hooks(context.Background()).OnStatus(transport.StatusConnecting)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() {
		pub.Hooks(ctx).OnStatus(transport.StatusConnecting)
	})
}

func TestPublisher_MasksContactDetails(t *testing.T) {
	_, client := newClient(t)
	ctx := context.Background()

	mask, err := privacy.NewPIIMiddleware(privacy.DefaultPIIPatterns)
	require.NoError(t, err)
	pub := redis.NewFromClient(client, redis.WithMiddleware(mask))

	sub := client.Subscribe(ctx, pub.Channel())
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	pub.Hooks(ctx).OnCommand(domain.SubmitLeadForm{Form: domain.LeadForm{
		domain.FieldEmail:   "ada@example.com",
		domain.FieldCompany: "Analytical Engines",
	}})

	select {
	case m := <-sub.Channel():
		var ev struct {
			Command struct {
				Form map[string]string `json:"form"`
			} `json:"command"`
		}
		require.NoError(t, json.Unmarshal([]byte(m.Payload), &ev))
		assert.Equal(t, map[string]string{
			"email":   privacy.Mask,
			"company": "Analytical Engines",
		}, ev.Command.Form)
	case <-time.After(5 * time.Second):
		t.Fatal("no event published")
	}
}
