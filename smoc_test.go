package smoc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/smoc"
	"github.com/aretw0/smoc/pkg/client"
	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startBody = `{
	"theme": {"colors": {}, "operatorChannelId": 7},
	"conversationDetail": {"conversation_id": "c-42", "lang": "en-GB", "operator_key": "op",
		"operator_channel_key": "ch", "conversation_template_key": "tpl"},
	"nodeMessages": [
		{"path": [], "instanceId": "A", "progress": 0.1, "chatMessage": {"interlocutor": "bot", "messageId": "m",
			"elements": [{"type": "prose", "options": {"text": {"en-GB": "Welcome"}}}]}}
	]
}`

const progressFrame = `{"path": [], "instanceId": "A", "progress": 0.6, "chatMessage": {"interlocutor": "bot",
	"messageId": "m", "elements": [{"type": "prose", "options": {"text": {"en-GB": "Welcome"}}}]}}`

func newService(t *testing.T) (*httptest.Server, <-chan string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	received := make(chan string, 4)

	mux := http.NewServeMux()
	mux.HandleFunc("/operator/op/ch/tpl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(startBody))
	})
	mux.HandleFunc("/op/ch/tpl/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("conversation_id") != "c-42" {
			http.Error(w, "unknown conversation", http.StatusNotFound)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(progressFrame))
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(data)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, received
}

func TestJoin(t *testing.T) {
	srv, received := newService(t)

	var (
		mu       sync.Mutex
		outcomes []reconcile.Outcome
	)
	sess, err := smoc.Join(context.Background(), srv.URL+"/op/ch/tpl", client.Handlers{
		HandleMessage: func(_ domain.NodeMessage, o reconcile.Outcome) {
			mu.Lock()
			defer mu.Unlock()
			outcomes = append(outcomes, o)
		},
	}, smoc.WithLang(domain.LangEnglish))
	require.NoError(t, err)
	t.Cleanup(sess.Leave)

	assert.Equal(t, "c-42", sess.Detail.ConversationID)
	assert.Equal(t, 7, sess.Theme.OperatorChannelID)
	assert.True(t, strings.HasSuffix(sess.WSURL, "/op/ch/tpl/ws?conversation_id=c-42"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(outcomes) == 1
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, reconcile.Outcome{Kind: reconcile.Updated, Index: 0}, outcomes[0], "the seeded message is updated in place")
	mu.Unlock()

	log := sess.Messages()
	require.Len(t, log, 1)
	assert.InDelta(t, 0.6, *log[0].Progress, 1e-9)

	require.NoError(t, sess.Send(domain.PerformAction{NodePath: []string{"root"}}))
	select {
	case frame := <-received:
		assert.JSONEq(t, `{"type":"action","nodePath":["root"]}`, frame)
	case <-time.After(5 * time.Second):
		t.Fatal("command not received")
	}

	sess.Leave()
	select {
	case <-sess.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
}

func TestJoin_StartFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := smoc.Join(context.Background(), srv.URL+"/op/ch/tpl", client.Handlers{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "404: "))
}
