/*
Package smoc is a client for conversation sessions served over websockets.

A conversation is started with an HTTP call to the service and then driven
over a long-lived websocket session: the service pushes node messages, the
visitor answers with commands. The session survives network failures by
reconnecting with jittered exponential backoff until it is explicitly left.

# Layers

  - pkg/transport: the self-healing websocket session (keepalive, reconnect, no send queue).
  - pkg/reconcile: merges node messages into the conversation log by instance id.
  - pkg/client: the join/send/leave facade that ties the two together.
  - pkg/bootstrap: the start call that yields the session URL and the initial log.
  - pkg/domain: the message and command model.

Hosts built on top of it:

  - pkg/runner: a terminal or NDJSON loop answering the conversation.
  - pkg/adapters/http, pkg/adapters/mcp: the conversation over HTTP/SSE and as MCP tools.
  - pkg/adapters/redis, pkg/observability: event fan-out, single-host claims and metrics.

# Usage

	sess, err := smoc.Join(ctx, "https://host/operator/channel/template", client.Handlers{
		StatusChanged: func(st client.Status) { log.Println("status:", st) },
		HandleMessage: func(m domain.NodeMessage, o reconcile.Outcome) {
			if o.IsUpdate() {
				return
			}
			log.Println("new message", m.InstanceID)
		},
		HandleError: func(err error) { log.Println("protocol error:", err) },
	})
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Leave()

	if err := sess.Send(domain.PerformAction{NodePath: []string{"root"}}); err != nil {
		log.Println(err) // transport.ErrNotConnected while reconnecting
	}

Handlers run one at a time on the session goroutine, in the order events
arrived. Leave may be called from inside a handler; no handler starts after it.
*/
package smoc
