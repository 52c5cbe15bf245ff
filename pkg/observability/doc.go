/*
Package observability exposes Prometheus metrics for conversation sessions.

Metrics are fed through the hook points of the transport and client packages,
so the session code itself never depends on Prometheus:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	c, _ := client.New(url,
		client.WithHooks(m.ClientHooks()),
		client.WithTransportOptions(transport.WithHooks(m.TransportHooks())),
	)
*/
package observability
