package shared

// Feed is the outbound live feed for aggregated records. Implementations
// deliver each aggregate to a downstream consumer (dashboard, queue proxy);
// the sampling loop treats delivery as best-effort.
type Feed interface {
	Publish(topic string, body []byte) error
	Close() error
}
