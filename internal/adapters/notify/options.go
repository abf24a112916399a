package notify

// Option applies a configuration option to the Broker.
type Option func(*Broker)

// WithBufferSize sets the buffer for notices and per-session event streams.
func WithBufferSize(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = n
		}
	}
}
