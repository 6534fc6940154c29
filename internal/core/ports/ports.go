package ports

// IDGenerator produces unique identifiers for new records. Tests inject a
// deterministic implementation.
type IDGenerator interface {
	NewID() string
}

// ConnectivitySource reports the platform's online/offline signal.
type ConnectivitySource interface {
	// Online returns the current state.
	Online() bool
	// Changes delivers every transition. The channel is never closed by the
	// engine; the source owns it.
	Changes() <-chan bool
}
