package port

// Limiter is the admission-control gate evaluated once per inbound
// request. Implementations never fail a request because their backing
// store is unreachable; they degrade and decide anyway.
type Limiter interface {
	// Allow reports whether this request is admitted for the given
	// client identity and endpoint class.
	Allow(client, class string) bool
}
