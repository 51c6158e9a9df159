package queue

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of waiting jobs across all sessions.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithOnDrop sets a callback for accepted jobs that are dropped without
// being delivered to a consumer.
func WithOnDrop(fn func(Job)) Option {
	return func(q *InMemoryQueue) { q.onDrop = fn }
}

// WithMaxPerSession bounds the number of waiting jobs of one gallery session
// so a single client cannot fill the queue. Zero disables the limit.
func WithMaxPerSession(n int) Option {
	return func(q *InMemoryQueue) {
		if n >= 0 {
			q.perSession = n
		}
	}
}
