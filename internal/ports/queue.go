package ports

import "github.com/NkanyeziNgobese/ares-1/internal/domain"

// Mailbox hands samples from producer goroutines to the single tick consumer.
// Offer must be safe for concurrent use; Drain returns only the newest sample
// and how many older ones were discarded.
type Mailbox interface {
	Offer(s domain.Sample)
	Drain() (latest domain.Sample, superseded int, ok bool)
	Len() int
}
