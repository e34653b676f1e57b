package compute

import "strings"

// QueueProperties is a bitmask of options used when creating a command queue.
type QueueProperties uint64

const (
	// QueueOutOfOrderExecution allows the queue to execute enqueued work out of order.
	QueueOutOfOrderExecution QueueProperties = 1 << iota

	// QueueProfiling enables collection of timing information for the enqueued work.
	QueueProfiling
)

// Has returns whether all the properties in other are set.
func (p QueueProperties) Has(other QueueProperties) bool {
	return p&other == other
}

// String implements fmt.Stringer.
func (p QueueProperties) String() string {
	if p == 0 {
		return "None"
	}
	var parts []string
	if p.Has(QueueOutOfOrderExecution) {
		parts = append(parts, "OutOfOrderExecution")
	}
	if p.Has(QueueProfiling) {
		parts = append(parts, "Profiling")
	}
	if rest := p &^ (QueueOutOfOrderExecution | QueueProfiling); rest != 0 {
		parts = append(parts, "Unknown")
	}
	return strings.Join(parts, "|")
}
