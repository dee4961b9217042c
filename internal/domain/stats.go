package domain

import "time"

// CounterName names one of the persisted usage counters.
type CounterName string

const (
	CounterIdentifiersResolved CounterName = "identifiers_resolved"
	CounterMediaDelivered      CounterName = "media_delivered"
	CounterRequestsServed      CounterName = "requests_served"
)

// CounterNames lists every counter in display order.
var CounterNames = []CounterName{
	CounterIdentifiersResolved,
	CounterMediaDelivered,
	CounterRequestsServed,
}

// Stats is a point-in-time snapshot of the counters.
type Stats struct {
	IdentifiersResolved int64     `json:"identifiers_resolved"`
	MediaDelivered      int64     `json:"media_delivered"`
	RequestsServed      int64     `json:"requests_served"`
	ReadAt              time.Time `json:"read_at"`
}

// Set assigns the value of a named counter. Unknown names are ignored.
func (s *Stats) Set(name CounterName, value int64) {
	switch name {
	case CounterIdentifiersResolved:
		s.IdentifiersResolved = value
	case CounterMediaDelivered:
		s.MediaDelivered = value
	case CounterRequestsServed:
		s.RequestsServed = value
	}
}

// Get returns the value of a named counter.
func (s Stats) Get(name CounterName) int64 {
	switch name {
	case CounterIdentifiersResolved:
		return s.IdentifiersResolved
	case CounterMediaDelivered:
		return s.MediaDelivered
	case CounterRequestsServed:
		return s.RequestsServed
	}
	return 0
}

// Valid reports whether name is a known counter.
func (n CounterName) Valid() bool {
	for _, c := range CounterNames {
		if c == n {
			return true
		}
	}
	return false
}
