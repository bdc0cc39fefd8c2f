package events

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// IsOnSale reports whether orders may be placed for the event
func (s EventStatus) IsOnSale() bool {
	return s == EventStatusPublished
}
