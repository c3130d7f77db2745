package models

// ScheduleItem is a derived timeline entry produced by aggregation for a
// single provider day. It is never persisted or cached: source data may
// change between calls, so every aggregation builds the items fresh.
type ScheduleItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Kind      string `json:"kind"` // availability, override, booking
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	Status    string `json:"status,omitempty"`
	BookingID int64  `json:"booking_id,omitempty"`
}
