package models

import "time"

// AvailabilityTemplate is a provider's recurring weekly open window.
type AvailabilityTemplate struct {
	ID         int64  `json:"id"`
	ProviderID int64  `json:"provider_id"`
	Weekday    int    `json:"weekday"` // 0 (Sunday) - 6 (Saturday)
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// AvailabilityOverride is a date-specific exception. When one exists for a
// date it supersedes every template for that date; Blocked means the day
// has no open windows at all.
type AvailabilityOverride struct {
	ID         int64     `json:"id"`
	ProviderID int64     `json:"provider_id"`
	Date       time.Time `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Blocked    bool      `json:"blocked"`
}
