package models

import "time"

type Booking struct {
	ID             int64     `json:"id"`
	CustomerID     int64     `json:"customer_id"`
	ProviderID     int64     `json:"provider_id"`
	ServiceID      int64     `json:"service_id"`
	Status         string    `json:"status"` // pending, confirmed, in_progress, completed, cancelled, declined
	ScheduledDate  time.Time `json:"scheduled_date"`
	StartTime      string    `json:"start_time"` // "HH:MM"
	EndTime        string    `json:"end_time"`   // "HH:MM"
	ServiceAddress string    `json:"service_address"`
	TotalPrice     float64   `json:"total_price"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
