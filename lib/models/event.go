package models

import "time"

// Event status values.
const (
	EventStatusPending   = "Pending"
	EventStatusConfirmed = "Confirmed"
	EventStatusCompleted = "Completed"
	EventStatusCancelled = "Cancelled"
)

// EventTaskPaidFull is the settlement task appended last to every event.
const EventTaskPaidFull = "Paid(Full)"

// EventTaskLogistics is the fallback task used when the inquiry needs no
// equipment sourced at all.
const EventTaskLogistics = "Event Logistics"

// Event is a confirmed booking. Events are created only by inquiry promotion
// and always carry a non-zero ClientID.
type Event struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	ClientID   int64     `json:"client_id"`
	Fraternity string    `json:"fraternity"`
	School     string    `json:"school"`
	Venue      string    `json:"venue,omitempty"`
	Capacity   int       `json:"capacity"`
	Budget     float64   `json:"budget"`
	EventDate  time.Time `json:"event_date"`
	Stage      string    `json:"stage,omitempty"`
	Power      string    `json:"power"`
	Gates      bool      `json:"gates"`
	Security   bool      `json:"security"`
	CO2Tanks   int       `json:"co2_tanks"`
	CDJs       int       `json:"cdjs"`
	Audio      string    `json:"audio"`
	Status     string    `json:"status"`
	Tasks      TaskList  `json:"tasks"`
	Progress   float64   `json:"progress"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidEventStatus reports whether s is one of the closed status set.
func ValidEventStatus(s string) bool {
	switch s {
	case EventStatusPending, EventStatusConfirmed, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// UpdateEventRequest represents the request payload for editing event details.
type UpdateEventRequest struct {
	Venue    *string  `json:"venue,omitempty"`
	Capacity *int     `json:"capacity,omitempty"`
	Budget   *float64 `json:"budget,omitempty"`
	Stage    *string  `json:"stage,omitempty"`
	Power    *string  `json:"power,omitempty"`
	Gates    *bool    `json:"gates,omitempty"`
	Security *bool    `json:"security,omitempty"`
	CO2Tanks *int     `json:"co2_tanks,omitempty"`
	CDJs     *int     `json:"cdjs,omitempty"`
	Audio    *string  `json:"audio,omitempty"`
}

// EventListResponse wraps the event collection for list endpoints.
type EventListResponse struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
}
