package models

import "time"

// Client represents a booking client, identified by the (fraternity, school)
// pair. Matching on that pair is case-insensitive. The three derived numbers
// are maintained by the server: ClientScore is always recomputed from
// NumberOfEvents and AverageEventSize, never set directly.
type Client struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"user_id"`
	Fraternity       string    `json:"fraternity"`
	School           string    `json:"school"`
	ContactName      string    `json:"contact_name"`
	ContactPhone     string    `json:"contact_phone"`
	ContactEmail     string    `json:"contact_email,omitempty"`
	NumberOfEvents   int       `json:"number_of_events"`
	AverageEventSize float64   `json:"average_event_size"`
	ClientScore      float64   `json:"client_score"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateClientRequest represents the request payload for creating a client directly.
type CreateClientRequest struct {
	Fraternity       string  `json:"fraternity" binding:"required"`
	School           string  `json:"school" binding:"required"`
	ContactName      string  `json:"contact_name"`
	ContactPhone     string  `json:"contact_phone"`
	ContactEmail     string  `json:"contact_email"`
	AverageEventSize float64 `json:"average_event_size"`
}

// UpdateClientRequest represents the request payload for editing a client.
// NumberOfEvents and AverageEventSize may be corrected manually; the score is
// recomputed server-side from whatever values end up stored.
type UpdateClientRequest struct {
	Fraternity       *string  `json:"fraternity,omitempty"`
	School           *string  `json:"school,omitempty"`
	ContactName      *string  `json:"contact_name,omitempty"`
	ContactPhone     *string  `json:"contact_phone,omitempty"`
	ContactEmail     *string  `json:"contact_email,omitempty"`
	NumberOfEvents   *int     `json:"number_of_events,omitempty"`
	AverageEventSize *float64 `json:"average_event_size,omitempty"`
}

// ClientListResponse wraps the client collection for list endpoints.
type ClientListResponse struct {
	Clients []Client `json:"clients"`
	Total   int      `json:"total"`
}
