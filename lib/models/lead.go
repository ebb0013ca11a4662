package models

import "time"

// Lead status values.
const (
	LeadStatusGeneral       = "General"
	LeadStatusInterested    = "Interested"
	LeadStatusNotInterested = "Not Interested"
)

// Lead is an unqualified contact scoped to the authenticated user. A lead is
// only ever promoted into an inquiry by explicit user action.
type Lead struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Fraternity string    `json:"fraternity,omitempty"`
	School     string    `json:"school,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidLeadStatus reports whether s is one of the closed status set.
func ValidLeadStatus(s string) bool {
	switch s {
	case LeadStatusGeneral, LeadStatusInterested, LeadStatusNotInterested:
		return true
	}
	return false
}

// CreateLeadRequest represents the request payload for creating a lead.
type CreateLeadRequest struct {
	Name       string `json:"name" binding:"required"`
	Fraternity string `json:"fraternity"`
	School     string `json:"school"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Status     string `json:"status"`
	Notes      string `json:"notes"`
}

// UpdateLeadRequest represents the request payload for editing a lead.
type UpdateLeadRequest struct {
	Name       *string `json:"name,omitempty"`
	Fraternity *string `json:"fraternity,omitempty"`
	School     *string `json:"school,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
	Status     *string `json:"status,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// PromoteLeadRequest carries the booking details needed to turn a lead into
// an inquiry. Fraternity/school default to the lead's own fields when empty.
type PromoteLeadRequest struct {
	Fraternity  string  `json:"fraternity"`
	School      string  `json:"school"`
	Venue       string  `json:"venue"`
	Capacity    int     `json:"capacity"`
	Budget      float64 `json:"budget"`
	InquiryDate string  `json:"inquiry_date" binding:"required"`
	InquiryTime string  `json:"inquiry_time"`
	Stage       string  `json:"stage"`
	Power       string  `json:"power"`
	Gates       bool    `json:"gates"`
	Security    bool    `json:"security"`
	CO2Tanks    int     `json:"co2_tanks"`
	CDJs        int     `json:"cdjs"`
	Audio       string  `json:"audio"`
}

// LeadListResponse wraps the lead collection for list endpoints.
type LeadListResponse struct {
	Leads []Lead `json:"leads"`
	Total int    `json:"total"`
}
