package models

import "time"

// Default task names given to every new inquiry, in order.
const (
	InquiryTaskRendering = "Rendering"
	InquiryTaskContract  = "Contract"
	InquiryTaskDeposit   = "Deposit"
)

// Equipment values that mean the client already has the item covered.
const (
	PowerNone     = "None"
	PowerProvided = "Provided"
	AudioHouseRig = "QSC Rig"
)

// Inquiry is a prospective booking. It owns an ordered task list; Progress is
// derived from it (completed/total * 100). An inquiry whose progress reaches
// 100 is promoted to an Event and deleted, so a stored inquiry always has
// Progress < 100.
type Inquiry struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	ClientID     int64     `json:"client_id"`
	Fraternity   string    `json:"fraternity"`
	School       string    `json:"school"`
	ContactName  string    `json:"contact_name"`
	ContactPhone string    `json:"contact_phone"`
	Venue        string    `json:"venue,omitempty"`
	Capacity     int       `json:"capacity"`
	Budget       float64   `json:"budget"`
	InquiryDate  time.Time `json:"inquiry_date"`
	InquiryTime  string    `json:"inquiry_time"` // wall clock, "HH:MM"
	Stage        string    `json:"stage,omitempty"`
	Power        string    `json:"power"`
	Gates        bool      `json:"gates"`
	Security     bool      `json:"security"`
	CO2Tanks     int       `json:"co2_tanks"`
	CDJs         int       `json:"cdjs"`
	Audio        string    `json:"audio"`
	Tasks        TaskList  `json:"tasks"`
	Progress     float64   `json:"progress"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateInquiryRequest represents the request payload for creating an inquiry.
// The linked client is resolved by case-insensitive (fraternity, school) match,
// created when absent.
type CreateInquiryRequest struct {
	Fraternity   string  `json:"fraternity" binding:"required"`
	School       string  `json:"school" binding:"required"`
	ContactName  string  `json:"contact_name"`
	ContactPhone string  `json:"contact_phone"`
	Venue        string  `json:"venue"`
	Capacity     int     `json:"capacity"`
	Budget       float64 `json:"budget"`
	InquiryDate  string  `json:"inquiry_date" binding:"required"` // YYYY-MM-DD
	InquiryTime  string  `json:"inquiry_time"`                    // HH:MM
	Stage        string  `json:"stage"`
	Power        string  `json:"power"`
	Gates        bool    `json:"gates"`
	Security     bool    `json:"security"`
	CO2Tanks     int     `json:"co2_tanks"`
	CDJs         int     `json:"cdjs"`
	Audio        string  `json:"audio"`
}

// UpdateInquiryRequest represents the request payload for editing inquiry
// details. Tasks and progress are not editable here; use the toggle-task
// operation.
type UpdateInquiryRequest struct {
	ContactName  *string  `json:"contact_name,omitempty"`
	ContactPhone *string  `json:"contact_phone,omitempty"`
	Venue        *string  `json:"venue,omitempty"`
	Capacity     *int     `json:"capacity,omitempty"`
	Budget       *float64 `json:"budget,omitempty"`
	InquiryDate  *string  `json:"inquiry_date,omitempty"`
	InquiryTime  *string  `json:"inquiry_time,omitempty"`
	Stage        *string  `json:"stage,omitempty"`
	Power        *string  `json:"power,omitempty"`
	Gates        *bool    `json:"gates,omitempty"`
	Security     *bool    `json:"security,omitempty"`
	CO2Tanks     *int     `json:"co2_tanks,omitempty"`
	CDJs         *int     `json:"cdjs,omitempty"`
	Audio        *string  `json:"audio,omitempty"`
}

// InquiryListResponse wraps the inquiry collection for list endpoints.
type InquiryListResponse struct {
	Inquiries []Inquiry `json:"inquiries"`
	Total     int       `json:"total"`
}

// ToggleTaskResponse reports the outcome of a task toggle. When the toggle
// completed the final task, Promoted is true, Inquiry is nil and Event holds
// the newly created event.
type ToggleTaskResponse struct {
	Promoted bool     `json:"promoted"`
	Inquiry  *Inquiry `json:"inquiry,omitempty"`
	Event    *Event   `json:"event,omitempty"`
}
