// Package app is the application-state facade over the repositories. It keeps
// an in-memory snapshot of the four collections and refreshes the ones a
// mutation touched, so embedders get a consistent read model without tracking
// which store call invalidates what.
package app

import (
	"context"
	"sort"

	"crm/lib/data"
	"crm/lib/models"

	"github.com/sirupsen/logrus"
)

// State holds the loaded collections for one user.
type State struct {
	Clients   data.ClientRepository
	Inquiries data.InquiryRepository
	Events    data.EventRepository
	Leads     data.LeadRepository
	Logger    *logrus.Logger

	UserID string

	ClientList  []models.Client
	InquiryList []models.Inquiry
	EventList   []models.Event
	LeadList    []models.Lead
}

// Load fetches all four collections for the user.
func (s *State) Load(ctx context.Context) error {
	clients, err := s.Clients.GetClients(ctx, s.UserID)
	if err != nil {
		return err
	}
	inquiries, err := s.Inquiries.GetInquiries(ctx, s.UserID)
	if err != nil {
		return err
	}
	events, err := s.Events.GetEvents(ctx, s.UserID)
	if err != nil {
		return err
	}
	leads, err := s.Leads.GetLeads(ctx, s.UserID)
	if err != nil {
		return err
	}

	s.ClientList = clients
	s.InquiryList = inquiries
	s.EventList = events
	s.LeadList = leads
	return nil
}

// AddInquiry creates an inquiry and re-fetches inquiries and clients; creation
// may have matched or minted a client row.
func (s *State) AddInquiry(ctx context.Context, req *models.CreateInquiryRequest) (*models.Inquiry, error) {
	inq, err := s.Inquiries.CreateInquiry(ctx, s.UserID, req)
	if err != nil {
		return nil, err
	}
	if err := s.refreshInquiries(ctx); err != nil {
		return nil, err
	}
	if err := s.refreshClients(ctx); err != nil {
		return nil, err
	}
	return inq, nil
}

// ToggleInquiryTask flips a checklist task. Below 100% only the inquiry list
// changes; at 100% the promotion touched events and client stats too, so all
// three are re-fetched.
func (s *State) ToggleInquiryTask(ctx context.Context, inquiryID int64, taskID string) (*models.ToggleTaskResponse, error) {
	resp, err := s.Inquiries.ToggleTask(ctx, inquiryID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.refreshInquiries(ctx); err != nil {
		return nil, err
	}
	if resp.Promoted {
		if err := s.refreshEvents(ctx); err != nil {
			return nil, err
		}
		if err := s.refreshClients(ctx); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// AddLead creates a lead and patches it into the list in place.
func (s *State) AddLead(ctx context.Context, req *models.CreateLeadRequest) (*models.Lead, error) {
	lead, err := s.Leads.CreateLead(ctx, s.UserID, req)
	if err != nil {
		return nil, err
	}
	s.LeadList = append(s.LeadList, *lead)
	return lead, nil
}

// UpdateLead edits a lead and patches the confirmed row into the list.
func (s *State) UpdateLead(ctx context.Context, leadID int64, req *models.UpdateLeadRequest) (*models.Lead, error) {
	lead, err := s.Leads.UpdateLead(ctx, leadID, req)
	if err != nil {
		return nil, err
	}
	for i := range s.LeadList {
		if s.LeadList[i].ID == leadID {
			s.LeadList[i] = *lead
			break
		}
	}
	return lead, nil
}

// RemoveLead deletes a lead and drops it from the list.
func (s *State) RemoveLead(ctx context.Context, leadID int64) error {
	if err := s.Leads.DeleteLead(ctx, leadID); err != nil {
		return err
	}
	for i := range s.LeadList {
		if s.LeadList[i].ID == leadID {
			s.LeadList = append(s.LeadList[:i], s.LeadList[i+1:]...)
			break
		}
	}
	return nil
}

// PromoteLead turns a lead into an inquiry: contact data is copied from the
// lead, the normal inquiry-creation flow runs, and the lead is deleted only
// after the inquiry exists. A failed delete leaves the lead behind and is
// logged, not returned; the inquiry is already real.
func (s *State) PromoteLead(ctx context.Context, leadID int64, req *models.PromoteLeadRequest) (*models.Inquiry, error) {
	lead, err := s.Leads.GetLeadByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	createReq := BuildInquiryFromLead(lead, req)
	inq, err := s.AddInquiry(ctx, createReq)
	if err != nil {
		return nil, err
	}

	if err := s.RemoveLead(ctx, leadID); err != nil {
		s.Logger.WithError(err).WithField("lead_id", leadID).
			Warn("Promoted lead could not be deleted")
	}
	return inq, nil
}

// BuildInquiryFromLead merges the lead's contact data with the booking
// details. Fraternity and school fall back to the lead's own fields.
func BuildInquiryFromLead(lead *models.Lead, req *models.PromoteLeadRequest) *models.CreateInquiryRequest {
	fraternity := req.Fraternity
	if fraternity == "" {
		fraternity = lead.Fraternity
	}
	school := req.School
	if school == "" {
		school = lead.School
	}
	return &models.CreateInquiryRequest{
		Fraternity:   fraternity,
		School:       school,
		ContactName:  lead.Name,
		ContactPhone: lead.Phone,
		Venue:        req.Venue,
		Capacity:     req.Capacity,
		Budget:       req.Budget,
		InquiryDate:  req.InquiryDate,
		InquiryTime:  req.InquiryTime,
		Stage:        req.Stage,
		Power:        req.Power,
		Gates:        req.Gates,
		Security:     req.Security,
		CO2Tanks:     req.CO2Tanks,
		CDJs:         req.CDJs,
		Audio:        req.Audio,
	}
}

// CalendarItems merges pending inquiries and booked events into one
// date-ordered list for the calendar view.
func (s *State) CalendarItems() []models.CalendarItem {
	items := make([]models.CalendarItem, 0, len(s.InquiryList)+len(s.EventList))
	for i := range s.InquiryList {
		items = append(items, models.CalendarItemFromInquiry(&s.InquiryList[i]))
	}
	for i := range s.EventList {
		items = append(items, models.CalendarItemFromEvent(&s.EventList[i]))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Date.Equal(items[j].Date) {
			return items[i].ID < items[j].ID
		}
		return items[i].Date.Before(items[j].Date)
	})
	return items
}

func (s *State) refreshClients(ctx context.Context) error {
	clients, err := s.Clients.GetClients(ctx, s.UserID)
	if err != nil {
		return err
	}
	s.ClientList = clients
	return nil
}

func (s *State) refreshInquiries(ctx context.Context) error {
	inquiries, err := s.Inquiries.GetInquiries(ctx, s.UserID)
	if err != nil {
		return err
	}
	s.InquiryList = inquiries
	return nil
}

func (s *State) refreshEvents(ctx context.Context) error {
	events, err := s.Events.GetEvents(ctx, s.UserID)
	if err != nil {
		return err
	}
	s.EventList = events
	return nil
}
