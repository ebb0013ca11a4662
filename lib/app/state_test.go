package app

import (
	"context"
	"testing"
	"time"

	"crm/lib/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type mockClientRepo struct {
	clients   []models.Client
	listCalls int
}

func (m *mockClientRepo) GetClients(ctx context.Context, userID string) ([]models.Client, error) {
	m.listCalls++
	return m.clients, nil
}
func (m *mockClientRepo) GetClientByID(ctx context.Context, clientID int64) (*models.Client, error) {
	return nil, nil
}
func (m *mockClientRepo) FindByFraternitySchool(ctx context.Context, userID, fraternity, school string) (*models.Client, error) {
	return nil, nil
}
func (m *mockClientRepo) CreateClient(ctx context.Context, userID string, req *models.CreateClientRequest) (*models.Client, error) {
	return nil, nil
}
func (m *mockClientRepo) UpdateClient(ctx context.Context, clientID int64, req *models.UpdateClientRequest) (*models.Client, error) {
	return nil, nil
}
func (m *mockClientRepo) UpdateContact(ctx context.Context, clientID int64, contactName, contactPhone string) error {
	return nil
}
func (m *mockClientRepo) DeleteClient(ctx context.Context, clientID int64) error { return nil }

type mockInquiryRepo struct {
	inquiries  []models.Inquiry
	listCalls  int
	toggleResp *models.ToggleTaskResponse
	created    *models.CreateInquiryRequest
}

func (m *mockInquiryRepo) GetInquiries(ctx context.Context, userID string) ([]models.Inquiry, error) {
	m.listCalls++
	return m.inquiries, nil
}
func (m *mockInquiryRepo) GetInquiryByID(ctx context.Context, inquiryID int64) (*models.Inquiry, error) {
	return nil, nil
}
func (m *mockInquiryRepo) CreateInquiry(ctx context.Context, userID string, req *models.CreateInquiryRequest) (*models.Inquiry, error) {
	m.created = req
	return &models.Inquiry{ID: 7, Fraternity: req.Fraternity, School: req.School}, nil
}
func (m *mockInquiryRepo) UpdateInquiry(ctx context.Context, inquiryID int64, req *models.UpdateInquiryRequest) (*models.Inquiry, error) {
	return nil, nil
}
func (m *mockInquiryRepo) DeleteInquiry(ctx context.Context, inquiryID int64) error { return nil }
func (m *mockInquiryRepo) ToggleTask(ctx context.Context, inquiryID int64, taskID string) (*models.ToggleTaskResponse, error) {
	return m.toggleResp, nil
}

type mockEventRepo struct {
	events    []models.Event
	listCalls int
}

func (m *mockEventRepo) GetEvents(ctx context.Context, userID string) ([]models.Event, error) {
	m.listCalls++
	return m.events, nil
}
func (m *mockEventRepo) GetEventByID(ctx context.Context, eventID int64) (*models.Event, error) {
	return nil, nil
}
func (m *mockEventRepo) UpdateEvent(ctx context.Context, eventID int64, req *models.UpdateEventRequest) (*models.Event, error) {
	return nil, nil
}
func (m *mockEventRepo) UpdateEventStatus(ctx context.Context, eventID int64, status string) error {
	return nil
}
func (m *mockEventRepo) ToggleTask(ctx context.Context, eventID int64, taskID string) (*models.Event, error) {
	return nil, nil
}
func (m *mockEventRepo) DeleteEvent(ctx context.Context, eventID int64) error { return nil }

type mockLeadRepo struct {
	leads   []models.Lead
	deleted []int64
}

func (m *mockLeadRepo) GetLeads(ctx context.Context, userID string) ([]models.Lead, error) {
	return m.leads, nil
}
func (m *mockLeadRepo) GetLeadByID(ctx context.Context, leadID int64) (*models.Lead, error) {
	for i := range m.leads {
		if m.leads[i].ID == leadID {
			return &m.leads[i], nil
		}
	}
	return nil, nil
}
func (m *mockLeadRepo) CreateLead(ctx context.Context, userID string, req *models.CreateLeadRequest) (*models.Lead, error) {
	return &models.Lead{ID: 99, Name: req.Name, Status: models.LeadStatusGeneral}, nil
}
func (m *mockLeadRepo) UpdateLead(ctx context.Context, leadID int64, req *models.UpdateLeadRequest) (*models.Lead, error) {
	lead := models.Lead{ID: leadID, Name: "updated"}
	if req.Status != nil {
		lead.Status = *req.Status
	}
	return &lead, nil
}
func (m *mockLeadRepo) DeleteLead(ctx context.Context, leadID int64) error {
	m.deleted = append(m.deleted, leadID)
	return nil
}

func newTestState() (*State, *mockClientRepo, *mockInquiryRepo, *mockEventRepo, *mockLeadRepo) {
	clients := &mockClientRepo{}
	inquiries := &mockInquiryRepo{}
	events := &mockEventRepo{}
	leads := &mockLeadRepo{}
	state := &State{
		Clients:   clients,
		Inquiries: inquiries,
		Events:    events,
		Leads:     leads,
		Logger:    logrus.New(),
		UserID:    "user-1",
	}
	return state, clients, inquiries, events, leads
}

func TestLoad_FetchesAllCollections(t *testing.T) {
	//Arrange
	state, clients, inquiries, events, leads := newTestState()
	clients.clients = []models.Client{{ID: 1}}
	inquiries.inquiries = []models.Inquiry{{ID: 2}}
	events.events = []models.Event{{ID: 3}}
	leads.leads = []models.Lead{{ID: 4}}

	//Act
	err := state.Load(context.Background())

	//Assert
	assert.NoError(t, err)
	assert.Len(t, state.ClientList, 1)
	assert.Len(t, state.InquiryList, 1)
	assert.Len(t, state.EventList, 1)
	assert.Len(t, state.LeadList, 1)
}

func TestToggleInquiryTask_BelowFullRefetchesInquiriesOnly(t *testing.T) {
	state, clients, inquiries, events, _ := newTestState()
	inquiries.toggleResp = &models.ToggleTaskResponse{
		Inquiry: &models.Inquiry{ID: 2, Progress: 50},
	}

	resp, err := state.ToggleInquiryTask(context.Background(), 2, "t1")

	assert.NoError(t, err)
	assert.False(t, resp.Promoted)
	assert.Equal(t, 1, inquiries.listCalls)
	assert.Equal(t, 0, events.listCalls)
	assert.Equal(t, 0, clients.listCalls)
}

func TestToggleInquiryTask_PromotionRefetchesEventsAndClients(t *testing.T) {
	state, clients, inquiries, events, _ := newTestState()
	inquiries.toggleResp = &models.ToggleTaskResponse{
		Promoted: true,
		Event:    &models.Event{ID: 3},
	}

	resp, err := state.ToggleInquiryTask(context.Background(), 2, "t1")

	assert.NoError(t, err)
	assert.True(t, resp.Promoted)
	assert.Equal(t, 1, inquiries.listCalls)
	assert.Equal(t, 1, events.listCalls)
	assert.Equal(t, 1, clients.listCalls)
}

func TestLeadMutations_PatchInPlace(t *testing.T) {
	state, _, _, _, leads := newTestState()
	leads.leads = []models.Lead{{ID: 5, Name: "Original", Status: models.LeadStatusGeneral}}
	assert.NoError(t, state.Load(context.Background()))

	_, err := state.AddLead(context.Background(), &models.CreateLeadRequest{Name: "New Lead"})
	assert.NoError(t, err)
	assert.Len(t, state.LeadList, 2)

	interested := models.LeadStatusInterested
	updated, err := state.UpdateLead(context.Background(), 5, &models.UpdateLeadRequest{Status: &interested})
	assert.NoError(t, err)
	assert.Equal(t, models.LeadStatusInterested, updated.Status)
	assert.Equal(t, models.LeadStatusInterested, state.LeadList[0].Status)

	assert.NoError(t, state.RemoveLead(context.Background(), 5))
	assert.Len(t, state.LeadList, 1)
	assert.Equal(t, int64(99), state.LeadList[0].ID)
}

func TestPromoteLead(t *testing.T) {
	//Arrange
	state, _, inquiries, _, leads := newTestState()
	leads.leads = []models.Lead{{
		ID:         5,
		Name:       "Chad Chapman",
		Phone:      "555-0100",
		Fraternity: "Alpha Beta",
		School:     "State U",
	}}
	assert.NoError(t, state.Load(context.Background()))

	//Act
	inq, err := state.PromoteLead(context.Background(), 5, &models.PromoteLeadRequest{
		InquiryDate: "2025-10-04",
		Budget:      3000,
	})

	//Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(7), inq.ID)
	// Contact data copied off the lead; fraternity/school fall back to it too.
	assert.Equal(t, "Chad Chapman", inquiries.created.ContactName)
	assert.Equal(t, "555-0100", inquiries.created.ContactPhone)
	assert.Equal(t, "Alpha Beta", inquiries.created.Fraternity)
	assert.Equal(t, "State U", inquiries.created.School)
	// Lead deleted only after the inquiry exists.
	assert.Equal(t, []int64{5}, leads.deleted)
	assert.Empty(t, state.LeadList)
}

func TestCalendarItems_MergedAndOrdered(t *testing.T) {
	state, _, _, _, _ := newTestState()
	state.InquiryList = []models.Inquiry{{
		ID: 1, Fraternity: "AB", School: "SU",
		InquiryDate: time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC),
	}}
	state.EventList = []models.Event{{
		ID: 2, Fraternity: "CD", School: "TU",
		EventDate: time.Date(2025, 10, 4, 21, 0, 0, 0, time.UTC),
		Status:    models.EventStatusConfirmed,
	}}

	items := state.CalendarItems()

	assert.Len(t, items, 2)
	assert.Equal(t, models.CalendarKindEvent, items[0].Kind)
	assert.Equal(t, "event-2", items[0].ID)
	assert.Equal(t, models.CalendarKindInquiry, items[1].Kind)
	assert.Equal(t, "inquiry-1", items[1].ID)
}
