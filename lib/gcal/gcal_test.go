package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crm/lib/apperrors"
	"crm/lib/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func sampleEvent() *models.Event {
	return &models.Event{
		ID:         42,
		Fraternity: "Alpha Beta",
		School:     "State U",
		Venue:      "Main Lawn",
		Capacity:   400,
		Budget:     3000,
		EventDate:  time.Date(2025, time.October, 4, 21, 30, 0, 0, time.Local),
		Stage:      "Small",
		Status:     models.EventStatusPending,
		Tasks: models.TaskList{
			{ID: "e1", Name: "Source Gates"},
			{ID: "e2", Name: "Paid(Full)"},
		},
	}
}

func TestBuildEventPayload(t *testing.T) {
	payload := BuildEventPayload(sampleEvent())

	assert.Equal(t, "Alpha Beta - State U", payload["summary"])
	assert.Equal(t, "Main Lawn", payload["location"])

	description := payload["description"].(string)
	assert.Contains(t, description, "Fraternity: Alpha Beta")
	assert.Contains(t, description, "School: State U")
	assert.Contains(t, description, "Capacity: 400")
	assert.Contains(t, description, "Budget: $3000.00")
	assert.Contains(t, description, "Status: Pending")
	assert.Contains(t, description, "Source Gates, Paid(Full)")

	start := payload["start"].(map[string]interface{})
	end := payload["end"].(map[string]interface{})
	startTime, err := time.Parse(time.RFC3339, start["dateTime"].(string))
	assert.NoError(t, err)
	endTime, err := time.Parse(time.RFC3339, end["dateTime"].(string))
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Hour, endTime.Sub(startTime))
}

func TestCreateEvent(t *testing.T) {
	//Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer the-token", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Alpha Beta - State U", payload["summary"])

		json.NewEncoder(w).Encode(map[string]string{"id": "gcal-1"})
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, Logger: logrus.New()}

	//Act
	raw, err := client.CreateEvent(context.Background(), "the-token", sampleEvent())

	//Assert
	assert.NoError(t, err)
	assert.Contains(t, string(raw), "gcal-1")
}

func TestListEvents_PassesTimeWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-10-01T00:00:00Z", r.URL.Query().Get("timeMin"))
		assert.Equal(t, "2025-11-01T00:00:00Z", r.URL.Query().Get("timeMax"))
		json.NewEncoder(w).Encode(map[string]interface{}{"items": []string{}})
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, Logger: logrus.New()}

	_, err := client.ListEvents(context.Background(), "the-token",
		"2025-10-01T00:00:00Z", "2025-11-01T00:00:00Z")

	assert.NoError(t, err)
}

func TestCreateEvent_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, Logger: logrus.New()}

	_, err := client.CreateEvent(context.Background(), "the-token", sampleEvent())

	assert.True(t, errors.Is(err, apperrors.ErrProviderAPI))
}
