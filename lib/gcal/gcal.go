// Package gcal is a thin Google Calendar v3 client. All calls take an access
// token already freshened by the oauth broker.
package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crm/lib/apperrors"
	"crm/lib/models"
	"crm/lib/util"

	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Fixed slot length for booked events on the calendar.
const eventDuration = 2 * time.Hour

// Client calls the Calendar API for the user's primary calendar.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Logger  *logrus.Logger
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return defaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// BuildEventPayload maps a CRM event onto the provider event shape: summary,
// location, a free-text description enumerating the booking details, and a
// fixed two-hour slot in the local timezone.
func BuildEventPayload(ev *models.Event) map[string]interface{} {
	start := ev.EventDate
	end := start.Add(eventDuration)

	description := fmt.Sprintf(
		"Fraternity: %s\nSchool: %s\nCapacity: %d\nBudget: $%.2f\nStage: %s\nStatus: %s\nTasks: %s",
		ev.Fraternity, ev.School, ev.Capacity, ev.Budget,
		util.ConditionalString(ev.Stage != "", ev.Stage, "None"),
		ev.Status, strings.Join(ev.Tasks.Names(), ", "),
	)

	return map[string]interface{}{
		"summary":     fmt.Sprintf("%s - %s", ev.Fraternity, ev.School),
		"location":    ev.Venue,
		"description": description,
		"start": map[string]interface{}{
			"dateTime": start.Format(time.RFC3339),
			"timeZone": start.Location().String(),
		},
		"end": map[string]interface{}{
			"dateTime": end.Format(time.RFC3339),
			"timeZone": end.Location().String(),
		},
	}
}

// CreateEvent inserts the event into the user's primary calendar and returns
// the provider-shaped JSON.
func (c *Client) CreateEvent(ctx context.Context, accessToken string, ev *models.Event) (json.RawMessage, error) {
	body, err := json.Marshal(BuildEventPayload(ev))
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL() + "/calendars/primary/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "create calendar event")
}

// ListEvents fetches the user's primary calendar entries, passing timeMin and
// timeMax through when set (RFC3339).
func (c *Client) ListEvents(ctx context.Context, accessToken, timeMin, timeMax string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	if timeMin != "" {
		params.Set("timeMin", timeMin)
	}
	if timeMax != "" {
		params.Set("timeMax", timeMax)
	}

	endpoint := c.baseURL() + "/calendars/primary/events?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return c.do(req, "list calendar events")
}

func (c *Client) do(req *http.Request, operation string) (json.RawMessage, error) {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrProviderAPI, operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading response: %v", apperrors.ErrProviderAPI, operation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.Logger.WithFields(logrus.Fields{
			"operation": operation,
			"status":    resp.StatusCode,
		}).Error("Google Calendar API call failed")
		return nil, fmt.Errorf("%w: %s returned %d", apperrors.ErrProviderAPI, operation, resp.StatusCode)
	}
	return json.RawMessage(body), nil
}
