package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"prepdeck/models"
)

// CalendarService mirrors scheduled sessions to an external calendar
// provider. Mirror failures are never fatal to the local write; callers log
// and mark the row as unsynced.
type CalendarService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type calendarEventRequest struct {
	Title           string    `json:"title"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Reminder        bool      `json:"reminder"`
	ExternalRef     string    `json:"external_ref"`
	ExternalRefKind string    `json:"external_ref_kind"`
}

type calendarEventResponse struct {
	EventID string `json:"event_id"`
}

func NewCalendarService(baseURL, apiKey string) *CalendarService {
	if baseURL == "" {
		return nil
	}
	return &CalendarService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateEvent registers the scheduled session with the calendar provider and
// returns the provider's event ID.
func (c *CalendarService) CreateEvent(ctx context.Context, s *models.ScheduledSession) (string, error) {
	request := calendarEventRequest{
		Title:           fmt.Sprintf("Interview practice: %s", s.InterviewType),
		StartsAt:        s.StartsAt,
		EndsAt:          s.EndsAt(),
		Reminder:        s.Reminder,
		ExternalRef:     s.ID,
		ExternalRefKind: "scheduled_session",
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/events"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("calendar API error: %d - %s", resp.StatusCode, string(body))
	}

	var event calendarEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	slog.Info("Calendar event created", "event_id", event.EventID, "session_id", s.ID)
	return event.EventID, nil
}

// DeleteEvent removes a previously mirrored event.
func (c *CalendarService) DeleteEvent(ctx context.Context, eventID string) error {
	url := c.baseURL + "/v1/events/" + eventID
	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("calendar API error: %d - %s", resp.StatusCode, string(body))
	}

	slog.Info("Calendar event deleted", "event_id", eventID)
	return nil
}
