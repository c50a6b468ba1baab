package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepdeck/models"
)

func TestCalendarCreateEvent(t *testing.T) {
	var got calendarEventRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/events", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(calendarEventResponse{EventID: "evt-42"})
	}))
	defer srv.Close()

	cal := NewCalendarService(srv.URL, "test-key")
	require.NotNil(t, cal)

	session := &models.ScheduledSession{
		ID:              "sched-1",
		InterviewType:   models.TypeTechnical,
		StartsAt:        time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
		Reminder:        true,
	}

	eventID, err := cal.CreateEvent(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "evt-42", eventID)
	assert.Equal(t, "sched-1", got.ExternalRef)
	assert.Equal(t, session.StartsAt.Add(45*time.Minute), got.EndsAt)
	assert.True(t, got.Reminder)
}

func TestCalendarCreateEventAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	cal := NewCalendarService(srv.URL, "test-key")
	_, err := cal.CreateEvent(context.Background(), &models.ScheduledSession{ID: "sched-1", StartsAt: time.Now()})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestCalendarDeleteEventToleratesNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DELETE", r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cal := NewCalendarService(srv.URL, "test-key")
	assert.NoError(t, cal.DeleteEvent(context.Background(), "evt-42"))
}

func TestNewCalendarServiceUnconfigured(t *testing.T) {
	assert.Nil(t, NewCalendarService("", "key"))
}
