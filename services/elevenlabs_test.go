package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElevenLabsTextToSpeech(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("xi-api-key"))

		var req ElevenLabsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello candidate", req.Text)
		assert.Equal(t, "eleven_turbo_v2", req.ModelID)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("mp3-audio"))
	}))
	defer srv.Close()

	svc := NewElevenLabsService("secret")
	svc.baseURL = srv.URL

	body, err := svc.TextToSpeech(context.Background(), "hello candidate", "voice-1")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "mp3-audio", string(data))
}

func TestElevenLabsTextToSpeechError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := NewElevenLabsService("bad")
	svc.baseURL = srv.URL

	_, err := svc.TextToSpeech(context.Background(), "hello", "voice-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
