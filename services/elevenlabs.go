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
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

type ElevenLabsService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type ElevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func NewElevenLabsService(apiKey string) *ElevenLabsService {
	return &ElevenLabsService{
		apiKey:  apiKey,
		baseURL: elevenLabsBaseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// TextToSpeech synthesizes the coach's line with the given voice. The caller
// owns the returned reader.
func (e *ElevenLabsService) TextToSpeech(ctx context.Context, text, voiceID string) (io.ReadCloser, error) {
	request := ElevenLabsRequest{
		Text:    text,
		ModelID: "eleven_turbo_v2", // Fast model for real-time conversation
		VoiceSettings: VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := e.baseURL + "/v1/text-to-speech/" + voiceID
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("elevenlabs API error: %d - %s", resp.StatusCode, string(body))
	}

	slog.Info("Generated audio from ElevenLabs", "text_length", len(text), "voice_id", voiceID)
	return resp.Body, nil
}
