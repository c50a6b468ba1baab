package services

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type TTSEndpoints struct {
	elevenLabs *ElevenLabsService
	audioCache *AudioCache
}

type SpeakRequest struct {
	Text          string `json:"text" validate:"required,max=2000"`
	InterviewType string `json:"interview_type" validate:"required,oneof=behavioral technical system_design case_study"`
}

func NewTTSEndpoints(elevenLabs *ElevenLabsService, audioCache *AudioCache) *TTSEndpoints {
	return &TTSEndpoints{elevenLabs: elevenLabs, audioCache: audioCache}
}

func (e *TTSEndpoints) RegisterRoutes(r chi.Router) {
	r.Post("/tts", e.SpeakHandler)
}

// SpeakHandler synthesizes coach audio and streams it back as MP3.
func (e *TTSEndpoints) SpeakHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	if e.elevenLabs == nil {
		writeError(w, http.StatusInternalServerError, "TTS service not configured")
		return
	}

	var req SpeakRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	voiceID := PickCoachVoice(user.ID, req.InterviewType)

	audioData, err := e.audioCache.GetOrGenerate(r.Context(), req.Text, voiceID, func() (io.ReadCloser, error) {
		return e.elevenLabs.TextToSpeech(r.Context(), req.Text, voiceID)
	})
	if err != nil {
		slog.Error("Failed to synthesize audio", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to synthesize audio")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audioData); err != nil {
		slog.Error("Failed to write audio response", "error", err)
	}
}
