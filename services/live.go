package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"prepdeck/models"
	"prepdeck/repository"
	ws "prepdeck/websocket"
)

// LivePracticeHandler routes websocket traffic for an active practice
// session: candidate answers in, coach replies (and optional audio) out.
type LivePracticeHandler struct {
	repo       *repository.GORMRepository
	coachAI    *CoachAIService
	elevenLabs *ElevenLabsService
	audioCache *AudioCache
	tracker    *SessionTracker
}

func NewLivePracticeHandler(repo *repository.GORMRepository, coachAI *CoachAIService, elevenLabs *ElevenLabsService, audioCache *AudioCache, tracker *SessionTracker) *LivePracticeHandler {
	return &LivePracticeHandler{
		repo:       repo,
		coachAI:    coachAI,
		elevenLabs: elevenLabs,
		audioCache: audioCache,
		tracker:    tracker,
	}
}

// HandleConnection opens the session with the coach's first prompt: the
// bank's first question when one is attached, otherwise an AI opener.
func (h *LivePracticeHandler) HandleConnection(client *ws.Client) {
	ctx := context.Background()

	session, err := h.repo.GetPracticeSessionWithDetails(ctx, client.SessionID, client.UserID)
	if err != nil || session == nil {
		slog.Error("Failed to load session for live practice", "session_id", client.SessionID, "error", err)
		client.SendMessage(ws.Message{Type: "error", Content: "Practice session not found"})
		return
	}
	if session.Status != models.SessionActive {
		client.SendMessage(ws.Message{Type: "error", Content: "Practice session is not active"})
		return
	}

	opener := "Welcome to your practice session. Let's get started."
	if session.BankID != nil {
		if questions, err := h.repo.GetQuestions(ctx, *session.BankID); err == nil && len(questions) > 0 {
			opener = opener + " " + questions[0].Prompt
		}
	} else if h.coachAI != nil {
		if reply, err := h.coachAI.GenerateCoachReply(ctx, session, nil, ""); err == nil && strings.TrimSpace(reply) != "" {
			opener = reply
		}
	}

	h.sendCoachTurn(ctx, client, session, opener, len(session.Transcripts))
}

// HandleMessage processes one incoming websocket frame.
func (h *LivePracticeHandler) HandleMessage(client *ws.Client, messageBytes []byte) {
	var msg ws.Message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		slog.Error("Failed to unmarshal WebSocket message", "error", err)
		return
	}

	slog.Info("WebSocket message received", "type", msg.Type, "user_id", client.UserID, "session_id", client.SessionID)

	switch msg.Type {
	case "answer":
		h.handleAnswer(client, msg.Content)
	case "end_session":
		client.SendMessage(ws.Message{
			Type:    "end_session",
			Content: "That wraps up our session. Your feedback is being prepared.",
		})
		// Short delay so the farewell reaches the client before close.
		go func() {
			<-time.After(200 * time.Millisecond)
			client.Conn.Close()
		}()
	default:
		slog.Warn("Unknown message type", "type", msg.Type, "session_id", client.SessionID)
	}
}

func (h *LivePracticeHandler) handleAnswer(client *ws.Client, content string) {
	ctx := context.Background()

	session, err := h.repo.GetPracticeSessionWithDetails(ctx, client.SessionID, client.UserID)
	if err != nil || session == nil {
		client.SendMessage(ws.Message{Type: "error", Content: "Practice session not found"})
		return
	}
	if session.Status != models.SessionActive {
		client.SendMessage(ws.Message{Type: "error", Content: "Practice session is not active"})
		return
	}

	if h.tracker != nil {
		h.tracker.Touch(session.ID)
	}

	// Re-read turns so the order survives reconnects mid-session.
	turns, err := h.repo.GetSessionTurns(ctx, session.ID)
	if err != nil {
		turns = session.Transcripts
	}

	turnOrder := len(turns)
	candidateTurn := models.SessionTurn{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		TurnOrder: turnOrder,
		Speaker:   models.SpeakerCandidate,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := h.repo.CreateSessionTurn(ctx, &candidateTurn); err != nil {
		slog.Error("Failed to store candidate turn", "error", err, "session_id", session.ID)
	}
	turns = append(turns, candidateTurn)

	if h.coachAI == nil {
		client.SendMessage(ws.Message{Type: "error", Content: "Coach is unavailable"})
		return
	}

	reply, err := h.coachAI.GenerateCoachReply(ctx, session, turns, "")
	if err != nil {
		slog.Error("Failed to generate coach reply", "error", err, "session_id", session.ID)
		client.SendMessage(ws.Message{Type: "error", Content: "Coach is unavailable"})
		return
	}

	h.sendCoachTurn(ctx, client, session, reply, turnOrder+1)
}

func (h *LivePracticeHandler) sendCoachTurn(ctx context.Context, client *ws.Client, session *models.PracticeSession, content string, turnOrder int) {
	coachTurn := models.SessionTurn{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		TurnOrder: turnOrder,
		Speaker:   models.SpeakerCoach,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := h.repo.CreateSessionTurn(ctx, &coachTurn); err != nil {
		slog.Error("Failed to store coach turn", "error", err, "session_id", session.ID)
	}

	client.SendMessage(ws.Message{Type: "coach", Content: content})

	if h.elevenLabs == nil || h.audioCache == nil {
		return
	}

	voiceID := PickCoachVoice(session.UserID, session.InterviewType)
	audioData, err := h.audioCache.GetOrGenerate(ctx, content, voiceID, func() (io.ReadCloser, error) {
		return h.elevenLabs.TextToSpeech(ctx, content, voiceID)
	})
	if err != nil {
		slog.Warn("Failed to synthesize coach audio", "error", err, "session_id", session.ID)
		return
	}

	client.SendMessage(ws.Message{
		Type:            "audio",
		AudioDataBase64: base64.StdEncoding.EncodeToString(audioData),
	})
}
