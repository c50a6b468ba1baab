package services

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	"prepdeck/repository"
	ws "prepdeck/websocket"
)

// Server holds all server dependencies
type Server struct {
	config *Config
	gormDB *repository.GORMRepository
	pgPool *pgxpool.Pool

	coachAI           *CoachAIService
	elevenLabsService *ElevenLabsService
	audioCache        *AudioCache
	calendarService   *CalendarService
	emailService      *EmailService
	verification      *VerificationService
	authService       *AuthService
	engine            *AdaptiveEngine
	tracker           *SessionTracker
	scheduleWorker    *ScheduleWorker
	liveHandler       *LivePracticeHandler
	rateLimiter       *RateLimiter

	analyticsRepo *repository.AnalyticsRepository

	authEndpoints      *AuthEndpoints
	sessionEndpoints   *SessionEndpoints
	questionEndpoints  *QuestionEndpoints
	adaptiveEndpoints  *AdaptiveEndpoints
	scheduleEndpoints  *ScheduleEndpoints
	jobEndpoints       *JobEndpoints
	analyticsEndpoints *AnalyticsEndpoints
	ttsEndpoints       *TTSEndpoints

	wsHub    *ws.Hub
	upgrader websocket.Upgrader
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, config.WebSocket.AllowedOrigins)
			},
		},
	}
}

// SetDatabase sets the ORM repository and the raw pgx pool.
func (s *Server) SetDatabase(db *repository.GORMRepository, pool *pgxpool.Pool) {
	s.gormDB = db
	s.pgPool = pool
}

// InitializeServices initializes all server services
func (s *Server) InitializeServices() error {
	// 60 requests per minute per client on expensive routes.
	s.rateLimiter = NewRateLimiter(60, time.Minute)

	if s.config.AI.GeminiAPIKey != "" {
		s.coachAI = NewCoachAIService(s.config.AI.GeminiAPIKey)
		slog.Info("Coach AI service initialized")
	}

	if s.config.AI.ElevenLabsKey != "" {
		s.elevenLabsService = NewElevenLabsService(s.config.AI.ElevenLabsKey)
		s.audioCache = NewAudioCache(s.config.AI.AudioCacheDir)
		slog.Info("ElevenLabs service initialized")
	}

	s.calendarService = NewCalendarService(s.config.Calendar.BaseURL, s.config.Calendar.APIKey)
	if s.calendarService != nil {
		slog.Info("Calendar service initialized")
	}

	if s.config.Email.SMTPHost != "" {
		s.emailService = NewEmailService(s.config.Email)
		slog.Info("Email service initialized")
	}

	if s.gormDB != nil {
		s.engine = NewAdaptiveEngine(s.gormDB, s.config.Adaptive)
		s.tracker = NewSessionTracker(s.gormDB, s.engine)
		s.scheduleWorker = NewScheduleWorker(s.gormDB)
		s.verification = NewVerificationService(s.gormDB, s.emailService, s.config.Email)
		slog.Info("Adaptive engine initialized", "min_sessions", s.config.Adaptive.MinSessions)
	}

	if s.config.JWT.Secret != "" && s.gormDB != nil {
		s.authService = NewAuthService(s.gormDB, s.config.JWT.Secret)
		s.authEndpoints = NewAuthEndpoints(s.authService, s.verification, s.rateLimiter)
		s.sessionEndpoints = NewSessionEndpoints(s.gormDB, s.engine, s.coachAI, s.tracker)
		s.questionEndpoints = NewQuestionEndpoints(s.gormDB, s.coachAI, s.rateLimiter)
		s.adaptiveEndpoints = NewAdaptiveEndpoints(s.gormDB, s.engine)
		s.scheduleEndpoints = NewScheduleEndpoints(s.gormDB, s.calendarService)
		s.jobEndpoints = NewJobEndpoints(s.gormDB)
		slog.Info("Authentication service initialized")
	}

	if s.pgPool != nil {
		s.analyticsRepo = repository.NewAnalyticsRepository(s.pgPool)
		if s.gormDB != nil {
			s.analyticsEndpoints = NewAnalyticsEndpoints(s.analyticsRepo, s.gormDB)
		}
		slog.Info("Analytics repository initialized")
	}

	if s.elevenLabsService != nil {
		s.ttsEndpoints = NewTTSEndpoints(s.elevenLabsService, s.audioCache)
	}

	s.liveHandler = NewLivePracticeHandler(s.gormDB, s.coachAI, s.elevenLabsService, s.audioCache, s.tracker)

	s.wsHub = ws.NewHub()
	go s.wsHub.Run()

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.apiV1Handler)

		if s.authService != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.authService.Middleware)
				r.Get("/ws", s.websocketHandlerFunc)
			})
		}

		if s.authEndpoints != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(s.rateLimiter.Middleware)
					s.authEndpoints.RegisterPublicRoutes(r)
				})
				r.Group(func(r chi.Router) {
					r.Use(s.authService.Middleware)
					s.authEndpoints.RegisterProtectedRoutes(r)
				})
			})
		}

		if s.authService != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.authService.Middleware)

				if s.sessionEndpoints != nil {
					s.sessionEndpoints.RegisterRoutes(r)
				}
				if s.questionEndpoints != nil {
					s.questionEndpoints.RegisterRoutes(r)
				}
				if s.adaptiveEndpoints != nil {
					s.adaptiveEndpoints.RegisterRoutes(r)
				}
				if s.scheduleEndpoints != nil {
					s.scheduleEndpoints.RegisterRoutes(r)
				}
				if s.jobEndpoints != nil {
					s.jobEndpoints.RegisterRoutes(r)
				}
				if s.analyticsEndpoints != nil {
					s.analyticsEndpoints.RegisterRoutes(r)
				}

				// TTS is expensive; rate limit it per user.
				if s.ttsEndpoints != nil {
					r.Group(func(r chi.Router) {
						r.Use(s.rateLimiter.Middleware)
						s.ttsEndpoints.RegisterRoutes(r)
					})
				}
			})
		}
	})

	return r
}

// Start starts the HTTP server and background workers.
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	if s.scheduleWorker != nil {
		go s.scheduleWorker.Run(workerCtx)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	stopWorkers()
	if s.tracker != nil {
		s.tracker.Stop()
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// CheckOrigin validates the origin of WebSocket connections to prevent CSRF attacks
func CheckOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	// If no allowed origins are configured, deny all requests for security
	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	allowedOrigins := strings.Split(allowedOriginsStr, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	for _, allowed := range allowedOrigins {
		if allowed == origin {
			slog.Info("WebSocket connection accepted", "origin", origin)
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"

	if s.analyticsRepo != nil {
		if err := s.analyticsRepo.Ping(r.Context()); err != nil {
			dbStatus = "down"
			status = "degraded"
		} else {
			dbStatus = "up"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `"}`))
}

func (s *Server) apiV1Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"API v1","version":"1.0.0"}`))
}

func (s *Server) websocketHandlerFunc(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		slog.Error("WebSocket connection failed - user not found in context")
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	// The connection must target an existing active practice session.
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	slog.Info("WebSocket connection established", "user_id", user.ID, "session_id", sessionID)

	client := s.wsHub.RegisterClient(conn, user.ID, sessionID)
	client.MessageHandler = func(c *ws.Client, messageBytes []byte) {
		s.liveHandler.HandleMessage(c, messageBytes)
	}

	go client.ReadPump()
	go client.WritePump()
	go s.liveHandler.HandleConnection(client)
}
