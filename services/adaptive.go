package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"prepdeck/models"
)

// Rule names recorded on every recommendation so accuracy can be broken down
// per rule later.
const (
	RuleOnboarding   = "onboarding"
	RuleStepDown     = "step_down"
	RuleStepUp       = "step_up"
	RuleRotateStale  = "rotate_stale"
	RuleTargetWeak   = "target_weakest"
	RuleConsolidate  = "consolidate"
	ewmaAlpha        = 0.3
	weakStreakLimit  = 2
	strongStreakNeed = 3
)

// adaptiveStore is the slice of the repository the engine depends on.
type adaptiveStore interface {
	GetPerformanceProfile(ctx context.Context, userID, interviewType string) (*models.PerformanceProfile, error)
	GetPerformanceProfiles(ctx context.Context, userID string) ([]models.PerformanceProfile, error)
	SavePerformanceProfile(ctx context.Context, profile *models.PerformanceProfile) error
	CreateRecommendation(ctx context.Context, rec *models.Recommendation) error
	GetOpenRecommendation(ctx context.Context, userID string) (*models.Recommendation, error)
	ResolveRecommendation(ctx context.Context, id string, matched bool, at time.Time) error
}

// AdaptiveEngine maintains rolling performance profiles and produces
// next-session recommendations from an ordered set of heuristics.
type AdaptiveEngine struct {
	repo adaptiveStore
	cfg  AdaptiveConfig
}

func NewAdaptiveEngine(repo adaptiveStore, cfg AdaptiveConfig) *AdaptiveEngine {
	if cfg.MasteryThreshold <= 0 {
		cfg.MasteryThreshold = 80
	}
	if cfg.StruggleThreshold <= 0 {
		cfg.StruggleThreshold = 50
	}
	if cfg.StaleDays <= 0 {
		cfg.StaleDays = 14
	}
	if cfg.MinSessions <= 0 {
		cfg.MinSessions = 3
	}
	return &AdaptiveEngine{repo: repo, cfg: cfg}
}

// Config exposes the engine thresholds for the config endpoint.
func (e *AdaptiveEngine) Config() AdaptiveConfig {
	return e.cfg
}

// RecordCompletedSession folds a finished session's scores into the user's
// profile for that interview type. The update is idempotent per session:
// replaying the same session ID is a no-op. Sessions without scores are
// skipped entirely; their first profile update happens when feedback
// generation produces scores, so a score-less completion never counts as a
// zero-score session.
func (e *AdaptiveEngine) RecordCompletedSession(ctx context.Context, session *models.PracticeSession, scores []models.PerformanceScore) error {
	if len(scores) == 0 {
		slog.Debug("No scores for session yet, deferring profile update", "session_id", session.ID)
		return nil
	}
	overallScore := models.WeightedAverage(scores)

	profile, err := e.repo.GetPerformanceProfile(ctx, session.UserID, session.InterviewType)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		profile = &models.PerformanceProfile{
			UserID:        session.UserID,
			InterviewType: session.InterviewType,
			AvgScore:      overallScore,
		}
	} else if profile.LastSessionID == session.ID {
		slog.Debug("Profile already updated for session", "session_id", session.ID)
		return nil
	}

	updateProfile(profile, session, overallScore, e.cfg)

	if err := e.repo.SavePerformanceProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	slog.Info("Performance profile updated",
		"user_id", session.UserID,
		"interview_type", session.InterviewType,
		"avg_score", profile.AvgScore,
		"strong_streak", profile.StrongStreak,
		"weak_streak", profile.WeakStreak)
	return nil
}

// RecordAbandonedSession only bumps the abandonment counter; abandoned
// sessions carry no score and never move the rolling average.
func (e *AdaptiveEngine) RecordAbandonedSession(ctx context.Context, session *models.PracticeSession) error {
	profile, err := e.repo.GetPerformanceProfile(ctx, session.UserID, session.InterviewType)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		profile = &models.PerformanceProfile{
			UserID:        session.UserID,
			InterviewType: session.InterviewType,
			Difficulty:    session.Difficulty,
		}
	}
	profile.AbandonedCount++
	if err := e.repo.SavePerformanceProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// updateProfile applies one completed session to a rolling profile: an
// exponentially weighted average and variance, plus strong/weak streaks
// against the configured thresholds.
func updateProfile(p *models.PerformanceProfile, session *models.PracticeSession, score float64, cfg AdaptiveConfig) {
	if p.CompletedCount == 0 {
		p.AvgScore = score
		p.ScoreVariance = 0
	} else {
		delta := score - p.AvgScore
		p.AvgScore += ewmaAlpha * delta
		p.ScoreVariance = (1 - ewmaAlpha) * (p.ScoreVariance + ewmaAlpha*delta*delta)
	}

	p.LastScore = score
	p.Difficulty = clampDifficulty(session.Difficulty)
	p.CompletedCount++
	p.LastPracticed = session.StartedAt
	p.LastSessionID = session.ID

	switch {
	case score >= cfg.MasteryThreshold:
		p.StrongStreak++
		p.WeakStreak = 0
	case score < cfg.StruggleThreshold:
		p.WeakStreak++
		p.StrongStreak = 0
	default:
		p.StrongStreak = 0
		p.WeakStreak = 0
	}
}

// Recommend evaluates the heuristics over the user's profiles, persists the
// resulting recommendation and returns it. Any previously open recommendation
// is superseded (left unresolved).
func (e *AdaptiveEngine) Recommend(ctx context.Context, userID string) (*models.Recommendation, error) {
	profiles, err := e.repo.GetPerformanceProfiles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	rec := evaluateRules(profiles, time.Now(), e.cfg)
	rec.UserID = userID

	if err := e.repo.CreateRecommendation(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist recommendation: %w", err)
	}
	return rec, nil
}

// ResolveWithChoice compares the user's actual session choice against the open
// recommendation, if any, and records the outcome. A recommendation matches
// when both interview type and difficulty agree.
func (e *AdaptiveEngine) ResolveWithChoice(ctx context.Context, userID, interviewType string, difficulty int) (*models.Recommendation, bool, error) {
	rec, err := e.repo.GetOpenRecommendation(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load open recommendation: %w", err)
	}
	if rec == nil {
		return nil, false, nil
	}

	matched := rec.InterviewType == interviewType && rec.Difficulty == difficulty
	if err := e.repo.ResolveRecommendation(ctx, rec.ID, matched, time.Now()); err != nil {
		return nil, false, fmt.Errorf("failed to resolve recommendation: %w", err)
	}

	slog.Info("Recommendation resolved", "recommendation_id", rec.ID, "user_id", userID,
		"matched", matched, "chosen_type", interviewType, "chosen_difficulty", difficulty)
	return rec, matched, nil
}

// evaluateRules is the pure heart of the engine. Rules are checked in order;
// the first one that fires wins.
func evaluateRules(profiles []models.PerformanceProfile, now time.Time, cfg AdaptiveConfig) *models.Recommendation {
	// Rule 1: no history at all.
	if len(profiles) == 0 {
		return &models.Recommendation{
			InterviewType: models.TypeBehavioral,
			Difficulty:    2,
			Confidence:    0.25,
			Rule:          RuleOnboarding,
			Rationale:     "No practice history yet. Starting with a behavioral session at moderate difficulty to establish a baseline.",
		}
	}

	// Stable order: weakest average first so rule scans are deterministic.
	sorted := make([]models.PerformanceProfile, len(profiles))
	copy(sorted, profiles)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].AvgScore != sorted[j].AvgScore {
			return sorted[i].AvgScore < sorted[j].AvgScore
		}
		return sorted[i].InterviewType < sorted[j].InterviewType
	})

	var totalCompleted int
	for _, p := range sorted {
		totalCompleted += p.CompletedCount
	}

	// Rule 2: repeated struggling on a type steps difficulty down.
	for _, p := range sorted {
		if p.WeakStreak >= weakStreakLimit {
			target := clampDifficulty(p.Difficulty - 1)
			return &models.Recommendation{
				InterviewType: p.InterviewType,
				Difficulty:    target,
				Confidence:    confidence(0.9, p, cfg),
				Rule:          RuleStepDown,
				Rationale: fmt.Sprintf("%d %s sessions in a row scored under %.0f. Stepping difficulty down to %d to rebuild fundamentals.",
					p.WeakStreak, p.InterviewType, cfg.StruggleThreshold, target),
			}
		}
	}

	// Rule 3: a mastery streak earns a harder session.
	for _, p := range sorted {
		if p.StrongStreak >= strongStreakNeed && p.Difficulty < 5 {
			target := clampDifficulty(p.Difficulty + 1)
			return &models.Recommendation{
				InterviewType: p.InterviewType,
				Difficulty:    target,
				Confidence:    confidence(0.85, p, cfg),
				Rule:          RuleStepUp,
				Rationale: fmt.Sprintf("%d consecutive %s sessions above %.0f. Raising difficulty to %d to keep progressing.",
					p.StrongStreak, p.InterviewType, cfg.MasteryThreshold, target),
			}
		}
	}

	// Rule 4: rotate to a stale or never-practiced type. Unpracticed types
	// only come into play once there is enough overall history to branch out.
	staleCutoff := now.AddDate(0, 0, -cfg.StaleDays)
	byType := make(map[string]*models.PerformanceProfile, len(sorted))
	for i := range sorted {
		byType[sorted[i].InterviewType] = &sorted[i]
	}
	if totalCompleted >= cfg.MinSessions {
		for _, t := range models.InterviewTypes {
			if _, practiced := byType[t]; !practiced {
				return &models.Recommendation{
					InterviewType: t,
					Difficulty:    2,
					Confidence:    0.5,
					Rule:          RuleRotateStale,
					Rationale:     fmt.Sprintf("You have not practiced %s interviews yet. Rotating in a session at moderate difficulty for coverage.", t),
				}
			}
		}
	}
	for _, p := range sorted {
		if p.LastPracticed.Before(staleCutoff) {
			return &models.Recommendation{
				InterviewType: p.InterviewType,
				Difficulty:    clampDifficulty(p.Difficulty),
				Confidence:    confidence(0.6, p, cfg),
				Rule:          RuleRotateStale,
				Rationale: fmt.Sprintf("No %s practice in over %d days. Rotating it back in at difficulty %d to keep skills fresh.",
					p.InterviewType, cfg.StaleDays, clampDifficulty(p.Difficulty)),
			}
		}
	}

	// Rule 5: target the weakest type with enough samples to trust.
	for _, p := range sorted {
		if p.CompletedCount >= cfg.MinSessions && p.AvgScore < cfg.MasteryThreshold {
			return &models.Recommendation{
				InterviewType: p.InterviewType,
				Difficulty:    clampDifficulty(p.Difficulty),
				Confidence:    confidence(0.7, p, cfg),
				Rule:          RuleTargetWeak,
				Rationale: fmt.Sprintf("%s is currently your weakest area (rolling average %.0f). Focusing there at difficulty %d.",
					p.InterviewType, p.AvgScore, clampDifficulty(p.Difficulty)),
			}
		}
	}

	// Rule 6: nothing actionable; consolidate on the most recent type.
	recent := sorted[0]
	for _, p := range sorted {
		if p.LastPracticed.After(recent.LastPracticed) {
			recent = p
		}
	}
	return &models.Recommendation{
		InterviewType: recent.InterviewType,
		Difficulty:    clampDifficulty(recent.Difficulty),
		Confidence:    confidence(0.55, recent, cfg),
		Rule:          RuleConsolidate,
		Rationale: fmt.Sprintf("Performance is steady. Consolidating with another %s session at difficulty %d.",
			recent.InterviewType, clampDifficulty(recent.Difficulty)),
	}
}

// confidence scales a rule's base confidence by how much history backs it and
// dampens it when scores swing widely.
func confidence(base float64, p models.PerformanceProfile, cfg AdaptiveConfig) float64 {
	sample := float64(p.CompletedCount) / float64(2*cfg.MinSessions)
	if sample > 1 {
		sample = 1
	}
	spread := 1.0 / (1.0 + math.Sqrt(p.ScoreVariance)/50.0)
	return clampConfidence(base * sample * spread)
}

func clampDifficulty(d int) int {
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
