package repository

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalyticsRepository runs the dashboard aggregation queries over a raw pgx
// pool. The aggregates are plain SQL rather than ORM chains so the grouping
// happens in one round trip.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// Ping reports database reachability for the health endpoint.
func (r *AnalyticsRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// SessionCounts groups the user's sessions by status.
func (r *AnalyticsRepository) SessionCounts(ctx context.Context, userID string) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM practice_sessions
		WHERE user_id = $1 AND deleted_at IS NULL
		GROUP BY status`, userID)
	if err != nil {
		slog.Error("Failed to query session counts", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// TypeAverage is one row of the per-type score aggregate.
type TypeAverage struct {
	InterviewType string  `json:"interview_type"`
	Sessions      int64   `json:"sessions"`
	AvgScore      float64 `json:"avg_score"`
	BestScore     float64 `json:"best_score"`
}

// TypeAverages returns the average weighted session score per interview type.
func (r *AnalyticsRepository) TypeAverages(ctx context.Context, userID string) ([]TypeAverage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.interview_type,
		       COUNT(DISTINCT s.id),
		       COALESCE(AVG(p.score / NULLIF(p.max_score, 0) * 100), 0),
		       COALESCE(MAX(p.score / NULLIF(p.max_score, 0) * 100), 0)
		FROM practice_sessions s
		JOIN performance_scores p ON p.session_id = s.id AND p.deleted_at IS NULL
		WHERE s.user_id = $1 AND s.status = 'completed' AND s.deleted_at IS NULL
		GROUP BY s.interview_type`, userID)
	if err != nil {
		slog.Error("Failed to query type averages", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	var averages []TypeAverage
	for rows.Next() {
		var ta TypeAverage
		if err := rows.Scan(&ta.InterviewType, &ta.Sessions, &ta.AvgScore, &ta.BestScore); err != nil {
			return nil, err
		}
		averages = append(averages, ta)
	}
	return averages, rows.Err()
}

// PracticeStreakDays counts consecutive calendar days, ending today, with at
// least one completed session.
func (r *AnalyticsRepository) PracticeStreakDays(ctx context.Context, userID string) (int, error) {
	var streak int
	err := r.pool.QueryRow(ctx, `
		WITH days AS (
			SELECT DISTINCT DATE(started_at) AS day
			FROM practice_sessions
			WHERE user_id = $1 AND status = 'completed' AND deleted_at IS NULL
		),
		numbered AS (
			SELECT day, ROW_NUMBER() OVER (ORDER BY day DESC) AS rn
			FROM days
		)
		SELECT COUNT(*)
		FROM numbered
		WHERE day = CURRENT_DATE - (rn - 1)::int`, userID).Scan(&streak)
	if err != nil {
		slog.Error("Failed to query practice streak", "error", err, "user_id", userID)
		return 0, err
	}
	return streak, nil
}
