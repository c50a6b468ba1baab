package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepdeck/models"
)

// fakeAdaptiveStore keeps profiles and recommendations in memory so the
// engine's persistence paths can be exercised without a database.
type fakeAdaptiveStore struct {
	profiles map[string]*models.PerformanceProfile // keyed by interview type
	recs     []*models.Recommendation
	saves    int
}

func newFakeAdaptiveStore() *fakeAdaptiveStore {
	return &fakeAdaptiveStore{profiles: make(map[string]*models.PerformanceProfile)}
}

func (f *fakeAdaptiveStore) GetPerformanceProfile(_ context.Context, _, interviewType string) (*models.PerformanceProfile, error) {
	p, ok := f.profiles[interviewType]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakeAdaptiveStore) GetPerformanceProfiles(_ context.Context, _ string) ([]models.PerformanceProfile, error) {
	var out []models.PerformanceProfile
	for _, p := range f.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeAdaptiveStore) SavePerformanceProfile(_ context.Context, profile *models.PerformanceProfile) error {
	copied := *profile
	f.profiles[profile.InterviewType] = &copied
	f.saves++
	return nil
}

func (f *fakeAdaptiveStore) CreateRecommendation(_ context.Context, rec *models.Recommendation) error {
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeAdaptiveStore) GetOpenRecommendation(_ context.Context, _ string) (*models.Recommendation, error) {
	for _, r := range f.recs {
		if r.ResolvedAt == nil {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeAdaptiveStore) ResolveRecommendation(_ context.Context, id string, matched bool, at time.Time) error {
	for _, r := range f.recs {
		if r.ID == id && r.ResolvedAt == nil {
			r.ResolvedAt = &at
			r.Matched = &matched
		}
	}
	return nil
}

func testAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		MasteryThreshold:  80,
		StruggleThreshold: 50,
		StaleDays:         14,
		MinSessions:       3,
	}
}

// profile builds a recently practiced, streak-free profile.
func profile(interviewType string, difficulty int, avg float64, completed int) models.PerformanceProfile {
	return models.PerformanceProfile{
		InterviewType:  interviewType,
		Difficulty:     difficulty,
		AvgScore:       avg,
		CompletedCount: completed,
		LastPracticed:  time.Now().Add(-24 * time.Hour),
	}
}

func allTypesProfiles(avg float64) []models.PerformanceProfile {
	var profiles []models.PerformanceProfile
	for _, t := range models.InterviewTypes {
		profiles = append(profiles, profile(t, 3, avg, 5))
	}
	return profiles
}

func TestEvaluateRulesOnboarding(t *testing.T) {
	rec := evaluateRules(nil, time.Now(), testAdaptiveConfig())

	require.NotNil(t, rec)
	assert.Equal(t, RuleOnboarding, rec.Rule)
	assert.Equal(t, models.TypeBehavioral, rec.InterviewType)
	assert.Equal(t, 2, rec.Difficulty)
	assert.InDelta(t, 0.25, rec.Confidence, 0.001)
}

func TestEvaluateRulesStepDown(t *testing.T) {
	p := profile(models.TypeTechnical, 3, 40, 6)
	p.WeakStreak = 2

	rec := evaluateRules([]models.PerformanceProfile{p}, time.Now(), testAdaptiveConfig())

	assert.Equal(t, RuleStepDown, rec.Rule)
	assert.Equal(t, models.TypeTechnical, rec.InterviewType)
	assert.Equal(t, 2, rec.Difficulty)
}

func TestEvaluateRulesStepDownClampsAtOne(t *testing.T) {
	p := profile(models.TypeTechnical, 1, 30, 6)
	p.WeakStreak = 3

	rec := evaluateRules([]models.PerformanceProfile{p}, time.Now(), testAdaptiveConfig())

	assert.Equal(t, RuleStepDown, rec.Rule)
	assert.Equal(t, 1, rec.Difficulty)
}

func TestEvaluateRulesStepUp(t *testing.T) {
	p := profile(models.TypeBehavioral, 3, 90, 6)
	p.StrongStreak = 3

	rec := evaluateRules([]models.PerformanceProfile{p}, time.Now(), testAdaptiveConfig())

	assert.Equal(t, RuleStepUp, rec.Rule)
	assert.Equal(t, models.TypeBehavioral, rec.InterviewType)
	assert.Equal(t, 4, rec.Difficulty)
}

func TestEvaluateRulesNoStepUpAtMaxDifficulty(t *testing.T) {
	p := profile(models.TypeBehavioral, 5, 90, 6)
	p.StrongStreak = 4

	rec := evaluateRules([]models.PerformanceProfile{p}, time.Now(), testAdaptiveConfig())

	assert.NotEqual(t, RuleStepUp, rec.Rule)
	assert.LessOrEqual(t, rec.Difficulty, 5)
}

func TestEvaluateRulesStepDownBeatsStepUp(t *testing.T) {
	weak := profile(models.TypeTechnical, 3, 40, 6)
	weak.WeakStreak = 2
	strong := profile(models.TypeBehavioral, 3, 90, 6)
	strong.StrongStreak = 3

	rec := evaluateRules([]models.PerformanceProfile{strong, weak}, time.Now(), testAdaptiveConfig())

	assert.Equal(t, RuleStepDown, rec.Rule)
	assert.Equal(t, models.TypeTechnical, rec.InterviewType)
}

func TestEvaluateRulesRotatesToUnpracticedType(t *testing.T) {
	// Only behavioral has history; enough total sessions to branch out.
	p := profile(models.TypeBehavioral, 3, 85, 5)

	rec := evaluateRules([]models.PerformanceProfile{p}, time.Now(), testAdaptiveConfig())

	assert.Equal(t, RuleRotateStale, rec.Rule)
	assert.Equal(t, models.TypeTechnical, rec.InterviewType) // first unpracticed in canonical order
	assert.Equal(t, 2, rec.Difficulty)
	assert.InDelta(t, 0.5, rec.Confidence, 0.001)
}

func TestEvaluateRulesNoRotationBeforeMinSessions(t *testing.T) {
	p := profile(models.TypeBehavioral, 3, 85, 2)

	rec := evaluateRules([]models.PerformanceProfile{p}, time.Now(), testAdaptiveConfig())

	// Too little history to branch out to new types.
	assert.NotEqual(t, models.TypeTechnical, rec.InterviewType)
	assert.Equal(t, models.TypeBehavioral, rec.InterviewType)
}

func TestEvaluateRulesRotatesStaleType(t *testing.T) {
	profiles := allTypesProfiles(85)
	profiles[2].LastPracticed = time.Now().AddDate(0, 0, -20)

	rec := evaluateRules(profiles, time.Now(), testAdaptiveConfig())

	assert.Equal(t, RuleRotateStale, rec.Rule)
	assert.Equal(t, profiles[2].InterviewType, rec.InterviewType)
}

func TestEvaluateRulesTargetsWeakest(t *testing.T) {
	profiles := allTypesProfiles(85)
	profiles[1].AvgScore = 60
	profiles[3].AvgScore = 70

	rec := evaluateRules(profiles, time.Now(), testAdaptiveConfig())

	assert.Equal(t, RuleTargetWeak, rec.Rule)
	assert.Equal(t, profiles[1].InterviewType, rec.InterviewType)
}

func TestEvaluateRulesConsolidatesWhenAllStrong(t *testing.T) {
	profiles := allTypesProfiles(90)
	profiles[2].LastPracticed = time.Now().Add(-time.Hour)

	rec := evaluateRules(profiles, time.Now(), testAdaptiveConfig())

	assert.Equal(t, RuleConsolidate, rec.Rule)
	assert.Equal(t, profiles[2].InterviewType, rec.InterviewType)
}

func TestUpdateProfileFirstSession(t *testing.T) {
	cfg := testAdaptiveConfig()
	p := &models.PerformanceProfile{UserID: "u1", InterviewType: models.TypeTechnical}
	session := &models.PracticeSession{
		ID:            "s1",
		UserID:        "u1",
		InterviewType: models.TypeTechnical,
		Difficulty:    3,
		StartedAt:     time.Now(),
	}

	updateProfile(p, session, 72, cfg)

	assert.Equal(t, 72.0, p.AvgScore)
	assert.Equal(t, 0.0, p.ScoreVariance)
	assert.Equal(t, 1, p.CompletedCount)
	assert.Equal(t, "s1", p.LastSessionID)
	assert.Equal(t, 0, p.StrongStreak)
	assert.Equal(t, 0, p.WeakStreak)
}

func TestUpdateProfileEWMA(t *testing.T) {
	cfg := testAdaptiveConfig()
	p := &models.PerformanceProfile{
		AvgScore:       70,
		CompletedCount: 4,
	}
	session := &models.PracticeSession{ID: "s2", Difficulty: 3, StartedAt: time.Now()}

	updateProfile(p, session, 90, cfg)

	// avg = 70 + 0.3*(90-70) = 76
	assert.InDelta(t, 76.0, p.AvgScore, 0.001)
	// variance = 0.7 * (0 + 0.3*400) = 84
	assert.InDelta(t, 84.0, p.ScoreVariance, 0.001)
	assert.Equal(t, 90.0, p.LastScore)
	assert.Equal(t, 5, p.CompletedCount)
}

func TestUpdateProfileStreaks(t *testing.T) {
	cfg := testAdaptiveConfig()
	p := &models.PerformanceProfile{AvgScore: 70, CompletedCount: 1, WeakStreak: 1}
	session := &models.PracticeSession{Difficulty: 2, StartedAt: time.Now()}

	updateProfile(p, session, 85, cfg)
	assert.Equal(t, 1, p.StrongStreak)
	assert.Equal(t, 0, p.WeakStreak)

	updateProfile(p, session, 40, cfg)
	assert.Equal(t, 0, p.StrongStreak)
	assert.Equal(t, 1, p.WeakStreak)

	updateProfile(p, session, 65, cfg)
	assert.Equal(t, 0, p.StrongStreak)
	assert.Equal(t, 0, p.WeakStreak)
}

func TestConfidenceScaling(t *testing.T) {
	cfg := testAdaptiveConfig()

	// Full sample, zero variance: confidence equals the base.
	full := models.PerformanceProfile{CompletedCount: 6}
	assert.InDelta(t, 0.9, confidence(0.9, full, cfg), 0.001)

	// Half the sample halves the confidence.
	half := models.PerformanceProfile{CompletedCount: 3}
	assert.InDelta(t, 0.45, confidence(0.9, half, cfg), 0.001)

	// High variance dampens it further.
	noisy := models.PerformanceProfile{CompletedCount: 6, ScoreVariance: 2500}
	assert.Less(t, confidence(0.9, noisy, cfg), 0.5)

	// Never outside [0, 1].
	assert.GreaterOrEqual(t, confidence(0.9, models.PerformanceProfile{}, cfg), 0.0)
	assert.LessOrEqual(t, confidence(5.0, full, cfg), 1.0)
}

func TestClampDifficulty(t *testing.T) {
	assert.Equal(t, 1, clampDifficulty(0))
	assert.Equal(t, 1, clampDifficulty(-3))
	assert.Equal(t, 3, clampDifficulty(3))
	assert.Equal(t, 5, clampDifficulty(9))
}

func TestRecordCompletedSessionIdempotent(t *testing.T) {
	store := newFakeAdaptiveStore()
	engine := NewAdaptiveEngine(store, testAdaptiveConfig())
	session := &models.PracticeSession{
		ID:            "s1",
		UserID:        "u1",
		InterviewType: models.TypeTechnical,
		Difficulty:    3,
		StartedAt:     time.Now(),
	}
	scores := []models.PerformanceScore{{Score: 90, MaxScore: 100, Weight: 1}}

	require.NoError(t, engine.RecordCompletedSession(context.Background(), session, scores))
	require.NoError(t, engine.RecordCompletedSession(context.Background(), session, scores))

	assert.Equal(t, 1, store.saves)
	p := store.profiles[models.TypeTechnical]
	require.NotNil(t, p)
	assert.Equal(t, 1, p.CompletedCount)
	assert.InDelta(t, 90.0, p.AvgScore, 0.001)
}

func TestRecordCompletedSessionSkipsWithoutScores(t *testing.T) {
	store := newFakeAdaptiveStore()
	engine := NewAdaptiveEngine(store, testAdaptiveConfig())
	session := &models.PracticeSession{
		ID:            "s1",
		UserID:        "u1",
		InterviewType: models.TypeTechnical,
		Difficulty:    3,
		StartedAt:     time.Now(),
	}

	// Completing without scores must not fold a zero into the average or
	// claim the session ID, so the later feedback-driven update still lands.
	require.NoError(t, engine.RecordCompletedSession(context.Background(), session, nil))
	assert.Equal(t, 0, store.saves)
	assert.Empty(t, store.profiles)

	scores := []models.PerformanceScore{{Score: 85, MaxScore: 100, Weight: 1}}
	require.NoError(t, engine.RecordCompletedSession(context.Background(), session, scores))

	p := store.profiles[models.TypeTechnical]
	require.NotNil(t, p)
	assert.Equal(t, 1, p.CompletedCount)
	assert.InDelta(t, 85.0, p.AvgScore, 0.001)
	assert.Equal(t, 85.0, p.LastScore)
	assert.Equal(t, 0, p.WeakStreak)
}

func TestResolveWithChoiceAtMostOnce(t *testing.T) {
	store := newFakeAdaptiveStore()
	store.recs = append(store.recs, &models.Recommendation{
		ID:            "r1",
		UserID:        "u1",
		InterviewType: models.TypeTechnical,
		Difficulty:    3,
	})
	engine := NewAdaptiveEngine(store, testAdaptiveConfig())

	rec, matched, err := engine.ResolveWithChoice(context.Background(), "u1", models.TypeTechnical, 3)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, matched)
	require.NotNil(t, store.recs[0].ResolvedAt)
	require.NotNil(t, store.recs[0].Matched)
	assert.True(t, *store.recs[0].Matched)

	// Resolved once, the recommendation is closed; a second choice on the
	// same one is a no-op rather than a flip of the outcome.
	rec, matched, err = engine.ResolveWithChoice(context.Background(), "u1", models.TypeBehavioral, 1)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.False(t, matched)
	assert.True(t, *store.recs[0].Matched)
}

func TestWeightedAverage(t *testing.T) {
	scores := []models.PerformanceScore{
		{Score: 80, MaxScore: 100, Weight: 1},
		{Score: 40, MaxScore: 100, Weight: 1},
	}
	assert.InDelta(t, 60.0, models.WeightedAverage(scores), 0.001)

	weighted := []models.PerformanceScore{
		{Score: 100, MaxScore: 100, Weight: 3},
		{Score: 0, MaxScore: 100, Weight: 1},
	}
	assert.InDelta(t, 75.0, models.WeightedAverage(weighted), 0.001)

	assert.Equal(t, 0.0, models.WeightedAverage(nil))
}
