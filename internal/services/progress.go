package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/internal/models"
	"github.com/AnshRaj112/vikas-backend/pkg/rank"
)

const (
	DefaultStudentClass = "5"
	DefaultAttemptLimit = 50
	MaxAttemptLimit     = 200
	// attemptTimeLayout mirrors a browser's toLocaleString() in en-US.
	attemptTimeLayout = "1/2/2006, 3:04:05 PM"
)

// ProgressBackend stores per-student aggregates and the attempt log.
type ProgressBackend interface {
	// Increment creates the aggregate from seed when absent, then adds rpDelta
	// and one quiz and sets the tier to tierOf(new rp). It must be atomic per
	// username.
	Increment(ctx context.Context, seed models.StudentAggregate, rpDelta int, tierOf func(int) string) (models.StudentAggregate, error)
	// GetAggregate returns ErrNotFound when the student has no progress yet.
	GetAggregate(ctx context.Context, username string) (models.StudentAggregate, error)
	// TopAggregates returns up to limit aggregates ordered by rp, highest first,
	// with equal rp ordered by username ascending.
	TopAggregates(ctx context.Context, limit int) ([]models.StudentAggregate, error)
	AppendAttempt(ctx context.Context, a models.QuizAttempt) error
	// ListAttempts returns up to limit attempts of username, newest first.
	ListAttempts(ctx context.Context, username string, limit int) ([]models.QuizAttempt, error)
}

// ProgressStore tracks rank points and quiz attempts per student.
type ProgressStore struct {
	backend       ProgressBackend
	defaultAvatar string
	cache         *CacheService
	log           *zap.Logger
	now           func() time.Time
}

func NewProgressStore(backend ProgressBackend, defaultAvatar string, log *zap.Logger) *ProgressStore {
	return &ProgressStore{backend: backend, defaultAvatar: defaultAvatar, log: log, now: time.Now}
}

var leaderboardCacheKey = CacheKey("leaderboard", "top")

// WithCache caches the leaderboard in c. Every rp update drops the cached copy.
func (p *ProgressStore) WithCache(c *CacheService) *ProgressStore {
	p.cache = c
	return p
}

// UpdateStudentRP adds rpEarned to the current student's aggregate, counting one
// more quiz and recomputing the tier. A student without an aggregate gets one
// seeded with rpEarned. With no current student the update is skipped and
// (nil, nil) is returned.
func (p *ProgressStore) UpdateStudentRP(ctx context.Context, current *models.CurrentStudent, rpEarned int) (*models.StudentAggregate, error) {
	if current == nil || current.Username == "" {
		p.log.Debug("no current student, progress update skipped")
		return nil, nil
	}

	seed := models.StudentAggregate{
		Username: current.Username,
		Class:    current.Class,
		Avatar:   current.Avatar,
		Tier:     rank.GetTier(0),
	}
	if seed.Class == "" {
		seed.Class = DefaultStudentClass
	}
	if seed.Avatar == "" {
		seed.Avatar = p.defaultAvatar
	}

	agg, err := p.backend.Increment(ctx, seed, rpEarned, rank.GetTier)
	if err != nil {
		return nil, fmt.Errorf("update progress for %s: %w", current.Username, err)
	}
	if p.cache != nil {
		if err := p.cache.Delete(ctx, leaderboardCacheKey); err != nil {
			p.log.Warn("leaderboard cache invalidation failed", zap.Error(err))
		}
	}
	return &agg, nil
}

// SaveQuizAttempt appends one attempt to the log. The log is never trimmed.
func (p *ProgressStore) SaveQuizAttempt(ctx context.Context, username, quiz string, score, totalQuestions, rpEarned int, difficulty string) (models.QuizAttempt, error) {
	if strings.TrimSpace(difficulty) == "" {
		difficulty = rank.Medium
	}
	now := p.now()
	attempt := models.QuizAttempt{
		ID:             uuid.NewString(),
		Username:       username,
		Quiz:           quiz,
		Score:          score,
		TotalQuestions: totalQuestions,
		RP:             rpEarned,
		Difficulty:     difficulty,
		Timestamp:      now.UTC(),
		DisplayTime:    now.Format(attemptTimeLayout),
	}
	if err := p.backend.AppendAttempt(ctx, attempt); err != nil {
		return models.QuizAttempt{}, fmt.Errorf("save attempt: %w", err)
	}
	quizCompletions.WithLabelValues(difficultyLabel(difficulty)).Inc()
	return attempt, nil
}

func (p *ProgressStore) Aggregate(ctx context.Context, username string) (models.StudentAggregate, error) {
	return p.backend.GetAggregate(ctx, username)
}

func (p *ProgressStore) Attempts(ctx context.Context, username string, limit int) ([]models.QuizAttempt, error) {
	return p.backend.ListAttempts(ctx, username, clampLimit(limit))
}

// Leaderboard returns up to limit aggregates ordered by rp. With a cache the
// top MaxAttemptLimit entries are cached once and sliced per request.
func (p *ProgressStore) Leaderboard(ctx context.Context, limit int) ([]models.StudentAggregate, error) {
	limit = clampLimit(limit)
	if p.cache == nil {
		return p.backend.TopAggregates(ctx, limit)
	}

	var top []models.StudentAggregate
	hit, err := p.cache.Get(ctx, leaderboardCacheKey, &top)
	if err != nil {
		p.log.Warn("leaderboard cache read failed", zap.Error(err))
	}
	if !hit {
		top, err = p.backend.TopAggregates(ctx, MaxAttemptLimit)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, leaderboardCacheKey, top); err != nil {
			p.log.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// difficultyLabel bounds the metric label set to the known difficulties.
func difficultyLabel(d string) string {
	switch d {
	case rank.Easy, rank.Medium, rank.Hard:
		return d
	}
	return "other"
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultAttemptLimit
	}
	if limit > MaxAttemptLimit {
		return MaxAttemptLimit
	}
	return limit
}
