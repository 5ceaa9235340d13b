package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/vikas-backend/internal/models"
)

const (
	progressKeyPrefix     = "progress:student:"
	attemptsKeyPrefix     = "progress:attempts:"
	leaderboardKey        = "progress:leaderboard"
	maxProgressTxAttempts = 10
)

// ErrProgressContention is returned when an aggregate kept changing under every
// optimistic transaction attempt.
var ErrProgressContention = errors.New("progress update contention")

// RedisProgressBackend stores aggregates as hashes, attempts as JSON lists and
// ranks students in a sorted set.
type RedisProgressBackend struct {
	client *redis.Client
}

func NewRedisProgressBackend(client *redis.Client) *RedisProgressBackend {
	return &RedisProgressBackend{client: client}
}

func (b *RedisProgressBackend) Increment(ctx context.Context, seed models.StudentAggregate, rpDelta int, tierOf func(int) string) (models.StudentAggregate, error) {
	key := progressKeyPrefix + seed.Username
	var out models.StudentAggregate

	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		agg := seed
		agg.RP, agg.Quizzes = 0, 0
		if len(fields) > 0 {
			agg = decodeAggregate(seed.Username, fields)
		}
		agg.RP += rpDelta
		agg.Quizzes++
		agg.Tier = tierOf(agg.RP)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, encodeAggregate(agg))
			pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: -float64(agg.RP), Member: agg.Username})
			return nil
		})
		if err == nil {
			out = agg
		}
		return err
	}

	for i := 0; i < maxProgressTxAttempts; i++ {
		err := b.client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return models.StudentAggregate{}, err
	}
	return models.StudentAggregate{}, ErrProgressContention
}

func (b *RedisProgressBackend) GetAggregate(ctx context.Context, username string) (models.StudentAggregate, error) {
	fields, err := b.client.HGetAll(ctx, progressKeyPrefix+username).Result()
	if err != nil {
		return models.StudentAggregate{}, err
	}
	if len(fields) == 0 {
		return models.StudentAggregate{}, ErrNotFound
	}
	return decodeAggregate(username, fields), nil
}

// TopAggregates reads the leaderboard set, which is scored by negated rp so
// that an ascending range breaks rp ties by username like the other backends.
func (b *RedisProgressBackend) TopAggregates(ctx context.Context, limit int) ([]models.StudentAggregate, error) {
	names, err := b.client.ZRange(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []models.StudentAggregate{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(names))
	_, err = b.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range names {
			cmds[i] = pipe.HGetAll(ctx, progressKeyPrefix+name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.StudentAggregate, 0, len(names))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		out = append(out, decodeAggregate(names[i], fields))
	}
	return out, nil
}

func (b *RedisProgressBackend) AppendAttempt(ctx context.Context, a models.QuizAttempt) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return b.client.LPush(ctx, attemptsKeyPrefix+a.Username, payload).Err()
}

func (b *RedisProgressBackend) ListAttempts(ctx context.Context, username string, limit int) ([]models.QuizAttempt, error) {
	raw, err := b.client.LRange(ctx, attemptsKeyPrefix+username, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.QuizAttempt, 0, len(raw))
	for _, item := range raw {
		var a models.QuizAttempt
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("decode attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func encodeAggregate(agg models.StudentAggregate) map[string]interface{} {
	return map[string]interface{}{
		"class":   agg.Class,
		"rp":      agg.RP,
		"quizzes": agg.Quizzes,
		"tier":    agg.Tier,
		"avatar":  agg.Avatar,
	}
}

func decodeAggregate(username string, fields map[string]string) models.StudentAggregate {
	rp, _ := strconv.Atoi(fields["rp"])
	quizzes, _ := strconv.Atoi(fields["quizzes"])
	return models.StudentAggregate{
		Username: username,
		Class:    fields["class"],
		RP:       rp,
		Quizzes:  quizzes,
		Tier:     fields["tier"],
		Avatar:   fields["avatar"],
	}
}
