package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AnshRaj112/vikas-backend/internal/models"
)

// PostgresProgressBackend keeps aggregates in student_progress and the attempt
// log in quiz_attempts. Tables are created by database.InitProgressTables.
type PostgresProgressBackend struct {
	db *sql.DB
}

func NewPostgresProgressBackend(db *sql.DB) *PostgresProgressBackend {
	return &PostgresProgressBackend{db: db}
}

func (b *PostgresProgressBackend) Increment(ctx context.Context, seed models.StudentAggregate, rpDelta int, tierOf func(int) string) (agg models.StudentAggregate, err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return agg, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO student_progress (username, class, rp, quizzes, tier, avatar)
		 VALUES ($1, $2, 0, 0, $3, $4)
		 ON CONFLICT (username) DO NOTHING`,
		seed.Username, seed.Class, seed.Tier, seed.Avatar,
	)
	if err != nil {
		return agg, fmt.Errorf("seed progress: %w", err)
	}

	agg.Username = seed.Username
	err = tx.QueryRowContext(ctx,
		`SELECT class, rp, quizzes, avatar FROM student_progress WHERE username = $1 FOR UPDATE`,
		seed.Username,
	).Scan(&agg.Class, &agg.RP, &agg.Quizzes, &agg.Avatar)
	if err != nil {
		return agg, fmt.Errorf("lock progress: %w", err)
	}

	agg.RP += rpDelta
	agg.Quizzes++
	agg.Tier = tierOf(agg.RP)

	_, err = tx.ExecContext(ctx,
		`UPDATE student_progress SET rp = $2, quizzes = $3, tier = $4, updated_at = NOW() WHERE username = $1`,
		agg.Username, agg.RP, agg.Quizzes, agg.Tier,
	)
	if err != nil {
		return agg, fmt.Errorf("update progress: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return agg, err
	}
	return agg, nil
}

func (b *PostgresProgressBackend) GetAggregate(ctx context.Context, username string) (models.StudentAggregate, error) {
	agg := models.StudentAggregate{Username: username}
	err := b.db.QueryRowContext(ctx,
		`SELECT class, rp, quizzes, tier, avatar FROM student_progress WHERE username = $1`,
		username,
	).Scan(&agg.Class, &agg.RP, &agg.Quizzes, &agg.Tier, &agg.Avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StudentAggregate{}, ErrNotFound
	}
	if err != nil {
		return models.StudentAggregate{}, err
	}
	return agg, nil
}

func (b *PostgresProgressBackend) TopAggregates(ctx context.Context, limit int) ([]models.StudentAggregate, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT username, class, rp, quizzes, tier, avatar
		 FROM student_progress
		 ORDER BY rp DESC, username ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.StudentAggregate{}
	for rows.Next() {
		var agg models.StudentAggregate
		if err := rows.Scan(&agg.Username, &agg.Class, &agg.RP, &agg.Quizzes, &agg.Tier, &agg.Avatar); err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

func (b *PostgresProgressBackend) AppendAttempt(ctx context.Context, a models.QuizAttempt) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO quiz_attempts (id, username, quiz, score, total_questions, rp, difficulty, created_at, display_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Username, a.Quiz, a.Score, a.TotalQuestions, a.RP, a.Difficulty, a.Timestamp, a.DisplayTime,
	)
	return err
}

func (b *PostgresProgressBackend) ListAttempts(ctx context.Context, username string, limit int) ([]models.QuizAttempt, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, username, quiz, score, total_questions, rp, difficulty, created_at, display_time
		 FROM quiz_attempts
		 WHERE username = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		username, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.QuizAttempt{}
	for rows.Next() {
		var a models.QuizAttempt
		if err := rows.Scan(&a.ID, &a.Username, &a.Quiz, &a.Score, &a.TotalQuestions, &a.RP, &a.Difficulty, &a.Timestamp, &a.DisplayTime); err != nil {
			return nil, err
		}
		a.Timestamp = a.Timestamp.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
