package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres opens a pooled connection and creates the progress tables.
func ConnectPostgres(ctx context.Context, postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := InitProgressTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// InitProgressTables creates the progress tables if they don't exist
func InitProgressTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS student_progress (
			username VARCHAR(64) PRIMARY KEY,
			class VARCHAR(32) NOT NULL DEFAULT '',
			rp INTEGER NOT NULL DEFAULT 0,
			quizzes INTEGER NOT NULL DEFAULT 0,
			tier VARCHAR(32) NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Append-only attempt log
		`CREATE TABLE IF NOT EXISTS quiz_attempts (
			id UUID PRIMARY KEY,
			username VARCHAR(64) NOT NULL,
			quiz VARCHAR(255) NOT NULL,
			score INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			rp INTEGER NOT NULL,
			difficulty VARCHAR(16) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			display_time VARCHAR(64) NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_student_progress_rp ON student_progress(rp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_attempts_username_created_at ON quiz_attempts(username, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
