package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/internal/models"
	"github.com/AnshRaj112/vikas-backend/pkg/rank"
)

type QuizInput struct {
	QuizName       string
	Score          int
	TotalQuestions int
	Difficulty     string
}

type QuizResult struct {
	RPEarned  int
	Student   *models.Student
	Aggregate *models.StudentAggregate
	Attempt   models.QuizAttempt
}

// QuizService records a finished quiz against the student record and the
// progress store.
type QuizService struct {
	students StudentStore
	progress *ProgressStore
	log      *zap.Logger
}

func NewQuizService(students StudentStore, progress *ProgressStore, log *zap.Logger) *QuizService {
	return &QuizService{students: students, progress: progress, log: log}
}

// Complete scores the quiz, adds the points to the student's record and
// aggregate, and appends the attempt to the log.
func (q *QuizService) Complete(ctx context.Context, studentID string, in QuizInput) (*QuizResult, error) {
	earned, err := rank.CalculateRP(in.Score, in.TotalQuestions, in.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	st, err := q.students.ApplyQuizResult(ctx, studentID, in.QuizName, earned)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("apply quiz result: %w", err)
	}

	agg, err := q.progress.UpdateStudentRP(ctx, &models.CurrentStudent{
		Username: st.Username,
		Class:    st.Class,
		Avatar:   st.ProfilePicture,
	}, earned)
	if err != nil {
		q.logPartial(studentID, st.Username, in.QuizName, earned, "aggregate", err)
		return nil, err
	}

	attempt, err := q.progress.SaveQuizAttempt(ctx, st.Username, in.QuizName, in.Score, in.TotalQuestions, earned, in.Difficulty)
	if err != nil {
		q.logPartial(studentID, st.Username, in.QuizName, earned, "attempt", err)
		return nil, err
	}

	q.log.Info("quiz completed",
		zap.String("username", st.Username),
		zap.String("quiz", in.QuizName),
		zap.Int("rp_earned", earned),
		zap.Int("rp_total", st.RP),
	)
	return &QuizResult{RPEarned: earned, Student: st, Aggregate: agg, Attempt: attempt}, nil
}

// logPartial records a quiz whose points reached the student record but not
// every progress write, so the missing part can be reconciled by hand.
func (q *QuizService) logPartial(studentID, username, quiz string, earned int, missing string, err error) {
	q.log.Error("quiz result partially recorded",
		zap.String("student_id", studentID),
		zap.String("username", username),
		zap.String("quiz", quiz),
		zap.Int("rp_earned", earned),
		zap.String("missing", missing),
		zap.Error(err),
	)
}
