package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/internal/models"
	"github.com/AnshRaj112/vikas-backend/pkg/rank"
	"github.com/AnshRaj112/vikas-backend/pkg/utils"
)

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Password  string
	Class     string
}

type LoginResult struct {
	Token   string
	Student *models.Student
}

// AuthService handles registration and login on top of a StudentStore.
type AuthService struct {
	store  StudentStore
	tokens *TokenIssuer
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(store StudentStore, tokens *TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, log: log, now: time.Now}
}

// Register creates a student record. The username/email pre-check only avoids
// needless hashing; two racing registrations are settled by the store's unique
// indexes, which also surface as ErrDuplicateIdentity.
func (a *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Student, error) {
	username := utils.NormalizeUsername(in.Username)
	email := utils.NormalizeEmail(in.Email)
	if err := utils.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	exists, err := a.store.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		authOutcomes.WithLabelValues("register", "error").Inc()
		return nil, fmt.Errorf("check existing student: %w", err)
	}
	if exists {
		authOutcomes.WithLabelValues("register", "duplicate").Inc()
		return nil, ErrDuplicateIdentity
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	st := &models.Student{
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Email:            email,
		Username:         username,
		Password:         hash,
		Class:            in.Class,
		RegistrationDate: a.now().UTC(),
		RP:               0,
		Tier:             rank.GetTier(0),
		CompletedQuizzes: []string{},
		WatchedVideos:    []string{},
	}
	if err := a.store.Insert(ctx, st); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			authOutcomes.WithLabelValues("register", "duplicate").Inc()
			a.log.Info("registration lost uniqueness race", zap.String("username", username))
			return nil, ErrDuplicateIdentity
		}
		authOutcomes.WithLabelValues("register", "error").Inc()
		return nil, fmt.Errorf("insert student: %w", err)
	}

	authOutcomes.WithLabelValues("register", "success").Inc()
	a.log.Info("student registered", zap.String("username", username), zap.String("id", st.ID.Hex()))
	return st, nil
}

// Login verifies credentials and issues a session token.
func (a *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	st, err := a.store.FindByUsername(ctx, utils.NormalizeUsername(username))
	if errors.Is(err, ErrNotFound) {
		authOutcomes.WithLabelValues("login", "not_found").Inc()
		return nil, ErrNotFound
	}
	if err != nil {
		authOutcomes.WithLabelValues("login", "error").Inc()
		return nil, fmt.Errorf("find student: %w", err)
	}

	ok, err := utils.VerifyPassword(password, st.Password)
	if err != nil {
		a.log.Warn("stored password hash unreadable", zap.String("username", st.Username), zap.Error(err))
	}
	if !ok {
		authOutcomes.WithLabelValues("login", "invalid_credential").Inc()
		return nil, ErrInvalidCredential
	}

	token, err := a.tokens.Issue(st.ID.Hex(), st.Username)
	if err != nil {
		authOutcomes.WithLabelValues("login", "error").Inc()
		return nil, fmt.Errorf("sign token: %w", err)
	}

	authOutcomes.WithLabelValues("login", "success").Inc()
	return &LoginResult{Token: token, Student: st}, nil
}

// UsernameAvailable reports whether username passes the format rules and is
// not taken. A format violation wraps ErrBadRequest.
func (a *AuthService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = utils.NormalizeUsername(username)
	if err := utils.ValidateUsername(username); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	_, err := a.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("find student: %w", err)
	}
	return false, nil
}
