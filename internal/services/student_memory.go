package services

import (
	"context"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/vikas-backend/internal/models"
	"github.com/AnshRaj112/vikas-backend/pkg/rank"
)

// MemoryStudentStore is an in-process StudentStore used by tests and by
// STUDENT_STORE=memory for local development. It enforces the same
// case-insensitive username/email uniqueness as the Mongo indexes.
type MemoryStudentStore struct {
	mu       sync.RWMutex
	students map[primitive.ObjectID]*models.Student
}

func NewMemoryStudentStore() *MemoryStudentStore {
	return &MemoryStudentStore{students: make(map[primitive.ObjectID]*models.Student)}
}

// Count returns the number of stored records.
func (m *MemoryStudentStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students)
}

func clone(s *models.Student) *models.Student {
	c := *s
	c.CompletedQuizzes = append([]string(nil), s.CompletedQuizzes...)
	c.WatchedVideos = append([]string(nil), s.WatchedVideos...)
	return &c
}

func (m *MemoryStudentStore) FindByUsername(_ context.Context, username string) (*models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.students {
		if strings.EqualFold(s.Username, username) {
			return clone(s), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStudentStore) FindByID(_ context.Context, id string) (*models.Student, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[oid]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

func (m *MemoryStudentStore) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conflicts(username, email), nil
}

func (m *MemoryStudentStore) conflicts(username, email string) bool {
	for _, s := range m.students {
		if strings.EqualFold(s.Username, username) || strings.EqualFold(s.Email, email) {
			return true
		}
	}
	return false
}

func (m *MemoryStudentStore) Insert(_ context.Context, s *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts(s.Username, s.Email) {
		return ErrDuplicateIdentity
	}
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	m.students[s.ID] = clone(s)
	return nil
}

func (m *MemoryStudentStore) ApplyQuizResult(_ context.Context, id, quizName string, rpEarned int) (*models.Student, error) {
	var out *models.Student
	err := m.mutate(id, func(s *models.Student) {
		s.RP += rpEarned
		s.Tier = rank.GetTier(s.RP)
		s.CompletedQuizzes = append(s.CompletedQuizzes, quizName)
		out = clone(s)
	})
	return out, err
}

func (m *MemoryStudentStore) SetProfilePicture(_ context.Context, id, url string) error {
	return m.mutate(id, func(s *models.Student) { s.ProfilePicture = url })
}

func (m *MemoryStudentStore) AddWatchedVideo(_ context.Context, id, videoID string) error {
	return m.mutate(id, func(s *models.Student) {
		for _, v := range s.WatchedVideos {
			if v == videoID {
				return
			}
		}
		s.WatchedVideos = append(s.WatchedVideos, videoID)
	})
}

func (m *MemoryStudentStore) mutate(id string, fn func(*models.Student)) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[oid]
	if !ok {
		return ErrNotFound
	}
	fn(s)
	return nil
}
