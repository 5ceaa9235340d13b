package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/AnshRaj112/vikas-backend/internal/models"
	"github.com/AnshRaj112/vikas-backend/pkg/rank"
)

func newAuthService(t *testing.T) (*AuthService, *MemoryStudentStore) {
	t.Helper()
	store := NewMemoryStudentStore()
	return NewAuthService(store, NewTokenIssuer("test-secret", time.Hour), zap.NewNop()), store
}

func asha() RegisterInput {
	return RegisterInput{
		FirstName: "Asha",
		LastName:  "K",
		Email:     "a@x.com",
		Username:  "asha",
		Password:  "pw123",
		Class:     "7",
	}
}

func TestRegisterAndLoginScenario(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()

	st, err := svc.Register(ctx, asha())
	require.NoError(t, err)
	assert.False(t, st.ID.IsZero())
	assert.Equal(t, 0, st.RP)
	assert.Equal(t, rank.TierSilver, st.Tier)
	assert.NotEqual(t, "pw123", st.Password)
	assert.Equal(t, 1, store.Count())

	_, err = svc.Login(ctx, "asha", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	res, err := svc.Login(ctx, "asha", "pw123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "asha", res.Student.Username)

	claims, err := svc.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, st.ID.Hex(), claims.StudentID)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, asha())
	require.NoError(t, err)

	tests := []struct {
		name string
		mod  func(*RegisterInput)
	}{
		{name: "same username", mod: func(in *RegisterInput) { in.Email = "other@x.com" }},
		{name: "same username different case", mod: func(in *RegisterInput) { in.Username = "ASHA"; in.Email = "other@x.com" }},
		{name: "same email", mod: func(in *RegisterInput) { in.Username = "asha2" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := asha()
			tt.mod(&in)
			_, err := svc.Register(ctx, in)
			assert.ErrorIs(t, err, ErrDuplicateIdentity)
			assert.Equal(t, 1, store.Count())
		})
	}
}

// racyStore hides existing records from the pre-check, like a concurrent
// registration that inserts between check and insert.
type racyStore struct {
	*MemoryStudentStore
}

func (racyStore) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestRegisterRaceFallsBackToStoreConstraint(t *testing.T) {
	mem := NewMemoryStudentStore()
	svc := NewAuthService(racyStore{mem}, NewTokenIssuer("s", time.Hour), zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, asha())
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateIdentity)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, mem.Count())
}

func TestRegisterRejectsBadUsername(t *testing.T) {
	svc, store := newAuthService(t)
	in := asha()
	in.Username = "a!"
	_, err := svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Equal(t, 0, store.Count())
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Login(context.Background(), "ghost", "pw")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsernameAvailable(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	ok, err := svc.UsernameAvailable(ctx, "asha")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Register(ctx, asha())
	require.NoError(t, err)

	ok, err = svc.UsernameAvailable(ctx, " ASHA ")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.UsernameAvailable(ctx, "a!")
	assert.ErrorIs(t, err, ErrBadRequest)
}

// Records created before usernames were normalized keep their original casing
// and a bcrypt hash.
func TestLegacyMixedCaseRecord(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("pw123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, &models.Student{
		ID:       primitive.NewObjectID(),
		Username: "Asha",
		Email:    "Asha@X.com",
		Password: string(hash),
		Class:    "7",
		Tier:     rank.TierSilver,
	}))

	for _, name := range []string{"Asha", "asha", "ASHA"} {
		res, err := svc.Login(ctx, name, "pw123")
		require.NoError(t, err, name)
		assert.Equal(t, "Asha", res.Student.Username)
	}

	in := asha()
	in.Username = "asha_new"
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicateIdentity, "lower-case email of a legacy record")

	in = asha()
	in.Email = "fresh@x.com"
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicateIdentity, "lower-case username of a legacy record")
	assert.Equal(t, 1, store.Count())

	ok, err := svc.UsernameAvailable(ctx, "asha")
	require.NoError(t, err)
	assert.False(t, ok)
}
