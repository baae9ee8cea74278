package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/chat"
	"hotelbooking/internal/domain/jobs"
	"hotelbooking/internal/domain/reservation"
	"hotelbooking/internal/pkg/jwt"
)

var fixedNow = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

const purgeAfter = 14 * 24 * time.Hour

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:auth_test_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Connect(database.Options{
		DSN:          dsn,
		MaxOpenConns: 1,
		LogLevel:     logger.Silent,
	}, zap.NewNop())
	require.NoError(t, err)

	var models []any
	models = append(models, Models()...)
	models = append(models, catalog.Models()...)
	models = append(models, reservation.Models()...)
	models = append(models, chat.Models()...)
	models = append(models, jobs.Models()...)
	require.NoError(t, database.Migrate(db, models...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type testEnv struct {
	db     *gorm.DB
	svc    *Service
	jwt    *jwt.Service
	jobs   *jobs.Repository
	worker *jobs.Worker
	now    *time.Time
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	db := setupTestDB(t)
	now := fixedNow
	clock := func() time.Time { return now }

	jobRepo := jobs.NewRepository(db)
	j := jwt.New("test-secret", time.Hour)
	svc := NewService(NewRepository(db), j, jobs.NewQueue(jobRepo), purgeAfter, zap.NewNop()).WithClock(clock)

	worker := jobs.NewWorker(jobRepo, jobs.WorkerConfig{}, zap.NewNop()).WithClock(clock)
	worker.Register(PurgeAnonymousKind, svc.PurgeAnonymousUser)

	return testEnv{db: db, svc: svc, jwt: j, jobs: jobRepo, worker: worker, now: &now}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	session, err := env.svc.Register(ctx, RegisterInput{Email: " Alice@Example.com ", Password: "s3cret-pass", Name: "Alice"}, nil)
	require.NoError(t, err)
	require.NotNil(t, session.User.Email)
	assert.Equal(t, "alice@example.com", *session.User.Email)
	assert.Equal(t, domain.RoleClient, session.User.Role)
	assert.False(t, session.User.IsAnonymous)
	assert.NotEqual(t, "s3cret-pass", session.User.PasswordHash)

	claims, err := env.jwt.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, "client", claims.Role)
	assert.False(t, claims.Anonymous)

	_, err = env.svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "another-pass", Name: "A2"}, nil)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "short", Name: ""}, nil)
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "Email")
	assert.Contains(t, verr.Fields, "Password")
	assert.Contains(t, verr.Fields, "Name")
}

func TestService_LoginAndLockout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "correct-horse", Name: "Bob"}, nil)
	require.NoError(t, err)

	session, err := env.svc.Login(ctx, "BOB@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)

	_, err = env.svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	for i := 1; i < maxFailedLoginAttempts; i++ {
		_, err = env.svc.Login(ctx, "bob@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials, "attempt %d", i)
	}
	_, err = env.svc.Login(ctx, "bob@example.com", "wrong")
	require.ErrorIs(t, err, ErrAccountLocked)

	// Even the right password is refused while locked.
	_, err = env.svc.Login(ctx, "bob@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrAccountLocked)

	*env.now = env.now.Add(lockoutDuration + time.Second)
	_, err = env.svc.Login(ctx, "bob@example.com", "correct-horse")
	require.NoError(t, err)

	user, err := env.svc.users.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Zero(t, user.FailedLoginAttempts)
	assert.Nil(t, user.LockedUntil)
}

func TestService_AnonymousSessionSchedulesPurge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	session, err := env.svc.StartAnonymousSession(ctx)
	require.NoError(t, err)
	assert.True(t, session.User.IsAnonymous)
	assert.Nil(t, session.User.Email)

	claims, err := env.jwt.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.Anonymous)

	due, err := env.jobs.Due(ctx, fixedNow.Add(purgeAfter), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, PurgeAnonymousKind, due[0].Kind)
	assert.True(t, due[0].RunAt.Equal(fixedNow.Add(purgeAfter)))

	var payload purgePayload
	require.NoError(t, json.Unmarshal(due[0].Payload, &payload))
	assert.Equal(t, session.User.ID, payload.UserID)

	notYet, err := env.jobs.Due(ctx, fixedNow.Add(purgeAfter-time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, notYet)
}

// seedReservation books the user into a fresh room.
func seedReservation(t *testing.T, db *gorm.DB, userID int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewRepository(db)
	est := &catalog.Establishment{Name: "Gîte", City: "Annecy", Country: "France", Category: catalog.CategoryVilla}
	require.NoError(t, cat.CreateEstablishment(ctx, est))
	room := &catalog.Room{EstablishmentID: est.ID, Name: "Lac", Price: 80, Capacity: 2, Available: true}
	require.NoError(t, cat.CreateRoom(ctx, room))

	r := &reservation.Reservation{
		UserID:          &userID,
		RoomID:          room.ID,
		EstablishmentID: est.ID,
		StartDate:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		Guests:          2,
		TotalPrice:      160,
		Status:          reservation.StatusPending,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(r).Error)
	return r.ID
}

func count(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestPurge_DeletesAnonymousUserAndData(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	session, err := env.svc.StartAnonymousSession(ctx)
	require.NoError(t, err)
	uid := session.User.ID
	seedReservation(t, env.db, uid)

	chatSvc := chat.NewService(chat.NewRepository(env.db), zap.NewNop())
	_, err = chatSvc.Open(ctx, session.User.Principal(), "Question", "Is there parking?")
	require.NoError(t, err)

	// Not due yet.
	stats, err := env.worker.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.RunStats{}, stats)

	*env.now = env.now.Add(purgeAfter)
	stats, err = env.worker.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.RunStats{Done: 1}, stats)

	_, err = env.svc.Me(ctx, uid)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Zero(t, count(t, env.db, &reservation.Reservation{}, "user_id = ?", uid))
	assert.Zero(t, count(t, env.db, &chat.Conversation{}, "user_id = ?", uid))
	assert.Zero(t, count(t, env.db, &chat.Message{}, "sender_id = ?", uid))
}

func TestPurge_SkipsUpgradedUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	anon, err := env.svc.StartAnonymousSession(ctx)
	require.NoError(t, err)
	seedReservation(t, env.db, anon.User.ID)

	caller := anon.User.Principal()
	upgraded, err := env.svc.Register(ctx, RegisterInput{Email: "carol@example.com", Password: "long-enough", Name: "Carol"}, &caller)
	require.NoError(t, err)
	assert.Equal(t, anon.User.ID, upgraded.User.ID)
	assert.False(t, upgraded.User.IsAnonymous)

	*env.now = env.now.Add(purgeAfter)
	stats, err := env.worker.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.RunStats{Done: 1}, stats)

	_, err = env.svc.Me(ctx, anon.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count(t, env.db, &reservation.Reservation{}, "user_id = ?", anon.User.ID))
}

func TestPurge_MissingUserIsSuccess(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.PurgeAnonymousUser(context.Background(), []byte(`{"user_id": 9999}`))
	assert.NoError(t, err)
}

func TestPurge_BadPayload(t *testing.T) {
	env := newTestEnv(t)
	assert.Error(t, env.svc.PurgeAnonymousUser(context.Background(), []byte(`{"user_id": 0}`)))
	assert.Error(t, env.svc.PurgeAnonymousUser(context.Background(), []byte(`nope`)))
}

type failingScheduler struct{}

func (failingScheduler) Enqueue(context.Context, string, any, time.Time) (*jobs.Job, error) {
	return nil, errors.New("queue down")
}

func TestService_AnonymousSessionRollsBackWhenQueueFails(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewService(NewRepository(db), jwt.New("test-secret", time.Hour), failingScheduler{}, purgeAfter, zap.NewNop())

	_, err := svc.StartAnonymousSession(ctx)
	require.Error(t, err)
	assert.Zero(t, count(t, db, &User{}, "is_anonymous = ?", true))
}

func TestService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	admin, created, err := env.svc.EnsureAdmin(ctx, "admin@hotel.test", "admin-password", "Admin")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	again, created, err := env.svc.EnsureAdmin(ctx, "ADMIN@hotel.test", "other", "Admin")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	_, err = env.svc.Login(ctx, "admin@hotel.test", "admin-password")
	assert.NoError(t, err)
}
