package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
)

var (
	fixedNow = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	client   = domain.Principal{UserID: 10, Role: domain.RoleClient}
	other    = domain.Principal{UserID: 11, Role: domain.RoleClient}
	admin    = domain.Principal{UserID: 1, Role: domain.RoleAdmin}
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:chat_test_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Connect(database.Options{
		DSN:          dsn,
		MaxOpenConns: 1,
		LogLevel:     logger.Silent,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, Models()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// tickingClock advances one second per call so message order is stable.
func tickingClock() func() time.Time {
	now := fixedNow
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewRepository(setupTestDB(t)), zap.NewNop()).WithClock(tickingClock())
}

func TestService_OpenWithFirstMessage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	conv, err := svc.Open(ctx, client, "  Late check-in  ", "Can I arrive at 23:00?")
	require.NoError(t, err)
	assert.Equal(t, "Late check-in", conv.Subject)
	assert.Equal(t, StatusOpen, conv.Status)
	assert.Equal(t, client.UserID, conv.UserID)
	require.NotNil(t, conv.LastMessageAt)

	msgs, err := svc.Messages(ctx, client, conv.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Can I arrive at 23:00?", msgs[0].Content)
	assert.Equal(t, client.UserID, msgs[0].SenderID)
}

func TestService_OpenValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Open(ctx, client, "   ", "")
	assert.ErrorIs(t, err, ErrInvalidSubject)

	_, err = svc.Open(ctx, client, strings.Repeat("s", MaxSubjectLength+1), "")
	assert.ErrorIs(t, err, ErrInvalidSubject)

	_, err = svc.Open(ctx, client, "ok", strings.Repeat("é", MaxContentLength+1))
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestService_MessagesOrderedAndPaged(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	conv, err := svc.Open(ctx, client, "Parking", "")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		sender := client
		if i%2 == 0 {
			sender = admin
		}
		_, err := svc.PostMessage(ctx, sender, conv.ID, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	page, err := svc.Messages(ctx, client, conv.ID, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "m2", page[0].Content)
	assert.Equal(t, "m3", page[1].Content)
	assert.Equal(t, admin.UserID, page[0].SenderID)

	all, err := svc.Messages(ctx, admin, conv.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestService_AccessControl(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	conv, err := svc.Open(ctx, client, "Invoice", "Need an invoice")
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, conv.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.PostMessage(ctx, other, conv.ID, "hi")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Messages(ctx, other, conv.ID, 0, 0)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, client, uuid.New())
	assert.ErrorIs(t, err, ErrConversationNotFound)

	got, err := svc.Get(ctx, admin, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
}

func TestService_ListScopesByRole(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Open(ctx, client, "A", "")
	require.NoError(t, err)
	_, err = svc.Open(ctx, client, "B", "")
	require.NoError(t, err)
	_, err = svc.Open(ctx, other, "C", "")
	require.NoError(t, err)

	mine, total, err := svc.List(ctx, client, nil, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 2)

	// A client cannot widen the scope through userId.
	uid := other.UserID
	mine, _, err = svc.List(ctx, client, &uid, "", 0, 0)
	require.NoError(t, err)
	for _, c := range mine {
		assert.Equal(t, client.UserID, c.UserID)
	}

	all, total, err := svc.List(ctx, admin, nil, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	filtered, total, err := svc.List(ctx, admin, &uid, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "C", filtered[0].Subject)
}

func TestService_Close(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	conv, err := svc.Open(ctx, client, "Wifi", "No wifi in room 12")
	require.NoError(t, err)

	_, err = svc.Close(ctx, client, conv.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	closed, err := svc.Close(ctx, admin, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	_, err = svc.PostMessage(ctx, client, conv.ID, "still there?")
	assert.ErrorIs(t, err, ErrConversationClosed)

	_, err = svc.Close(ctx, admin, conv.ID)
	assert.ErrorIs(t, err, ErrConversationClosed)

	open, _, err := svc.List(ctx, client, nil, StatusOpen, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, open)
}
