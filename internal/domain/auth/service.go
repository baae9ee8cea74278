package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/domain/jobs"
	"hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/validator"
)

const (
	maxFailedLoginAttempts = 5
	lockoutDuration        = 15 * time.Minute
	anonymousName          = "Invité"
)

// JobScheduler defers work to the durable job queue.
type JobScheduler interface {
	Enqueue(ctx context.Context, kind string, payload any, runAt time.Time) (*jobs.Job, error)
}

type Service struct {
	users      *Repository
	tokens     *jwt.Service
	scheduler  JobScheduler
	purgeAfter time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewService(users *Repository, tokens *jwt.Service, scheduler JobScheduler, purgeAfter time.Duration, log *zap.Logger) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		scheduler:  scheduler,
		purgeAfter: purgeAfter,
		log:        log,
		now:        time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=120"`
}

// Session is the result of a successful authentication.
type Session struct {
	User        *User
	AccessToken string
	ExpiresIn   time.Duration
}

// Register creates a client account. When the caller is an anonymous session
// the same user row is upgraded so its reservations are kept.
func (s *Service) Register(ctx context.Context, in RegisterInput, caller *domain.Principal) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if fields := validator.Validate(in); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *User
	if caller != nil && caller.Anonymous {
		if err := s.users.Upgrade(ctx, caller.UserID, in.Email, hash, in.Name); err != nil {
			return nil, err
		}
		if user, err = s.users.GetByID(ctx, caller.UserID); err != nil {
			return nil, err
		}
		s.log.Info("anonymous user registered", zap.Int64("user_id", user.ID))
	} else {
		email := in.Email
		user = &User{Email: &email, PasswordHash: hash, Name: in.Name, Role: domain.RoleClient}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		s.log.Info("user registered", zap.Int64("user_id", user.ID))
	}

	return s.issue(user)
}

// Login checks credentials. Five consecutive failures lock the account for
// fifteen minutes.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		attempts := user.FailedLoginAttempts + 1
		var lockedUntil *time.Time
		if attempts >= maxFailedLoginAttempts {
			until := now.Add(lockoutDuration)
			lockedUntil = &until
		}
		if err := s.users.RecordFailedLogin(ctx, user.ID, attempts, lockedUntil); err != nil {
			return nil, err
		}
		if lockedUntil != nil {
			s.log.Warn("account locked after failed logins", zap.Int64("user_id", user.ID))
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		if err := s.users.ResetFailedLogins(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	return s.issue(user)
}

// StartAnonymousSession creates a throwaway client account and schedules its
// purge. The session can later be turned into a real account with Register.
func (s *Service) StartAnonymousSession(ctx context.Context) (*Session, error) {
	user := &User{Name: anonymousName, Role: domain.RoleClient, IsAnonymous: true}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create anonymous user: %w", err)
	}

	runAt := s.now().UTC().Add(s.purgeAfter)
	if _, err := s.scheduler.Enqueue(ctx, PurgeAnonymousKind, purgePayload{UserID: user.ID}, runAt); err != nil {
		// No purge scheduled means the row would live forever.
		if delErr := s.users.DB().WithContext(ctx).Delete(&User{}, user.ID).Error; delErr != nil {
			s.log.Error("rollback anonymous user", zap.Int64("user_id", user.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("schedule anonymous purge: %w", err)
	}

	s.log.Info("anonymous session started", zap.Int64("user_id", user.ID), zap.Time("purge_at", runAt))
	return s.issue(user)
}

func (s *Service) Me(ctx context.Context, userID int64) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// EnsureAdmin creates an admin account unless one already exists for email.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (*User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	normalized := normalizeEmail(email)
	admin := &User{Email: &normalized, PasswordHash: hash, Name: name, Role: domain.RoleAdmin}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

func (s *Service) issue(user *User) (*Session, error) {
	var (
		token string
		err   error
	)
	if user.IsAnonymous {
		token, err = s.tokens.GenerateAnonymousToken(user.ID, string(user.Role))
	} else {
		token, err = s.tokens.GenerateToken(user.ID, string(user.Role))
	}
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{User: user, AccessToken: token, ExpiresIn: s.tokens.TTL()}, nil
}
