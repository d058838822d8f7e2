package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/streamvault/streamvault/pkg/logger"
)

// Looser than full RFC 5322; obvious mistakes only, the mailbox provider
// is the final authority.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

// Service provides registration, authentication, and profile management.
type Service struct {
	store      Store
	bcryptCost int
	log        *slog.Logger
	now        func() time.Time

	// afterRegister runs synchronously after a successful registration,
	// used to seed the speculative pending subscription. A failure is
	// logged, not surfaced: the account exists either way.
	afterRegister func(ctx context.Context, user *User) error
}

// ServiceOption configures the account service.
type ServiceOption func(*Service)

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// WithLogger sets the service logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithAfterRegister sets a hook that runs after successful registration.
func WithAfterRegister(fn func(ctx context.Context, user *User) error) ServiceOption {
	return func(s *Service) {
		s.afterRegister = fn
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates an account service. Panics if store is nil to fail
// fast during initialization.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("account: Store is required")
	}

	s := &Service{
		store:      store,
		bcryptCost: bcrypt.DefaultCost,
		log:        slog.Default(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new user with email and password, seeds their profile
// with the given display name, and runs the post-registration hook.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	email = normalizeEmail(email)
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: at least %d characters", ErrWeakPassword, minPasswordLength)
	}

	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailAlreadyExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, user, hash); err != nil {
		return nil, err
	}

	if displayName == "" {
		displayName = displayNameFromEmail(email)
	}
	if err := s.store.CreateProfileIfAbsent(ctx, &Profile{
		UserID:      user.ID,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		// The profile is recreated lazily on next access; registration stands.
		s.log.WarnContext(ctx, "failed to seed profile at signup",
			logger.UserID(user.ID.String()),
			logger.Error(err),
		)
	}

	if s.afterRegister != nil {
		if err := s.afterRegister(ctx, user); err != nil {
			s.log.ErrorContext(ctx, "after-register hook failed",
				logger.UserID(user.ID.String()),
				logger.Error(err),
			)
		}
	}

	s.log.InfoContext(ctx, "user registered", logger.UserID(user.ID.String()))
	return user, nil
}

// Authenticate verifies email and password. Every failure maps to the
// generic ErrInvalidCredentials to prevent user enumeration.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	hash, err := s.store.GetPasswordHash(ctx, user.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser returns the user by ID.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// EnsureProfile returns the user's profile, lazily creating one from the
// email's local part when absent.
func (s *Service) EnsureProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.CreateProfileIfAbsent(ctx, &Profile{
		UserID:      userID,
		DisplayName: displayNameFromEmail(user.Email),
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return nil, err
	}
	return s.store.GetProfile(ctx, userID)
}

// UpdateProfile writes the display name and avatar URL.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName, avatarURL string) (*Profile, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		user, err := s.store.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		displayName = displayNameFromEmail(user.Email)
	}

	now := s.now()
	profile := &Profile{
		UserID:      userID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	return s.store.GetProfile(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func displayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "viewer"
	}
	return local
}
