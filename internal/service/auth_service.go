package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/auth"
	"github.com/passari/web-ui/internal/config"
	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/events"
	"github.com/passari/web-ui/internal/repository"
	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users        repository.UserRepository
	tokenMgr     *auth.TokenManager
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	bcryptCost   int
	registerable bool
	now          func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:        deps.UserRepo,
		tokenMgr:     auth.NewTokenManager(cfg.SessionSecret, cfg.SessionTTL()),
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		bcryptCost:   cfg.BcryptCost,
		registerable: cfg.Registerable,
		now:          time.Now,
	}
}

// Registerable reports whether self-registration is enabled.
func (s *AuthService) Registerable() bool {
	return s.registerable
}

// CreateUser creates an active account with the given roles.
func (s *AuthService) CreateUser(ctx context.Context, email, password string, roles ...string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("a valid email address is required", map[string]any{"field": "email"})
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"field": "email"})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		Username:     email,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	for _, name := range roles {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		role, err := s.users.FindOrCreateRole(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := s.users.AddRole(ctx, user.ID, role.ID); err != nil {
			return nil, err
		}
		user.Roles = append(user.Roles, *role)
	}
	return user, nil
}

// Register creates an account through the registration page.
func (s *AuthService) Register(ctx context.Context, email, password, ip string) (*domain.User, error) {
	if !s.registerable {
		return nil, apperrors.NewNotFound("registration", nil)
	}
	user, err := s.CreateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.EventUserRegistered,
		events.Actor{UserID: &user.ID, Email: user.Email, IP: ip}, nil))
	return user, nil
}

// Login authenticates a user and records the login.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*domain.User, string, time.Time, error) {
	invalid := apperrors.NewUnauthorized("Invalid email or password")

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, invalid
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, invalid
	}
	if !user.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("Account is disabled")
	}

	if err := s.users.UpdateLoginInfo(ctx, user.ID, ip, s.now().UTC()); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	s.publish(ctx, events.NewEvent(events.EventUserLoggedIn,
		events.Actor{UserID: &user.ID, Email: user.Email, IP: ip}, nil))
	return user, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
