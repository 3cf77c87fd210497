package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"denomination-wallet/internal/core/domain"
	"denomination-wallet/internal/core/ports"
	"denomination-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService. Users live in the event store
// as single-event streams keyed by their email.
type AuthServiceImpl struct {
	events   ports.EventStore
	hashSvc  ports.HashService
	tokenSvc ports.TokenService
	log      zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(events ports.EventStore, hashSvc ports.HashService, tokenSvc ports.TokenService, log zerolog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		events:   events,
		hashSvc:  hashSvc,
		tokenSvc: tokenSvc,
		log:      log,
	}
}

// Register records a UserRegistered event. Two registrations racing for the same
// email meet at the stream's version guard and the loser gets ErrEmailTaken.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.RegisterResult, error) {
	userID := domain.UserIDForEmail(req.Email)
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if user.Exists() {
		return nil, apperror.ErrEmailTaken(domain.ErrEmailTaken)
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	evt, err := user.Register(domain.CommandMeta{At: time.Now().UTC()}, req.Name, req.Email, passwordHash)
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return nil, apperror.ErrEmailTaken(err)
	case errors.Is(err, domain.ErrInvalidUser):
		return nil, apperror.ErrInvalidUser(err)
	case err != nil:
		return nil, apperror.InternalError(err)
	}

	if _, err := s.events.Append(ctx, userID, 0, []domain.Event{evt}); err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			return nil, apperror.ErrEmailTaken(err)
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("append user event: %w", err))
	}

	s.log.Info().Str("user_id", userID.String()).Msg("user registered")
	return &ports.RegisterResult{UserID: userID}, nil
}

// Login checks the password and issues a token whose subject is the user id.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.loadUser(ctx, domain.UserIDForEmail(email))
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}
	if !user.Exists() {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, user.PasswordHash())
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		s.log.Debug().Str("user_id", user.ID().String()).Msg("login rejected")
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID().String())
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return token, expiry, nil
}

func (s *AuthServiceImpl) loadUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user := domain.NewUser(userID)
	for evt, err := range s.events.Load(ctx, userID, 0) {
		if err != nil {
			return nil, fmt.Errorf("load user %s: %w", userID, err)
		}
		if err := user.Apply(evt); err != nil {
			return nil, fmt.Errorf("replay user %s: %w", userID, err)
		}
	}
	return user, nil
}
