package services

import (
	"context"
	"errors"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"go.uber.org/zap"
)

// authService manages the session fields of the local state. Passwords and
// PINs are compared as stored.
type authService struct {
	BaseService
	store     portsrepo.LocalStateStore
	directory portssvc.RemoteDirectorySvc
}

// AuthOption is a functional option for configuring the auth service
type AuthOption func(*authService)

// WithAuthDirectory enables the remote fallback for users not on this device.
func WithAuthDirectory(directory portssvc.RemoteDirectorySvc) AuthOption {
	return func(s *authService) {
		s.directory = directory
	}
}

// WithAuthLogger sets the fallback logger.
func WithAuthLogger(logger *zap.Logger) AuthOption {
	return func(s *authService) {
		s.Logger = logger
	}
}

// NewAuthService creates an auth service.
func NewAuthService(store portsrepo.LocalStateStore, options ...AuthOption) portssvc.AuthSvc {
	svc := &authService{store: store}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure authService implements the AuthSvc interface
var _ portssvc.AuthSvc = (*authService)(nil)

func (s *authService) Login(ctx context.Context, email string, password string) (*domain.User, error) {
	user, found := s.store.State().FindUserByEmail(email)
	fromRemote := false
	if !found && s.directory != nil {
		remote, err := s.directory.LookupUserByEmail(ctx, email)
		if err == nil {
			user, found, fromRemote = *remote, true, true
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, "Remote user lookup failed", zap.Error(err))
		}
	}
	if !found || user.Password != password {
		s.LogInfo(ctx, "Login failed", zap.String("email", email))
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Status != domain.UserActive {
		s.LogInfo(ctx, "Login refused for inactive user",
			zap.String("user_id", user.ID),
			zap.String("status", string(user.Status)))
		return nil, apperrors.ErrAccountNotActive
	}

	// A user found remotely is cached locally; that is remote data and must
	// not trigger a push.
	origin := portsrepo.OriginLocal
	if fromRemote {
		origin = portsrepo.OriginRemote
	}
	err := s.store.Update(ctx, origin, func(state *domain.LocalState) ([]domain.Collection, error) {
		var changed []domain.Collection
		if fromRemote {
			if i := indexOfUser(state.Users, user.ID); i >= 0 {
				state.Users[i] = user
			} else {
				state.Users = append(state.Users, user)
			}
			changed = append(changed, domain.CollectionUsers)
		}
		state.CurrentUserID = user.ID
		state.IsLocked = false
		state.ShowLanding = false
		return changed, nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to open session", zap.String("user_id", user.ID))
		return nil, err
	}

	s.LogInfo(ctx, "User logged in",
		zap.String("user_id", user.ID),
		zap.Bool("remote", fromRemote))
	return &user, nil
}

func (s *authService) Lock(ctx context.Context) error {
	return s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		if _, ok := state.CurrentUser(); !ok {
			return nil, apperrors.ErrNoSession
		}
		state.IsLocked = true
		return nil, nil
	})
}

func (s *authService) UnlockWithPIN(ctx context.Context, pin string) error {
	err := s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		user, ok := state.CurrentUser()
		if !ok {
			return nil, apperrors.ErrNoSession
		}
		if user.PIN != pin {
			return nil, apperrors.ErrInvalidCredentials
		}
		state.IsLocked = false
		return nil, nil
	})
	if err != nil {
		s.LogInfo(ctx, "Unlock failed", zap.Error(err))
	}
	return err
}

func (s *authService) Logout(ctx context.Context) error {
	return s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		state.CurrentUserID = ""
		state.IsLocked = false
		state.ShowLanding = true
		return nil, nil
	})
}
