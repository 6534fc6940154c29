package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/core/ports"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/dto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// defaultAccountColor is the color of the cash account created on sign-up.
const defaultAccountColor = "#10b981"

type registrationService struct {
	BaseService
	store     portsrepo.LocalStateStore
	ids       ports.IDGenerator
	directory portssvc.RemoteDirectorySvc
	publisher portssvc.PartitionPublisherSvc
}

// RegistrationOption is a functional option for configuring the registration service
type RegistrationOption func(*registrationService)

// WithRegistrationDirectory makes registration also reject e-mails known to
// the remote store.
func WithRegistrationDirectory(directory portssvc.RemoteDirectorySvc) RegistrationOption {
	return func(s *registrationService) {
		s.directory = directory
	}
}

// WithRegistrationPublisher sends a new company's records to its own remote
// partition right after sign-up.
func WithRegistrationPublisher(publisher portssvc.PartitionPublisherSvc) RegistrationOption {
	return func(s *registrationService) {
		s.publisher = publisher
	}
}

// WithRegistrationLogger sets the fallback logger.
func WithRegistrationLogger(logger *zap.Logger) RegistrationOption {
	return func(s *registrationService) {
		s.Logger = logger
	}
}

// NewRegistrationService creates a registration service.
func NewRegistrationService(store portsrepo.LocalStateStore, ids ports.IDGenerator, options ...RegistrationOption) portssvc.RegistrationSvc {
	svc := &registrationService{store: store, ids: ids}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure registrationService implements the RegistrationSvc interface
var _ portssvc.RegistrationSvc = (*registrationService)(nil)

func (s *registrationService) RegisterCompany(ctx context.Context, req dto.RegisterCompanyRequest) (*dto.RegistrationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.Email)

	if s.directory != nil {
		if _, err := s.directory.LookupUserByEmail(ctx, email); err == nil {
			s.LogInfo(ctx, "Registration rejected: e-mail known remotely", zap.String("email", email))
			return nil, apperrors.ErrEmailTaken
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, "Remote e-mail check failed", zap.Error(err))
		}
	}

	var result dto.RegistrationResult
	err := s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		if _, exists := state.FindUserByEmail(email); exists {
			return nil, apperrors.ErrEmailTaken
		}

		company := domain.Company{
			ID:           s.ids.NewID(),
			Name:         strings.TrimSpace(req.CompanyName),
			RegisteredAt: time.Now().UTC(),
			Status:       domain.CompanySuspended,
		}
		owner := domain.User{
			ID:        s.ids.NewID(),
			CompanyID: company.ID,
			Name:      strings.TrimSpace(req.OwnerName),
			Email:     email,
			Password:  req.Password,
			PIN:       req.PIN,
			Role:      domain.RoleAdmin,
			Status:    domain.UserPending,
		}
		account := domain.Account{
			ID:        s.ids.NewID(),
			CompanyID: company.ID,
			Name:      "Cash",
			Balance:   decimal.Zero,
			Color:     defaultAccountColor,
			Type:      domain.AccountCash,
		}

		state.Companies = append(state.Companies, company)
		state.Users = append(state.Users, owner)
		state.Accounts = append(state.Accounts, account)
		result = dto.RegistrationResult{Company: company, Owner: owner, Account: account}
		return []domain.Collection{domain.CollectionCompanies, domain.CollectionUsers, domain.CollectionAccounts}, nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrEmailTaken) {
			s.LogInfo(ctx, "Registration rejected: e-mail already registered", zap.String("email", email))
		} else {
			s.LogError(ctx, err, "Failed to register company")
		}
		return nil, err
	}

	s.LogInfo(ctx, "Company registered",
		zap.String("company_id", result.Company.ID),
		zap.String("owner_id", result.Owner.ID))

	// Nobody is signed in to the new company yet, so the session push cannot
	// create its partition. Without one, approval fan-out would drop the owner.
	if s.publisher != nil {
		outcome := s.publisher.PushPartition(ctx, result.Company.ID)
		s.LogInfo(ctx, "New company published",
			zap.String("company_id", result.Company.ID),
			zap.String("outcome", string(outcome)))
	}
	return &result, nil
}

func (s *registrationService) ApproveUser(ctx context.Context, userID string) error {
	err := s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		i := indexOfUser(state.Users, userID)
		if i < 0 {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, userID)
		}
		state.Users[i].Status = domain.UserActive
		changed := []domain.Collection{domain.CollectionUsers}

		for j := range state.Companies {
			if state.Companies[j].ID == state.Users[i].CompanyID {
				state.Companies[j].Status = domain.CompanyActive
				changed = append(changed, domain.CollectionCompanies)
				break
			}
		}
		return changed, nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to approve user", zap.String("user_id", userID))
		return err
	}
	s.LogInfo(ctx, "User approved", zap.String("user_id", userID))
	return nil
}

func (s *registrationService) RejectUser(ctx context.Context, userID string) error {
	err := s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		i := indexOfUser(state.Users, userID)
		if i < 0 {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, userID)
		}
		if state.Users[i].IsSuperAdmin() {
			return nil, fmt.Errorf("%w: the system administrator cannot be rejected", apperrors.ErrValidation)
		}
		state.Users[i].Status = domain.UserRejected
		return []domain.Collection{domain.CollectionUsers}, nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reject user", zap.String("user_id", userID))
		return err
	}
	s.LogInfo(ctx, "User rejected", zap.String("user_id", userID))
	return nil
}

func indexOfUser(users []domain.User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}
