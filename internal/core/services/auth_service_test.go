package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/core/services"
	"github.com/SscSPs/ledger_sync/internal/repositories/memory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AuthServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.LocalStateStore
	directory *MockRemoteDirectory
	service   portssvc.AuthSvc
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = newSeededStore()
	s.directory = new(MockRemoteDirectory)
	s.service = services.NewAuthService(s.store, services.WithAuthDirectory(s.directory))
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) TestLogin_LocalUser() {
	user, err := s.service.Login(s.ctx, "Owner@Acme.test", "secret")
	s.Require().NoError(err)
	s.Equal("u1", user.ID)

	state := s.store.State()
	s.Equal("u1", state.CurrentUserID)
	s.False(state.IsLocked)
	s.False(state.ShowLanding)
	s.directory.AssertNotCalled(s.T(), "LookupUserByEmail", mock.Anything, mock.Anything)
}

func (s *AuthServiceTestSuite) TestLogin_SuperAdmin() {
	user, err := s.service.Login(s.ctx, "admin@system.local", "admin")
	s.Require().NoError(err)
	s.True(user.IsSuperAdmin())
}

func (s *AuthServiceTestSuite) TestLogin_WrongPassword() {
	_, err := s.service.Login(s.ctx, "owner@acme.test", "nope")
	s.ErrorIs(err, apperrors.ErrInvalidCredentials)
	s.Empty(s.store.State().CurrentUserID)
}

func (s *AuthServiceTestSuite) TestLogin_InactiveUser() {
	_ = s.store.Update(s.ctx, portsrepo.OriginRemote, func(st *domain.LocalState) ([]domain.Collection, error) {
		st.Users[1].Status = domain.UserPending
		return []domain.Collection{domain.CollectionUsers}, nil
	})
	_, err := s.service.Login(s.ctx, "owner@acme.test", "secret")
	s.ErrorIs(err, apperrors.ErrAccountNotActive)
}

func (s *AuthServiceTestSuite) TestLogin_RemoteFallbackCachesUser() {
	remote := &domain.User{
		ID: "u7", CompanyID: "c1", Email: "clerk@acme.test", Password: "pw", PIN: "7777",
		Role: domain.RoleStaff, Status: domain.UserActive,
	}
	s.directory.On("LookupUserByEmail", mock.Anything, "clerk@acme.test").Return(remote, nil)
	var events []portsrepo.ChangeEvent
	s.store.Subscribe(func(e portsrepo.ChangeEvent) { events = append(events, e) })

	user, err := s.service.Login(s.ctx, "clerk@acme.test", "pw")
	s.Require().NoError(err)
	s.Equal("u7", user.ID)

	state := s.store.State()
	cached, ok := state.FindUser("u7")
	s.True(ok)
	s.Equal(*remote, cached)
	s.Equal("u7", state.CurrentUserID)
	s.Require().Len(events, 1)
	s.Equal(portsrepo.OriginRemote, events[0].Origin)
}

func (s *AuthServiceTestSuite) TestLogin_RemoteUnavailable() {
	s.directory.On("LookupUserByEmail", mock.Anything, "ghost@acme.test").Return(nil, errors.New("boom"))
	_, err := s.service.Login(s.ctx, "ghost@acme.test", "pw")
	s.ErrorIs(err, apperrors.ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLockUnlockLogout() {
	s.ErrorIs(s.service.Lock(s.ctx), apperrors.ErrNoSession)

	_, err := s.service.Login(s.ctx, "owner@acme.test", "secret")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Lock(s.ctx))
	s.True(s.store.State().IsLocked)

	s.ErrorIs(s.service.UnlockWithPIN(s.ctx, "0000"), apperrors.ErrInvalidCredentials)
	s.True(s.store.State().IsLocked)

	s.Require().NoError(s.service.UnlockWithPIN(s.ctx, "1234"))
	s.False(s.store.State().IsLocked)

	s.Require().NoError(s.service.Logout(s.ctx))
	state := s.store.State()
	s.Empty(state.CurrentUserID)
	s.True(state.ShowLanding)
	s.ErrorIs(s.service.UnlockWithPIN(s.ctx, "1234"), apperrors.ErrNoSession)
}
