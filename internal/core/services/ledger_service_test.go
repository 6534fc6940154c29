package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/core/services"
	"github.com/SscSPs/ledger_sync/internal/dto"
	"github.com/SscSPs/ledger_sync/internal/repositories/memory"
	"github.com/SscSPs/ledger_sync/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.LocalStateStore
	service portssvc.LedgerSvc
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = newSeededStore()
	_ = s.store.Update(s.ctx, portsrepo.OriginRemote, func(st *domain.LocalState) ([]domain.Collection, error) {
		st.Accounts = append(st.Accounts, domain.Account{
			ID: "a2", CompanyID: "c1", Name: "Bank", Balance: decimal.NewFromInt(10), Type: domain.AccountBank,
		})
		st.Entities = append(st.Entities, domain.Entity{ID: "e1", CompanyID: "c1", Name: "Client Co", Type: domain.EntityClient})
		st.Products = append(st.Products, domain.Product{ID: "p1", CompanyID: "c1", Name: "Widget", SKU: "SKU-P1", Stock: 10})
		return nil, nil
	})
	signIn(s.store, "u1")
	s.service = services.NewLedgerService(s.store, utils.NewSequentialGenerator("tx"), nil)
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (s *LedgerServiceTestSuite) balance(accountID string) decimal.Decimal {
	for _, a := range s.store.State().Accounts {
		if a.ID == accountID {
			return a.Balance
		}
	}
	s.FailNow("account not found", accountID)
	return decimal.Zero
}

func (s *LedgerServiceTestSuite) entityBalance(id string) decimal.Decimal {
	for _, e := range s.store.State().Entities {
		if e.ID == id {
			return e.Balance
		}
	}
	s.FailNow("entity not found", id)
	return decimal.Zero
}

func (s *LedgerServiceTestSuite) stock(id string) int {
	for _, p := range s.store.State().Products {
		if p.ID == id {
			return p.Stock
		}
	}
	s.FailNow("product not found", id)
	return 0
}

func income(amount int64, status domain.PaymentStatus) dto.PostTransactionRequest {
	return dto.PostTransactionRequest{
		Amount:        decimal.NewFromInt(amount),
		Type:          domain.Income,
		Category:      "Sales",
		AccountID:     "a1",
		PaymentStatus: status,
	}
}

func (s *LedgerServiceTestSuite) TestPost_PaidIncomeAddsToAccount() {
	tx, err := s.service.PostTransaction(s.ctx, income(50, domain.Paid))
	s.Require().NoError(err)

	s.True(decimal.NewFromInt(150).Equal(s.balance("a1")), s.balance("a1").String())
	s.Equal("tx-1", tx.ID)
	s.Equal("c1", tx.CompanyID)
	s.Equal("u1", tx.CreatedBy)
	s.Equal(domain.SyncPending, tx.SyncStatus)
	s.Equal(1, tx.Version)
	s.False(tx.Date.IsZero())
	s.Len(s.store.State().Transactions, 1)
}

func (s *LedgerServiceTestSuite) TestPost_CreditIncomeLeavesAccount() {
	req := income(50, domain.Credit)
	entity := "e1"
	req.EntityID = &entity

	_, err := s.service.PostTransaction(s.ctx, req)
	s.Require().NoError(err)

	s.True(decimal.NewFromInt(100).Equal(s.balance("a1")))
	s.True(decimal.NewFromInt(50).Equal(s.entityBalance("e1")))
}

func (s *LedgerServiceTestSuite) TestPost_CreditExpenseIsPayable() {
	req := income(30, domain.Credit)
	req.Type = domain.Expense
	entity := "e1"
	req.EntityID = &entity

	_, err := s.service.PostTransaction(s.ctx, req)
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(-30).Equal(s.entityBalance("e1")))
	s.True(decimal.NewFromInt(100).Equal(s.balance("a1")))
}

func (s *LedgerServiceTestSuite) TestPost_PaidExpenseAndTransfer() {
	expense := income(40, domain.Paid)
	expense.Type = domain.Expense
	_, err := s.service.PostTransaction(s.ctx, expense)
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(60).Equal(s.balance("a1")))

	to := "a2"
	transfer := income(25, domain.Paid)
	transfer.Type = domain.Transfer
	transfer.ToAccountID = &to
	_, err = s.service.PostTransaction(s.ctx, transfer)
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(35).Equal(s.balance("a1")))
	s.True(decimal.NewFromInt(35).Equal(s.balance("a2")))
}

func (s *LedgerServiceTestSuite) TestPost_ProductLineMovesStock() {
	product := "p1"
	qty := 3
	sale := income(30, domain.Paid)
	sale.ProductID = &product
	sale.Quantity = &qty
	_, err := s.service.PostTransaction(s.ctx, sale)
	s.Require().NoError(err)
	s.Equal(7, s.stock("p1"))

	purchase := income(20, domain.Paid)
	purchase.Type = domain.Expense
	purchase.ProductID = &product
	_, err = s.service.PostTransaction(s.ctx, purchase)
	s.Require().NoError(err)
	s.Equal(8, s.stock("p1"), "quantity defaults to one")
}

func (s *LedgerServiceTestSuite) TestPost_Rejections() {
	bank, missing, product, negative := "a2", "nope", "p1", -1
	cases := map[string]struct {
		mutate func(*dto.PostTransactionRequest)
		want   error
	}{
		"zero amount":        {func(r *dto.PostTransactionRequest) { r.Amount = decimal.Zero }, apperrors.ErrValidation},
		"unknown type":       {func(r *dto.PostTransactionRequest) { r.Type = "GIFT" }, apperrors.ErrValidation},
		"transfer no target": {func(r *dto.PostTransactionRequest) { r.Type = domain.Transfer }, apperrors.ErrValidation},
		"credit transfer":    {func(r *dto.PostTransactionRequest) { r.Type, r.ToAccountID, r.PaymentStatus = domain.Transfer, &bank, domain.Credit }, apperrors.ErrValidation},
		"unknown account":    {func(r *dto.PostTransactionRequest) { r.AccountID = "nope" }, apperrors.ErrNotFound},
		"unknown entity":     {func(r *dto.PostTransactionRequest) { r.EntityID = &missing }, apperrors.ErrNotFound},
		"foreign company":    {func(r *dto.PostTransactionRequest) { r.CompanyID = "c2" }, apperrors.ErrValidation},
		"missing account":    {func(r *dto.PostTransactionRequest) { r.AccountID = "" }, apperrors.ErrValidation},
		"negative quantity":  {func(r *dto.PostTransactionRequest) { r.ProductID, r.Quantity = &product, &negative }, apperrors.ErrValidation},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			before := s.store.State()
			req := income(10, domain.Paid)
			tc.mutate(&req)

			_, err := s.service.PostTransaction(s.ctx, req)

			s.ErrorIs(err, tc.want)
			s.Equal(before, s.store.State())
		})
	}
}

func (s *LedgerServiceTestSuite) TestPost_NoSession() {
	_ = s.store.Update(s.ctx, portsrepo.OriginLocal, func(st *domain.LocalState) ([]domain.Collection, error) {
		st.CurrentUserID = ""
		return nil, nil
	})
	_, err := s.service.PostTransaction(s.ctx, income(10, domain.Paid))
	s.ErrorIs(err, apperrors.ErrNoSession)
}

func (s *LedgerServiceTestSuite) TestPost_SchedulesOnlyLocalEvents() {
	var events []portsrepo.ChangeEvent
	s.store.Subscribe(func(e portsrepo.ChangeEvent) { events = append(events, e) })

	_, err := s.service.PostTransaction(s.ctx, income(10, domain.Paid))
	s.Require().NoError(err)

	s.Require().Len(events, 1)
	s.Equal(portsrepo.OriginLocal, events[0].Origin)
	s.True(events[0].Touches(domain.CollectionTransactions))
	s.True(events[0].Touches(domain.CollectionAccounts))
}

func (s *LedgerServiceTestSuite) TestDelete_ReversesEffects() {
	product := "p1"
	qty := 2
	sale := income(50, domain.Paid)
	sale.ProductID = &product
	sale.Quantity = &qty
	tx, err := s.service.PostTransaction(s.ctx, sale)
	s.Require().NoError(err)

	credit := income(20, domain.Credit)
	entity := "e1"
	credit.EntityID = &entity
	creditTx, err := s.service.PostTransaction(s.ctx, credit)
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteTransaction(s.ctx, tx.ID))
	s.Require().NoError(s.service.DeleteTransaction(s.ctx, creditTx.ID))

	s.True(decimal.NewFromInt(100).Equal(s.balance("a1")))
	s.True(s.entityBalance("e1").IsZero())
	s.Equal(10, s.stock("p1"))
	s.Empty(s.store.State().Transactions)

	s.ErrorIs(s.service.DeleteTransaction(s.ctx, tx.ID), apperrors.ErrNotFound)
}
