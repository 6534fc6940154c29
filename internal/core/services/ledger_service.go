package services

import (
	"context"
	"fmt"
	"slices"
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

type ledgerService struct {
	BaseService
	store portsrepo.LocalStateStore
	ids   ports.IDGenerator
}

// NewLedgerService creates a ledger service. logger may be nil.
func NewLedgerService(store portsrepo.LocalStateStore, ids ports.IDGenerator, logger *zap.Logger) portssvc.LedgerSvc {
	return &ledgerService{BaseService: BaseService{Logger: logger}, store: store, ids: ids}
}

// Ensure ledgerService implements the LedgerSvc interface
var _ portssvc.LedgerSvc = (*ledgerService)(nil)

func (s *ledgerService) PostTransaction(ctx context.Context, req dto.PostTransactionRequest) (*domain.Transaction, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var posted domain.Transaction
	err := s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		user, ok := state.CurrentUser()
		if !ok {
			return nil, apperrors.ErrNoSession
		}
		companyID, err := resolveCompany(state, user, req.CompanyID)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		tx := domain.Transaction{
			ID:            s.ids.NewID(),
			CompanyID:     companyID,
			Amount:        req.Amount,
			Type:          req.Type,
			Category:      strings.TrimSpace(req.Category),
			Date:          req.Date,
			Note:          req.Note,
			AccountID:     req.AccountID,
			ToAccountID:   emptyToNil(req.ToAccountID),
			EntityID:      emptyToNil(req.EntityID),
			ProductID:     emptyToNil(req.ProductID),
			Quantity:      req.Quantity,
			PaymentStatus: req.PaymentStatus,
			CreatedBy:     user.ID,
			SyncStatus:    domain.SyncPending,
			Version:       1,
			UpdatedAt:     now,
		}
		if tx.Date.IsZero() {
			tx.Date = now
		}
		if tx.ProductID != nil && tx.Quantity == nil {
			one := 1
			tx.Quantity = &one
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		if tx.Type == domain.Transfer && tx.PaymentStatus != domain.Paid {
			return nil, fmt.Errorf("%w: transfers must be paid", apperrors.ErrValidation)
		}
		if err := checkReferences(state, tx); err != nil {
			return nil, err
		}

		changed := applyEffects(state, tx, 1)
		state.Transactions = append(state.Transactions, tx)
		posted = tx
		return append([]domain.Collection{domain.CollectionTransactions}, changed...), nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to post transaction")
		return nil, err
	}

	s.LogInfo(ctx, "Transaction posted",
		zap.String("transaction_id", posted.ID),
		zap.String("type", string(posted.Type)),
		zap.String("payment_status", string(posted.PaymentStatus)),
		zap.String("amount", posted.Amount.String()))
	return &posted, nil
}

func (s *ledgerService) DeleteTransaction(ctx context.Context, transactionID string) error {
	err := s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		i := slices.IndexFunc(state.Transactions, func(t domain.Transaction) bool { return t.ID == transactionID })
		if i < 0 {
			return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
		}
		tx := state.Transactions[i]
		changed := applyEffects(state, tx, -1)
		state.Transactions = slices.Delete(state.Transactions, i, i+1)
		return append([]domain.Collection{domain.CollectionTransactions}, changed...), nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete transaction", zap.String("transaction_id", transactionID))
		return err
	}
	s.LogInfo(ctx, "Transaction deleted", zap.String("transaction_id", transactionID))
	return nil
}

// resolveCompany picks the company a record belongs to: the requested one or
// the session user's. The company must exist and a tenant user may only write
// to its own company.
func resolveCompany(state *domain.LocalState, user domain.User, requested string) (string, error) {
	companyID := requested
	if companyID == "" {
		companyID = user.CompanyID
	}
	if !user.IsSuperAdmin() && companyID != user.CompanyID {
		return "", fmt.Errorf("%w: user %s cannot write to company %s", apperrors.ErrValidation, user.ID, companyID)
	}
	if !state.HasCompany(companyID) {
		return "", fmt.Errorf("%w: company %s", apperrors.ErrNotFound, companyID)
	}
	return companyID, nil
}

// checkReferences verifies that every record the transaction points at exists
// in its company.
func checkReferences(state *domain.LocalState, tx domain.Transaction) error {
	if accountIndex(state, tx.CompanyID, tx.AccountID) < 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, tx.AccountID)
	}
	if tx.ToAccountID != nil && accountIndex(state, tx.CompanyID, *tx.ToAccountID) < 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, *tx.ToAccountID)
	}
	if tx.EntityID != nil && entityIndex(state, tx.CompanyID, *tx.EntityID) < 0 {
		return fmt.Errorf("%w: entity %s", apperrors.ErrNotFound, *tx.EntityID)
	}
	if tx.ProductID != nil && productIndex(state, tx.CompanyID, *tx.ProductID) < 0 {
		return fmt.Errorf("%w: product %s", apperrors.ErrNotFound, *tx.ProductID)
	}
	return nil
}

// applyEffects moves balances and stock for a transaction; sign -1 reverses a
// previous posting. Records that no longer exist are skipped. It returns the
// collections it changed.
//
//	PAID   INCOME   account += amount
//	PAID   EXPENSE  account -= amount
//	PAID   TRANSFER account -= amount, destination += amount
//	CREDIT INCOME   entity  += amount (receivable)
//	CREDIT EXPENSE  entity  -= amount (payable)
//	product line    INCOME sells quantity, EXPENSE buys it
func applyEffects(state *domain.LocalState, tx domain.Transaction, sign int64) []domain.Collection {
	var changed []domain.Collection
	amount := tx.Amount.Mul(decimal.NewFromInt(sign))

	moveAccount := func(id string, delta decimal.Decimal) {
		if i := accountIndex(state, tx.CompanyID, id); i >= 0 {
			state.Accounts[i].Balance = state.Accounts[i].Balance.Add(delta)
			if !slices.Contains(changed, domain.CollectionAccounts) {
				changed = append(changed, domain.CollectionAccounts)
			}
		}
	}

	switch tx.PaymentStatus {
	case domain.Paid:
		switch tx.Type {
		case domain.Income:
			moveAccount(tx.AccountID, amount)
		case domain.Expense:
			moveAccount(tx.AccountID, amount.Neg())
		case domain.Transfer:
			moveAccount(tx.AccountID, amount.Neg())
			if tx.ToAccountID != nil {
				moveAccount(*tx.ToAccountID, amount)
			}
		}
	case domain.Credit:
		if tx.EntityID != nil {
			if i := entityIndex(state, tx.CompanyID, *tx.EntityID); i >= 0 {
				switch tx.Type {
				case domain.Income:
					state.Entities[i].Balance = state.Entities[i].Balance.Add(amount)
					changed = append(changed, domain.CollectionEntities)
				case domain.Expense:
					state.Entities[i].Balance = state.Entities[i].Balance.Sub(amount)
					changed = append(changed, domain.CollectionEntities)
				}
			}
		}
	}

	if tx.ProductID != nil && tx.Quantity != nil && tx.Type != domain.Transfer {
		if i := productIndex(state, tx.CompanyID, *tx.ProductID); i >= 0 {
			qty := *tx.Quantity * int(sign)
			if tx.Type == domain.Income {
				qty = -qty
			}
			state.Products[i].Stock += qty
			changed = append(changed, domain.CollectionProducts)
		}
	}
	return changed
}

func accountIndex(state *domain.LocalState, companyID, id string) int {
	return slices.IndexFunc(state.Accounts, func(a domain.Account) bool {
		return a.ID == id && a.CompanyID == companyID
	})
}

func entityIndex(state *domain.LocalState, companyID, id string) int {
	return slices.IndexFunc(state.Entities, func(e domain.Entity) bool {
		return e.ID == id && e.CompanyID == companyID
	})
}

func productIndex(state *domain.LocalState, companyID, id string) int {
	return slices.IndexFunc(state.Products, func(p domain.Product) bool {
		return p.ID == id && p.CompanyID == companyID
	})
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
