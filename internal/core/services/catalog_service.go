package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/core/ports"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/dto"
	"github.com/SscSPs/ledger_sync/internal/utils"
	"go.uber.org/zap"
)

type catalogService struct {
	BaseService
	store portsrepo.LocalStateStore
	ids   ports.IDGenerator
}

// NewCatalogService creates a catalog service. logger may be nil.
func NewCatalogService(store portsrepo.LocalStateStore, ids ports.IDGenerator, logger *zap.Logger) portssvc.CatalogSvc {
	return &catalogService{BaseService: BaseService{Logger: logger}, store: store, ids: ids}
}

// Ensure catalogService implements the CatalogSvc interface
var _ portssvc.CatalogSvc = (*catalogService)(nil)

func (s *catalogService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var created domain.Account
	err := s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		if !state.HasCompany(req.CompanyID) {
			return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, req.CompanyID)
		}
		created = domain.Account{
			ID:        s.ids.NewID(),
			CompanyID: req.CompanyID,
			Name:      strings.TrimSpace(req.Name),
			Balance:   req.OpeningBalance,
			Color:     req.Color,
			Type:      req.Type,
		}
		if created.Color == "" {
			created.Color = defaultAccountColor
		}
		state.Accounts = append(state.Accounts, created)
		return []domain.Collection{domain.CollectionAccounts}, nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create account", zap.String("company_id", req.CompanyID))
		return nil, err
	}
	s.LogInfo(ctx, "Account created", zap.String("account_id", created.ID))
	return &created, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*domain.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var created domain.Product
	err := s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		if !state.HasCompany(req.CompanyID) {
			return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, req.CompanyID)
		}
		id := s.ids.NewID()
		sku := strings.ToUpper(strings.TrimSpace(req.SKU))
		if sku == "" {
			sku = utils.SKUFromID(id)
		}
		skuTaken := func(sku string) bool {
			return slices.ContainsFunc(state.Products, func(p domain.Product) bool { return strings.EqualFold(p.SKU, sku) })
		}
		if skuTaken(sku) {
			if req.SKU != "" {
				return nil, fmt.Errorf("%w: sku %s", apperrors.ErrDuplicate, sku)
			}
			// generated prefix collided; fall back to the whole id
			sku = "SKU-" + strings.ToUpper(id)
			if skuTaken(sku) {
				return nil, fmt.Errorf("%w: sku %s", apperrors.ErrDuplicate, sku)
			}
		}

		created = domain.Product{
			ID:            id,
			CompanyID:     req.CompanyID,
			Name:          strings.TrimSpace(req.Name),
			SKU:           sku,
			Tags:          slices.Clone(req.Tags),
			PurchasePrice: req.PurchasePrice,
			SellingPrice:  req.SellingPrice,
			Stock:         req.Stock,
			ReorderLevel:  req.ReorderLevel,
		}
		if created.Tags == nil {
			created.Tags = []string{}
		}
		state.Products = append(state.Products, created)
		return []domain.Collection{domain.CollectionProducts}, nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create product", zap.String("company_id", req.CompanyID))
		return nil, err
	}
	s.LogInfo(ctx, "Product created", zap.String("product_id", created.ID), zap.String("sku", created.SKU))
	return &created, nil
}

func (s *catalogService) CreateEntity(ctx context.Context, req dto.CreateEntityRequest) (*domain.Entity, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var created domain.Entity
	err := s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		if !state.HasCompany(req.CompanyID) {
			return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, req.CompanyID)
		}
		created = domain.Entity{
			ID:        s.ids.NewID(),
			CompanyID: req.CompanyID,
			Name:      strings.TrimSpace(req.Name),
			Type:      req.Type,
			Phone:     req.Phone,
			Email:     strings.TrimSpace(req.Email),
			Address:   req.Address,
		}
		state.Entities = append(state.Entities, created)
		return []domain.Collection{domain.CollectionEntities}, nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create entity", zap.String("company_id", req.CompanyID))
		return nil, err
	}
	s.LogInfo(ctx, "Entity created", zap.String("entity_id", created.ID))
	return &created, nil
}

func (s *catalogService) UpdateSettings(ctx context.Context, req dto.UpdateSettingsRequest) (*domain.Settings, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var updated domain.Settings
	err := s.store.Update(ctx, portsrepo.OriginLocal, func(state *domain.LocalState) ([]domain.Collection, error) {
		if req.RemoteEndpoint != nil {
			state.Settings.RemoteEndpoint = strings.TrimSpace(*req.RemoteEndpoint)
		}
		if req.AutoSync != nil {
			state.Settings.AutoSync = *req.AutoSync
		}
		if req.Currency != nil {
			state.Settings.Currency = strings.ToUpper(*req.Currency)
		}
		if req.PricingRules != nil {
			rules := slices.Clone(*req.PricingRules)
			for i := range rules {
				if rules[i].ID == "" {
					rules[i].ID = s.ids.NewID()
				}
			}
			state.Settings.PricingRules = rules
		}
		updated = state.Settings.Clone()
		return []domain.Collection{domain.CollectionSettings}, nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update settings")
		return nil, err
	}
	s.LogInfo(ctx, "Settings updated", zap.Bool("auto_sync", updated.AutoSync))
	return &updated, nil
}
