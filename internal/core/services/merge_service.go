package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"go.uber.org/zap"
)

// mergeService is the multi-tenant document store behind the sync endpoint.
type mergeService struct {
	BaseService
	repo portsrepo.PartitionRepositoryFacade

	// mu serialises read-modify-write cycles of the global fan-out. Tenant
	// pushes are blind overwrites and do not take it.
	mu sync.Mutex
}

// MergeServiceOption is a functional option for configuring the merge service
type MergeServiceOption func(*mergeService)

// WithMergeLogger sets the fallback logger.
func WithMergeLogger(logger *zap.Logger) MergeServiceOption {
	return func(s *mergeService) {
		s.Logger = logger
	}
}

// NewMergeService creates a merge service over a partition repository.
func NewMergeService(repo portsrepo.PartitionRepositoryFacade, options ...MergeServiceOption) portssvc.MergeSvcFacade {
	svc := &mergeService{repo: repo}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure mergeService implements the MergeSvcFacade interface
var _ portssvc.MergeSvcFacade = (*mergeService)(nil)

func (s *mergeService) Pull(ctx context.Context, partitionKey string) (*domain.PartitionDocument, error) {
	if partitionKey == "" {
		return nil, fmt.Errorf("%w: partition key is required", apperrors.ErrValidation)
	}
	if partitionKey == domain.GlobalPartitionKey {
		return s.pullGlobal(ctx)
	}

	doc, err := s.repo.FindPartition(ctx, partitionKey)
	if errors.Is(err, apperrors.ErrNotFound) {
		empty := domain.NewPartitionDocument()
		return &empty, nil
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to read partition", zap.String("partition_key", partitionKey))
		return nil, fmt.Errorf("failed to read partition %s: %w", partitionKey, err)
	}
	return doc, nil
}

// pullGlobal concatenates array collections and shallow-merges map
// collections across every partition, in enumeration order. A later
// partition wins a conflicting map field. Extra keys are not merged.
func (s *mergeService) pullGlobal(ctx context.Context) (*domain.PartitionDocument, error) {
	partitions, err := s.repo.ListPartitions(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list partitions")
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	merged := domain.NewPartitionDocument()
	for _, p := range partitions {
		if p.Key == domain.GlobalPartitionKey {
			continue
		}
		for c, records := range p.Document.Arrays {
			if _, ok := merged.Arrays[c]; !ok {
				merged.Arrays[c] = []json.RawMessage{}
			}
			merged.Arrays[c] = append(merged.Arrays[c], records...)
		}
		for c, fields := range p.Document.Maps {
			if _, ok := merged.Maps[c]; !ok {
				merged.Maps[c] = map[string]json.RawMessage{}
			}
			maps.Copy(merged.Maps[c], fields)
		}
	}
	s.LogDebug(ctx, "Global pull merged", zap.Int("partitions", len(partitions)))
	return &merged, nil
}

func (s *mergeService) Push(ctx context.Context, partitionKey string, payload domain.PartitionDocument) error {
	if partitionKey == "" {
		return fmt.Errorf("%w: partition key is required", apperrors.ErrValidation)
	}
	if partitionKey == domain.GlobalPartitionKey {
		return s.fanOutUsers(ctx, payload)
	}

	// Full overwrite: concurrent pushes for one tenant are last-write-wins.
	if err := s.repo.SavePartition(ctx, partitionKey, payload); err != nil {
		s.LogError(ctx, err, "Failed to save partition", zap.String("partition_key", partitionKey))
		return fmt.Errorf("failed to save partition %s: %w", partitionKey, err)
	}
	s.LogInfo(ctx, "Partition overwritten", zap.String("partition_key", partitionKey))
	return nil
}

// userRouting is the part of a user record the fan-out routes on.
type userRouting struct {
	ID        string            `json:"id"`
	CompanyID string            `json:"companyId"`
	Status    domain.UserStatus `json:"status"`
}

// fanOutUsers routes each user of a global payload into the partition named
// by its companyId and upserts it there by id. A partition that does not
// exist or has no users array is left alone and the record is dropped.
// Only the users collection of a global payload is used.
func (s *mergeService) fanOutUsers(ctx context.Context, payload domain.PartitionDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var applied, dropped int
	for _, raw := range payload.Arrays[domain.CollectionUsers] {
		var route userRouting
		if err := json.Unmarshal(raw, &route); err != nil || route.ID == "" {
			dropped++
			continue
		}
		if route.CompanyID == "" || route.CompanyID == domain.SystemTenantID || route.CompanyID == domain.GlobalPartitionKey {
			continue
		}

		doc, err := s.repo.FindPartition(ctx, route.CompanyID)
		if errors.Is(err, apperrors.ErrNotFound) {
			dropped++
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read partition %s: %w", route.CompanyID, err)
		}
		users, ok := doc.Arrays[domain.CollectionUsers]
		if !ok {
			dropped++
			continue
		}

		doc.Arrays[domain.CollectionUsers] = upsertRecord(users, route.ID, raw)
		if route.Status == domain.UserActive {
			activateCompany(doc, route.CompanyID)
		}
		if err := s.repo.SavePartition(ctx, route.CompanyID, *doc); err != nil {
			return fmt.Errorf("failed to save partition %s: %w", route.CompanyID, err)
		}
		applied++
	}
	s.LogInfo(ctx, "Global push fanned out", zap.Int("applied", applied), zap.Int("dropped", dropped))
	return nil
}

// upsertRecord replaces the record whose id matches, or appends it.
func upsertRecord(records []json.RawMessage, id string, record json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(records)+1)
	replaced := false
	for _, existing := range records {
		if !replaced && recordID(existing) == id {
			out = append(out, record)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, record)
	}
	return out
}

// activateCompany sets status ACTIVE on the company with the id, if the
// document has a companies array holding it. Other fields are kept verbatim.
func activateCompany(doc *domain.PartitionDocument, companyID string) {
	companies, ok := doc.Arrays[domain.CollectionCompanies]
	if !ok {
		return
	}
	out := make([]json.RawMessage, len(companies))
	copy(out, companies)
	for i, raw := range out {
		if recordID(raw) != companyID {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		fields["status"] = json.RawMessage(`"` + string(domain.CompanyActive) + `"`)
		updated, err := json.Marshal(fields)
		if err != nil {
			continue
		}
		out[i] = updated
	}
	doc.Arrays[domain.CollectionCompanies] = out
}

func recordID(raw json.RawMessage) string {
	var rec struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return ""
	}
	return rec.ID
}

func (s *mergeService) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	partitions, err := s.repo.ListPartitions(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list partitions")
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}
	for _, p := range partitions {
		for _, raw := range p.Document.Arrays[domain.CollectionUsers] {
			var user domain.User
			if err := json.Unmarshal(raw, &user); err != nil {
				continue
			}
			if user.HasEmail(email) {
				return &user, nil
			}
		}
	}
	return nil, apperrors.ErrNotFound
}
