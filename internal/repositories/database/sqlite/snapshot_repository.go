package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SnapshotKey is the fixed storage key of the device snapshot.
const SnapshotKey = "ledger_state_v1"

// SnapshotModel is the GORM model for the durable snapshot slot.
type SnapshotModel struct {
	Key       string `gorm:"column:slot_key;type:varchar(64);primaryKey"`
	Payload   string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (SnapshotModel) TableName() string {
	return "local_snapshots"
}

// SnapshotRepository keeps the local state as one JSON document in SQLite.
type SnapshotRepository struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite file at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&SnapshotModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local database: %w", err)
	}
	return db, nil
}

// NewSnapshotRepository creates a snapshot repository on a migrated database.
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Ensure SnapshotRepository implements portsrepo.SnapshotRepository
var _ portsrepo.SnapshotRepository = (*SnapshotRepository)(nil)

func (r *SnapshotRepository) LoadSnapshot(ctx context.Context) (*domain.LocalState, error) {
	var model SnapshotModel
	err := r.db.WithContext(ctx).Where("slot_key = ?", SnapshotKey).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	// Decode onto a fresh state so keys missing from older snapshots keep
	// their defaults.
	var present map[string]json.RawMessage
	if err := json.Unmarshal([]byte(model.Payload), &present); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	state := domain.NewLocalState()
	if _, ok := present[string(domain.CollectionCategories)]; ok {
		// a stored map replaces the defaults instead of merging into them
		state.Categories = nil
	}
	if err := json.Unmarshal([]byte(model.Payload), &state); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &state, nil
}

func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, state domain.LocalState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	model := SnapshotModel{
		Key:       SnapshotKey,
		Payload:   string(payload),
		UpdatedAt: time.Now().UTC(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		UpdateAll: true,
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
