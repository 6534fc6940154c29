package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "ledger:"

// Config holds Redis connection configuration
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PartitionRepository stores each partition document as a JSON string. A
// sorted set scored by a sequence counter keeps the first-write order.
type PartitionRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewPartitionRepository connects to Redis and verifies the connection.
func NewPartitionRepository(cfg Config) (*PartitionRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewPartitionRepositoryWithClient(client, defaultKeyPrefix), nil
}

// NewPartitionRepositoryWithClient creates a repository on an existing client.
// The caller keeps ownership of the client.
func NewPartitionRepositoryWithClient(client *redis.Client, keyPrefix string) *PartitionRepository {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &PartitionRepository{client: client, keyPrefix: keyPrefix}
}

// Ensure PartitionRepository implements portsrepo.PartitionRepositoryFacade
var _ portsrepo.PartitionRepositoryFacade = (*PartitionRepository)(nil)

func (r *PartitionRepository) documentKey(key string) string {
	return r.keyPrefix + "partition:" + key
}

func (r *PartitionRepository) indexKey() string {
	return r.keyPrefix + "partitions"
}

func (r *PartitionRepository) sequenceKey() string {
	return r.keyPrefix + "partitions:seq"
}

// Close closes the underlying client.
func (r *PartitionRepository) Close() error {
	return r.client.Close()
}

func (r *PartitionRepository) FindPartition(ctx context.Context, key string) (*domain.PartitionDocument, error) {
	raw, err := r.client.Get(ctx, r.documentKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read partition %s: %w", key, err)
	}

	var doc domain.PartitionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode partition %s: %w", key, err)
	}
	return &doc, nil
}

func (r *PartitionRepository) ListPartitions(ctx context.Context) ([]portsrepo.Partition, error) {
	keys, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list partition keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	docKeys := make([]string, len(keys))
	for i, k := range keys {
		docKeys[i] = r.documentKey(k)
	}
	values, err := r.client.MGet(ctx, docKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read partitions: %w", err)
	}

	partitions := make([]portsrepo.Partition, 0, len(keys))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// indexed but the document is gone
			continue
		}
		var doc domain.PartitionDocument
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode partition %s: %w", keys[i], err)
		}
		partitions = append(partitions, portsrepo.Partition{Key: keys[i], Document: doc})
	}
	return partitions, nil
}

func (r *PartitionRepository) SavePartition(ctx context.Context, key string, doc domain.PartitionDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode partition %s: %w", key, err)
	}

	if err := r.client.Set(ctx, r.documentKey(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save partition %s: %w", key, err)
	}

	_, err = r.client.ZScore(ctx, r.indexKey(), key).Result()
	if err == nil {
		return nil
	}
	if !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to check partition index for %s: %w", key, err)
	}

	seq, err := r.client.Incr(ctx, r.sequenceKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate partition sequence: %w", err)
	}
	// NX keeps the first score if another writer indexed the key meanwhile.
	if err := r.client.ZAddNX(ctx, r.indexKey(), redis.Z{Score: float64(seq), Member: key}).Err(); err != nil {
		return fmt.Errorf("failed to index partition %s: %w", key, err)
	}
	return nil
}
