package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateError(t *testing.T) {
	var r BaseRepository

	assert.NoError(t, r.translateError(nil, "noop"))
	assert.ErrorIs(t, r.translateError(pgx.ErrNoRows, "find"), apperrors.ErrNotFound)

	err := r.translateError(&pgconn.PgError{Code: "22P02"}, "bad json")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)

	err = r.translateError(errors.New("connection reset"), "save")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

// newTestRepository needs a reachable Postgres given by LEDGER_TEST_PG_URL.
// Each test gets its own schema.
func newTestRepository(t *testing.T) *PgxPartitionRepository {
	t.Helper()
	url := os.Getenv("LEDGER_TEST_PG_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_PG_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	schema := fmt.Sprintf("ledger_test_%d", time.Now().UnixNano())
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	up, err := os.ReadFile("../../../../migrations/000001_create_partitions.up.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(up))
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})
	return NewPartitionRepository(pool)
}

func docWithTransactions(ids ...string) domain.PartitionDocument {
	doc := domain.NewPartitionDocument()
	for _, id := range ids {
		doc.Arrays[domain.CollectionTransactions] = append(doc.Arrays[domain.CollectionTransactions],
			json.RawMessage(fmt.Sprintf(`{"id":%q}`, id)))
	}
	return doc
}

func TestPgxPartitionRepository_FindMissing(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.FindPartition(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPgxPartitionRepository_OverwriteKeepsFirstWriteOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SavePartition(ctx, "c2", docWithTransactions("a")))
	require.NoError(t, repo.SavePartition(ctx, "c1", docWithTransactions("b")))
	require.NoError(t, repo.SavePartition(ctx, "c2", docWithTransactions("c", "d")))

	partitions, err := repo.ListPartitions(ctx)
	require.NoError(t, err)
	require.Len(t, partitions, 2)
	assert.Equal(t, "c2", partitions[0].Key)
	assert.Equal(t, "c1", partitions[1].Key)
	assert.Len(t, partitions[0].Document.Arrays[domain.CollectionTransactions], 2)

	doc, err := repo.FindPartition(ctx, "c2")
	require.NoError(t, err)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"transactions":[{"id":"c"},{"id":"d"}]}`, string(raw))
}
