package pgsql

import (
	"errors"
	"net/http"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// translateError maps driver errors to application errors.
func (r *BaseRepository) translateError(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02", "22032": // invalid_text_representation, invalid_json_text
			return apperrors.NewAppError(http.StatusBadRequest, message, errors.Join(apperrors.ErrValidation, err))
		}
	}
	return apperrors.NewAppError(http.StatusInternalServerError, message, err)
}
