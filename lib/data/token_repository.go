package data

import (
	"context"
	"database/sql"
	"fmt"

	"crm/lib/apperrors"
	"crm/lib/models"

	"github.com/sirupsen/logrus"
)

// Provider token table names. One row per user per table.
const (
	GoogleTokenTable   = "crm.google_tokens"
	DocuSignTokenTable = "crm.docusign_tokens"
)

// TokenRepository defines the interface for stored OAuth token rows.
// It is the persistence half of the token broker (lib/oauth).
type TokenRepository interface {
	// GetToken loads the user's token row, ErrNotFound when absent
	GetToken(ctx context.Context, userID string) (*models.TokenRecord, error)

	// UpsertToken inserts or updates the row keyed by user_id. An empty
	// RefreshToken on the record preserves whatever refresh token is
	// already stored, since providers often omit it on re-grants
	UpsertToken(ctx context.Context, rec *models.TokenRecord) error

	// DeleteToken removes the row, forcing re-authentication
	DeleteToken(ctx context.Context, userID string) error
}

// TokenDao implements TokenRepository for one provider table.
// AccountColumns must be set for tables that carry the account_id/base_uri
// pair; the Google table does not have those columns.
type TokenDao struct {
	DB             *sql.DB
	Table          string
	AccountColumns bool
	Logger         *logrus.Logger
}

func (dao *TokenDao) GetToken(ctx context.Context, userID string) (*models.TokenRecord, error) {
	var rec models.TokenRecord
	var err error

	if dao.AccountColumns {
		query := fmt.Sprintf(`
			SELECT user_id, access_token, refresh_token, expires_at, account_id,
				base_uri, created_at, updated_at
			FROM %s
			WHERE user_id = $1
		`, dao.Table)
		err = dao.DB.QueryRowContext(ctx, query, userID).Scan(
			&rec.UserID, &rec.AccessToken, &rec.RefreshToken, &rec.ExpiresAt,
			&rec.AccountID, &rec.BaseURI, &rec.CreatedAt, &rec.UpdatedAt,
		)
	} else {
		query := fmt.Sprintf(`
			SELECT user_id, access_token, refresh_token, expires_at,
				created_at, updated_at
			FROM %s
			WHERE user_id = $1
		`, dao.Table)
		err = dao.DB.QueryRowContext(ctx, query, userID).Scan(
			&rec.UserID, &rec.AccessToken, &rec.RefreshToken, &rec.ExpiresAt,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
	}

	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundf("no token for user %s", userID)
	}
	if err != nil {
		return nil, apperrors.Storef(err, "get token")
	}
	return &rec, nil
}

func (dao *TokenDao) UpsertToken(ctx context.Context, rec *models.TokenRecord) error {
	// NULLIF/COALESCE keeps the stored refresh_token when the provider did
	// not rotate it; same for the account coordinates where present.
	var query string
	var args []interface{}

	if dao.AccountColumns {
		query = fmt.Sprintf(`
			INSERT INTO %s (
				user_id, access_token, refresh_token, expires_at, account_id,
				base_uri, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				access_token = EXCLUDED.access_token,
				refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), %s.refresh_token),
				expires_at = EXCLUDED.expires_at,
				account_id = COALESCE(NULLIF(EXCLUDED.account_id, ''), %s.account_id),
				base_uri = COALESCE(NULLIF(EXCLUDED.base_uri, ''), %s.base_uri),
				updated_at = NOW()
		`, dao.Table, dao.Table, dao.Table, dao.Table)
		args = []interface{}{
			rec.UserID, rec.AccessToken, rec.RefreshToken, rec.ExpiresAt,
			rec.AccountID, rec.BaseURI,
		}
	} else {
		query = fmt.Sprintf(`
			INSERT INTO %s (
				user_id, access_token, refresh_token, expires_at,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, NOW(), NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				access_token = EXCLUDED.access_token,
				refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), %s.refresh_token),
				expires_at = EXCLUDED.expires_at,
				updated_at = NOW()
		`, dao.Table, dao.Table)
		args = []interface{}{
			rec.UserID, rec.AccessToken, rec.RefreshToken, rec.ExpiresAt,
		}
	}

	if _, err := dao.DB.ExecContext(ctx, query, args...); err != nil {
		dao.Logger.WithError(err).WithFields(logrus.Fields{
			"table":   dao.Table,
			"user_id": rec.UserID,
		}).Error("Failed to upsert token")
		return apperrors.Storef(err, "upsert token")
	}
	return nil
}

func (dao *TokenDao) DeleteToken(ctx context.Context, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, dao.Table)
	if _, err := dao.DB.ExecContext(ctx, query, userID); err != nil {
		return apperrors.Storef(err, "delete token")
	}
	return nil
}
