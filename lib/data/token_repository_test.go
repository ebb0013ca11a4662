package data

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"crm/lib/apperrors"
	"crm/lib/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func setupTokenDao(t *testing.T, table string, accountColumns bool) (*TokenDao, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock database: %v", err)
	}
	dao := &TokenDao{DB: db, Table: table, AccountColumns: accountColumns, Logger: logrus.New()}
	return dao, mock, func() { db.Close() }
}

func TestGetToken_GoogleOmitsAccountColumns(t *testing.T) {
	//Arrange
	dao, mock, done := setupTokenDao(t, GoogleTokenTable, false)
	defer done()

	now := time.Now()
	expiry := now.Add(time.Hour)
	// The google_tokens relation has no account_id/base_uri; the rendered
	// SELECT must go straight from expires_at to created_at.
	mock.ExpectQuery(`SELECT user_id, access_token, refresh_token, expires_at,\s+created_at, updated_at\s+FROM crm.google_tokens\s+WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "access_token", "refresh_token", "expires_at",
			"created_at", "updated_at",
		}).AddRow("user-1", "at", "rt", expiry, now, now))

	//Act
	rec, err := dao.GetToken(context.Background(), "user-1")

	//Assert
	assert.NoError(t, err)
	assert.Equal(t, "at", rec.AccessToken)
	assert.False(t, rec.Expired(now))
	assert.True(t, rec.Expired(expiry.Add(time.Minute)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetToken_DocuSignCarriesAccountColumns(t *testing.T) {
	dao, mock, done := setupTokenDao(t, DocuSignTokenTable, true)
	defer done()

	now := time.Now()
	expiry := now.Add(time.Hour)
	mock.ExpectQuery(`SELECT user_id, access_token, refresh_token, expires_at, account_id,\s+base_uri, created_at, updated_at\s+FROM crm.docusign_tokens`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "access_token", "refresh_token", "expires_at",
			"account_id", "base_uri", "created_at", "updated_at",
		}).AddRow("user-1", "at", "rt", expiry, "acct-1", "https://demo.docusign.net", now, now))

	rec, err := dao.GetToken(context.Background(), "user-1")

	assert.NoError(t, err)
	assert.Equal(t, "acct-1", rec.AccountID)
	assert.Equal(t, "https://demo.docusign.net", rec.BaseURI)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetToken_Missing(t *testing.T) {
	dao, mock, done := setupTokenDao(t, DocuSignTokenTable, true)
	defer done()

	mock.ExpectQuery(`SELECT (.+) FROM crm.docusign_tokens`).
		WithArgs("user-1").
		WillReturnError(sql.ErrNoRows)

	_, err := dao.GetToken(context.Background(), "user-1")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpsertToken_EmptyRefreshPreservesStored(t *testing.T) {
	//Arrange
	dao, mock, done := setupTokenDao(t, GoogleTokenTable, false)
	defer done()

	expiry := time.Now().Add(time.Hour)
	// The SQL itself keeps the old refresh_token via
	// COALESCE(NULLIF(EXCLUDED.refresh_token, ''), ...), so the empty string
	// is passed through as-is. Four args only: no account pair on this table.
	mock.ExpectExec(`INSERT INTO crm.google_tokens (.+) ON CONFLICT \(user_id\) DO UPDATE SET`).
		WithArgs("user-1", "new-access", "", expiry).
		WillReturnResult(sqlmock.NewResult(0, 1))

	//Act
	err := dao.UpsertToken(context.Background(), &models.TokenRecord{
		UserID:      "user-1",
		AccessToken: "new-access",
		ExpiresAt:   expiry,
	})

	//Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertToken_DocuSignPersistsAccountPair(t *testing.T) {
	dao, mock, done := setupTokenDao(t, DocuSignTokenTable, true)
	defer done()

	expiry := time.Now().Add(time.Hour)
	mock.ExpectExec(`INSERT INTO crm.docusign_tokens (.+) ON CONFLICT \(user_id\) DO UPDATE SET`).
		WithArgs("user-1", "at", "rt", expiry, "acct-1", "https://demo.docusign.net").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := dao.UpsertToken(context.Background(), &models.TokenRecord{
		UserID:       "user-1",
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    expiry,
		AccountID:    "acct-1",
		BaseURI:      "https://demo.docusign.net",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
