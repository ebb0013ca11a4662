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

func setupClientDao(t *testing.T) (*ClientDao, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock database: %v", err)
	}
	dao := &ClientDao{DB: db, Logger: logrus.New()}
	return dao, mock, func() { db.Close() }
}

func clientRow(id int64, fraternity, school string, events int, avg, score float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "fraternity", "school", "contact_name",
		"contact_phone", "contact_email", "number_of_events",
		"average_event_size", "client_score", "created_at", "updated_at",
	}).AddRow(id, "user-1", fraternity, school, "Chad", "555-0100", "",
		events, avg, score, now, now)
}

func TestFindByFraternitySchool_CaseInsensitive(t *testing.T) {
	//Arrange
	dao, mock, done := setupClientDao(t)
	defer done()

	mock.ExpectQuery(`SELECT (.+) FROM crm.clients WHERE user_id = \$1 AND LOWER\(fraternity\) = LOWER\(\$2\) AND LOWER\(school\) = LOWER\(\$3\)`).
		WithArgs("user-1", "alpha beta", "state u").
		WillReturnRows(clientRow(7, "Alpha Beta", "State U", 2, 4500, 9))

	//Act
	client, err := dao.FindByFraternitySchool(context.Background(), "user-1", "alpha beta", "state u")

	//Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(7), client.ID)
	assert.Equal(t, "Alpha Beta", client.Fraternity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByFraternitySchool_NoMatch(t *testing.T) {
	dao, mock, done := setupClientDao(t)
	defer done()

	mock.ExpectQuery(`SELECT (.+) FROM crm.clients WHERE user_id`).
		WithArgs("user-1", "Alpha Beta", "State U").
		WillReturnError(sql.ErrNoRows)

	_, err := dao.FindByFraternitySchool(context.Background(), "user-1", "Alpha Beta", "State U")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCreateClient_ScoreComputedServerSide(t *testing.T) {
	dao, mock, done := setupClientDao(t)
	defer done()

	// New clients start with zero events, so the score is always zero
	// regardless of the seeded average.
	mock.ExpectQuery(`INSERT INTO crm.clients`).
		WithArgs("user-1", "Alpha Beta", "State U", "Chad", "555-0100", "",
			0, float64(5000), float64(0)).
		WillReturnRows(clientRow(1, "Alpha Beta", "State U", 0, 5000, 0))

	client, err := dao.CreateClient(context.Background(), "user-1", &models.CreateClientRequest{
		Fraternity:       "Alpha Beta",
		School:           "State U",
		ContactName:      "Chad",
		ContactPhone:     "555-0100",
		AverageEventSize: 5000,
	})

	assert.NoError(t, err)
	assert.Equal(t, float64(0), client.ClientScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateClient_MissingIdentity(t *testing.T) {
	dao, _, done := setupClientDao(t)
	defer done()

	_, err := dao.CreateClient(context.Background(), "user-1", &models.CreateClientRequest{
		Fraternity: "Alpha Beta",
	})

	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestUpdateClient_RecomputesScore(t *testing.T) {
	dao, mock, done := setupClientDao(t)
	defer done()

	mock.ExpectQuery(`SELECT (.+) FROM crm.clients WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(clientRow(7, "Alpha Beta", "State U", 2, 4500, 9))

	// number_of_events corrected to 4: score must become 4*4500/1000 = 18.
	mock.ExpectQuery(`UPDATE crm.clients SET`).
		WithArgs(int64(7), "Alpha Beta", "State U", "Chad", "555-0100", "",
			4, float64(4500), float64(18)).
		WillReturnRows(clientRow(7, "Alpha Beta", "State U", 4, 4500, 18))

	four := 4
	client, err := dao.UpdateClient(context.Background(), 7, &models.UpdateClientRequest{
		NumberOfEvents: &four,
	})

	assert.NoError(t, err)
	assert.Equal(t, float64(18), client.ClientScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
