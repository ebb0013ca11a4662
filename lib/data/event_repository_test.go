package data

import (
	"context"
	"errors"
	"testing"

	"crm/lib/apperrors"
	"crm/lib/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func setupEventDao(t *testing.T) (*EventDao, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock database: %v", err)
	}
	dao := &EventDao{DB: db, Logger: logrus.New()}
	return dao, mock, func() { db.Close() }
}

func TestUpdateEventStatus_RejectsUnknownStatus(t *testing.T) {
	//Arrange
	dao, mock, done := setupEventDao(t)
	defer done()

	//Act
	err := dao.UpdateEventStatus(context.Background(), 3, "Tentative")

	//Assert
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEventStatus(t *testing.T) {
	dao, mock, done := setupEventDao(t)
	defer done()

	mock.ExpectExec(`UPDATE crm.events SET status = \$2`).
		WithArgs(int64(3), models.EventStatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := dao.UpdateEventStatus(context.Background(), 3, models.EventStatusConfirmed)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEventStatus_MissingEvent(t *testing.T) {
	dao, mock, done := setupEventDao(t)
	defer done()

	mock.ExpectExec(`UPDATE crm.events SET status = \$2`).
		WithArgs(int64(99), models.EventStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := dao.UpdateEventStatus(context.Background(), 99, models.EventStatusCancelled)

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestEventToggleTask_NoPromotionAtFullProgress(t *testing.T) {
	//Arrange
	dao, mock, done := setupEventDao(t)
	defer done()

	tasks := models.TaskList{
		{ID: "e1", Name: "Source Gates", Completed: true},
		{ID: "e2", Name: "Paid(Full)", Completed: false},
	}
	mock.ExpectQuery(`SELECT (.+) FROM crm.events WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(eventRowForPromotion(t, 3, 7, tasks))

	// Completing the last task stays a plain update: the event remains an
	// event at 100%.
	completed := models.TaskList{
		{ID: "e1", Name: "Source Gates", Completed: true},
		{ID: "e2", Name: "Paid(Full)", Completed: true},
	}
	mock.ExpectQuery(`UPDATE crm.events\s+SET tasks = \$2, progress = \$3`).
		WithArgs(int64(3), string(tasksJSON(t, completed)), float64(100)).
		WillReturnRows(eventRowForPromotion(t, 3, 7, completed))

	//Act
	event, err := dao.ToggleTask(context.Background(), 3, "e2")

	//Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(3), event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventToggleTask_UnknownTask(t *testing.T) {
	dao, mock, done := setupEventDao(t)
	defer done()

	tasks := models.TaskList{{ID: "e1", Name: "Source Gates"}}
	mock.ExpectQuery(`SELECT (.+) FROM crm.events WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(eventRowForPromotion(t, 3, 7, tasks))

	_, err := dao.ToggleTask(context.Background(), 3, "nope")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteEvent_Missing(t *testing.T) {
	dao, mock, done := setupEventDao(t)
	defer done()

	mock.ExpectExec(`DELETE FROM crm.events WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := dao.DeleteEvent(context.Background(), 42)

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
