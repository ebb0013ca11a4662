package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"crm/lib/apperrors"
	"crm/lib/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func setupInquiryDao(t *testing.T) (*InquiryDao, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock database: %v", err)
	}
	logger := logrus.New()
	dao := &InquiryDao{
		DB:      db,
		Clients: &ClientDao{DB: db, Logger: logger},
		Logger:  logger,
	}
	return dao, mock, func() { db.Close() }
}

func tasksJSON(t *testing.T, tasks models.TaskList) []byte {
	data, err := json.Marshal(tasks)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func inquiryRow(t *testing.T, id, clientID int64, tasks models.TaskList, progress float64) *sqlmock.Rows {
	now := time.Now()
	date := time.Date(2025, time.October, 4, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "user_id", "client_id", "fraternity", "school", "contact_name",
		"contact_phone", "venue", "capacity", "budget", "inquiry_date",
		"inquiry_time", "stage", "power", "gates", "security", "co2_tanks",
		"cdjs", "audio", "tasks", "progress", "created_at", "updated_at",
	}).AddRow(id, "user-1", clientID, "Alpha Beta", "State U", "Chad",
		"555-0100", "Main Lawn", 400, float64(3000), date, "21:30", "Small",
		"20kW Diesel", false, true, 0, 0, "QSC Rig",
		tasksJSON(t, tasks), progress, now, now)
}

func eventRowForPromotion(t *testing.T, id, clientID int64, tasks models.TaskList) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "client_id", "fraternity", "school", "venue",
		"capacity", "budget", "event_date", "stage", "power", "gates",
		"security", "co2_tanks", "cdjs", "audio", "status", "tasks",
		"progress", "created_at", "updated_at",
	}).AddRow(id, "user-1", clientID, "Alpha Beta", "State U", "Main Lawn",
		400, float64(3000), now, "Small", "20kW Diesel", false, true, 0, 0,
		"QSC Rig", models.EventStatusPending, tasksJSON(t, tasks), float64(0),
		now, now)
}

func TestToggleTask_BelowFullProgressJustPersists(t *testing.T) {
	//Arrange
	dao, mock, done := setupInquiryDao(t)
	defer done()

	tasks := models.TaskList{
		{ID: "t1", Name: "Rendering", Completed: false},
		{ID: "t2", Name: "Contract", Completed: false},
		{ID: "t3", Name: "Deposit", Completed: false},
	}
	flipped := models.TaskList{
		{ID: "t1", Name: "Rendering", Completed: true},
		{ID: "t2", Name: "Contract", Completed: false},
		{ID: "t3", Name: "Deposit", Completed: false},
	}

	mock.ExpectQuery(`SELECT (.+) FROM crm.inquiries WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(inquiryRow(t, 5, 7, tasks, 0))
	mock.ExpectQuery(`UPDATE crm.inquiries`).
		WillReturnRows(inquiryRow(t, 5, 7, flipped, 100.0/3))

	//Act
	result, err := dao.ToggleTask(context.Background(), 5, "t1")

	//Assert
	assert.NoError(t, err)
	assert.False(t, result.Promoted)
	assert.NotNil(t, result.Inquiry)
	assert.Nil(t, result.Event)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleTask_FullProgressPromotes(t *testing.T) {
	//Arrange
	dao, mock, done := setupInquiryDao(t)
	defer done()

	tasks := models.TaskList{
		{ID: "t1", Name: "Rendering", Completed: true},
		{ID: "t2", Name: "Contract", Completed: true},
		{ID: "t3", Name: "Deposit", Completed: false},
	}
	eventTasks := models.TaskList{
		{ID: "e1", Name: "Source 20kW Diesel"},
		{ID: "e2", Name: "Source Gates"},
		{ID: "e3", Name: "Paid(Full)"},
	}

	// The promotion issues its statements in fixed order: insert event,
	// read client, update client, delete inquiry. Ordered expectations
	// verify exactly that sequence, each exactly once.
	mock.ExpectQuery(`SELECT (.+) FROM crm.inquiries WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(inquiryRow(t, 5, 7, tasks, 200.0/3))
	mock.ExpectQuery(`INSERT INTO crm.events`).
		WillReturnRows(eventRowForPromotion(t, 42, 7, eventTasks))
	mock.ExpectQuery(`SELECT number_of_events, average_event_size FROM crm.clients WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"number_of_events", "average_event_size"}).
			AddRow(1, float64(5000)))
	// Folding the 3000 budget into (5000, 1): average 4000, count 2, score 8.
	mock.ExpectExec(`UPDATE crm.clients`).
		WithArgs(int64(7), 2, float64(4000), float64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM crm.inquiries WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	//Act
	result, err := dao.ToggleTask(context.Background(), 5, "t3")

	//Assert
	assert.NoError(t, err)
	assert.True(t, result.Promoted)
	assert.Nil(t, result.Inquiry)
	assert.Equal(t, int64(42), result.Event.ID)
	assert.Equal(t, models.EventStatusPending, result.Event.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleTask_ClientUpdateFailureLeavesInquiry(t *testing.T) {
	//Arrange
	dao, mock, done := setupInquiryDao(t)
	defer done()

	tasks := models.TaskList{
		{ID: "t1", Name: "Rendering", Completed: true},
		{ID: "t2", Name: "Deposit", Completed: false},
	}

	mock.ExpectQuery(`SELECT (.+) FROM crm.inquiries WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(inquiryRow(t, 5, 7, tasks, 50))
	mock.ExpectQuery(`INSERT INTO crm.events`).
		WillReturnRows(eventRowForPromotion(t, 42, 7, models.TaskList{}))
	mock.ExpectQuery(`SELECT number_of_events, average_event_size FROM crm.clients`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"number_of_events", "average_event_size"}).
			AddRow(0, float64(0)))
	mock.ExpectExec(`UPDATE crm.clients`).
		WillReturnError(errors.New("connection reset"))
	// No DELETE expectation: the inquiry must survive a failed client update.

	//Act
	_, err := dao.ToggleTask(context.Background(), 5, "t2")

	//Assert
	assert.True(t, errors.Is(err, apperrors.ErrStore))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleTask_UnknownTask(t *testing.T) {
	dao, mock, done := setupInquiryDao(t)
	defer done()

	tasks := models.TaskList{{ID: "t1", Name: "Rendering", Completed: false}}
	mock.ExpectQuery(`SELECT (.+) FROM crm.inquiries WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(inquiryRow(t, 5, 7, tasks, 0))

	_, err := dao.ToggleTask(context.Background(), 5, "nope")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCreateInquiry_MatchRefreshesContact(t *testing.T) {
	//Arrange
	dao, mock, done := setupInquiryDao(t)
	defer done()

	mock.ExpectQuery(`SELECT (.+) FROM crm.clients WHERE user_id = \$1 AND LOWER\(fraternity\)`).
		WithArgs("user-1", "alpha beta", "state u").
		WillReturnRows(clientRow(7, "Alpha Beta", "State U", 2, 4500, 9))
	mock.ExpectExec(`UPDATE crm.clients SET contact_name = \$2, contact_phone = \$3`).
		WithArgs(int64(7), "New Chad", "555-0199").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO crm.inquiries`).
		WillReturnRows(inquiryRow(t, 9, 7, models.TaskList{
			{ID: "t1", Name: "Rendering"},
			{ID: "t2", Name: "Contract"},
			{ID: "t3", Name: "Deposit"},
		}, 0))

	//Act
	inq, err := dao.CreateInquiry(context.Background(), "user-1", &models.CreateInquiryRequest{
		Fraternity:   "alpha beta",
		School:       "state u",
		ContactName:  "New Chad",
		ContactPhone: "555-0199",
		Budget:       3000,
		InquiryDate:  "2025-10-04",
		InquiryTime:  "21:30",
	})

	//Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(7), inq.ClientID)
	assert.Equal(t, []string{"Rendering", "Contract", "Deposit"}, inq.Tasks.Names())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInquiry_NewClientCreated(t *testing.T) {
	//Arrange
	dao, mock, done := setupInquiryDao(t)
	defer done()

	mock.ExpectQuery(`SELECT (.+) FROM crm.clients WHERE user_id = \$1 AND LOWER\(fraternity\)`).
		WithArgs("user-1", "Sigma Chi", "Tech").
		WillReturnError(sql.ErrNoRows)
	// New client seeded with the inquiry's budget as its average event size.
	mock.ExpectQuery(`INSERT INTO crm.clients`).
		WithArgs("user-1", "Sigma Chi", "Tech", "Brett", "555-0142", "",
			0, float64(8000), float64(0)).
		WillReturnRows(clientRow(11, "Sigma Chi", "Tech", 0, 8000, 0))
	mock.ExpectQuery(`INSERT INTO crm.inquiries`).
		WillReturnRows(inquiryRow(t, 9, 11, models.TaskList{
			{ID: "t1", Name: "Rendering"},
			{ID: "t2", Name: "Contract"},
			{ID: "t3", Name: "Deposit"},
		}, 0))

	//Act
	inq, err := dao.CreateInquiry(context.Background(), "user-1", &models.CreateInquiryRequest{
		Fraternity:   "Sigma Chi",
		School:       "Tech",
		ContactName:  "Brett",
		ContactPhone: "555-0142",
		Budget:       8000,
		InquiryDate:  "2025-10-04",
	})

	//Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(11), inq.ClientID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInquiry_BadDate(t *testing.T) {
	dao, _, done := setupInquiryDao(t)
	defer done()

	_, err := dao.CreateInquiry(context.Background(), "user-1", &models.CreateInquiryRequest{
		Fraternity:  "Sigma Chi",
		School:      "Tech",
		InquiryDate: "next friday",
	})

	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}
