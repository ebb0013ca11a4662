package data

import (
	"context"
	"database/sql"

	"crm/lib/apperrors"
	"crm/lib/metrics"
	"crm/lib/models"

	"github.com/sirupsen/logrus"
)

// EventRepository defines the interface for event data operations. Events are
// only ever created by inquiry promotion (lib/data/inquiry_repository.go).
type EventRepository interface {
	// GetEvents retrieves all events owned by the user
	GetEvents(ctx context.Context, userID string) ([]models.Event, error)

	// GetEventByID retrieves a specific event
	GetEventByID(ctx context.Context, eventID int64) (*models.Event, error)

	// UpdateEvent applies a partial edit to event details
	UpdateEvent(ctx context.Context, eventID int64, req *models.UpdateEventRequest) (*models.Event, error)

	// UpdateEventStatus sets the event status
	UpdateEventStatus(ctx context.Context, eventID int64, status string) error

	// ToggleTask flips an event checklist task and recomputes progress.
	// Unlike inquiries, 100% has no further promotion
	ToggleTask(ctx context.Context, eventID int64, taskID string) (*models.Event, error)

	// DeleteEvent removes an event
	DeleteEvent(ctx context.Context, eventID int64) error
}

// EventDao implements EventRepository using PostgreSQL
type EventDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

const eventColumns = `
	id, user_id, client_id, fraternity, school, venue, capacity, budget,
	event_date, stage, power, gates, security, co2_tanks, cdjs, audio,
	status, tasks, progress, created_at, updated_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	var ev models.Event
	err := row.Scan(
		&ev.ID, &ev.UserID, &ev.ClientID, &ev.Fraternity, &ev.School,
		&ev.Venue, &ev.Capacity, &ev.Budget, &ev.EventDate, &ev.Stage,
		&ev.Power, &ev.Gates, &ev.Security, &ev.CO2Tanks, &ev.CDJs, &ev.Audio,
		&ev.Status, &ev.Tasks, &ev.Progress, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (dao *EventDao) GetEvents(ctx context.Context, userID string) ([]models.Event, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM crm.events
		WHERE user_id = $1
		ORDER BY event_date, id
	`, userID)
	if err != nil {
		return nil, apperrors.Storef(err, "list events")
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, apperrors.Storef(err, "scan event")
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func (dao *EventDao) GetEventByID(ctx context.Context, eventID int64) (*models.Event, error) {
	ev, err := scanEvent(dao.DB.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM crm.events
		WHERE id = $1
	`, eventID))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundf("event %d", eventID)
	}
	if err != nil {
		return nil, apperrors.Storef(err, "get event")
	}
	return ev, nil
}

func (dao *EventDao) UpdateEvent(ctx context.Context, eventID int64, req *models.UpdateEventRequest) (*models.Event, error) {
	current, err := dao.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if req.Venue != nil {
		current.Venue = *req.Venue
	}
	if req.Capacity != nil {
		current.Capacity = *req.Capacity
	}
	if req.Budget != nil {
		current.Budget = *req.Budget
	}
	if req.Stage != nil {
		current.Stage = *req.Stage
	}
	if req.Power != nil {
		current.Power = *req.Power
	}
	if req.Gates != nil {
		current.Gates = *req.Gates
	}
	if req.Security != nil {
		current.Security = *req.Security
	}
	if req.CO2Tanks != nil {
		current.CO2Tanks = *req.CO2Tanks
	}
	if req.CDJs != nil {
		current.CDJs = *req.CDJs
	}
	if req.Audio != nil {
		current.Audio = *req.Audio
	}

	ev, err := scanEvent(dao.DB.QueryRowContext(ctx, `
		UPDATE crm.events SET
			venue = $2, capacity = $3, budget = $4, stage = $5, power = $6,
			gates = $7, security = $8, co2_tanks = $9, cdjs = $10, audio = $11,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+eventColumns+`
	`, eventID, current.Venue, current.Capacity, current.Budget, current.Stage,
		current.Power, current.Gates, current.Security, current.CO2Tanks,
		current.CDJs, current.Audio))
	if err != nil {
		return nil, apperrors.Storef(err, "update event")
	}
	return ev, nil
}

func (dao *EventDao) UpdateEventStatus(ctx context.Context, eventID int64, status string) error {
	if !models.ValidEventStatus(status) {
		return apperrors.Validationf("invalid event status %q", status)
	}

	result, err := dao.DB.ExecContext(ctx, `
		UPDATE crm.events SET status = $2, updated_at = NOW() WHERE id = $1
	`, eventID, status)
	if err != nil {
		return apperrors.Storef(err, "update event status")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFoundf("event %d", eventID)
	}

	dao.Logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"status":   status,
	}).Info("Event status updated")
	return nil
}

func (dao *EventDao) ToggleTask(ctx context.Context, eventID int64, taskID string) (*models.Event, error) {
	if taskID == "" {
		return nil, apperrors.Validationf("taskId is required")
	}

	ev, err := dao.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	task := ev.Tasks.Find(taskID)
	if task == nil {
		return nil, apperrors.NotFoundf("task %s on event %d", taskID, eventID)
	}
	task.Completed = !task.Completed
	progress := metrics.Progress(ev.Tasks)

	updated, err := scanEvent(dao.DB.QueryRowContext(ctx, `
		UPDATE crm.events
		SET tasks = $2, progress = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+eventColumns+`
	`, eventID, ev.Tasks, progress))
	if err != nil {
		return nil, apperrors.Storef(err, "update event tasks")
	}
	return updated, nil
}

func (dao *EventDao) DeleteEvent(ctx context.Context, eventID int64) error {
	result, err := dao.DB.ExecContext(ctx, `
		DELETE FROM crm.events WHERE id = $1
	`, eventID)
	if err != nil {
		return apperrors.Storef(err, "delete event")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFoundf("event %d", eventID)
	}
	dao.Logger.WithField("event_id", eventID).Info("Event deleted")
	return nil
}
