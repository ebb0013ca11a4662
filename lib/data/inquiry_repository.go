package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"crm/lib/apperrors"
	"crm/lib/lifecycle"
	"crm/lib/metrics"
	"crm/lib/models"

	"github.com/sirupsen/logrus"
)

// InquiryRepository defines the interface for inquiry data operations,
// including the promotion that turns a fully-completed inquiry into an event.
type InquiryRepository interface {
	// GetInquiries retrieves all inquiries owned by the user
	GetInquiries(ctx context.Context, userID string) ([]models.Inquiry, error)

	// GetInquiryByID retrieves a specific inquiry
	GetInquiryByID(ctx context.Context, inquiryID int64) (*models.Inquiry, error)

	// CreateInquiry resolves the client by case-insensitive
	// (fraternity, school) match - creating one when absent - then inserts
	// the inquiry with the default three-task checklist
	CreateInquiry(ctx context.Context, userID string, req *models.CreateInquiryRequest) (*models.Inquiry, error)

	// UpdateInquiry applies a partial edit to inquiry details
	UpdateInquiry(ctx context.Context, inquiryID int64, req *models.UpdateInquiryRequest) (*models.Inquiry, error)

	// DeleteInquiry removes an inquiry
	DeleteInquiry(ctx context.Context, inquiryID int64) error

	// ToggleTask flips a checklist task. Reaching 100% promotes the inquiry:
	// the event is inserted, the client's rolling stats are updated, and the
	// inquiry row is deleted
	ToggleTask(ctx context.Context, inquiryID int64, taskID string) (*models.ToggleTaskResponse, error)
}

// InquiryDao implements InquiryRepository using PostgreSQL
type InquiryDao struct {
	DB      *sql.DB
	Clients ClientRepository
	Logger  *logrus.Logger
}

const inquiryColumns = `
	id, user_id, client_id, fraternity, school, contact_name, contact_phone,
	venue, capacity, budget, inquiry_date, inquiry_time, stage, power, gates,
	security, co2_tanks, cdjs, audio, tasks, progress, created_at, updated_at`

func scanInquiry(row interface{ Scan(...interface{}) error }) (*models.Inquiry, error) {
	var inq models.Inquiry
	err := row.Scan(
		&inq.ID, &inq.UserID, &inq.ClientID, &inq.Fraternity, &inq.School,
		&inq.ContactName, &inq.ContactPhone, &inq.Venue, &inq.Capacity,
		&inq.Budget, &inq.InquiryDate, &inq.InquiryTime, &inq.Stage,
		&inq.Power, &inq.Gates, &inq.Security, &inq.CO2Tanks, &inq.CDJs,
		&inq.Audio, &inq.Tasks, &inq.Progress, &inq.CreatedAt, &inq.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inq, nil
}

func (dao *InquiryDao) GetInquiries(ctx context.Context, userID string) ([]models.Inquiry, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT `+inquiryColumns+`
		FROM crm.inquiries
		WHERE user_id = $1
		ORDER BY inquiry_date, id
	`, userID)
	if err != nil {
		return nil, apperrors.Storef(err, "list inquiries")
	}
	defer rows.Close()

	var inquiries []models.Inquiry
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, apperrors.Storef(err, "scan inquiry")
		}
		inquiries = append(inquiries, *inq)
	}
	return inquiries, rows.Err()
}

func (dao *InquiryDao) GetInquiryByID(ctx context.Context, inquiryID int64) (*models.Inquiry, error) {
	inq, err := scanInquiry(dao.DB.QueryRowContext(ctx, `
		SELECT `+inquiryColumns+`
		FROM crm.inquiries
		WHERE id = $1
	`, inquiryID))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundf("inquiry %d", inquiryID)
	}
	if err != nil {
		return nil, apperrors.Storef(err, "get inquiry")
	}
	return inq, nil
}

func (dao *InquiryDao) CreateInquiry(ctx context.Context, userID string, req *models.CreateInquiryRequest) (*models.Inquiry, error) {
	if req.Fraternity == "" || req.School == "" {
		return nil, apperrors.Validationf("fraternity and school are required")
	}
	inquiryDate, err := time.Parse("2006-01-02", req.InquiryDate)
	if err != nil {
		return nil, apperrors.Validationf("invalid inquiry_date %q, want YYYY-MM-DD", req.InquiryDate)
	}

	// Resolve the client. A match refreshes the contact fields so the client
	// always carries the most recent inquiry's contact info.
	client, err := dao.Clients.FindByFraternitySchool(ctx, userID, req.Fraternity, req.School)
	switch {
	case err == nil:
		if updateErr := dao.Clients.UpdateContact(ctx, client.ID, req.ContactName, req.ContactPhone); updateErr != nil {
			dao.Logger.WithError(updateErr).WithField("client_id", client.ID).
				Warn("Failed to refresh client contact from inquiry")
		}
	case errors.Is(err, apperrors.ErrNotFound):
		client, err = dao.Clients.CreateClient(ctx, userID, &models.CreateClientRequest{
			Fraternity:       req.Fraternity,
			School:           req.School,
			ContactName:      req.ContactName,
			ContactPhone:     req.ContactPhone,
			AverageEventSize: req.Budget,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	tasks := lifecycle.DefaultInquiryTasks()
	inq, err := scanInquiry(dao.DB.QueryRowContext(ctx, `
		INSERT INTO crm.inquiries (
			user_id, client_id, fraternity, school, contact_name, contact_phone,
			venue, capacity, budget, inquiry_date, inquiry_time, stage, power,
			gates, security, co2_tanks, cdjs, audio, tasks, progress,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, NOW(), NOW())
		RETURNING `+inquiryColumns+`
	`, userID, client.ID, req.Fraternity, req.School, req.ContactName,
		req.ContactPhone, req.Venue, req.Capacity, req.Budget, inquiryDate,
		req.InquiryTime, req.Stage, req.Power, req.Gates, req.Security,
		req.CO2Tanks, req.CDJs, req.Audio, tasks, float64(0)))
	if err != nil {
		dao.Logger.WithError(err).Error("Failed to create inquiry")
		return nil, apperrors.Storef(err, "create inquiry")
	}

	dao.Logger.WithFields(logrus.Fields{
		"inquiry_id": inq.ID,
		"client_id":  client.ID,
	}).Info("Inquiry created")
	return inq, nil
}

func (dao *InquiryDao) UpdateInquiry(ctx context.Context, inquiryID int64, req *models.UpdateInquiryRequest) (*models.Inquiry, error) {
	current, err := dao.GetInquiryByID(ctx, inquiryID)
	if err != nil {
		return nil, err
	}

	if req.ContactName != nil {
		current.ContactName = *req.ContactName
	}
	if req.ContactPhone != nil {
		current.ContactPhone = *req.ContactPhone
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
	if req.InquiryDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.InquiryDate)
		if err != nil {
			return nil, apperrors.Validationf("invalid inquiry_date %q", *req.InquiryDate)
		}
		current.InquiryDate = parsed
	}
	if req.InquiryTime != nil {
		current.InquiryTime = *req.InquiryTime
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

	inq, err := scanInquiry(dao.DB.QueryRowContext(ctx, `
		UPDATE crm.inquiries SET
			contact_name = $2, contact_phone = $3, venue = $4, capacity = $5,
			budget = $6, inquiry_date = $7, inquiry_time = $8, stage = $9,
			power = $10, gates = $11, security = $12, co2_tanks = $13,
			cdjs = $14, audio = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING `+inquiryColumns+`
	`, inquiryID, current.ContactName, current.ContactPhone, current.Venue,
		current.Capacity, current.Budget, current.InquiryDate,
		current.InquiryTime, current.Stage, current.Power, current.Gates,
		current.Security, current.CO2Tanks, current.CDJs, current.Audio))
	if err != nil {
		return nil, apperrors.Storef(err, "update inquiry")
	}
	return inq, nil
}

func (dao *InquiryDao) DeleteInquiry(ctx context.Context, inquiryID int64) error {
	result, err := dao.DB.ExecContext(ctx, `
		DELETE FROM crm.inquiries WHERE id = $1
	`, inquiryID)
	if err != nil {
		return apperrors.Storef(err, "delete inquiry")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFoundf("inquiry %d", inquiryID)
	}
	return nil
}

// ToggleTask flips the named task and persists the recomputed progress.
// At exactly 100% the inquiry is promoted instead: insert the event, fold the
// budget into the client's rolling stats, delete the inquiry. The steps run
// as independent statements in that fixed order - no transaction - so a
// failure partway leaves the event in place with the inquiry still present.
// Each step logs its promotion_step on failure to make that state visible.
func (dao *InquiryDao) ToggleTask(ctx context.Context, inquiryID int64, taskID string) (*models.ToggleTaskResponse, error) {
	if taskID == "" {
		return nil, apperrors.Validationf("taskId is required")
	}

	inq, err := dao.GetInquiryByID(ctx, inquiryID)
	if err != nil {
		return nil, err
	}

	task := inq.Tasks.Find(taskID)
	if task == nil {
		return nil, apperrors.NotFoundf("task %s on inquiry %d", taskID, inquiryID)
	}
	task.Completed = !task.Completed
	inq.Progress = metrics.Progress(inq.Tasks)

	if inq.Progress < 100 {
		updated, err := scanInquiry(dao.DB.QueryRowContext(ctx, `
			UPDATE crm.inquiries
			SET tasks = $2, progress = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING `+inquiryColumns+`
		`, inquiryID, inq.Tasks, inq.Progress))
		if err != nil {
			return nil, apperrors.Storef(err, "update inquiry tasks")
		}
		return &models.ToggleTaskResponse{Inquiry: updated}, nil
	}

	event, err := dao.promote(ctx, inq)
	if err != nil {
		return nil, err
	}
	return &models.ToggleTaskResponse{Promoted: true, Event: event}, nil
}

func (dao *InquiryDao) promote(ctx context.Context, inq *models.Inquiry) (*models.Event, error) {
	eventTasks := lifecycle.BuildEventTasks(inq)
	eventDate := lifecycle.EventDate(inq.InquiryDate, inq.InquiryTime)

	var ev models.Event
	err := dao.DB.QueryRowContext(ctx, `
		INSERT INTO crm.events (
			user_id, client_id, fraternity, school, venue, capacity, budget,
			event_date, stage, power, gates, security, co2_tanks, cdjs, audio,
			status, tasks, progress, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, NOW(), NOW())
		RETURNING `+eventColumns+`
	`, inq.UserID, inq.ClientID, inq.Fraternity, inq.School, inq.Venue,
		inq.Capacity, inq.Budget, eventDate, inq.Stage, inq.Power, inq.Gates,
		inq.Security, inq.CO2Tanks, inq.CDJs, inq.Audio,
		models.EventStatusPending, eventTasks, float64(0)).Scan(
		&ev.ID, &ev.UserID, &ev.ClientID, &ev.Fraternity, &ev.School,
		&ev.Venue, &ev.Capacity, &ev.Budget, &ev.EventDate, &ev.Stage,
		&ev.Power, &ev.Gates, &ev.Security, &ev.CO2Tanks, &ev.CDJs, &ev.Audio,
		&ev.Status, &ev.Tasks, &ev.Progress, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		dao.Logger.WithError(err).WithFields(logrus.Fields{
			"inquiry_id":     inq.ID,
			"promotion_step": "insert_event",
		}).Error("Promotion failed")
		return nil, apperrors.Storef(err, "promote: insert event")
	}

	var numberOfEvents int
	var averageEventSize float64
	err = dao.DB.QueryRowContext(ctx, `
		SELECT number_of_events, average_event_size
		FROM crm.clients
		WHERE id = $1
	`, inq.ClientID).Scan(&numberOfEvents, &averageEventSize)
	if err != nil {
		dao.Logger.WithError(err).WithFields(logrus.Fields{
			"inquiry_id":     inq.ID,
			"promotion_step": "read_client",
		}).Error("Promotion failed")
		return nil, apperrors.Storef(err, "promote: read client stats")
	}

	newAverage := metrics.RunningAverage(averageEventSize, numberOfEvents, inq.Budget)
	newCount := numberOfEvents + 1
	newScore := metrics.ClientScore(newCount, newAverage)

	_, err = dao.DB.ExecContext(ctx, `
		UPDATE crm.clients
		SET number_of_events = $2, average_event_size = $3, client_score = $4,
			updated_at = NOW()
		WHERE id = $1
	`, inq.ClientID, newCount, newAverage, newScore)
	if err != nil {
		dao.Logger.WithError(err).WithFields(logrus.Fields{
			"inquiry_id":     inq.ID,
			"promotion_step": "update_client",
		}).Error("Promotion failed")
		return nil, apperrors.Storef(err, "promote: update client stats")
	}

	_, err = dao.DB.ExecContext(ctx, `
		DELETE FROM crm.inquiries WHERE id = $1
	`, inq.ID)
	if err != nil {
		dao.Logger.WithError(err).WithFields(logrus.Fields{
			"inquiry_id":     inq.ID,
			"promotion_step": "delete_inquiry",
		}).Error("Promotion failed")
		return nil, apperrors.Storef(err, "promote: delete inquiry")
	}

	dao.Logger.WithFields(logrus.Fields{
		"inquiry_id": inq.ID,
		"event_id":   ev.ID,
		"client_id":  inq.ClientID,
	}).Info("Inquiry promoted to event")
	return &ev, nil
}
