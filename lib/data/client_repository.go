package data

import (
	"context"
	"database/sql"

	"crm/lib/apperrors"
	"crm/lib/metrics"
	"crm/lib/models"

	"github.com/sirupsen/logrus"
)

// ClientRepository defines the interface for client data operations
type ClientRepository interface {
	// GetClients retrieves all clients owned by the user
	GetClients(ctx context.Context, userID string) ([]models.Client, error)

	// GetClientByID retrieves a specific client
	GetClientByID(ctx context.Context, clientID int64) (*models.Client, error)

	// FindByFraternitySchool matches a client by case-insensitive
	// (fraternity, school) pair
	FindByFraternitySchool(ctx context.Context, userID, fraternity, school string) (*models.Client, error)

	// CreateClient inserts a new client with its score computed server-side
	CreateClient(ctx context.Context, userID string, req *models.CreateClientRequest) (*models.Client, error)

	// UpdateClient applies a partial edit and recomputes the score
	UpdateClient(ctx context.Context, clientID int64, req *models.UpdateClientRequest) (*models.Client, error)

	// UpdateContact refreshes the contact fields from the most recent inquiry
	UpdateContact(ctx context.Context, clientID int64, contactName, contactPhone string) error

	// DeleteClient removes a client
	DeleteClient(ctx context.Context, clientID int64) error
}

// ClientDao implements ClientRepository using PostgreSQL
type ClientDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

const clientColumns = `
	id, user_id, fraternity, school, contact_name, contact_phone, contact_email,
	number_of_events, average_event_size, client_score, created_at, updated_at`

func scanClient(row interface{ Scan(...interface{}) error }) (*models.Client, error) {
	var c models.Client
	err := row.Scan(
		&c.ID, &c.UserID, &c.Fraternity, &c.School,
		&c.ContactName, &c.ContactPhone, &c.ContactEmail,
		&c.NumberOfEvents, &c.AverageEventSize, &c.ClientScore,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (dao *ClientDao) GetClients(ctx context.Context, userID string) ([]models.Client, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT `+clientColumns+`
		FROM crm.clients
		WHERE user_id = $1
		ORDER BY client_score DESC, id
	`, userID)
	if err != nil {
		return nil, apperrors.Storef(err, "list clients")
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, apperrors.Storef(err, "scan client")
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

func (dao *ClientDao) GetClientByID(ctx context.Context, clientID int64) (*models.Client, error) {
	c, err := scanClient(dao.DB.QueryRowContext(ctx, `
		SELECT `+clientColumns+`
		FROM crm.clients
		WHERE id = $1
	`, clientID))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundf("client %d", clientID)
	}
	if err != nil {
		return nil, apperrors.Storef(err, "get client")
	}
	return c, nil
}

func (dao *ClientDao) FindByFraternitySchool(ctx context.Context, userID, fraternity, school string) (*models.Client, error) {
	c, err := scanClient(dao.DB.QueryRowContext(ctx, `
		SELECT `+clientColumns+`
		FROM crm.clients
		WHERE user_id = $1 AND LOWER(fraternity) = LOWER($2) AND LOWER(school) = LOWER($3)
	`, userID, fraternity, school))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundf("client %s/%s", fraternity, school)
	}
	if err != nil {
		return nil, apperrors.Storef(err, "find client by fraternity/school")
	}
	return c, nil
}

func (dao *ClientDao) CreateClient(ctx context.Context, userID string, req *models.CreateClientRequest) (*models.Client, error) {
	if req.Fraternity == "" || req.School == "" {
		return nil, apperrors.Validationf("fraternity and school are required")
	}

	// A brand-new client has no events yet; the score follows from that.
	numberOfEvents := 0
	score := metrics.ClientScore(numberOfEvents, req.AverageEventSize)

	c, err := scanClient(dao.DB.QueryRowContext(ctx, `
		INSERT INTO crm.clients (
			user_id, fraternity, school, contact_name, contact_phone, contact_email,
			number_of_events, average_event_size, client_score, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING `+clientColumns+`
	`, userID, req.Fraternity, req.School, req.ContactName, req.ContactPhone,
		req.ContactEmail, numberOfEvents, req.AverageEventSize, score))
	if err != nil {
		dao.Logger.WithError(err).WithFields(logrus.Fields{
			"fraternity": req.Fraternity,
			"school":     req.School,
		}).Error("Failed to create client")
		return nil, apperrors.Storef(err, "create client")
	}

	dao.Logger.WithFields(logrus.Fields{
		"client_id":  c.ID,
		"fraternity": c.Fraternity,
		"school":     c.School,
	}).Info("Client created")
	return c, nil
}

func (dao *ClientDao) UpdateClient(ctx context.Context, clientID int64, req *models.UpdateClientRequest) (*models.Client, error) {
	current, err := dao.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if req.Fraternity != nil {
		current.Fraternity = *req.Fraternity
	}
	if req.School != nil {
		current.School = *req.School
	}
	if req.ContactName != nil {
		current.ContactName = *req.ContactName
	}
	if req.ContactPhone != nil {
		current.ContactPhone = *req.ContactPhone
	}
	if req.ContactEmail != nil {
		current.ContactEmail = *req.ContactEmail
	}
	if req.NumberOfEvents != nil {
		current.NumberOfEvents = *req.NumberOfEvents
	}
	if req.AverageEventSize != nil {
		current.AverageEventSize = *req.AverageEventSize
	}

	// The score is never taken from the request.
	current.ClientScore = metrics.ClientScore(current.NumberOfEvents, current.AverageEventSize)

	c, err := scanClient(dao.DB.QueryRowContext(ctx, `
		UPDATE crm.clients SET
			fraternity = $2, school = $3, contact_name = $4, contact_phone = $5,
			contact_email = $6, number_of_events = $7, average_event_size = $8,
			client_score = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING `+clientColumns+`
	`, clientID, current.Fraternity, current.School, current.ContactName,
		current.ContactPhone, current.ContactEmail, current.NumberOfEvents,
		current.AverageEventSize, current.ClientScore))
	if err != nil {
		return nil, apperrors.Storef(err, "update client")
	}
	return c, nil
}

func (dao *ClientDao) UpdateContact(ctx context.Context, clientID int64, contactName, contactPhone string) error {
	result, err := dao.DB.ExecContext(ctx, `
		UPDATE crm.clients
		SET contact_name = $2, contact_phone = $3, updated_at = NOW()
		WHERE id = $1
	`, clientID, contactName, contactPhone)
	if err != nil {
		return apperrors.Storef(err, "update client contact")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFoundf("client %d", clientID)
	}
	return nil
}

func (dao *ClientDao) DeleteClient(ctx context.Context, clientID int64) error {
	result, err := dao.DB.ExecContext(ctx, `
		DELETE FROM crm.clients WHERE id = $1
	`, clientID)
	if err != nil {
		return apperrors.Storef(err, "delete client")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFoundf("client %d", clientID)
	}
	dao.Logger.WithField("client_id", clientID).Info("Client deleted")
	return nil
}
