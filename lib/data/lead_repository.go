package data

import (
	"context"
	"database/sql"

	"crm/lib/apperrors"
	"crm/lib/models"

	"github.com/sirupsen/logrus"
)

// LeadRepository defines the interface for lead data operations
type LeadRepository interface {
	// GetLeads retrieves all leads owned by the user
	GetLeads(ctx context.Context, userID string) ([]models.Lead, error)

	// GetLeadByID retrieves a specific lead
	GetLeadByID(ctx context.Context, leadID int64) (*models.Lead, error)

	// CreateLead inserts a new lead, defaulting status to General
	CreateLead(ctx context.Context, userID string, req *models.CreateLeadRequest) (*models.Lead, error)

	// UpdateLead applies a partial edit to a lead
	UpdateLead(ctx context.Context, leadID int64, req *models.UpdateLeadRequest) (*models.Lead, error)

	// DeleteLead removes a lead
	DeleteLead(ctx context.Context, leadID int64) error
}

// LeadDao implements LeadRepository using PostgreSQL
type LeadDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

const leadColumns = `
	id, user_id, name, fraternity, school, phone, email, status, notes,
	created_at, updated_at`

func scanLead(row interface{ Scan(...interface{}) error }) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(
		&l.ID, &l.UserID, &l.Name, &l.Fraternity, &l.School, &l.Phone,
		&l.Email, &l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (dao *LeadDao) GetLeads(ctx context.Context, userID string) ([]models.Lead, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM crm.leads
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, apperrors.Storef(err, "list leads")
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, apperrors.Storef(err, "scan lead")
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

func (dao *LeadDao) GetLeadByID(ctx context.Context, leadID int64) (*models.Lead, error) {
	l, err := scanLead(dao.DB.QueryRowContext(ctx, `
		SELECT `+leadColumns+`
		FROM crm.leads
		WHERE id = $1
	`, leadID))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundf("lead %d", leadID)
	}
	if err != nil {
		return nil, apperrors.Storef(err, "get lead")
	}
	return l, nil
}

func (dao *LeadDao) CreateLead(ctx context.Context, userID string, req *models.CreateLeadRequest) (*models.Lead, error) {
	if req.Name == "" {
		return nil, apperrors.Validationf("name is required")
	}
	status := req.Status
	if status == "" {
		status = models.LeadStatusGeneral
	}
	if !models.ValidLeadStatus(status) {
		return nil, apperrors.Validationf("invalid lead status %q", status)
	}

	l, err := scanLead(dao.DB.QueryRowContext(ctx, `
		INSERT INTO crm.leads (
			user_id, name, fraternity, school, phone, email, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING `+leadColumns+`
	`, userID, req.Name, req.Fraternity, req.School, req.Phone, req.Email,
		status, req.Notes))
	if err != nil {
		dao.Logger.WithError(err).Error("Failed to create lead")
		return nil, apperrors.Storef(err, "create lead")
	}

	dao.Logger.WithField("lead_id", l.ID).Info("Lead created")
	return l, nil
}

func (dao *LeadDao) UpdateLead(ctx context.Context, leadID int64, req *models.UpdateLeadRequest) (*models.Lead, error) {
	current, err := dao.GetLeadByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Fraternity != nil {
		current.Fraternity = *req.Fraternity
	}
	if req.School != nil {
		current.School = *req.School
	}
	if req.Phone != nil {
		current.Phone = *req.Phone
	}
	if req.Email != nil {
		current.Email = *req.Email
	}
	if req.Status != nil {
		if !models.ValidLeadStatus(*req.Status) {
			return nil, apperrors.Validationf("invalid lead status %q", *req.Status)
		}
		current.Status = *req.Status
	}
	if req.Notes != nil {
		current.Notes = *req.Notes
	}

	l, err := scanLead(dao.DB.QueryRowContext(ctx, `
		UPDATE crm.leads SET
			name = $2, fraternity = $3, school = $4, phone = $5, email = $6,
			status = $7, notes = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+leadColumns+`
	`, leadID, current.Name, current.Fraternity, current.School, current.Phone,
		current.Email, current.Status, current.Notes))
	if err != nil {
		return nil, apperrors.Storef(err, "update lead")
	}
	return l, nil
}

func (dao *LeadDao) DeleteLead(ctx context.Context, leadID int64) error {
	result, err := dao.DB.ExecContext(ctx, `
		DELETE FROM crm.leads WHERE id = $1
	`, leadID)
	if err != nil {
		return apperrors.Storef(err, "delete lead")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFoundf("lead %d", leadID)
	}
	dao.Logger.WithField("lead_id", leadID).Info("Lead deleted")
	return nil
}
