package data

import (
	"context"
	"database/sql"

	"crm/lib/apperrors"
	"crm/lib/models"

	"github.com/sirupsen/logrus"
)

// AttachmentRepository defines the interface for event attachment records.
// File bytes live in S3; these rows only track metadata and the object key.
type AttachmentRepository interface {
	CreateAttachment(ctx context.Context, attachment *models.Attachment) (*models.Attachment, error)
	GetAttachment(ctx context.Context, attachmentID int64) (*models.Attachment, error)
	GetAttachmentsByEvent(ctx context.Context, eventID int64) ([]models.Attachment, error)
	SoftDeleteAttachment(ctx context.Context, attachmentID int64) error
}

// AttachmentDao implements the AttachmentRepository interface
type AttachmentDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

const attachmentColumns = `
	id, event_id, user_id, file_name, file_path, file_size, file_type,
	created_at, is_deleted`

func scanAttachment(row interface{ Scan(...interface{}) error }) (*models.Attachment, error) {
	var a models.Attachment
	err := row.Scan(
		&a.ID, &a.EventID, &a.UserID, &a.FileName, &a.FilePath, &a.FileSize,
		&a.FileType, &a.CreatedAt, &a.IsDeleted,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (dao *AttachmentDao) CreateAttachment(ctx context.Context, attachment *models.Attachment) (*models.Attachment, error) {
	created, err := scanAttachment(dao.DB.QueryRowContext(ctx, `
		INSERT INTO crm.event_attachments (
			event_id, user_id, file_name, file_path, file_size, file_type,
			created_at, is_deleted
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), false)
		RETURNING `+attachmentColumns+`
	`, attachment.EventID, attachment.UserID, attachment.FileName,
		attachment.FilePath, attachment.FileSize, attachment.FileType))
	if err != nil {
		dao.Logger.WithError(err).WithFields(logrus.Fields{
			"event_id":  attachment.EventID,
			"file_name": attachment.FileName,
		}).Error("Failed to create attachment")
		return nil, apperrors.Storef(err, "create attachment")
	}

	dao.Logger.WithFields(logrus.Fields{
		"attachment_id": created.ID,
		"event_id":      created.EventID,
		"file_name":     created.FileName,
	}).Info("Attachment created")
	return created, nil
}

func (dao *AttachmentDao) GetAttachment(ctx context.Context, attachmentID int64) (*models.Attachment, error) {
	a, err := scanAttachment(dao.DB.QueryRowContext(ctx, `
		SELECT `+attachmentColumns+`
		FROM crm.event_attachments
		WHERE id = $1 AND is_deleted = false
	`, attachmentID))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundf("attachment %d", attachmentID)
	}
	if err != nil {
		return nil, apperrors.Storef(err, "get attachment")
	}
	return a, nil
}

func (dao *AttachmentDao) GetAttachmentsByEvent(ctx context.Context, eventID int64) ([]models.Attachment, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT `+attachmentColumns+`
		FROM crm.event_attachments
		WHERE event_id = $1 AND is_deleted = false
		ORDER BY created_at DESC
	`, eventID)
	if err != nil {
		return nil, apperrors.Storef(err, "list attachments")
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, apperrors.Storef(err, "scan attachment")
		}
		attachments = append(attachments, *a)
	}
	return attachments, rows.Err()
}

func (dao *AttachmentDao) SoftDeleteAttachment(ctx context.Context, attachmentID int64) error {
	result, err := dao.DB.ExecContext(ctx, `
		UPDATE crm.event_attachments SET is_deleted = true WHERE id = $1
	`, attachmentID)
	if err != nil {
		return apperrors.Storef(err, "delete attachment")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFoundf("attachment %d", attachmentID)
	}
	return nil
}
