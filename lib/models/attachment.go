package models

import "time"

// Attachment is a file attached to an event (stage plots, invoices, signed
// contracts). The file itself lives in S3 under FilePath; rows are soft
// deleted.
type Attachment struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	UserID    string    `json:"user_id"`
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	FileSize  int64     `json:"file_size"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
	IsDeleted bool      `json:"is_deleted"`
}

// CreateAttachmentRequest represents the request payload for registering an
// attachment before upload.
type CreateAttachmentRequest struct {
	FileName string `json:"file_name" binding:"required"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

// AttachmentResponse pairs an attachment row with a presigned URL.
type AttachmentResponse struct {
	Attachment Attachment `json:"attachment"`
	URL        string     `json:"url,omitempty"`
}
