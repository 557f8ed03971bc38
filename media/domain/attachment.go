package domain

import "context"

// Attachment is an image attachment in the media library
type Attachment struct {
	ID       int64
	MIMEType string
	// File is the stored path relative to the uploads root, e.g. "2024/05/photo.jpg"
	File string
	URL  string
}

type AttachmentLister interface {
	// CountImageAttachments returns how many image attachments the library holds
	CountImageAttachments(ctx context.Context) (int, error)

	// ListImageAttachments returns image attachments with an ID greater than afterID in ascending ID order.
	// A limit <= 0 returns all remaining attachments.
	ListImageAttachments(ctx context.Context, afterID int64, limit int) ([]Attachment, error)
}

type AttachmentRepository interface {
	// DeleteAttachment permanently removes the attachment record and its files
	DeleteAttachment(ctx context.Context, att Attachment) error
}

// FileStore removes files from the site's uploads storage.
// Removing a file that does not exist is not an error.
type FileStore interface {
	Remove(ctx context.Context, relPath string) error
}
