package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dfryer1193/mediasweep/media/domain"
	"github.com/dfryer1193/mediasweep/shared/db"
	"github.com/rs/zerolog/log"
)

var _ domain.AttachmentRepository = (*WordPressAttachmentRepository)(nil)

// ErrAttachmentNotFound is returned when the attachment row no longer exists
var ErrAttachmentNotFound = errors.New("attachment not found")

// WordPressAttachmentRepository deletes attachments the way wp_delete_attachment does with
// force_delete: metadata and post rows go first, then the files in uploads storage
type WordPressAttachmentRepository struct {
	db     *sql.DB
	tables tables
	files  domain.FileStore
}

// NewAttachmentRepository creates a repository for the tables named with prefix
func NewAttachmentRepository(sqlDB *sql.DB, prefix string, files domain.FileStore) (*WordPressAttachmentRepository, error) {
	t, err := newTables(prefix)
	if err != nil {
		return nil, err
	}

	return &WordPressAttachmentRepository{
		db:     sqlDB,
		tables: t,
		files:  files,
	}, nil
}

const (
	deleteAttachmentMetaQuery = `
		DELETE FROM {postmeta} WHERE post_id = ?
	`
	deleteAttachmentPostQuery = `
		DELETE FROM {posts} WHERE ID = ? AND post_type = 'attachment'
	`
)

// DeleteAttachment removes the attachment rows and its main file within a transaction.
// Generated image sizes are removed after the commit; failures there are logged, not returned.
func (r *WordPressAttachmentRepository) DeleteAttachment(ctx context.Context, att domain.Attachment) error {
	if att.ID <= 0 {
		return fmt.Errorf("attachment ID must be positive, got %d", att.ID)
	}

	var metadata sql.NullString
	err := r.db.QueryRowContext(ctx, r.tables.format(getMetaQuery), att.ID, attachmentMetadataKey).Scan(&metadata)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to load attachment metadata: %w", err)
	}

	err = db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		res, err := executor.ExecContext(txCtx, r.tables.format(deleteAttachmentPostQuery), att.ID)
		if err != nil {
			return fmt.Errorf("failed to delete attachment record: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read deleted rows: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %d", ErrAttachmentNotFound, att.ID)
		}

		if _, err := executor.ExecContext(txCtx, r.tables.format(deleteAttachmentMetaQuery), att.ID); err != nil {
			return fmt.Errorf("failed to delete attachment metadata: %w", err)
		}

		// Then remove the file - if this fails, transaction rolls back
		if att.File != "" {
			if err := r.files.Remove(txCtx, att.File); err != nil {
				return fmt.Errorf("failed to remove attachment file: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	derived, err := derivedFiles(att.File, metadata.String)
	if err != nil {
		log.Warn().Err(err).Int64("attachmentID", att.ID).Msg("Failed to read attachment metadata, generated sizes left in place")
	}
	for _, file := range derived {
		if err := r.files.Remove(ctx, file); err != nil {
			log.Warn().Err(err).Int64("attachmentID", att.ID).Str("file", file).Msg("Failed to remove generated image size")
		}
	}

	return nil
}
