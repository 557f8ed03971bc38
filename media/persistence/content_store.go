package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dfryer1193/mediasweep/media/domain"
)

var (
	_ domain.ContentStore     = (*WordPressContentStore)(nil)
	_ domain.AttachmentLister = (*WordPressContentStore)(nil)
)

const (
	attachedFileKey = "_wp_attached_file"
	imageMIMEFilter = "image/%"
	inheritStatus   = "inherit"
)

// defaultStatuses are the statuses matched when a query does not ask for any status
var defaultStatuses = []string{"publish", "private", "draft", "pending", "future"}

// WordPressContentStore implements domain.ContentStore and domain.AttachmentLister
// on top of the WordPress posts and postmeta tables
type WordPressContentStore struct {
	db         *sql.DB
	tables     tables
	uploadsURL string
}

// NewContentStore creates a store for the tables named with prefix.
// uploadsURL is the public base URL of the uploads directory, e.g. "https://example.com/wp-content/uploads".
func NewContentStore(sqlDB *sql.DB, prefix string, uploadsURL string) (*WordPressContentStore, error) {
	t, err := newTables(prefix)
	if err != nil {
		return nil, err
	}

	return &WordPressContentStore{
		db:         sqlDB,
		tables:     t,
		uploadsURL: strings.TrimRight(uploadsURL, "/"),
	}, nil
}

// Exists reports whether at least one content item matches q
func (s *WordPressContentStore) Exists(ctx context.Context, q domain.Query) (bool, error) {
	query, args := s.buildExistsQuery(q)

	if q.Accept == nil {
		var id int64
		err := s.db.QueryRowContext(ctx, query, args...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to query content: %w", err)
		}
		return true, nil
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to query content: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var value sql.NullString
		if err := rows.Scan(&id, &value); err != nil {
			return false, fmt.Errorf("failed to scan content row: %w", err)
		}
		if q.Accept(value.String) {
			return true, nil
		}
	}

	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("error iterating content rows: %w", err)
	}

	return false, nil
}

// buildExistsQuery renders q as a single SELECT. Without an Accept filter the query is limited
// to one row; with one it also selects the meta value so rows can be filtered in order.
func (s *WordPressContentStore) buildExistsQuery(q domain.Query) (string, []any) {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT p.ID")
	if q.Accept != nil && q.Meta != nil {
		sb.WriteString(", pm.meta_value")
	} else if q.Accept != nil {
		sb.WriteString(", NULL")
	}
	sb.WriteString(" FROM {posts} p")

	if q.Meta != nil {
		sb.WriteString(" INNER JOIN {postmeta} pm ON pm.post_id = p.ID AND pm.meta_key = ?")
		args = append(args, q.Meta.Key)
	}

	if len(q.PostTypes) > 0 {
		sb.WriteString(" WHERE p.post_type IN (" + placeholders(len(q.PostTypes)) + ")")
		for _, pt := range q.PostTypes {
			args = append(args, pt)
		}
	} else {
		sb.WriteString(" WHERE p.post_type <> 'revision'")
	}

	if q.AnyStatus {
		sb.WriteString(" AND p.post_status <> 'auto-draft'")
	} else {
		sb.WriteString(" AND p.post_status IN (" + placeholders(len(defaultStatuses)) + ")")
		for _, st := range defaultStatuses {
			args = append(args, st)
		}
	}

	if q.Meta != nil {
		switch q.Meta.Compare {
		case domain.CompareLike:
			sb.WriteString(" AND pm.meta_value LIKE ? ESCAPE '" + likeEscape + "'")
			args = append(args, containsPattern(q.Meta.Value))
		default:
			sb.WriteString(" AND pm.meta_value = ?")
			args = append(args, q.Meta.Value)
		}
	}

	if q.Search != "" {
		pattern := containsPattern(q.Search)
		sb.WriteString(" AND (p.post_title LIKE ? ESCAPE '" + likeEscape + "'" +
			" OR p.post_excerpt LIKE ? ESCAPE '" + likeEscape + "'" +
			" OR p.post_content LIKE ? ESCAPE '" + likeEscape + "')")
		args = append(args, pattern, pattern, pattern)
	}

	if len(q.ExcludeIDs) > 0 {
		sb.WriteString(" AND p.ID NOT IN (" + placeholders(len(q.ExcludeIDs)) + ")")
		for _, id := range q.ExcludeIDs {
			args = append(args, id)
		}
	}

	if q.Accept == nil {
		sb.WriteString(" LIMIT 1")
	}

	return s.tables.format(sb.String()), args
}

const getMetaQuery = `
	SELECT meta_value FROM {postmeta}
	WHERE post_id = ? AND meta_key = ?
	ORDER BY meta_id ASC
	LIMIT 1
`

// Meta returns the first value stored for key on postID, or "" when none is stored
func (s *WordPressContentStore) Meta(ctx context.Context, postID int64, key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, s.tables.format(getMetaQuery), postID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta %s for post %d: %w", key, postID, err)
	}

	return value.String, nil
}

const countImageAttachmentsQuery = `
	SELECT COUNT(*) FROM {posts}
	WHERE post_type = 'attachment' AND post_mime_type LIKE ? AND post_status = ?
`

// CountImageAttachments returns the number of image attachments in the media library
func (s *WordPressContentStore) CountImageAttachments(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.tables.format(countImageAttachmentsQuery), imageMIMEFilter, inheritStatus).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count image attachments: %w", err)
	}

	return count, nil
}

const listImageAttachmentsQuery = `
	SELECT p.ID, p.post_mime_type, p.guid,
		COALESCE((
			SELECT pm.meta_value FROM {postmeta} pm
			WHERE pm.post_id = p.ID AND pm.meta_key = ?
			ORDER BY pm.meta_id ASC
			LIMIT 1
		), '')
	FROM {posts} p
	WHERE p.post_type = 'attachment' AND p.post_mime_type LIKE ? AND p.post_status = ? AND p.ID > ?
	ORDER BY p.ID ASC
`

// ListImageAttachments returns image attachments with an ID greater than afterID in ascending ID order
func (s *WordPressContentStore) ListImageAttachments(ctx context.Context, afterID int64, limit int) ([]domain.Attachment, error) {
	query := s.tables.format(listImageAttachmentsQuery)
	args := []any{attachedFileKey, imageMIMEFilter, inheritStatus, afterID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list image attachments: %w", err)
	}
	defer rows.Close()

	attachments := make([]domain.Attachment, 0)
	for rows.Next() {
		var row attachmentRow
		err := rows.Scan(
			&row.ID,
			&row.MIMEType,
			&row.GUID,
			&row.File,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment row: %w", err)
		}
		attachments = append(attachments, row.toDomain(s.uploadsURL))
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachment rows: %w", err)
	}

	return attachments, nil
}

// attachmentRow is a private struct used to scan attachment rows
type attachmentRow struct {
	ID       int64  `db:"ID"`
	MIMEType string `db:"post_mime_type"`
	GUID     string `db:"guid"`
	File     string `db:"meta_value"`
}

// toDomain converts an attachmentRow to a domain.Attachment, resolving the public URL
// the way WordPress does: uploads base URL plus attached file, falling back to the guid
func (ar *attachmentRow) toDomain(uploadsURL string) domain.Attachment {
	att := domain.Attachment{
		ID:       ar.ID,
		MIMEType: ar.MIMEType,
		File:     ar.File,
		URL:      ar.GUID,
	}

	switch {
	case strings.HasPrefix(ar.File, "http://") || strings.HasPrefix(ar.File, "https://"):
		att.URL = ar.File
	case ar.File != "" && uploadsURL != "":
		att.URL = uploadsURL + "/" + strings.TrimLeft(ar.File, "/")
	}

	return att
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
