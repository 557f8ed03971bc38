package persistence

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/dfryer1193/mediasweep/shared/db/sqlite"
)

const testUploadsURL = "https://shop.example/wp-content/uploads"

// setupWordPressDB creates an in-memory SQLite database with the WordPress tables
func setupWordPressDB(t *testing.T) *sql.DB {
	t.Helper()
	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{
		Path:        ":memory:",
		TablePrefix: "wp_",
		Bootstrap:   true,
	})
	if err := database.Connect(); err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database.DB()
}

type fixturePost struct {
	Title    string
	Content  string
	Status   string
	Type     string
	MIMEType string
	GUID     string
}

func insertPost(t *testing.T, db *sql.DB, p fixturePost) int64 {
	t.Helper()
	if p.Status == "" {
		p.Status = "publish"
	}
	if p.Type == "" {
		p.Type = "post"
	}

	res, err := db.Exec(`
		INSERT INTO wp_posts (post_title, post_content, post_status, post_type, post_mime_type, guid)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.Title, p.Content, p.Status, p.Type, p.MIMEType, p.GUID)
	if err != nil {
		t.Fatalf("failed to insert post: %v", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to get post id: %v", err)
	}
	return id
}

func insertImage(t *testing.T, db *sql.DB, file string) int64 {
	t.Helper()
	id := insertPost(t, db, fixturePost{
		Title:    file,
		Status:   "inherit",
		Type:     "attachment",
		MIMEType: "image/jpeg",
		GUID:     testUploadsURL + "/" + file,
	})
	insertMeta(t, db, id, attachedFileKey, file)
	return id
}

func insertMeta(t *testing.T, db *sql.DB, postID int64, key, value string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)`, postID, key, value)
	if err != nil {
		t.Fatalf("failed to insert meta: %v", err)
	}
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

// memoryFileStore records removals and can be told to fail for a path
type memoryFileStore struct {
	mu      sync.Mutex
	removed []string
	failOn  map[string]bool
}

var errRemoveFailed = errors.New("remove failed")

func (m *memoryFileStore) Remove(_ context.Context, relPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[relPath] {
		return errRemoveFailed
	}
	m.removed = append(m.removed, relPath)
	return nil
}
