package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/mediasweep/internal/config"
	"github.com/dfryer1193/mediasweep/media/domain"
	"github.com/dfryer1193/mediasweep/shared/db/sqlite"
)

type stubProbe struct {
	caps  domain.Capabilities
	err   error
	calls int
}

func (p *stubProbe) Probe(context.Context) (domain.Capabilities, error) {
	p.calls++
	return p.caps, p.err
}

func TestResolveCapabilities(t *testing.T) {
	detected := domain.Capabilities{JetEngine: true, Elementor: true}

	tests := []struct {
		name      string
		probe     *stubProbe
		plugins   config.PluginsConfig
		want      domain.Capabilities
		wantProbe bool
	}{
		{
			name:      "auto uses detection",
			probe:     &stubProbe{caps: detected},
			plugins:   config.PluginsConfig{JetEngine: config.PluginAuto, Elementor: config.PluginAuto, YITHWishlist: config.PluginAuto},
			want:      detected,
			wantProbe: true,
		},
		{
			name:      "overrides win",
			probe:     &stubProbe{caps: detected},
			plugins:   config.PluginsConfig{JetEngine: config.PluginOff, Elementor: config.PluginAuto, YITHWishlist: config.PluginOn},
			want:      domain.Capabilities{Elementor: true, YITHWishlist: true},
			wantProbe: true,
		},
		{
			name:    "no auto skips the probe",
			probe:   &stubProbe{err: errors.New("not reached")},
			plugins: config.PluginsConfig{JetEngine: config.PluginOn, Elementor: config.PluginOff, YITHWishlist: config.PluginOff},
			want:    domain.Capabilities{JetEngine: true},
		},
		{
			name:      "probe failure means absent",
			probe:     &stubProbe{caps: detected, err: errors.New("options table missing")},
			plugins:   config.PluginsConfig{JetEngine: config.PluginAuto, Elementor: config.PluginAuto, YITHWishlist: config.PluginOn},
			want:      domain.Capabilities{YITHWishlist: true},
			wantProbe: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveCapabilities(context.Background(), tt.probe, tt.plugins)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantProbe, tt.probe.calls > 0)
		})
	}
}

type site struct {
	dbPath  string
	uploads string
	images  map[string]int64
}

// newSite creates a SQLite WordPress database and an uploads directory holding three images:
// one used as a featured image, one embedded in a page and one orphan
func newSite(t *testing.T) *site {
	t.Helper()
	dir := t.TempDir()
	s := &site{
		dbPath:  filepath.Join(dir, "wordpress.sqlite"),
		uploads: filepath.Join(dir, "uploads"),
		images:  map[string]int64{},
	}

	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: s.dbPath, TablePrefix: "wp_", Bootstrap: true})
	require.NoError(t, database.Connect())
	defer database.Close()
	conn := database.DB()

	insert := func(query string, args ...any) int64 {
		res, err := conn.Exec(query, args...)
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)
		return id
	}

	for _, name := range []string{"featured", "inline", "orphan"} {
		file := "2024/05/" + name + ".jpg"
		id := insert(`INSERT INTO wp_posts (post_status, post_type, post_mime_type, guid) VALUES ('inherit', 'attachment', 'image/jpeg', ?)`,
			"https://shop.example/wp-content/uploads/"+file)
		insert(`INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES (?, '_wp_attached_file', ?)`, id, file)
		s.images[name] = id

		path := filepath.Join(s.uploads, filepath.FromSlash(file))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))
	}

	product := insert(`INSERT INTO wp_posts (post_title, post_type) VALUES ('Mug', 'product')`)
	insert(`INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES (?, '_thumbnail_id', ?)`, product, s.images["featured"])
	insert(`INSERT INTO wp_posts (post_title, post_type, post_content) VALUES ('About', 'page', ?)`,
		`<img src="https://shop.example/wp-content/uploads/2024/05/inline.jpg">`)

	return s
}

func (s *site) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MEDIASWEEP_DATABASE_DRIVER", "sqlite")
	t.Setenv("MEDIASWEEP_DATABASE_DSN", s.dbPath)
	t.Setenv("MEDIASWEEP_STORAGE_LOCAL_DIR", s.uploads)
	t.Setenv("MEDIASWEEP_SITE_UPLOADS_URL", "https://shop.example/wp-content/uploads")

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func (s *site) countImages(t *testing.T) int {
	t.Helper()
	conn, err := sql.Open("sqlite", s.dbPath)
	require.NoError(t, err)
	defer conn.Close()

	var count int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM wp_posts WHERE post_type = 'attachment'`).Scan(&count))
	return count
}

func TestScanCommand(t *testing.T) {
	s := newSite(t)

	out, err := s.run(t, "scan", "--ids", "--log-level", "error")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2, out)
	assert.Equal(t, "Unused images: 1", lines[0])
	assert.Equal(t, strings.TrimSpace(lines[1]), formatID(s.images["orphan"]))
	assert.Equal(t, 3, s.countImages(t))
}

func TestSweepCommand(t *testing.T) {
	s := newSite(t)

	out, err := s.run(t, "sweep", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run")
	assert.Equal(t, 3, s.countImages(t))

	out, err = s.run(t, "sweep", "--delete", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted: 1")
	assert.Contains(t, out, "Failed: 0")
	assert.Equal(t, 2, s.countImages(t))

	_, statErr := os.Stat(filepath.Join(s.uploads, "2024", "05", "orphan.jpg"))
	assert.True(t, os.IsNotExist(statErr), "orphan file should be removed")
	_, statErr = os.Stat(filepath.Join(s.uploads, "2024", "05", "inline.jpg"))
	assert.NoError(t, statErr, "referenced file must be kept")

	out, err = s.run(t, "scan", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Unused images: 0")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	t.Setenv("MEDIASWEEP_DATABASE_DRIVER", "oracle")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"scan"})

	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
