package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/dfryer1193/mediasweep/media/domain"
	"github.com/dfryer1193/mediasweep/shared/phpserial"
)

var _ domain.CapabilityProbe = (*ActivePluginsProbe)(nil)

// plugin directories under wp-content/plugins
const (
	jetEngineDir    = "jet-engine"
	elementorDir    = "elementor"
	yithWishlistDir = "yith-woocommerce-wishlist"
)

// mysqlNoSuchTable is ER_NO_SUCH_TABLE
const mysqlNoSuchTable = 1146

// ActivePluginsProbe reads the active_plugins option, and on multisite installs the network-activated
// plugins in sitemeta, to find which optional plugins are active
type ActivePluginsProbe struct {
	db     *sql.DB
	tables tables
}

func NewActivePluginsProbe(sqlDB *sql.DB, prefix string) (*ActivePluginsProbe, error) {
	t, err := newTables(prefix)
	if err != nil {
		return nil, err
	}
	return &ActivePluginsProbe{db: sqlDB, tables: t}, nil
}

const getActivePluginsQuery = `
	SELECT option_value FROM {options} WHERE option_name = 'active_plugins'
`

// active_sitewide_plugins maps plugin file to activation time
const getSitewidePluginsQuery = `
	SELECT meta_value FROM {sitemeta} WHERE meta_key = 'active_sitewide_plugins'
`

func (p *ActivePluginsProbe) Probe(ctx context.Context) (domain.Capabilities, error) {
	site, err := p.readPluginList(ctx, getActivePluginsQuery)
	if err != nil {
		return domain.Capabilities{}, fmt.Errorf("failed to read active plugins: %w", err)
	}
	plugins := phpserial.Values(site)

	network, err := p.readPluginList(ctx, getSitewidePluginsQuery)
	switch {
	case isMissingTable(err):
	case err != nil:
		return domain.Capabilities{}, fmt.Errorf("failed to read network active plugins: %w", err)
	default:
		plugins = append(plugins, phpserial.Keys(network)...)
	}

	var caps domain.Capabilities
	for _, plugin := range plugins {
		dir, _, _ := strings.Cut(plugin, "/")
		switch {
		case dir == jetEngineDir:
			caps.JetEngine = true
		case dir == elementorDir:
			caps.Elementor = true
		case strings.HasPrefix(dir, yithWishlistDir):
			caps.YITHWishlist = true
		}
	}
	return caps, nil
}

// readPluginList decodes the serialized array returned by query. A missing row is an empty list.
func (p *ActivePluginsProbe) readPluginList(ctx context.Context, query string) (map[any]any, error) {
	var value string
	err := p.db.QueryRowContext(ctx, p.tables.format(query)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	return phpserial.DecodeArray(value)
}

func isMissingTable(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlNoSuchTable
	}
	return strings.Contains(err.Error(), "no such table")
}
