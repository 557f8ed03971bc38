package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/mediasweep/internal/config"
	"github.com/dfryer1193/mediasweep/media/application"
	"github.com/dfryer1193/mediasweep/media/domain"
	"github.com/dfryer1193/mediasweep/media/persistence"
	"github.com/dfryer1193/mediasweep/media/storage"
	"github.com/dfryer1193/mediasweep/shared/db"
	"github.com/dfryer1193/mediasweep/shared/db/mysql"
	"github.com/dfryer1193/mediasweep/shared/db/sqlite"
)

// app holds the wired services for one process
type app struct {
	database db.Database
	service  *application.SweepService
}

func newDatabase(cfg config.DatabaseConfig) db.Database {
	if cfg.Driver == "sqlite" {
		sqliteCfg := sqlite.NewSQLiteConfig()
		if cfg.DSN != "" {
			sqliteCfg.Path = cfg.DSN
		}
		sqliteCfg.TablePrefix = cfg.TablePrefix
		sqliteCfg.Bootstrap = cfg.Bootstrap
		return sqlite.NewSQLiteDB(sqliteCfg)
	}

	mysqlCfg := mysql.NewMySQLConfig()
	mysqlCfg.DSN = cfg.DSN
	mysqlCfg.TablePrefix = cfg.TablePrefix
	return mysql.NewMySQLDB(mysqlCfg)
}

func newFileStore(ctx context.Context, cfg config.StorageConfig) (domain.FileStore, error) {
	switch cfg.Backend {
	case "s3":
		return storage.NewS3FromConfig(ctx, storage.S3Config{
			Bucket:         cfg.S3.Bucket,
			Region:         cfg.S3.Region,
			Endpoint:       cfg.S3.Endpoint,
			KeyPrefix:      cfg.S3.KeyPrefix,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
	case "local":
		return storage.NewLocal(cfg.Local.Dir)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// resolveCapabilities applies the configured plugin modes on top of what the probe detects.
// The probe is skipped when no plugin is left on auto; a failing probe counts every plugin as absent.
func resolveCapabilities(ctx context.Context, probe domain.CapabilityProbe, plugins config.PluginsConfig) domain.Capabilities {
	var detected domain.Capabilities
	if plugins.JetEngine == config.PluginAuto || plugins.Elementor == config.PluginAuto || plugins.YITHWishlist == config.PluginAuto {
		caps, err := probe.Probe(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to detect active plugins, assuming none are active")
		} else {
			detected = caps
		}
	}

	resolve := func(mode config.PluginMode, detected bool) bool {
		switch mode {
		case config.PluginOn:
			return true
		case config.PluginOff:
			return false
		}
		return detected
	}

	return domain.Capabilities{
		JetEngine:    resolve(plugins.JetEngine, detected.JetEngine),
		Elementor:    resolve(plugins.Elementor, detected.Elementor),
		YITHWishlist: resolve(plugins.YITHWishlist, detected.YITHWishlist),
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	database := newDatabase(cfg.Database)
	if err := database.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a, err := wire(ctx, cfg, database)
	if err != nil {
		return nil, errors.Join(err, database.Close())
	}
	return a, nil
}

func wire(ctx context.Context, cfg *config.Config, database db.Database) (*app, error) {
	sqlDB := database.DB()
	prefix := cfg.Database.TablePrefix

	store, err := persistence.NewContentStore(sqlDB, prefix, cfg.Site.UploadsURL)
	if err != nil {
		return nil, err
	}

	probe, err := persistence.NewActivePluginsProbe(sqlDB, prefix)
	if err != nil {
		return nil, err
	}

	files, err := newFileStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to set up uploads storage: %w", err)
	}

	repo, err := persistence.NewAttachmentRepository(sqlDB, prefix, files)
	if err != nil {
		return nil, err
	}

	galleryMatch, err := application.ParseGalleryMatch(cfg.Scan.GalleryMatch)
	if err != nil {
		return nil, err
	}

	caps := resolveCapabilities(ctx, probe, cfg.Plugins)
	scanner := application.NewScanner(application.NewPredicates(store, caps, application.PredicateOptions{
		GalleryMatch: galleryMatch,
	}))

	collector := application.NewCollector(store, scanner, application.CollectorConfig{
		Checks:       cfg.Scan.Checks,
		RecheckDelay: cfg.Scan.RecheckDelay,
		PageSize:     cfg.Scan.PageSize,
	})

	log.Info().
		Bool("jetEngine", caps.JetEngine).
		Bool("elementor", caps.Elementor).
		Bool("yithWishlist", caps.YITHWishlist).
		Strs("predicates", scanner.Predicates()).
		Msg("Reference scanner ready")

	return &app{
		database: database,
		service:  application.NewSweepService(collector, repo),
	}, nil
}

func (a *app) Close() error {
	return a.database.Close()
}
