// Package config loads mediasweep settings from defaults, an optional YAML file and
// MEDIASWEEP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dfryer1193/mediasweep/media/application"
	"github.com/dfryer1193/mediasweep/shared/db"
)

const envPrefix = "MEDIASWEEP"

// PluginMode forces an optional plugin integration on or off, or leaves it to detection
type PluginMode string

const (
	PluginAuto PluginMode = "auto"
	PluginOn   PluginMode = "on"
	PluginOff  PluginMode = "off"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Site     SiteConfig     `mapstructure:"site"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Plugins  PluginsConfig  `mapstructure:"plugins"`
	Server   ServerConfig   `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	// Driver is "mysql" or "sqlite"
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	TablePrefix string `mapstructure:"table_prefix"`
	// Bootstrap creates the WordPress tables on an empty SQLite database
	Bootstrap bool `mapstructure:"bootstrap"`
}

type SiteConfig struct {
	// UploadsURL is the public base URL of wp-content/uploads
	UploadsURL string `mapstructure:"uploads_url"`
}

type StorageConfig struct {
	// Backend is "local" or "s3"
	Backend string             `mapstructure:"backend"`
	Local   LocalStorageConfig `mapstructure:"local"`
	S3      S3StorageConfig    `mapstructure:"s3"`
}

type LocalStorageConfig struct {
	Dir string `mapstructure:"dir"`
}

type S3StorageConfig struct {
	Bucket         string `mapstructure:"bucket"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	KeyPrefix      string `mapstructure:"key_prefix"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

type ScanConfig struct {
	Checks       int           `mapstructure:"checks"`
	RecheckDelay time.Duration `mapstructure:"recheck_delay"`
	PageSize     int           `mapstructure:"page_size"`
	GalleryMatch string        `mapstructure:"gallery_match"`
}

type PluginsConfig struct {
	JetEngine    PluginMode `mapstructure:"jet_engine"`
	Elementor    PluginMode `mapstructure:"elementor"`
	YITHWishlist PluginMode `mapstructure:"yith_wishlist"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AdminToken      string        `mapstructure:"admin_token"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table_prefix", db.DefaultTablePrefix)
	v.SetDefault("database.bootstrap", false)

	v.SetDefault("site.uploads_url", "")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local.dir", "./wp-content/uploads")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.key_prefix", "")
	v.SetDefault("storage.s3.force_path_style", false)

	v.SetDefault("scan.checks", application.DefaultChecks)
	v.SetDefault("scan.recheck_delay", "0s")
	v.SetDefault("scan.page_size", application.DefaultPageSize)
	v.SetDefault("scan.gallery_match", string(application.GalleryMatchSubstring))

	v.SetDefault("plugins.jet_engine", string(PluginAuto))
	v.SetDefault("plugins.elementor", string(PluginAuto))
	v.SetDefault("plugins.yith_wishlist", string(PluginAuto))

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.shutdown_timeout", "5s")
}

// New returns a viper instance with defaults and environment binding configured.
// Every key has a default, so AutomaticEnv resolves MEDIASWEEP_DATABASE_DSN and friends.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads configuration from v, using path as the config file when set.
// Without a path, ./mediasweep.yaml is read if present.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mediasweep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports an invalid setting, if any
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the mysql driver")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	if err := db.ValidateTablePrefix(c.Database.TablePrefix); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.Local.Dir == "" {
			return errors.New("storage.local.dir is required for the local backend")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}

	if c.Scan.Checks < 1 {
		return fmt.Errorf("scan.checks must be at least 1, got %d", c.Scan.Checks)
	}
	if c.Scan.RecheckDelay < 0 {
		return fmt.Errorf("scan.recheck_delay must not be negative, got %s", c.Scan.RecheckDelay)
	}
	if c.Scan.PageSize < 0 {
		return fmt.Errorf("scan.page_size must not be negative, got %d", c.Scan.PageSize)
	}
	if _, err := application.ParseGalleryMatch(c.Scan.GalleryMatch); err != nil {
		return fmt.Errorf("scan.gallery_match: %w", err)
	}

	for key, mode := range map[string]PluginMode{
		"plugins.jet_engine":    c.Plugins.JetEngine,
		"plugins.elementor":     c.Plugins.Elementor,
		"plugins.yith_wishlist": c.Plugins.YITHWishlist,
	} {
		switch mode {
		case PluginAuto, PluginOn, PluginOff:
		default:
			return fmt.Errorf("%s must be auto, on or off, got %q", key, mode)
		}
	}

	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	return nil
}
