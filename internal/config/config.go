package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sealwatch/internal/auth"
)

var ErrInvalid = errors.New("invalid configuration")

type GDriveConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Folder      string `mapstructure:"folder"`
	Credentials string `mapstructure:"credentials"`
}

type DropboxConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Folder      string `mapstructure:"folder"`
	AccessToken string `mapstructure:"access_token"`
}

type Config struct {
	KeyID          string        `mapstructure:"key_id"`
	KeyringDir     string        `mapstructure:"keyring_dir"`
	WatchDir       string        `mapstructure:"watch_dir"`
	DestDir        string        `mapstructure:"dest_dir"`
	Extensions     []string      `mapstructure:"extensions"`
	DeleteOriginal bool          `mapstructure:"delete_original"`
	BufferSize     int           `mapstructure:"buffer_size"`
	DebounceDelay  time.Duration `mapstructure:"debounce_delay"`
	SettleInterval time.Duration `mapstructure:"settle_interval"`
	SettleWindow   time.Duration `mapstructure:"settle_window"`
	DaemonPort     int           `mapstructure:"daemon_port"`
	GDrive         GDriveConfig  `mapstructure:"gdrive"`
	Dropbox        DropboxConfig `mapstructure:"dropbox"`
}

var Default = Config{
	DeleteOriginal: true,
	BufferSize:     100,
	DebounceDelay:  200 * time.Millisecond,
	SettleInterval: 500 * time.Millisecond,
	SettleWindow:   2 * time.Second,
	DaemonPort:     9010,
}

func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	configDir := filepath.Join(home, ".sealwatch")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	v.SetDefault("keyring_dir", filepath.Join(configDir, "keyring"))
	v.SetDefault("delete_original", Default.DeleteOriginal)
	v.SetDefault("buffer_size", Default.BufferSize)
	v.SetDefault("debounce_delay", Default.DebounceDelay)
	v.SetDefault("settle_interval", Default.SettleInterval)
	v.SetDefault("settle_window", Default.SettleWindow)
	v.SetDefault("daemon_port", Default.DaemonPort)

	v.SetEnvPrefix("SEALWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Extensions = normalizeExtensions(cfg.Extensions)

	return &cfg, nil
}

// Validate checks the configuration once at startup. The config is treated
// as immutable afterwards; the watch loop never re-validates per file.
func (c *Config) Validate() error {
	if c.KeyID == "" {
		return fmt.Errorf("%w: key_id is required", ErrInvalid)
	}

	if c.WatchDir == "" {
		return fmt.Errorf("%w: watch_dir is required", ErrInvalid)
	}
	if err := requireDir(c.WatchDir); err != nil {
		return fmt.Errorf("%w: watch_dir: %v", ErrInvalid, err)
	}

	if c.GDrive.Enabled && c.Dropbox.Enabled {
		return fmt.Errorf("%w: gdrive and dropbox cannot both be enabled", ErrInvalid)
	}

	if c.GDrive.Enabled {
		credFile := c.GDrive.Credentials
		if credFile == "" {
			credFile = auth.GDriveCredentialsPath()
		}
		if _, err := os.Stat(credFile); err != nil {
			return fmt.Errorf("%w: gdrive enabled but credentials file is missing: %s", ErrInvalid, credFile)
		}
		return nil
	}

	if c.Dropbox.Enabled {
		if c.Dropbox.AccessToken == "" && !auth.DropboxTokenExists() {
			return fmt.Errorf("%w: dropbox enabled but no access token; set dropbox.access_token or run 'sealwatch auth dropbox'", ErrInvalid)
		}
		return nil
	}

	if c.DestDir == "" {
		return fmt.Errorf("%w: dest_dir is required when no cloud sink is enabled", ErrInvalid)
	}
	if err := requireDir(c.DestDir); err != nil {
		return fmt.Errorf("%w: dest_dir: %v", ErrInvalid, err)
	}

	return nil
}

// CloudEnabled reports whether the active sink is a cloud provider.
func (c *Config) CloudEnabled() bool {
	return c.GDrive.Enabled || c.Dropbox.Enabled
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("directory does not exist: %s", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}

	return nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}

	return out
}
