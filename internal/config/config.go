package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

// Defaults applied when the config file omits a value.
const (
	DefaultJamendoBaseURL = "https://api.jamendo.com/v3.0"
	DefaultArchiveBaseURL = "https://archive.org"
	DefaultGatewayURL     = "http://localhost:3001"
	DefaultListenAddr     = ":3001"
	DefaultCatalogLimit   = 20
	DefaultHTTPTimeout    = 30
	DefaultStorageQuota   = int64(10) * 1024 * 1024 * 1024 // 10 GiB
)

// LoadConfig reads the configuration from the specified path (defaulting to
// "config.toml") and populates a models.Config with defaults filled in.
// A missing file is not an error; defaults apply across the board so the tool
// works out of the box against the public catalogs.
func LoadConfig(configFilePath string) (models.Config, error) {
	if configFilePath == "" {
		configFilePath = "config.toml"
	}
	var cfg models.Config
	if _, err := toml.DecodeFile(configFilePath, &cfg); err != nil {
		if os.IsNotExist(err) {
			log.Debugf("No config file at %s, using defaults", configFilePath)
		} else {
			return models.Config{}, fmt.Errorf("error loading config file %s: %w", configFilePath, err)
		}
	} else {
		log.Infof("Configuration loaded from %s", configFilePath)
	}

	ApplyDefaults(&cfg)

	if cfg.JamendoClientID == "" {
		log.Warn("Warning: JamendoClientId is not set; Jamendo requests will be rejected upstream")
	}
	if cfg.DatabasePath == "" {
		log.Warn("Warning: DatabasePath is not set in config.toml")
	}

	return cfg, nil
}

// ApplyDefaults fills zero-valued fields with the built-in defaults.
func ApplyDefaults(cfg *models.Config) {
	if cfg.JamendoBaseURL == "" {
		cfg.JamendoBaseURL = DefaultJamendoBaseURL
	}
	if cfg.ArchiveBaseURL == "" {
		cfg.ArchiveBaseURL = DefaultArchiveBaseURL
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = DefaultGatewayURL
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.Source == "" {
		cfg.Source = "all"
	}
	if cfg.CatalogLimit <= 0 {
		cfg.CatalogLimit = DefaultCatalogLimit
	}
	if cfg.HTTPTimeoutSec <= 0 {
		cfg.HTTPTimeoutSec = DefaultHTTPTimeout
	}
	if cfg.StorageQuotaBytes <= 0 {
		cfg.StorageQuotaBytes = DefaultStorageQuota
	}
}
