/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

// GalleryConfig configures the client-side engine.
type GalleryConfig struct {
	ManifestURL   string `yaml:"manifest_url"`
	URLMode       string `yaml:"url_mode"` // "direct" | "proxied"
	DirectBaseURL string `yaml:"direct_base_url"`
	ProxyPrefix   string `yaml:"proxy_prefix"`
	ViewportWidth int    `yaml:"viewport_width"`
	PrefsDriver   string `yaml:"prefs_driver"` // "sqlite" | "diskv" | "memory"
	PrefsPath     string `yaml:"prefs_path"`
}

// S3Config configures the S3/R2 blob driver. The secret key lives in the keyring.
type S3Config struct {
	Bucket      string `yaml:"bucket"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	PathStyle   bool   `yaml:"path_style"`
	AccessKeyID string `yaml:"access_key_id"`
}

// ServerConfig configures the storage proxy server.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	ManifestDriver string   `yaml:"manifest_driver"` // "file" | "blob" | "postgres"
	ManifestPath   string   `yaml:"manifest_path"`
	ManifestKey    string   `yaml:"manifest_key"`
	DatabaseURL    string   `yaml:"database_url"`
	BlobDriver     string   `yaml:"blob_driver"` // "fs" | "s3" | "memory"
	FSRoot         string   `yaml:"fs_root"`
	S3             S3Config `yaml:"s3"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Gallery       GalleryConfig `yaml:"gallery"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Gallery: GalleryConfig{
			ManifestURL:   "http://localhost:8080/gallery/gallery.json",
			URLMode:       "direct",
			DirectBaseURL: "https://bucket.wildwizardcreation.com/",
			ProxyPrefix:   "/gallery/",
			ViewportWidth: 1280,
			PrefsDriver:   "sqlite",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ManifestDriver: "file",
			ManifestPath:   "public/gallery/gallery.json",
			ManifestKey:    "gallery.json",
			BlobDriver:     "fs",
			FSRoot:         "./blobdata",
			S3:             S3Config{Region: "auto"},
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvManifestURL    = "GAL_MANIFEST_URL"
	EnvURLMode        = "GAL_URL_MODE"
	EnvDirectBaseURL  = "GAL_DIRECT_BASE_URL"
	EnvViewportWidth  = "GAL_VIEWPORT_WIDTH"
	EnvPrefsDriver    = "GAL_PREFS_DRIVER"
	EnvPrefsPath      = "GAL_PREFS_PATH"
	EnvAddr           = "GAL_ADDR"
	EnvManifestDriver = "GAL_MANIFEST_DRIVER"
	EnvManifestPath   = "GAL_MANIFEST_PATH"
	EnvDatabaseURL    = "GAL_DATABASE_URL"
	EnvBlobDriver     = "GAL_BLOB_DRIVER"
	EnvFSRoot         = "GAL_BLOB_FS_ROOT"
	EnvS3Bucket       = "GAL_S3_BUCKET"
	EnvS3Endpoint     = "GAL_S3_ENDPOINT"
	EnvS3AccessKeyID  = "GAL_S3_ACCESS_KEY_ID"
	EnvS3SecretKey    = "GAL_S3_SECRET_ACCESS_KEY"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GAL_LOG_LEVEL"
	EnvLogFormat = "GAL_LOG_FORMAT"
	EnvLogSource = "GAL_LOG_SOURCE"
	EnvLogFile   = "GAL_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "Galleria"
	keyringSecret  = "s3_secret"
)

// ConfigPath returns the per-user config file path.
// GAL_CONFIG overrides the location.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv("GAL_CONFIG")); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Galleria")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Galleria")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "galleria")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DefaultPrefsPath is where the preference store lives when prefs_path is empty.
func DefaultPrefsPath(driver string) string {
	p, err := ConfigPath()
	if err != nil {
		return "galleria-prefs"
	}
	dir := filepath.Dir(p)
	if driver == "diskv" {
		return filepath.Join(dir, "prefs")
	}
	return filepath.Join(dir, "prefs.sqlite")
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// The S3 secret is resolved separately (env first, then keyring) and returned alongside.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	if cfg.Gallery.PrefsPath == "" {
		cfg.Gallery.PrefsPath = DefaultPrefsPath(cfg.Gallery.PrefsDriver)
	}
	secret := strings.TrimSpace(os.Getenv(EnvS3SecretKey))
	if secret == "" && cfg.Server.BlobDriver == "s3" {
		secret, _ = secretStore.Get(keyringService, keyringSecret)
	}
	return cfg, secret, nil
}

// Save writes the user config YAML and persists the S3 secret into the OS keyring (if non-empty).
func Save(cfg AppConfig, secret string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if secret != "" {
		if err := secretStore.Set(keyringService, keyringSecret, secret); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	g, sg := &dst.Gallery, src.Gallery
	setString(&g.ManifestURL, sg.ManifestURL)
	setString(&g.URLMode, strings.ToLower(sg.URLMode))
	setString(&g.DirectBaseURL, sg.DirectBaseURL)
	setString(&g.ProxyPrefix, sg.ProxyPrefix)
	if sg.ViewportWidth > 0 {
		g.ViewportWidth = sg.ViewportWidth
	}
	setString(&g.PrefsDriver, strings.ToLower(sg.PrefsDriver))
	setString(&g.PrefsPath, sg.PrefsPath)

	s, ss := &dst.Server, src.Server
	setString(&s.Addr, ss.Addr)
	setString(&s.ManifestDriver, strings.ToLower(ss.ManifestDriver))
	setString(&s.ManifestPath, ss.ManifestPath)
	setString(&s.ManifestKey, ss.ManifestKey)
	setString(&s.DatabaseURL, ss.DatabaseURL)
	setString(&s.BlobDriver, strings.ToLower(ss.BlobDriver))
	setString(&s.FSRoot, ss.FSRoot)
	setString(&s.S3.Bucket, ss.S3.Bucket)
	setString(&s.S3.Region, ss.S3.Region)
	setString(&s.S3.Endpoint, ss.S3.Endpoint)
	setString(&s.S3.AccessKeyID, ss.S3.AccessKeyID)
	// booleans: copy directly from src (file) so user preferences persist
	s.S3.PathStyle = ss.S3.PathStyle

	setString(&dst.Logging.Level, strings.ToLower(src.Logging.Level))
	setString(&dst.Logging.Format, strings.ToLower(src.Logging.Format))
	dst.Logging.Source = src.Logging.Source
	setString(&dst.Logging.File, src.Logging.File)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	env := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	env(EnvManifestURL, &cfg.Gallery.ManifestURL)
	env(EnvURLMode, &cfg.Gallery.URLMode)
	env(EnvDirectBaseURL, &cfg.Gallery.DirectBaseURL)
	if v := strings.TrimSpace(os.Getenv(EnvViewportWidth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Gallery.ViewportWidth = n
		}
	}
	env(EnvPrefsDriver, &cfg.Gallery.PrefsDriver)
	env(EnvPrefsPath, &cfg.Gallery.PrefsPath)
	env(EnvAddr, &cfg.Server.Addr)
	env(EnvManifestDriver, &cfg.Server.ManifestDriver)
	env(EnvManifestPath, &cfg.Server.ManifestPath)
	env(EnvDatabaseURL, &cfg.Server.DatabaseURL)
	env(EnvBlobDriver, &cfg.Server.BlobDriver)
	env(EnvFSRoot, &cfg.Server.FSRoot)
	env(EnvS3Bucket, &cfg.Server.S3.Bucket)
	env(EnvS3Endpoint, &cfg.Server.S3.Endpoint)
	env(EnvS3AccessKeyID, &cfg.Server.S3.AccessKeyID)
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	env(EnvLogFile, &cfg.Logging.File)
}

var overrideKeys = map[string]string{
	"gallery.manifest_url":    EnvManifestURL,
	"gallery.url_mode":        EnvURLMode,
	"gallery.direct_base_url": EnvDirectBaseURL,
	"gallery.viewport_width":  EnvViewportWidth,
	"gallery.prefs_driver":    EnvPrefsDriver,
	"gallery.prefs_path":      EnvPrefsPath,
	"server.addr":             EnvAddr,
	"server.manifest_driver":  EnvManifestDriver,
	"server.manifest_path":    EnvManifestPath,
	"server.database_url":     EnvDatabaseURL,
	"server.blob_driver":      EnvBlobDriver,
	"server.fs_root":          EnvFSRoot,
	"server.s3.bucket":        EnvS3Bucket,
	"server.s3.endpoint":      EnvS3Endpoint,
	"server.s3.access_key_id": EnvS3AccessKeyID,
	"logging.level":           EnvLogLevel,
	"logging.format":          EnvLogFormat,
	"logging.source":          EnvLogSource,
	"logging.file":            EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := overrideKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
