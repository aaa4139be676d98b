/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the per-user YAML configuration. Environment variables
// are read-only overrides at runtime; secrets live in the OS keyring.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration.
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Editor        EditorConfig  `yaml:"editor"`
	Fonts         FontsConfig   `yaml:"fonts"`
	Images        ImagesConfig  `yaml:"images"`
	Backend       BackendConfig `yaml:"backend"`
	Cache         CacheConfig   `yaml:"cache"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	Theme        string `yaml:"theme"` // "system" | "light" | "dark"
	EnableServer bool   `yaml:"enable_server"`
	ServerAddr   string `yaml:"server_addr"`
	Library      string `yaml:"library"` // folder holding deck folders
}

type EditorConfig struct {
	Zoom            float64 `yaml:"zoom"`
	SnapThresholdPx float64 `yaml:"snap_threshold_px"`
	SnapStep        float64 `yaml:"snap_step"`
	GuideGrid       int     `yaml:"guide_grid"`
	HistoryMaxBytes int     `yaml:"history_max_bytes"`
}

type FontsConfig struct {
	APIURL        string   `yaml:"api_url"`
	Families      []string `yaml:"families"`
	CacheTTLHours int      `yaml:"cache_ttl_hours"`
	// api key is kept in the keyring
}

type ImagesConfig struct {
	APIURL     string `yaml:"api_url"`
	DebounceMs int    `yaml:"debounce_ms"`
	PerPage    int    `yaml:"per_page"`
	// access key is kept in the keyring
}

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	DatabaseURL string `yaml:"database_url"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type CacheConfig struct {
	Dir      string `yaml:"dir"`
	RedisURL string `yaml:"redis_url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", ServerAddr: "127.0.0.1:8080"},
		Editor:        EditorConfig{Zoom: 0.75, SnapThresholdPx: 10, SnapStep: 1, GuideGrid: 4, HistoryMaxBytes: 32 << 20},
		Fonts: FontsConfig{
			APIURL:        "https://www.googleapis.com/webfonts/v1/webfonts",
			Families:      []string{"Roboto", "Open Sans", "Montserrat", "Raleway", "Merriweather", "Fira Sans"},
			CacheTTLHours: 24,
		},
		Images:  ImagesConfig{APIURL: "https://api.unsplash.com/search/photos", DebounceMs: 1000, PerPage: 100},
		Backend: BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "DEKK_CONFIG"
	EnvLibrary          = "DEKK_LIBRARY"
	EnvEnableServer     = "DEKK_ENABLE_SERVER"
	EnvServerAddr       = "DEKK_SERVER_ADDR"
	EnvBackendURL       = "DEKK_BACKEND_URL"
	EnvBackendTimeoutMs = "DEKK_BACKEND_TIMEOUT_MS"
	EnvDatabaseURL      = "DEKK_DATABASE_URL"
	EnvRedisURL         = "DEKK_REDIS_URL"
	EnvCacheDir         = "DEKK_CACHE_DIR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "DEKK_LOG_LEVEL"
	EnvLogFormat = "DEKK_LOG_FORMAT"
	EnvLogSource = "DEKK_LOG_SOURCE"
	EnvLogFile   = "DEKK_LOG_FILE"
)

// ConfigPath returns the per-user config file path. DEKK_CONFIG wins.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Dekk")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Dekk")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "dekk")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "dekk")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DefaultLibrary is the deck folder used when general.library is unset.
func DefaultLibrary() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dekk-library"
	}
	return filepath.Join(home, "Dekk")
}

// Load reads the user config file (if present) over the defaults and applies
// environment overrides. A malformed file is reported, not ignored.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), err
	}
	return LoadFrom(path)
}

// LoadFrom is Load for an explicit path.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	if cfg.General.Library == "" {
		cfg.General.Library = DefaultLibrary()
	}
	return cfg, nil
}

// Save writes the YAML file to the user config path.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg to path with owner-only permissions.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func setStr(dst *string, src string) {
	if s := strings.TrimSpace(src); s != "" {
		*dst = s
	}
}

func setPos[T int | float64](dst *T, src T) {
	if src > 0 {
		*dst = src
	}
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	setStr(&dst.General.Theme, src.General.Theme)
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.EnableServer = src.General.EnableServer
	setStr(&dst.General.ServerAddr, src.General.ServerAddr)
	setStr(&dst.General.Library, src.General.Library)

	setPos(&dst.Editor.Zoom, src.Editor.Zoom)
	setPos(&dst.Editor.SnapThresholdPx, src.Editor.SnapThresholdPx)
	setPos(&dst.Editor.SnapStep, src.Editor.SnapStep)
	setPos(&dst.Editor.GuideGrid, src.Editor.GuideGrid)
	setPos(&dst.Editor.HistoryMaxBytes, src.Editor.HistoryMaxBytes)

	setStr(&dst.Fonts.APIURL, src.Fonts.APIURL)
	if len(src.Fonts.Families) > 0 {
		dst.Fonts.Families = append([]string(nil), src.Fonts.Families...)
	}
	setPos(&dst.Fonts.CacheTTLHours, src.Fonts.CacheTTLHours)

	setStr(&dst.Images.APIURL, src.Images.APIURL)
	setPos(&dst.Images.DebounceMs, src.Images.DebounceMs)
	setPos(&dst.Images.PerPage, src.Images.PerPage)

	setStr(&dst.Backend.BaseURL, src.Backend.BaseURL)
	setPos(&dst.Backend.TimeoutMs, src.Backend.TimeoutMs)
	setStr(&dst.Backend.DatabaseURL, src.Backend.DatabaseURL)

	setStr(&dst.Cache.Dir, src.Cache.Dir)
	setStr(&dst.Cache.RedisURL, src.Cache.RedisURL)

	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	setStr(&dst.Logging.File, src.Logging.File)
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	setStr(&cfg.General.Library, os.Getenv(EnvLibrary))
	if v := strings.TrimSpace(os.Getenv(EnvEnableServer)); v != "" {
		cfg.General.EnableServer = truthy(v)
	}
	setStr(&cfg.General.ServerAddr, os.Getenv(EnvServerAddr))
	setStr(&cfg.Backend.BaseURL, os.Getenv(EnvBackendURL))
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	setStr(&cfg.Backend.DatabaseURL, os.Getenv(EnvDatabaseURL))
	setStr(&cfg.Cache.RedisURL, os.Getenv(EnvRedisURL))
	setStr(&cfg.Cache.Dir, os.Getenv(EnvCacheDir))
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	setStr(&cfg.Logging.File, os.Getenv(EnvLogFile))
}

var envByKey = map[string]string{
	"general.library":       EnvLibrary,
	"general.enable_server": EnvEnableServer,
	"general.server_addr":   EnvServerAddr,
	"backend.base_url":      EnvBackendURL,
	"backend.timeout_ms":    EnvBackendTimeoutMs,
	"backend.database_url":  EnvDatabaseURL,
	"cache.redis_url":       EnvRedisURL,
	"cache.dir":             EnvCacheDir,
	"logging.level":         EnvLogLevel,
	"logging.format":        EnvLogFormat,
	"logging.source":        EnvLogSource,
	"logging.file":          EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by
// environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envByKey[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// Timeout returns the backend timeout, defaulting when unset.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// Debounce returns the image search quiet period.
func (i ImagesConfig) Debounce() time.Duration {
	return time.Duration(i.DebounceMs) * time.Millisecond
}

// CacheTTL returns how long catalog responses stay fresh.
func (f FontsConfig) CacheTTL() time.Duration {
	return time.Duration(f.CacheTTLHours) * time.Hour
}
