/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Editor.Zoom != 0.75 || cfg.Images.DebounceMs != 1000 || cfg.Images.PerPage != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Fonts.Families) != 6 || cfg.General.Library == "" {
		t.Fatalf("unexpected defaults: %+v", cfg.Fonts)
	}
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "general:\n  enable_server: true\n  library: /decks\neditor:\n  zoom: 1.5\nfonts:\n  families: [Roboto]\ncache:\n  redis_url: redis://localhost:6379/0\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !cfg.General.EnableServer || cfg.General.Library != "/decks" || cfg.Editor.Zoom != 1.5 {
		t.Fatalf("file values not merged: %+v", cfg.General)
	}
	if cfg.Editor.SnapStep != 1 {
		t.Fatalf("unset fields must keep defaults, got snap step %v", cfg.Editor.SnapStep)
	}
	if len(cfg.Fonts.Families) != 1 || cfg.Cache.RedisURL == "" {
		t.Fatalf("fonts/cache not merged: %+v %+v", cfg.Fonts, cfg.Cache)
	}
}

func TestLoadReportsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_ = os.WriteFile(path, []byte("editor: [oops"), 0o600)
	cfg, err := LoadFrom(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Editor.Zoom != 0.75 {
		t.Fatalf("defaults should survive a bad file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Defaults()
	cfg.General.Theme = "dark"
	cfg.Editor.GuideGrid = 8
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil || got.General.Theme != "dark" || got.Editor.GuideGrid != 8 {
		t.Fatalf("round trip = %+v, %v", got.General, err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	t.Setenv(EnvEnableServer, "yes")
	t.Setenv(EnvLogLevel, "ERROR")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Backend.BaseURL != "https://example.test:8443" || !cfg.General.EnableServer || cfg.Logging.Level != "error" {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Backend, cfg.Logging)
	}
	if env, ok := EnvOverrideFor("backend.base_url"); !ok || env != EnvBackendURL {
		t.Fatalf("EnvOverrideFor = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("cache.dir"); ok {
		t.Fatalf("cache.dir is not overridden")
	}
}

func TestConfigPathHonorsEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.yaml")
	if p, err := ConfigPath(); err != nil || p != "/tmp/custom.yaml" {
		t.Fatalf("ConfigPath = %q, %v", p, err)
	}
}

func TestSecretsKeyringAndEnv(t *testing.T) {
	keyring.MockInit()
	if v, err := Secret(SecretUnsplashAccessKey); err != nil || v != "" {
		t.Fatalf("missing secret = %q, %v", v, err)
	}
	if err := SetSecret(SecretUnsplashAccessKey, "abc"); err != nil {
		t.Fatalf("SetSecret: %v", err)
	}
	s, err := LoadSecrets()
	if err != nil || s.UnsplashAccessKey != "abc" {
		t.Fatalf("LoadSecrets = %+v, %v", s, err)
	}
	t.Setenv("DEKK_UNSPLASH_ACCESS_KEY", "from-env")
	if v, _ := Secret(SecretUnsplashAccessKey); v != "from-env" {
		t.Fatalf("env should win, got %q", v)
	}
	if err := SetSecret(SecretUnsplashAccessKey, ""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := SetSecret(SecretUnsplashAccessKey, ""); err != nil {
		t.Fatalf("deleting twice should be a no-op: %v", err)
	}
}
