// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
backend:
  kind: redis
  redis_url: "redis://localhost:6379"
  namespace: "test:session"
  family: cas
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0600); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Backend.Kind != "redis" {
		t.Errorf("Backend.Kind = %q, want redis", cfg.Backend.Kind)
	}
	if cfg.Backend.Namespace != "test:session" {
		t.Errorf("Backend.Namespace = %q, want test:session", cfg.Backend.Namespace)
	}
	if cfg.Backend.Family != "cas" {
		t.Errorf("Backend.Family = %q, want cas", cfg.Backend.Family)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFromFile_DefaultsSurviveMissingFields(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("backend:\n  kind: memory\n"), 0600); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Backend.Family != "routing" {
		t.Errorf("Backend.Family = %q, want routing (default preserved)", cfg.Backend.Family)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info (default preserved)", cfg.Logging.Level)
	}
}

func TestLoadFromFile_NonexistentPath(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent config file")
	}
}

func TestLoadFromFile_InvalidConfigFailsValidation(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("backend:\n  kind: bogus\n"), 0600); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected validation error for unrecognized backend kind")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://env-host:6379")
	t.Setenv("REDIS_NAMESPACE", "env:namespace")
	t.Setenv("SESSION_BACKEND_FAMILY", "cas")

	got := ApplyEnv(BackendConfig{Kind: "memory"})
	if got.Kind != "redis" {
		t.Errorf("Kind = %q, want redis", got.Kind)
	}
	if got.RedisURL != "redis://env-host:6379" {
		t.Errorf("RedisURL = %q, want redis://env-host:6379", got.RedisURL)
	}
	if got.Namespace != "env:namespace" {
		t.Errorf("Namespace = %q, want env:namespace", got.Namespace)
	}
	if got.Family != "cas" {
		t.Errorf("Family = %q, want cas", got.Family)
	}
}
