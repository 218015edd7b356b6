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
	"github.com/greentic-ai/session-store/sessionstore"
)

// Config is the ambient configuration for a session-store process:
// which backend to construct (spec.md §6's SessionBackendConfig) and
// how to log. The core package never reads this — only cmd/sessionctl
// does.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig is the on-disk/env shape of sessionstore.Config.
type BackendConfig struct {
	Kind      string `yaml:"kind"` // "memory" | "redis"
	RedisURL  string `yaml:"redis_url"`
	Namespace string `yaml:"namespace"`
	Family    string `yaml:"family"` // "routing" | "cas"
}

// LoggingConfig controls the ambient obslog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json", "console"
}

// DefaultConfig returns the in-memory, routing-family, info-level
// default.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Kind:      "memory",
			Namespace: "",
			Family:    "routing",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// SessionStoreConfig converts b into a sessionstore.Config, defaulting
// to the in-memory backend when Kind is empty or unrecognized.
func (b BackendConfig) SessionStoreConfig() sessionstore.Config {
	switch b.Kind {
	case "redis":
		if b.Namespace != "" {
			return sessionstore.RedisURLWithNamespaceConfig(b.RedisURL, b.Namespace)
		}
		return sessionstore.RedisURLConfig(b.RedisURL)
	default:
		return sessionstore.InMemoryConfig()
	}
}

// ResolveFamily converts the configured Family string into a
// sessionstore.Family, defaulting to the routing family.
func (b BackendConfig) ResolveFamily() sessionstore.Family {
	if b.Family == "cas" {
		return sessionstore.FamilyCas
	}
	return sessionstore.FamilyRouting
}
