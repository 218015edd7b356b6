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
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LoadFromFile loads a Config from a YAML file, starting from
// DefaultConfig so unset fields keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides backend settings from REDIS_URL / REDIS_NAMESPACE
// / SESSION_BACKEND_FAMILY, bound through viper. Environment variables
// take precedence over file-based configuration. Per spec.md §6 the
// core package itself never reads these; only the CLI calls this.
func ApplyEnv(base BackendConfig) BackendConfig {
	v := viper.New()
	v.AutomaticEnv()
	_ = v.BindEnv("redis_url", "REDIS_URL")
	_ = v.BindEnv("redis_namespace", "REDIS_NAMESPACE")
	_ = v.BindEnv("family", "SESSION_BACKEND_FAMILY")

	if url := v.GetString("redis_url"); url != "" {
		base.Kind = "redis"
		base.RedisURL = url
	}
	if ns := v.GetString("redis_namespace"); ns != "" {
		base.Namespace = ns
	}
	if family := v.GetString("family"); family != "" {
		base.Family = family
	}
	return base
}
