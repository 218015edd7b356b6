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

import "fmt"

// Validate validates the entire configuration.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBackend() error {
	validKinds := map[string]bool{"memory": true, "redis": true}
	if !validKinds[c.Backend.Kind] {
		return fmt.Errorf("backend kind must be one of: memory, redis")
	}
	if c.Backend.Kind == "redis" && c.Backend.RedisURL == "" {
		return fmt.Errorf("backend redis_url must not be empty when kind is redis")
	}

	validFamilies := map[string]bool{"routing": true, "cas": true}
	if !validFamilies[c.Backend.Family] {
		return fmt.Errorf("backend family must be one of: routing, cas")
	}
	return nil
}

func (c *Config) validateLogging() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging format must be one of: json, console")
	}
	return nil
}
