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

// Package config loads the CLI's process
// configuration. Precedence, lowest to highest:
//
//  1. Default values (config.DefaultConfig)
//  2. A YAML file (config.LoadFromFile)
//  3. Environment variables, bound via viper (REDIS_URL, REDIS_NAMESPACE)
//
// Usage:
//
//	cfg, err := config.LoadFromFile("backend.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Backend = config.ApplyEnv(cfg.Backend)
package config
