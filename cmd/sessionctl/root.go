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

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/greentic-ai/session-store/config"
	"github.com/greentic-ai/session-store/internal/obslog"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sessionctl",
	Short: "Inspect and exercise a greentic session store backend",
	Long: `sessionctl is an operator CLI over the multi-tenant session store: it
constructs a backend from a config file and environment overrides, then
drives the same operations a flow runtime would.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromFile(configPath)
		} else {
			cfg = config.DefaultConfig()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Backend = config.ApplyEnv(cfg.Backend)

		logger, err := buildLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		obslog.SetLogger(logger)
		return nil
	},
}

func buildLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if lc.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a backend config YAML file")
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(touchCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(findUserCmd)
	rootCmd.AddCommand(registerWaitCmd)
	rootCmd.AddCommand(findWaitCmd)
}
