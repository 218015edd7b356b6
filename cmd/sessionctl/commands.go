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
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/greentic-ai/session-store/ids"
	"github.com/greentic-ai/session-store/sessionmodel"
	"github.com/greentic-ai/session-store/sessionstore"
)

func openHandle(ctx context.Context) (*sessionstore.Handle, error) {
	return sessionstore.New(ctx, cfg.Backend.SessionStoreConfig(), cfg.Backend.ResolveFamily())
}

func buildTenantCtx(env, tenant, team, user string) (ids.TenantCtx, error) {
	e, err := ids.NewEnvId(env)
	if err != nil {
		return ids.TenantCtx{}, fmt.Errorf("env: %w", err)
	}
	t, err := ids.NewTenantId(tenant)
	if err != nil {
		return ids.TenantCtx{}, fmt.Errorf("tenant: %w", err)
	}
	tc := ids.NewTenantCtx(e, t)
	if team != "" {
		tc = tc.WithTeam(ids.TeamId(team))
	}
	if user != "" {
		tc = tc.WithUser(ids.UserId(user))
	}
	return tc, nil
}

func printSession(key ids.SessionKey, data *sessionmodel.Session) {
	if data == nil {
		fmt.Println("not found")
		return
	}
	out, _ := json.MarshalIndent(struct {
		Key  ids.SessionKey       `json:"key"`
		Data *sessionmodel.Session `json:"data"`
	}{key, data}, "", "  ")
	fmt.Println(string(out))
}

var (
	flagEnv, flagTenant, flagTeam, flagUser string
	flagFlowID, flagPackID, flagContextJSON string
	flagTTLSeconds                          uint32
	flagKey                                 string
)

func addTenantFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagEnv, "env", "", "environment id")
	cmd.Flags().StringVar(&flagTenant, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&flagTeam, "team", "", "team id (optional)")
	cmd.Flags().StringVar(&flagUser, "user", "", "user id (optional)")
	_ = cmd.MarkFlagRequired("env")
	_ = cmd.MarkFlagRequired("tenant")
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new session",
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := buildTenantCtx(flagEnv, flagTenant, flagTeam, flagUser)
		if err != nil {
			return err
		}
		flowID, err := ids.NewFlowId(flagFlowID)
		if err != nil {
			return fmt.Errorf("flow: %w", err)
		}

		data := &sessionmodel.Session{
			TenantCtx:   tc,
			FlowId:      flowID,
			PackId:      flagPackID,
			Cursor:      sessionmodel.NewCursor("start"),
			ContextJSON: flagContextJSON,
			TTLSecs:     flagTTLSeconds,
		}

		ctx := cmd.Context()
		h, err := openHandle(ctx)
		if err != nil {
			return err
		}
		defer h.Close()

		switch {
		case h.Legacy != nil:
			key, err := h.Legacy.CreateSession(ctx, tc, data)
			if err != nil {
				return err
			}
			fmt.Println(key)
		case h.Cas != nil:
			data.Key = sessionmodel.NewSessionKey()
			if _, err := h.Cas.Put(ctx, data); err != nil {
				return err
			}
			fmt.Println(data.Key)
		default:
			return fmt.Errorf("backend exposes neither LegacyStore nor CasStore")
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch a session by key",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := openHandle(ctx)
		if err != nil {
			return err
		}
		defer h.Close()

		key := ids.SessionKey(flagKey)
		switch {
		case h.Legacy != nil:
			data, err := h.Legacy.GetSession(ctx, key)
			if err != nil {
				return err
			}
			printSession(key, data)
		case h.Cas != nil:
			data, cas, err := h.Cas.Get(ctx, key)
			if err != nil {
				return err
			}
			if data != nil {
				fmt.Printf("cas=%d\n", cas)
			}
			printSession(key, data)
		default:
			return fmt.Errorf("backend exposes neither LegacyStore nor CasStore")
		}
		return nil
	},
}

var touchCmd = &cobra.Command{
	Use:   "touch",
	Short: "Extend a CAS-family session's TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := openHandle(ctx)
		if err != nil {
			return err
		}
		defer h.Close()
		if h.Cas == nil {
			return fmt.Errorf("touch requires a CAS-family backend (--config family: cas)")
		}

		var ttl *time.Duration
		if cmd.Flags().Changed("ttl") {
			d := time.Duration(flagTTLSeconds) * time.Second
			ttl = &d
		}
		live, err := h.Cas.Touch(ctx, ids.SessionKey(flagKey), ttl)
		if err != nil {
			return err
		}
		fmt.Println(live)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Remove a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := openHandle(ctx)
		if err != nil {
			return err
		}
		defer h.Close()

		key := ids.SessionKey(flagKey)
		switch {
		case h.Legacy != nil:
			return h.Legacy.RemoveSession(ctx, key)
		case h.Cas != nil:
			_, err := h.Cas.Delete(ctx, key)
			return err
		default:
			return fmt.Errorf("backend exposes neither LegacyStore nor CasStore")
		}
	},
}

var findUserCmd = &cobra.Command{
	Use:   "find-user",
	Short: "Find the live session for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := buildTenantCtx(flagEnv, flagTenant, flagTeam, flagUser)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		h, err := openHandle(ctx)
		if err != nil {
			return err
		}
		defer h.Close()
		if h.Legacy == nil {
			return fmt.Errorf("find-user requires a routing-family backend")
		}

		key, data, err := h.Legacy.FindByUser(ctx, tc, ids.UserId(flagUser))
		if err != nil {
			return err
		}
		printSession(key, data)
		return nil
	},
}

var (
	flagConversation, flagThread, flagReplyTo, flagCorrelation string
)

func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagConversation, "conversation", "", "conversation id")
	cmd.Flags().StringVar(&flagThread, "thread", "", "thread id (optional)")
	cmd.Flags().StringVar(&flagReplyTo, "reply-to", "", "reply-to id (optional)")
	cmd.Flags().StringVar(&flagCorrelation, "correlation", "", "correlation id (optional)")
	_ = cmd.MarkFlagRequired("conversation")
}

func buildScope() ids.ReplyScope {
	return ids.ReplyScope{
		Conversation: flagConversation,
		Thread:       flagThread,
		ReplyTo:      flagReplyTo,
		Correlation:  flagCorrelation,
	}
}

var registerWaitCmd = &cobra.Command{
	Use:   "register-wait",
	Short: "Register a wait for a reply at the given scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := buildTenantCtx(flagEnv, flagTenant, flagTeam, flagUser)
		if err != nil {
			return err
		}
		flowID, err := ids.NewFlowId(flagFlowID)
		if err != nil {
			return fmt.Errorf("flow: %w", err)
		}

		key := sessionmodel.NewSessionKey()
		data := &sessionmodel.Session{
			TenantCtx:   tc,
			FlowId:      flowID,
			PackId:      flagPackID,
			Cursor:      sessionmodel.NewCursor("waiting"),
			ContextJSON: flagContextJSON,
			TTLSecs:     flagTTLSeconds,
		}

		ctx := cmd.Context()
		h, err := openHandle(ctx)
		if err != nil {
			return err
		}
		defer h.Close()
		if h.Routing == nil {
			return fmt.Errorf("register-wait requires a routing-family backend")
		}

		ttl := time.Duration(flagTTLSeconds) * time.Second
		if err := h.Routing.RegisterWait(ctx, tc, ids.UserId(flagUser), buildScope(), key, data, ttl); err != nil {
			return err
		}
		fmt.Println(key)
		return nil
	},
}

var findWaitCmd = &cobra.Command{
	Use:   "find-wait",
	Short: "Find the session key registered for a scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := buildTenantCtx(flagEnv, flagTenant, flagTeam, flagUser)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		h, err := openHandle(ctx)
		if err != nil {
			return err
		}
		defer h.Close()
		if h.Routing == nil {
			return fmt.Errorf("find-wait requires a routing-family backend")
		}

		key, found, err := h.Routing.FindWaitByScope(ctx, tc, ids.UserId(flagUser), buildScope())
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("not found")
			return nil
		}
		fmt.Println(key)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{createCmd, getCmd, touchCmd, rmCmd, findUserCmd, registerWaitCmd, findWaitCmd} {
		switch cmd {
		case getCmd, touchCmd, rmCmd:
			cmd.Flags().StringVar(&flagKey, "key", "", "session key")
			_ = cmd.MarkFlagRequired("key")
		case createCmd, findUserCmd, registerWaitCmd, findWaitCmd:
			addTenantFlags(cmd)
		}
	}

	for _, cmd := range []*cobra.Command{createCmd, registerWaitCmd} {
		cmd.Flags().StringVar(&flagFlowID, "flow", "", "flow id")
		cmd.Flags().StringVar(&flagPackID, "pack", "", "pack id (optional)")
		cmd.Flags().StringVar(&flagContextJSON, "context-json", "{}", "opaque serialized execution state")
		cmd.Flags().Uint32Var(&flagTTLSeconds, "ttl", 0, "ttl in seconds (0 = never expire)")
		_ = cmd.MarkFlagRequired("flow")
	}
	touchCmd.Flags().Uint32Var(&flagTTLSeconds, "ttl", 0, "ttl in seconds (0 = never expire; omit to leave the current TTL untouched)")

	for _, cmd := range []*cobra.Command{registerWaitCmd, findWaitCmd} {
		addScopeFlags(cmd)
	}
}
