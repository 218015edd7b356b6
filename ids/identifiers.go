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

package ids

import "errors"

// ErrEmptyIdentifier is returned when a collaborator-layer identifier
// is constructed from the empty string.
var ErrEmptyIdentifier = errors.New("ids: identifier cannot be empty")

// EnvId identifies a deployment environment (e.g. "dev", "prod").
type EnvId string

// TenantId identifies a tenant within an environment.
type TenantId string

// TeamId identifies a team within a tenant.
type TeamId string

// UserId identifies a user within a team.
type UserId string

// FlowId identifies a flow definition.
type FlowId string

// SessionKey is the primary key of a Session record. It is either a
// random 128-bit UUID rendered as text, or a deterministic SHA-256 hex
// digest produced by the mapping package.
type SessionKey string

// NewEnvId validates and constructs an EnvId.
func NewEnvId(v string) (EnvId, error) {
	if v == "" {
		return "", ErrEmptyIdentifier
	}
	return EnvId(v), nil
}

// NewTenantId validates and constructs a TenantId.
func NewTenantId(v string) (TenantId, error) {
	if v == "" {
		return "", ErrEmptyIdentifier
	}
	return TenantId(v), nil
}

// NewTeamId validates and constructs a TeamId.
func NewTeamId(v string) (TeamId, error) {
	if v == "" {
		return "", ErrEmptyIdentifier
	}
	return TeamId(v), nil
}

// NewUserId validates and constructs a UserId.
func NewUserId(v string) (UserId, error) {
	if v == "" {
		return "", ErrEmptyIdentifier
	}
	return UserId(v), nil
}

// NewFlowId validates and constructs a FlowId.
func NewFlowId(v string) (FlowId, error) {
	if v == "" {
		return "", ErrEmptyIdentifier
	}
	return FlowId(v), nil
}

func (e EnvId) String() string    { return string(e) }
func (t TenantId) String() string { return string(t) }
func (t TeamId) String() string   { return string(t) }
func (u UserId) String() string   { return string(u) }
func (f FlowId) String() string   { return string(f) }
func (k SessionKey) String() string { return string(k) }
