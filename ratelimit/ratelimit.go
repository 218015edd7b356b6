// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

/*
Package ratelimit throttles per-tenant traffic into a connector
process's entry points ahead of the session store
proper, so a single noisy tenant cannot starve the store's write path
for every other tenant sharing the process.

	limiter := ratelimit.NewTokenBucket(ratelimit.TokenBucketConfig{
	    Rate:     20,  // 20 requests per second
	    Capacity: 40,  // allow bursts up to 40
	})

	if !limiter.Allow(tenantCtx) {
	    // reject with 429
	}
*/
package ratelimit

import (
	"context"
	"time"

	"github.com/greentic-ai/session-store/ids"
)

// Limiter defines the interface for rate limiters keyed on the tenant
// making the request, not on an arbitrary caller-supplied string.
type Limiter interface {
	// Allow checks if a request is allowed for the given tenant
	Allow(tenant ids.TenantCtx) bool

	// AllowN checks if N requests are allowed for the given tenant
	AllowN(tenant ids.TenantCtx, n int) bool

	// Wait blocks until a request is allowed
	Wait(ctx context.Context, tenant ids.TenantCtx) error

	// Reserve reserves a request and returns time until available
	Reserve(tenant ids.TenantCtx) time.Duration

	// Stats returns limiter statistics
	Stats() Stats

	// Reset resets the limiter for a specific tenant
	Reset(tenant ids.TenantCtx)

	// Close closes the limiter and releases resources
	Close() error
}

// Stats holds rate limiter statistics
type Stats struct {
	// Allowed is the number of allowed requests
	Allowed int64

	// Denied is the number of denied requests
	Denied int64

	// CurrentKeys is the number of active tenants being tracked
	CurrentKeys int
}

// Config holds common rate limiter configuration
type Config struct {
	// CleanupInterval is how often to clean up expired entries
	CleanupInterval time.Duration

	// EnableMetrics enables metrics collection
	EnableMetrics bool
}

// DefaultConfig returns default rate limiter configuration
func DefaultConfig() Config {
	return Config{
		CleanupInterval: 1 * time.Minute,
		EnableMetrics:   true,
	}
}

// tenantKey derives the bucket map key for a tenant. Env and Tenant
// always fence the limit; team/user narrow it further when present,
// using the same legacy-aware normalization as store tenant fencing
// so a team or user carried only in the legacy slot shares one bucket
// with the same value carried in the primary slot.
func tenantKey(tenant ids.TenantCtx) string {
	key := tenant.Env.String() + "/" + tenant.Tenant.String()
	if team := tenant.NormalizedTeam(); team != "" {
		key += "/" + string(team)
	}
	if user := tenant.NormalizedUser(); user != "" {
		key += "/" + string(user)
	}
	return key
}
