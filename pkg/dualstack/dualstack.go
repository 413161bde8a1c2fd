/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package dualstack caches whether the agent prefers IPv6 when a peer
// resolves to both address families.
package dualstack

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/carverauto/localagent/pkg/datamodel"
	"github.com/carverauto/localagent/pkg/logger"
)

const (
	Path = "Internal.DualStackPreference"

	IPv4 = "IPv4"
	IPv6 = "IPv6"

	// Default is the preference until an operator changes it.
	Default = IPv4
)

var errInvalidPreference = errors.New("only allowed values are 'IPv4' or 'IPv6'")

// Registrar is the slice of the parameter store needed to register the preference.
type Registrar interface {
	RegisterDBParam(path, def string, typ datamodel.Type, opts ...datamodel.ParamOption) error
}

// Getter reads the persisted preference.
type Getter interface {
	Get(ctx context.Context, path string) (string, error)
}

// Cache holds the preference for lock-free reads on the connection path.
type Cache struct {
	preferIPv6 atomic.Bool
	logger     logger.Logger
}

func NewCache(log logger.Logger) *Cache {
	return &Cache{logger: log}
}

// Register adds the preference parameter with its validator and change
// notification bound to this cache.
func (c *Cache) Register(r Registrar) error {
	return r.RegisterDBParam(Path, Default, datamodel.TypeString,
		datamodel.WithValidator(Validate),
		datamodel.WithNotifier(c.NotifyChange),
	)
}

// Load primes the cache from the store.
func (c *Cache) Load(ctx context.Context, g Getter) error {
	value, err := g.Get(ctx, Path)
	if err != nil {
		return fmt.Errorf("load %s: %w", Path, err)
	}

	c.preferIPv6.Store(value == IPv6)

	c.logger.Debug().Str("preference", value).Msg("Loaded dual-stack preference")

	return nil
}

// Validate accepts exactly "IPv4" or "IPv6".
func Validate(_ context.Context, _, value string) error {
	if value != IPv4 && value != IPv6 {
		return fmt.Errorf("%w: %w", datamodel.ErrInvalidValue, errInvalidPreference)
	}

	return nil
}

// NotifyChange updates the cache after a committed change.
func (c *Cache) NotifyChange(_ context.Context, _, value string) error {
	c.preferIPv6.Store(value == IPv6)

	c.logger.Info().Str("preference", value).Msg("Dual-stack preference changed")

	return nil
}

// PreferIPv6 reports the cached preference.
func (c *Cache) PreferIPv6() bool {
	return c.preferIPv6.Load()
}
