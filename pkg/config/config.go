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

// Package config loads JSON service configuration from a file, from the
// environment, or from a file overlaid with a document held in the KV store.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/carverauto/localagent/pkg/kv"
	"github.com/carverauto/localagent/pkg/logger"
)

var (
	errKVStoreNotSet       = errors.New("KV store not initialized for CONFIG_SOURCE=kv; call SetKVStore first")
	errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")
	errInvalidConfigPtr    = errors.New("config must be a non-nil pointer")
)

const (
	configSourceKV   = "kv"
	configSourceFile = "file"
	configSourceEnv  = "env"

	// DefaultEnvPrefix prefixes every variable read when CONFIG_SOURCE=env.
	DefaultEnvPrefix = "LOCALAGENT_"
)

// ConfigLoader fills dst from the configuration found at path.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configuration structs that can check themselves.
type Validator interface {
	Validate() error
}

// Config holds the configuration loading dependencies.
type Config struct {
	kvStore       kv.KVStore
	defaultLoader ConfigLoader
	logger        logger.Logger
}

// NewConfig creates a loader set with the file loader as default. A nil log
// logs warnings to stderr, since configuration is read before the service
// logger exists.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.New(zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger())
	}

	return &Config{
		defaultLoader: NewFileConfigLoader(log),
		logger:        log,
	}
}

// SetKVStore sets the store consulted when CONFIG_SOURCE=kv.
func (c *Config) SetKVStore(store kv.KVStore) {
	c.kvStore = store
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate loads cfg from the source selected by CONFIG_SOURCE and
// validates it.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	if cfg == nil {
		return errInvalidConfigPtr
	}

	loader, err := c.loaderFor(strings.ToLower(os.Getenv("CONFIG_SOURCE")))
	if err != nil {
		return err
	}

	if err := loader.Load(ctx, path, cfg); err != nil {
		return err
	}

	return ValidateConfig(cfg)
}

func (c *Config) loaderFor(source string) (ConfigLoader, error) {
	switch source {
	case configSourceFile, "":
		return c.defaultLoader, nil
	case configSourceEnv:
		prefix := os.Getenv("CONFIG_ENV_PREFIX")
		if prefix == "" {
			prefix = DefaultEnvPrefix
		}

		return NewEnvConfigLoader(c.logger, prefix), nil
	case configSourceKV:
		if c.kvStore == nil {
			return nil, errKVStoreNotSet
		}

		return &overlayLoader{
			base:    c.defaultLoader,
			overlay: NewKVConfigLoader(c.kvStore),
			logger:  c.logger,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s (expected '%s', '%s', or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceKV, configSourceEnv)
	}
}

// overlayLoader loads the file as a base and then applies the KV document on
// top of it. Either may be missing, but not both.
type overlayLoader struct {
	base    ConfigLoader
	overlay ConfigLoader
	logger  logger.Logger
}

func (o *overlayLoader) Load(ctx context.Context, path string, dst interface{}) error {
	baseErr := o.base.Load(ctx, path, dst)
	if baseErr != nil && !errors.Is(baseErr, os.ErrNotExist) {
		return baseErr
	}

	overlayErr := o.overlay.Load(ctx, path, dst)

	switch {
	case overlayErr == nil:
		return nil
	case !errors.Is(overlayErr, errKVKeyNotFound):
		return overlayErr
	case baseErr != nil:
		return fmt.Errorf("no configuration in file (%w) or KV (%w)", baseErr, overlayErr)
	}

	o.logger.Debug().Str("path", path).Msg("No KV overlay, using file configuration")

	return nil
}

//nolint:gochecknoglobals // shared discard sink for loaders without a logger
var discard = logger.New(zerolog.New(io.Discard).Level(zerolog.Disabled))
