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
package kv

import (
	"context"
	"fmt"
	"path/filepath"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendNATS   = "nats"

	defaultBucket   = "localagent-params"
	defaultFilePath = "/var/lib/localagent/params.json"
)

// Config selects and parameterizes the backend that persists agent parameters.
type Config struct {
	Backend string `json:"backend"`            // memory, file or nats
	Path    string `json:"path,omitempty"`     // file backend location
	NATSURL string `json:"nats_url,omitempty"` // nats backend server
	Bucket  string `json:"bucket,omitempty"`   // JetStream KV bucket name
	Domain  string `json:"domain,omitempty"`   // Optional JetStream domain

	// CredsFile is a NATS user credentials file (JWT and NKey seed).
	CredsFile string     `json:"creds_file,omitempty"`
	TLS       *TLSConfig `json:"tls,omitempty"`
}

// Validate ensures the configuration is valid, filling in defaults.
func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendFile
	}

	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendFile:
		if c.Path == "" {
			c.Path = defaultFilePath
		}

		if !filepath.IsAbs(c.Path) {
			abs, err := filepath.Abs(c.Path)
			if err != nil {
				return fmt.Errorf("%w: %w", errPathRequired, err)
			}

			c.Path = abs
		}

		return nil
	case BackendNATS:
		if c.NATSURL == "" {
			return errNatsURLRequired
		}

		if c.Bucket == "" {
			c.Bucket = defaultBucket
		}

		return nil
	default:
		return fmt.Errorf("%w: %q (expected %q, %q or %q)",
			errUnknownBackend, c.Backend, BackendMemory, BackendFile, BackendNATS)
	}
}

// NewStore opens the backend described by cfg.
func NewStore(ctx context.Context, cfg *Config) (KVStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendMemory:
		return NewMemDBStore()
	case BackendNATS:
		return NewNatsStore(ctx, cfg)
	default:
		return NewFileStore(cfg.Path)
	}
}
