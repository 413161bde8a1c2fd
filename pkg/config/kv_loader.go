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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/carverauto/localagent/pkg/kv"
)

var errKVKeyNotFound = errors.New("key not found in KV store")

// KVConfigKey is the KV key holding the configuration document for a file
// path: "config/" followed by the file's base name.
func KVConfigKey(filePath string) string {
	return "config/" + path.Base(filePath)
}

// KVConfigLoader loads configuration from a KV store.
type KVConfigLoader struct {
	store kv.KVStore
}

func NewKVConfigLoader(store kv.KVStore) *KVConfigLoader {
	return &KVConfigLoader{store: store}
}

// Load implements ConfigLoader by unmarshaling the document stored under
// KVConfigKey(path) into dst. Fields absent from the document keep their
// current values.
func (k *KVConfigLoader) Load(ctx context.Context, filePath string, dst interface{}) error {
	key := KVConfigKey(filePath)

	data, found, err := k.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get key '%s' from KV store: %w", key, err)
	}

	if !found {
		return fmt.Errorf("%w: '%s'", errKVKeyNotFound, key)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal JSON from key '%s': %w", key, err)
	}

	return nil
}

// Bootstrap seeds the KV document for path with cfg when the KV store is set
// and holds nothing there yet, so operators have a complete document to edit.
// It reports whether a document was written.
func (c *Config) Bootstrap(ctx context.Context, filePath string, cfg interface{}) (bool, error) {
	if c.kvStore == nil {
		return false, nil
	}

	key := KVConfigKey(filePath)

	_, found, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to get key '%s' from KV store: %w", key, err)
	}

	if found {
		return false, nil
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("failed to marshal configuration for '%s': %w", key, err)
	}

	if err := c.kvStore.Put(ctx, key, data); err != nil {
		return false, fmt.Errorf("failed to put key '%s' into KV store: %w", key, err)
	}

	c.logger.Info().Str("key", key).Msg("Seeded configuration into KV store")

	return true, nil
}
