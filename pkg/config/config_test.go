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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/localagent/pkg/kv"
	"github.com/carverauto/localagent/pkg/logger"
)

var errNameRequired = errors.New("name is required")

type testStore struct {
	Backend string `json:"backend"`
	Path    string `json:"path,omitempty"`
}

type testTLS struct {
	CAFile string `json:"ca_file"`
}

type testConfig struct {
	Name     string            `json:"name"`
	Enabled  bool              `json:"enabled"`
	Retries  int               `json:"retries"`
	Timeout  time.Duration     `json:"timeout"`
	Batch    logger.Duration   `json:"batch"`
	Commands []string          `json:"commands"`
	Labels   map[string]string `json:"labels"`
	Store    testStore         `json:"store"`
	TLS      *testTLS          `json:"tls,omitempty"`
}

func (c *testConfig) Validate() error {
	if c.Name == "" {
		return errNameRequired
	}

	return nil
}

func writeJSON(t *testing.T, path string, value interface{}) {
	t.Helper()

	data, err := json.Marshal(value)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestLoadAndValidateFromFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := filepath.Join(t.TempDir(), "localagent.json")
	writeJSON(t, path, map[string]any{"name": "agent", "store": map[string]any{"backend": "memory"}})

	var cfg testConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))
	assert.Equal(t, "agent", cfg.Name)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoadAndValidateRunsValidator(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := filepath.Join(t.TempDir(), "localagent.json")
	writeJSON(t, path, map[string]any{"enabled": true})

	var cfg testConfig
	require.ErrorIs(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg), errNameRequired)
}

func TestLoadAndValidateMissingFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	var cfg testConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), filepath.Join(t.TempDir(), "absent.json"), &cfg)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadAndValidateRejectsUnknownSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "consul")

	var cfg testConfig
	require.ErrorIs(t, NewConfig(nil).LoadAndValidate(context.Background(), "x.json", &cfg), errInvalidConfigSource)
}

func TestLoadAndValidateKVRequiresStore(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	var cfg testConfig
	require.ErrorIs(t, NewConfig(nil).LoadAndValidate(context.Background(), "x.json", &cfg), errKVStoreNotSet)
}

func TestLoadAndValidateKVOverlaysFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "localagent.json")
	writeJSON(t, path, map[string]any{
		"name":    "file-name",
		"retries": 3,
		"store":   map[string]any{"backend": "file", "path": "/var/lib/params.json"},
	})

	store, err := kv.NewMemDBStore()
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, KVConfigKey(path), []byte(`{"name":"kv-name","store":{"backend":"nats"}}`)))

	cfg := NewConfig(logger.NewTestLogger())
	cfg.SetKVStore(store)

	var result testConfig
	require.NoError(t, cfg.LoadAndValidate(ctx, path, &result))
	assert.Equal(t, "kv-name", result.Name)
	assert.Equal(t, 3, result.Retries)
	assert.Equal(t, "nats", result.Store.Backend)
	assert.Equal(t, "/var/lib/params.json", result.Store.Path)
}

func TestLoadAndValidateKVWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	ctx := context.Background()

	store, err := kv.NewMemDBStore()
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "config/localagent.json", []byte(`{"name":"kv-only"}`)))

	cfg := NewConfig(nil)
	cfg.SetKVStore(store)

	var result testConfig
	require.NoError(t, cfg.LoadAndValidate(ctx, "/etc/localagent/localagent.json", &result))
	assert.Equal(t, "kv-only", result.Name)
}

func TestLoadAndValidateKVFileOnly(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	path := filepath.Join(t.TempDir(), "localagent.json")
	writeJSON(t, path, map[string]any{"name": "file-only"})

	store, err := kv.NewMemDBStore()
	require.NoError(t, err)

	cfg := NewConfig(nil)
	cfg.SetKVStore(store)

	var result testConfig
	require.NoError(t, cfg.LoadAndValidate(context.Background(), path, &result))
	assert.Equal(t, "file-only", result.Name)
}

func TestLoadAndValidateKVNeitherSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	store, err := kv.NewMemDBStore()
	require.NoError(t, err)

	cfg := NewConfig(nil)
	cfg.SetKVStore(store)

	var result testConfig
	err = cfg.LoadAndValidate(context.Background(), filepath.Join(t.TempDir(), "absent.json"), &result)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.ErrorIs(t, err, errKVKeyNotFound)
}

func TestEnvConfigLoader(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "")
	t.Setenv("LOCALAGENT_NAME", "from-env")
	t.Setenv("LOCALAGENT_ENABLED", "true")
	t.Setenv("LOCALAGENT_RETRIES", "5")
	t.Setenv("LOCALAGENT_TIMEOUT", "250ms")
	t.Setenv("LOCALAGENT_BATCH", "3s")
	t.Setenv("LOCALAGENT_COMMANDS", "/sbin/reboot, -f")
	t.Setenv("LOCALAGENT_LABELS", `{"site":"lab"}`)
	t.Setenv("LOCALAGENT_STORE_BACKEND", "memory")

	var cfg testConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "from-env", cfg.Name)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, logger.Duration(3*time.Second), cfg.Batch)
	assert.Equal(t, []string{"/sbin/reboot", "-f"}, cfg.Commands)
	assert.Equal(t, map[string]string{"site": "lab"}, cfg.Labels)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Nil(t, cfg.TLS, "untouched pointer structs stay nil")
}

func TestEnvConfigLoaderNestedPointer(t *testing.T) {
	t.Setenv("AGENT_NAME", "x")
	t.Setenv("AGENT_TLS_CA_FILE", "/etc/ca.pem")

	var cfg testConfig
	require.NoError(t, NewEnvConfigLoader(nil, "AGENT_").Load(context.Background(), "", &cfg))
	require.NotNil(t, cfg.TLS)
	assert.Equal(t, "/etc/ca.pem", cfg.TLS.CAFile)
}

func TestEnvConfigLoaderJSONDocument(t *testing.T) {
	t.Setenv("AGENT_CONFIG_JSON", `{"name":"doc","retries":2}`)
	t.Setenv("AGENT_NAME", "ignored")

	var cfg testConfig
	require.NoError(t, NewEnvConfigLoader(nil, "AGENT_").Load(context.Background(), "", &cfg))
	assert.Equal(t, "doc", cfg.Name)
	assert.Equal(t, 2, cfg.Retries)
}

func TestEnvConfigLoaderErrors(t *testing.T) {
	loader := NewEnvConfigLoader(nil, "AGENT_")

	require.ErrorIs(t, loader.Load(context.Background(), "", nil), ErrDstMustBeNonNilPointer)

	var notStruct int
	require.ErrorIs(t, loader.Load(context.Background(), "", &notStruct), ErrDstMustBePointerToStruct)

	t.Setenv("AGENT_RETRIES", "many")

	var cfg testConfig
	require.Error(t, loader.Load(context.Background(), "", &cfg))
}

func TestBootstrapSeedsMissingDocument(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewMemDBStore()
	require.NoError(t, err)

	cfg := NewConfig(logger.NewTestLogger())

	written, err := cfg.Bootstrap(ctx, "/etc/localagent/localagent.json", &testConfig{Name: "seed"})
	require.NoError(t, err)
	assert.False(t, written, "no KV store configured")

	cfg.SetKVStore(store)

	written, err = cfg.Bootstrap(ctx, "/etc/localagent/localagent.json", &testConfig{Name: "seed"})
	require.NoError(t, err)
	assert.True(t, written)

	written, err = cfg.Bootstrap(ctx, "/etc/localagent/localagent.json", &testConfig{Name: "other"})
	require.NoError(t, err)
	assert.False(t, written)

	data, found, err := store.Get(ctx, "config/localagent.json")
	require.NoError(t, err)
	require.True(t, found)

	var stored testConfig
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "seed", stored.Name)
}
