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

package datamodel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/carverauto/localagent/pkg/kv"
	"github.com/carverauto/localagent/pkg/logger"
)

// Store registers parameters and mediates every read and write of them.
type Store struct {
	mu      sync.RWMutex
	backend kv.KVStore
	params  map[string]*param
	ops     map[string]OperationHandler
	logger  logger.Logger
}

func New(backend kv.KVStore, log logger.Logger) *Store {
	return &Store{
		backend: backend,
		params:  make(map[string]*param),
		ops:     make(map[string]OperationHandler),
		logger:  log,
	}
}

// RegisterDBParam registers a persisted parameter whose value falls back to def
// until something is stored for it.
func (s *Store) RegisterDBParam(path, def string, typ Type, opts ...ParamOption) error {
	p := &param{path: path, kind: kindDB, typ: typ, def: def}
	for _, opt := range opts {
		opt(p)
	}

	return s.register(p)
}

// RegisterVendorParam registers a read-only parameter computed by get on each read.
func (s *Store) RegisterVendorParam(path string, typ Type, get Getter) error {
	if get == nil {
		return fmt.Errorf("%w: %s", errNilHandler, path)
	}

	return s.register(&param{path: path, kind: kindVendor, typ: typ, get: get})
}

// RegisterConstant registers a read-only parameter with a fixed value.
func (s *Store) RegisterConstant(path, value string, typ Type) error {
	return s.register(&param{path: path, kind: kindConstant, typ: typ, def: value})
}

// RegisterOperation registers a synchronous operation handler.
func (s *Store) RegisterOperation(path string, h OperationHandler) error {
	if h == nil {
		return fmt.Errorf("%w: %s", errNilHandler, path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ops[path]; ok {
		return fmt.Errorf("%w: %s", errDuplicatePath, path)
	}

	s.ops[path] = h

	return nil
}

func (s *Store) register(p *param) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.params[p.path]; ok {
		return fmt.Errorf("%w: %s", errDuplicatePath, p.path)
	}

	s.params[p.path] = p

	return nil
}

func (s *Store) lookup(path string) (*param, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.params[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	return p, nil
}

// DeclareDefault replaces the registered default of a database parameter.
// A value already persisted for the path keeps precedence; nothing is written
// to the backend.
func (s *Store) DeclareDefault(path, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.params[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	if p.kind != kindDB {
		return fmt.Errorf("%w: %s", errNotDBParam, path)
	}

	p.def = value

	return nil
}

// Get returns the effective value of path.
func (s *Store) Get(ctx context.Context, path string) (string, error) {
	p, err := s.lookup(path)
	if err != nil {
		return "", err
	}

	switch p.kind {
	case kindConstant:
		return p.def, nil
	case kindVendor:
		return p.get(ctx)
	}

	value, found, err := s.backend.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %w", ErrStoreUnavailable, path, err)
	}

	if found {
		return string(value), nil
	}

	s.mu.RLock()
	def := p.def
	s.mu.RUnlock()

	return def, nil
}

// GetInt returns the effective value of an integer parameter.
func (s *Store) GetInt(ctx context.Context, path string) (int, error) {
	value, err := s.Get(ctx, path)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s holds non-integer %q", ErrInvalidValue, path, value)
	}

	return n, nil
}

// Set validates, persists and then notifies. A validation failure leaves the
// stored value untouched.
func (s *Store) Set(ctx context.Context, path, value string) error {
	p, err := s.lookup(path)
	if err != nil {
		return err
	}

	if p.kind != kindDB {
		return fmt.Errorf("%w: %s", ErrNotWritable, path)
	}

	if err := p.typ.check(value); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if p.validate != nil {
		if err := p.validate(ctx, path, value); err != nil {
			if !errors.Is(err, ErrInvalidValue) {
				err = fmt.Errorf("%w: %w", ErrInvalidValue, err)
			}

			return err
		}
	}

	if err := s.backend.Put(ctx, path, []byte(value)); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrStoreUnavailable, path, err)
	}

	s.logger.Debug().Str("path", path).Str("value", value).Msg("Parameter committed")

	if p.notify != nil {
		if err := p.notify(ctx, path, value); err != nil {
			return fmt.Errorf("notify %s: %w", path, err)
		}
	}

	return nil
}

// SetInt persists an integer parameter.
func (s *Store) SetInt(ctx context.Context, path string, value int) error {
	return s.Set(ctx, path, strconv.Itoa(value))
}

// Operate runs the synchronous operation registered at path.
func (s *Store) Operate(ctx context.Context, path, commandKey string, input map[string]string) (map[string]string, error) {
	s.mu.RLock()
	h, ok := s.ops[path]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	return h(ctx, commandKey, input)
}

// ResetToDefaults removes the persisted value of every database parameter
// not registered WithPreserveOnReset, so that subsequent reads see registered
// defaults. Notifiers observe the default.
func (s *Store) ResetToDefaults(ctx context.Context) error {
	s.mu.RLock()
	dbParams := make([]*param, 0, len(s.params))

	for _, p := range s.params {
		if p.kind == kindDB && !p.preserve {
			dbParams = append(dbParams, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(dbParams, func(i, j int) bool { return dbParams[i].path < dbParams[j].path })

	for _, p := range dbParams {
		if err := s.backend.Delete(ctx, p.path); err != nil {
			return fmt.Errorf("%w: reset %s: %w", ErrStoreUnavailable, p.path, err)
		}

		if p.notify != nil {
			s.mu.RLock()
			def := p.def
			s.mu.RUnlock()

			if err := p.notify(ctx, p.path, def); err != nil {
				return fmt.Errorf("notify %s: %w", p.path, err)
			}
		}
	}

	s.logger.Info().Int("parameters", len(dbParams)).Msg("Parameter store reset to defaults")

	return nil
}
