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

	memdb "github.com/hashicorp/go-memdb"
)

const (
	paramTable = "params"
	idIndex    = "id"
)

type record struct {
	Key   string
	Value []byte
}

func memDBSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			paramTable: {
				Name: paramTable,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: {
						Name:    idIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
}

// MemDBStore is a volatile, transactional backend. Values survive agent
// restarts only within the same process, which is what tests and
// ephemeral containers want.
type MemDBStore struct {
	db *memdb.MemDB
}

func NewMemDBStore() (*MemDBStore, error) {
	db, err := memdb.NewMemDB(memDBSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}

	return &MemDBStore{db: db}, nil
}

func (m *MemDBStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(paramTable, idIndex, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	if raw == nil {
		return nil, false, nil
	}

	rec, ok := raw.(*record)
	if !ok {
		return nil, false, fmt.Errorf("%w: %T", errUnexpectedDBRecord, raw)
	}

	return append([]byte(nil), rec.Value...), true, nil
}

func (m *MemDBStore) Put(_ context.Context, key string, value []byte) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(paramTable, &record{Key: key, Value: append([]byte(nil), value...)}); err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	txn.Commit()

	return nil
}

func (m *MemDBStore) Delete(_ context.Context, key string) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(paramTable, idIndex, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	txn.Commit()

	return nil
}

func (*MemDBStore) Close() error {
	return nil
}

var _ KVStore = (*MemDBStore)(nil)
