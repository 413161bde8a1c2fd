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
	"errors"
)

var (
	// ErrInvalidPath is returned for parameters and operations nobody registered.
	ErrInvalidPath = errors.New("no such parameter")
	// ErrStoreUnavailable wraps any failure of the persistence backend.
	ErrStoreUnavailable = errors.New("parameter store unavailable")
	// ErrInvalidValue rejects a value before it is committed; the store is unchanged.
	ErrInvalidValue = errors.New("invalid value")
	// ErrNotWritable is returned when setting a constant or vendor-backed parameter.
	ErrNotWritable = errors.New("parameter is not writable")

	errDuplicatePath = errors.New("path already registered")
	errNotDBParam    = errors.New("parameter is not database backed")
	errNilHandler    = errors.New("handler must not be nil")
)
