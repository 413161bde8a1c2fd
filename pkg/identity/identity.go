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

package identity

import (
	"sync/atomic"
)

// Identity is the device identity resolved once at startup.
type Identity struct {
	OUI          BoundedString
	SerialNumber BoundedString
	EndpointID   BoundedString
}

// Holder publishes an Identity exactly once and serves copies of it to any
// goroutine without locking.
type Holder struct {
	id atomic.Pointer[Identity]
}

// Publish stores id. Only the first call succeeds.
func (h *Holder) Publish(id Identity) error {
	if !h.id.CompareAndSwap(nil, &id) {
		return ErrAlreadyPublished
	}

	return nil
}

// Load returns the published identity; ok is false before Publish.
func (h *Holder) Load() (id Identity, ok bool) {
	p := h.id.Load()
	if p == nil {
		return Identity{}, false
	}

	return *p, true
}

// EndpointID returns the published endpoint id, or "" before Publish.
func (h *Holder) EndpointID() string {
	id, _ := h.Load()

	return id.EndpointID.String()
}
