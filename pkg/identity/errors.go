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
	"errors"
)

var (
	// ErrResolve wraps every failure of identity resolution.
	ErrResolve = errors.New("failed to resolve device identity")
	// ErrMissingPrecondition is returned when an endpoint id would be synthesized
	// from an empty serial number.
	ErrMissingPrecondition = errors.New("serial number is empty, cannot form endpoint id")
	// ErrAlreadyPublished guards the once-only identity holder.
	ErrAlreadyPublished = errors.New("identity already published")
	// ErrNoMACAddress is returned when no WAN hardware address can be found.
	ErrNoMACAddress = errors.New("no WAN MAC address available")
)
