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

package reboot

import (
	"errors"
)

var (
	// ErrCapture wraps any failure while reading or resetting the boot markers.
	ErrCapture = errors.New("boot cycle capture failed")
	// ErrSchedule wraps a failure to persist the markers for a scheduled restart.
	ErrSchedule = errors.New("reboot scheduling failed")

	errUnknownAction = errors.New("unknown exit action")
)
