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
	"os"
	"strings"

	"github.com/google/uuid"
)

//nolint:gochecknoglobals // overridden in tests
var bootIDPath = "/proc/sys/kernel/random/boot_id"

// BootID returns the kernel's identifier for this boot. Where the kernel does
// not provide one a random UUID is returned, so it is unique per process
// rather than per boot.
func BootID() string {
	data, err := os.ReadFile(bootIDPath)
	if err == nil {
		if id, err := uuid.Parse(strings.TrimSpace(string(data))); err == nil {
			return id.String()
		}
	}

	return uuid.NewString()
}
