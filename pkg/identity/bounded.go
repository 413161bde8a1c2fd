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
	"unicode/utf8"
)

// MaxValueLen is the longest identity value, in bytes, the agent will carry.
const MaxValueLen = 255

// BoundedString is a string guaranteed to be at most MaxValueLen bytes.
type BoundedString struct {
	value string
}

// NewBoundedString truncates s to MaxValueLen bytes, backing off to a rune
// boundary. truncated reports whether anything was dropped.
func NewBoundedString(s string) (b BoundedString, truncated bool) {
	if len(s) <= MaxValueLen {
		return BoundedString{value: s}, false
	}

	cut := MaxValueLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return BoundedString{value: s[:cut]}, true
}

func (b BoundedString) String() string {
	return b.value
}

func (b BoundedString) IsEmpty() bool {
	return b.value == ""
}
