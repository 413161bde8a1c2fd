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
	"errors"
)

var (
	ErrStoreClosed        = errors.New("kv store is closed")
	errNatsURLRequired    = errors.New("nats_url is required for the nats backend")
	errPathRequired       = errors.New("path is required for the file backend")
	errUnknownBackend     = errors.New("unknown kv backend")
	errCorruptStoreFile   = errors.New("kv store file is corrupt")
	errUnexpectedDBRecord = errors.New("unexpected record type in memdb")
	errMTLSKeyPair        = errors.New("cert_file and key_file must be set together")
	errCAParsingFailed    = errors.New("failed to parse CA certificate")
)
