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

// Package datamodel is the agent's persistent parameter store: a registry of
// path-addressed parameters layered over a kv.KVStore. Database parameters
// carry a registered default that a persisted value overrides; vendor and
// constant parameters are computed on read.
package datamodel

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Type is the data type a parameter's string form must parse as.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeUInt
	TypeBool
	TypeDateTime
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeUInt:
		return "unsignedInt"
	case TypeBool:
		return "boolean"
	case TypeDateTime:
		return "dateTime"
	default:
		return "unknown"
	}
}

// check returns an ErrInvalidValue error if value does not parse as t.
func (t Type) check(value string) error {
	var err error

	switch t {
	case TypeInt:
		_, err = strconv.Atoi(value)
	case TypeUInt:
		_, err = strconv.ParseUint(value, 10, 32)
	case TypeBool:
		_, err = strconv.ParseBool(value)
	case TypeDateTime:
		_, err = time.Parse(time.RFC3339, value)
	case TypeString:
	}

	if err != nil {
		return fmt.Errorf("%w: %q is not a valid %s", ErrInvalidValue, value, t)
	}

	return nil
}

// Validator vets a value before it is committed.
type Validator func(ctx context.Context, path, value string) error

// Notifier observes a value after it has been committed.
type Notifier func(ctx context.Context, path, value string) error

// Getter computes the value of a vendor parameter on each read.
type Getter func(ctx context.Context) (string, error)

// OperationHandler runs a synchronous operation such as Device.Reboot().
type OperationHandler func(ctx context.Context, commandKey string, input map[string]string) (map[string]string, error)

type paramKind int

const (
	kindDB paramKind = iota
	kindVendor
	kindConstant
)

type param struct {
	path     string
	kind     paramKind
	typ      Type
	def      string
	validate Validator
	notify   Notifier
	get      Getter
	preserve bool
}

// ParamOption customizes a database parameter at registration.
type ParamOption func(*param)

// WithValidator runs v before every commit.
func WithValidator(v Validator) ParamOption {
	return func(p *param) {
		p.validate = v
	}
}

// WithNotifier runs n synchronously after every successful commit.
func WithNotifier(n Notifier) ParamOption {
	return func(p *param) {
		p.notify = n
	}
}

// WithPreserveOnReset keeps the persisted value across ResetToDefaults.
func WithPreserveOnReset() ParamOption {
	return func(p *param) {
		p.preserve = true
	}
}
