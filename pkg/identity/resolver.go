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

// Package identity resolves the device's OUI, serial number and endpoint id
// from vendor hooks, environment overrides and hardware, seeds them as
// parameter defaults and publishes the effective values once.
package identity

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/carverauto/localagent/pkg/datamodel"
	"github.com/carverauto/localagent/pkg/logger"
	"github.com/carverauto/localagent/pkg/vendor"
	"github.com/carverauto/localagent/pkg/version"
)

const (
	PathManufacturerOUI = "Device.DeviceInfo.ManufacturerOUI"
	PathSerialNumber    = "Device.DeviceInfo.SerialNumber"
	PathEndpointID      = "Device.LocalAgent.EndpointID"

	// EnvOUI and EnvSerialNumber override the built-in defaults when non-empty.
	EnvOUI          = "USP_BOARD_OUI"
	EnvSerialNumber = "USP_BOARD_SERIAL"

	endpointScheme = "os::"
)

// ParamStore is the slice of the parameter store the resolver needs.
type ParamStore interface {
	Get(ctx context.Context, path string) (string, error)
	DeclareDefault(path, value string) error
}

// Resolver computes the device identity.
type Resolver struct {
	params     ParamStore
	hooks      vendor.Hooks
	logger     logger.Logger
	deviceInfo bool
	getenv     func(string) string
	wanMAC     MACSource
	vendorOUI  string
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithEnv replaces os.Getenv for override lookups.
func WithEnv(getenv func(string) string) Option {
	return func(r *Resolver) {
		r.getenv = getenv
	}
}

// WithMACSource replaces the WAN MAC lookup.
func WithMACSource(src MACSource) Option {
	return func(r *Resolver) {
		r.wanMAC = src
	}
}

// WithVendorOUI replaces the compiled-in OUI.
func WithVendorOUI(oui string) Option {
	return func(r *Resolver) {
		r.vendorOUI = oui
	}
}

// NewResolver builds a resolver. deviceInfo reports whether the agent core
// registers the Device.DeviceInfo OUI and serial number parameters itself.
func NewResolver(params ParamStore, hooks vendor.Hooks, deviceInfo bool, log logger.Logger, opts ...Option) *Resolver {
	if hooks == nil {
		hooks = vendor.UnimplementedHooks{}
	}

	r := &Resolver{
		params:     params,
		hooks:      hooks,
		logger:     log,
		deviceInfo: deviceInfo,
		getenv:     os.Getenv,
		wanMAC:     InterfaceMAC(""),
		vendorOUI:  version.VendorOUI(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve seeds the three identity defaults into the parameter store and
// returns the effective values read back from it. Nothing is returned on
// failure; there is no partial identity.
func (r *Resolver) Resolve(ctx context.Context) (Identity, error) {
	oui, err := r.effective(ctx, PathManufacturerOUI, r.defaultOUI(), r.deviceInfo)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: oui: %w", ErrResolve, err)
	}

	serialDefault, err := r.defaultSerialNumber(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: serial number: %w", ErrResolve, err)
	}

	serial, err := r.effective(ctx, PathSerialNumber, serialDefault, r.deviceInfo)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: serial number: %w", ErrResolve, err)
	}

	endpointDefault, err := r.defaultEndpointID(ctx, oui, serial)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: endpoint id: %w", ErrResolve, err)
	}

	endpointID, err := r.effective(ctx, PathEndpointID, endpointDefault, true)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: endpoint id: %w", ErrResolve, err)
	}

	id := Identity{
		OUI:          r.bound(PathManufacturerOUI, oui),
		SerialNumber: r.bound(PathSerialNumber, serial),
		EndpointID:   r.bound(PathEndpointID, endpointID),
	}

	r.logger.Info().
		Str("oui", id.OUI.String()).
		Str("serial_number", id.SerialNumber.String()).
		Str("endpoint_id", id.EndpointID.String()).
		Msg("Resolved device identity")

	return id, nil
}

// effective reads back what the store holds for path, which may be an
// operator override of def. When seeded, def is first declared as the
// parameter's default; otherwise the parameter belongs to someone else and,
// if nobody registered it, def is used directly.
func (r *Resolver) effective(ctx context.Context, path, def string, seeded bool) (string, error) {
	if seeded {
		if err := r.params.DeclareDefault(path, def); err != nil {
			return "", err
		}
	}

	value, err := r.params.Get(ctx, path)
	if err != nil && !seeded && errors.Is(err, datamodel.ErrInvalidPath) {
		r.logger.Debug().Str("path", path).Str("default", def).Msg("Parameter not registered, using computed default")

		return def, nil
	}

	if err != nil {
		return "", err
	}

	return value, nil
}

func (r *Resolver) defaultOUI() string {
	if oui := r.getenv(EnvOUI); oui != "" {
		return oui
	}

	return r.vendorOUI
}

func (r *Resolver) defaultSerialNumber(ctx context.Context) (string, error) {
	serial, ok, err := vendor.Call(ctx, "serial_number", r.hooks.SerialNumber)
	if err != nil {
		return "", err
	}

	if ok {
		return serial, nil
	}

	if serial := r.getenv(EnvSerialNumber); serial != "" {
		return serial, nil
	}

	mac, err := r.wanMAC(ctx)
	if err != nil {
		return "", err
	}

	if len(mac) == 0 {
		return "", ErrNoMACAddress
	}

	return strings.ToUpper(hex.EncodeToString(mac)), nil
}

func (r *Resolver) defaultEndpointID(ctx context.Context, oui, serial string) (string, error) {
	endpointID, ok, err := vendor.Call(ctx, "endpoint_id", r.hooks.EndpointID)
	if err != nil {
		return "", err
	}

	if ok {
		return endpointID, nil
	}

	if serial == "" {
		return "", ErrMissingPrecondition
	}

	return endpointScheme + oui + "-" + serial, nil
}

func (r *Resolver) bound(path, value string) BoundedString {
	b, truncated := NewBoundedString(value)
	if truncated {
		r.logger.Warn().
			Str("path", path).
			Int("max_len", MaxValueLen).
			Msg("Identity value truncated")
	}

	return b
}
