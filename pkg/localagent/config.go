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

package localagent

import (
	"fmt"

	"github.com/carverauto/localagent/pkg/kv"
	"github.com/carverauto/localagent/pkg/lifecycle"
	"github.com/carverauto/localagent/pkg/logger"
	"github.com/carverauto/localagent/pkg/vendor"
)

const (
	VendorSourceDMI    = "dmi"
	VendorSourceStatic = "static"
	VendorSourceNone   = "none"
)

// Config is the agent's JSON configuration.
type Config struct {
	Store        kv.Config            `json:"store"`
	DeviceInfo   DeviceInfoConfig     `json:"device_info"`
	WANInterface string               `json:"wan_interface,omitempty"`
	Vendor       VendorConfig         `json:"vendor"`
	Exit         lifecycle.ExitConfig `json:"exit"`
	Logging      *logger.Config       `json:"logging,omitempty"`
}

// DeviceInfoConfig controls whether the agent registers the
// Device.DeviceInfo parameters itself or leaves them to a vendor layer.
type DeviceInfoConfig struct {
	Enabled bool `json:"enabled"`
}

// VendorConfig selects where vendor hooks come from. With the dmi source,
// any static values take precedence over what sysfs reports.
type VendorConfig struct {
	Source string        `json:"source"`
	Static vendor.Static `json:"static"`
}

// DefaultConfig is the configuration the file or environment is applied over.
func DefaultConfig() *Config {
	return &Config{
		Store:      kv.Config{Backend: kv.BackendFile},
		DeviceInfo: DeviceInfoConfig{Enabled: true},
		Vendor:     VendorConfig{Source: VendorSourceDMI},
		Exit:       lifecycle.DefaultExitConfig(),
	}
}

// Validate fills in defaults and rejects unusable settings.
func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	switch c.Vendor.Source {
	case "":
		c.Vendor.Source = VendorSourceDMI
	case VendorSourceDMI, VendorSourceStatic, VendorSourceNone:
	default:
		return fmt.Errorf("%w: %q", errUnknownVendorSource, c.Vendor.Source)
	}

	if c.Exit.DrainTimeout <= 0 {
		c.Exit.DrainTimeout = logger.Duration(lifecycle.DefaultDrainTimeout)
	}

	return nil
}

// Hooks builds the vendor hooks the configuration selects.
func (c *Config) Hooks() vendor.Hooks {
	static := c.Vendor.Static

	switch c.Vendor.Source {
	case VendorSourceNone:
		return vendor.UnimplementedHooks{}
	case VendorSourceStatic:
		return &static
	default:
		return vendor.Chain{&static, vendor.NewDMI()}
	}
}
