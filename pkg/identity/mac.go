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
	"bytes"
	"context"
	"fmt"
	"net"
	"slices"
	"sort"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// MACSource returns the hardware address of the device's WAN interface.
type MACSource func(ctx context.Context) (net.HardwareAddr, error)

// InterfaceMAC looks up the WAN MAC address through gopsutil. With an empty
// name the lowest-indexed interface that is not loopback and has a non-zero
// hardware address is used.
func InterfaceMAC(name string) MACSource {
	return func(ctx context.Context) (net.HardwareAddr, error) {
		ifaces, err := psnet.InterfacesWithContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list interfaces: %w", ErrNoMACAddress, err)
		}

		return selectWANAddress(ifaces, name)
	}
}

func selectWANAddress(ifaces psnet.InterfaceStatList, name string) (net.HardwareAddr, error) {
	sorted := slices.Clone(ifaces)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	for _, iface := range sorted {
		if name != "" && iface.Name != name {
			continue
		}

		if name == "" && slices.Contains(iface.Flags, "loopback") {
			continue
		}

		if iface.HardwareAddr == "" {
			continue
		}

		mac, err := net.ParseMAC(iface.HardwareAddr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s has unparsable address %q: %w", ErrNoMACAddress, iface.Name, iface.HardwareAddr, err)
		}

		if bytes.Equal(mac, make(net.HardwareAddr, len(mac))) {
			continue
		}

		return mac, nil
	}

	if name != "" {
		return nil, fmt.Errorf("%w: interface %q not found or has no address", ErrNoMACAddress, name)
	}

	return nil, ErrNoMACAddress
}
