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

// Package reboot keeps the persisted reboot markers: the scheduler records why
// the next restart happens, and the tracker captures and clears those markers
// once per boot, detecting firmware updates along the way.
package reboot

import (
	"context"
	"time"
)

const (
	PathCause               = "Internal.Reboot.Cause"
	PathCommandKey          = "Internal.Reboot.CommandKey"
	PathRequestInstance     = "Internal.Reboot.RequestInstance"
	PathLastSoftwareVersion = "Internal.Reboot.LastSoftwareVersion"

	// LocalRebootCause is reported for any restart nobody scheduled.
	LocalRebootCause = "LocalReboot"
	// RemoteRebootCause and RemoteFactoryResetCause are recorded by the
	// Device.Reboot() and Device.FactoryReset() operations.
	RemoteRebootCause       = "RemoteReboot"
	RemoteFactoryResetCause = "RemoteFactoryReset"

	// NoRequestInstance marks a restart not tied to a request table entry.
	NoRequestInstance = -1
)

// ExitAction is what the agent does when it exits.
type ExitAction int32

const (
	ExitActionExit ExitAction = iota
	ExitActionReboot
	ExitActionFactoryReset
)

func (a ExitAction) String() string {
	switch a {
	case ExitActionExit:
		return "exit"
	case ExitActionReboot:
		return "reboot"
	case ExitActionFactoryReset:
		return "factory_reset"
	default:
		return "unknown"
	}
}

// Info describes the boot cycle in progress.
type Info struct {
	Cause               string
	CommandKey          string
	RequestInstance     int
	CurSoftwareVersion  string
	LastSoftwareVersion string
	IsFirmwareUpdated   bool
	BootID              string
	CapturedAt          time.Time
}

// Params is the slice of the parameter store the reboot markers live in.
type Params interface {
	Get(ctx context.Context, path string) (string, error)
	Set(ctx context.Context, path, value string) error
	GetInt(ctx context.Context, path string) (int, error)
	SetInt(ctx context.Context, path string, value int) error
}
