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
	"context"
	"fmt"
	"time"

	"github.com/carverauto/localagent/pkg/logger"
)

// VersionSource reports the software version currently running.
type VersionSource func(ctx context.Context) (string, error)

// Tracker captures the reboot markers left by the previous boot cycle.
type Tracker struct {
	params  Params
	current VersionSource
	bootID  func() string
	now     func() time.Time
	logger  logger.Logger
}

func NewTracker(params Params, current VersionSource, log logger.Logger) *Tracker {
	return &Tracker{
		params:  params,
		current: current,
		bootID:  BootID,
		now:     time.Now,
		logger:  log,
	}
}

// Capture reads each marker and puts it back to its default so that an
// unscheduled restart reports LocalReboot, then records the running version
// for the next boot. It must run once per boot, before anything can schedule
// a reboot.
//
// The writes are not transactional: if a later step fails, the markers reset
// by earlier steps stay reset.
func (t *Tracker) Capture(ctx context.Context) (*Info, error) {
	info := &Info{
		BootID:     t.bootID(),
		CapturedAt: t.now(),
	}

	cause, err := t.params.Get(ctx, PathCause)
	if err != nil {
		return nil, fmt.Errorf("%w: read cause: %w", ErrCapture, err)
	}

	info.Cause = cause

	if cause != LocalRebootCause {
		if err := t.params.Set(ctx, PathCause, LocalRebootCause); err != nil {
			return nil, fmt.Errorf("%w: reset cause: %w", ErrCapture, err)
		}

		t.logger.Debug().Str("previous", cause).Msg("Reset reboot cause")
	}

	commandKey, err := t.params.Get(ctx, PathCommandKey)
	if err != nil {
		return nil, fmt.Errorf("%w: read command key: %w", ErrCapture, err)
	}

	info.CommandKey = commandKey

	if commandKey != "" {
		if err := t.params.Set(ctx, PathCommandKey, ""); err != nil {
			return nil, fmt.Errorf("%w: reset command key: %w", ErrCapture, err)
		}

		t.logger.Debug().Str("previous", commandKey).Msg("Reset reboot command key")
	}

	instance, err := t.params.GetInt(ctx, PathRequestInstance)
	if err != nil {
		return nil, fmt.Errorf("%w: read request instance: %w", ErrCapture, err)
	}

	info.RequestInstance = instance

	if instance != NoRequestInstance {
		if err := t.params.SetInt(ctx, PathRequestInstance, NoRequestInstance); err != nil {
			return nil, fmt.Errorf("%w: reset request instance: %w", ErrCapture, err)
		}

		t.logger.Debug().Int("previous", instance).Msg("Reset reboot request instance")
	}

	if err := t.captureVersions(ctx, info); err != nil {
		return nil, err
	}

	t.logger.Info().
		Str("cause", info.Cause).
		Str("command_key", info.CommandKey).
		Int("request_instance", info.RequestInstance).
		Str("software_version", info.CurSoftwareVersion).
		Str("last_software_version", info.LastSoftwareVersion).
		Bool("firmware_updated", info.IsFirmwareUpdated).
		Str("boot_id", info.BootID).
		Msg("Captured boot cycle")

	return info, nil
}

// captureVersions compares the version persisted by the previous boot with
// the running one. The comparison does not depend on the reboot cause.
func (t *Tracker) captureVersions(ctx context.Context, info *Info) error {
	last, err := t.params.Get(ctx, PathLastSoftwareVersion)
	if err != nil {
		return fmt.Errorf("%w: read last software version: %w", ErrCapture, err)
	}

	current, err := t.current(ctx)
	if err != nil {
		return fmt.Errorf("%w: read current software version: %w", ErrCapture, err)
	}

	info.CurSoftwareVersion = current
	info.LastSoftwareVersion = last

	// First boot, or first boot after a factory reset.
	if last == "" {
		info.LastSoftwareVersion = current
	}

	info.IsFirmwareUpdated = last != "" && last != current

	if err := t.params.Set(ctx, PathLastSoftwareVersion, current); err != nil {
		return fmt.Errorf("%w: persist software version: %w", ErrCapture, err)
	}

	return nil
}
