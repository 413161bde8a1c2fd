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
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/localagent/pkg/datamodel"
	"github.com/carverauto/localagent/pkg/kv"
	"github.com/carverauto/localagent/pkg/logger"
)

var errBackendDown = errors.New("backend down")

// bootParams registers the reboot markers the way the agent does on every
// boot. Pass the same backend to model a restart.
func bootParams(t *testing.T, backend kv.KVStore) *datamodel.Store {
	t.Helper()

	store := datamodel.New(backend, logger.NewTestLogger())

	require.NoError(t, store.RegisterDBParam(PathCause, LocalRebootCause, datamodel.TypeString))
	require.NoError(t, store.RegisterDBParam(PathCommandKey, "", datamodel.TypeString))
	require.NoError(t, store.RegisterDBParam(PathRequestInstance, "-1", datamodel.TypeInt))
	require.NoError(t, store.RegisterDBParam(PathLastSoftwareVersion, "", datamodel.TypeString))

	return store
}

func newBackend(t *testing.T) kv.KVStore {
	t.Helper()

	backend, err := kv.NewMemDBStore()
	require.NoError(t, err)

	return backend
}

func running(v string) VersionSource {
	return func(context.Context) (string, error) { return v, nil }
}

func newTracker(params Params, current VersionSource) *Tracker {
	tr := NewTracker(params, current, logger.NewTestLogger())
	tr.bootID = func() string { return "boot-1" }
	tr.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	return tr
}

func TestCaptureFirstBoot(t *testing.T) {
	ctx := context.Background()
	params := bootParams(t, newBackend(t))

	info, err := newTracker(params, running("1.0")).Capture(ctx)
	require.NoError(t, err)

	assert.Equal(t, &Info{
		Cause:               LocalRebootCause,
		CommandKey:          "",
		RequestInstance:     NoRequestInstance,
		CurSoftwareVersion:  "1.0",
		LastSoftwareVersion: "1.0",
		IsFirmwareUpdated:   false,
		BootID:              "boot-1",
		CapturedAt:          time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}, info)

	last, err := params.Get(ctx, PathLastSoftwareVersion)
	require.NoError(t, err)
	assert.Equal(t, "1.0", last)
}

func TestScheduleRestartCaptureRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	backend := newBackend(t)

	exit := NewMockExitSignaler(ctrl)
	exit.EXPECT().ScheduleExit().Times(1)

	before := bootParams(t, backend)
	_, err := newTracker(before, running("1.0")).Capture(ctx)
	require.NoError(t, err)

	sched := NewScheduler(before, exit, logger.NewTestLogger())
	require.NoError(t, sched.Schedule(ctx, ExitActionReboot, RemoteRebootCause, "cmd-42", 7))
	assert.Equal(t, ExitActionReboot, sched.ExitAction())

	after := bootParams(t, backend)

	info, err := newTracker(after, running("1.0")).Capture(ctx)
	require.NoError(t, err)
	assert.Equal(t, RemoteRebootCause, info.Cause)
	assert.Equal(t, "cmd-42", info.CommandKey)
	assert.Equal(t, 7, info.RequestInstance)
	assert.False(t, info.IsFirmwareUpdated)

	// The markers were consumed; an unscheduled restart reports a local reboot.
	again := bootParams(t, backend)

	info, err = newTracker(again, running("1.0")).Capture(ctx)
	require.NoError(t, err)
	assert.Equal(t, LocalRebootCause, info.Cause)
	assert.Empty(t, info.CommandKey)
	assert.Equal(t, NoRequestInstance, info.RequestInstance)
}

func TestCaptureFirmwareUpdate(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	params := bootParams(t, backend)
	require.NoError(t, params.Set(ctx, PathLastSoftwareVersion, "1.0"))

	info, err := newTracker(params, running("2.0")).Capture(ctx)
	require.NoError(t, err)
	assert.True(t, info.IsFirmwareUpdated)
	assert.Equal(t, "1.0", info.LastSoftwareVersion)
	assert.Equal(t, "2.0", info.CurSoftwareVersion)

	info, err = newTracker(bootParams(t, backend), running("2.0")).Capture(ctx)
	require.NoError(t, err)
	assert.False(t, info.IsFirmwareUpdated)
	assert.Equal(t, "2.0", info.LastSoftwareVersion)
}

func TestCaptureFirmwareUpdateIndependentOfCause(t *testing.T) {
	for _, cause := range []string{LocalRebootCause, RemoteRebootCause, RemoteFactoryResetCause} {
		t.Run(cause, func(t *testing.T) {
			ctx := context.Background()
			params := bootParams(t, newBackend(t))

			require.NoError(t, params.Set(ctx, PathCause, cause))
			require.NoError(t, params.Set(ctx, PathLastSoftwareVersion, "1.0"))

			info, err := newTracker(params, running("1.1")).Capture(ctx)
			require.NoError(t, err)
			assert.Equal(t, cause, info.Cause)
			assert.True(t, info.IsFirmwareUpdated)
		})
	}
}

func TestCaptureAbortsOnStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	backend := kv.NewMockKVStore(ctrl)
	gomock.InOrder(
		backend.EXPECT().Get(gomock.Any(), PathCause).Return([]byte(RemoteRebootCause), true, nil),
		backend.EXPECT().Put(gomock.Any(), PathCause, []byte(LocalRebootCause)).Return(nil),
		backend.EXPECT().Get(gomock.Any(), PathCommandKey).Return(nil, false, errBackendDown),
	)

	info, err := newTracker(bootParams(t, backend), running("1.0")).Capture(context.Background())
	require.ErrorIs(t, err, ErrCapture)
	require.ErrorIs(t, err, datamodel.ErrStoreUnavailable)
	require.ErrorIs(t, err, errBackendDown)
	assert.Nil(t, info)
}

func TestCaptureAbortsOnVersionFailure(t *testing.T) {
	params := bootParams(t, newBackend(t))

	failing := func(context.Context) (string, error) { return "", errBackendDown }

	_, err := newTracker(params, failing).Capture(context.Background())
	require.ErrorIs(t, err, ErrCapture)
	require.ErrorIs(t, err, errBackendDown)

	last, err := params.Get(context.Background(), PathLastSoftwareVersion)
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestScheduleStopsAtFirstFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	backend := kv.NewMockKVStore(ctrl)
	gomock.InOrder(
		backend.EXPECT().Put(gomock.Any(), PathCause, []byte(RemoteFactoryResetCause)).Return(nil),
		backend.EXPECT().Put(gomock.Any(), PathCommandKey, []byte("key")).Return(errBackendDown),
	)

	// No ScheduleExit expectation: signaling would fail the test.
	exit := NewMockExitSignaler(ctrl)

	sched := NewScheduler(bootParams(t, backend), exit, logger.NewTestLogger())

	err := sched.Schedule(context.Background(), ExitActionFactoryReset, RemoteFactoryResetCause, "key", NoRequestInstance)
	require.ErrorIs(t, err, ErrSchedule)
	require.ErrorIs(t, err, datamodel.ErrStoreUnavailable)
	assert.Equal(t, ExitActionExit, sched.ExitAction())
}

func TestScheduleOverwrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	params := bootParams(t, newBackend(t))

	exit := NewMockExitSignaler(ctrl)
	exit.EXPECT().ScheduleExit().Times(2)

	sched := NewScheduler(params, exit, logger.NewTestLogger())
	require.NoError(t, sched.Schedule(ctx, ExitActionReboot, RemoteRebootCause, "first", 1))
	require.NoError(t, sched.Schedule(ctx, ExitActionFactoryReset, RemoteFactoryResetCause, "second", NoRequestInstance))

	assert.Equal(t, ExitActionFactoryReset, sched.ExitAction())

	key, err := params.Get(ctx, PathCommandKey)
	require.NoError(t, err)
	assert.Equal(t, "second", key)

	instance, err := params.GetInt(ctx, PathRequestInstance)
	require.NoError(t, err)
	assert.Equal(t, NoRequestInstance, instance)
}

func TestScheduleRejectsUnknownAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sched := NewScheduler(bootParams(t, newBackend(t)), NewMockExitSignaler(ctrl), logger.NewTestLogger())

	err := sched.Schedule(context.Background(), ExitAction(9), "x", "", NoRequestInstance)
	require.ErrorIs(t, err, ErrSchedule)
}

func TestExitActionString(t *testing.T) {
	assert.Equal(t, "exit", ExitActionExit.String())
	assert.Equal(t, "reboot", ExitActionReboot.String())
	assert.Equal(t, "factory_reset", ExitActionFactoryReset.String())
	assert.Equal(t, "unknown", ExitAction(42).String())
}

func TestBootID(t *testing.T) {
	orig := bootIDPath
	t.Cleanup(func() { bootIDPath = orig })

	dir := t.TempDir()

	bootIDPath = filepath.Join(dir, "boot_id")
	require.NoError(t, os.WriteFile(bootIDPath, []byte("0b4a6c1e-3d8f-4f61-9d1e-2f0c5e7a9b11\n"), 0o600))
	assert.Equal(t, "0b4a6c1e-3d8f-4f61-9d1e-2f0c5e7a9b11", BootID())

	bootIDPath = filepath.Join(dir, "missing")
	first := BootID()
	_, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.NotEqual(t, first, BootID())
}
