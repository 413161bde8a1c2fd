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

package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/localagent/pkg/logger"
	"github.com/carverauto/localagent/pkg/reboot"
)

var errResetFailed = errors.New("reset failed")

func TestCreateComponentLogger(t *testing.T) {
	log, err := CreateComponentLogger(context.Background(), "localagent", &logger.Config{Level: "debug", Output: "stderr"})
	require.NoError(t, err)
	require.NotNil(t, log)

	_, err = CreateComponentLogger(context.Background(), "localagent", &logger.Config{Level: "loud"})
	require.Error(t, err)

	require.NoError(t, ShutdownLogger())
}

func TestExitSchedulerRunReturnsOnCancel(t *testing.T) {
	s := NewExitScheduler(time.Second, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scheduled, err := s.Run(ctx)
	require.NoError(t, err)
	assert.False(t, scheduled)
}

func TestExitSchedulerWaitsForInFlight(t *testing.T) {
	s := NewExitScheduler(5*time.Second, logger.NewTestLogger())

	done := s.Begin()
	s.ScheduleExit()
	s.ScheduleExit()

	result := make(chan bool, 1)

	go func() {
		scheduled, _ := s.Run(context.Background())
		result <- scheduled
	}()

	select {
	case <-result:
		t.Fatal("exit must wait for the in-flight operation")
	case <-time.After(50 * time.Millisecond):
	}

	done()
	done()

	select {
	case scheduled := <-result:
		assert.True(t, scheduled)
	case <-time.After(2 * time.Second):
		t.Fatal("exit did not proceed after the operation finished")
	}
}

func TestExitSchedulerDrainTimeout(t *testing.T) {
	s := NewExitScheduler(20*time.Millisecond, logger.NewTestLogger())

	_ = s.Begin()
	s.ScheduleExit()

	start := time.Now()
	scheduled, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, scheduled)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	select {
	case <-s.Requested():
	default:
		t.Fatal("Requested must be closed after ScheduleExit")
	}
}

type recorder struct {
	argv   [][]string
	synced int
}

func newTestExecutor(t *testing.T, cfg ExitConfig, reset Resetter) (*Executor, *recorder) {
	t.Helper()

	rec := &recorder{}
	e := NewExecutor(cfg, reset, logger.NewTestLogger())
	e.run = func(_ context.Context, argv []string) error {
		rec.argv = append(rec.argv, argv)
		return nil
	}
	e.sync = func() { rec.synced++ }

	return e, rec
}

func TestExecutorExitDoesNothing(t *testing.T) {
	e, rec := newTestExecutor(t, DefaultExitConfig(), nil)

	require.NoError(t, e.Execute(context.Background(), reboot.ExitActionExit))
	assert.Empty(t, rec.argv)
	assert.Zero(t, rec.synced)
}

func TestExecutorReboot(t *testing.T) {
	e, rec := newTestExecutor(t, DefaultExitConfig(), nil)

	require.NoError(t, e.Execute(context.Background(), reboot.ExitActionReboot))
	assert.Equal(t, [][]string{{"/sbin/reboot"}}, rec.argv)
	assert.Equal(t, 1, rec.synced)
}

func TestExecutorRebootWithoutCommand(t *testing.T) {
	e, rec := newTestExecutor(t, ExitConfig{}, nil)

	require.NoError(t, e.Execute(context.Background(), reboot.ExitActionReboot))
	assert.Empty(t, rec.argv)
	assert.Equal(t, 1, rec.synced)
}

func TestExecutorFactoryReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reset := NewMockResetter(ctrl)
	reset.EXPECT().ResetToDefaults(gomock.Any()).Return(nil)

	cfg := DefaultExitConfig()
	cfg.FactoryResetCommand = []string{"/usr/sbin/firstboot", "-y"}

	e, rec := newTestExecutor(t, cfg, reset)

	require.NoError(t, e.Execute(context.Background(), reboot.ExitActionFactoryReset))
	assert.Equal(t, [][]string{{"/usr/sbin/firstboot", "-y"}}, rec.argv)
}

func TestExecutorFactoryResetFailureSkipsReboot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reset := NewMockResetter(ctrl)
	reset.EXPECT().ResetToDefaults(gomock.Any()).Return(errResetFailed)

	e, rec := newTestExecutor(t, DefaultExitConfig(), reset)

	require.ErrorIs(t, e.Execute(context.Background(), reboot.ExitActionFactoryReset), errResetFailed)
	assert.Empty(t, rec.argv)
}

func TestExecutorUnknownAction(t *testing.T) {
	e, _ := newTestExecutor(t, DefaultExitConfig(), nil)

	require.ErrorIs(t, e.Execute(context.Background(), reboot.ExitAction(7)), errUnknownExitAction)
}

func TestRunCommandReportsOutput(t *testing.T) {
	err := runCommand(context.Background(), []string{"/bin/sh", "-c", "echo boom; exit 3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	require.NoError(t, runCommand(context.Background(), []string{"/bin/sh", "-c", "true"}))
}
