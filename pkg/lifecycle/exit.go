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
	"sync"
	"time"

	"github.com/carverauto/localagent/pkg/logger"
)

// DefaultDrainTimeout bounds how long a scheduled exit waits for in-flight
// operations.
const DefaultDrainTimeout = 5 * time.Second

// ExitScheduler defers process exit until the operations in progress when
// the exit was scheduled have finished, so that a Device.Reboot() caller
// still gets its response.
type ExitScheduler struct {
	requested    chan struct{}
	once         sync.Once
	drainTimeout time.Duration
	logger       logger.Logger

	mu      sync.Mutex
	active  int
	drained chan struct{}
}

func NewExitScheduler(drainTimeout time.Duration, log logger.Logger) *ExitScheduler {
	if drainTimeout <= 0 {
		drainTimeout = DefaultDrainTimeout
	}

	return &ExitScheduler{
		requested:    make(chan struct{}),
		drainTimeout: drainTimeout,
		logger:       log,
	}
}

// Begin marks an operation as in flight. The returned function ends it and
// is safe to call more than once.
func (s *ExitScheduler) Begin() (done func()) {
	s.mu.Lock()
	s.active++
	s.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(s.end)
	}
}

func (s *ExitScheduler) end() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active--

	if s.active == 0 && s.drained != nil {
		close(s.drained)
		s.drained = nil
	}
}

// ScheduleExit requests exit. Only the first call has an effect.
func (s *ExitScheduler) ScheduleExit() {
	s.once.Do(func() {
		s.logger.Info().Msg("Exit scheduled")
		close(s.requested)
	})
}

// Requested is closed once an exit has been scheduled.
func (s *ExitScheduler) Requested() <-chan struct{} {
	return s.requested
}

// Run blocks until an exit is scheduled or ctx is done. On a scheduled exit
// it waits up to the drain timeout for in-flight operations and reports
// scheduled as true.
func (s *ExitScheduler) Run(ctx context.Context) (scheduled bool, err error) {
	select {
	case <-ctx.Done():
		return false, nil
	case <-s.requested:
	}

	s.drain(ctx)

	return true, nil
}

func (s *ExitScheduler) drain(ctx context.Context) {
	s.mu.Lock()
	if s.active == 0 {
		s.mu.Unlock()
		return
	}

	ch := make(chan struct{})
	s.drained = ch
	active := s.active
	s.mu.Unlock()

	s.logger.Debug().Int("in_flight", active).Msg("Waiting for in-flight operations")

	timer := time.NewTimer(s.drainTimeout)
	defer timer.Stop()

	select {
	case <-ch:
	case <-timer.C:
		s.logger.Warn().Dur("timeout", s.drainTimeout).Msg("In-flight operations did not finish before exit")
	case <-ctx.Done():
	}
}
