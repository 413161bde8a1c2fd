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
	"sync/atomic"

	"github.com/carverauto/localagent/pkg/logger"
)

//go:generate mockgen -destination=mock_reboot.go -package=reboot github.com/carverauto/localagent/pkg/reboot ExitSignaler

// ExitSignaler arranges for the agent to exit once in-flight work is done.
type ExitSignaler interface {
	ScheduleExit()
}

// Scheduler records the reason for an upcoming restart and asks the agent to
// exit. The requested ExitAction is readable from any goroutine.
type Scheduler struct {
	params Params
	exit   ExitSignaler
	action atomic.Int32
	logger logger.Logger
}

func NewScheduler(params Params, exit ExitSignaler, log logger.Logger) *Scheduler {
	return &Scheduler{
		params: params,
		exit:   exit,
		logger: log,
	}
}

// Schedule persists cause, command key and request instance in that order,
// then sets the exit action and signals exit. The first failed write aborts
// the call; markers already written are left in place. A later call
// overwrites an earlier one.
func (s *Scheduler) Schedule(ctx context.Context, action ExitAction, cause, commandKey string, requestInstance int) error {
	if action < ExitActionExit || action > ExitActionFactoryReset {
		return fmt.Errorf("%w: %w: %d", ErrSchedule, errUnknownAction, action)
	}

	if err := s.params.Set(ctx, PathCause, cause); err != nil {
		return fmt.Errorf("%w: cause: %w", ErrSchedule, err)
	}

	if err := s.params.Set(ctx, PathCommandKey, commandKey); err != nil {
		return fmt.Errorf("%w: command key: %w", ErrSchedule, err)
	}

	if err := s.params.SetInt(ctx, PathRequestInstance, requestInstance); err != nil {
		return fmt.Errorf("%w: request instance: %w", ErrSchedule, err)
	}

	s.action.Store(int32(action))

	s.logger.Info().
		Str("action", action.String()).
		Str("cause", cause).
		Str("command_key", commandKey).
		Int("request_instance", requestInstance).
		Msg("Scheduled agent exit")

	s.exit.ScheduleExit()

	return nil
}

// ExitAction returns the most recently scheduled action, ExitActionExit if none.
func (s *Scheduler) ExitAction() ExitAction {
	return ExitAction(s.action.Load())
}
