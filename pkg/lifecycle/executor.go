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
	"fmt"
	"os/exec"
	"time"

	"github.com/carverauto/localagent/pkg/logger"
	"github.com/carverauto/localagent/pkg/reboot"
)

var errUnknownExitAction = errors.New("unknown exit action")

// ExitConfig selects how a scheduled reboot or factory reset is carried out.
// An empty RebootCommand leaves the restart to the process supervisor.
type ExitConfig struct {
	RebootCommand       []string        `json:"reboot_command"`
	FactoryResetCommand []string        `json:"factory_reset_command,omitempty"`
	DrainTimeout        logger.Duration `json:"drain_timeout"`
}

// DefaultExitConfig reboots the host with /sbin/reboot.
func DefaultExitConfig() ExitConfig {
	return ExitConfig{
		RebootCommand: []string{"/sbin/reboot"},
		DrainTimeout:  logger.Duration(DefaultDrainTimeout),
	}
}

//go:generate mockgen -destination=mock_lifecycle.go -package=lifecycle github.com/carverauto/localagent/pkg/lifecycle Resetter

// Resetter wipes persisted configuration back to defaults.
type Resetter interface {
	ResetToDefaults(ctx context.Context) error
}

// Executor carries out the exit action chosen by the reboot scheduler.
type Executor struct {
	cfg    ExitConfig
	reset  Resetter
	logger logger.Logger
	run    func(ctx context.Context, argv []string) error
	sync   func()
}

func NewExecutor(cfg ExitConfig, reset Resetter, log logger.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		reset:  reset,
		logger: log,
		run:    runCommand,
		sync:   syncFilesystems,
	}
}

// Execute performs action. ExitActionExit does nothing; the caller exits.
func (e *Executor) Execute(ctx context.Context, action reboot.ExitAction) error {
	switch action {
	case reboot.ExitActionExit:
		e.logger.Info().Msg("Agent exiting")

		return nil
	case reboot.ExitActionReboot:
		return e.restart(ctx, e.cfg.RebootCommand)
	case reboot.ExitActionFactoryReset:
		if err := e.reset.ResetToDefaults(ctx); err != nil {
			return fmt.Errorf("factory reset: %w", err)
		}

		argv := e.cfg.FactoryResetCommand
		if len(argv) == 0 {
			argv = e.cfg.RebootCommand
		}

		return e.restart(ctx, argv)
	default:
		return fmt.Errorf("%w: %d", errUnknownExitAction, action)
	}
}

func (e *Executor) restart(ctx context.Context, argv []string) error {
	e.sync()

	if len(argv) == 0 {
		e.logger.Info().Msg("No reboot command configured, leaving restart to the supervisor")

		return nil
	}

	e.logger.Info().Strs("command", argv).Msg("Rebooting")

	if err := e.run(ctx, argv); err != nil {
		return fmt.Errorf("reboot command %q: %w", argv[0], err)
	}

	return nil
}

const commandTimeout = 30 * time.Second

func runCommand(ctx context.Context, argv []string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	//nolint:gosec // argv comes from the agent's own configuration
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, out)
	}

	return nil
}
