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

// Package lifecycle holds the process-level plumbing of the agent binary:
// logger construction, the deferred exit that follows a scheduled reboot and
// the execution of that reboot or factory reset.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/carverauto/localagent/pkg/logger"
)

// CreateLogger creates a logger that can be injected into components. When
// OTel export is enabled, lines are written to both the configured output and
// the OTLP exporter.
func CreateLogger(ctx context.Context, config *logger.Config) (logger.Logger, error) {
	if config == nil {
		config = logger.DefaultConfig()
	}

	var output io.Writer = config.Writer()

	if config.OTel.Enabled {
		otelWriter, err := logger.NewOTELWriter(ctx, config.OTel)
		if err != nil && !errors.Is(err, logger.ErrOTelLoggingDisabled) {
			return nil, fmt.Errorf("failed to initialize OTel logging: %w", err)
		}

		if otelWriter != nil {
			output = logger.NewMultiWriter(output, otelWriter)
		}
	}

	zlog, err := config.Build(output)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger.New(zlog), nil
}

// CreateComponentLogger creates a logger tagged with the component name.
func CreateComponentLogger(ctx context.Context, component string, config *logger.Config) (logger.Logger, error) {
	base, err := CreateLogger(ctx, config)
	if err != nil {
		return nil, err
	}

	return logger.New(base.WithComponent(component)), nil
}

// ShutdownLogger flushes any pending OTel log records.
func ShutdownLogger() error {
	return logger.ShutdownOTEL()
}
