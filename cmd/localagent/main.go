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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/localagent/pkg/config"
	"github.com/carverauto/localagent/pkg/datamodel"
	"github.com/carverauto/localagent/pkg/kv"
	"github.com/carverauto/localagent/pkg/lifecycle"
	"github.com/carverauto/localagent/pkg/localagent"
	"github.com/carverauto/localagent/pkg/logger"
	"github.com/carverauto/localagent/pkg/version"
)

const defaultConfigBucket = "localagent-config"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/localagent/localagent.json", "Path to local agent config file")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Load config, from KV when CONFIG_SOURCE=kv
	cfgLoader := config.NewConfig(nil)

	configStore, err := openConfigStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open config KV store: %w", err)
	}

	if configStore != nil {
		defer func() { _ = configStore.Close() }()

		cfgLoader.SetKVStore(configStore)
	}

	cfg := localagent.DefaultConfig()
	if err := cfgLoader.LoadAndValidate(ctx, *configPath, cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Step 2: Create logger from loaded config
	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	agentLogger, err := lifecycle.CreateComponentLogger(ctx, "localagent", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(); err != nil {
			log.Printf("Failed to shutdown logger: %v", err)
		}
	}()

	if _, err := cfgLoader.Bootstrap(ctx, *configPath, cfg); err != nil {
		agentLogger.Warn().Err(err).Msg("Failed to seed configuration into KV")
	}

	// Step 3: Open the parameter store and bring the agent core up
	store, err := kv.NewStore(ctx, &cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open parameter store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			agentLogger.Error().Err(err).Msg("Failed to close parameter store")
		}
	}()

	params := datamodel.New(store, agentLogger)
	exits := lifecycle.NewExitScheduler(time.Duration(cfg.Exit.DrainTimeout), agentLogger)
	agent := localagent.New(cfg, params, cfg.Hooks(), exits, agentLogger)

	if err := agent.Init(); err != nil {
		return fmt.Errorf("failed to register parameters: %w", err)
	}

	if err := agent.SetDefaults(ctx); err != nil {
		return fmt.Errorf("failed to resolve device identity: %w", err)
	}

	if err := agent.Start(ctx); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}

	// Step 4: Run until a reboot is scheduled or we are told to stop
	scheduled, err := wait(ctx, cancel, exits, agentLogger)
	if err != nil {
		return err
	}

	agent.Stop()

	if !scheduled {
		return nil
	}

	executor := lifecycle.NewExecutor(cfg.Exit, params, agentLogger)

	return executor.Execute(context.Background(), agent.ExitAction())
}

func wait(ctx context.Context, cancel context.CancelFunc, exits *lifecycle.ExitScheduler, agentLogger logger.Logger) (bool, error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(sigCh)

	var scheduled bool

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()

		var err error

		scheduled, err = exits.Run(gctx)

		return err
	})

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			agentLogger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-gctx.Done():
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return false, err
	}

	return scheduled, nil
}

// openConfigStore connects to the NATS KV bucket holding configuration
// documents when CONFIG_SOURCE=kv.
func openConfigStore(ctx context.Context) (kv.KVStore, error) {
	if !strings.EqualFold(os.Getenv("CONFIG_SOURCE"), "kv") {
		return nil, nil
	}

	bucket := os.Getenv("CONFIG_KV_BUCKET")
	if bucket == "" {
		bucket = defaultConfigBucket
	}

	return kv.NewStore(ctx, &kv.Config{
		Backend: kv.BackendNATS,
		NATSURL: os.Getenv("CONFIG_KV_NATS_URL"),
		Bucket:  bucket,
		Domain:  os.Getenv("CONFIG_KV_DOMAIN"),
	})
}
