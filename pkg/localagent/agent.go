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

// Package localagent is the device's local agent core: it registers the
// agent's own parameters and operations, resolves the device identity,
// captures the boot cycle and schedules remote reboots and factory resets.
package localagent

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/carverauto/localagent/pkg/datamodel"
	"github.com/carverauto/localagent/pkg/dualstack"
	"github.com/carverauto/localagent/pkg/identity"
	"github.com/carverauto/localagent/pkg/logger"
	"github.com/carverauto/localagent/pkg/reboot"
	"github.com/carverauto/localagent/pkg/vendor"
	"github.com/carverauto/localagent/pkg/version"
)

const (
	PathUpTime                = "Device.LocalAgent.UpTime"
	PathSupportedProtocols    = "Device.LocalAgent.SupportedProtocols"
	PathAgentSoftwareVersion  = "Device.LocalAgent.SoftwareVersion"
	PathReboot                = "Device.Reboot()"
	PathFactoryReset          = "Device.FactoryReset()"
	PathDeviceSoftwareVersion = "Device.DeviceInfo.SoftwareVersion"
	PathProductClass          = "Device.DeviceInfo.ProductClass"
	PathManufacturer          = "Device.DeviceInfo.Manufacturer"
	PathModelName             = "Device.DeviceInfo.ModelName"
	PathHardwareVersion       = "Device.DeviceInfo.HardwareVersion"
	PathCurrentLocalTime      = "Device.Time.CurrentLocalTime"
)

// InFlightTracker is implemented by exit signalers that hold a scheduled
// exit back until running operations finish.
type InFlightTracker interface {
	Begin() (done func())
}

type registration struct {
	path string
	err  func() error
}

// Agent owns the local agent's parameters and boot-time state.
type Agent struct {
	cfg    *Config
	params *datamodel.Store
	hooks  vendor.Hooks
	logger logger.Logger

	scheduler *reboot.Scheduler
	tracker   *reboot.Tracker
	dualStack *dualstack.Cache
	inflight  InFlightTracker

	resolverOpts []identity.Option
	uptime       func(ctx context.Context) (uint64, error)
	now          func() time.Time

	initialized bool
	identity    identity.Holder
	startUptime atomic.Uint64
	rebootInfo  atomic.Pointer[reboot.Info]
}

// Option customizes an Agent.
type Option func(*Agent)

// WithResolverOptions passes options through to the identity resolver.
func WithResolverOptions(opts ...identity.Option) Option {
	return func(a *Agent) {
		a.resolverOpts = append(a.resolverOpts, opts...)
	}
}

// WithUptimeSource replaces the host uptime reader, in seconds.
func WithUptimeSource(uptime func(ctx context.Context) (uint64, error)) Option {
	return func(a *Agent) {
		a.uptime = uptime
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

// New creates an agent. exits is signaled when a reboot or factory reset
// has been scheduled.
func New(cfg *Config, params *datamodel.Store, hooks vendor.Hooks, exits reboot.ExitSignaler, log logger.Logger, opts ...Option) *Agent {
	if hooks == nil {
		hooks = vendor.UnimplementedHooks{}
	}

	a := &Agent{
		cfg:       cfg,
		params:    params,
		hooks:     hooks,
		logger:    log,
		scheduler: reboot.NewScheduler(params, exits, log),
		dualStack: dualstack.NewCache(log),
		uptime:    host.UptimeWithContext,
		now:       time.Now,
	}

	a.tracker = reboot.NewTracker(params, a.activeSoftwareVersion, log)

	if t, ok := exits.(InFlightTracker); ok {
		a.inflight = t
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init registers every parameter and operation the agent core implements.
// The identity parameters are registered with empty defaults that
// SetDefaults fills in. The reboot markers survive a factory reset so that
// the following boot reports it; the last software version does not.
func (a *Agent) Init() error {
	p := a.params

	steps := []registration{
		{PathUpTime, func() error { return p.RegisterVendorParam(PathUpTime, datamodel.TypeUInt, a.getUpTime) }},
		{PathSupportedProtocols, func() error {
			return p.RegisterConstant(PathSupportedProtocols, version.SupportedProtocols, datamodel.TypeString)
		}},
		{PathAgentSoftwareVersion, func() error {
			return p.RegisterConstant(PathAgentSoftwareVersion, version.GetVersion(), datamodel.TypeString)
		}},
		{PathReboot, func() error { return p.RegisterOperation(PathReboot, a.scheduleReboot) }},
		{PathFactoryReset, func() error { return p.RegisterOperation(PathFactoryReset, a.scheduleFactoryReset) }},
		{reboot.PathCause, func() error {
			return p.RegisterDBParam(reboot.PathCause, reboot.LocalRebootCause, datamodel.TypeString, datamodel.WithPreserveOnReset())
		}},
		{reboot.PathCommandKey, func() error {
			return p.RegisterDBParam(reboot.PathCommandKey, "", datamodel.TypeString, datamodel.WithPreserveOnReset())
		}},
		{reboot.PathRequestInstance, func() error {
			return p.RegisterDBParam(reboot.PathRequestInstance, strconv.Itoa(reboot.NoRequestInstance), datamodel.TypeInt,
				datamodel.WithPreserveOnReset())
		}},
		{reboot.PathLastSoftwareVersion, func() error {
			return p.RegisterDBParam(reboot.PathLastSoftwareVersion, "", datamodel.TypeString)
		}},
	}

	if a.cfg.DeviceInfo.Enabled {
		steps = append(steps, []registration{
			{PathDeviceSoftwareVersion, func() error {
				return p.RegisterVendorParam(PathDeviceSoftwareVersion, datamodel.TypeString, a.activeSoftwareVersion)
			}},
			{PathProductClass, func() error {
				return p.RegisterConstant(PathProductClass, version.ProductClass(), datamodel.TypeString)
			}},
			{PathManufacturer, func() error {
				return p.RegisterConstant(PathManufacturer, version.Manufacturer(), datamodel.TypeString)
			}},
			{PathModelName, func() error { return p.RegisterConstant(PathModelName, version.ModelName(), datamodel.TypeString) }},
			{PathHardwareVersion, func() error {
				return p.RegisterVendorParam(PathHardwareVersion, datamodel.TypeString, a.hardwareVersion)
			}},
			{identity.PathManufacturerOUI, func() error {
				return p.RegisterDBParam(identity.PathManufacturerOUI, "", datamodel.TypeString)
			}},
			{identity.PathSerialNumber, func() error {
				return p.RegisterDBParam(identity.PathSerialNumber, "", datamodel.TypeString)
			}},
		}...)
	}

	steps = append(steps, []registration{
		{identity.PathEndpointID, func() error { return p.RegisterDBParam(identity.PathEndpointID, "", datamodel.TypeString) }},
		{PathCurrentLocalTime, func() error {
			return p.RegisterVendorParam(PathCurrentLocalTime, datamodel.TypeDateTime, a.getCurrentLocalTime)
		}},
		{dualstack.Path, func() error { return a.dualStack.Register(p) }},
	}...)

	for _, step := range steps {
		if err := step.err(); err != nil {
			return fmt.Errorf("register %s: %w", step.path, err)
		}
	}

	a.initialized = true

	a.logger.Debug().
		Int("registrations", len(steps)).
		Bool("device_info", a.cfg.DeviceInfo.Enabled).
		Msg("Registered local agent parameters")

	return nil
}

// SetDefaults resolves the device identity, seeds it into the parameter
// store and publishes it. It runs after vendor hooks are in place and after
// any factory reset.
func (a *Agent) SetDefaults(ctx context.Context) error {
	if !a.initialized {
		return errNotInitialized
	}

	opts := append([]identity.Option{identity.WithMACSource(identity.InterfaceMAC(a.cfg.WANInterface))}, a.resolverOpts...)
	resolver := identity.NewResolver(a.params, a.hooks, a.cfg.DeviceInfo.Enabled, a.logger, opts...)

	id, err := resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	return a.identity.Publish(id)
}

// Start captures the boot cycle and primes the dual-stack cache. It must run
// before the agent accepts requests that could schedule a reboot.
func (a *Agent) Start(ctx context.Context) error {
	if _, ok := a.identity.Load(); !ok {
		return errNoIdentity
	}

	up, err := a.uptime(ctx)
	if err != nil {
		return fmt.Errorf("read host uptime: %w", err)
	}

	a.startUptime.Store(up)

	info, err := a.tracker.Capture(ctx)
	if err != nil {
		return err
	}

	a.rebootInfo.Store(info)

	if err := a.dualStack.Load(ctx, a.params); err != nil {
		return err
	}

	a.logger.Info().
		Str("endpoint_id", a.EndpointID()).
		Str("version", version.GetFullVersion()).
		Bool("prefer_ipv6", a.PreferIPv6()).
		Msg("Local agent started")

	return nil
}

// Stop logs the exit action that is about to be carried out.
func (a *Agent) Stop() {
	a.logger.Info().Str("exit_action", a.ExitAction().String()).Msg("Local agent stopping")
}

// Operate runs a registered operation. A scheduled exit waits for it.
func (a *Agent) Operate(ctx context.Context, path, commandKey string, input map[string]string) (map[string]string, error) {
	if a.inflight != nil {
		done := a.inflight.Begin()
		defer done()
	}

	return a.params.Operate(ctx, path, commandKey, input)
}

// Params exposes the parameter store.
func (a *Agent) Params() *datamodel.Store {
	return a.params
}

// EndpointID returns the published endpoint id, "" before SetDefaults.
func (a *Agent) EndpointID() string {
	return a.identity.EndpointID()
}

// Identity returns the published identity.
func (a *Agent) Identity() (identity.Identity, bool) {
	return a.identity.Load()
}

// RebootInfo returns a copy of the captured boot cycle; ok is false before Start.
func (a *Agent) RebootInfo() (info reboot.Info, ok bool) {
	p := a.rebootInfo.Load()
	if p == nil {
		return reboot.Info{}, false
	}

	return *p, true
}

// ExitAction returns what the agent should do when it exits.
func (a *Agent) ExitAction() reboot.ExitAction {
	return a.scheduler.ExitAction()
}

// PreferIPv6 reports the cached dual-stack preference.
func (a *Agent) PreferIPv6() bool {
	return a.dualStack.PreferIPv6()
}

func (a *Agent) scheduleReboot(ctx context.Context, commandKey string, _ map[string]string) (map[string]string, error) {
	err := a.scheduler.Schedule(ctx, reboot.ExitActionReboot, reboot.RemoteRebootCause, commandKey, reboot.NoRequestInstance)
	if err != nil {
		return nil, err
	}

	return map[string]string{}, nil
}

func (a *Agent) scheduleFactoryReset(ctx context.Context, commandKey string, _ map[string]string) (map[string]string, error) {
	err := a.scheduler.Schedule(ctx, reboot.ExitActionFactoryReset, reboot.RemoteFactoryResetCause, commandKey, reboot.NoRequestInstance)
	if err != nil {
		return nil, err
	}

	return map[string]string{}, nil
}

func (a *Agent) getUpTime(ctx context.Context) (string, error) {
	now, err := a.uptime(ctx)
	if err != nil {
		return "", err
	}

	start := a.startUptime.Load()
	if now < start {
		return "0", nil
	}

	return strconv.FormatUint(now-start, 10), nil
}

func (a *Agent) getCurrentLocalTime(context.Context) (string, error) {
	return a.now().Local().Format(time.RFC3339), nil
}

// activeSoftwareVersion is empty when no vendor hook provides it.
func (a *Agent) activeSoftwareVersion(ctx context.Context) (string, error) {
	v, _, err := vendor.Call(ctx, "active_software_version", a.hooks.ActiveSoftwareVersion)

	return v, err
}

func (a *Agent) hardwareVersion(ctx context.Context) (string, error) {
	v, _, err := vendor.Call(ctx, "hardware_version", a.hooks.HardwareVersion)

	return v, err
}
