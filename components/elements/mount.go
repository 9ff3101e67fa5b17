package elements

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// MountState is the observable state of a mount controller.
type MountState int

const (
	StateIdle MountState = iota
	StateMounted
	StateUnmounting
)

func (s MountState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMounted:
		return "mounted"
	case StateUnmounting:
		return "unmounting"
	default:
		return fmt.Sprintf("MountState(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON payloads.
func (s MountState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MountOptions configures a MountController.
type MountOptions struct {
	Runtime   Runtime
	Impact    ImpactType
	Options   *WidgetOptions
	Hook      LifecycleHook
	Telemetry Telemetry
	Logger    *zerolog.Logger
}

// MountSnapshot is a point-in-time view of the controller.
type MountSnapshot struct {
	State         MountState `json:"state"`
	ContainerID   string     `json:"container_id,omitempty"`
	InstanceID    string     `json:"instance_id,omitempty"`
	PortfolioHash string     `json:"portfolio_hash,omitempty"`
	Closed        bool       `json:"closed"`
}

// MountController keeps one element mounted while both a container and a
// portfolio are present. All transitions are serialized.
type MountController struct {
	runtime   Runtime
	impact    ImpactType
	options   *WidgetOptions
	hook      LifecycleHook
	telemetry Telemetry
	log       zerolog.Logger

	mu        sync.Mutex
	state     MountState
	container *Container
	portfolio *PortfolioQuery
	hash      string
	instance  Instance
	mountedIn *Container
	mountedAt string
	closed    bool
}

// NewMountController builds a controller in the Idle state.
func NewMountController(opts MountOptions) *MountController {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	impact := opts.Impact
	if impact == "" {
		impact = ImpactCO2
	}
	return &MountController{
		runtime:   opts.Runtime,
		impact:    impact,
		options:   opts.Options,
		hook:      opts.Hook,
		telemetry: NormalizeTelemetry(opts.Telemetry),
		log:       log.With().Str("component", "mount_controller").Logger(),
	}
}

// SetContainer updates the container input. Nil detaches.
func (m *MountController) SetContainer(ctx context.Context, container *Container) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrControllerClosed
	}
	m.container = container
	return m.reconcile(ctx, "container")
}

// SetPortfolio updates the portfolio input. Nil clears it. The query is
// copied, so later caller mutations have no effect.
func (m *MountController) SetPortfolio(ctx context.Context, portfolio *PortfolioQuery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrControllerClosed
	}
	if portfolio == nil {
		m.portfolio = nil
		m.hash = ""
	} else {
		cloned := portfolio.Clone()
		m.portfolio = &cloned
		m.hash = cloned.Hash()
	}
	return m.reconcile(ctx, "portfolio")
}

// Close unmounts any live element. Later setters return ErrControllerClosed.
func (m *MountController) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.unmount(ctx, "closed")
	m.container = nil
	m.portfolio = nil
	m.hash = ""
	return nil
}

// State returns the current state.
func (m *MountController) State() MountState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns the controller's current view.
func (m *MountController) Snapshot() MountSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MountSnapshot{
		State:         m.state,
		ContainerID:   m.container.ID(),
		PortfolioHash: m.hash,
		Closed:        m.closed,
	}
	if m.instance != nil {
		snap.InstanceID = m.instance.ID()
	}
	return snap
}

func (m *MountController) reconcile(ctx context.Context, reason string) error {
	ready := m.container != nil && m.portfolio != nil
	if m.state == StateMounted {
		if ready && m.mountedIn == m.container && m.mountedAt == m.hash {
			return nil
		}
		m.unmount(ctx, reason)
	}
	if !ready {
		return nil
	}
	return m.mount(ctx, reason)
}

func (m *MountController) mount(ctx context.Context, reason string) error {
	instance, err := m.runtime.SingleImpact(m.impact, *m.portfolio, m.options)
	if err != nil {
		m.log.Error().Err(err).Str("impact", string(m.impact)).Msg("element construction failed")
		return fmt.Errorf("elements: create %s element: %w", m.impact, err)
	}
	if err := instance.Render(m.container); err != nil {
		instance.Destroy()
		m.log.Error().Err(err).Str("container", m.container.ID()).Msg("element render failed")
		return fmt.Errorf("elements: render into %s: %w", m.container.ID(), err)
	}
	m.instance = instance
	m.mountedIn = m.container
	m.mountedAt = m.hash
	m.state = StateMounted
	m.log.Debug().Str("container", m.container.ID()).Str("instance", instance.ID()).Msg("element mounted")
	m.telemetry.Record(ctx, "elements.mount", map[string]any{
		"container": m.container.ID(),
		"instance":  instance.ID(),
		"impact":    string(m.impact),
	})
	m.emit(ctx, reason)
	return nil
}

func (m *MountController) unmount(ctx context.Context, reason string) {
	if m.instance == nil {
		m.state = StateIdle
		return
	}
	m.state = StateUnmounting
	m.emit(ctx, reason)
	instance := m.instance
	containerID := m.mountedIn.ID()
	instance.Destroy()
	m.instance = nil
	m.mountedIn = nil
	m.mountedAt = ""
	m.state = StateIdle
	m.log.Debug().Str("container", containerID).Str("instance", instance.ID()).Msg("element destroyed")
	m.telemetry.Record(ctx, "elements.unmount", map[string]any{
		"container": containerID,
		"instance":  instance.ID(),
		"reason":    reason,
	})
	m.emitEvent(ctx, LifecycleEvent{
		ContainerID: containerID,
		InstanceID:  instance.ID(),
		Impact:      m.impact,
		State:       StateIdle,
		Reason:      reason,
	})
}

func (m *MountController) emit(ctx context.Context, reason string) {
	event := LifecycleEvent{
		Impact: m.impact,
		State:  m.state,
		Reason: reason,
	}
	if m.mountedIn != nil {
		event.ContainerID = m.mountedIn.ID()
	}
	if m.instance != nil {
		event.InstanceID = m.instance.ID()
	}
	m.emitEvent(ctx, event)
}

func (m *MountController) emitEvent(ctx context.Context, event LifecycleEvent) {
	if m.hook == nil {
		return
	}
	if err := m.hook.ElementChanged(ctx, event); err != nil {
		m.log.Warn().Err(err).Str("state", event.State.String()).Msg("lifecycle hook failed")
	}
}
