package elements

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Notification copy raised when the portfolio cannot be resolved or the
// element cannot be mounted with it.
const (
	PortfolioFailureTitle   = "Matter Elements"
	PortfolioFailureMessage = "Cannot resolve portfolio for Matter Elements"
	MountFailureMessage     = "Cannot display Matter Elements widget"
)

var errMissingTokenSource = errors.New("elements: token source not configured")

// RefreshOptions enables the background token refresher.
type RefreshOptions struct {
	Enabled  bool
	Interval time.Duration
	Leeway   time.Duration
}

// Options configures the elements Service. Collaborators are interfaces so
// hosts can swap the runtime, token source or portfolio supplier.
type Options struct {
	Runtime       Runtime
	Credentials   TokenReader
	TokenSource   TokenSource
	Portfolio     PortfolioSupplier
	Validator     PortfolioValidator
	Notifier      Notifier
	LifecycleHook LifecycleHook
	Telemetry     Telemetry
	Logger        *zerolog.Logger
	Impact        ImpactType
	WidgetOptions *WidgetOptions
	Container     *Container
	TokenExpiry   ExpiryFunc
	Refresh       RefreshOptions
}

// Status summarizes the integration for status endpoints.
type Status struct {
	State            MountState `json:"state"`
	Impact           ImpactType `json:"impact"`
	ContainerID      string     `json:"container_id,omitempty"`
	InstanceID       string     `json:"instance_id,omitempty"`
	Authorized       bool       `json:"authorized"`
	TokenExpiresAt   *time.Time `json:"token_expires_at,omitempty"`
	PortfolioEntries int        `json:"portfolio_entries"`
	PortfolioHash    string     `json:"portfolio_hash,omitempty"`
}

// Service wires token provisioning and portfolio resolution into a mount
// controller.
type Service struct {
	opts        Options
	log         zerolog.Logger
	credentials TokenReader
	provisioner *TokenProvisioner
	controller  *MountController
	refresher   *TokenRefresher

	mu        sync.RWMutex
	container *Container
	portfolio *PortfolioQuery
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) (*Service, error) {
	if opts.TokenSource == nil {
		return nil, errMissingTokenSource
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if opts.Impact == "" {
		opts.Impact = ImpactCO2
	}
	if !opts.Impact.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidImpact, opts.Impact)
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if err := opts.Validator.ValidateOptions(opts.WidgetOptions); err != nil {
		return nil, err
	}
	if opts.Runtime == nil {
		opts.Runtime = NewEmbedRuntime(nil)
	}
	if opts.Portfolio == nil {
		opts.Portfolio = NewStaticPortfolioSupplier(SamplePortfolio())
	}
	if opts.Notifier == nil {
		opts.Notifier = NewLogNotifier(log)
	}
	opts.Telemetry = NormalizeTelemetry(opts.Telemetry)

	setter := AuthTokenSetter(opts.Runtime)
	credentials := opts.Credentials
	if credentials == nil {
		if reader, ok := opts.Runtime.(TokenReader); ok {
			credentials = reader
		} else {
			tracked := &trackingSetter{next: opts.Runtime, slot: NewCredentialSlot()}
			setter = tracked
			credentials = tracked.slot
		}
	}

	svc := &Service{
		opts:        opts,
		log:         log.With().Str("component", "elements").Logger(),
		credentials: credentials,
		provisioner: NewTokenProvisioner(ProvisionerOptions{
			Source:    opts.TokenSource,
			Runtime:   setter,
			Notifier:  opts.Notifier,
			Telemetry: opts.Telemetry,
			Logger:    &log,
		}),
		controller: NewMountController(MountOptions{
			Runtime:   opts.Runtime,
			Impact:    opts.Impact,
			Options:   opts.WidgetOptions,
			Hook:      opts.LifecycleHook,
			Telemetry: opts.Telemetry,
			Logger:    &log,
		}),
	}

	if opts.Refresh.Enabled {
		refresher, err := NewTokenRefresher(RefresherOptions{
			Source:      opts.TokenSource,
			Runtime:     setter,
			Credentials: credentials,
			Expiry:      opts.TokenExpiry,
			Interval:    opts.Refresh.Interval,
			Leeway:      opts.Refresh.Leeway,
			Notifier:    opts.Notifier,
			Logger:      &log,
		})
		if err != nil {
			return nil, err
		}
		svc.refresher = refresher
	}
	return svc, nil
}

// Start attaches the configured container, then provisions the token and
// resolves the portfolio concurrently. It returns once both have settled.
// Failures are surfaced through the notifier and returned joined; none of
// them is fatal to the page.
func (s *Service) Start(ctx context.Context) error {
	if s.opts.Container != nil {
		if err := s.AttachContainer(ctx, s.opts.Container); err != nil {
			return err
		}
	}

	var (
		wg       sync.WaitGroup
		tokenErr error
		portErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		tokenErr = s.ProvisionToken(ctx)
	}()
	go func() {
		defer wg.Done()
		portErr = s.resolvePortfolio(ctx)
	}()
	wg.Wait()

	if s.refresher != nil && tokenErr == nil {
		if err := s.refresher.Start(); err != nil {
			s.log.Warn().Err(err).Msg("token refresher not started")
		}
	}
	return errors.Join(tokenErr, portErr)
}

// ProvisionToken fetches the user token once and registers it with the runtime.
func (s *Service) ProvisionToken(ctx context.Context) error {
	return s.provisioner.Provision(ctx)
}

func (s *Service) resolvePortfolio(ctx context.Context) error {
	q, err := s.opts.Portfolio.Portfolio(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = s.opts.Validator.ValidatePortfolio(q)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("portfolio resolution failed")
		s.opts.Telemetry.Record(ctx, "elements.portfolio.failed", map[string]any{"error": err.Error()})
		s.opts.Notifier.Notify(ctx, errorNotification(PortfolioFailureTitle, PortfolioFailureMessage, err))
		return err
	}
	return s.setPortfolio(ctx, q)
}

// UpdatePortfolio validates q and re-mounts the element with it.
func (s *Service) UpdatePortfolio(ctx context.Context, q PortfolioQuery) error {
	if err := s.opts.Validator.ValidatePortfolio(q); err != nil {
		return err
	}
	return s.setPortfolio(ctx, q)
}

func (s *Service) setPortfolio(ctx context.Context, q PortfolioQuery) error {
	cloned := q.Clone()
	err := s.controller.SetPortfolio(ctx, &cloned)
	if errors.Is(err, ErrControllerClosed) {
		return err
	}
	// The controller keeps the portfolio even when mounting fails.
	s.mu.Lock()
	s.portfolio = &cloned
	s.mu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Msg("element mount failed")
		s.opts.Telemetry.Record(ctx, "elements.mount.failed", map[string]any{"error": err.Error()})
		s.opts.Notifier.Notify(ctx, errorNotification(PortfolioFailureTitle, MountFailureMessage, err))
		return err
	}
	s.opts.Telemetry.Record(ctx, "elements.portfolio.resolved", map[string]any{
		"entries": len(cloned.IDs),
		"hash":    cloned.Hash(),
	})
	return nil
}

// AttachContainer makes c the element's host.
func (s *Service) AttachContainer(ctx context.Context, c *Container) error {
	if c == nil {
		return errors.New("elements: container is required")
	}
	if err := s.controller.SetContainer(ctx, c); err != nil {
		return err
	}
	s.mu.Lock()
	s.container = c
	s.mu.Unlock()
	return nil
}

// DetachContainer unmounts the element and clears the container.
func (s *Service) DetachContainer(ctx context.Context) error {
	if err := s.controller.SetContainer(ctx, nil); err != nil {
		return err
	}
	s.mu.Lock()
	s.container = nil
	s.mu.Unlock()
	return nil
}

// Stop halts the refresher and unmounts the element.
func (s *Service) Stop(ctx context.Context) error {
	if s.refresher != nil {
		s.refresher.Stop()
	}
	return s.controller.Close(ctx)
}

// Status reports the current mount and authorization state.
func (s *Service) Status() Status {
	snap := s.controller.Snapshot()
	status := Status{
		State:         snap.State,
		Impact:        s.opts.Impact,
		ContainerID:   snap.ContainerID,
		InstanceID:    snap.InstanceID,
		PortfolioHash: snap.PortfolioHash,
	}
	if token, ok := s.credentials.Token(); ok {
		status.Authorized = true
		if s.opts.TokenExpiry != nil {
			if exp, err := s.opts.TokenExpiry(token); err == nil {
				status.TokenExpiresAt = &exp
			}
		}
	}
	if q, ok := s.Portfolio(); ok {
		status.PortfolioEntries = len(q.IDs)
	}
	return status
}

// Container returns the attached container, or nil.
func (s *Service) Container() *Container {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.container
}

// Portfolio returns a copy of the last accepted portfolio.
func (s *Service) Portfolio() (PortfolioQuery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.portfolio == nil {
		return PortfolioQuery{}, false
	}
	return s.portfolio.Clone(), true
}

// AuthToken returns the token registered with the runtime, if any.
func (s *Service) AuthToken() (string, bool) {
	return s.credentials.Token()
}

// Impact returns the configured impact type.
func (s *Service) Impact() ImpactType {
	return s.opts.Impact
}

type trackingSetter struct {
	next AuthTokenSetter
	slot *CredentialSlot
}

func (t *trackingSetter) SetAuthToken(token string) {
	t.next.SetAuthToken(token)
	t.slot.Set(token)
}
