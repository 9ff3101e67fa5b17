package elements

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ExpiryFunc extracts a token's expiry time.
type ExpiryFunc func(token string) (time.Time, error)

const (
	defaultRefreshInterval = time.Minute
	defaultRefreshLeeway   = 2 * time.Minute
)

// RefresherOptions configures a TokenRefresher.
type RefresherOptions struct {
	Source      TokenSource
	Runtime     AuthTokenSetter
	Credentials TokenReader
	Expiry      ExpiryFunc
	Interval    time.Duration
	Leeway      time.Duration
	Notifier    Notifier
	Logger      *zerolog.Logger
}

// TokenRefresher periodically replaces the runtime token before it expires.
type TokenRefresher struct {
	source      TokenSource
	runtime     AuthTokenSetter
	credentials TokenReader
	expiry      ExpiryFunc
	interval    time.Duration
	leeway      time.Duration
	notifier    Notifier
	log         zerolog.Logger
	now         func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewTokenRefresher validates options and builds a stopped refresher.
func NewTokenRefresher(opts RefresherOptions) (*TokenRefresher, error) {
	if opts.Source == nil {
		return nil, errors.New("elements: refresher requires a token source")
	}
	if opts.Runtime == nil || opts.Credentials == nil {
		return nil, errors.New("elements: refresher requires a runtime and credentials")
	}
	if opts.Expiry == nil {
		return nil, errors.New("elements: refresher requires an expiry func")
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	leeway := opts.Leeway
	if leeway <= 0 {
		leeway = defaultRefreshLeeway
	}
	return &TokenRefresher{
		source:      opts.Source,
		runtime:     opts.Runtime,
		credentials: opts.Credentials,
		expiry:      opts.Expiry,
		interval:    interval,
		leeway:      leeway,
		notifier:    opts.Notifier,
		log:         log.With().Str("component", "token_refresher").Logger(),
		now:         time.Now,
	}, nil
}

// Start schedules the periodic check.
func (r *TokenRefresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc("@every "+r.interval.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.interval)
		defer cancel()
		if _, err := r.Check(ctx); err != nil {
			r.log.Warn().Err(err).Msg("token refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("elements: schedule token refresh: %w", err)
	}
	c.Start()
	r.cron = c
	r.running = true
	r.log.Info().Dur("interval", r.interval).Dur("leeway", r.leeway).Msg("token refresher started")
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (r *TokenRefresher) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.running = false
	r.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	r.log.Info().Msg("token refresher stopped")
}

// Check refreshes the token when it is missing or expires within the leeway.
// It reports whether a new token was registered.
func (r *TokenRefresher) Check(ctx context.Context) (bool, error) {
	current, ok := r.credentials.Token()
	if ok {
		exp, err := r.expiry(current)
		if err == nil && exp.Sub(r.now()) > r.leeway {
			return false, nil
		}
		if err != nil {
			r.log.Debug().Err(err).Msg("token expiry unreadable, refreshing")
		}
	}
	token, err := r.source.UserToken(ctx)
	if err == nil && token == "" {
		err = ErrEmptyToken
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		if r.notifier != nil {
			r.notifier.Notify(ctx, errorNotification(TokenFailureTitle, TokenFailureMessage, err))
		}
		return false, fmt.Errorf("elements: refresh token: %w", err)
	}
	r.runtime.SetAuthToken(token)
	r.log.Info().Msg("authorization token refreshed")
	return true, nil
}
