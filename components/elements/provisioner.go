package elements

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Notification copy raised when the token cannot be provisioned.
const (
	TokenFailureTitle   = "Matter Elements"
	TokenFailureMessage = "Cannot fetch authorization token for Matter Elements API"
)

// TokenSource fetches a short-lived user token from the provider.
type TokenSource interface {
	UserToken(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function into a TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// UserToken implements TokenSource.
func (f TokenSourceFunc) UserToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// ProvisionerOptions configures a TokenProvisioner.
type ProvisionerOptions struct {
	Source    TokenSource
	Runtime   AuthTokenSetter
	Notifier  Notifier
	Telemetry Telemetry
	Logger    *zerolog.Logger
}

// TokenProvisioner obtains the user token once and registers it with the runtime.
type TokenProvisioner struct {
	source    TokenSource
	runtime   AuthTokenSetter
	notifier  Notifier
	telemetry Telemetry
	log       zerolog.Logger

	once sync.Once
	err  error
}

// NewTokenProvisioner builds a provisioner. A nil notifier drops notifications.
func NewTokenProvisioner(opts ProvisionerOptions) *TokenProvisioner {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, Notification) {})
	}
	return &TokenProvisioner{
		source:    opts.Source,
		runtime:   opts.Runtime,
		notifier:  notifier,
		telemetry: NormalizeTelemetry(opts.Telemetry),
		log:       log.With().Str("component", "token_provisioner").Logger(),
	}
}

// Provision runs the fetch at most once per provisioner. On success the token
// is handed to the runtime exactly once; on failure the user is notified
// exactly once and the runtime is left untouched. A cancelled context
// discards the result silently.
func (p *TokenProvisioner) Provision(ctx context.Context) error {
	p.once.Do(func() {
		p.err = p.provision(ctx)
	})
	return p.err
}

func (p *TokenProvisioner) provision(ctx context.Context) error {
	token, err := p.source.UserToken(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		p.log.Debug().Err(ctxErr).Msg("token fetch abandoned")
		return ctxErr
	}
	if err == nil && strings.TrimSpace(token) == "" {
		err = ErrEmptyToken
	}
	if err != nil {
		p.log.Error().Err(err).Msg("token fetch failed")
		p.telemetry.Record(ctx, "elements.token.failed", map[string]any{"error": err.Error()})
		p.notifier.Notify(ctx, errorNotification(TokenFailureTitle, TokenFailureMessage, err))
		return err
	}
	p.runtime.SetAuthToken(token)
	p.log.Info().Msg("authorization token registered")
	p.telemetry.Record(ctx, "elements.token.provisioned", nil)
	return nil
}
