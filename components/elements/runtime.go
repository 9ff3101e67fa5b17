package elements

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuthTokenSetter registers a credential with the widget runtime.
type AuthTokenSetter interface {
	SetAuthToken(token string)
}

// Runtime is the surface of the hosted widget runtime consumed by this package.
// SingleImpact is synchronous and performs no network I/O.
type Runtime interface {
	AuthTokenSetter
	SingleImpact(impact ImpactType, portfolio PortfolioQuery, options *WidgetOptions) (Instance, error)
}

// Instance is a single element created by the runtime.
type Instance interface {
	ID() string
	Render(container *Container) error
	Destroy()
}

// TokenReader exposes the credential currently held by a runtime.
type TokenReader interface {
	Token() (string, bool)
}

// CredentialSlot is the runtime-wide authorization slot. It has a single
// writer (the provisioner or refresher) and is read lazily at page render.
type CredentialSlot struct {
	mu    sync.RWMutex
	token string
	setAt time.Time
}

// NewCredentialSlot returns an empty slot.
func NewCredentialSlot() *CredentialSlot {
	return &CredentialSlot{}
}

// Set stores the token.
func (s *CredentialSlot) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.setAt = time.Now().UTC()
}

// Token returns the stored token and whether one is present.
func (s *CredentialSlot) Token() (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// UpdatedAt returns when the token was last written.
func (s *CredentialSlot) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setAt
}

// EmbedRuntime renders elements as bootstrap descriptors that the page hands
// to the hosted browser runtime.
type EmbedRuntime struct {
	credentials *CredentialSlot
	newID       func() string
}

// NewEmbedRuntime builds a runtime around the given slot (a fresh one when nil).
func NewEmbedRuntime(credentials *CredentialSlot) *EmbedRuntime {
	if credentials == nil {
		credentials = NewCredentialSlot()
	}
	return &EmbedRuntime{
		credentials: credentials,
		newID:       uuid.NewString,
	}
}

// Credentials exposes the runtime's credential slot.
func (r *EmbedRuntime) Credentials() *CredentialSlot {
	return r.credentials
}

// SetAuthToken implements AuthTokenSetter.
func (r *EmbedRuntime) SetAuthToken(token string) {
	r.credentials.Set(token)
}

// Token implements TokenReader.
func (r *EmbedRuntime) Token() (string, bool) {
	return r.credentials.Token()
}

// SingleImpact creates a single impact element.
func (r *EmbedRuntime) SingleImpact(impact ImpactType, portfolio PortfolioQuery, options *WidgetOptions) (Instance, error) {
	if !impact.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidImpact, impact)
	}
	portfolioJSON, err := json.Marshal(portfolio)
	if err != nil {
		return nil, fmt.Errorf("elements: encode portfolio: %w", err)
	}
	optionsJSON := []byte("{}")
	if options != nil {
		if optionsJSON, err = json.Marshal(options); err != nil {
			return nil, fmt.Errorf("elements: encode options: %w", err)
		}
	}
	return &embedInstance{
		mount: ElementMount{
			InstanceID: r.newID(),
			Impact:     impact,
			Portfolio:  string(portfolioJSON),
			Options:    string(optionsJSON),
		},
	}, nil
}

type embedInstance struct {
	mu        sync.Mutex
	mount     ElementMount
	container *Container
	destroyed bool
}

func (i *embedInstance) ID() string {
	return i.mount.InstanceID
}

func (i *embedInstance) Render(container *Container) error {
	if container == nil {
		return errors.New("elements: render requires a container")
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return ErrInstanceDestroyed
	}
	if i.container != nil && i.container != container {
		return fmt.Errorf("elements: instance %s already rendered into %s", i.mount.InstanceID, i.container.ID())
	}
	if err := container.Attach(i.mount); err != nil {
		return err
	}
	i.container = container
	return nil
}

func (i *embedInstance) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return
	}
	i.destroyed = true
	if i.container != nil {
		i.container.Detach(i.mount.InstanceID)
		i.container = nil
	}
}
