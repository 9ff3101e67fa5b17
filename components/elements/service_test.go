package elements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceRequiresTokenSource(t *testing.T) {
	_, err := NewService(Options{})
	assert.Error(t, err)
}

func TestNewServiceRejectsInvalidImpact(t *testing.T) {
	_, err := NewService(Options{TokenSource: &stubSource{token: "t"}, Impact: "water"})
	assert.True(t, errors.Is(err, ErrInvalidImpact))
}

func TestServiceStartMountsAndAuthorizes(t *testing.T) {
	rt := NewEmbedRuntime(nil)
	container := NewContainer("impact")
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, err := NewService(Options{
		Runtime:     rt,
		TokenSource: &stubSource{token: "t1"},
		Container:   container,
		TokenExpiry: func(string) (time.Time, error) { return expires, nil },
	})
	require.NoError(t, err)

	require.NoError(t, svc.Start(context.Background()))

	status := svc.Status()
	assert.Equal(t, StateMounted, status.State)
	assert.Equal(t, "impact", status.ContainerID)
	assert.NotEmpty(t, status.InstanceID)
	assert.True(t, status.Authorized)
	require.NotNil(t, status.TokenExpiresAt)
	assert.Equal(t, expires, *status.TokenExpiresAt)
	assert.Equal(t, 3, status.PortfolioEntries)

	token, ok := svc.AuthToken()
	assert.True(t, ok)
	assert.Equal(t, "t1", token)

	require.NoError(t, svc.Stop(context.Background()))
	_, mounted := container.Mount()
	assert.False(t, mounted)
}

func TestServiceTokenFailureStillMounts(t *testing.T) {
	rt := &recordingRuntime{}
	notifier := &recordingNotifier{}
	svc, err := NewService(Options{
		Runtime:     rt,
		TokenSource: &stubSource{err: errBoom},
		Notifier:    notifier,
		Container:   NewContainer("impact"),
	})
	require.NoError(t, err)

	err = svc.Start(context.Background())
	assert.True(t, errors.Is(err, errBoom))
	assert.Equal(t, StateMounted, svc.Status().State)
	assert.False(t, svc.Status().Authorized)
	assert.Empty(t, rt.tokens)

	notes := notifier.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, TokenFailureMessage, notes[0].Message)
}

func TestServicePortfolioFailureStaysIdle(t *testing.T) {
	rt := &recordingRuntime{}
	notifier := &recordingNotifier{}
	svc, err := NewService(Options{
		Runtime:     rt,
		TokenSource: &stubSource{token: "t1"},
		Portfolio: PortfolioSupplierFunc(func(context.Context) (PortfolioQuery, error) {
			return PortfolioQuery{}, errBoom
		}),
		Notifier:  notifier,
		Container: NewContainer("impact"),
	})
	require.NoError(t, err)

	err = svc.Start(context.Background())
	assert.True(t, errors.Is(err, errBoom))
	assert.Equal(t, StateIdle, svc.Status().State)
	assert.Equal(t, 0, rt.created)
	assert.Equal(t, []string{"t1"}, rt.tokens)

	notes := notifier.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, PortfolioFailureMessage, notes[0].Message)
}

func TestServiceUntrackedRuntimeReportsToken(t *testing.T) {
	rt := &recordingRuntime{}
	svc, err := NewService(Options{Runtime: rt, TokenSource: &stubSource{token: "t9"}})
	require.NoError(t, err)
	require.NoError(t, svc.ProvisionToken(context.Background()))

	token, ok := svc.AuthToken()
	assert.True(t, ok)
	assert.Equal(t, "t9", token)
	assert.Equal(t, []string{"t9"}, rt.tokens)
}

func TestServiceUpdatePortfolio(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{}
	svc, err := NewService(Options{Runtime: rt, TokenSource: &stubSource{token: "t1"}})
	require.NoError(t, err)
	require.NoError(t, svc.AttachContainer(ctx, NewContainer("impact")))
	require.NoError(t, svc.UpdatePortfolio(ctx, SamplePortfolio()))
	assert.Equal(t, StateMounted, svc.Status().State)

	err = svc.UpdatePortfolio(ctx, PortfolioQuery{})
	assert.True(t, errors.Is(err, ErrInvalidPortfolio))
	assert.Equal(t, 1, rt.created)

	next := PortfolioQuery{IDs: []WeightedIdentifier{{Type: IdentifierISIN, ID: "US0378331005", Weight: weightPtr(1)}}}
	require.NoError(t, svc.UpdatePortfolio(ctx, next))
	assert.Equal(t, 2, rt.created)
	q, ok := svc.Portfolio()
	require.True(t, ok)
	assert.Equal(t, next.Hash(), q.Hash())

	require.NoError(t, svc.DetachContainer(ctx))
	assert.Equal(t, StateIdle, svc.Status().State)
	assert.Nil(t, svc.Container())
}

func TestServiceStopRejectsLaterUpdates(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(Options{TokenSource: &stubSource{token: "t1"}})
	require.NoError(t, err)
	require.NoError(t, svc.Stop(ctx))
	err = svc.UpdatePortfolio(ctx, SamplePortfolio())
	assert.True(t, errors.Is(err, ErrControllerClosed))
}

func TestServiceRefreshRequiresExpiry(t *testing.T) {
	_, err := NewService(Options{
		TokenSource: &stubSource{token: "t1"},
		Refresh:     RefreshOptions{Enabled: true},
	})
	assert.Error(t, err)
}

func TestServiceMountFailureNotifiesAndKeepsPortfolio(t *testing.T) {
	rt := &recordingRuntime{renderErr: errBoom}
	notifier := &recordingNotifier{}
	svc, err := NewService(Options{
		Runtime:     rt,
		TokenSource: &stubSource{token: "t1"},
		Notifier:    notifier,
		Container:   NewContainer("impact"),
	})
	require.NoError(t, err)

	err = svc.Start(context.Background())
	assert.True(t, errors.Is(err, errBoom))
	assert.Equal(t, StateIdle, svc.Status().State)

	notes := notifier.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, MountFailureMessage, notes[0].Message)

	status := svc.Status()
	q, ok := svc.Portfolio()
	require.True(t, ok)
	assert.Equal(t, q.Hash(), status.PortfolioHash)
	assert.Equal(t, len(q.IDs), status.PortfolioEntries)
}

func TestServiceUpdateMountFailureKeepsStatusConsistent(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{}
	svc, err := NewService(Options{Runtime: rt, TokenSource: &stubSource{token: "t1"}, Notifier: &recordingNotifier{}})
	require.NoError(t, err)
	require.NoError(t, svc.AttachContainer(ctx, NewContainer("impact")))
	require.NoError(t, svc.UpdatePortfolio(ctx, SamplePortfolio()))

	rt.mu.Lock()
	rt.renderErr = errBoom
	rt.mu.Unlock()
	next := PortfolioQuery{IDs: []WeightedIdentifier{{Type: IdentifierISIN, ID: "US0378331005", Weight: weightPtr(1)}}}
	err = svc.UpdatePortfolio(ctx, next)
	assert.True(t, errors.Is(err, errBoom))

	status := svc.Status()
	assert.Equal(t, StateIdle, status.State)
	assert.Equal(t, next.Hash(), status.PortfolioHash)
	assert.Equal(t, 1, status.PortfolioEntries)
	q, ok := svc.Portfolio()
	require.True(t, ok)
	assert.Equal(t, "US0378331005", q.IDs[0].ID)
}
