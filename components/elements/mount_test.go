package elements

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(rt *recordingRuntime, hook LifecycleHook) *MountController {
	return NewMountController(MountOptions{Runtime: rt, Impact: ImpactCO2, Hook: hook})
}

func TestMountControllerIdleUntilBothInputsPresent(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{}
	ctrl := newTestController(rt, nil)

	require.NoError(t, ctrl.SetContainer(ctx, NewContainer("impact")))
	assert.Equal(t, StateIdle, ctrl.State())
	assert.Empty(t, rt.Calls())

	q := SamplePortfolio()
	require.NoError(t, ctrl.SetPortfolio(ctx, &q))
	assert.Equal(t, StateMounted, ctrl.State())
	assert.Equal(t, []string{"create:i1:co2", "render:i1:impact"}, rt.Calls())
}

func TestMountControllerPortfolioFirst(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{}
	ctrl := newTestController(rt, nil)

	q := SamplePortfolio()
	require.NoError(t, ctrl.SetPortfolio(ctx, &q))
	assert.Equal(t, StateIdle, ctrl.State())
	require.NoError(t, ctrl.SetContainer(ctx, NewContainer("impact")))
	assert.Equal(t, StateMounted, ctrl.State())
	assert.Equal(t, 1, rt.created)
}

func TestMountControllerUnchangedInputsAreNoop(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{}
	ctrl := newTestController(rt, nil)
	container := NewContainer("impact")
	q := SamplePortfolio()

	require.NoError(t, ctrl.SetContainer(ctx, container))
	require.NoError(t, ctrl.SetPortfolio(ctx, &q))
	same := SamplePortfolio()
	require.NoError(t, ctrl.SetPortfolio(ctx, &same))
	require.NoError(t, ctrl.SetContainer(ctx, container))

	assert.Equal(t, 1, rt.created)
	assert.Equal(t, StateMounted, ctrl.State())
}

func TestMountControllerDestroysBeforeReplacement(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{}
	ctrl := newTestController(rt, nil)
	q := SamplePortfolio()
	require.NoError(t, ctrl.SetContainer(ctx, NewContainer("impact")))
	require.NoError(t, ctrl.SetPortfolio(ctx, &q))

	next := PortfolioQuery{IDs: []WeightedIdentifier{{Type: IdentifierISIN, ID: "US0378331005", Weight: weightPtr(1)}}}
	require.NoError(t, ctrl.SetPortfolio(ctx, &next))

	assert.Equal(t, []string{
		"create:i1:co2",
		"render:i1:impact",
		"destroy:i1",
		"create:i2:co2",
		"render:i2:impact",
	}, rt.Calls())
	assert.Equal(t, "US0378331005", rt.portfolio[1].IDs[0].ID)
}

func TestMountControllerContainerChangeRemounts(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{}
	ctrl := newTestController(rt, nil)
	q := SamplePortfolio()
	require.NoError(t, ctrl.SetContainer(ctx, NewContainer("first")))
	require.NoError(t, ctrl.SetPortfolio(ctx, &q))
	require.NoError(t, ctrl.SetContainer(ctx, NewContainer("second")))

	calls := rt.Calls()
	assert.Equal(t, "destroy:i1", calls[2])
	assert.Equal(t, "render:i2:second", calls[4])
}

func TestMountControllerDetachUnmounts(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{}
	ctrl := newTestController(rt, nil)
	q := SamplePortfolio()
	require.NoError(t, ctrl.SetContainer(ctx, NewContainer("impact")))
	require.NoError(t, ctrl.SetPortfolio(ctx, &q))
	require.NoError(t, ctrl.SetContainer(ctx, nil))

	assert.Equal(t, StateIdle, ctrl.State())
	assert.Equal(t, 1, rt.last.destroys)
	assert.Empty(t, ctrl.Snapshot().InstanceID)
}

func TestMountControllerCloseDestroysOnce(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{}
	ctrl := newTestController(rt, nil)
	q := SamplePortfolio()
	require.NoError(t, ctrl.SetContainer(ctx, NewContainer("impact")))
	require.NoError(t, ctrl.SetPortfolio(ctx, &q))

	require.NoError(t, ctrl.Close(ctx))
	require.NoError(t, ctrl.Close(ctx))
	assert.Equal(t, 1, rt.last.destroys)

	err := ctrl.SetPortfolio(ctx, &q)
	assert.True(t, errors.Is(err, ErrControllerClosed))
	err = ctrl.SetContainer(ctx, NewContainer("again"))
	assert.True(t, errors.Is(err, ErrControllerClosed))
	assert.Equal(t, 1, rt.created)
	assert.True(t, ctrl.Snapshot().Closed)
}

func TestMountControllerRenderFailureStaysIdle(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{renderErr: errBoom}
	ctrl := newTestController(rt, nil)
	q := SamplePortfolio()
	require.NoError(t, ctrl.SetContainer(ctx, NewContainer("impact")))

	err := ctrl.SetPortfolio(ctx, &q)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
	assert.Equal(t, StateIdle, ctrl.State())
	assert.Equal(t, 1, rt.last.destroys)
}

func TestMountControllerCallerMutationIgnored(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{}
	ctrl := newTestController(rt, nil)
	q := SamplePortfolio()
	require.NoError(t, ctrl.SetContainer(ctx, NewContainer("impact")))
	require.NoError(t, ctrl.SetPortfolio(ctx, &q))

	q.IDs[0].ID = "MUTATED"
	assert.Equal(t, "MATTER_SAMPLE_PORTFOLIO_A", rt.portfolio[0].IDs[0].ID)
	assert.Equal(t, SamplePortfolio().Hash(), ctrl.Snapshot().PortfolioHash)
}

func TestMountControllerEmitsLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	rt := &recordingRuntime{}
	hook := &recordingHook{err: errBoom}
	ctrl := newTestController(rt, hook)
	q := SamplePortfolio()
	require.NoError(t, ctrl.SetContainer(ctx, NewContainer("impact")))
	require.NoError(t, ctrl.SetPortfolio(ctx, &q))
	require.NoError(t, ctrl.Close(ctx))

	require.Len(t, hook.events, 3)
	assert.Equal(t, StateMounted, hook.events[0].State)
	assert.Equal(t, "i1", hook.events[0].InstanceID)
	assert.Equal(t, StateUnmounting, hook.events[1].State)
	assert.Equal(t, StateIdle, hook.events[2].State)
	assert.Equal(t, "closed", hook.events[2].Reason)
}

func TestMountControllerWithEmbedRuntime(t *testing.T) {
	ctx := context.Background()
	rt := NewEmbedRuntime(nil)
	ctrl := NewMountController(MountOptions{Runtime: rt, Impact: ImpactWaste})
	container := NewContainer("Impact Widget")
	q := SamplePortfolio()
	require.NoError(t, ctrl.SetContainer(ctx, container))
	require.NoError(t, ctrl.SetPortfolio(ctx, &q))

	mount, ok := container.Mount()
	require.True(t, ok)
	assert.Equal(t, ImpactWaste, mount.Impact)
	assert.Contains(t, mount.Portfolio, "MATTER_SAMPLE_PORTFOLIO_B")
	assert.Equal(t, "{}", mount.Options)

	require.NoError(t, ctrl.Close(ctx))
	_, ok = container.Mount()
	assert.False(t, ok)
}

func TestMountStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "mounted", StateMounted.String())
	assert.Equal(t, "unmounting", StateUnmounting.String())
}
