package elements

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainerKebabCasesName(t *testing.T) {
	assert.Equal(t, "impact-widget", NewContainer("ImpactWidget").ID())
	assert.Equal(t, "impact-widget", NewContainer("impact widget").ID())
	assert.Equal(t, defaultContainerID, NewContainer("  ").ID())
}

func TestContainerHostsOneElement(t *testing.T) {
	c := NewContainer("impact")
	require.NoError(t, c.Attach(ElementMount{InstanceID: "a"}))
	require.NoError(t, c.Attach(ElementMount{InstanceID: "a"}))
	err := c.Attach(ElementMount{InstanceID: "b"})
	assert.True(t, errors.Is(err, ErrContainerOccupied))

	assert.False(t, c.Detach("b"))
	assert.True(t, c.Detach("a"))
	_, ok := c.Mount()
	assert.False(t, ok)
}

func TestEmbedRuntimeInstanceLifecycle(t *testing.T) {
	rt := NewEmbedRuntime(nil)
	opts := &WidgetOptions{Locale: "en"}
	inst, err := rt.SingleImpact(ImpactEnergy, SamplePortfolio(), opts)
	require.NoError(t, err)

	c := NewContainer("impact")
	require.NoError(t, inst.Render(c))
	mount, ok := c.Mount()
	require.True(t, ok)
	assert.Equal(t, inst.ID(), mount.InstanceID)
	assert.JSONEq(t, `{"locale":"en"}`, mount.Options)

	other, err := rt.SingleImpact(ImpactEnergy, SamplePortfolio(), nil)
	require.NoError(t, err)
	assert.True(t, errors.Is(other.Render(c), ErrContainerOccupied))

	inst.Destroy()
	inst.Destroy()
	_, ok = c.Mount()
	assert.False(t, ok)
	assert.True(t, errors.Is(inst.Render(c), ErrInstanceDestroyed))
}

func TestEmbedRuntimeRejectsUnknownImpact(t *testing.T) {
	_, err := NewEmbedRuntime(nil).SingleImpact("water", SamplePortfolio(), nil)
	assert.True(t, errors.Is(err, ErrInvalidImpact))
}

func TestEmbedRuntimeStoresToken(t *testing.T) {
	slot := NewCredentialSlot()
	rt := NewEmbedRuntime(slot)
	_, ok := rt.Token()
	assert.False(t, ok)
	rt.SetAuthToken("t1")
	token, ok := slot.Token()
	assert.True(t, ok)
	assert.Equal(t, "t1", token)
	assert.False(t, slot.UpdatedAt().IsZero())
}
