package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingComponent struct {
	name    string
	calls   *[]string
	initErr error
	stopErr error
}

func (c *recordingComponent) Initialize(ctx context.Context) error {
	*c.calls = append(*c.calls, "init:"+c.name)
	return c.initErr
}

func (c *recordingComponent) Shutdown(ctx context.Context) error {
	*c.calls = append(*c.calls, "stop:"+c.name)
	return c.stopErr
}

func TestContainer_Lifecycle(t *testing.T) {
	var calls []string
	c := NewContainer()

	require.NoError(t, c.Register("a", &recordingComponent{name: "a", calls: &calls}))
	require.NoError(t, c.Register("plain", struct{}{}))
	require.NoError(t, c.Register("b", &recordingComponent{name: "b", calls: &calls}))

	require.NoError(t, c.Initialize(context.Background()))
	require.NoError(t, c.Shutdown(context.Background()))

	assert.Equal(t, []string{"init:a", "init:b", "stop:b", "stop:a"}, calls)
	assert.Equal(t, struct{}{}, c.Get("plain"))
	assert.Nil(t, c.Get("missing"))
}

func TestContainer_Register(t *testing.T) {
	c := NewContainer()

	assert.Error(t, c.Register("nil", nil))
	require.NoError(t, c.Register("x", struct{}{}))
	assert.Error(t, c.Register("x", struct{}{}))
}

func TestContainer_InitializeStopsAtFirstFailure(t *testing.T) {
	var calls []string
	c := NewContainer()
	boom := errors.New("boom")

	require.NoError(t, c.Register("a", &recordingComponent{name: "a", calls: &calls, initErr: boom}))
	require.NoError(t, c.Register("b", &recordingComponent{name: "b", calls: &calls}))

	err := c.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "component a")
	assert.Equal(t, []string{"init:a"}, calls)
}

func TestContainer_ShutdownJoinsErrors(t *testing.T) {
	var calls []string
	c := NewContainer()
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	require.NoError(t, c.Register("a", &recordingComponent{name: "a", calls: &calls, stopErr: errA}))
	require.NoError(t, c.Register("b", &recordingComponent{name: "b", calls: &calls, stopErr: errB}))

	err := c.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, []string{"stop:b", "stop:a"}, calls)
}
