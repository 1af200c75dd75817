package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stim-control/scc/internal/device"
)

func TestSetStrengthClampsToLimit(t *testing.T) {
	ctrl, client, _, _ := newTestController(t)
	ctx := context.Background()

	require.NoError(t, ctrl.SetStrength(ctx, device.ChannelA, 250))
	assert.Equal(t, 100, ctrl.CurrentStrength(device.ChannelA))
	assert.Equal(t, 100, client.Strength(device.ChannelA))

	require.NoError(t, ctrl.SetStrength(ctx, device.ChannelA, -10))
	assert.Equal(t, 0, ctrl.CurrentStrength(device.ChannelA))
	assert.Equal(t, 0, client.Strength(device.ChannelA))
}

func TestAdjustStrengthAccumulatesAndClamps(t *testing.T) {
	ctrl, client, _, _ := newTestController(t)
	ctx := context.Background()

	require.NoError(t, ctrl.AdjustStrength(ctx, device.ChannelA, 30))
	require.NoError(t, ctrl.AdjustStrength(ctx, device.ChannelA, 30))
	assert.Equal(t, 60, ctrl.CurrentStrength(device.ChannelA))

	// Over the limit clamps silently.
	require.NoError(t, ctrl.AdjustStrength(ctx, device.ChannelA, 100))
	assert.Equal(t, 100, ctrl.CurrentStrength(device.ChannelA))

	// Below zero clamps silently.
	require.NoError(t, ctrl.AdjustStrength(ctx, device.ChannelA, -500))
	assert.Equal(t, 0, ctrl.CurrentStrength(device.ChannelA))
	assert.Equal(t, 0, client.Strength(device.ChannelA))
}

func TestStrengthRespectsLoweredLimit(t *testing.T) {
	ctrl, _, _, _ := newTestController(t)
	ctx := context.Background()

	ctrl.OnStrengthUpdate(device.StrengthData{A: 0, LimitA: 40, LimitB: 100})

	require.NoError(t, ctrl.SetStrength(ctx, device.ChannelA, 90))
	assert.Equal(t, 40, ctrl.CurrentStrength(device.ChannelA))
}

func TestStrengthChannelsAreIndependent(t *testing.T) {
	ctrl, client, _, _ := newTestController(t)
	ctx := context.Background()

	require.NoError(t, ctrl.SetStrength(ctx, device.ChannelA, 20))
	require.NoError(t, ctrl.SetStrength(ctx, device.ChannelB, 70))

	assert.Equal(t, 20, client.Strength(device.ChannelA))
	assert.Equal(t, 70, client.Strength(device.ChannelB))
}

func TestWriteFailureStillAdvancesLocalState(t *testing.T) {
	ctrl, client, _, _ := newTestController(t)
	client.SetStrengthError(errors.New("device busy"))

	err := ctrl.SetStrength(context.Background(), device.ChannelA, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, device.ErrBusy)

	// The command counts as executed: no retry, local state moves on.
	assert.Equal(t, 50, ctrl.CurrentStrength(device.ChannelA))
}

func TestMapValueInterpolatesLinearly(t *testing.T) {
	assert.Equal(t, 0.0, MapValue(0, 0, 30))
	assert.Equal(t, 15.0, MapValue(0.5, 0, 30))
	assert.Equal(t, 30.0, MapValue(1, 0, 30))
	assert.Equal(t, 25.0, MapValue(0.5, 20, 30))
}

func TestClampBounds(t *testing.T) {
	assert.Equal(t, 0, clamp(-5, 0, 100))
	assert.Equal(t, 100, clamp(150, 0, 100))
	assert.Equal(t, 42, clamp(42, 0, 100))
}
