package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stim-control/scc/internal/device"
)

func TestMaintenanceResendsStaleWaveform(t *testing.T) {
	ctrl, client, settings, _ := newTestController(t)
	settings.SetPulseInterval(10 * time.Millisecond)
	settings.SetPulseStaleAfter(20 * time.Millisecond)

	ctrl.OnStrengthUpdate(device.StrengthData{LimitA: 100, LimitB: 100})
	ctrl.markPulseSent(device.ChannelA, time.Now().Add(-time.Minute))
	startController(t, ctrl)

	require.Eventually(t, func() bool {
		return client.PulseSends(device.ChannelA) >= 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestMaintenanceSkipsFreshWaveform(t *testing.T) {
	ctrl, client, settings, _ := newTestController(t)
	settings.SetPulseInterval(10 * time.Millisecond)
	settings.SetPulseStaleAfter(10 * time.Minute)

	ctrl.OnStrengthUpdate(device.StrengthData{LimitA: 100, LimitB: 100})
	ctrl.markPulseSent(device.ChannelA, time.Now())
	startController(t, ctrl)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, client.PulseSends(device.ChannelA))
}

func TestMaintenanceSkipsNeverSentChannel(t *testing.T) {
	ctrl, client, settings, _ := newTestController(t)
	settings.SetPulseInterval(10 * time.Millisecond)
	settings.SetPulseStaleAfter(10 * time.Millisecond)

	ctrl.OnStrengthUpdate(device.StrengthData{LimitA: 100, LimitB: 100})
	startController(t, ctrl)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, client.PulseSends(device.ChannelA))
	assert.Zero(t, client.PulseSends(device.ChannelB))
}

func TestMaintenanceWaitsForDeviceOnline(t *testing.T) {
	ctrl, client, settings, _ := newTestController(t)
	settings.SetPulseInterval(10 * time.Millisecond)
	settings.SetPulseStaleAfter(10 * time.Millisecond)

	ctrl.markPulseSent(device.ChannelA, time.Now().Add(-time.Minute))
	startController(t, ctrl)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, client.PulseSends(device.ChannelA), "no sends before the first device snapshot")

	ctrl.OnStrengthUpdate(device.StrengthData{LimitA: 100, LimitB: 100})
	require.Eventually(t, func() bool {
		return client.PulseSends(device.ChannelA) >= 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSendPulseRefreshesStalenessClock(t *testing.T) {
	ctrl, client, _, _ := newTestController(t)

	before := time.Now()
	require.NoError(t, ctrl.SendPulse(context.Background(), device.ChannelA))

	assert.Equal(t, 1, client.PulseSends(device.ChannelA))
	assert.False(t, ctrl.lastPulseSentAt(device.ChannelA).Before(before))
}

func TestSendPulseFailureLeavesClockUntouched(t *testing.T) {
	ctrl, client, _, _ := newTestController(t)
	client.SetPulseError(errors.New("connection closed"))

	seed := time.Now().Add(-time.Minute)
	ctrl.markPulseSent(device.ChannelA, seed)

	err := ctrl.SendPulse(context.Background(), device.ChannelA)
	require.Error(t, err)
	assert.ErrorIs(t, err, device.ErrUnavailable)
	assert.Equal(t, seed, ctrl.lastPulseSentAt(device.ChannelA), "failed send must stay stale for the next round")
}

func TestSendPulseScalesAmplitude(t *testing.T) {
	ctrl, client, settings, _ := newTestController(t)
	settings.SetPulseAmplitudeFactor(0.5)

	require.NoError(t, ctrl.SendPulse(context.Background(), device.ChannelA))

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "addPulses", calls[0].Op)
	assert.Equal(t, 2, calls[0].Frames, "mode zero has two frames")
}
