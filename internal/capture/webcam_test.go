package capture

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGrabber struct {
	id     string
	closed bool
}

func (g *stubGrabber) Grab() (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (g *stubGrabber) Close() error {
	g.closed = true
	return nil
}

func fakeDeviceNodes(t *testing.T, names ...string) []Device {
	t.Helper()
	dir := t.TempDir()
	devices := make([]Device, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, nil, 0o600))
		devices = append(devices, Device{ID: path, Name: name})
	}
	return devices
}

func TestWebcamHandle_SwitchCyclesDevices(t *testing.T) {
	devices := fakeDeviceNodes(t, "video0", "video1")
	var opened []*stubGrabber
	h := &webcamHandle{
		source:  NewWebcamSource(),
		devices: devices,
		openGrabber: func(id string) (frameGrabber, error) {
			g := &stubGrabber{id: id}
			opened = append(opened, g)
			return g, nil
		},
	}
	require.NoError(t, h.open(context.Background()))

	require.NoError(t, h.Switch(context.Background()))
	assert.Equal(t, devices[1].ID, h.Device().ID)
	assert.True(t, opened[0].closed, "previous grabber released")

	img, err := h.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, devices[1].ID, img.Device)
}

func TestWebcamHandle_FailedSwitchFallsBackToPreviousDevice(t *testing.T) {
	devices := fakeDeviceNodes(t, "video0", "video1")
	opens := make(map[string]int)
	h := &webcamHandle{
		source:  NewWebcamSource(),
		devices: devices,
		openGrabber: func(id string) (frameGrabber, error) {
			opens[id]++
			if id == devices[1].ID {
				return nil, errors.New("device busy")
			}
			return &stubGrabber{id: id}, nil
		},
	}
	require.NoError(t, h.open(context.Background()))

	err := h.Switch(context.Background())
	assert.ErrorIs(t, err, ErrCaptureFailed)
	assert.Equal(t, devices[0].ID, h.Device().ID)
	assert.Equal(t, 2, opens[devices[0].ID], "previous device reopened")

	img, err := h.Capture(context.Background())
	require.NoError(t, err, "handle must stay usable after a failed switch")
	assert.Equal(t, devices[0].ID, img.Device)
}

func TestWebcamHandle_SwitchReportsWhenFallbackAlsoFails(t *testing.T) {
	devices := fakeDeviceNodes(t, "video0", "video1")
	calls := 0
	h := &webcamHandle{
		source:  NewWebcamSource(),
		devices: devices,
		openGrabber: func(id string) (frameGrabber, error) {
			calls++
			if calls == 1 {
				return &stubGrabber{id: id}, nil
			}
			return nil, errors.New("device unplugged")
		},
	}
	require.NoError(t, h.open(context.Background()))

	err := h.Switch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCaptureFailed)
	assert.ErrorContains(t, err, "reopen "+devices[0].ID)

	_, err = h.Capture(context.Background())
	assert.ErrorIs(t, err, ErrCaptureFailed)
}

func TestWebcamHandle_SwitchSingleDeviceIsNoop(t *testing.T) {
	devices := fakeDeviceNodes(t, "video0")
	h := &webcamHandle{
		source:  NewWebcamSource(),
		devices: devices,
		openGrabber: func(id string) (frameGrabber, error) {
			return &stubGrabber{id: id}, nil
		},
	}
	require.NoError(t, h.open(context.Background()))

	require.NoError(t, h.Switch(context.Background()))
	assert.Equal(t, devices[0].ID, h.Device().ID)
}
