// Package capture abstracts still-image acquisition for the booth.
//
// Two sources exist: a V4L2 webcam source backed by OpenCV, and a
// directory source that serves pre-rendered stills for camera-less
// kiosks and tests. The variant is chosen once at composition time;
// call sites only ever see Source and Handle.
package capture

import (
	"context"
	"errors"
	"image"
	"time"
)

var (
	// ErrNoDevice means enumeration found nothing to capture from.
	ErrNoDevice = errors.New("no capture device available")
	// ErrPermissionDenied means the platform refused device access.
	ErrPermissionDenied = errors.New("capture permission denied")
	// ErrCaptureFailed means the device was open but taking the
	// picture failed. Retryable.
	ErrCaptureFailed = errors.New("capture failed")
)

// Device identifies one capture device.
type Device struct {
	ID   string
	Name string
}

// Image is one captured still. A new Image supersedes the previous
// one; nothing mutates it after capture.
type Image struct {
	Pixels image.Image
	Device string
	Taken  time.Time
}

// Source enumerates devices and opens live handles.
//
// Implementations must guarantee:
//   - Devices() is cheap and never prompts for access
//   - Open() may trigger a platform permission request at most once
//     per source; a denied result is remembered and returned again
//     without re-prompting
//   - a Handle stays usable until Close()
type Source interface {
	// Devices lists the available capture devices. An empty list is
	// reported as ErrNoDevice.
	Devices() ([]Device, error)

	// Open acquires a live handle on the device matching selector.
	// An empty selector picks the first available device.
	Open(ctx context.Context, selector string) (Handle, error)
}

// Handle is a live capture session on one device.
type Handle interface {
	// Capture takes a single still. Failures map to ErrCaptureFailed
	// and are retryable on the same handle.
	Capture(ctx context.Context) (*Image, error)

	// Switch cycles to the next available device, wrapping to the
	// first after the last. With a single device it is a no-op.
	Switch(ctx context.Context) error

	// Device reports the currently selected device.
	Device() Device

	Close() error
}
