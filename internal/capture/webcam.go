package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// WebcamSource captures from V4L2 devices through OpenCV.
type WebcamSource struct {
	mu     sync.Mutex
	denied map[string]error // device path -> remembered permission failure
}

// NewWebcamSource returns a source over the host's /dev/video* devices.
func NewWebcamSource() *WebcamSource {
	return &WebcamSource{denied: make(map[string]error)}
}

// Devices enumerates /dev/video* nodes. Names come from sysfs when
// available, otherwise the node basename.
func (s *WebcamSource) Devices() ([]Device, error) {
	paths, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	sort.Strings(paths)
	devices := make([]Device, 0, len(paths))
	for _, p := range paths {
		devices = append(devices, Device{ID: p, Name: sysfsName(p)})
	}
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}
	return devices, nil
}

// Open acquires the device matching selector (a /dev path or its
// basename). A permission failure is remembered so a retry loop in
// the UI cannot hammer the platform with access requests.
func (s *WebcamSource) Open(ctx context.Context, selector string) (Handle, error) {
	devices, err := s.Devices()
	if err != nil {
		return nil, err
	}
	idx := 0
	if selector != "" {
		idx = -1
		for i, d := range devices {
			if d.ID == selector || filepath.Base(d.ID) == selector {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: no device matches %q", ErrNoDevice, selector)
		}
	}

	s.mu.Lock()
	if remembered, ok := s.denied[devices[idx].ID]; ok {
		s.mu.Unlock()
		return nil, remembered
	}
	s.mu.Unlock()

	h := &webcamHandle{source: s, devices: devices, current: idx, openGrabber: openGocvGrabber}
	if err := h.open(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *WebcamSource) rememberDenied(id string, err error) {
	s.mu.Lock()
	s.denied[id] = err
	s.mu.Unlock()
}

// frameGrabber separates the handle's device bookkeeping from the
// OpenCV capture so the open and switch paths stay unit-testable.
type frameGrabber interface {
	Grab() (image.Image, error)
	Close() error
}

func openGocvGrabber(devID string) (frameGrabber, error) {
	cam, err := gocv.OpenVideoCapture(devID)
	if err != nil {
		return nil, err
	}
	return &gocvGrabber{cam: cam}, nil
}

type gocvGrabber struct {
	cam *gocv.VideoCapture
}

func (g *gocvGrabber) Grab() (image.Image, error) {
	mat := gocv.NewMat()
	defer mat.Close()
	if ok := g.cam.Read(&mat); !ok || mat.Empty() {
		return nil, errors.New("device returned no frame")
	}
	return mat.ToImage()
}

func (g *gocvGrabber) Close() error {
	return g.cam.Close()
}

type webcamHandle struct {
	source      *WebcamSource
	devices     []Device
	current     int
	grab        frameGrabber
	openGrabber func(devID string) (frameGrabber, error)
}

func (h *webcamHandle) open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev := h.devices[h.current]

	// Probe the node directly first: gocv collapses every open failure
	// into one error string, but EACCES must surface as a permission
	// problem, not a broken camera.
	f, err := os.OpenFile(dev.ID, os.O_RDWR, 0)
	if err != nil {
		if os.IsPermission(err) {
			werr := fmt.Errorf("%w: %s", ErrPermissionDenied, dev.ID)
			h.source.rememberDenied(dev.ID, werr)
			return werr
		}
		return fmt.Errorf("%w: open %s: %v", ErrCaptureFailed, dev.ID, err)
	}
	f.Close()

	g, err := h.openGrabber(dev.ID)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCaptureFailed, dev.ID, err)
	}
	h.grab = g
	return nil
}

func (h *webcamHandle) Capture(ctx context.Context) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.grab == nil {
		return nil, fmt.Errorf("%w: handle closed", ErrCaptureFailed)
	}
	img, err := h.grab.Grab()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCaptureFailed, h.Device().ID, err)
	}
	return &Image{Pixels: img, Device: h.Device().ID, Taken: time.Now()}, nil
}

// Switch moves to the next device. When the next device cannot be
// opened the handle falls back to the one it was on, so a failed flip
// never leaves the booth without a working camera.
func (h *webcamHandle) Switch(ctx context.Context) error {
	if len(h.devices) < 2 {
		return nil
	}
	prev := h.current
	if h.grab != nil {
		h.grab.Close()
		h.grab = nil
	}
	h.current = (h.current + 1) % len(h.devices)
	err := h.open(ctx)
	if err == nil {
		return nil
	}

	h.current = prev
	if reopenErr := h.open(ctx); reopenErr != nil {
		return fmt.Errorf("switch failed (%v); reopen %s: %w",
			err, h.devices[prev].ID, reopenErr)
	}
	return err
}

func (h *webcamHandle) Device() Device {
	return h.devices[h.current]
}

func (h *webcamHandle) Close() error {
	if h.grab == nil {
		return nil
	}
	err := h.grab.Close()
	h.grab = nil
	return err
}

func sysfsName(devPath string) string {
	base := filepath.Base(devPath)
	data, err := os.ReadFile(filepath.Join("/sys/class/video4linux", base, "name"))
	if err != nil {
		return base
	}
	return strings.TrimSpace(string(data))
}
