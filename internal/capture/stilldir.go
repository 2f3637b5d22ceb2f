package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// StillSource serves pre-rendered stills from one or more directories.
// Each directory behaves as one device; Capture walks its image files
// in lexical order and wraps around. Used for camera-less kiosks and
// in tests as the stand-in for real hardware.
type StillSource struct {
	dirs []string
}

// NewStillSource builds a source over the given directories.
func NewStillSource(dirs ...string) *StillSource {
	return &StillSource{dirs: dirs}
}

func (s *StillSource) Devices() ([]Device, error) {
	devices := make([]Device, 0, len(s.dirs))
	for _, dir := range s.dirs {
		if stills, err := listStills(dir); err == nil && len(stills) > 0 {
			devices = append(devices, Device{ID: dir, Name: filepath.Base(dir)})
		}
	}
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}
	return devices, nil
}

func (s *StillSource) Open(ctx context.Context, selector string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	devices, err := s.Devices()
	if err != nil {
		return nil, err
	}
	idx := 0
	if selector != "" {
		idx = -1
		for i, d := range devices {
			if d.ID == selector || d.Name == selector {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: no device matches %q", ErrNoDevice, selector)
		}
	}
	return &stillHandle{devices: devices, current: idx}, nil
}

type stillHandle struct {
	devices []Device
	current int
	next    int
	closed  bool
}

func (h *stillHandle) Capture(ctx context.Context) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.closed {
		return nil, fmt.Errorf("%w: handle closed", ErrCaptureFailed)
	}
	dev := h.devices[h.current]
	stills, err := listStills(dev.ID)
	if err != nil || len(stills) == 0 {
		return nil, fmt.Errorf("%w: no stills in %s", ErrCaptureFailed, dev.ID)
	}
	path := stills[h.next%len(stills)]
	h.next++

	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	defer r.Close()
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCaptureFailed, filepath.Base(path), err)
	}
	return &Image{Pixels: img, Device: dev.ID, Taken: time.Now()}, nil
}

func (h *stillHandle) Switch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.current = (h.current + 1) % len(h.devices)
	h.next = 0
	return nil
}

func (h *stillHandle) Device() Device {
	return h.devices[h.current]
}

func (h *stillHandle) Close() error {
	h.closed = true
	return nil
}

func listStills(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var stills []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".jpg", ".jpeg", ".png":
			stills = append(stills, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(stills)
	return stills, nil
}
