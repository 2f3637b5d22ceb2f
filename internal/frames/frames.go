package frames

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// catalogFile is the manifest expected inside the frames directory.
const catalogFile = "frames.yaml"

var ErrUnknownFrame = errors.New("unknown frame")

// Frame is one decorative overlay the user can pick before capture.
// Frames are immutable once loaded; selection happens once per session.
type Frame struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	File string `yaml:"file" json:"-"`

	path string
}

// Overlay decodes the frame's overlay asset. PNG is the expected
// format (overlays need alpha), JPEG is tolerated.
func (f *Frame) Overlay() (image.Image, error) {
	r, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open overlay %s: %w", f.File, err)
	}
	defer r.Close()
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode overlay %s: %w", f.File, err)
	}
	return img, nil
}

// New builds a standalone frame from an overlay path, outside any
// catalog. The booth uses catalogs; this exists for tools and tests.
func New(id, name, path string) *Frame {
	return &Frame{ID: id, Name: name, File: filepath.Base(path), path: path}
}

// Catalog is the fixed set of frames offered by a booth. It is
// read-mostly; Reload swaps the whole set atomically so the watcher
// can refresh it while the service runs.
type Catalog struct {
	dir string

	mu     sync.RWMutex
	frames []*Frame
	byID   map[string]*Frame
}

// Load reads the catalog manifest from dir and verifies every listed
// overlay asset exists.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the manifest. On any error the previously loaded
// set stays in place.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(filepath.Join(c.dir, catalogFile))
	if err != nil {
		return fmt.Errorf("read frame catalog: %w", err)
	}
	var manifest struct {
		Frames []*Frame `yaml:"frames"`
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parse frame catalog: %w", err)
	}
	byID := make(map[string]*Frame, len(manifest.Frames))
	for _, f := range manifest.Frames {
		f.path = filepath.Join(c.dir, f.File)
		if _, err := os.Stat(f.path); err != nil {
			return fmt.Errorf("frame %q: missing overlay asset %s", f.ID, f.File)
		}
		if _, dup := byID[f.ID]; dup {
			return fmt.Errorf("frame %q listed twice in catalog", f.ID)
		}
		byID[f.ID] = f
	}

	c.mu.Lock()
	c.frames = manifest.Frames
	c.byID = byID
	c.mu.Unlock()
	return nil
}

// List returns the frames in catalog order.
func (c *Catalog) List() []*Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// Get looks a frame up by id.
func (c *Catalog) Get(id string) (*Frame, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrame, id)
	}
	return f, nil
}

// Dir returns the catalog directory.
func (c *Catalog) Dir() string {
	return c.dir
}
