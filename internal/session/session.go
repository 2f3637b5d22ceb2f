// Package session carries the user's choices through one booth flow.
//
// The holder replaces threading serialized frame/photo references
// through navigation parameters: the composition root passes one
// *Session to each screen, and the session enforces the flow order
// (frame selection, then capture, then composite).
package session

import (
	"errors"
	"sync"

	"photobooth/internal/capture"
	"photobooth/internal/frames"
	"photobooth/internal/render"
)

var (
	// ErrNoFrameSelection means capture was attempted before the
	// frame selection step was finalized.
	ErrNoFrameSelection = errors.New("frame selection not finalized")
	// ErrNoPhoto means composite was attempted before a capture
	// completed.
	ErrNoPhoto = errors.New("no captured photo in session")
)

// Session holds one visitor's flow state. Safe for the single logical
// actor of a booth session; the mutex only guards against UI callbacks
// racing teardown.
type Session struct {
	mu          sync.Mutex
	frameChosen bool
	frame       *frames.Frame
	photo       *capture.Image
}

// New returns an empty session at the frame-selection step.
func New() *Session {
	return &Session{}
}

// SelectFrame finalizes the frame selection. A nil frame is a valid
// choice (photo delivered without an overlay).
func (s *Session) SelectFrame(f *frames.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameChosen = true
	s.frame = f
	s.photo = nil // a new selection restarts the flow
}

// AttachPhoto records a completed capture. Each new capture supersedes
// the previous one. Fails with ErrNoFrameSelection before SelectFrame.
func (s *Session) AttachPhoto(img *capture.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.frameChosen {
		return ErrNoFrameSelection
	}
	s.photo = img
	return nil
}

// Composite renders the session's photo and frame into an artifact.
// It never runs ahead of the flow: both the selection and the capture
// must be finalized first.
func (s *Session) Composite(r *render.Renderer) (*render.Artifact, error) {
	s.mu.Lock()
	frame, photo, chosen := s.frame, s.photo, s.frameChosen
	s.mu.Unlock()
	if !chosen {
		return nil, ErrNoFrameSelection
	}
	if photo == nil {
		return nil, ErrNoPhoto
	}
	return r.Render(photo, frame)
}

// Frame returns the selected frame (nil for the no-frame choice).
func (s *Session) Frame() *frames.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Photo returns the current captured image, if any.
func (s *Session) Photo() *capture.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photo
}

// Reset returns the session to the frame-selection step.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameChosen = false
	s.frame = nil
	s.photo = nil
}
