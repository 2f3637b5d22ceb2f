// Package delivery submits composite artifacts to the delivery service.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"regexp"

	"photobooth/internal/render"
)

var (
	// ErrInvalidRecipient means the address failed syntax validation;
	// no network call was made.
	ErrInvalidRecipient = errors.New("invalid recipient address")
	// ErrDeliveryFailed means the service refused the request or was
	// unreachable. The caller re-invokes Submit explicitly; there is
	// no automatic retry.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// addressPattern matches local@domain with a dot somewhere in the
// domain part, the same rule the booth applied historically.
var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateAddress checks recipient syntax without any I/O.
func ValidateAddress(addr string) error {
	if !addressPattern.MatchString(addr) {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, addr)
	}
	return nil
}

// Outcome is what the UI shows after a submission resolves.
type Outcome struct {
	OK      bool
	Message string
}

// Client talks to the delivery service.
type Client struct {
	Base string
	HTTP *http.Client

	// Progress, when set, receives the request body bytes as they are
	// read, so a caller can drive an upload progress display.
	Progress io.Writer
}

// NewClient returns a client for the service at base.
func NewClient(base string) *Client {
	return &Client{
		Base: base,
		HTTP: http.DefaultClient,
	}
}

// FrameInfo mirrors one catalog entry served by the delivery service.
type FrameInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Frames fetches the frame catalog from the service.
func (c *Client) Frames(ctx context.Context) ([]FrameInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+"/frames", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch frames: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch frames: %s", resp.Status)
	}
	var payload struct {
		Frames []FrameInfo `json:"frames"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch frames: %w", err)
	}
	return payload.Frames, nil
}

// Submit validates recipient, packages it with the artifact into one
// multipart request, and interprets the response. The returned Outcome
// is non-nil whenever a user-facing message exists, including on
// failure; err is nil only on success.
func (c *Client) Submit(ctx context.Context, recipient string, artifact *render.Artifact) (*Outcome, error) {
	if err := ValidateAddress(recipient); err != nil {
		return nil, err
	}
	if artifact == nil || len(artifact.Data) == 0 {
		return nil, fmt.Errorf("%w: no artifact to deliver", ErrDeliveryFailed)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("email", recipient); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="photo"; filename="framed_photo.jpg"`)
	hdr.Set("Content-Type", artifact.MIME)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	var body io.Reader = &buf
	if c.Progress != nil {
		body = io.TeeReader(body, c.Progress)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/deliver", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.ContentLength = int64(buf.Len())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		out := &Outcome{OK: false, Message: "could not reach the delivery service"}
		return out, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrDeliveryFailed, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Outcome{OK: true, Message: payload.Message}, nil
	}

	msg := payload.Message
	if msg == "" {
		msg = fmt.Sprintf("delivery service returned %s", resp.Status)
	}
	out := &Outcome{OK: false, Message: msg}
	if payload.Error != "" {
		return out, fmt.Errorf("%w: %s: %s", ErrDeliveryFailed, msg, payload.Error)
	}
	return out, fmt.Errorf("%w: %s", ErrDeliveryFailed, msg)
}
