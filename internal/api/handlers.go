package api

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"photobooth/internal/delivery"
	"photobooth/internal/frames"
	"photobooth/internal/mail"
)

// maxUploadBytes caps the multipart body; booth artifacts are a few
// hundred KB, so 20 MB leaves generous headroom.
const maxUploadBytes = 20 << 20

// Handlers carries the delivery service dependencies.
type Handlers struct {
	Mailer    mail.Mailer
	Catalog   *frames.Catalog
	UploadDir string
	Log       *zap.Logger
}

// DeliverHandler accepts a multipart upload (fields "email" and
// "photo") and relays the photo to the address as an email attachment.
// The upload is spooled to a temp file that is removed after the
// transport call resolves, success or failure.
func (h *Handlers) DeliverHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	email := r.FormValue("email")
	file, _, err := r.FormFile("photo")
	if email == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": "Missing email or photo file",
		})
		return
	}
	defer file.Close()

	if err := delivery.ValidateAddress(email); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": "Invalid email address",
		})
		return
	}

	photoPath, err := h.spoolUpload(file)
	if err != nil {
		h.Log.Error("spool upload", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Failed to send email",
			"error":   err.Error(),
		})
		return
	}
	// The upload is transient; keeping it would grow the disk without
	// bound, so it goes regardless of how the transport call ends.
	defer os.Remove(photoPath)

	if err := h.Mailer.Send(email, photoPath); err != nil {
		h.Log.Error("send email", zap.String("to", email), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Failed to send email",
			"error":   err.Error(),
		})
		return
	}

	h.Log.Info("email sent", zap.String("to", email))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Email sent successfully",
	})
}

// FramesHandler returns the frame catalog so clients can render the
// selection step.
func (h *Handlers) FramesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"frames": h.Catalog.List(),
	})
}

// HealthHandler answers kiosk liveness probes.
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

func (h *Handlers) spoolUpload(file io.Reader) (string, error) {
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(h.UploadDir, uuid.New().String())
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(path)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
