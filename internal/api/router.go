package api

import (
	"github.com/gorilla/mux"
)

// NewRouter wires the delivery service routes.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthHandler).Methods("GET")
	r.HandleFunc("/frames", h.FramesHandler).Methods("GET")
	r.HandleFunc("/deliver", h.DeliverHandler).Methods("POST")
	return r
}
