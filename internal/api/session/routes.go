package session

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers coaching session routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/coach-session", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Get("/{id}", h.GetSession)
		r.Post("/{id}/role", h.SelectRole)
		r.Post("/{id}/message", h.SubmitMessage)
		r.Post("/{id}/end", h.EndSession)
		r.Get("/{id}/transcript", h.GetTranscript)
	})
}
