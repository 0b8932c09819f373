package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"clubevents/internal/delivery/http/controllers"
	"clubevents/internal/delivery/http/middleware"
	"clubevents/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	eventController *controllers.EventController,
	participationController *controllers.ParticipationController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(verifier, logger)
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleAdmin)(next))
	}

	// Events
	mux.HandleFunc("POST /events", admin(eventController.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", auth(eventController.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}/capacity", admin(eventController.UpdateCapacity))
	mux.HandleFunc("GET /events/{eventID}/summary", auth(eventController.Summary))

	// Participation
	mux.HandleFunc("POST /events/{eventID}/participants", auth(participationController.Apply))
	mux.HandleFunc("GET /events/{eventID}/participants/{participantID}/waitlist-position", auth(participationController.WaitlistPosition))
	mux.HandleFunc("GET /events/{eventID}/waitlist", auth(participationController.ListWaitlist))
	mux.HandleFunc("POST /events/{eventID}/reallocate", admin(participationController.Reallocate))
	mux.HandleFunc("POST /participants/{participantID}/reapply", auth(participationController.Reapply))
	mux.HandleFunc("POST /participants/{participantID}/cancel", auth(participationController.Cancel))
	mux.HandleFunc("POST /participants/{participantID}/invalidate", admin(participationController.Invalidate))

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
