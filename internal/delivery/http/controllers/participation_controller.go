package controllers

import (
	"log/slog"
	"net/http"

	"clubevents/internal/delivery/http/helpers"
	"clubevents/internal/delivery/http/middleware"
	"clubevents/internal/domain"
)

// ParticipationRequest is the request body for apply and reapply. The body may be omitted,
// which means no parking is requested.
type ParticipationRequest struct {
	Parking bool `json:"parking"`
}

// ParticipantSuccessResponse is the success response envelope for participation endpoints.
type ParticipantSuccessResponse struct {
	Data  *domain.Participant `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// WaitlistPositionResponse carries the 1-based waitlist position; position is null when the
// participant is not waiting for a seat.
type WaitlistPositionResponse struct {
	ParticipantID string `json:"participant_id"`
	Position      *int   `json:"position"`
}

// WaitlistPositionSuccessResponse is the success response envelope for the waitlist position (200).
type WaitlistPositionSuccessResponse struct {
	Data  WaitlistPositionResponse `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// ListWaitlistResponse is one page of an event's waitlist.
type ListWaitlistResponse struct {
	Items      []*domain.WaitlistEntry `json:"items"`
	Pagination helpers.PaginationMeta  `json:"pagination"`
}

// ListWaitlistSuccessResponse is the success response envelope for GET /events/{eventID}/waitlist (200).
type ListWaitlistSuccessResponse struct {
	Data  ListWaitlistResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ReallocateSuccessResponse is the success response envelope for POST /events/{eventID}/reallocate (200).
// data lists the participants whose seat or parking outcome changed.
type ReallocateSuccessResponse struct {
	Data  []*domain.Participant `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type ParticipationController struct {
	Logger  *slog.Logger
	Service domain.AdmissionService
	Members domain.MemberService
}

func NewParticipationController(logger *slog.Logger, svc domain.AdmissionService, members domain.MemberService) *ParticipationController {
	return &ParticipationController{
		Logger:  logger,
		Service: svc,
		Members: members,
	}
}

// Apply godoc
// @Summary Apply to an event
// @Description Applies the authenticated user to the event and returns the seat and parking outcome. Applying again while an application is active re-evaluates it.
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param request body ParticipationRequest false "Parking request"
// @Success 201 {object} controllers.ParticipantSuccessResponse "new application"
// @Success 200 {object} controllers.ParticipantSuccessResponse "existing application re-evaluated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants [post]
func (c *ParticipationController) Apply(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ParticipationRequest
	if !helpers.DecodeOptionalAndValidate(w, r, &req) {
		return
	}
	if _, err := c.Members.EnsureMember(r.Context(), claims); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	p, created, err := c.Service.Apply(r.Context(), eventID, claims.UserID, req.Parking)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, p)
}

// Reapply godoc
// @Summary Re-evaluate a participation
// @Description Recomputes seat and parking for the caller's active participation with a new parking request.
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param participantID path string true "Participant ID (UUID)"
// @Param request body ParticipationRequest false "Parking request"
// @Success 200 {object} controllers.ParticipantSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /participants/{participantID}/reapply [post]
func (c *ParticipationController) Reapply(w http.ResponseWriter, r *http.Request) {
	participantID, ok := pathUUID(w, r, "participantID")
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ParticipationRequest
	if !helpers.DecodeOptionalAndValidate(w, r, &req) {
		return
	}
	p, err := c.Service.Reapply(r.Context(), participantID, userID, req.Parking)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// Cancel godoc
// @Summary Cancel a participation
// @Description Cancels the caller's participation and releases its seat and parking slot.
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param participantID path string true "Participant ID (UUID)"
// @Success 200 {object} controllers.ParticipantSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /participants/{participantID}/cancel [post]
func (c *ParticipationController) Cancel(w http.ResponseWriter, r *http.Request) {
	participantID, ok := pathUUID(w, r, "participantID")
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	p, err := c.Service.Cancel(r.Context(), participantID, userID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// Invalidate godoc
// @Summary Invalidate a participation
// @Description Administratively terminates a participation. Requires the admin role.
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param participantID path string true "Participant ID (UUID)"
// @Success 200 {object} controllers.ParticipantSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /participants/{participantID}/invalidate [post]
func (c *ParticipationController) Invalidate(w http.ResponseWriter, r *http.Request) {
	participantID, ok := pathUUID(w, r, "participantID")
	if !ok {
		return
	}
	p, err := c.Service.Invalidate(r.Context(), participantID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// WaitlistPosition godoc
// @Summary Get a participant's waitlist position
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param participantID path string true "Participant ID (UUID)"
// @Success 200 {object} controllers.WaitlistPositionSuccessResponse "position is null when not waitlisted"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants/{participantID}/waitlist-position [get]
func (c *ParticipationController) WaitlistPosition(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	participantID, ok := pathUUID(w, r, "participantID")
	if !ok {
		return
	}
	position, waiting, err := c.Service.WaitlistPositionFor(r.Context(), eventID, participantID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	resp := WaitlistPositionResponse{ParticipantID: participantID}
	if waiting {
		resp.Position = &position
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, resp)
}

// ListWaitlist godoc
// @Summary List an event's waitlist
// @Description Pending participants in waitlist order with their positions.
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListWaitlistSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/waitlist [get]
func (c *ParticipationController) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	entries, total, err := c.Service.ListWaitlist(r.Context(), eventID, params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if entries == nil {
		entries = []*domain.WaitlistEntry{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListWaitlistResponse{
		Items:      entries,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// Reallocate godoc
// @Summary Re-run allocation for an event
// @Description Walks the waitlist in order, promoting into free seats and granting freed parking slots. Requires the admin role.
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ReallocateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/reallocate [post]
func (c *ParticipationController) Reallocate(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	changed, err := c.Service.Reallocate(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if changed == nil {
		changed = []*domain.Participant{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, changed)
}
