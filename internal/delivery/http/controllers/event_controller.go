package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"clubevents/internal/delivery/http/helpers"
	"clubevents/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Name            string `json:"name"`
	Date            string `json:"date"`
	SeatCapacity    *int   `json:"seat_capacity"`
	ParkingCapacity *int   `json:"parking_capacity"`
}

// Validate implements Validator. Returns error messages for required and format rules.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	if c.Date == "" {
		errs = append(errs, "date is required")
	} else if _, err := time.Parse(domain.EventDateLayout, c.Date); err != nil {
		errs = append(errs, "date must be YYYY-MM-DD")
	}
	return append(errs, validateCapacities(c.SeatCapacity, c.ParkingCapacity)...)
}

// UpdateCapacityRequest is the request body for PATCH /events/{eventID}/capacity.
// Both capacities are replaced; null means the pool does not exist.
type UpdateCapacityRequest struct {
	SeatCapacity    *int `json:"seat_capacity"`
	ParkingCapacity *int `json:"parking_capacity"`
}

// Validate implements Validator.
func (u UpdateCapacityRequest) Validate() []string {
	return validateCapacities(u.SeatCapacity, u.ParkingCapacity)
}

func validateCapacities(seat, parking *int) []string {
	var errs []string
	if seat != nil && *seat < 0 {
		errs = append(errs, "seat_capacity must be >= 0")
	}
	if parking != nil && *parking < 0 {
		errs = append(errs, "parking_capacity must be >= 0")
	}
	return errs
}

// EventResponse is the wire form of an event; date is a calendar day.
// swagger:model EventResponse
type EventResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Date            string    `json:"date" example:"2026-04-01"`
	SeatCapacity    *int      `json:"seat_capacity"`
	ParkingCapacity *int      `json:"parking_capacity"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newEventResponse(e *domain.Event) EventResponse {
	return EventResponse{
		ID:              e.ID,
		Name:            e.Name,
		Date:            e.Date.Format(domain.EventDateLayout),
		SeatCapacity:    e.SeatCapacity,
		ParkingCapacity: e.ParkingCapacity,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// EventSuccessResponse is the success response envelope for event endpoints.
type EventSuccessResponse struct {
	Data  EventResponse     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventSummarySuccessResponse is the success response envelope for GET /events/{eventID}/summary (200).
type EventSummarySuccessResponse struct {
	Data  domain.EventSummary `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type EventController struct {
	Logger    *slog.Logger
	Service   domain.EventService
	Admission domain.AdmissionService
}

func NewEventController(logger *slog.Logger, svc domain.EventService, admission domain.AdmissionService) *EventController {
	return &EventController{
		Logger:    logger,
		Service:   svc,
		Admission: admission,
	}
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Create a club event with its calendar day and optional seat and parking capacities. Requires the admin role.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	date, _ := time.Parse(domain.EventDateLayout, req.Date)
	now := time.Now()
	event := domain.NewEvent(req.Name, date, req.SeatCapacity, req.ParkingCapacity, now, now)
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, newEventResponse(event))
}

// GetEvent godoc
// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, newEventResponse(event))
}

// UpdateCapacity godoc
// @Summary Replace an event's capacities
// @Description Sets seat_capacity and parking_capacity. Existing allocations are kept; later decisions see the new values. Requires the admin role.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param capacity body UpdateCapacityRequest true "New capacities"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/capacity [patch]
func (c *EventController) UpdateCapacity(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateCapacityRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateCapacity(r.Context(), eventID, req.SeatCapacity, req.ParkingCapacity)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, newEventResponse(event))
}

// Summary godoc
// @Summary Get an event's capacity summary
// @Description Seat and parking usage, waitlist length and the lottery deadline of an event.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSummarySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/summary [get]
func (c *EventController) Summary(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	summary, err := c.Admission.Summary(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summary)
}

// pathUUID reads a UUID path value, answering 400 when it is missing or malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.PathValue(name)
	if v == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	if _, err := uuid.Parse(v); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return v, true
}
