package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deepika/ticketvelo/internal/booking"
	"github.com/deepika/ticketvelo/internal/model"
)

// PurchaseEngine is the slice of the booking engine the HTTP layer
// needs.  Declared here so handler tests can substitute a fake.
type PurchaseEngine interface {
	Purchase(ctx context.Context, eventID uint64, seatIDs []uint64, buyerID uint64) (*booking.PurchaseResult, error)
	ListSoldForEvent(ctx context.Context, eventID uint64) ([]model.Ticket, error)
	ListForEvent(ctx context.Context, eventID uint64) ([]model.Ticket, error)
}

// BookingHandler is the transport boundary of the booking engine.  It
// parses requests, extracts the authenticated buyer, and maps the
// engine's typed errors to client-visible statuses.  It contains no
// concurrency logic; the engine owns all of it.
type BookingHandler struct {
	Engine PurchaseEngine
}

// NewBookingHandler constructs a BookingHandler around the engine.
func NewBookingHandler(engine PurchaseEngine) *BookingHandler {
	if engine == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: engine}
}

type purchaseReq struct {
	EventID uint64   `json:"event_id"`
	SeatIDs []uint64 `json:"seat_ids"`
}

// Purchase handles POST /v1/bookings.  The request body carries the
// event and the set of seats to buy atomically; the buyer comes from
// the JWT.  On success all requested seats are returned BOOKED; on any
// failure no seat was sold by this call.
func (h *BookingHandler) Purchase(c echo.Context) error {
	buyer, err := buyerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	if len(req.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	result, err := h.Engine.Purchase(ctx, req.EventID, req.SeatIDs, buyer)
	if err != nil {
		return purchaseError(c, err)
	}

	tickets := make([]echo.Map, 0, len(result.Tickets))
	for _, t := range result.Tickets {
		tickets = append(tickets, ticketView(t))
	}
	resp := echo.Map{"tickets": tickets}
	if len(result.PublishFailed) > 0 {
		// The sale is durable; only the confirmation send failed.
		resp["warning"] = "confirmation delivery is delayed for some tickets"
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListEventTickets handles GET /v1/bookings/event/:id.  The optional
// ?sold=true query narrows the listing to BOOKED tickets.
func (h *BookingHandler) ListEventTickets(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var tickets []model.Ticket
	if c.QueryParam("sold") == "true" {
		tickets, err = h.Engine.ListSoldForEvent(ctx, eventID)
	} else {
		tickets, err = h.Engine.ListForEvent(ctx, eventID)
	}
	if err != nil {
		if errors.Is(err, booking.ErrUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service temporarily unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	out := make([]echo.Map, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketView(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": out})
}

// purchaseError maps engine sentinels onto HTTP statuses.  Contention,
// already-booked and version conflicts are all 409s the client should
// retry later; infrastructure trouble is a 503 the client should retry
// with backoff and never read as "seat unavailable".
func purchaseError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrSeatContended),
		errors.Is(err, booking.ErrAlreadyBooked),
		errors.Is(err, booking.ErrVersionConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service temporarily unavailable"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// buyerID extracts the authenticated buyer from the context.  The JWT
// middleware stores the subject claim; numeric claims arrive as
// float64 after JSON decoding.
func buyerID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case float64:
		if v > 0 {
			return uint64(v), nil
		}
	case uint64:
		if v > 0 {
			return v, nil
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, errors.New("no authenticated user")
}

func ticketView(t model.Ticket) echo.Map {
	m := echo.Map{
		"id":       t.ID,
		"event_id": t.EventID,
		"seat_id":  t.SeatID,
		"status":   t.Status,
		"version":  t.Version,
	}
	if t.OwnerID != nil {
		m["owner_id"] = *t.OwnerID
	}
	return m
}
