package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deepika/ticketvelo/internal/model"
	"github.com/deepika/ticketvelo/internal/repository"
)

// CatalogHandler exposes the plain create/read operations for venues,
// events and seats.  The catalog owns seat identities and provisions
// the ticket inventory; it contains no concurrency logic of its own –
// all contended mutation happens in the booking engine.
type CatalogHandler struct {
	Venues  *repository.VenueRepo
	Events  *repository.EventRepo
	Seats   *repository.SeatRepo
	Tickets *repository.TicketRepo
}

// NewCatalogHandler constructs a CatalogHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewCatalogHandler(venues *repository.VenueRepo, events *repository.EventRepo, seats *repository.SeatRepo, tickets *repository.TicketRepo) *CatalogHandler {
	if venues == nil || events == nil || seats == nil || tickets == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Venues: venues, Events: events, Seats: seats, Tickets: tickets}
}

type createVenueReq struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Capacity    uint32 `json:"capacity"`
	Rows        uint32 `json:"rows"`
	SeatsPerRow uint32 `json:"seats_per_row"`
}

// CreateVenue handles POST /v1/catalog/venues.  When rows and
// seats_per_row are given, the seat grid is provisioned in the same
// request with generic row labels ("Row-1".."Row-N").
func (h *CatalogHandler) CreateVenue(c echo.Context) error {
	var req createVenueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v := model.Venue{Name: req.Name, Address: req.Address, Capacity: req.Capacity}
	if err := h.Venues.Create(ctx, &v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create venue failed"})
	}

	var seatCount int
	if req.Rows > 0 && req.SeatsPerRow > 0 {
		seats := make([]model.Seat, 0, req.Rows*req.SeatsPerRow)
		for i := uint32(1); i <= req.Rows; i++ {
			for j := uint32(1); j <= req.SeatsPerRow; j++ {
				seats = append(seats, model.Seat{
					VenueID:    v.ID,
					RowLabel:   "Row-" + strconv.FormatUint(uint64(i), 10),
					SeatNumber: j,
					Section:    "General",
					IsActive:   true,
				})
			}
		}
		if err := h.Seats.CreateBulk(ctx, seats); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seats failed"})
		}
		seatCount = len(seats)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"venue":         venueView(v),
		"seats_created": seatCount,
	})
}

type createEventReq struct {
	VenueID  uint64    `json:"venue_id"`
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
}

// CreateEvent handles POST /v1/catalog/events.  Creating an event
// provisions one AVAILABLE, version-0 ticket per active seat of the
// venue, which is the only way tickets come into existence.
func (h *CatalogHandler) CreateEvent(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.VenueID == 0 || req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id and title are required"})
	}
	if req.StartsAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Venues.GetByID(ctx, req.VenueID); err != nil {
		if err == repository.ErrVenueNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	seats, err := h.Seats.ListActiveByVenue(ctx, req.VenueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load seats failed"})
	}
	seatIDs := make([]uint64, 0, len(seats))
	for _, s := range seats {
		seatIDs = append(seatIDs, s.ID)
	}

	// Event row and ticket inventory commit together; an event that
	// exists without its tickets would be unsellable.
	e := model.Event{VenueID: req.VenueID, Title: req.Title, StartsAt: req.StartsAt}
	if err := h.Events.CreateWithInventory(ctx, &e, seatIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"event":               eventView(e),
		"tickets_provisioned": len(seatIDs),
	})
}

// ListEvents handles GET /v1/catalog/events.
func (h *CatalogHandler) ListEvents(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(events))
	for _, e := range events {
		out = append(out, eventView(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// ListVenueSeats handles GET /v1/catalog/venues/:id/seats.
func (h *CatalogHandler) ListVenueSeats(c echo.Context) error {
	venueID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || venueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Venues.GetByID(ctx, venueID); err != nil {
		if err == repository.ErrVenueNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	seats, err := h.Seats.ListByVenue(ctx, venueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(seats))
	for _, s := range seats {
		out = append(out, echo.Map{
			"id":          s.ID,
			"row_label":   s.RowLabel,
			"seat_number": s.SeatNumber,
			"section":     s.Section,
			"is_active":   s.IsActive,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": out})
}

func venueView(v model.Venue) echo.Map {
	return echo.Map{
		"id":       v.ID,
		"name":     v.Name,
		"address":  v.Address,
		"capacity": v.Capacity,
	}
}

func eventView(e model.Event) echo.Map {
	return echo.Map{
		"id":        e.ID,
		"venue_id":  e.VenueID,
		"title":     e.Title,
		"starts_at": e.StartsAt.UTC().Format(time.RFC3339),
	}
}
