package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/deepika/ticketvelo/internal/config"
	"github.com/deepika/ticketvelo/internal/handler"
	"github.com/deepika/ticketvelo/internal/middleware"
)

// RegisterRoutes wires every endpoint of the service onto the provided
// Echo instance.
//
//	GET  /healthz                      – liveness probe
//	POST /v1/auth/guest                – issue a guest buyer token
//	POST /v1/catalog/venues            – create a venue (+ optional seat grid)
//	POST /v1/catalog/events            – create an event, provision tickets
//	GET  /v1/catalog/events            – list events
//	GET  /v1/catalog/venues/:id/seats  – seat layout of a venue
//	POST /v1/bookings                  – purchase seats (JWT, rate limited)
//	GET  /v1/bookings/event/:id        – tickets of an event (?sold=true)
func RegisterRoutes(e *echo.Echo, cfg config.Config, rdb *redis.Client, a *handler.AuthHandler, cat *handler.CatalogHandler, b *handler.BookingHandler) {
	e.GET("/healthz", handler.Health)

	e.POST("/v1/auth/guest", a.GuestLogin)

	// Catalog: plain create/read, no auth in this deployment – the
	// catalog is operated by trusted tooling, not end users.
	catalog := e.Group("/v1/catalog")
	catalog.POST("/venues", cat.CreateVenue)
	catalog.POST("/events", cat.CreateEvent)
	catalog.GET("/events", cat.ListEvents)
	catalog.GET("/venues/:id/seats", cat.ListVenueSeats)

	// Bookings: purchases need an authenticated buyer and sit behind
	// the distributed rate limiter so scripted seat grabbing hits the
	// 429 wall before the lock coordinator.
	bookings := e.Group("/v1/bookings")
	bookings.Use(middleware.JWTAuth(cfg.JWTSecret))
	bookings.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	bookings.POST("", b.Purchase)
	bookings.GET("/event/:id", b.ListEventTickets)
}
