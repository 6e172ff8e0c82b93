package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/deepika/ticketvelo/internal/booking"
	"github.com/deepika/ticketvelo/internal/config"
	"github.com/deepika/ticketvelo/internal/database"
	"github.com/deepika/ticketvelo/internal/handler"
	"github.com/deepika/ticketvelo/internal/lock"
	"github.com/deepika/ticketvelo/internal/queue"
	"github.com/deepika/ticketvelo/internal/repository"
	"github.com/deepika/ticketvelo/internal/router"
	"github.com/deepika/ticketvelo/internal/seed"
)

func main() {
	// Load .env when present; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		// Seat locks live in Redis; without it every purchase would
		// fail closed, so refuse to start instead.
		log.Fatal("redis: connection failed, lock coordinator unavailable")
	}

	venueRepo := repository.NewVenueRepo(db)
	eventRepo := repository.NewEventRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	ticketRepo := repository.NewTicketRepo(db)

	if cfg.SeedOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := seed.Run(ctx, venueRepo, eventRepo, seatRepo, ticketRepo); err != nil {
			log.Fatalf("seed: %v", err)
		}
		cancel()
	}

	engine := booking.NewEngine(
		ticketRepo,
		lock.NewRedisCoordinator(rdb),
		queue.NewPublisher(),
		time.Duration(cfg.LockTTLSec)*time.Second,
	)

	// Notification worker: consumes ticket.confirmed independently of
	// the request path.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket-consumer: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e, cfg, rdb,
		handler.NewAuthHandler(cfg),
		handler.NewCatalogHandler(venueRepo, eventRepo, seatRepo, ticketRepo),
		handler.NewBookingHandler(engine),
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
