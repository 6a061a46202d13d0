package main // Entry point package

import (
	"log"  // Logging library
	"os"   // Environment access for the broker URL
	"time" // Durations for the seat lock TTL

	"github.com/joho/godotenv" // Loads .env files in development
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-booking/internal/config"   // Internal config loader
	"github.com/iliyamo/ticket-booking/internal/database" // MySQL connection pool
	"github.com/iliyamo/ticket-booking/internal/handler"
	"github.com/iliyamo/ticket-booking/internal/lock"
	"github.com/iliyamo/ticket-booking/internal/payment"
	"github.com/iliyamo/ticket-booking/internal/queue"
	"github.com/iliyamo/ticket-booking/internal/repository"
	"github.com/iliyamo/ticket-booking/internal/router" // Internal router setup
	"github.com/iliyamo/ticket-booking/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.LockWaitSec)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the advisory seat locks, rate limiting and the response
	// cache.  A nil client is tolerated: the lock manager fails closed and
	// the middleware degrades to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; seat locks fail closed, cache and rate limit disabled")
	}

	subjects := repository.NewSubjectRepo(db)
	bookings := repository.NewBookingRepo(db)
	locks := lock.NewManager(rdb, time.Duration(cfg.SeatLockTTLSec)*time.Second)
	gateway := payment.NewGateway(cfg.PaymentURL, cfg.PaymentKeyID, cfg.PaymentKeySecret)

	txTimeout := time.Duration(cfg.TxTimeoutSec) * time.Second
	coordinator := service.NewBookingCoordinator(db, subjects, bookings, locks, gateway, txTimeout)
	publisher := service.NewTicketPublisher(os.Getenv("RABBITMQ_URL"))
	verifier := service.NewPaymentVerifier(db, subjects, bookings, cfg.PaymentKeySecret, publisher, txTimeout)

	// Ticket issuance consumer runs in-process; it reconnects forever on
	// broker failures and never takes the API down with it.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewSubjectHandler(subjects), handler.NewPaymentHandler(verifier), rdb)
	router.RegisterCustomer(e, handler.NewBookingHandler(coordinator, bookings), handler.NewLockHandler(locks), cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
