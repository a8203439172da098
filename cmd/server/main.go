package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/barberia/reservation-backend/internal/config"
	"github.com/barberia/reservation-backend/internal/database"
	"github.com/barberia/reservation-backend/internal/handler"
	"github.com/barberia/reservation-backend/internal/queue"
	"github.com/barberia/reservation-backend/internal/repository"
	"github.com/barberia/reservation-backend/internal/router"
	"github.com/barberia/reservation-backend/internal/service"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	// Two independently-owned stores: accounts and scheduling.
	accountsDB, err := database.Open(cfg.AccountsDB)
	if err != nil {
		log.Fatalf("open accounts db: %v", err)
	}
	schedulingDB, err := database.Open(cfg.SchedulingDB)
	if err != nil {
		log.Fatalf("open scheduling db: %v", err)
	}

	// Redis backs caching and rate limiting; nil disables both.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}

	userRepo := repository.NewUserRepo(accountsDB)
	tokenRepo := repository.NewTokenRepo(accountsDB)
	barberRepo := repository.NewBarberRepo(schedulingDB)
	slotRepo := repository.NewSlotRepo(schedulingDB)
	reservationRepo := repository.NewReservationRepo(schedulingDB)

	ficket := service.NewFicketGenerator(reservationRepo, cfg.FicketDelay)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	bookingHandler := handler.NewBookingHandler(slotRepo, barberRepo, reservationRepo, ficket)
	adminResHandler := handler.NewAdminReservationHandler(slotRepo, barberRepo, reservationRepo, userRepo)
	adminUserHandler := handler.NewAdminUserHandler(cfg, userRepo, tokenRepo)

	// Background consumer logs confirmed reservations; it reconnects on
	// its own and never stops the server.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterPublic(e, bookingHandler, rdb)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterBooking(e, bookingHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminResHandler, adminUserHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
