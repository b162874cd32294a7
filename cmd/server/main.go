package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/Mr-Fulani/class-booking-api/internal/config"
	"github.com/Mr-Fulani/class-booking-api/internal/database"
	"github.com/Mr-Fulani/class-booking-api/internal/gateway"
	"github.com/Mr-Fulani/class-booking-api/internal/handler"
	"github.com/Mr-Fulani/class-booking-api/internal/middleware"
	"github.com/Mr-Fulani/class-booking-api/internal/queue"
	"github.com/Mr-Fulani/class-booking-api/internal/repository"
	"github.com/Mr-Fulani/class-booking-api/internal/router"
	"github.com/Mr-Fulani/class-booking-api/internal/service"
)

func main() {
	// Load .env if present; in production the variables come from the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; rate limiting and response caching degrade to
	// no-ops when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and caching disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	classes := repository.NewClassRepo(db)
	bookings := repository.NewBookingRepo(db)
	payments := repository.NewPaymentRepo(db)
	audit := repository.NewAuditRepo(db)

	// Services.
	recorder := service.NewRecorder(audit)
	window := service.NewRateWindow(audit)
	policy := service.DefaultAbusePolicy()

	var notifier service.Notifier
	if cfg.RabbitURL != "" {
		notifier = queue.NewPublisher(cfg.RabbitURL)
		go func() {
			if err := queue.StartBookingConsumer(cfg.RabbitURL); err != nil {
				log.Printf("booking consumer stopped: %v", err)
			}
		}()
	} else {
		log.Println("RABBITMQ_URL not set, booking notifications disabled")
	}
	bookingSvc := service.NewBookingService(bookings, classes, recorder, window, notifier, policy)

	var gw service.Gateway
	if cfg.GatewayURL != "" {
		gw = gateway.New(cfg.GatewayURL, cfg.GatewayKey)
	} else {
		log.Println("PAYMENT_GATEWAY_URL not set, charges will fail as unavailable")
	}
	paymentSvc := service.NewPaymentService(payments, gw, recorder)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens, recorder, window, policy)
	classH := handler.NewClassHandler(classes, bookingSvc)
	bookingH := handler.NewBookingHandler(bookingSvc, bookings)
	adminH := handler.NewAdminHandler(users, classes, bookings, payments, audit, recorder)
	paymentH := handler.NewPaymentHandler(paymentSvc, payments)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, classH, cache)
	router.RegisterBooking(e, bookingH, cfg.JWTSecret)
	router.RegisterPayments(e, paymentH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
