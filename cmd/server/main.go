package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/getapp/slot-reservation/internal/allocator"  // Transactional capacity engine
	"github.com/getapp/slot-reservation/internal/config"     // Internal config loader
	"github.com/getapp/slot-reservation/internal/database"   // MySQL connector
	"github.com/getapp/slot-reservation/internal/handler"    // HTTP handlers
	"github.com/getapp/slot-reservation/internal/middleware" // Cache and rate limiting
	"github.com/getapp/slot-reservation/internal/notify"     // Notification fan-out
	"github.com/getapp/slot-reservation/internal/queue"      // RabbitMQ consumer
	"github.com/getapp/slot-reservation/internal/repository" // DB repositories
	"github.com/getapp/slot-reservation/internal/router"     // Internal router setup
)

func main() {
	// A missing .env is fine in production where the environment is real.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories share the single pooled *sql.DB.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	slots := repository.NewSlotRepo(db)
	bookings := repository.NewBookingRepo(db)
	notifications := repository.NewNotificationRepo(db)

	alloc := allocator.New(users, slots, bookings)
	fanOut := notify.NewFanOut(notifications, cfg.AMQPURL)

	e := echo.New() // Create Echo instance
	e.HideBanner = true

	// Redis-backed rate limiting and response caching.  NewRedisClient
	// returns nil when Redis is unreachable and both middlewares degrade
	// to pass-through in that case.  The rate limiter is global; the
	// response cache keys by route only and is therefore applied solely
	// to the public browse routes inside RegisterPublic.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	userH := handler.NewUserHandler(users)
	slotH := handler.NewSlotHandler(users, slots, alloc, fanOut)
	bookH := handler.NewBookingHandler(users, slots, bookings, alloc, fanOut)
	notifH := handler.NewNotificationHandler(notifications)
	adminH := handler.NewAdminHandler(users, slots, bookings, notifications, alloc, fanOut)

	router.RegisterRoutes(e) // Register application routes
	router.RegisterPublic(e, userH, cacheMW)
	router.RegisterAuth(e, authH, userH, cfg.JWTSecret)
	router.RegisterTrainer(e, slotH, cfg.JWTSecret)
	router.RegisterClient(e, bookH, notifH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Background consumer mirroring capacity-released events from
	// RabbitMQ into the local audit log.  It reconnects on its own and
	// never takes the API down.
	go func() {
		if err := queue.StartCapacityConsumer(cfg.AMQPURL); err != nil {
			log.Printf("capacity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
