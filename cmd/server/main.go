package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chronica/backend/internal/config"
	"github.com/chronica/backend/internal/database"
	"github.com/chronica/backend/internal/handlers"
	"github.com/chronica/backend/internal/middleware"
	"github.com/chronica/backend/internal/services"
	"github.com/chronica/backend/internal/storage"
	"github.com/chronica/backend/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	geoClient := services.NewGeoIPClient(cfg.GeoIP)
	mediaService := services.NewMediaService(storageClient)
	timelineService := services.NewTimelineService(db)
	eventService := services.NewEventService(db, mediaService)

	authHandler := handlers.NewAuthHandler(db, geoClient)
	timelinesHandler := handlers.NewTimelinesHandler(timelineService)
	eventsHandler := handlers.NewEventsHandler(eventService)
	usersHandler := handlers.NewUsersHandler(db)

	identity := middleware.NewIdentityMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 50 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)

	timelineRoutes := api.Group("/timelines", identity.RequireIdentity)
	timelineRoutes.Get("/", timelinesHandler.List)
	timelineRoutes.Post("/", timelinesHandler.Create)

	eventRoutes := api.Group("/events", identity.RequireIdentity)
	eventRoutes.Get("/", eventsHandler.List)
	eventRoutes.Post("/", eventsHandler.Create)
	eventRoutes.Put("/:eventId", eventsHandler.Update)
	eventRoutes.Delete("/:eventId", eventsHandler.Delete)

	userRoutes := api.Group("/users", identity.RequireIdentity, middleware.SuperAdminOnly)
	userRoutes.Post("/", usersHandler.Create)
	userRoutes.Put("/:email", usersHandler.Update)
	userRoutes.Delete("/:email", usersHandler.Delete)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
