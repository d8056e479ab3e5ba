package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"clipstudio/editor-gateway/config"
	"clipstudio/editor-gateway/handlers"
	"clipstudio/editor-gateway/internal/mediaclient"
	"clipstudio/editor-gateway/middleware"
	"clipstudio/editor-gateway/session"
)

func main() {
	cfg := config.Load()
	config.InitLogger(cfg.LogLevel)
	log := config.Log

	transport := mediaclient.New(cfg.BackendURL, log)
	ctrl := session.NewController(transport, log)

	// Preload the catalog; a cold backend just means an empty sidebar.
	bootCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ctrl.Bootstrap(bootCtx); err != nil {
		log.Warnf("Starting with an empty video catalog: %v", err)
	}
	cancel()

	app := fiber.New(fiber.Config{
		BodyLimit: 2 * 1024 * 1024 * 1024, // large uploads go through the gateway
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Editor gateway is healthy",
		})
	})

	h := handlers.NewApplicationHandler(ctrl, log)

	apiV1 := app.Group("/api/v1")

	// Video catalog and import
	apiV1.Get("/videos", h.ListVideos)
	apiV1.Post("/videos/upload", h.UploadVideo)
	apiV1.Post("/videos/:videoId/select", h.SelectVideo)

	// Session state and analysis
	apiV1.Get("/session", h.GetSession)
	apiV1.Post("/session/analyze", h.Analyze)
	apiV1.Get("/session/presets", h.ListPresets)
	apiV1.Post("/session/prompt", h.SetPrompt)
	apiV1.Post("/session/prompt/derive", h.DerivePrompt)
	apiV1.Post("/session/export", h.Export)

	// Clip collection and selection
	apiV1.Get("/session/clips", h.ListClips)
	apiV1.Post("/session/clips/:clipId/toggle", h.ToggleClip)
	apiV1.Post("/session/clips/:clipId/click", h.ClickClip)
	apiV1.Post("/session/clips/:clipId/preview", h.PreviewClip)
	apiV1.Delete("/session/clips/:clipId", h.DeleteClip)

	// Timeline and playback synchronization
	apiV1.Get("/session/timeline", h.GetTimeline)
	apiV1.Post("/session/seek", h.Seek)
	apiV1.Post("/session/playback", h.ReportPlayback)

	log.Infof("Starting editor gateway on %s (backend %s)", cfg.ListenAddr, cfg.BackendURL)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
