package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/config"
	"alfredoptarigan/resume-ats/internal/handlers"
	"alfredoptarigan/resume-ats/internal/logger"
	"alfredoptarigan/resume-ats/internal/repositories"
	"alfredoptarigan/resume-ats/internal/services"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()
	log.Info("✅ Config loaded successfully")

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize database", zap.Error(err))
	}

	docRepo := repositories.NewDocumentRepository(db)
	analysisRepo := repositories.NewAnalysisRepository(db)
	log.Info("✅ Repositories initialized successfully")

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatal("❌ Failed to create upload directory", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resumeParser, geminiService := services.NewResumePipeline(ctx, cfg, log)
	log.Info("✅ Services initialized successfully")

	analysisService := services.NewAnalysisService(analysisRepo, docRepo, storageService, resumeParser, log)

	worker := services.NewWorker(
		analysisRepo,
		analysisService,
		cfg.Worker.Concurrency,
		cfg.Worker.PollInterval,
		log,
	)
	worker.Start(ctx)

	parseHandler := handlers.NewParseHandler(resumeParser, cfg.Storage.MaxFileSize, log)
	uploadHandler := handlers.NewUploadHandler(
		docRepo,
		analysisRepo,
		storageService,
		worker,
		cfg.Storage.MaxFileSize,
		log,
	)
	resultHandler := handlers.NewResultHandler(analysisRepo, log)
	statusHandler := handlers.NewStatusHandler(geminiService)
	log.Info("✅ Handlers initialized")

	app := fiber.New(fiber.Config{
		AppName:      "Resume ATS Parser API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		// base64 payloads are about a third larger than the file
		BodyLimit:    int(cfg.Storage.MaxFileSize) * 2,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/parse", parseHandler.HandleParse)
	api.Post("/parse/ats", parseHandler.HandleAts)
	api.Post("/upload", uploadHandler.HandleUpload)
	api.Get("/result/:id", resultHandler.HandleGetResult)
	api.Get("/parser/status", statusHandler.HandleStatus)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume ATS Parser API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/parse",
				"POST /api/v1/parse/ats",
				"POST /api/v1/upload",
				"GET /api/v1/result/:id",
				"GET /api/v1/parser/status",
				"GET /metrics",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("🛑 Shutting down server...")
		worker.Stop()
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Fatal("❌ Failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
