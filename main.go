package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"chessclass/config"
	"chessclass/database"
	"chessclass/database/seeders"
	"chessclass/middleware"
	"chessclass/routes"
	"chessclass/services"
	"chessclass/services/websocket"
	"chessclass/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadConfig()
	setupLogging()

	store, err := database.Open(config.AppConfig)
	if err != nil {
		log.Fatal("Failed to open record store:", err)
	}
	defer store.Close()

	if config.AppConfig.SeedDemo {
		if err := seeders.SeedAll(store); err != nil {
			log.Printf("Demo seeding failed: %v", err)
		}
	}

	wsHub := websocket.NewHub()
	go wsHub.Run()

	var archiver services.Archiver
	if config.AppConfig.S3Enabled() {
		s3Storage, err := storage.NewStorageService()
		if err != nil {
			logrus.WithError(err).Warn("Report archive disabled")
		} else {
			archiver = s3Storage
		}
	}

	svc := services.NewContainer(config.AppConfig, store, wsHub, archiver, nil)

	var backup *services.BackupService
	if config.AppConfig.BackupCron != "" && config.AppConfig.StoreDriver == config.StoreWorkbook {
		if !config.AppConfig.S3Enabled() {
			logrus.Warn("BACKUP_CRON is set but S3 is not configured; backups disabled")
		} else if backup, err = services.NewBackupService(config.AppConfig); err != nil {
			logrus.WithError(err).Warn("Workbook backups disabled")
		} else if err := backup.Start(config.AppConfig.BackupCron); err != nil {
			log.Fatal(err)
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.LogActivityMiddleware())

	routes.SetupRoutes(app, svc, wsHub)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "Route not found",
			"path":   c.Path(),
			"method": c.Method(),
		})
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down")
		if backup != nil {
			backup.Stop()
		}
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", config.AppConfig.Port)
	log.Printf("Environment: %s, store: %s", config.AppConfig.AppEnv, config.AppConfig.StoreDriver)
	if middleware.AuthDisabled() {
		log.Println("ADMIN_PASSWORD_HASH is empty: API authentication is disabled")
	}

	if err := app.Listen(":" + config.AppConfig.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// setupLogging configures the logging system
func setupLogging() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(config.AppConfig.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	// stdout in development, file otherwise
	if config.AppConfig.AppEnv == "development" || config.AppConfig.LogFile == "" {
		logrus.SetOutput(os.Stdout)
		return
	}
	if err := os.MkdirAll(filepath.Dir(config.AppConfig.LogFile), 0755); err != nil {
		log.Printf("Warning: Could not create log directory: %v", err)
	}
	file, err := os.OpenFile(config.AppConfig.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		logrus.SetOutput(file)
	}
}

// customErrorHandler handles application errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	logrus.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Path(),
		"method": c.Method(),
		"ip":     c.IP(),
		"status": code,
	}).Error("Request error")

	return c.Status(code).JSON(fiber.Map{
		"error":  message,
		"code":   code,
		"path":   c.Path(),
		"method": c.Method(),
	})
}
