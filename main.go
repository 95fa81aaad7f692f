package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bachesrosario/baches-api/app/repository"
	"github.com/bachesrosario/baches-api/internal/pkg/cache"
	"github.com/bachesrosario/baches-api/internal/pkg/database"
	"github.com/bachesrosario/baches-api/internal/pkg/env"
	"github.com/bachesrosario/baches-api/internal/pkg/metrics/counter"
	"github.com/bachesrosario/baches-api/internal/pkg/oauth"
	"github.com/bachesrosario/baches-api/internal/pkg/router"
	"github.com/bachesrosario/baches-api/internal/pkg/upload"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "3001")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	oauth.Setup()
	repository.InitializeFactory(database.GetDB())

	go counter.StartFlusher(time.Minute, log.Printf)

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // multipart uploads carry several photos
	})
	app.Use(recover.New(), logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: env.GetEnv("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Get("/metrics", monitor.New())
	app.Static("/uploads", upload.Dir())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
