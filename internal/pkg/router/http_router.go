package router

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/bachesrosario/baches-api/internal/pkg/broadcast"
	"github.com/bachesrosario/baches-api/internal/pkg/database"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/api/health", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status":     "ok",
			"ws_clients": broadcast.Default().ClientCount(),
		}
		if db := database.GetDB(); db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
				status["status"] = "degraded"
				status["database"] = "unreachable"
			}
		}
		return c.JSON(status)
	})

	// Plain HTTP requests to /ws get a clean 426 instead of a panic.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(broadcast.Default().Handler()))
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
