package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/bachesrosario/baches-api/app/controllers"
	"github.com/bachesrosario/baches-api/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))

	// Authentication and account management
	auth := api.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)
	auth.Get("/verify-email", controllers.HandleVerifyEmail)
	auth.Post("/forgot-password", controllers.HandleForgotPassword)
	auth.Post("/reset-password", controllers.HandleResetPassword)
	auth.Get("/google/url", controllers.HandleGoogleAuthURL)
	auth.Get("/google", controllers.HandleGoogleLogin)
	auth.Get("/google/callback", controllers.HandleGoogleCallback)
	auth.Get("/me", middleware.RequireAuth, controllers.HandleGetMe)
	auth.Put("/me", middleware.RequireAuth, controllers.HandleUpdateProfile)

	// Reports and their nested resources
	reports := api.Group("/reports")
	reports.Get("/", controllers.HandleListReports)
	reports.Get("/:id", middleware.OptionalAuth, controllers.HandleGetReport)
	reports.Post("/", middleware.RequireAuth, controllers.HandleCreateReport)
	reports.Put("/:id", middleware.RequireAuth, controllers.HandleUpdateReport)
	reports.Patch("/:id/status", middleware.RequireAuth, controllers.HandleUpdateStatus)
	reports.Post("/:id/vote", middleware.RequireAuth, controllers.HandleVoteReport)
	reports.Get("/:id/comments", controllers.HandleListComments)
	reports.Post("/:id/comments", middleware.RequireAuth, controllers.HandleCreateComment)

	// Moderation and administration
	admin := api.Group("/admin", middleware.RequireAuth, middleware.RequireAdmin)
	admin.Get("/stats", controllers.HandleAdminStats)
	admin.Get("/reports", controllers.HandleAdminListReports)
	admin.Post("/reports/:id/approve", controllers.HandleApproveReport)
	admin.Post("/reports/:id/reject", controllers.HandleRejectReport)
	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Get("/users/:id", controllers.HandleAdminGetUser)
	admin.Put("/users/:id", controllers.HandleAdminUpdateUser)
	admin.Delete("/users/:id", controllers.HandleAdminDeleteUser)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
