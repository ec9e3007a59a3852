package routes

import (
	"github.com/darren/kanbo-api/internal/handlers"
	"github.com/darren/kanbo-api/internal/middleware"
	"github.com/darren/kanbo-api/internal/realtime"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Get("/users", handlers.GetUsers)

	projects := protected.Group("/projects")
	projects.Get("/", handlers.GetProjects)
	projects.Post("/", handlers.CreateProject)
	projects.Get("/:id", handlers.GetProject)
	projects.Post("/:id/transfer-ownership", handlers.TransferOwnership)

	// Project memberships
	projects.Get("/:id/members", handlers.GetProjectMembers)
	projects.Post("/:id/members", handlers.CreateProjectMembership)
	projects.Get("/:id/permissions", handlers.GetProjectPermissions)

	protected.Patch("/project-memberships/:id", handlers.UpdateProjectMembership)
	protected.Delete("/project-memberships/:id", handlers.DeleteProjectMembership)

	// Boards
	projects.Post("/:id/boards", handlers.CreateBoard)
	projects.Get("/:id/boards", handlers.GetBoards)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllRead)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)

	// WebSocket for real-time membership updates
	app.Use("/ws", realtime.Upgrade())
	app.Get("/ws", websocket.New(realtime.Handle))
}
