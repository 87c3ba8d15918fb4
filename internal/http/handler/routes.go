package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"drivebox/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, fileSvc service.FileService, userSvc service.UserService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Post("/upload", UploadFile(fileSvc))
	api.Get("/files", ListFiles(fileSvc))
	api.Get("/files/:id", DownloadFile(fileSvc))
	api.Patch("/files/:id/rename", RenameFile(fileSvc))
	api.Patch("/files/:id/share", ShareFile(fileSvc))
	api.Delete("/files/:id", DeleteFile(fileSvc))
	api.Get("/usage", Usage(fileSvc))
	api.Get("/users/search", SearchUsers(userSvc))
}
