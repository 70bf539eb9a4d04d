// Package server exposes the aggregation pipeline, the stored postings and
// the matching engine over HTTP.
package server

import (
	"errors"

	apperrors "jobby/internal/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// New builds the fiber app with the shared middleware chain. Routes are
// registered separately by the Handler.
func New() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "jobby",
		ErrorHandler: errorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	} else {
		switch apperrors.TypeOf(err) {
		case apperrors.ErrTypeInvalidRecord, apperrors.ErrTypeInvalidConfig:
			code = fiber.StatusBadRequest
		case apperrors.ErrTypeNotFound:
			code = fiber.StatusNotFound
		case apperrors.ErrTypeSourceUnavailable:
			code = fiber.StatusBadGateway
		}
	}

	message := err.Error()
	if message == "" {
		message = "Internal Server Error"
	}

	return c.Status(code).JSON(fiber.Map{"detail": message})
}
