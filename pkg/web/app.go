package web

import (
	"errors"
	"strconv"

	"github.com/dukex/pipesched/pkg/metrics"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewApp wires the status API routes.
func NewApp(h *APIHandlers) *fiber.App {
	app := fiber.New()
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))
	app.Use(countRequests)

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("pipesched")
	})

	app.Get("/health", h.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	s := app.Group("/schedules")
	s.Get("/", h.ListSchedules)
	s.Get("/:name", h.GetSchedule)
	s.Get("/:name/validation", h.ValidateSchedule)

	return app
}

func countRequests(c fiber.Ctx) error {
	err := c.Next()

	path := c.Path()
	if route := c.Route(); route != nil {
		path = route.Path
	}

	status := c.Response().StatusCode()

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	} else if err != nil {
		status = fiber.StatusInternalServerError
	}

	metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()

	return err
}
