package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/pipesched/pkg/persistence"
	"github.com/dukex/pipesched/pkg/schedule"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	persistence persistence.Persistence
	logger      *slog.Logger
	opts        []schedule.Option
}

func NewAPIHandlers(p persistence.Persistence, logger *slog.Logger, opts ...schedule.Option) *APIHandlers {
	return &APIHandlers{persistence: p, logger: logger, opts: opts}
}

func (h *APIHandlers) ListSchedules(c fiber.Ctx) error {
	names, err := h.persistence.Schedules(c.Context())
	if err != nil {
		return handlePersistenceError(c, err)
	}

	if names == nil {
		names = []string{}
	}

	return c.JSON(ScheduleList{Schedules: names, TotalCount: len(names)})
}

func (h *APIHandlers) GetSchedule(c fiber.Ctx) error {
	s, err := h.persistence.ScheduleByName(c.Context(), c.Params("name"), h.opts...)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(NewScheduleView(s))
}

// ValidateSchedule runs the structural checks and lists every problem found.
func (h *APIHandlers) ValidateSchedule(c fiber.Ctx) error {
	s, err := h.persistence.ScheduleByName(c.Context(), c.Params("name"), h.opts...)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	result := ValidationResult{Name: s.Name(), Valid: true, Problems: []string{}}

	if err := s.Validate(); err != nil {
		result.Valid = false
		result.Problems = problemsOf(err)
	}

	return c.JSON(result)
}

func problemsOf(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}

		return out
	}

	return []string{err.Error()}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "pipesched is healthy"
	httpStatus := http.StatusOK
	repository := "ok"

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		h.logger.WarnContext(c.Context(), "health check failed", "error", err)

		status = "unhealthy"
		message = "pipesched is unhealthy"
		httpStatus = http.StatusInternalServerError
		repository = err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repository,
		},
		"timestamp": time.Now().UTC(),
	})
}
