package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unims-go-api/internal/models"
	"github.com/noah-isme/unims-go-api/internal/service"
	"github.com/noah-isme/unims-go-api/internal/utils"
)

// SeedHandler exposes tooling endpoints for seeding the student registry.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/students", h.students)
}

type seedStudentsRequest struct {
	Items []models.Student `json:"items"`
}

func (h *SeedHandler) students(c *fiber.Ctx) error {
	token := c.Get("X-Seed-Token")
	var payload seedStudentsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	affected, err := h.service.SeedStudents(c.Context(), token, payload.Items)
	if err != nil {
		switch err {
		case service.ErrSeedDisabled:
			return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
		case service.ErrSeedUnauthorized:
			return utils.SendError(c, fiber.StatusForbidden, "invalid token")
		default:
			h.logger.Error().Err(err).Msg("seed operation failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "seed operation failed")
		}
	}

	return utils.SendSuccess(c, "students seeded", fiber.Map{"affected": affected})
}
