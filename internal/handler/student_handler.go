package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unims-go-api/internal/dto"
	"github.com/noah-isme/unims-go-api/internal/service"
	"github.com/noah-isme/unims-go-api/internal/utils"
)

// StudentHandler wires the student registry endpoints.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes to the router group. The write limiter, if
// provided, guards the mutating routes only.
func (h *StudentHandler) Register(router fiber.Router, writeLimiter fiber.Handler) {
	if writeLimiter == nil {
		writeLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Get("", h.list)
	router.Get("/me", h.current)
	router.Get("/:id", h.detail)
	router.Get("/:id/enrollments", h.enrollments)
	router.Post("", writeLimiter, h.create)
	router.Put("/:id", writeLimiter, h.update)
	router.Delete("/:id", writeLimiter, h.remove)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	students, err := h.service.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list students")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list students")
	}

	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *StudentHandler) current(c *fiber.Ctx) error {
	identity := callerIdentityFromContext(c)

	student, err := h.service.CurrentStudent(c.Context(), identity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIdentityMissing):
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		case errors.Is(err, service.ErrEmailNotConfirmed):
			// Displayable condition, not an HTTP-level error.
			return utils.Fail(c, fiber.StatusOK, "email not confirmed", nil)
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "no student record for this account")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to resolve current student")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve current student")
		}
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	student, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch student")
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) enrollments(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	enrollments, err := h.service.Enrollments(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list enrollments")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list enrollments")
	}

	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.writeError(c, err, "failed to create student")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student was added successfully", student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.StudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.writeError(c, err, "failed to update student")
	}

	return utils.SendSuccess(c, "student was updated successfully", student)
}

func (h *StudentHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete student")
	}

	// Deleting an absent student still reports success; the operation is
	// idempotent on absence.
	return utils.SendSuccess(c, "student was deleted successfully", fiber.Map{"student_id": id})
}

func (h *StudentHandler) writeError(c *fiber.Ctx, err error, logMessage string) error {
	var validationErr *service.ValidationError

	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrDuplicateEmail):
		return utils.Fail(c, fiber.StatusConflict, service.ErrDuplicateEmail.Error(), nil)
	case errors.As(err, &validationErr):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", fiber.Map{
			"errors":    validationErr.Fields,
			"candidate": validationErr.Candidate,
		})
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(logMessage)
		return utils.SendError(c, fiber.StatusInternalServerError, logMessage)
	}
}
