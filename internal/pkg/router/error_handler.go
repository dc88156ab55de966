package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/meishibox/meishibox/internal/pkg/apperror"
)

// ErrorHandler maps the application error taxonomy to the API's JSON error
// shapes: 401 responds with an empty object, every other category with an
// empty errors array. Detail is logged, never sent to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		log.Warnf("[Router] Unauthenticated %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{})
	case errors.Is(err, apperror.ErrNotFound):
		return errorBody(c, fiber.StatusNotFound)
	case errors.Is(err, apperror.ErrValidation):
		log.Infof("[Router] Validation failed on %s %s: %v", c.Method(), c.Path(), err)
		return errorBody(c, fiber.StatusUnprocessableEntity)
	case errors.Is(err, apperror.ErrBadParameter):
		return errorBody(c, fiber.StatusBadRequest)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return errorBody(c, fiberErr.Code)
	}

	log.Errorf("[Router] Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return errorBody(c, fiber.StatusInternalServerError)
}

func errorBody(c *fiber.Ctx, status int) error {
	return c.Status(status).JSON(fiber.Map{"errors": []string{}})
}
