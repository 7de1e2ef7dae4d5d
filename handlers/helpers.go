package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tutor-marketplace/services"
	"tutor-marketplace/utils"
)

var validate = validator.New()

// bind decodes the JSON body into dst and validates it. On failure the 400 response is
// already written and bind returns false.
func bind(c *fiber.Ctx, dst interface{}) bool {
	if err := c.BodyParser(dst); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
			"cause": err.Error(),
		})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"cause":  err.Error(),
			"fields": fieldErrors(err),
		})
		return false
	}
	return true
}

func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return out
}

// fail answers a service error with its mapped status.
func fail(c *fiber.Ctx, msg string, err error) error {
	status := services.StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		utils.Logger.Error("[HTTP] "+msg, zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}

// paramID parses a positive integer route param. On failure the 400 response is already
// written and ok is false.
func paramID(c *fiber.Ctx, name string) (id uint, ok bool) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid " + name,
		})
		return 0, false
	}
	return uint(v), true
}

func uintPtr(v uint) *uint {
	return &v
}
