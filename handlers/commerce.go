package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"tutor-marketplace/middleware"
	"tutor-marketplace/models"
	"tutor-marketplace/services"
)

// SetupCommerceRoutes mounts packages, payment callbacks and bookings. Payment callbacks
// only accept the payment service's token.
func SetupCommerceRoutes(router fiber.Router, packages *services.PackageService, bookings *services.BookingService, paymentToken string) {
	authed := middleware.RequireUser()
	provider := middleware.ServiceTokenMiddleware(paymentToken)
	teachers := middleware.RequireRole(string(models.RoleTeacher))

	router.Get("/packages", func(c *fiber.Ctx) error {
		list, err := packages.ListPackages(c.UserContext())
		if err != nil {
			return fail(c, "failed to load packages", err)
		}
		return c.JSON(list)
	})

	router.Get("/me/packages", authed, func(c *fiber.Ctx) error {
		list, err := packages.UserPackages(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to load subscriptions", err)
		}
		return c.JSON(list)
	})

	router.Post("/packages/:id/subscribe", authed, func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		checkout, err := packages.Subscribe(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return fail(c, "failed to subscribe", err)
		}
		return c.Status(fiber.StatusCreated).JSON(checkout)
	})

	router.Post("/payments/:ref/complete", provider, func(c *fiber.Ctx) error {
		pay, err := packages.CompletePayment(c.UserContext(), strings.TrimSpace(c.Params("ref")))
		if err != nil {
			return fail(c, "failed to complete payment", err)
		}
		return c.JSON(pay)
	})

	router.Post("/payments/:ref/fail", provider, func(c *fiber.Ctx) error {
		pay, err := packages.FailPayment(c.UserContext(), strings.TrimSpace(c.Params("ref")))
		if err != nil {
			return fail(c, "failed to fail payment", err)
		}
		return c.JSON(pay)
	})

	router.Get("/me/bookings", authed, func(c *fiber.Ctx) error {
		list, err := bookings.ListForUser(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to load bookings", err)
		}
		return c.JSON(list)
	})

	router.Post("/bookings", authed, func(c *fiber.Ctx) error {
		var req services.BookingInput
		if !bind(c, &req) {
			return nil
		}
		res, err := bookings.Book(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return fail(c, "failed to book session", err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	router.Post("/bookings/:id/complete", teachers, func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		booking, err := bookings.Complete(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to complete booking", err)
		}
		return c.JSON(booking)
	})

	router.Post("/bookings/:id/cancel", authed, func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		booking, err := bookings.Cancel(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to cancel booking", err)
		}
		return c.JSON(booking)
	})
}
