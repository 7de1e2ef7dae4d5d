package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tutor-marketplace/middleware"
	"tutor-marketplace/models"
	"tutor-marketplace/services"
)

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

func SetupPublicationRoutes(router fiber.Router, publications *services.PublicationService) {
	authed := middleware.RequireUser()
	adminOnly := middleware.RequireRole(string(models.RoleAdmin))

	router.Get("/publications", func(c *fiber.Ctx) error {
		list, err := publications.ListPublished(c.UserContext(), c.QueryInt("limit", 20))
		if err != nil {
			return fail(c, "failed to load publications", err)
		}
		return c.JSON(list)
	})

	router.Post("/publications", authed, func(c *fiber.Ctx) error {
		var req services.PublicationInput
		if !bind(c, &req) {
			return nil
		}
		pub, err := publications.CreatePublication(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return fail(c, "failed to create publication", err)
		}
		return c.Status(fiber.StatusCreated).JSON(pub)
	})

	router.Post("/publications/:id/approve", adminOnly, func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		pub, err := publications.ApprovePublication(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to approve publication", err)
		}
		return c.JSON(pub)
	})

	router.Post("/publications/:id/reject", adminOnly, func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		var req rejectRequest
		if !bind(c, &req) {
			return nil
		}
		pub, err := publications.RejectPublication(c.UserContext(), id, middleware.UserID(c), req.Reason)
		if err != nil {
			return fail(c, "failed to reject publication", err)
		}
		return c.JSON(pub)
	})
}
