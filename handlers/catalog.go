package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tutor-marketplace/middleware"
	"tutor-marketplace/models"
	"tutor-marketplace/services"
	"tutor-marketplace/utils"
)

type subjectView struct {
	models.Subject
	Name string `json:"name"`
}

func SetupCatalogRoutes(router fiber.Router, subjects *services.SubjectService) {
	router.Get("/subjects", func(c *fiber.Ctx) error {
		list, err := subjects.List(c.UserContext(), c.Query("q"))
		if err != nil {
			return fail(c, "failed to load subjects", err)
		}
		locale := middleware.Locale(c)
		out := make([]subjectView, 0, len(list))
		for _, s := range list {
			out = append(out, subjectView{Subject: s, Name: utils.Localize(locale, s.NameEn, s.NameAr)})
		}
		return c.JSON(out)
	})

	router.Post("/admin/subjects", middleware.RequireRole(string(models.RoleAdmin)), func(c *fiber.Ctx) error {
		var req services.SubjectInput
		if !bind(c, &req) {
			return nil
		}
		subject, err := subjects.Create(c.UserContext(), req)
		if err != nil {
			return fail(c, "failed to create subject", err)
		}
		return c.Status(fiber.StatusCreated).JSON(subject)
	})
}
