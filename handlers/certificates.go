package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tutor-marketplace/middleware"
	"tutor-marketplace/models"
	"tutor-marketplace/services"
	"tutor-marketplace/utils"
)

type certificateView struct {
	models.Certificate
	Title       string `json:"title"`
	VerifyToken string `json:"verify_token,omitempty"`
}

func SetupCertificateRoutes(router fiber.Router, certificates *services.CertificateService) {
	router.Get("/me/certificates", middleware.RequireUser(), func(c *fiber.Ctx) error {
		list, err := certificates.ListForUser(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to load certificates", err)
		}
		locale := middleware.Locale(c)
		out := make([]certificateView, 0, len(list))
		for i := range list {
			token, err := certificates.Token(&list[i])
			if err != nil {
				return fail(c, "failed to sign certificate token", err)
			}
			out = append(out, certificateView{
				Certificate: list[i],
				Title:       utils.Localize(locale, list[i].TitleEn, list[i].TitleAr),
				VerifyToken: token,
			})
		}
		return c.JSON(out)
	})

	router.Get("/certificates/verify/:token", func(c *fiber.Ctx) error {
		cert, err := certificates.Verify(c.UserContext(), c.Params("token"))
		if err != nil {
			return fail(c, "certificate could not be verified", err)
		}
		return c.JSON(fiber.Map{
			"valid":       true,
			"certificate": certificateView{Certificate: *cert, Title: utils.Localize(middleware.Locale(c), cert.TitleEn, cert.TitleAr)},
		})
	})
}
