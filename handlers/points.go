package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tutor-marketplace/middleware"
	"tutor-marketplace/models"
	"tutor-marketplace/services"
	"tutor-marketplace/utils"
)

type pointView struct {
	models.Point
	Description string `json:"description"`
}

type badgeView struct {
	models.Badge
	Name        string `json:"name"`
	Description string `json:"description"`
}

type userBadgeView struct {
	models.UserBadge
	Badge badgeView `json:"badge"`
}

func localizeBadge(locale string, b models.Badge) badgeView {
	return badgeView{
		Badge:       b,
		Name:        utils.Localize(locale, b.NameEn, b.NameAr),
		Description: utils.Localize(locale, b.DescriptionEn, b.DescriptionAr),
	}
}

type grantPointsRequest struct {
	UserID        uint   `json:"user_id" validate:"required"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	DescriptionEn string `json:"description_en" validate:"required,max=255"`
	DescriptionAr string `json:"description_ar" validate:"max=255"`
}

// SetupPointsRoutes mounts the points ledger, badge catalog and leaderboard.
func SetupPointsRoutes(router fiber.Router, points *services.PointsService, badges *services.BadgeService, users *services.UserService, leaderboard *services.LeaderboardService) {
	authed := middleware.RequireUser()
	adminOnly := middleware.RequireRole(string(models.RoleAdmin))

	router.Get("/me", authed, func(c *fiber.Ctx) error {
		profile, err := users.Profile(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to load profile", err)
		}
		return c.JSON(profile)
	})

	router.Get("/me/points", authed, func(c *fiber.Ctx) error {
		total, err := points.Balance(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to load points", err)
		}
		return c.JSON(fiber.Map{"user_id": middleware.UserID(c), "points": total})
	})

	router.Get("/me/points/history", authed, func(c *fiber.Ctx) error {
		page, err := points.History(c.UserContext(), middleware.UserID(c), c.QueryInt("page", 1), c.QueryInt("size", 20))
		if err != nil {
			return fail(c, "failed to load points history", err)
		}
		locale := middleware.Locale(c)
		items := make([]pointView, 0, len(page.Items))
		for _, p := range page.Items {
			items = append(items, pointView{Point: p, Description: utils.Localize(locale, p.DescriptionEn, p.DescriptionAr)})
		}
		return c.JSON(fiber.Map{
			"items":       items,
			"page":        page.Page,
			"size":        page.Size,
			"total_items": page.TotalItems,
			"total_pages": page.TotalPages,
		})
	})

	router.Get("/me/badges", authed, func(c *fiber.Ctx) error {
		held, err := badges.ListUserBadges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to load badges", err)
		}
		locale := middleware.Locale(c)
		out := make([]userBadgeView, 0, len(held))
		for _, ub := range held {
			out = append(out, userBadgeView{UserBadge: ub, Badge: localizeBadge(locale, ub.Badge)})
		}
		return c.JSON(out)
	})

	router.Get("/badges", func(c *fiber.Ctx) error {
		list, err := badges.ListBadges(c.UserContext(), c.Query("category"))
		if err != nil {
			return fail(c, "failed to load badges", err)
		}
		locale := middleware.Locale(c)
		out := make([]badgeView, 0, len(list))
		for _, b := range list {
			out = append(out, localizeBadge(locale, b))
		}
		return c.JSON(out)
	})

	router.Get("/leaderboard", func(c *fiber.Ctx) error {
		entries, err := leaderboard.Top(c.UserContext(), c.QueryInt("limit", 10))
		if err != nil {
			return fail(c, "failed to load leaderboard", err)
		}
		return c.JSON(entries)
	})

	router.Post("/admin/points/grant", adminOnly, func(c *fiber.Ctx) error {
		var req grantPointsRequest
		if !bind(c, &req) {
			return nil
		}
		user, err := points.AwardPoints(c.UserContext(), req.UserID, req.Amount, models.SourceAdminGrant, nil,
			utils.StripHTML(req.DescriptionEn), utils.StripHTML(req.DescriptionAr))
		if err != nil {
			return fail(c, "failed to grant points", err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user_id": user.ID, "points": user.Points})
	})

	router.Post("/admin/badges", adminOnly, func(c *fiber.Ctx) error {
		var req services.BadgeInput
		if !bind(c, &req) {
			return nil
		}
		badge, err := badges.CreateBadge(c.UserContext(), req)
		if err != nil {
			return fail(c, "failed to create badge", err)
		}
		return c.Status(fiber.StatusCreated).JSON(badge)
	})

	router.Get("/admin/users", adminOnly, func(c *fiber.Ctx) error {
		list, err := users.Search(c.UserContext(), c.Query("q"), c.Query("role"), c.QueryInt("limit", 50))
		if err != nil {
			return fail(c, "search failed", err)
		}
		return c.JSON(list)
	})
}
