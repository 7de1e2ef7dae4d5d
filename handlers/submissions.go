package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tutor-marketplace/middleware"
	"tutor-marketplace/models"
	"tutor-marketplace/services"
)

type submitRequest struct {
	Content string `json:"content" validate:"required,max=20000"`
}

type evaluateRequest struct {
	services.EvaluationInput
	SchoolID  *uint `json:"school_id"`
	TeacherID *uint `json:"teacher_id"`
}

// reviewer resolves who evaluates. Teachers and schools review on their own behalf unless
// the body names the school or teacher.
func (r evaluateRequest) reviewer(c *fiber.Ctx) services.Reviewer {
	id := middleware.UserID(c)
	rv := services.Reviewer{
		ID:        id,
		SchoolID:  r.SchoolID,
		TeacherID: r.TeacherID,
		ByAdmin:   middleware.HasRole(c, string(models.RoleAdmin)),
	}
	if rv.TeacherID == nil && middleware.HasRole(c, string(models.RoleTeacher)) {
		rv.TeacherID = uintPtr(id)
	}
	if rv.SchoolID == nil && middleware.HasRole(c, string(models.RoleSchool)) {
		rv.SchoolID = uintPtr(id)
	}
	return rv
}

// SetupSubmissionRoutes mounts project and challenge entries and their review.
func SetupSubmissionRoutes(router fiber.Router, projects *services.SubmissionService, challenges *services.ChallengeSubmissionService, limiter *middleware.RateLimiter) {
	authed := middleware.RequireUser()
	reviewers := middleware.RequireRole(string(models.RoleTeacher), string(models.RoleSchool), string(models.RoleAdmin))
	limit := limiter.Handler()

	router.Post("/projects/:id/submissions", authed, limit, func(c *fiber.Ctx) error {
		projectID, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		var req submitRequest
		if !bind(c, &req) {
			return nil
		}
		sub, err := projects.Submit(c.UserContext(), projectID, middleware.UserID(c), req.Content)
		if err != nil {
			return fail(c, "failed to submit project", err)
		}
		return c.Status(fiber.StatusCreated).JSON(sub)
	})

	router.Post("/project-submissions/:id/evaluate", reviewers, limit, func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		var req evaluateRequest
		if !bind(c, &req) {
			return nil
		}
		rv := req.reviewer(c)
		sub, err := projects.EvaluateSubmission(c.UserContext(), id, req.EvaluationInput, rv.ID, rv.SchoolID, rv.TeacherID, rv.ByAdmin)
		if err != nil {
			return fail(c, "failed to evaluate submission", err)
		}
		return c.JSON(sub)
	})

	router.Post("/challenges/:id/submissions", authed, limit, func(c *fiber.Ctx) error {
		challengeID, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		var req submitRequest
		if !bind(c, &req) {
			return nil
		}
		sub, err := challenges.Submit(c.UserContext(), challengeID, middleware.UserID(c), req.Content)
		if err != nil {
			return fail(c, "failed to submit challenge entry", err)
		}
		return c.Status(fiber.StatusCreated).JSON(sub)
	})

	router.Post("/challenge-submissions/:id/evaluate", reviewers, limit, func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		var req evaluateRequest
		if !bind(c, &req) {
			return nil
		}
		rv := req.reviewer(c)
		sub, err := challenges.EvaluateSubmission(c.UserContext(), id, req.EvaluationInput, rv.ID, rv.SchoolID, rv.TeacherID, rv.ByAdmin)
		if err != nil {
			return fail(c, "failed to evaluate challenge entry", err)
		}
		return c.JSON(sub)
	})
}
