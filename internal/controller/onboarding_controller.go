package controller

import (
	"errors"

	"companion-game-be/internal/dto"
	"companion-game-be/internal/pkg/serverutils"
	"companion-game-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOnboardingController interface {
	RegisterRoutes(r fiber.Router)
	OnboardUser(ctx *fiber.Ctx) error
}

type onboardingController struct {
	onboardingService service.IOnboardingService
}

func NewOnboardingController(onboardingService service.IOnboardingService) IOnboardingController {
	return &onboardingController{
		onboardingService: onboardingService,
	}
}

func (c *onboardingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/onboarding")

	h.Use(serverutils.JwtMiddleware, serverutils.AdminOnly)

	h.Post("/users", c.OnboardUser)
}

func (c *onboardingController) OnboardUser(ctx *fiber.Ctx) error {
	var req dto.OnboardUserRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.onboardingService.OnboardUser(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, "Email already registered"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("User onboarding started", res))
}
