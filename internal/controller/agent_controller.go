package controller

import (
	"companion-game-be/internal/entity"
	"companion-game-be/internal/pkg/serverutils"
	"companion-game-be/pkg/agent"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	GetSessionPrompt(ctx *fiber.Ctx) error
}

// agentController is the internal surface the agent runtime calls at session
// start. It always returns a prompt: the loader falls back to building one
// on the fly when no ready prompt exists.
type agentController struct {
	loader *agent.ReadyPromptLoader
}

func NewAgentController(loader *agent.ReadyPromptLoader) IAgentController {
	return &agentController{
		loader: loader,
	}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent")

	h.Use(serverutils.JwtMiddleware)

	h.Get("/session-prompt/:userId", c.GetSessionPrompt)
}

func (c *agentController) GetSessionPrompt(ctx *fiber.Ctx) error {
	userId, err := uuid.Parse(ctx.Params("userId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid user id"))
	}

	platform := entity.Platform(ctx.Query("platform", string(entity.PlatformText)))
	if platform != entity.PlatformText && platform != entity.PlatformVoice {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Unknown platform"))
	}

	prompt := c.loader.Load(ctx.Context(), userId, platform)

	return ctx.JSON(serverutils.SuccessResponse("Session prompt", fiber.Map{
		"user_id":  userId,
		"platform": platform,
		"prompt":   prompt,
	}))
}
