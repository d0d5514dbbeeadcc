package controller

import (
	"companion-game-be/internal/dto"
	"companion-game-be/internal/pkg/serverutils"
	"companion-game-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITaskController interface {
	RegisterRoutes(r fiber.Router)
	Recover(ctx *fiber.Ctx) error
	DetectStuck(ctx *fiber.Ctx) error
}

// taskController serves the scheduler-facing endpoints. Callers are cron
// jobs, not humans, so responses stay machine-shaped and the retired routes
// answer with explicit deprecation payloads.
type taskController struct {
	recoveryService service.IRecoveryService
}

func NewTaskController(recoveryService service.IRecoveryService) ITaskController {
	return &taskController{
		recoveryService: recoveryService,
	}
}

func (c *taskController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/tasks")

	h.Use(serverutils.JwtMiddleware, serverutils.AdminOnly)

	h.Post("/recover", c.Recover)
	h.Get("/stuck", c.DetectStuck)

	// The detect/recover split is retired; /recover does both in one sweep.
	h.Post("/detect-stuck", c.deprecated("/api/v1/tasks/recover"))
	h.Post("/recover-stuck", c.deprecated("/api/v1/tasks/recover"))
}

func (c *taskController) Recover(ctx *fiber.Ctx) error {
	res, err := c.recoveryService.Recover(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	message := "Recovery sweep finished"
	if res.Skipped {
		message = "Recovery sweep skipped"
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *taskController) DetectStuck(ctx *fiber.Ctx) error {
	res, err := c.recoveryService.DetectStuck(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Stuck conversations listed", res))
}

func (c *taskController) deprecated(replacedBy string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(dto.DeprecationResponse{
			Deprecated: true,
			Message:    "this task endpoint has been merged into the recovery sweep",
			ReplacedBy: replacedBy,
		})
	}
}
