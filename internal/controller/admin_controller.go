package controller

import (
	"errors"
	"strconv"

	"companion-game-be/internal/dto"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/internal/pkg/serverutils"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	TriggerPipeline(ctx *fiber.Ctx) error
	TriggerPsycheBatch(ctx *fiber.Ctx) error
	GetPipelineHistory(ctx *fiber.Ctx) error
	GetUserPipelineHistory(ctx *fiber.Ctx) error
	GetPipelineHealth(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type adminController struct {
	authService     service.IAuthService
	pipelineService service.IPipelineService
	logReader       logger.ILogger
}

func NewAdminController(
	authService service.IAuthService,
	pipelineService service.IPipelineService,
	logReader logger.ILogger,
) IAdminController {
	return &adminController{
		authService:     authService,
		pipelineService: pipelineService,
		logReader:       logReader,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin")

	h.Post("/login", c.Login)

	h.Use(serverutils.JwtMiddleware, serverutils.AdminOnly)

	h.Post("/users/:userId/trigger-pipeline", c.TriggerPipeline)
	h.Get("/users/:userId/pipeline-history", c.GetUserPipelineHistory)
	h.Post("/trigger-psyche-batch", c.TriggerPsycheBatch)
	h.Get("/pipeline-history", c.GetPipelineHistory)

	// Retired: health now derives from pipeline-history. Kept registered so
	// old dashboards get an explicit 410 instead of a 404.
	h.Get("/pipeline-health", c.GetPipelineHealth)

	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)
}

func (c *adminController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.authService.Login(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid credentials"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Login successful", res))
}

func (c *adminController) TriggerPipeline(ctx *fiber.Ctx) error {
	var req dto.TriggerPipelineRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.pipelineService.Trigger(ctx.Context(), ctx.Params("userId"), &req)
	if err != nil {
		if errors.Is(err, contract.ErrUserNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "User not found"))
		}
		if errors.Is(err, contract.ErrConversationNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Conversation not found"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	if res.AlreadyRunning {
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, "A pipeline run is already in progress"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Pipeline run finished", res))
}

func (c *adminController) TriggerPsycheBatch(ctx *fiber.Ctx) error {
	var req dto.TriggerPsycheBatchRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.pipelineService.TriggerPsycheBatch(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.JSON(serverutils.SuccessResponse("Psyche batch finished", res))
}

func (c *adminController) GetPipelineHistory(ctx *fiber.Ctx) error {
	query := dto.PipelineHistoryQuery{
		JobName: ctx.Query("job_name", ""),
		Status:  ctx.Query("status", ""),
	}
	if limit, err := strconv.Atoi(ctx.Query("limit", "20")); err == nil {
		query.Limit = limit
	}

	history, err := c.pipelineService.History(ctx.Context(), &query)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.JSON(serverutils.SuccessResponse("Pipeline history", history))
}

func (c *adminController) GetUserPipelineHistory(ctx *fiber.Ctx) error {
	query := dto.UserPipelineHistoryQuery{}
	if page, err := strconv.Atoi(ctx.Query("page", "1")); err == nil {
		query.Page = page
	}
	if pageSize, err := strconv.Atoi(ctx.Query("page_size", "20")); err == nil {
		query.PageSize = pageSize
	}

	history, err := c.pipelineService.UserHistory(ctx.Context(), ctx.Params("userId"), &query)
	if err != nil {
		if errors.Is(err, contract.ErrUserNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "User not found"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.JSON(serverutils.SuccessResponse("Pipeline history", history))
}

func (c *adminController) GetPipelineHealth(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusGone).JSON(dto.DeprecationResponse{
		Deprecated: true,
		Message:    "pipeline-health has been removed; derive health from recent executions",
		ReplacedBy: "/api/v1/admin/pipeline-history",
	})
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	level := ctx.Query("level", "")
	limit, _ := strconv.Atoi(ctx.Query("limit", "100"))
	offset, _ := strconv.Atoi(ctx.Query("offset", "0"))

	logs, err := c.logReader.GetLogs(level, limit, offset)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.JSON(serverutils.SuccessResponse("Logs", logs))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	entry, err := c.logReader.GetLogById(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Log entry not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Log entry", entry))
}
