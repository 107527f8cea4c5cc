package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spartab/internal/dto"
	"spartab/internal/service"
	"spartab/pkg/response"
)

// DrawHandler 排位草稿与发布 HTTP 处理器
type DrawHandler struct {
	drawSvc service.DrawService
}

// NewDrawHandler 创建 DrawHandler
func NewDrawHandler(drawSvc service.DrawService) *DrawHandler {
	return &DrawHandler{drawSvc: drawSvc}
}

// Generate 求解排位并保存为新草稿
// POST /api/v1/sessions/:id/draft
func (h *DrawHandler) Generate(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	draft, err := h.drawSvc.Generate(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleDrawError(c, err)
		return
	}

	response.Created(c, draft)
}

// CurrentDraft 当前草稿
// GET /api/v1/sessions/:id/draft
func (h *DrawHandler) CurrentDraft(c *gin.Context) {
	draft, err := h.drawSvc.CurrentDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDrawError(c, err)
		return
	}

	response.OK(c, draft)
}

// ListVersions 草稿版本历史
// GET /api/v1/sessions/:id/draft/versions
func (h *DrawHandler) ListVersions(c *gin.Context) {
	versions, err := h.drawSvc.ListDraftVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDrawError(c, err)
		return
	}

	response.OK(c, dto.ListResponse{List: versions, Total: len(versions)})
}

// GetVersion 指定版本草稿
// GET /api/v1/sessions/:id/draft/versions/:version
func (h *DrawHandler) GetVersion(c *gin.Context) {
	version, ok := pathVersion(c, 20001)
	if !ok {
		return
	}

	draft, err := h.drawSvc.DraftVersion(c.Request.Context(), c.Param("id"), version)
	if err != nil {
		h.handleDrawError(c, err)
		return
	}

	response.OK(c, draft)
}

// ProposeDraft 提交人工编辑的完整草稿
// PUT /api/v1/sessions/:id/draft
func (h *DrawHandler) ProposeDraft(c *gin.Context) {
	var req dto.ProposeDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	draft, err := h.drawSvc.ProposeDraft(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleDrawError(c, err)
		return
	}

	response.OK(c, draft)
}

// MoveSpeaker 移动或交换辩手
// POST /api/v1/sessions/:id/draft/moves/speaker
func (h *DrawHandler) MoveSpeaker(c *gin.Context) {
	var req dto.MoveSpeakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	draft, err := h.drawSvc.MoveSpeaker(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleDrawError(c, err)
		return
	}

	response.OK(c, draft)
}

// MoveJudge 调整裁判席位
// POST /api/v1/sessions/:id/draft/moves/judge
func (h *DrawHandler) MoveJudge(c *gin.Context) {
	var req dto.MoveJudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	draft, err := h.drawSvc.MoveJudge(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleDrawError(c, err)
		return
	}

	response.OK(c, draft)
}

// Release 发布当前草稿
// POST /api/v1/sessions/:id/release
func (h *DrawHandler) Release(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	released, err := h.drawSvc.Release(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleDrawError(c, err)
		return
	}

	response.OK(c, released)
}

// ReleasedDraw 已发布的正式排位
// GET /api/v1/sessions/:id/draw
func (h *DrawHandler) ReleasedDraw(c *gin.Context) {
	released, err := h.drawSvc.ReleasedDraw(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDrawError(c, err)
		return
	}

	response.OK(c, released)
}

func (h *DrawHandler) handleDrawError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20101, "场次不存在")
	case errors.Is(err, service.ErrSeriesNotFound):
		response.NotFound(c, 20102, "系列不存在")
	case errors.Is(err, service.ErrDraftNotFound):
		response.NotFound(c, 20103, "草稿不存在")
	case errors.Is(err, service.ErrDrawNotReleased):
		response.NotFound(c, 20104, "场次排位尚未发布")
	case errors.Is(err, service.ErrDraftStale):
		response.ErrorWithDetails(c, http.StatusConflict, 20201, "草稿已过期，请基于最新版本重试", service.ViolationsOf(err))
	case errors.Is(err, service.ErrSessionLocked):
		response.Conflict(c, 20202, "场次排位已发布，不可修改")
	case errors.Is(err, service.ErrInsufficientPool):
		response.Unprocessable(c, 20301, "报名辩手不足以组成一个完整房间", err.Error())
	case errors.Is(err, service.ErrInfeasible):
		response.Unprocessable(c, 20302, "不存在满足全部硬约束的排位", err.Error())
	case errors.Is(err, service.ErrInvalidDraft):
		response.Unprocessable(c, 20303, "草稿结构无效", service.ViolationsOf(err))
	default:
		response.InternalError(c)
	}
}
