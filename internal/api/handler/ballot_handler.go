package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spartab/internal/dto"
	"spartab/internal/service"
	"spartab/internal/tab"
	"spartab/pkg/response"
)

// BallotHandler 裁判选票 HTTP 处理器
type BallotHandler struct {
	ballotSvc service.BallotService
}

// NewBallotHandler 创建 BallotHandler
func NewBallotHandler(ballotSvc service.BallotService) *BallotHandler {
	return &BallotHandler{ballotSvc: ballotSvc}
}

// Submit 提交选票，调用者须为该房间裁判
// POST /api/v1/rooms/:id/ballots
func (h *BallotHandler) Submit(c *gin.Context) {
	var req dto.SubmitBallotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	ballot, err := h.ballotSvc.Submit(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleBallotError(c, err)
		return
	}

	response.Created(c, ballot)
}

// ListBallots 房间选票日志
// GET /api/v1/rooms/:id/ballots
func (h *BallotHandler) ListBallots(c *gin.Context) {
	ballots, err := h.ballotSvc.ListBallots(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleBallotError(c, err)
		return
	}

	response.OK(c, dto.ListResponse{List: ballots, Total: len(ballots)})
}

func (h *BallotHandler) handleBallotError(c *gin.Context, err error) {
	var be *tab.BallotError
	switch {
	case errors.As(err, &be):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21101, "选票格式错误", be.Problems)
	case errors.Is(err, service.ErrMalformedBallot):
		response.BadRequest(c, 21101, "选票格式错误")
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 21102, "房间不存在")
	case errors.Is(err, service.ErrDrawNotReleased):
		response.NotFound(c, 21103, "场次排位尚未发布")
	case errors.Is(err, service.ErrNotAssignedJudge):
		response.Forbidden(c, 21104, "当前用户不是该房间的裁判")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 21105, "场次不存在")
	case errors.Is(err, service.ErrBallotConflict):
		response.Conflict(c, 21201, "该房间已有结果不同的选票，确认后请带 force 重新提交")
	default:
		response.InternalError(c)
	}
}
