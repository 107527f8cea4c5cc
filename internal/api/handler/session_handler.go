package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"spartab/internal/dto"
	"spartab/internal/service"
	"spartab/pkg/response"
)

// SessionHandler 系列、成员、场次与报名 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.SessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// ────────────────────── Series ──────────────────────

// CreateSeries 创建系列
// POST /api/v1/series
func (h *SessionHandler) CreateSeries(c *gin.Context) {
	var req dto.CreateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	series, err := h.sessionSvc.CreateSeries(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, series)
}

// ListSeries 系列列表
// GET /api/v1/series
func (h *SessionHandler) ListSeries(c *gin.Context) {
	list, err := h.sessionSvc.ListSeries(c.Request.Context())
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, dto.ListResponse{List: list, Total: len(list)})
}

// ────────────────────── Member ──────────────────────

// AddMember 添加系列成员
// POST /api/v1/series/:id/members
func (h *SessionHandler) AddMember(c *gin.Context) {
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	member, err := h.sessionSvc.AddMember(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, member)
}

// ListMembers 系列成员列表
// GET /api/v1/series/:id/members
func (h *SessionHandler) ListMembers(c *gin.Context) {
	list, err := h.sessionSvc.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, dto.ListResponse{List: list, Total: len(list)})
}

// SetMemberActive 启用或停用成员
// PUT /api/v1/members/:id/active
func (h *SessionHandler) SetMemberActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23001, "参数校验失败")
		return
	}

	if err := h.sessionSvc.SetMemberActive(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── Session ──────────────────────

// CreateSession 创建场次
// POST /api/v1/series/:id/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.CreateSession(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, session)
}

// ListSessions 系列下的场次
// GET /api/v1/series/:id/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	list, err := h.sessionSvc.ListSessions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, dto.ListResponse{List: list, Total: len(list)})
}

// GetSession 场次详情
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessionSvc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// SetSignupOpen 开启或关闭报名
// PUT /api/v1/sessions/:id/open
func (h *SessionHandler) SetSignupOpen(c *gin.Context) {
	var req dto.SetOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23001, "参数校验失败")
		return
	}

	if err := h.sessionSvc.SetSignupOpen(c.Request.Context(), c.Param("id"), *req.IsOpen); err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, nil)
}

// DeleteSession 删除场次
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.sessionSvc.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── Signup ──────────────────────

// Signup 报名或修改报名角色
// POST /api/v1/sessions/:id/signups
func (h *SessionHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	signup, err := h.sessionSvc.Signup(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, signup)
}

// ListSignups 场次报名列表
// GET /api/v1/sessions/:id/signups
func (h *SessionHandler) ListSignups(c *gin.Context) {
	list, err := h.sessionSvc.ListSignups(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, dto.ListResponse{List: list, Total: len(list)})
}

// Withdraw 撤回报名
// DELETE /api/v1/sessions/:id/signups/:member_id
func (h *SessionHandler) Withdraw(c *gin.Context) {
	if err := h.sessionSvc.Withdraw(c.Request.Context(), c.Param("id"), c.Param("member_id")); err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSeriesNotFound):
		response.NotFound(c, 23101, "系列不存在")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 23102, "场次不存在")
	case errors.Is(err, service.ErrMemberNotFound):
		response.NotFound(c, 23103, "成员不存在")
	case errors.Is(err, service.ErrSignupNotFound):
		response.NotFound(c, 23104, "报名记录不存在")
	case errors.Is(err, service.ErrMemberExists):
		response.Conflict(c, 23201, "该用户已是系列成员")
	case errors.Is(err, service.ErrSessionLocked):
		response.Conflict(c, 23202, "场次排位已发布，不可修改")
	case errors.Is(err, service.ErrSessionClosed):
		response.BadRequest(c, 23301, "场次报名已关闭")
	case errors.Is(err, service.ErrSignupNoRole):
		response.BadRequest(c, 23302, "报名至少需要选择辩手或裁判之一")
	case errors.Is(err, service.ErrMemberInactive):
		response.BadRequest(c, 23303, "成员已停用")
	case errors.Is(err, service.ErrSeriesMismatch):
		response.BadRequest(c, 23304, "成员不属于该场次所在系列")
	case errors.Is(err, service.ErrInvalidStartTime):
		response.BadRequest(c, 23305, "开始时间格式无效，应为 RFC3339")
	default:
		response.InternalError(c)
	}
}
