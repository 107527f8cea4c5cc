package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"spartab/internal/service"
	"spartab/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// TabHandler 成绩、排名与导出 HTTP 处理器
type TabHandler struct {
	tabSvc    service.TabService
	ratingSvc service.RatingService
	exportSvc service.ExportService
}

// NewTabHandler 创建 TabHandler
func NewTabHandler(tabSvc service.TabService, ratingSvc service.RatingService, exportSvc service.ExportService) *TabHandler {
	return &TabHandler{tabSvc: tabSvc, ratingSvc: ratingSvc, exportSvc: exportSvc}
}

// RoomResult 单个房间的权威结果
// GET /api/v1/rooms/:id/result
func (h *TabHandler) RoomResult(c *gin.Context) {
	res, err := h.tabSvc.RoomResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTabError(c, err)
		return
	}

	response.OK(c, res)
}

// SessionResults 场次成绩与排名
// GET /api/v1/sessions/:id/results
func (h *TabHandler) SessionResults(c *gin.Context) {
	res, err := h.tabSvc.SessionResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTabError(c, err)
		return
	}

	response.OK(c, res)
}

// CompleteSession 全部房间有结果后标记场次结束
// POST /api/v1/sessions/:id/complete
func (h *TabHandler) CompleteSession(c *gin.Context) {
	if err := h.tabSvc.CompleteSession(c.Request.Context(), c.Param("id")); err != nil {
		h.handleTabError(c, err)
		return
	}

	response.OK(c, nil)
}

// SeriesRankings 系列累计排名
// GET /api/v1/series/:id/rankings
func (h *TabHandler) SeriesRankings(c *gin.Context) {
	res, err := h.tabSvc.SeriesRankings(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTabError(c, err)
		return
	}

	response.OK(c, res)
}

// RecomputeRatings 按已发布场次重算成员评分
// POST /api/v1/series/:id/ratings/recompute
func (h *TabHandler) RecomputeRatings(c *gin.Context) {
	res, err := h.ratingSvc.Recompute(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTabError(c, err)
		return
	}

	response.OK(c, res)
}

// ExportSessionResults 导出场次成绩表
// GET /api/v1/sessions/:id/results/export
func (h *TabHandler) ExportSessionResults(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportSessionResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTabError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// MemberCalendar 导出成员的席位日历
// GET /api/v1/series/:id/members/:member_id/calendar.ics
func (h *TabHandler) MemberCalendar(c *gin.Context) {
	body, filename, err := h.exportSvc.MemberCalendar(c.Request.Context(), c.Param("id"), c.Param("member_id"))
	if err != nil {
		h.handleTabError(c, err)
		return
	}

	response.Attachment(c, filename, contentTypeICS, body)
}

func (h *TabHandler) handleTabError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 22101, "房间不存在")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 22102, "场次不存在")
	case errors.Is(err, service.ErrSeriesNotFound):
		response.NotFound(c, 22103, "系列不存在")
	case errors.Is(err, service.ErrMemberNotFound):
		response.NotFound(c, 22104, "成员不存在")
	case errors.Is(err, service.ErrDrawNotReleased):
		response.NotFound(c, 22105, "场次排位尚未发布")
	case errors.Is(err, service.ErrResultsPending):
		response.Conflict(c, 22201, "仍有房间未产生结果")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
