package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"spartab/config"
	"spartab/internal/api/handler"
	"spartab/internal/api/middleware"
	"spartab/pkg/jwt"
	"spartab/pkg/metrics"
	"spartab/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	db *gorm.DB,
	m *metrics.Metrics,
	logger *zap.Logger,
) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, "/health", cfg.Metrics.Path))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	})

	if cfg.Metrics.Enabled && m != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})))
	}

	admin := middleware.RoleAuth(jwt.RoleAdmin)
	generateLimit := middleware.RateLimit(rdb, cfg.Server.GenerateLimit, cfg.Server.GenerateWindow, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
	{
		// 系列与成员
		series := v1.Group("/series")
		{
			series.GET("", h.Session.ListSeries)
			series.POST("", admin, h.Session.CreateSeries)
			series.GET("/:id/members", h.Session.ListMembers)
			series.POST("/:id/members", admin, h.Session.AddMember)
			series.GET("/:id/sessions", h.Session.ListSessions)
			series.POST("/:id/sessions", admin, h.Session.CreateSession)
			series.GET("/:id/rankings", h.Tab.SeriesRankings)
			series.POST("/:id/ratings/recompute", admin, h.Tab.RecomputeRatings)
			series.GET("/:id/members/:member_id/calendar.ics", h.Tab.MemberCalendar)
		}
		v1.PUT("/members/:id/active", admin, h.Session.SetMemberActive)

		// 场次、报名与排位
		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:id", h.Session.GetSession)
			sessions.DELETE("/:id", admin, h.Session.DeleteSession)
			sessions.PUT("/:id/open", admin, h.Session.SetSignupOpen)
			sessions.GET("/:id/signups", h.Session.ListSignups)
			sessions.POST("/:id/signups", h.Session.Signup)
			sessions.DELETE("/:id/signups/:member_id", h.Session.Withdraw)

			sessions.POST("/:id/draft", admin, generateLimit, h.Draw.Generate)
			sessions.GET("/:id/draft", admin, h.Draw.CurrentDraft)
			sessions.PUT("/:id/draft", admin, h.Draw.ProposeDraft)
			sessions.GET("/:id/draft/versions", admin, h.Draw.ListVersions)
			sessions.GET("/:id/draft/versions/:version", admin, h.Draw.GetVersion)
			sessions.POST("/:id/draft/moves/speaker", admin, h.Draw.MoveSpeaker)
			sessions.POST("/:id/draft/moves/judge", admin, h.Draw.MoveJudge)
			sessions.POST("/:id/release", admin, h.Draw.Release)
			sessions.GET("/:id/draw", h.Draw.ReleasedDraw)

			sessions.GET("/:id/results", h.Tab.SessionResults)
			sessions.GET("/:id/results/export", admin, h.Tab.ExportSessionResults)
			sessions.POST("/:id/complete", admin, h.Tab.CompleteSession)
		}

		// 房间与选票
		rooms := v1.Group("/rooms")
		{
			rooms.POST("/:id/ballots", h.Ballot.Submit)
			rooms.GET("/:id/ballots", h.Ballot.ListBallots)
			rooms.GET("/:id/result", h.Tab.RoomResult)
		}
	}

	return r
}
