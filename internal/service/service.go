package service

import (
	"go.uber.org/zap"

	"spartab/config"
	"spartab/internal/repository"
	"spartab/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Session SessionService
	Draw    DrawService
	Ballot  BallotService
	Tab     TabService
	Rating  RatingService
	Export  ExportService
}

// NewService 创建 Service 聚合
// locker 为 nil 时使用进程内互斥锁
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	locker Locker,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	if locker == nil {
		locker = NewLocalLocker()
	}
	tabSvc := NewTabService(cfg, repo, logger)
	return &Service{
		Session: NewSessionService(repo, logger),
		Draw:    NewDrawService(cfg, repo, locker, m, logger),
		Ballot:  NewBallotService(cfg, repo, m, logger),
		Tab:     tabSvc,
		Rating:  NewRatingService(cfg, repo, logger),
		Export:  NewExportService(repo, tabSvc, logger),
	}
}
