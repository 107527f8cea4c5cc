package service

import (
	"context"
	"errors"
	"math"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"spartab/config"
	"spartab/internal/dto"
	"spartab/internal/repository"
	"spartab/internal/tab"
)

// RatingService 成员评分维护
type RatingService interface {
	// Recompute 从初始评分出发，按场次开始时间依次回放已发布场次的房间结果
	Recompute(ctx context.Context, seriesID string) (*dto.RecomputeRatingsResponse, error)
}

type ratingService struct {
	k        float64
	strategy tab.Strategy
	repo     *repository.Repository
	logger   *zap.Logger
}

// NewRatingService 创建 RatingService 实例
func NewRatingService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) RatingService {
	strategy, err := tab.StrategyByName(cfg.Tab.PanelStrategy)
	if err != nil {
		strategy, _ = tab.StrategyByName(tab.StrategyIndependent)
	}
	return &ratingService{k: cfg.Tab.EloK, strategy: strategy, repo: repo, logger: logger}
}

func (s *ratingService) Recompute(ctx context.Context, seriesID string) (*dto.RecomputeRatingsResponse, error) {
	if _, err := s.repo.Series.GetByID(ctx, seriesID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSeriesNotFound
		}
		return nil, err
	}
	members, err := memberIndex(ctx, s.repo, seriesID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.Session.ListReleased(ctx, seriesID, "")
	if err != nil {
		s.logger.Error("查询已发布场次失败", zap.String("series_id", seriesID), zap.Error(err))
		return nil, err
	}

	ratings := make(map[string]float64, len(members))
	for id := range members {
		ratings[id] = DefaultRating
	}
	rooms := 0
	for i := range sessions {
		session, err := s.repo.Session.GetByID(ctx, sessions[i].SessionID)
		if err != nil {
			return nil, err
		}
		layouts, results, err := sessionOutcomes(ctx, s.repo, session, s.strategy)
		if err != nil {
			return nil, err
		}
		for j := range results {
			if !results[j].Decided {
				continue
			}
			ratings = tab.UpdateRatings(ratings, DefaultRating, s.k, layouts[j], results[j])
			rooms++
		}
	}

	resp := &dto.RecomputeRatingsResponse{SeriesID: seriesID, Rooms: rooms, Changes: []dto.RatingChange{}}
	for id, m := range members {
		after := math.Round(ratings[id]*1000) / 1000
		if after == m.Rating {
			continue
		}
		resp.Changes = append(resp.Changes, dto.RatingChange{MemberID: id, Name: m.Name, Before: m.Rating, After: after})
	}
	sort.Slice(resp.Changes, func(i, j int) bool { return resp.Changes[i].MemberID < resp.Changes[j].MemberID })

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		for _, c := range resp.Changes {
			if err := txRepo.Member.UpdateRating(ctx, c.MemberID, c.After); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("写入评分失败", zap.String("series_id", seriesID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("评分已重算",
		zap.String("series_id", seriesID),
		zap.Int("sessions", len(sessions)),
		zap.Int("rooms", rooms),
		zap.Int("changed", len(resp.Changes)))
	return resp, nil
}
