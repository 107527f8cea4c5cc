package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"spartab/config"
	"spartab/internal/dto"
	"spartab/internal/model"
	"spartab/internal/repository"
	"spartab/internal/tab"
)

// ErrResultsPending 仍有房间没有权威结果
var ErrResultsPending = errors.New("仍有房间未产生结果")

// TabService 房间结果与排名
//
// 结果在读取时由选票日志计算，不落库；合议规则由 tab.panel_strategy 指定。
type TabService interface {
	RoomResult(ctx context.Context, roomID string) (*tab.RoomResult, error)
	SessionResults(ctx context.Context, sessionID string) (*dto.SessionResultsResponse, error)
	SeriesRankings(ctx context.Context, seriesID string) (*dto.SeriesRankingsResponse, error)
	// CompleteSession 全部房间有结果后标记场次结束
	CompleteSession(ctx context.Context, sessionID string) error
}

type tabService struct {
	strategy  tab.Strategy
	breakSize int
	repo      *repository.Repository
	logger    *zap.Logger
}

// NewTabService 创建 TabService 实例
func NewTabService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) TabService {
	return &tabService{strategy: panelStrategy(cfg, logger), breakSize: cfg.Tab.BreakSize, repo: repo, logger: logger}
}

// panelStrategy 未知的合议规则回退为 independent
func panelStrategy(cfg *config.Config, logger *zap.Logger) tab.Strategy {
	strategy, err := tab.StrategyByName(cfg.Tab.PanelStrategy)
	if err != nil {
		logger.Warn("合议规则无效，使用默认规则", zap.String("panel_strategy", cfg.Tab.PanelStrategy), zap.Error(err))
		strategy, _ = tab.StrategyByName(tab.StrategyIndependent)
	}
	return strategy
}

func (s *tabService) RoomResult(ctx context.Context, roomID string) (*tab.RoomResult, error) {
	room, session, err := loadReleasedRoom(ctx, s.repo, s.logger, roomID)
	if err != nil {
		return nil, err
	}
	ballots, err := s.repo.Ballot.ListByRoom(ctx, roomID)
	if err != nil {
		s.logger.Error("查询选票失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}
	res := tab.RoomOutcome(roomLayout(room, session.Series.SpeakersPerTeam), tabBallots(room, ballots), s.strategy)
	return &res, nil
}

func (s *tabService) SessionResults(ctx context.Context, sessionID string) (*dto.SessionResultsResponse, error) {
	session, err := s.releasedSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	layouts, results, err := sessionOutcomes(ctx, s.repo, session, s.strategy)
	if err != nil {
		s.logger.Error("计算场次结果失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	members, err := memberIndex(ctx, s.repo, session.SeriesID)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResultsResponse{
		SessionID: sessionID,
		Strategy:  s.strategy.Name(),
		Rooms:     results,
		Standings: tab.SessionStandings(layouts, results, s.breakSize),
		Members:   members.names(),
	}, nil
}

func (s *tabService) SeriesRankings(ctx context.Context, seriesID string) (*dto.SeriesRankingsResponse, error) {
	if _, err := s.repo.Series.GetByID(ctx, seriesID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSeriesNotFound
		}
		return nil, err
	}
	sessions, err := s.repo.Session.ListReleased(ctx, seriesID, "")
	if err != nil {
		s.logger.Error("查询已发布场次失败", zap.String("series_id", seriesID), zap.Error(err))
		return nil, err
	}

	all := make([][]tab.RoomResult, 0, len(sessions))
	for i := range sessions {
		session, err := s.repo.Session.GetByID(ctx, sessions[i].SessionID)
		if err != nil {
			return nil, err
		}
		_, results, err := sessionOutcomes(ctx, s.repo, session, s.strategy)
		if err != nil {
			s.logger.Error("计算场次结果失败", zap.String("session_id", session.SessionID), zap.Error(err))
			return nil, err
		}
		all = append(all, results)
	}

	members, err := memberIndex(ctx, s.repo, seriesID)
	if err != nil {
		return nil, err
	}
	return &dto.SeriesRankingsResponse{
		SeriesID:  seriesID,
		Sessions:  len(sessions),
		Standings: tab.SeriesStandings(all),
		Members:   members.names(),
	}, nil
}

func (s *tabService) CompleteSession(ctx context.Context, sessionID string) error {
	session, err := s.releasedSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.IsComplete {
		return nil
	}
	_, results, err := sessionOutcomes(ctx, s.repo, session, s.strategy)
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.Decided {
			return ErrResultsPending
		}
	}
	if err := s.repo.Session.MarkComplete(ctx, sessionID); err != nil {
		s.logger.Error("标记场次结束失败", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	s.logger.Info("场次已结束", zap.String("session_id", sessionID), zap.Int("rooms", len(results)))
	return nil
}

func (s *tabService) releasedSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !session.Released {
		return nil, ErrDrawNotReleased
	}
	if session.Series == nil {
		return nil, ErrSeriesNotFound
	}
	return session, nil
}

// sessionOutcomes 场次内每个房间的结构与权威结果，按房间序号排列
func sessionOutcomes(ctx context.Context, repo *repository.Repository, session *model.Session, strategy tab.Strategy) ([]tab.Layout, []tab.RoomResult, error) {
	rooms, err := repo.Draw.ListBySession(ctx, session.SessionID)
	if err != nil {
		return nil, nil, err
	}
	ballots, err := repo.Ballot.ListBySession(ctx, session.SessionID)
	if err != nil {
		return nil, nil, err
	}
	byRoom := make(map[string][]model.Ballot)
	for _, b := range ballots {
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}

	layouts := make([]tab.Layout, 0, len(rooms))
	results := make([]tab.RoomResult, 0, len(rooms))
	for i := range rooms {
		layout := roomLayout(&rooms[i], session.Series.SpeakersPerTeam)
		layouts = append(layouts, layout)
		results = append(results, tab.RoomOutcome(layout, tabBallots(&rooms[i], byRoom[rooms[i].RoomID]), strategy))
	}
	return layouts, results, nil
}
