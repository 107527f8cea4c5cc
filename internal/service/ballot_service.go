package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"spartab/config"
	"spartab/internal/dto"
	"spartab/internal/model"
	"spartab/internal/repository"
	"spartab/internal/tab"
	"spartab/pkg/metrics"
)

// BallotService 裁判选票提交与查询
//
// 选票只追加：重复提交不覆盖旧票，由 tab.SelectAuthoritative 取每名裁判最近一张。
// 提交不加会话锁，各裁判独立写入。房间已有结果而新票排名不同时，
// 未带 force 的提交返回 ErrBallotConflict 且不写入。
type BallotService interface {
	// Submit userID 为调用者的外部身份，需对应该房间的裁判席位
	Submit(ctx context.Context, roomID, userID string, req *dto.SubmitBallotRequest) (*dto.BallotResponse, error)
	ListBallots(ctx context.Context, roomID string) ([]dto.BallotResponse, error)
}

type ballotService struct {
	rules    tab.Rules
	strategy tab.Strategy
	repo     *repository.Repository
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewBallotService 创建 BallotService 实例
func NewBallotService(cfg *config.Config, repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) BallotService {
	return &ballotService{
		rules: tab.Rules{
			MinScore:         cfg.Tab.MinScore,
			MaxScore:         cfg.Tab.MaxScore,
			RejectTiedTotals: cfg.Tab.RejectTiedTotals,
		},
		strategy: panelStrategy(cfg, logger),
		repo:     repo,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ═══════════════════════════════════════════════════════════
// Submit — 房间已发布 → 调用者持有裁判席位 → 内容校验 → 结果一致性 → 追加写入
// ═══════════════════════════════════════════════════════════

func (s *ballotService) Submit(ctx context.Context, roomID, userID string, req *dto.SubmitBallotRequest) (*dto.BallotResponse, error) {
	room, session, err := loadReleasedRoom(ctx, s.repo, s.logger, roomID)
	if err != nil {
		return nil, err
	}

	member, err := s.repo.Member.GetByUser(ctx, session.SeriesID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAssignedJudge
		}
		return nil, err
	}
	assignment, err := s.repo.Draw.GetJudgeAssignment(ctx, roomID, member.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAssignedJudge
		}
		return nil, err
	}

	entries := make([]tab.Entry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, tab.Entry{TeamID: e.TeamID, SpeakerID: e.SpeakerID, Position: e.Position, Score: e.Score})
	}
	layout := roomLayout(room, session.Series.SpeakersPerTeam)
	if err := tab.ValidateBallot(layout, entries, s.rules); err != nil {
		s.metrics.BallotRejected()
		s.logger.Info("选票校验失败",
			zap.String("room_id", roomID),
			zap.String("judge_id", member.MemberID),
			zap.Error(err))
		return nil, err
	}
	if !req.Force {
		if err := s.checkAgreement(ctx, room, layout, entries); err != nil {
			return nil, err
		}
	}

	ballot := &model.Ballot{
		RoomID:            roomID,
		SessionID:         room.SessionID,
		JudgeAssignmentID: assignment.JudgeAssignmentID,
		MemberID:          member.MemberID,
		CreatedAt:         s.now(),
	}
	for _, e := range entries {
		ballot.Entries = append(ballot.Entries, model.BallotEntry{
			TeamID:          e.TeamID,
			SpeakerMemberID: e.SpeakerID,
			Position:        e.Position,
			Score:           e.Score,
		})
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		return txRepo.Ballot.Create(ctx, ballot)
	})
	if err != nil {
		s.logger.Error("保存选票失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}
	s.metrics.BallotAccepted()
	return toBallotResponse(ballot), nil
}

// checkAgreement 新票排名须与房间当前结果一致，房间尚无结果时不检查
func (s *ballotService) checkAgreement(ctx context.Context, room *model.Room, layout tab.Layout, entries []tab.Entry) error {
	existing, err := s.repo.Ballot.ListByRoom(ctx, room.RoomID)
	if err != nil {
		s.logger.Error("查询选票失败", zap.String("room_id", room.RoomID), zap.Error(err))
		return err
	}
	current := tab.RoomOutcome(layout, tabBallots(room, existing), s.strategy)
	if !current.Decided {
		return nil
	}
	mine := tab.RankBallot(layout, tab.Ballot{Entries: entries})
	if tab.SameRanking(mine.Teams, current.Teams) {
		return nil
	}
	s.logger.Info("选票结果与房间现有结果不同，等待确认",
		zap.String("room_id", room.RoomID),
		zap.String("current_winner", current.Teams[0].TeamID),
		zap.String("submitted_winner", mine.Winner()))
	return ErrBallotConflict
}

func (s *ballotService) ListBallots(ctx context.Context, roomID string) ([]dto.BallotResponse, error) {
	if _, err := s.repo.Draw.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	ballots, err := s.repo.Ballot.ListByRoom(ctx, roomID)
	if err != nil {
		s.logger.Error("查询选票失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}
	out := make([]dto.BallotResponse, 0, len(ballots))
	for i := range ballots {
		out = append(out, *toBallotResponse(&ballots[i]))
	}
	return out, nil
}

// loadReleasedRoom 房间及其所属场次，场次须已发布
func loadReleasedRoom(ctx context.Context, repo *repository.Repository, logger *zap.Logger, roomID string) (*model.Room, *model.Session, error) {
	room, err := repo.Draw.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrRoomNotFound
		}
		logger.Error("查询房间失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, nil, err
	}
	session, err := repo.Session.GetByID(ctx, room.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}
	if !session.Released {
		return nil, nil, ErrDrawNotReleased
	}
	if session.Series == nil {
		return nil, nil, ErrSeriesNotFound
	}
	return room, session, nil
}

func toBallotResponse(b *model.Ballot) *dto.BallotResponse {
	return &dto.BallotResponse{
		ID:                b.BallotID,
		RoomID:            b.RoomID,
		JudgeAssignmentID: b.JudgeAssignmentID,
		JudgeMemberID:     b.MemberID,
		CreatedAt:         dto.FormatTime(b.CreatedAt),
		Entries:           tabEntries(b.Entries),
	}
}
