package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"spartab/config"
	"spartab/internal/draw"
	"spartab/internal/dto"
	"spartab/internal/model"
	"spartab/internal/repository"
	pkgerrors "spartab/pkg/errors"
	"spartab/pkg/metrics"
)

// DrawService 排位生成、草稿版本与发布
type DrawService interface {
	// Generate 求解排位并保存为新的 generated 草稿
	Generate(ctx context.Context, sessionID, callerID string) (*dto.DraftResponse, error)
	CurrentDraft(ctx context.Context, sessionID string) (*dto.DraftResponse, error)
	DraftVersion(ctx context.Context, sessionID string, version int) (*dto.DraftResponse, error)
	ListDraftVersions(ctx context.Context, sessionID string) ([]dto.DraftVersionBrief, error)
	// ProposeDraft 提交人工编辑的完整草稿
	ProposeDraft(ctx context.Context, sessionID string, req *dto.ProposeDraftRequest, callerID string) (*dto.DraftResponse, error)
	MoveSpeaker(ctx context.Context, sessionID string, req *dto.MoveSpeakerRequest, callerID string) (*dto.DraftResponse, error)
	MoveJudge(ctx context.Context, sessionID string, req *dto.MoveJudgeRequest, callerID string) (*dto.DraftResponse, error)
	// Release 将当前草稿发布为正式排位，只能成功一次
	Release(ctx context.Context, sessionID, callerID string) (*dto.ReleasedDrawResponse, error)
	ReleasedDraw(ctx context.Context, sessionID string) (*dto.ReleasedDrawResponse, error)
}

type drawService struct {
	cfg     config.DrawConfig
	repo    *repository.Repository
	pools   *poolResolver
	solver  draw.Solver
	locker  Locker
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewDrawService 创建 DrawService 实例
func NewDrawService(cfg *config.Config, repo *repository.Repository, locker Locker, m *metrics.Metrics, logger *zap.Logger) DrawService {
	return &drawService{
		cfg:     cfg.Draw,
		repo:    repo,
		pools:   &poolResolver{repo: repo, logger: logger},
		solver:  draw.NewLocalSearch(),
		locker:  locker,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *drawService) options() draw.Options {
	return draw.Options{
		MaxBenched:    s.cfg.MaxBenched,
		MaxPanelSize:  s.cfg.MaxPanelSize,
		ClashPenalty:  s.cfg.ClashPenalty,
		RepeatPenalty: s.cfg.RepeatPenalty,
		MaxPasses:     s.cfg.MaxPasses,
	}
}

// ═══════════════════════════════════════════════════════════
// Generate — 求解与加锁分离，求解期间不持有会话锁
// ═══════════════════════════════════════════════════════════

func (s *drawService) Generate(ctx context.Context, sessionID, callerID string) (*dto.DraftResponse, error) {
	session, err := s.pools.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Released {
		return nil, ErrSessionLocked
	}

	pool, err := s.pools.Resolve(ctx, session)
	if err != nil {
		return nil, err
	}

	solver := s.solver
	if s.cfg.SolveTimeout > 0 {
		solver = draw.WithTimeout(solver, s.cfg.SolveTimeout)
	}
	start := time.Now()
	snap, err := solver.Solve(ctx, pool, s.options())
	s.metrics.ObserveSolve(solveOutcome(err), time.Since(start))
	if err != nil {
		s.logger.Info("排位求解失败",
			zap.String("session_id", sessionID),
			zap.Int("participants", len(pool.Participants)),
			zap.Error(err))
		return nil, err
	}

	draft, err := s.propose(ctx, session, snap, model.DraftSourceGenerated, 0, callerID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("生成排位草稿",
		zap.String("session_id", sessionID),
		zap.Int("version", draft.Version),
		zap.Int("rooms", len(snap.Rooms)),
		zap.Int("benched", len(snap.Benched)),
		zap.Int("clashes", len(snap.Clashes)))
	return s.toDraftResponse(ctx, session, draft, snap)
}

func solveOutcome(err error) string {
	var ie *draw.InfeasibleError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, draw.ErrInsufficientPool):
		return "insufficient_pool"
	case errors.As(err, &ie):
		return string(ie.Class)
	default:
		return "error"
	}
}

// ═══════════════════════════════════════════════════════════
// 草稿读取
// ═══════════════════════════════════════════════════════════

func (s *drawService) CurrentDraft(ctx context.Context, sessionID string) (*dto.DraftResponse, error) {
	session, err := s.pools.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CurrentDraftVersion == 0 {
		return nil, ErrDraftNotFound
	}
	return s.loadDraft(ctx, session, session.CurrentDraftVersion)
}

func (s *drawService) DraftVersion(ctx context.Context, sessionID string, version int) (*dto.DraftResponse, error) {
	session, err := s.pools.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.loadDraft(ctx, session, version)
}

func (s *drawService) ListDraftVersions(ctx context.Context, sessionID string) ([]dto.DraftVersionBrief, error) {
	if _, err := s.pools.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}
	drafts, err := s.repo.Draft.ListVersions(ctx, sessionID)
	if err != nil {
		s.logger.Error("查询草稿版本失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	out := make([]dto.DraftVersionBrief, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, dto.DraftVersionBrief{
			Version:        d.Version,
			Source:         d.Source,
			BasedOnVersion: d.BasedOnVersion,
			CreatedAt:      dto.FormatTime(d.CreatedAt),
			CreatedBy:      d.CreatedBy,
		})
	}
	return out, nil
}

func (s *drawService) loadDraft(ctx context.Context, session *model.Session, version int) (*dto.DraftResponse, error) {
	draft, snap, err := s.snapshotAt(ctx, session, version)
	if err != nil {
		return nil, err
	}
	return s.toDraftResponse(ctx, session, draft, snap)
}

func (s *drawService) snapshotAt(ctx context.Context, session *model.Session, version int) (*model.DraftDraw, *draw.Snapshot, error) {
	draft, err := s.repo.Draft.GetByVersion(ctx, session.SessionID, version)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDraftNotFound
		}
		s.logger.Error("查询草稿失败", zap.String("session_id", session.SessionID), zap.Int("version", version), zap.Error(err))
		return nil, nil, err
	}
	return draft, snapshotFromDraft(formatOf(session.Series), draft), nil
}

// ═══════════════════════════════════════════════════════════
// Propose — 结构校验 → 会话锁 → 事务内 CAS 版本号并写入草稿
// ═══════════════════════════════════════════════════════════

func (s *drawService) ProposeDraft(ctx context.Context, sessionID string, req *dto.ProposeDraftRequest, callerID string) (*dto.DraftResponse, error) {
	session, err := s.pools.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snap := req.Draw.Clone()
	draft, err := s.propose(ctx, session, snap, model.DraftSourceManual, req.BasedOnVersion, callerID)
	if err != nil {
		return nil, err
	}
	return s.toDraftResponse(ctx, session, draft, snap)
}

// propose basedOn 为 0 时不检查版本，否则须等于当前版本
func (s *drawService) propose(ctx context.Context, session *model.Session, snap *draw.Snapshot, source string, basedOn int, callerID string) (*model.DraftDraw, error) {
	snap.Canonicalize()
	violations := draw.ValidateStructure(snap)
	if want := formatOf(session.Series); snap.Format != want {
		violations = append(violations, draw.Violation{Class: draw.ClassFormat, Detail: "赛制与系列设置不一致"})
	}
	if len(violations) > 0 {
		return nil, &DraftError{Kind: ErrInvalidDraft, Violations: violations}
	}

	unlock, err := s.locker.Lock(ctx, session.SessionID)
	if err != nil {
		s.logger.Warn("获取会话锁失败", zap.String("session_id", session.SessionID), zap.Error(err))
		return nil, err
	}
	defer unlock()

	retries := s.cfg.ProposeRetry
	if retries < 1 {
		retries = 1
	}
	for attempt := 0; ; attempt++ {
		draft, err := s.tryPropose(ctx, session.SessionID, snap, source, basedOn, callerID)
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return draft, err
		}
		if attempt+1 >= retries {
			return nil, ErrDraftStale
		}
		s.logger.Debug("草稿版本冲突，重试", zap.String("session_id", session.SessionID), zap.Int("attempt", attempt+1))
	}
}

func (s *drawService) tryPropose(ctx context.Context, sessionID string, snap *draw.Snapshot, source string, basedOn int, callerID string) (*model.DraftDraw, error) {
	current, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if current.Released {
		return nil, ErrSessionLocked
	}
	if basedOn != 0 && basedOn != current.CurrentDraftVersion {
		return nil, ErrDraftStale
	}

	draft := &model.DraftDraw{
		SessionID:      sessionID,
		Version:        current.CurrentDraftVersion + 1,
		Source:         source,
		BasedOnVersion: current.CurrentDraftVersion,
		CreatedAt:      s.now(),
		Entries:        snapshotEntries(snap),
	}
	if callerID != "" {
		draft.CreatedBy = &callerID
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Session.AdvanceDraftVersion(ctx, sessionID, current.CurrentDraftVersion); err != nil {
			return err
		}
		if err := txRepo.Draft.Create(ctx, draft); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("保存草稿失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	s.metrics.DraftCommitted()
	return draft, nil
}

// ═══════════════════════════════════════════════════════════
// 编辑辅助：读取当前草稿 → 变换 → 作为 manual 版本提交
// ═══════════════════════════════════════════════════════════

func (s *drawService) MoveSpeaker(ctx context.Context, sessionID string, req *dto.MoveSpeakerRequest, callerID string) (*dto.DraftResponse, error) {
	return s.edit(ctx, sessionID, req.BasedOnVersion, callerID, func(snap *draw.Snapshot) error {
		if req.SwapWith != "" {
			return snap.SwapSpeakers(req.MemberID, req.SwapWith)
		}
		return snap.MoveSpeaker(req.MemberID, req.RoomIndex, req.Position, req.SpeakingOrder)
	})
}

func (s *drawService) MoveJudge(ctx context.Context, sessionID string, req *dto.MoveJudgeRequest, callerID string) (*dto.DraftResponse, error) {
	return s.edit(ctx, sessionID, req.BasedOnVersion, callerID, func(snap *draw.Snapshot) error {
		return snap.MoveJudge(req.MemberID, req.RoomIndex, draw.JudgeStatus(req.Status))
	})
}

func (s *drawService) edit(ctx context.Context, sessionID string, basedOn int, callerID string, apply func(*draw.Snapshot) error) (*dto.DraftResponse, error) {
	session, err := s.pools.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Released {
		return nil, ErrSessionLocked
	}
	if session.CurrentDraftVersion == 0 {
		return nil, ErrDraftNotFound
	}
	if basedOn != 0 && basedOn != session.CurrentDraftVersion {
		return nil, ErrDraftStale
	}

	_, snap, err := s.snapshotAt(ctx, session, session.CurrentDraftVersion)
	if err != nil {
		return nil, err
	}
	if err := apply(snap); err != nil {
		return nil, &DraftError{Kind: ErrInvalidDraft, Violations: []draw.Violation{{Class: draw.ClassUnknown, Detail: err.Error()}}}
	}

	draft, err := s.propose(ctx, session, snap, model.DraftSourceManual, session.CurrentDraftVersion, callerID)
	if err != nil {
		return nil, err
	}
	return s.toDraftResponse(ctx, session, draft, snap)
}

// ═══════════════════════════════════════════════════════════
// Release — 会话锁 → 以实时报名池复核 → 事务内 CAS 发布并物化房间
// ═══════════════════════════════════════════════════════════

func (s *drawService) Release(ctx context.Context, sessionID, callerID string) (*dto.ReleasedDrawResponse, error) {
	resp, err := s.release(ctx, sessionID, callerID)
	switch {
	case err == nil:
		s.metrics.ObserveRelease("ok")
	case errors.Is(err, ErrDraftStale):
		s.metrics.ObserveRelease("stale")
	default:
		s.metrics.ObserveRelease("error")
	}
	return resp, err
}

func (s *drawService) release(ctx context.Context, sessionID, callerID string) (*dto.ReleasedDrawResponse, error) {
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		s.logger.Warn("获取会话锁失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	defer unlock()

	session, err := s.pools.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Released {
		return nil, ErrDraftStale
	}
	if session.CurrentDraftVersion == 0 {
		return nil, ErrDraftNotFound
	}
	version := session.CurrentDraftVersion

	_, snap, err := s.snapshotAt(ctx, session, version)
	if err != nil {
		return nil, err
	}
	pool, err := s.pools.Resolve(ctx, session)
	if err != nil {
		return nil, err
	}
	if violations := draw.Validate(snap, pool, s.options()); len(violations) > 0 {
		s.logger.Info("草稿与当前报名不一致，拒绝发布",
			zap.String("session_id", sessionID),
			zap.Int("version", version),
			zap.Int("violations", len(violations)))
		return nil, &DraftError{Kind: ErrDraftStale, Violations: violations}
	}

	at := s.now()
	rooms := releasedRooms(sessionID, snap, at)
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Session.MarkReleased(ctx, sessionID, version, at); err != nil {
			return err
		}
		return txRepo.Draw.CreateRooms(ctx, rooms)
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrDraftStale
		}
		s.logger.Error("发布排位失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("排位已发布",
		zap.String("session_id", sessionID),
		zap.Int("version", version),
		zap.Int("rooms", len(rooms)),
		zap.String("caller_id", callerID))
	return s.ReleasedDraw(ctx, sessionID)
}

func (s *drawService) ReleasedDraw(ctx context.Context, sessionID string) (*dto.ReleasedDrawResponse, error) {
	session, err := s.pools.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Released {
		return nil, ErrDrawNotReleased
	}

	rooms, err := s.repo.Draw.ListBySession(ctx, sessionID)
	if err != nil {
		s.logger.Error("查询已发布排位失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	members, err := memberIndex(ctx, s.repo, session.SeriesID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ReleasedDrawResponse{
		SessionID:    sessionID,
		DraftVersion: session.ReleasedDraftVersion,
		ReleasedAt:   dto.FormatTimePtr(session.ReleasedAt),
		Rooms:        make([]dto.ReleasedRoom, 0, len(rooms)),
		Benched:      []dto.MemberBrief{},
	}
	for _, room := range rooms {
		rr := dto.ReleasedRoom{RoomID: room.RoomID, Index: room.RoomIndex}
		for _, team := range room.Teams {
			rt := dto.ReleasedTeam{TeamID: team.TeamID, Position: team.Position}
			for _, sp := range team.Speakers {
				rt.Speakers = append(rt.Speakers, members.brief(sp.MemberID))
			}
			rr.Teams = append(rr.Teams, rt)
		}
		for _, j := range room.Judges {
			rr.Judges = append(rr.Judges, dto.ReleasedJudge{
				JudgeAssignmentID: j.JudgeAssignmentID,
				Member:            members.brief(j.MemberID),
				Status:            j.Status,
			})
		}
		sortJudges(rr.Judges)
		resp.Rooms = append(resp.Rooms, rr)
	}

	if session.ReleasedDraftVersion > 0 {
		_, snap, err := s.snapshotAt(ctx, session, session.ReleasedDraftVersion)
		if err != nil {
			return nil, err
		}
		for _, m := range snap.Benched {
			resp.Benched = append(resp.Benched, members.brief(m))
		}
	}
	return resp, nil
}

// ── DTO 转换 ──

func (s *drawService) toDraftResponse(ctx context.Context, session *model.Session, draft *model.DraftDraw, snap *draw.Snapshot) (*dto.DraftResponse, error) {
	members, err := memberIndex(ctx, s.repo, session.SeriesID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	collect := func(id string) { names[id] = members.brief(id).Name }
	for _, r := range snap.Rooms {
		for _, t := range r.Teams {
			for _, m := range t.Speakers {
				collect(m)
			}
		}
		for _, j := range r.Judges {
			collect(j.MemberID)
		}
	}
	for _, m := range snap.Benched {
		collect(m)
	}

	return &dto.DraftResponse{
		SessionID:      session.SessionID,
		Version:        draft.Version,
		Source:         draft.Source,
		BasedOnVersion: draft.BasedOnVersion,
		CreatedAt:      dto.FormatTime(draft.CreatedAt),
		CreatedBy:      draft.CreatedBy,
		Draw:           snap,
		Members:        names,
	}, nil
}
