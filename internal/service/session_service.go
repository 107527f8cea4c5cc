package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"spartab/internal/dto"
	"spartab/internal/model"
	"spartab/internal/repository"
	"spartab/pkg/database"
)

// DefaultRating 新成员的初始评分
const DefaultRating = 25.0

// ── 系列 / 场次 / 报名业务错误 ──

var (
	ErrMemberExists     = errors.New("该用户已是系列成员")
	ErrMemberInactive   = errors.New("成员已停用")
	ErrInvalidStartTime = errors.New("开始时间格式无效，应为 RFC3339")
	ErrSessionClosed    = errors.New("场次报名已关闭")
	ErrSignupNoRole     = errors.New("报名至少需要选择辩手或裁判之一")
	ErrSignupNotFound   = errors.New("报名记录不存在")
	ErrSeriesMismatch   = errors.New("成员不属于该场次所在系列")
)

// SessionService 系列、成员、场次与报名管理
type SessionService interface {
	CreateSeries(ctx context.Context, req *dto.CreateSeriesRequest, callerID string) (*dto.SeriesResponse, error)
	ListSeries(ctx context.Context) ([]dto.SeriesResponse, error)
	AddMember(ctx context.Context, seriesID string, req *dto.AddMemberRequest, callerID string) (*dto.MemberResponse, error)
	ListMembers(ctx context.Context, seriesID string) ([]dto.MemberResponse, error)
	SetMemberActive(ctx context.Context, memberID string, active bool) error
	CreateSession(ctx context.Context, seriesID string, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, seriesID string) ([]dto.SessionResponse, error)
	SetSignupOpen(ctx context.Context, sessionID string, open bool) error
	// Signup 报名或修改已有报名的角色
	Signup(ctx context.Context, sessionID string, req *dto.SignupRequest, callerID string) (*dto.SignupResponse, error)
	Withdraw(ctx context.Context, sessionID, memberID string) error
	ListSignups(ctx context.Context, sessionID string) ([]dto.SignupResponse, error)
	// DeleteSession 级联删除草稿、排位与报名
	DeleteSession(ctx context.Context, sessionID string) error
}

type sessionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(repo *repository.Repository, logger *zap.Logger) SessionService {
	return &sessionService{repo: repo, logger: logger}
}

// ────────────────────── Series ──────────────────────

func (s *sessionService) CreateSeries(ctx context.Context, req *dto.CreateSeriesRequest, callerID string) (*dto.SeriesResponse, error) {
	series := &model.Series{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		SpeakersPerTeam: req.SpeakersPerTeam,
		TeamsPerRoom:    req.TeamsPerRoom,
	}
	series.CreatedBy = optionalID(callerID)

	if err := s.repo.Series.Create(ctx, series); err != nil {
		s.logger.Error("创建系列失败", zap.Error(err))
		return nil, err
	}
	return toSeriesResponse(series), nil
}

func (s *sessionService) ListSeries(ctx context.Context) ([]dto.SeriesResponse, error) {
	list, err := s.repo.Series.List(ctx)
	if err != nil {
		s.logger.Error("列出系列失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.SeriesResponse, 0, len(list))
	for i := range list {
		out = append(out, *toSeriesResponse(&list[i]))
	}
	return out, nil
}

func (s *sessionService) getSeries(ctx context.Context, seriesID string) (*model.Series, error) {
	series, err := s.repo.Series.GetByID(ctx, seriesID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSeriesNotFound
		}
		s.logger.Error("查询系列失败", zap.String("series_id", seriesID), zap.Error(err))
		return nil, err
	}
	return series, nil
}

// ────────────────────── Member ──────────────────────

func (s *sessionService) AddMember(ctx context.Context, seriesID string, req *dto.AddMemberRequest, callerID string) (*dto.MemberResponse, error) {
	if _, err := s.getSeries(ctx, seriesID); err != nil {
		return nil, err
	}

	member := &model.Member{
		SeriesID: seriesID,
		UserID:   optionalID(req.UserID),
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Rating:   DefaultRating,
		IsActive: true,
	}
	if req.Rating != nil {
		member.Rating = *req.Rating
	}
	member.CreatedBy = optionalID(callerID)

	if err := s.repo.Member.Create(ctx, member); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrMemberExists
		}
		s.logger.Error("添加成员失败", zap.String("series_id", seriesID), zap.Error(err))
		return nil, err
	}
	return toMemberResponse(member), nil
}

func (s *sessionService) ListMembers(ctx context.Context, seriesID string) ([]dto.MemberResponse, error) {
	if _, err := s.getSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	list, err := s.repo.Member.ListBySeries(ctx, seriesID)
	if err != nil {
		s.logger.Error("列出成员失败", zap.String("series_id", seriesID), zap.Error(err))
		return nil, err
	}
	out := make([]dto.MemberResponse, 0, len(list))
	for i := range list {
		out = append(out, *toMemberResponse(&list[i]))
	}
	return out, nil
}

func (s *sessionService) SetMemberActive(ctx context.Context, memberID string, active bool) error {
	if _, err := s.repo.Member.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	if err := s.repo.Member.SetActive(ctx, memberID, active); err != nil {
		s.logger.Error("更新成员状态失败", zap.String("member_id", memberID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Session ──────────────────────

func (s *sessionService) CreateSession(ctx context.Context, seriesID string, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error) {
	if _, err := s.getSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, ErrInvalidStartTime
	}

	session := &model.Session{
		SeriesID:  seriesID,
		Title:     req.Title,
		Location:  req.Location,
		StartTime: start.UTC(),
		IsOpen:    true,
	}
	session.CreatedBy = optionalID(callerID)

	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.logger.Error("创建场次失败", zap.String("series_id", seriesID), zap.Error(err))
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *sessionService) getSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询场次失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *sessionService) GetSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *sessionService) ListSessions(ctx context.Context, seriesID string) ([]dto.SessionResponse, error) {
	if _, err := s.getSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	list, err := s.repo.Session.ListBySeries(ctx, seriesID)
	if err != nil {
		s.logger.Error("列出场次失败", zap.String("series_id", seriesID), zap.Error(err))
		return nil, err
	}
	out := make([]dto.SessionResponse, 0, len(list))
	for i := range list {
		out = append(out, *toSessionResponse(&list[i]))
	}
	return out, nil
}

func (s *sessionService) SetSignupOpen(ctx context.Context, sessionID string, open bool) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Released {
		return ErrSessionLocked
	}
	if err := s.repo.Session.SetOpen(ctx, sessionID, open); err != nil {
		s.logger.Error("更新报名状态失败", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	return nil
}

func (s *sessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.repo.Session.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		s.logger.Error("删除场次失败", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	s.logger.Info("场次已删除", zap.String("session_id", sessionID))
	return nil
}

// ────────────────────── Signup ──────────────────────

func (s *sessionService) Signup(ctx context.Context, sessionID string, req *dto.SignupRequest, callerID string) (*dto.SignupResponse, error) {
	if !req.AsSpeaker && !req.AsJudge {
		return nil, ErrSignupNoRole
	}
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Released || !session.IsOpen {
		return nil, ErrSessionClosed
	}

	member, err := s.repo.Member.GetByID(ctx, req.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if member.SeriesID != session.SeriesID {
		return nil, ErrSeriesMismatch
	}
	if !member.IsActive {
		return nil, ErrMemberInactive
	}

	signup, err := s.repo.Signup.Get(ctx, sessionID, member.MemberID)
	switch {
	case err == nil:
		signup.AsSpeaker, signup.AsJudge = req.AsSpeaker, req.AsJudge
		if err := s.repo.Signup.UpdateRoles(ctx, signup); err != nil {
			s.logger.Error("更新报名失败", zap.String("session_id", sessionID), zap.Error(err))
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		signup = &model.Signup{
			SessionID: sessionID,
			MemberID:  member.MemberID,
			AsSpeaker: req.AsSpeaker,
			AsJudge:   req.AsJudge,
		}
		signup.CreatedBy = optionalID(callerID)
		if err := s.repo.Signup.Create(ctx, signup); err != nil {
			s.logger.Error("创建报名失败", zap.String("session_id", sessionID), zap.Error(err))
			return nil, err
		}
	default:
		return nil, err
	}

	signup.Member = member
	return toSignupResponse(signup), nil
}

func (s *sessionService) Withdraw(ctx context.Context, sessionID, memberID string) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Released || !session.IsOpen {
		return ErrSessionClosed
	}
	if _, err := s.repo.Signup.Get(ctx, sessionID, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSignupNotFound
		}
		return err
	}
	if err := s.repo.Signup.Delete(ctx, sessionID, memberID); err != nil {
		s.logger.Error("取消报名失败", zap.String("session_id", sessionID), zap.String("member_id", memberID), zap.Error(err))
		return err
	}
	return nil
}

func (s *sessionService) ListSignups(ctx context.Context, sessionID string) ([]dto.SignupResponse, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	list, err := s.repo.Signup.ListBySession(ctx, sessionID)
	if err != nil {
		s.logger.Error("列出报名失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	out := make([]dto.SignupResponse, 0, len(list))
	for i := range list {
		out = append(out, *toSignupResponse(&list[i]))
	}
	return out, nil
}

// ── DTO 转换 ──

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func toSeriesResponse(s *model.Series) *dto.SeriesResponse {
	return &dto.SeriesResponse{
		ID:              s.SeriesID,
		Title:           s.Title,
		Description:     s.Description,
		SpeakersPerTeam: s.SpeakersPerTeam,
		TeamsPerRoom:    s.TeamsPerRoom,
		CreatedAt:       dto.FormatTime(s.CreatedAt),
	}
}

func toMemberResponse(m *model.Member) *dto.MemberResponse {
	return &dto.MemberResponse{
		ID:       m.MemberID,
		SeriesID: m.SeriesID,
		UserID:   m.UserID,
		Name:     m.Name,
		Email:    m.Email,
		Rating:   m.Rating,
		IsActive: m.IsActive,
	}
}

func toSessionResponse(s *model.Session) *dto.SessionResponse {
	return &dto.SessionResponse{
		ID:                  s.SessionID,
		SeriesID:            s.SeriesID,
		Title:               s.Title,
		Location:            s.Location,
		StartTime:           dto.FormatTime(s.StartTime),
		IsOpen:              s.IsOpen,
		Released:            s.Released,
		ReleasedAt:          dto.FormatTimePtr(s.ReleasedAt),
		CurrentDraftVersion: s.CurrentDraftVersion,
		IsComplete:          s.IsComplete,
	}
}

func toSignupResponse(su *model.Signup) *dto.SignupResponse {
	resp := &dto.SignupResponse{
		ID:        su.SignupID,
		SessionID: su.SessionID,
		Member:    dto.MemberBrief{ID: su.MemberID},
		AsSpeaker: su.AsSpeaker,
		AsJudge:   su.AsJudge,
	}
	if su.Member != nil {
		resp.Member.Name = su.Member.Name
		resp.Member.Rating = su.Member.Rating
	}
	return resp
}
