package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"spartab/internal/draw"
	"spartab/internal/model"
	"spartab/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// 报名池解析：报名 + 成员评分 + 往期已发布排位中的关系
// ═══════════════════════════════════════════════════════════

type poolResolver struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func (r *poolResolver) loadSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := r.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		r.logger.Error("查询场次失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	if session.Series == nil {
		return nil, ErrSeriesNotFound
	}
	return session, nil
}

// Resolve 生成场次的报名池
// 已停用成员与未选择任何角色的报名不计入
func (r *poolResolver) Resolve(ctx context.Context, session *model.Session) (*draw.Pool, error) {
	signups, err := r.repo.Signup.ListBySession(ctx, session.SessionID)
	if err != nil {
		r.logger.Error("查询报名失败", zap.String("session_id", session.SessionID), zap.Error(err))
		return nil, err
	}

	pool := &draw.Pool{
		SessionID: session.SessionID,
		Format:    formatOf(session.Series),
	}
	for _, su := range signups {
		if su.Member == nil || !su.Member.IsActive {
			continue
		}
		if !su.AsSpeaker && !su.AsJudge {
			continue
		}
		pool.Participants = append(pool.Participants, draw.Participant{
			MemberID:  su.MemberID,
			Name:      su.Member.Name,
			Rating:    su.Member.Rating,
			AsSpeaker: su.AsSpeaker,
			AsJudge:   su.AsJudge,
		})
	}

	history, err := r.history(ctx, session)
	if err != nil {
		return nil, err
	}
	pool.History = history
	return pool, nil
}

// history 汇总同系列其他已发布场次中的同队、同组、对阵与评判关系
func (r *poolResolver) history(ctx context.Context, session *model.Session) (*draw.History, error) {
	released, err := r.repo.Session.ListReleased(ctx, session.SeriesID, session.SessionID)
	if err != nil {
		r.logger.Error("查询往期场次失败", zap.String("series_id", session.SeriesID), zap.Error(err))
		return nil, err
	}
	ids := make([]string, 0, len(released))
	for _, s := range released {
		ids = append(ids, s.SessionID)
	}
	rooms, err := r.repo.Draw.ListBySessions(ctx, ids)
	if err != nil {
		r.logger.Error("查询往期排位失败", zap.Error(err))
		return nil, err
	}

	h := draw.NewHistory()
	for _, room := range rooms {
		addRoomHistory(h, room)
	}
	return h, nil
}

func addRoomHistory(h *draw.History, room model.Room) {
	var speakers [][]string
	for _, team := range room.Teams {
		ids := make([]string, 0, len(team.Speakers))
		for _, sp := range team.Speakers {
			ids = append(ids, sp.MemberID)
		}
		speakers = append(speakers, ids)
	}

	for ti, team := range speakers {
		for i := range team {
			for j := i + 1; j < len(team); j++ {
				h.Add(team[i], team[j], draw.RelationTeammate)
			}
			for tj := ti + 1; tj < len(speakers); tj++ {
				for _, other := range speakers[tj] {
					h.Add(team[i], other, draw.RelationOpponent)
				}
			}
		}
	}

	for i, judge := range room.Judges {
		for _, other := range room.Judges[i+1:] {
			h.Add(judge.MemberID, other.MemberID, draw.RelationPanel)
		}
		for _, team := range speakers {
			for _, sp := range team {
				h.Add(judge.MemberID, sp, draw.RelationJudged)
			}
		}
	}
}

func formatOf(series *model.Series) draw.Format {
	return draw.Format{SpeakersPerTeam: series.SpeakersPerTeam, TeamsPerRoom: series.TeamsPerRoom}
}
