package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"spartab/internal/model"
	pkgerrors "spartab/pkg/errors"
)

// SessionRepository 场次数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	ListBySeries(ctx context.Context, seriesID string) ([]model.Session, error)
	ListReleased(ctx context.Context, seriesID, excludeID string) ([]model.Session, error)
	AdvanceDraftVersion(ctx context.Context, id string, expected int) error
	MarkReleased(ctx context.Context, id string, draftVersion int, at time.Time) error
	MarkComplete(ctx context.Context, id string) error
	SetOpen(ctx context.Context, id string, open bool) error
	Delete(ctx context.Context, id string) error
}

// SignupRepository 报名数据访问接口
type SignupRepository interface {
	Create(ctx context.Context, signup *model.Signup) error
	Get(ctx context.Context, sessionID, memberID string) (*model.Signup, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.Signup, error)
	UpdateRoles(ctx context.Context, signup *model.Signup) error
	Delete(ctx context.Context, sessionID, memberID string) error
}

// ── Session Repository 实现 ──

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Preload("Series").
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListBySeries(ctx context.Context, seriesID string) ([]model.Session, error) {
	var list []model.Session
	err := r.db.WithContext(ctx).
		Where("series_id = ?", seriesID).
		Order("start_time ASC, session_id ASC").
		Find(&list).Error
	return list, err
}

func (r *sessionRepo) ListReleased(ctx context.Context, seriesID, excludeID string) ([]model.Session, error) {
	var list []model.Session
	err := r.db.WithContext(ctx).
		Where("series_id = ? AND released = ? AND session_id <> ?", seriesID, true, excludeID).
		Order("start_time ASC, session_id ASC").
		Find(&list).Error
	return list, err
}

// AdvanceDraftVersion 当前版本号等于 expected 且未发布时加一，否则返回 ErrOptimisticLock
func (r *sessionRepo) AdvanceDraftVersion(ctx context.Context, id string, expected int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_id = ? AND current_draft_version = ? AND released = ?", id, expected, false).
		Updates(map[string]interface{}{
			"current_draft_version": expected + 1,
			"updated_at":            time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// MarkReleased 仅当未发布且当前草稿仍为 draftVersion 时置为已发布并关闭报名
func (r *sessionRepo) MarkReleased(ctx context.Context, id string, draftVersion int, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_id = ? AND released = ? AND current_draft_version = ?", id, false, draftVersion).
		Updates(map[string]interface{}{
			"released":               true,
			"is_open":                false,
			"released_at":            at,
			"released_draft_version": draftVersion,
			"updated_at":             at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *sessionRepo) MarkComplete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_id = ? AND released = ?", id, true).
		Updates(map[string]interface{}{"is_complete": true, "updated_at": time.Now().UTC()}).Error
}

func (r *sessionRepo) SetOpen(ctx context.Context, id string, open bool) error {
	return r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_id = ? AND released = ?", id, false).
		Updates(map[string]interface{}{"is_open": open, "updated_at": time.Now().UTC()}).Error
}

// Delete 级联删除场次下的草稿、排位、选票与报名
func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ballots := tx.Model(&model.Ballot{}).Select("ballot_id").Where("session_id = ?", id)
		rooms := tx.Model(&model.Room{}).Select("room_id").Where("session_id = ?", id)
		drafts := tx.Model(&model.DraftDraw{}).Select("draft_id").Where("session_id = ?", id)

		steps := []func() error{
			func() error { return tx.Where("ballot_id IN (?)", ballots).Delete(&model.BallotEntry{}).Error },
			func() error { return tx.Where("session_id = ?", id).Delete(&model.Ballot{}).Error },
			func() error { return tx.Where("session_id = ?", id).Delete(&model.SpeakerAssignment{}).Error },
			func() error { return tx.Where("session_id = ?", id).Delete(&model.JudgeAssignment{}).Error },
			func() error { return tx.Where("room_id IN (?)", rooms).Delete(&model.Team{}).Error },
			func() error { return tx.Where("session_id = ?", id).Delete(&model.Room{}).Error },
			func() error { return tx.Where("draft_id IN (?)", drafts).Delete(&model.DraftDrawEntry{}).Error },
			func() error { return tx.Where("session_id = ?", id).Delete(&model.DraftDraw{}).Error },
			func() error { return tx.Where("session_id = ?", id).Delete(&model.Signup{}).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		result := tx.Where("session_id = ?", id).Delete(&model.Session{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ── Signup Repository 实现 ──

type signupRepo struct {
	db *gorm.DB
}

func NewSignupRepo(db *gorm.DB) SignupRepository {
	return &signupRepo{db: db}
}

func (r *signupRepo) Create(ctx context.Context, signup *model.Signup) error {
	return r.db.WithContext(ctx).Create(signup).Error
}

func (r *signupRepo) Get(ctx context.Context, sessionID, memberID string) (*model.Signup, error) {
	var signup model.Signup
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND member_id = ?", sessionID, memberID).
		First(&signup).Error
	if err != nil {
		return nil, err
	}
	return &signup, nil
}

func (r *signupRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Signup, error) {
	var list []model.Signup
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("session_id = ?", sessionID).
		Order("member_id ASC").
		Find(&list).Error
	return list, err
}

func (r *signupRepo) UpdateRoles(ctx context.Context, signup *model.Signup) error {
	return r.db.WithContext(ctx).
		Model(&model.Signup{}).
		Where("signup_id = ?", signup.SignupID).
		Updates(map[string]interface{}{
			"as_speaker": signup.AsSpeaker,
			"as_judge":   signup.AsJudge,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *signupRepo) Delete(ctx context.Context, sessionID, memberID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ? AND member_id = ?", sessionID, memberID).
		Delete(&model.Signup{}).Error
}
