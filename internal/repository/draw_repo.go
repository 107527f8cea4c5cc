package repository

import (
	"context"

	"gorm.io/gorm"

	"spartab/internal/model"
)

// DrawRepository 已发布排位数据访问接口
type DrawRepository interface {
	CreateRooms(ctx context.Context, rooms []model.Room) error
	ListBySession(ctx context.Context, sessionID string) ([]model.Room, error)
	ListBySessions(ctx context.Context, sessionIDs []string) ([]model.Room, error)
	GetRoom(ctx context.Context, roomID string) (*model.Room, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	GetJudgeAssignment(ctx context.Context, roomID, memberID string) (*model.JudgeAssignment, error)
	ListAssignmentsByMember(ctx context.Context, memberID string) ([]model.SpeakerAssignment, []model.JudgeAssignment, error)
}

type drawRepo struct {
	db *gorm.DB
}

func NewDrawRepo(db *gorm.DB) DrawRepository {
	return &drawRepo{db: db}
}

// CreateRooms 连同队伍、辩手、裁判一次写入
func (r *drawRepo) CreateRooms(ctx context.Context, rooms []model.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rooms).Error
}

func (r *drawRepo) withLayout(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Teams", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Teams.Speakers", func(db *gorm.DB) *gorm.DB { return db.Order("speaking_order ASC") }).
		Preload("Judges", func(db *gorm.DB) *gorm.DB { return db.Order("member_id ASC") })
}

func (r *drawRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Room, error) {
	var rooms []model.Room
	err := r.withLayout(r.db.WithContext(ctx)).
		Where("session_id = ?", sessionID).
		Order("room_index ASC").
		Find(&rooms).Error
	return rooms, err
}

func (r *drawRepo) ListBySessions(ctx context.Context, sessionIDs []string) ([]model.Room, error) {
	var rooms []model.Room
	if len(sessionIDs) == 0 {
		return rooms, nil
	}
	err := r.withLayout(r.db.WithContext(ctx)).
		Where("session_id IN ?", sessionIDs).
		Order("session_id ASC, room_index ASC").
		Find(&rooms).Error
	return rooms, err
}

func (r *drawRepo) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room
	err := r.withLayout(r.db.WithContext(ctx)).
		Where("room_id = ?", roomID).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *drawRepo) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Room{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}

func (r *drawRepo) GetJudgeAssignment(ctx context.Context, roomID, memberID string) (*model.JudgeAssignment, error) {
	var ja model.JudgeAssignment
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND member_id = ?", roomID, memberID).
		First(&ja).Error
	if err != nil {
		return nil, err
	}
	return &ja, nil
}

// ListAssignmentsByMember 成员在各场次的辩手与裁判席位
func (r *drawRepo) ListAssignmentsByMember(ctx context.Context, memberID string) ([]model.SpeakerAssignment, []model.JudgeAssignment, error) {
	var speakers []model.SpeakerAssignment
	if err := r.db.WithContext(ctx).Where("member_id = ?", memberID).Find(&speakers).Error; err != nil {
		return nil, nil, err
	}
	var judges []model.JudgeAssignment
	if err := r.db.WithContext(ctx).Where("member_id = ?", memberID).Find(&judges).Error; err != nil {
		return nil, nil, err
	}
	return speakers, judges, nil
}
