package repository

import (
	"context"

	"gorm.io/gorm"

	"spartab/internal/model"
)

// BallotRepository 选票数据访问接口，只追加
type BallotRepository interface {
	Create(ctx context.Context, ballot *model.Ballot) error
	ListByRoom(ctx context.Context, roomID string) ([]model.Ballot, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.Ballot, error)
}

type ballotRepo struct {
	db *gorm.DB
}

func NewBallotRepo(db *gorm.DB) BallotRepository {
	return &ballotRepo{db: db}
}

// Create 写入选票及其条目
func (r *ballotRepo) Create(ctx context.Context, ballot *model.Ballot) error {
	return r.db.WithContext(ctx).Create(ballot).Error
}

func (r *ballotRepo) ListByRoom(ctx context.Context, roomID string) ([]model.Ballot, error) {
	var list []model.Ballot
	err := r.db.WithContext(ctx).
		Preload("Entries").
		Where("room_id = ?", roomID).
		Order("created_at ASC, ballot_id ASC").
		Find(&list).Error
	return list, err
}

func (r *ballotRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Ballot, error) {
	var list []model.Ballot
	err := r.db.WithContext(ctx).
		Preload("Entries").
		Where("session_id = ?", sessionID).
		Order("created_at ASC, ballot_id ASC").
		Find(&list).Error
	return list, err
}
