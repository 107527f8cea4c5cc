package repository

import (
	"context"

	"gorm.io/gorm"

	"spartab/internal/model"
)

// DraftRepository 草稿版本数据访问接口，草稿只增不改
type DraftRepository interface {
	Create(ctx context.Context, draft *model.DraftDraw) error
	GetByVersion(ctx context.Context, sessionID string, version int) (*model.DraftDraw, error)
	ListVersions(ctx context.Context, sessionID string) ([]model.DraftDraw, error)
}

type draftRepo struct {
	db *gorm.DB
}

func NewDraftRepo(db *gorm.DB) DraftRepository {
	return &draftRepo{db: db}
}

// Create 写入草稿及其全部条目
func (r *draftRepo) Create(ctx context.Context, draft *model.DraftDraw) error {
	return r.db.WithContext(ctx).Create(draft).Error
}

func (r *draftRepo) GetByVersion(ctx context.Context, sessionID string, version int) (*model.DraftDraw, error) {
	var draft model.DraftDraw
	err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("session_id = ? AND version = ?", sessionID, version).
		First(&draft).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// ListVersions 不含条目的版本列表
func (r *draftRepo) ListVersions(ctx context.Context, sessionID string) ([]model.DraftDraw, error) {
	var list []model.DraftDraw
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("version ASC").
		Find(&list).Error
	return list, err
}
