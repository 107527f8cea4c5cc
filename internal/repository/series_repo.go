package repository

import (
	"context"

	"gorm.io/gorm"

	"spartab/internal/model"
)

// SeriesRepository 系列数据访问接口
type SeriesRepository interface {
	Create(ctx context.Context, series *model.Series) error
	GetByID(ctx context.Context, id string) (*model.Series, error)
	List(ctx context.Context) ([]model.Series, error)
}

// MemberRepository 成员数据访问接口
type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	GetByID(ctx context.Context, id string) (*model.Member, error)
	GetByUser(ctx context.Context, seriesID, userID string) (*model.Member, error)
	ListBySeries(ctx context.Context, seriesID string) ([]model.Member, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Member, error)
	UpdateRating(ctx context.Context, id string, rating float64) error
	SetActive(ctx context.Context, id string, active bool) error
}

// ── Series Repository 实现 ──

type seriesRepo struct {
	db *gorm.DB
}

func NewSeriesRepo(db *gorm.DB) SeriesRepository {
	return &seriesRepo{db: db}
}

func (r *seriesRepo) Create(ctx context.Context, series *model.Series) error {
	return r.db.WithContext(ctx).Create(series).Error
}

func (r *seriesRepo) GetByID(ctx context.Context, id string) (*model.Series, error) {
	var series model.Series
	if err := r.db.WithContext(ctx).Where("series_id = ?", id).First(&series).Error; err != nil {
		return nil, err
	}
	return &series, nil
}

func (r *seriesRepo) List(ctx context.Context) ([]model.Series, error) {
	var list []model.Series
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&list).Error
	return list, err
}

// ── Member Repository 实现 ──

type memberRepo struct {
	db *gorm.DB
}

func NewMemberRepo(db *gorm.DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) Create(ctx context.Context, member *model.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepo) GetByID(ctx context.Context, id string) (*model.Member, error) {
	var member model.Member
	if err := r.db.WithContext(ctx).Where("member_id = ?", id).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) GetByUser(ctx context.Context, seriesID, userID string) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).
		Where("series_id = ? AND user_id = ?", seriesID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) ListBySeries(ctx context.Context, seriesID string) ([]model.Member, error) {
	var list []model.Member
	err := r.db.WithContext(ctx).
		Where("series_id = ?", seriesID).
		Order("name ASC, member_id ASC").
		Find(&list).Error
	return list, err
}

func (r *memberRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Member, error) {
	var list []model.Member
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Where("member_id IN ?", ids).Order("member_id ASC").Find(&list).Error
	return list, err
}

func (r *memberRepo) UpdateRating(ctx context.Context, id string, rating float64) error {
	return r.db.WithContext(ctx).
		Model(&model.Member{}).
		Where("member_id = ?", id).
		Update("rating", rating).Error
}

func (r *memberRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.db.WithContext(ctx).
		Model(&model.Member{}).
		Where("member_id = ?", id).
		Update("is_active", active).Error
}
