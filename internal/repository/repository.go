package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Series  SeriesRepository
	Member  MemberRepository
	Session SessionRepository
	Signup  SignupRepository
	Draft   DraftRepository
	Draw    DrawRepository
	Ballot  BallotRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:      db,
		Series:  NewSeriesRepo(db),
		Member:  NewMemberRepo(db),
		Session: NewSessionRepo(db),
		Signup:  NewSignupRepo(db),
		Draft:   NewDraftRepo(db),
		Draw:    NewDrawRepo(db),
		Ballot:  NewBallotRepo(db),
	}
}

// BeginTx 开启事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn，fn 返回错误或 panic 时回滚
// fn 内只能使用传入的 txRepo，否则读写不在同一事务中
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
