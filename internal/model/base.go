package model

import (
	"time"

	"github.com/google/uuid"
)

// NewID 生成按时间有序的 UUIDv7 主键
// 在应用侧生成，PostgreSQL 与 SQLite 行为一致
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// BaseModel 通用审计字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null"             json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(36)"     json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null"             json:"updated_at"`
}

// All 全部模型，按外键依赖顺序排列
func All() []interface{} {
	return []interface{}{
		&Series{},
		&Member{},
		&Session{},
		&Signup{},
		&DraftDraw{},
		&DraftDrawEntry{},
		&Room{},
		&Team{},
		&SpeakerAssignment{},
		&JudgeAssignment{},
		&Ballot{},
		&BallotEntry{},
	}
}

func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}
