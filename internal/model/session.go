package model

import (
	"time"

	"gorm.io/gorm"
)

// Session 单次练习赛 — 对应 sessions
// Released 为终态；CurrentDraftVersion 为 0 表示尚无草稿
type Session struct {
	SessionID            string     `gorm:"type:varchar(36);primaryKey"     json:"session_id"`
	SeriesID             string     `gorm:"type:varchar(36);not null;index" json:"series_id"`
	Title                string     `gorm:"type:varchar(200)"               json:"title,omitempty"`
	Location             string     `gorm:"type:varchar(200)"               json:"location,omitempty"`
	StartTime            time.Time  `gorm:"not null"                        json:"start_time"`
	IsOpen               bool       `gorm:"not null"                        json:"is_open"`
	Released             bool       `gorm:"not null;default:false"          json:"released"`
	ReleasedAt           *time.Time `                                       json:"released_at,omitempty"`
	ReleasedDraftVersion int        `gorm:"not null;default:0"              json:"released_draft_version"`
	CurrentDraftVersion  int        `gorm:"not null;default:0"              json:"current_draft_version"`
	IsComplete           bool       `gorm:"not null;default:false"          json:"is_complete"`
	BaseModel

	Series *Series `gorm:"foreignKey:SeriesID;references:SeriesID" json:"series,omitempty"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) BeforeCreate(*gorm.DB) error { ensureID(&s.SessionID); return nil }

// Signup 报名记录，(member, session) 唯一 — 对应 signups
type Signup struct {
	SignupID  string `gorm:"type:varchar(36);primaryKey"                                       json:"signup_id"`
	SessionID string `gorm:"type:varchar(36);not null;uniqueIndex:uk_signups_session_member"   json:"session_id"`
	MemberID  string `gorm:"type:varchar(36);not null;uniqueIndex:uk_signups_session_member"   json:"member_id"`
	AsSpeaker bool   `gorm:"not null;default:false"                                            json:"as_speaker"`
	AsJudge   bool   `gorm:"not null;default:false"                                            json:"as_judge"`
	BaseModel

	Member *Member `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
}

func (Signup) TableName() string { return "signups" }

func (s *Signup) BeforeCreate(*gorm.DB) error { ensureID(&s.SignupID); return nil }
