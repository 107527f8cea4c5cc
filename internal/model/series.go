package model

import "gorm.io/gorm"

// Series 练习赛系列 — 对应 series
type Series struct {
	SeriesID        string `gorm:"type:varchar(36);primaryKey"        json:"series_id"`
	Title           string `gorm:"type:varchar(200);not null"         json:"title"`
	Description     string `gorm:"type:text"                          json:"description,omitempty"`
	SpeakersPerTeam int    `gorm:"not null;default:2"                 json:"speakers_per_team"`
	TeamsPerRoom    int    `gorm:"not null;default:4"                 json:"teams_per_room"`
	BaseModel
}

func (Series) TableName() string { return "series" }

func (s *Series) BeforeCreate(*gorm.DB) error { ensureID(&s.SeriesID); return nil }

// Member 系列成员，只停用不删除 — 对应 members
type Member struct {
	MemberID string  `gorm:"type:varchar(36);primaryKey"                                             json:"member_id"`
	SeriesID string  `gorm:"type:varchar(36);not null;uniqueIndex:uk_members_series_user,priority:1" json:"series_id"`
	UserID   *string `gorm:"type:varchar(64);uniqueIndex:uk_members_series_user,priority:2"          json:"user_id,omitempty"`
	Name     string  `gorm:"type:varchar(100);not null"                                              json:"name"`
	Email    string  `gorm:"type:varchar(200)"                                                       json:"email,omitempty"`
	Rating   float64 `gorm:"not null"                                                                json:"rating"`
	IsActive bool    `gorm:"not null"                                                                json:"is_active"`
	BaseModel

	Series *Series `gorm:"foreignKey:SeriesID;references:SeriesID" json:"-"`
}

func (Member) TableName() string { return "members" }

func (m *Member) BeforeCreate(*gorm.DB) error { ensureID(&m.MemberID); return nil }
