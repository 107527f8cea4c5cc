package model

import (
	"time"

	"gorm.io/gorm"
)

// 草稿来源
const (
	DraftSourceGenerated = "generated"
	DraftSourceManual    = "manual"
)

// 草稿条目类型
const (
	EntryKindSpeaker = "speaker"
	EntryKindJudge   = "judge"
	EntryKindBench   = "bench"
	EntryKindClash   = "clash"
)

// DraftDraw 草稿版本，写入后不可修改 — 对应 draft_draws
// (session_id, version) 唯一，版本号从 1 起连续递增
type DraftDraw struct {
	DraftID        string    `gorm:"type:varchar(36);primaryKey"                                 json:"draft_id"`
	SessionID      string    `gorm:"type:varchar(36);not null;uniqueIndex:uk_draft_session_version" json:"session_id"`
	Version        int       `gorm:"not null;uniqueIndex:uk_draft_session_version"               json:"version"`
	Source         string    `gorm:"type:varchar(20);not null"                                   json:"source"`
	BasedOnVersion int       `gorm:"not null;default:0"                                          json:"based_on_version"`
	CreatedAt      time.Time `gorm:"not null"                                                    json:"created_at"`
	CreatedBy      *string   `gorm:"type:varchar(64)"                                            json:"created_by,omitempty"`

	Entries []DraftDrawEntry `gorm:"foreignKey:DraftID;constraint:OnDelete:CASCADE" json:"entries,omitempty"`
}

func (DraftDraw) TableName() string { return "draft_draws" }

func (d *DraftDraw) BeforeCreate(*gorm.DB) error { ensureID(&d.DraftID); return nil }

// DraftDrawEntry 草稿条目，按 Kind 使用不同列 — 对应 draft_draw_entries
//
//	speaker: RoomIndex, TeamPosition, SpeakingOrder
//	judge:   RoomIndex, JudgeStatus
//	bench:   仅 MemberID
//	clash:   PeerMemberID, Relation（已放宽的冲突约束）
type DraftDrawEntry struct {
	EntryID       string  `gorm:"type:varchar(36);primaryKey"     json:"entry_id"`
	DraftID       string  `gorm:"type:varchar(36);not null;index" json:"draft_id"`
	Seq           int     `gorm:"not null"                        json:"seq"`
	Kind          string  `gorm:"type:varchar(10);not null"       json:"kind"`
	MemberID      string  `gorm:"type:varchar(36);not null"       json:"member_id"`
	RoomIndex     *int    `                                       json:"room_index,omitempty"`
	TeamPosition  *int    `                                       json:"team_position,omitempty"`
	SpeakingOrder *int    `                                       json:"speaking_order,omitempty"`
	JudgeStatus   *string `gorm:"type:varchar(10)"                json:"judge_status,omitempty"`
	PeerMemberID  *string `gorm:"type:varchar(36)"                json:"peer_member_id,omitempty"`
	Relation      *string `gorm:"type:varchar(20)"                json:"relation,omitempty"`
}

func (DraftDrawEntry) TableName() string { return "draft_draw_entries" }

func (e *DraftDrawEntry) BeforeCreate(*gorm.DB) error { ensureID(&e.EntryID); return nil }
