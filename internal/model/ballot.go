package model

import (
	"time"

	"gorm.io/gorm"
)

// Ballot 裁判提交的选票，只追加不修改 — 对应 ballots
type Ballot struct {
	BallotID          string    `gorm:"type:varchar(36);primaryKey"     json:"ballot_id"`
	RoomID            string    `gorm:"type:varchar(36);not null;index" json:"room_id"`
	SessionID         string    `gorm:"type:varchar(36);not null;index" json:"session_id"`
	JudgeAssignmentID string    `gorm:"type:varchar(36);not null"       json:"judge_assignment_id"`
	MemberID          string    `gorm:"type:varchar(36);not null"       json:"member_id"`
	CreatedAt         time.Time `gorm:"not null;index"                  json:"created_at"`

	Entries []BallotEntry `gorm:"foreignKey:BallotID;constraint:OnDelete:CASCADE" json:"entries,omitempty"`
}

func (Ballot) TableName() string { return "ballots" }

func (b *Ballot) BeforeCreate(*gorm.DB) error { ensureID(&b.BallotID); return nil }

// BallotEntry 单个辩手的得分 — 对应 ballot_entries
type BallotEntry struct {
	BallotEntryID   string `gorm:"type:varchar(36);primaryKey"     json:"ballot_entry_id"`
	BallotID        string `gorm:"type:varchar(36);not null;index" json:"ballot_id"`
	TeamID          string `gorm:"type:varchar(36);not null"       json:"team_id"`
	SpeakerMemberID string `gorm:"type:varchar(36);not null"       json:"speaker_member_id"`
	Position        int    `gorm:"not null"                        json:"position"`
	Score           int    `gorm:"not null"                        json:"score"`
}

func (BallotEntry) TableName() string { return "ballot_entries" }

func (e *BallotEntry) BeforeCreate(*gorm.DB) error { ensureID(&e.BallotEntryID); return nil }
