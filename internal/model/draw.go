package model

import (
	"time"

	"gorm.io/gorm"
)

// 裁判席位
const (
	JudgeStatusChair    = "chair"
	JudgeStatusPanelist = "panelist"
	JudgeStatusTrainee  = "trainee"
)

// Room 已发布的房间 — 对应 rooms，发布后不可修改
type Room struct {
	RoomID    string    `gorm:"type:varchar(36);primaryKey"                               json:"room_id"`
	SessionID string    `gorm:"type:varchar(36);not null;uniqueIndex:uk_rooms_session_index" json:"session_id"`
	RoomIndex int       `gorm:"not null;uniqueIndex:uk_rooms_session_index"               json:"room_index"`
	CreatedAt time.Time `gorm:"not null"                                                  json:"created_at"`

	Teams  []Team            `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"teams,omitempty"`
	Judges []JudgeAssignment `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"judges,omitempty"`
}

func (Room) TableName() string { return "rooms" }

func (r *Room) BeforeCreate(*gorm.DB) error { ensureID(&r.RoomID); return nil }

// Team 房间内的队伍，(room, position) 唯一 — 对应 teams
type Team struct {
	TeamID   string `gorm:"type:varchar(36);primaryKey"                           json:"team_id"`
	RoomID   string `gorm:"type:varchar(36);not null;uniqueIndex:uk_teams_room_position" json:"room_id"`
	Position int    `gorm:"not null;uniqueIndex:uk_teams_room_position"           json:"position"`

	Speakers []SpeakerAssignment `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"speakers,omitempty"`
}

func (Team) TableName() string { return "teams" }

func (t *Team) BeforeCreate(*gorm.DB) error { ensureID(&t.TeamID); return nil }

// SpeakerAssignment 辩手席位，同一场次内成员唯一 — 对应 speaker_assignments
type SpeakerAssignment struct {
	SpeakerAssignmentID string `gorm:"type:varchar(36);primaryKey"                                  json:"speaker_assignment_id"`
	SessionID           string `gorm:"type:varchar(36);not null;uniqueIndex:uk_speakers_session_member" json:"session_id"`
	TeamID              string `gorm:"type:varchar(36);not null;uniqueIndex:uk_speakers_team_order" json:"team_id"`
	MemberID            string `gorm:"type:varchar(36);not null;uniqueIndex:uk_speakers_session_member" json:"member_id"`
	SpeakingOrder       int    `gorm:"not null;uniqueIndex:uk_speakers_team_order"                  json:"speaking_order"`

	Member *Member `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
}

func (SpeakerAssignment) TableName() string { return "speaker_assignments" }

func (s *SpeakerAssignment) BeforeCreate(*gorm.DB) error { ensureID(&s.SpeakerAssignmentID); return nil }

// JudgeAssignment 裁判席位，同一场次内成员唯一 — 对应 judge_assignments
type JudgeAssignment struct {
	JudgeAssignmentID string `gorm:"type:varchar(36);primaryKey"                                json:"judge_assignment_id"`
	SessionID         string `gorm:"type:varchar(36);not null;uniqueIndex:uk_judges_session_member" json:"session_id"`
	RoomID            string `gorm:"type:varchar(36);not null;index"                            json:"room_id"`
	MemberID          string `gorm:"type:varchar(36);not null;uniqueIndex:uk_judges_session_member" json:"member_id"`
	Status            string `gorm:"type:varchar(10);not null"                                  json:"status"`

	Member *Member `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
}

func (JudgeAssignment) TableName() string { return "judge_assignments" }

func (j *JudgeAssignment) BeforeCreate(*gorm.DB) error { ensureID(&j.JudgeAssignmentID); return nil }
