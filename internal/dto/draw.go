package dto

import "spartab/internal/draw"

// ── 草稿 / 发布 DTO ──

// ProposeDraftRequest 提交人工编辑后的草稿
// BasedOnVersion 为编辑所基于的版本，0 表示不做检查
type ProposeDraftRequest struct {
	BasedOnVersion int            `json:"based_on_version" binding:"omitempty,min=0"`
	Draw           *draw.Snapshot `json:"draw"             binding:"required"`
}

// MoveSpeakerRequest 移动辩手；RoomIndex 为 -1 表示移入轮空区
type MoveSpeakerRequest struct {
	BasedOnVersion int    `json:"based_on_version" binding:"omitempty,min=0"`
	MemberID       string `json:"member_id"        binding:"required"`
	SwapWith       string `json:"swap_with"`
	RoomIndex      int    `json:"room_index"       binding:"min=-1"`
	Position       int    `json:"position"         binding:"min=0"`
	SpeakingOrder  int    `json:"speaking_order"   binding:"min=0"`
}

// MoveJudgeRequest 移动裁判
type MoveJudgeRequest struct {
	BasedOnVersion int    `json:"based_on_version" binding:"omitempty,min=0"`
	MemberID       string `json:"member_id"        binding:"required"`
	RoomIndex      int    `json:"room_index"       binding:"min=0"`
	Status         string `json:"status"           binding:"required,oneof=chair panelist trainee"`
}

// DraftResponse 草稿版本
type DraftResponse struct {
	SessionID      string            `json:"session_id"`
	Version        int               `json:"version"`
	Source         string            `json:"source"`
	BasedOnVersion int               `json:"based_on_version"`
	CreatedAt      string            `json:"created_at"`
	CreatedBy      *string           `json:"created_by,omitempty"`
	Draw           *draw.Snapshot    `json:"draw"`
	Members        map[string]string `json:"members"` // member_id → 姓名
}

// DraftVersionBrief 版本列表项
type DraftVersionBrief struct {
	Version        int     `json:"version"`
	Source         string  `json:"source"`
	BasedOnVersion int     `json:"based_on_version"`
	CreatedAt      string  `json:"created_at"`
	CreatedBy      *string `json:"created_by,omitempty"`
}

// ReleasedJudge 已发布裁判席位
type ReleasedJudge struct {
	JudgeAssignmentID string      `json:"judge_assignment_id"`
	Member            MemberBrief `json:"member"`
	Status            string      `json:"status"`
}

// ReleasedTeam 已发布队伍
type ReleasedTeam struct {
	TeamID   string        `json:"team_id"`
	Position int           `json:"position"`
	Speakers []MemberBrief `json:"speakers"`
}

// ReleasedRoom 已发布房间
type ReleasedRoom struct {
	RoomID string          `json:"room_id"`
	Index  int             `json:"index"`
	Teams  []ReleasedTeam  `json:"teams"`
	Judges []ReleasedJudge `json:"judges"`
}

// ReleasedDrawResponse 已发布排位
type ReleasedDrawResponse struct {
	SessionID    string         `json:"session_id"`
	DraftVersion int            `json:"draft_version"`
	ReleasedAt   *string        `json:"released_at,omitempty"`
	Rooms        []ReleasedRoom `json:"rooms"`
	Benched      []MemberBrief  `json:"benched"`
}
