package dto

import "spartab/internal/tab"

// ── 选票 / 成绩 DTO ──

// BallotEntryRequest 单个辩手得分
type BallotEntryRequest struct {
	TeamID    string `json:"team_id"    binding:"required"`
	SpeakerID string `json:"speaker_id" binding:"required"`
	Position  int    `json:"position"   binding:"min=0"`
	Score     int    `json:"score"`
}

// SubmitBallotRequest 提交选票
//
// 房间已有结果且本票排名与之不同时需 Force 确认
type SubmitBallotRequest struct {
	Entries []BallotEntryRequest `json:"entries" binding:"required,min=1,dive"`
	Force   bool                 `json:"force"`
}

// BallotResponse 选票
type BallotResponse struct {
	ID                string      `json:"id"`
	RoomID            string      `json:"room_id"`
	JudgeAssignmentID string      `json:"judge_assignment_id"`
	JudgeMemberID     string      `json:"judge_member_id"`
	CreatedAt         string      `json:"created_at"`
	Entries           []tab.Entry `json:"entries"`
}

// SessionResultsResponse 场次成绩
type SessionResultsResponse struct {
	SessionID string            `json:"session_id"`
	Strategy  string            `json:"strategy"`
	Rooms     []tab.RoomResult  `json:"rooms"`
	Standings *tab.Standings    `json:"standings"`
	Members   map[string]string `json:"members"`
}

// SeriesRankingsResponse 系列排名
type SeriesRankingsResponse struct {
	SeriesID  string            `json:"series_id"`
	Sessions  int               `json:"sessions"`
	Standings *tab.Standings    `json:"standings"`
	Members   map[string]string `json:"members"`
}

// RatingChange 评分变化
type RatingChange struct {
	MemberID string  `json:"member_id"`
	Name     string  `json:"name"`
	Before   float64 `json:"before"`
	After    float64 `json:"after"`
}

// RecomputeRatingsResponse 评分重算结果
type RecomputeRatingsResponse struct {
	SeriesID string         `json:"series_id"`
	Rooms    int            `json:"rooms"`
	Changes  []RatingChange `json:"changes"`
}
