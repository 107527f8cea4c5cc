package dto

// ── 系列 / 场次 / 报名 DTO ──

// CreateSeriesRequest 创建系列
type CreateSeriesRequest struct {
	Title           string `json:"title"             binding:"required,min=1,max=200"`
	Description     string `json:"description"       binding:"omitempty,max=2000"`
	SpeakersPerTeam int    `json:"speakers_per_team" binding:"required,min=1,max=4"`
	TeamsPerRoom    int    `json:"teams_per_room"    binding:"required,min=2,max=4"`
}

// SeriesResponse 系列
type SeriesResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	SpeakersPerTeam int    `json:"speakers_per_team"`
	TeamsPerRoom    int    `json:"teams_per_room"`
	CreatedAt       string `json:"created_at"`
}

// AddMemberRequest 添加成员
type AddMemberRequest struct {
	UserID string   `json:"user_id" binding:"omitempty,max=64"`
	Name   string   `json:"name"    binding:"required,min=1,max=100"`
	Email  string   `json:"email"   binding:"omitempty,email"`
	Rating *float64 `json:"rating"`
}

// MemberResponse 成员
type MemberResponse struct {
	ID       string  `json:"id"`
	SeriesID string  `json:"series_id"`
	UserID   *string `json:"user_id,omitempty"`
	Name     string  `json:"name"`
	Email    string  `json:"email,omitempty"`
	Rating   float64 `json:"rating"`
	IsActive bool    `json:"is_active"`
}

// CreateSessionRequest 创建场次
type CreateSessionRequest struct {
	Title     string `json:"title"      binding:"omitempty,max=200"`
	Location  string `json:"location"   binding:"omitempty,max=200"`
	StartTime string `json:"start_time" binding:"required"` // RFC3339
}

// SessionResponse 场次
type SessionResponse struct {
	ID                  string  `json:"id"`
	SeriesID            string  `json:"series_id"`
	Title               string  `json:"title,omitempty"`
	Location            string  `json:"location,omitempty"`
	StartTime           string  `json:"start_time"`
	IsOpen              bool    `json:"is_open"`
	Released            bool    `json:"released"`
	ReleasedAt          *string `json:"released_at,omitempty"`
	CurrentDraftVersion int     `json:"current_draft_version"`
	IsComplete          bool    `json:"is_complete"`
}

// SignupRequest 报名或修改报名角色
type SignupRequest struct {
	MemberID  string `json:"member_id"  binding:"required"`
	AsSpeaker bool   `json:"as_speaker"`
	AsJudge   bool   `json:"as_judge"`
}

// SignupResponse 报名
type SignupResponse struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	Member    MemberBrief `json:"member"`
	AsSpeaker bool        `json:"as_speaker"`
	AsJudge   bool        `json:"as_judge"`
}

// SetOpenRequest 开启或关闭报名
type SetOpenRequest struct {
	IsOpen *bool `json:"is_open" binding:"required"`
}

// SetActiveRequest 启用或停用成员
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
