package dto

import "time"

// TimeLayout 响应中的时间格式
const TimeLayout = "2006-01-02T15:04:05Z"

// FormatTime 统一转为 UTC 字符串
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// FormatTimePtr 空值返回 nil
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

// MemberBrief 成员简要信息
type MemberBrief struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

// ListResponse 列表响应
type ListResponse struct {
	List  interface{} `json:"list"`
	Total int         `json:"total"`
}
