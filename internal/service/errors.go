package service

import (
	"errors"
	"strings"

	"spartab/internal/draw"
	"spartab/internal/tab"
)

// ── 通用业务错误 ──

var (
	ErrSeriesNotFound  = errors.New("系列不存在")
	ErrSessionNotFound = errors.New("场次不存在")
	ErrMemberNotFound  = errors.New("成员不存在")
	ErrRoomNotFound    = errors.New("房间不存在")
)

// ── 草稿与发布错误 ──

var (
	ErrDraftNotFound    = errors.New("草稿不存在")
	ErrDraftStale       = errors.New("草稿已过期，请基于最新版本重试")
	ErrInvalidDraft     = errors.New("草稿结构无效")
	ErrSessionLocked    = errors.New("场次排位已发布，不可修改")
	ErrDrawNotReleased  = errors.New("场次排位尚未发布")
	ErrInsufficientPool = draw.ErrInsufficientPool
	ErrInfeasible       = draw.ErrInfeasible
)

// ── 选票错误 ──

var (
	ErrMalformedBallot  = tab.ErrMalformedBallot
	ErrNotAssignedJudge = errors.New("当前用户不是该房间的裁判")
	ErrBallotConflict   = errors.New("该房间已有结果不同的选票")
)

// DraftError 携带约束违规明细，errors.Is 匹配 Kind
type DraftError struct {
	Kind       error
	Violations []draw.Violation
}

func (e *DraftError) Error() string {
	if len(e.Violations) == 0 {
		return e.Kind.Error()
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return e.Kind.Error() + ": " + strings.Join(parts, "; ")
}

func (e *DraftError) Is(target error) bool { return target == e.Kind }

// ViolationsOf 取出草稿错误中的违规明细
func ViolationsOf(err error) []draw.Violation {
	var de *DraftError
	if errors.As(err, &de) {
		return de.Violations
	}
	return nil
}
