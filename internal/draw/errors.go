package draw

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientPool = errors.New("报名辩手不足以组成一个完整房间")
	ErrInfeasible       = errors.New("不存在满足全部硬约束的排位")
	ErrInvalidFormat    = errors.New("赛制参数无效")
	ErrMemberNotPlaced  = errors.New("成员不在当前排位中")
)

// ConstraintClass 约束类别
type ConstraintClass string

const (
	ClassJudges      ConstraintClass = "judges"       // 裁判不足，无法每房一名主裁
	ClassBench       ConstraintClass = "bench"        // 轮空人数超过上限
	ClassTimeout     ConstraintClass = "timeout"      // 求解超时或被取消
	ClassTeamSize    ConstraintClass = "team_size"    // 队伍人数不符
	ClassRoomSize    ConstraintClass = "room_size"    // 房间队伍数不符
	ClassPosition    ConstraintClass = "position"     // 队伍位置重复或越界
	ClassRoomIndex   ConstraintClass = "room_index"   // 房间序号重复或不连续
	ClassChair       ConstraintClass = "chair"        // 主裁数量不为一
	ClassJudgeStatus ConstraintClass = "judge_status" // 裁判席位无效
	ClassDuplicate   ConstraintClass = "duplicate"    // 成员出现多次
	ClassRole        ConstraintClass = "role"         // 角色与报名不符
	ClassCoverage    ConstraintClass = "coverage"     // 报名成员未被安排
	ClassUnknown     ConstraintClass = "unknown_member"
	ClassClash       ConstraintClass = "clash" // 未被确认的硬冲突
	ClassFormat      ConstraintClass = "format"
)

// InfeasibleError 无可行解，Class 指明受阻的约束
type InfeasibleError struct {
	Class  ConstraintClass
	Detail string
	Err    error
}

func (e *InfeasibleError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrInfeasible.Error(), e.Class)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrInfeasible.Error(), e.Class, e.Detail)
}

// Is 使 errors.Is(err, ErrInfeasible) 成立
func (e *InfeasibleError) Is(target error) bool { return target == ErrInfeasible }

func (e *InfeasibleError) Unwrap() error { return e.Err }
