// Package tab 汇总裁判选票：选票校验、权威选票选择、房间结果与场次/系列排名。
package tab

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrMalformedBallot 选票内容不完整或越界
var ErrMalformedBallot = errors.New("选票格式错误")

// BallotError 选票校验失败，列出全部问题
type BallotError struct {
	Problems []string
}

func (e *BallotError) Error() string {
	return ErrMalformedBallot.Error() + ": " + strings.Join(e.Problems, "; ")
}

// Is 使 errors.Is(err, ErrMalformedBallot) 成立
func (e *BallotError) Is(target error) bool { return target == ErrMalformedBallot }

// Entry 一名辩手在一张选票上的得分
type Entry struct {
	TeamID    string `json:"team_id"`
	SpeakerID string `json:"speaker_id"`
	Position  int    `json:"position"`
	Score     int    `json:"score"`
}

// Ballot 一张选票
type Ballot struct {
	BallotID    string    `json:"ballot_id"`
	JudgeID     string    `json:"judge_id"`
	JudgeStatus string    `json:"judge_status"`
	CreatedAt   time.Time `json:"created_at"`
	Entries     []Entry   `json:"entries"`
}

// LayoutTeam 已发布房间中的一支队伍
type LayoutTeam struct {
	TeamID   string   `json:"team_id"`
	Position int      `json:"position"`
	Speakers []string `json:"speakers"`
}

// Layout 已发布房间的结构
type Layout struct {
	RoomID          string       `json:"room_id"`
	RoomIndex       int          `json:"room_index"`
	SpeakersPerTeam int          `json:"speakers_per_team"`
	Teams           []LayoutTeam `json:"teams"`
}

// Rules 选票规则
type Rules struct {
	MinScore         int
	MaxScore         int
	RejectTiedTotals bool
}

// DefaultRules 默认分数区间 50..100
func DefaultRules() Rules {
	return Rules{MinScore: 50, MaxScore: 100}
}

// ValidateBallot 检查选票：每队每名辩手、每个发言位置各恰好一条，分数在区间内
func ValidateBallot(layout Layout, entries []Entry, rules Rules) error {
	var problems []string
	addf := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	byTeam := make(map[string][]Entry)
	for _, e := range entries {
		byTeam[e.TeamID] = append(byTeam[e.TeamID], e)
		if e.Score < rules.MinScore || e.Score > rules.MaxScore {
			addf("辩手 %s 得分 %d 不在 %d-%d 之间", e.SpeakerID, e.Score, rules.MinScore, rules.MaxScore)
		}
	}

	known := make(map[string]bool, len(layout.Teams))
	totals := make(map[int][]int)
	for _, team := range layout.Teams {
		known[team.TeamID] = true
		got := byTeam[team.TeamID]
		if len(got) != len(team.Speakers) {
			addf("队伍 %d 应有 %d 条得分，实际 %d 条", team.Position, len(team.Speakers), len(got))
		}

		members := make(map[string]bool, len(team.Speakers))
		for _, s := range team.Speakers {
			members[s] = true
		}
		seenSpeaker := make(map[string]bool)
		seenPos := make(map[int]bool)
		total := 0
		for _, e := range got {
			total += e.Score
			if !members[e.SpeakerID] {
				addf("辩手 %s 不属于队伍 %d", e.SpeakerID, team.Position)
			}
			if seenSpeaker[e.SpeakerID] {
				addf("辩手 %s 重复计分", e.SpeakerID)
			}
			seenSpeaker[e.SpeakerID] = true
			if e.Position < 0 || e.Position >= len(team.Speakers) {
				addf("队伍 %d 的发言位置 %d 越界", team.Position, e.Position)
			} else if seenPos[e.Position] {
				addf("队伍 %d 的发言位置 %d 重复", team.Position, e.Position)
			}
			seenPos[e.Position] = true
		}
		totals[total] = append(totals[total], team.Position)
	}

	for team := range byTeam {
		if !known[team] {
			addf("队伍 %s 不在该房间", team)
		}
	}

	if rules.RejectTiedTotals && len(problems) == 0 {
		for total, positions := range totals {
			if len(positions) > 1 {
				sort.Ints(positions)
				addf("队伍 %v 总分同为 %d", positions, total)
			}
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return &BallotError{Problems: problems}
	}
	return nil
}

// SelectAuthoritative 每名裁判取最近一张选票，按裁判 ID 排序返回
// 时间相同时取 ID 较大者（UUIDv7 按生成顺序递增）
func SelectAuthoritative(ballots []Ballot) []Ballot {
	latest := make(map[string]Ballot)
	for _, b := range ballots {
		cur, ok := latest[b.JudgeID]
		if !ok || newer(b, cur) {
			latest[b.JudgeID] = b
		}
	}
	out := make([]Ballot, 0, len(latest))
	for _, b := range latest {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JudgeID < out[j].JudgeID })
	return out
}

func newer(a, b Ballot) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.BallotID > b.BallotID
}
