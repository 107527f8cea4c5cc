package tab

import (
	"fmt"
	"sort"
)

// SpeakerScore 辩手得分
type SpeakerScore struct {
	MemberID string  `json:"member_id"`
	TeamID   string  `json:"team_id"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
}

// TeamResult 队伍在一张选票或一个房间中的结果
type TeamResult struct {
	TeamID   string         `json:"team_id"`
	Position int            `json:"position"`
	Score    float64        `json:"score"`
	Margin   float64        `json:"margin"`
	Rank     int            `json:"rank"` // 0 为第一
	Points   float64        `json:"points"`
	Speakers []SpeakerScore `json:"speakers"`

	variance float64
}

// BallotResult 单张选票的排名
type BallotResult struct {
	BallotID string       `json:"ballot_id"`
	JudgeID  string       `json:"judge_id"`
	Teams    []TeamResult `json:"teams"` // 按排名
}

// SameRanking 两组结果的队伍名次是否一致
func SameRanking(a, b []TeamResult) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].TeamID != b[i].TeamID {
			return false
		}
	}
	return true
}

// Winner 排名第一的队伍
func (b BallotResult) Winner() string {
	if len(b.Teams) == 0 {
		return ""
	}
	return b.Teams[0].TeamID
}

// RankBallot 计算一张选票的队伍排名
//
// 队伍得分为辩手分之和；同分时依次比较净胜分（本队分减其余队平均分）、
// 辩手分方差（小者优先）、队伍位置。积分为 队伍数-1-名次。
func RankBallot(layout Layout, b Ballot) BallotResult {
	teams := make([]TeamResult, 0, len(layout.Teams))
	index := make(map[string]int)
	for _, t := range layout.Teams {
		index[t.TeamID] = len(teams)
		teams = append(teams, TeamResult{TeamID: t.TeamID, Position: t.Position})
	}
	for _, e := range b.Entries {
		i, ok := index[e.TeamID]
		if !ok {
			continue
		}
		teams[i].Score += float64(e.Score)
		teams[i].Speakers = append(teams[i].Speakers, SpeakerScore{
			MemberID: e.SpeakerID, TeamID: e.TeamID, Position: e.Position, Score: float64(e.Score),
		})
	}

	var total float64
	for _, t := range teams {
		total += t.Score
	}
	n := float64(len(teams))
	for i := range teams {
		t := &teams[i]
		if n > 1 {
			t.Margin = t.Score - (total-t.Score)/(n-1)
		}
		t.variance = variance(t.Speakers)
		sort.Slice(t.Speakers, func(a, b int) bool { return t.Speakers[a].Position < t.Speakers[b].Position })
	}

	sort.SliceStable(teams, func(i, j int) bool {
		a, b := teams[i], teams[j]
		switch {
		case a.Score != b.Score:
			return a.Score > b.Score
		case a.Margin != b.Margin:
			return a.Margin > b.Margin
		case a.variance != b.variance:
			return a.variance < b.variance
		default:
			return a.Position < b.Position
		}
	})
	for i := range teams {
		teams[i].Rank = i
		teams[i].Points = float64(len(teams) - 1 - i)
	}
	return BallotResult{BallotID: b.BallotID, JudgeID: b.JudgeID, Teams: teams}
}

func variance(ss []SpeakerScore) float64 {
	if len(ss) == 0 {
		return 0
	}
	var mean float64
	for _, s := range ss {
		mean += s.Score
	}
	mean /= float64(len(ss))
	var v float64
	for _, s := range ss {
		v += (s.Score - mean) * (s.Score - mean)
	}
	return v / float64(len(ss))
}

// RoomResult 房间的权威结果
type RoomResult struct {
	RoomID    string         `json:"room_id"`
	RoomIndex int            `json:"room_index"`
	Strategy  string         `json:"strategy"`
	Decided   bool           `json:"decided"`
	Teams     []TeamResult   `json:"teams"` // 按排名
	Ballots   []BallotResult `json:"ballots"`
}

// Strategy 合议规则：多名裁判的权威选票如何合成房间结果
type Strategy interface {
	Name() string
	Consolidate(layout Layout, authoritative []Ballot) RoomResult
}

const (
	StrategyIndependent = "independent"
	StrategyChair       = "chair"
	StrategyLatest      = "latest"
)

// StrategyByName 按名称取合议规则
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "", StrategyIndependent:
		return independent{}, nil
	case StrategyChair:
		return chairOnly{}, nil
	case StrategyLatest:
		return latestOnly{}, nil
	}
	return nil, fmt.Errorf("未知的合议规则: %s", name)
}

// RoomOutcome 从完整选票日志计算房间结果
func RoomOutcome(layout Layout, log []Ballot, strategy Strategy) RoomResult {
	return strategy.Consolidate(layout, SelectAuthoritative(log))
}

// scoring 去掉见习裁判的选票，见习裁判的选票只保留在日志中
func scoring(ballots []Ballot) []Ballot {
	out := make([]Ballot, 0, len(ballots))
	for _, b := range ballots {
		if b.JudgeStatus != "trainee" {
			out = append(out, b)
		}
	}
	return out
}

// independent 每张正式裁判的权威选票独立排名，房间指标取各选票平均
type independent struct{}

func (independent) Name() string { return StrategyIndependent }

func (independent) Consolidate(layout Layout, ballots []Ballot) RoomResult {
	res := RoomResult{RoomID: layout.RoomID, RoomIndex: layout.RoomIndex, Strategy: StrategyIndependent}
	ballots = scoring(ballots)
	if len(ballots) == 0 {
		return res
	}
	for _, b := range ballots {
		res.Ballots = append(res.Ballots, RankBallot(layout, b))
	}
	res.Teams = average(layout, res.Ballots)
	res.Decided = true
	return res
}

// chairOnly 仅采用主裁的选票，主裁未提交时结果待定
type chairOnly struct{}

func (chairOnly) Name() string { return StrategyChair }

func (chairOnly) Consolidate(layout Layout, ballots []Ballot) RoomResult {
	res := RoomResult{RoomID: layout.RoomID, RoomIndex: layout.RoomIndex, Strategy: StrategyChair}
	for _, b := range ballots {
		if b.JudgeStatus == "chair" {
			br := RankBallot(layout, b)
			res.Ballots = []BallotResult{br}
			res.Teams = br.Teams
			res.Decided = true
		}
	}
	return res
}

// latestOnly 采用正式裁判最近提交的权威选票
type latestOnly struct{}

func (latestOnly) Name() string { return StrategyLatest }

func (latestOnly) Consolidate(layout Layout, ballots []Ballot) RoomResult {
	res := RoomResult{RoomID: layout.RoomID, RoomIndex: layout.RoomIndex, Strategy: StrategyLatest}
	ballots = scoring(ballots)
	if len(ballots) == 0 {
		return res
	}
	pick := ballots[0]
	for _, b := range ballots[1:] {
		if newer(b, pick) {
			pick = b
		}
	}
	br := RankBallot(layout, pick)
	res.Ballots = []BallotResult{br}
	res.Teams = br.Teams
	res.Decided = true
	return res
}

func average(layout Layout, results []BallotResult) []TeamResult {
	type acc struct {
		TeamResult
		speakers map[string]*SpeakerScore
	}
	teams := make(map[string]*acc)
	for _, t := range layout.Teams {
		teams[t.TeamID] = &acc{TeamResult: TeamResult{TeamID: t.TeamID, Position: t.Position}, speakers: map[string]*SpeakerScore{}}
	}
	n := float64(len(results))
	for _, br := range results {
		for _, tr := range br.Teams {
			a := teams[tr.TeamID]
			if a == nil {
				continue
			}
			a.Score += tr.Score / n
			a.Margin += tr.Margin / n
			a.Points += tr.Points / n
			a.variance += tr.variance / n
			for _, s := range tr.Speakers {
				sp, ok := a.speakers[s.MemberID]
				if !ok {
					sp = &SpeakerScore{MemberID: s.MemberID, TeamID: s.TeamID, Position: s.Position}
					a.speakers[s.MemberID] = sp
				}
				sp.Score += s.Score / n
			}
		}
	}

	out := make([]TeamResult, 0, len(teams))
	for _, t := range layout.Teams {
		a := teams[t.TeamID]
		for _, s := range a.speakers {
			a.Speakers = append(a.Speakers, *s)
		}
		sort.Slice(a.Speakers, func(i, j int) bool { return a.Speakers[i].Position < a.Speakers[j].Position })
		out = append(out, a.TeamResult)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Points != b.Points:
			return a.Points > b.Points
		case a.Score != b.Score:
			return a.Score > b.Score
		case a.Margin != b.Margin:
			return a.Margin > b.Margin
		case a.variance != b.variance:
			return a.variance < b.variance
		default:
			return a.Position < b.Position
		}
	})
	for i := range out {
		out[i].Rank = i
	}
	return out
}
