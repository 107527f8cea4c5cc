package tab

import (
	"math"
	"sort"
)

// TeamStanding 队伍在场次中的名次
type TeamStanding struct {
	TeamID    string   `json:"team_id"`
	RoomID    string   `json:"room_id"`
	RoomIndex int      `json:"room_index"`
	Position  int      `json:"position"`
	Speakers  []string `json:"speakers"`
	Points    float64  `json:"points"`
	Score     float64  `json:"score"`
	Margin    float64  `json:"margin"`
	Rank      int      `json:"rank"` // 从 1 起，并列同名次
	Break     bool     `json:"break"`
}

// SpeakerStanding 辩手名次
type SpeakerStanding struct {
	MemberID string  `json:"member_id"`
	Rounds   int     `json:"rounds"`
	Total    float64 `json:"total"`
	Average  float64 `json:"average"`
	Points   float64 `json:"points"`
	Rank     int     `json:"rank"`
}

// JudgeStanding 裁判统计；Agreement 为其选票第一名与房间结果一致的比例
type JudgeStanding struct {
	MemberID  string  `json:"member_id"`
	Ballots   int     `json:"ballots"`
	Agreement float64 `json:"agreement"`
}

// Standings 场次或系列排名
type Standings struct {
	Teams    []TeamStanding    `json:"teams,omitempty"`
	Speakers []SpeakerStanding `json:"speakers"`
	Judges   []JudgeStanding   `json:"judges"`
	Pending  []string          `json:"pending_rooms,omitempty"` // 尚无权威结果的房间
}

// SessionStandings 汇总一个场次内所有房间的结果
// breakSize 为晋级名额，按名次计，并列者同时晋级
func SessionStandings(layouts []Layout, results []RoomResult, breakSize int) *Standings {
	st := &Standings{}
	speakers := make(map[string]*SpeakerStanding)
	judges := make(map[string]*judgeAcc)

	layoutByRoom := make(map[string]Layout, len(layouts))
	for _, l := range layouts {
		layoutByRoom[l.RoomID] = l
	}

	for _, res := range results {
		if !res.Decided {
			st.Pending = append(st.Pending, res.RoomID)
			continue
		}
		layout := layoutByRoom[res.RoomID]
		members := make(map[string][]string)
		for _, t := range layout.Teams {
			members[t.TeamID] = t.Speakers
		}
		for _, t := range res.Teams {
			st.Teams = append(st.Teams, TeamStanding{
				TeamID: t.TeamID, RoomID: res.RoomID, RoomIndex: res.RoomIndex, Position: t.Position,
				Speakers: members[t.TeamID], Points: t.Points, Score: t.Score, Margin: t.Margin,
			})
			addSpeakers(speakers, t)
		}
		scoreJudges(judges, res)
	}

	sort.SliceStable(st.Teams, func(i, j int) bool {
		a, b := st.Teams[i], st.Teams[j]
		switch {
		case a.Points != b.Points:
			return a.Points > b.Points
		case a.Score != b.Score:
			return a.Score > b.Score
		case a.RoomIndex != b.RoomIndex:
			return a.RoomIndex < b.RoomIndex
		default:
			return a.Position < b.Position
		}
	})
	for i := range st.Teams {
		st.Teams[i].Rank = i + 1
		if i > 0 && st.Teams[i].Points == st.Teams[i-1].Points && st.Teams[i].Score == st.Teams[i-1].Score {
			st.Teams[i].Rank = st.Teams[i-1].Rank
		}
		st.Teams[i].Break = breakSize > 0 && st.Teams[i].Rank <= breakSize
	}

	st.Speakers = rankSpeakers(speakers)
	st.Judges = finishJudges(judges)
	sort.Strings(st.Pending)
	return st
}

// SeriesStandings 跨场次累计辩手与裁判表现
func SeriesStandings(sessions [][]RoomResult) *Standings {
	st := &Standings{}
	speakers := make(map[string]*SpeakerStanding)
	judges := make(map[string]*judgeAcc)
	for _, results := range sessions {
		for _, res := range results {
			if !res.Decided {
				continue
			}
			for _, t := range res.Teams {
				addSpeakers(speakers, t)
			}
			scoreJudges(judges, res)
		}
	}
	st.Speakers = rankSpeakers(speakers)
	st.Judges = finishJudges(judges)
	return st
}

func addSpeakers(acc map[string]*SpeakerStanding, t TeamResult) {
	for _, s := range t.Speakers {
		sp, ok := acc[s.MemberID]
		if !ok {
			sp = &SpeakerStanding{MemberID: s.MemberID}
			acc[s.MemberID] = sp
		}
		sp.Rounds++
		sp.Total += s.Score
		sp.Points += t.Points
	}
}

func rankSpeakers(acc map[string]*SpeakerStanding) []SpeakerStanding {
	out := make([]SpeakerStanding, 0, len(acc))
	for _, sp := range acc {
		sp.Average = round2(sp.Total / float64(sp.Rounds))
		out = append(out, *sp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Average != b.Average:
			return a.Average > b.Average
		case a.Total != b.Total:
			return a.Total > b.Total
		default:
			return a.MemberID < b.MemberID
		}
	})
	for i := range out {
		out[i].Rank = i + 1
		if i > 0 && out[i].Average == out[i-1].Average && out[i].Total == out[i-1].Total {
			out[i].Rank = out[i-1].Rank
		}
	}
	return out
}

type judgeAcc struct {
	ballots int
	agree   int
}

func scoreJudges(acc map[string]*judgeAcc, res RoomResult) {
	winner := ""
	if len(res.Teams) > 0 {
		winner = res.Teams[0].TeamID
	}
	for _, b := range res.Ballots {
		j, ok := acc[b.JudgeID]
		if !ok {
			j = &judgeAcc{}
			acc[b.JudgeID] = j
		}
		j.ballots++
		if b.Winner() == winner {
			j.agree++
		}
	}
}

func finishJudges(acc map[string]*judgeAcc) []JudgeStanding {
	out := make([]JudgeStanding, 0, len(acc))
	for id, j := range acc {
		out = append(out, JudgeStanding{
			MemberID:  id,
			Ballots:   j.ballots,
			Agreement: round2(float64(j.agree) / float64(j.ballots)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
