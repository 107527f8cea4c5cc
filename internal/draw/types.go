// Package draw 根据报名池生成练习赛排位：辩手组队、队伍分房、裁判分配。
//
// 求解器是纯函数：输入报名池，输出排位快照或失败原因，不读写任何持久化状态。
package draw

import "sort"

// Format 赛制：每队辩手数与每房队伍数
type Format struct {
	SpeakersPerTeam int `json:"speakers_per_team"`
	TeamsPerRoom    int `json:"teams_per_room"`
}

// RoomCapacity 单个房间容纳的辩手数
func (f Format) RoomCapacity() int { return f.SpeakersPerTeam * f.TeamsPerRoom }

func (f Format) valid() bool { return f.SpeakersPerTeam > 0 && f.TeamsPerRoom > 1 }

// Participant 报名池中的一名成员
type Participant struct {
	MemberID  string  `json:"member_id"`
	Name      string  `json:"name"`
	Rating    float64 `json:"rating"`
	AsSpeaker bool    `json:"as_speaker"`
	AsJudge   bool    `json:"as_judge"`
}

// Relation 两名成员在往期已发布排位中的关系
type Relation string

const (
	RelationTeammate Relation = "teammate" // 同队
	RelationPanel    Relation = "panel"    // 同一裁判组
	RelationOpponent Relation = "opponent" // 同房对手
	RelationJudged   Relation = "judged"   // 裁判评过该辩手，有方向
)

// Hard 同队与同组冲突为硬约束，其余仅计入罚分
func (r Relation) Hard() bool { return r == RelationTeammate || r == RelationPanel }

type historyKey struct {
	a, b string
	rel  Relation
}

// History 往期关系计数
type History struct {
	seen map[historyKey]int
}

// NewHistory 创建空历史
func NewHistory() *History {
	return &History{seen: make(map[historyKey]int)}
}

func makeKey(a, b string, rel Relation) historyKey {
	if rel != RelationJudged && b < a {
		a, b = b, a
	}
	return historyKey{a: a, b: b, rel: rel}
}

// Add 记录一次关系；judged 关系中 a 为裁判、b 为辩手
func (h *History) Add(a, b string, rel Relation) {
	if a == b {
		return
	}
	h.seen[makeKey(a, b, rel)]++
}

// Count 关系出现次数，nil 历史视为空
func (h *History) Count(a, b string, rel Relation) int {
	if h == nil {
		return 0
	}
	return h.seen[makeKey(a, b, rel)]
}

// Len 不同关系对的数量
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.seen)
}

// Pool 某场次的报名池
type Pool struct {
	SessionID    string        `json:"session_id"`
	Format       Format        `json:"format"`
	Participants []Participant `json:"participants"`
	History      *History      `json:"-"`
}

func (p *Pool) index() map[string]Participant {
	m := make(map[string]Participant, len(p.Participants))
	for _, pt := range p.Participants {
		m[pt.MemberID] = pt
	}
	return m
}

// Options 求解参数
type Options struct {
	MaxBenched    int     // 允许轮空的纯辩手上限
	MaxPanelSize  int     // 每房正式裁判上限（含主裁），超出者为见习
	ClashPenalty  float64 // 每个被放宽的硬冲突的罚分
	RepeatPenalty float64 // 每次重复对阵或重复评判的罚分
	MaxPasses     int     // 局部搜索轮数上限
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		MaxBenched:    1,
		MaxPanelSize:  3,
		ClashPenalty:  1000,
		RepeatPenalty: 5,
		MaxPasses:     50,
	}
}

// JudgeStatus 裁判席位
type JudgeStatus string

const (
	StatusChair    JudgeStatus = "chair"
	StatusPanelist JudgeStatus = "panelist"
	StatusTrainee  JudgeStatus = "trainee"
)

func (s JudgeStatus) valid() bool {
	return s == StatusChair || s == StatusPanelist || s == StatusTrainee
}

// Snapshot 一份完整排位
type Snapshot struct {
	Format  Format   `json:"format"`
	Rooms   []Room   `json:"rooms"`
	Benched []string `json:"benched"`
	Clashes []Clash  `json:"clashes,omitempty"` // 已知并被接受的硬冲突
}

// Room 房间
type Room struct {
	Index  int     `json:"index"`
	Teams  []Team  `json:"teams"`
	Judges []Judge `json:"judges"`
}

// Team 队伍，Speakers 按发言顺序排列
type Team struct {
	Position int      `json:"position"`
	Speakers []string `json:"speakers"`
}

// Judge 裁判席位
type Judge struct {
	MemberID string      `json:"member_id"`
	Status   JudgeStatus `json:"status"`
}

// Clash 被放宽的冲突
type Clash struct {
	MemberID string   `json:"member_id"`
	PeerID   string   `json:"peer_id"`
	Relation Relation `json:"relation"`
}

func newClash(a, b string, rel Relation) Clash {
	if b < a {
		a, b = b, a
	}
	return Clash{MemberID: a, PeerID: b, Relation: rel}
}

// Canonicalize 按房间序号、队伍位置、成员 ID 排序，使相同排位的表示唯一
func (s *Snapshot) Canonicalize() {
	sort.SliceStable(s.Rooms, func(i, j int) bool { return s.Rooms[i].Index < s.Rooms[j].Index })
	for i := range s.Rooms {
		teams := s.Rooms[i].Teams
		sort.SliceStable(teams, func(a, b int) bool { return teams[a].Position < teams[b].Position })
	}
	sort.Strings(s.Benched)
	sort.Slice(s.Clashes, func(i, j int) bool {
		a, b := s.Clashes[i], s.Clashes[j]
		if a.MemberID != b.MemberID {
			return a.MemberID < b.MemberID
		}
		if a.PeerID != b.PeerID {
			return a.PeerID < b.PeerID
		}
		return a.Relation < b.Relation
	})
}

// Clone 深拷贝
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Format:  s.Format,
		Rooms:   make([]Room, len(s.Rooms)),
		Benched: append([]string(nil), s.Benched...),
		Clashes: append([]Clash(nil), s.Clashes...),
	}
	for i, r := range s.Rooms {
		room := Room{Index: r.Index, Teams: make([]Team, len(r.Teams)), Judges: append([]Judge(nil), r.Judges...)}
		for j, t := range r.Teams {
			room.Teams[j] = Team{Position: t.Position, Speakers: append([]string(nil), t.Speakers...)}
		}
		out.Rooms[i] = room
	}
	return out
}

// Seated 已入座的辩手数
func (s *Snapshot) Seated() int {
	n := 0
	for _, r := range s.Rooms {
		for _, t := range r.Teams {
			n += len(t.Speakers)
		}
	}
	return n
}
