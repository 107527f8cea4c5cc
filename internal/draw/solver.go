package draw

import (
	"context"
	"sort"
)

// Solver 排位求解器
type Solver interface {
	Solve(ctx context.Context, pool *Pool, opts Options) (*Snapshot, error)
}

// LocalSearch 确定性局部搜索求解器
//
// 初始解按评分蛇形组队（强弱搭配），随后按固定顺序尝试交换，
// 只接受严格改进的交换，直到一整轮无改进或达到轮数上限。
// 目标按字典序比较：先最少硬冲突，再最大化队内评分差减去罚分。
type LocalSearch struct{}

// NewLocalSearch 创建求解器
func NewLocalSearch() *LocalSearch { return &LocalSearch{} }

const checkEvery = 512

// Solve 实现 Solver
func (LocalSearch) Solve(ctx context.Context, pool *Pool, opts Options) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, &InfeasibleError{Class: ClassTimeout, Err: err}
	}
	if opts.MaxPanelSize < 1 {
		opts.MaxPanelSize = 1
	}
	if opts.MaxPasses < 1 {
		opts.MaxPasses = 1
	}

	p, err := makePlan(pool, opts)
	if err != nil {
		return nil, err
	}

	s := newSearch(pool, p, opts)
	if err := s.run(ctx); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

type cost struct {
	hard  int
	score float64
}

func (c cost) add(o cost) cost { return cost{hard: c.hard + o.hard, score: c.score + o.score} }

const epsilon = 1e-9

func (c cost) better(o cost) bool {
	if c.hard != o.hard {
		return c.hard < o.hard
	}
	return c.score > o.score+epsilon
}

type search struct {
	format  Format
	opts    Options
	history *History

	ids     []string
	ratings []float64

	rooms  int
	teams  [][]int // team t 属于房间 t/TeamsPerRoom，位置 t%TeamsPerRoom
	bench  []int
	judges [][]int // 每房第 0 位为主裁

	evals int
}

func newSearch(pool *Pool, p *plan, opts Options) *search {
	s := &search{
		format:  pool.Format,
		opts:    opts,
		history: pool.History,
		rooms:   p.rooms,
	}
	add := func(pt Participant) int {
		s.ids = append(s.ids, pt.MemberID)
		s.ratings = append(s.ratings, pt.Rating)
		return len(s.ids) - 1
	}

	spt, tpr := s.format.SpeakersPerTeam, s.format.TeamsPerRoom
	teamCount := p.rooms * tpr
	seated := teamCount * spt

	speakers := make([]int, len(p.speakers))
	for i, pt := range p.speakers {
		speakers[i] = add(pt)
	}
	// 蛇形：第 k 轮正序或逆序依次给每队补一人
	s.teams = make([][]int, teamCount)
	for k := 0; k < spt; k++ {
		for i := 0; i < teamCount; i++ {
			t := i
			if k%2 == 1 {
				t = teamCount - 1 - i
			}
			s.teams[t] = append(s.teams[t], speakers[k*teamCount+i])
		}
	}
	s.bench = append(s.bench, speakers[seated:]...)

	s.judges = make([][]int, p.rooms)
	for i, pt := range p.judges {
		j := add(pt)
		s.judges[i%p.rooms] = append(s.judges[i%p.rooms], j)
	}
	return s
}

func (s *search) roomOf(team int) int { return team / s.format.TeamsPerRoom }

func spread(ratings []float64, members []int) float64 {
	if len(members) == 0 {
		return 0
	}
	lo, hi := ratings[members[0]], ratings[members[0]]
	for _, m := range members[1:] {
		if ratings[m] < lo {
			lo = ratings[m]
		}
		if ratings[m] > hi {
			hi = ratings[m]
		}
	}
	return hi - lo
}

// roomCost 单个房间的代价，房间之间互不影响
func (s *search) roomCost(r int) cost {
	s.evals++
	tpr := s.format.TeamsPerRoom
	teams := s.teams[r*tpr : (r+1)*tpr]
	h := s.history

	var hard, soft int
	var sum float64
	for ti, team := range teams {
		sum += spread(s.ratings, team)
		for a := 0; a < len(team); a++ {
			for b := a + 1; b < len(team); b++ {
				if h.Count(s.ids[team[a]], s.ids[team[b]], RelationTeammate) > 0 {
					hard++
				}
			}
			for _, other := range teams[ti+1:] {
				for _, o := range other {
					soft += h.Count(s.ids[team[a]], s.ids[o], RelationOpponent)
				}
			}
		}
	}

	judges := s.judges[r]
	for a := 0; a < len(judges); a++ {
		for b := a + 1; b < len(judges); b++ {
			if h.Count(s.ids[judges[a]], s.ids[judges[b]], RelationPanel) > 0 {
				hard++
			}
		}
		for _, team := range teams {
			for _, sp := range team {
				soft += h.Count(s.ids[judges[a]], s.ids[sp], RelationJudged)
			}
		}
	}

	return cost{
		hard:  hard,
		score: sum - s.opts.ClashPenalty*float64(hard) - s.opts.RepeatPenalty*float64(soft),
	}
}

// affected 交换涉及的房间代价之和，r < 0 表示轮空区
func (s *search) affected(r1, r2 int) cost {
	var c cost
	if r1 >= 0 {
		c = c.add(s.roomCost(r1))
	}
	if r2 >= 0 && r2 != r1 {
		c = c.add(s.roomCost(r2))
	}
	return c
}

// try 执行交换，若未严格改进则撤销
func (s *search) try(r1, r2 int, swap func()) bool {
	before := s.affected(r1, r2)
	swap()
	if s.affected(r1, r2).better(before) {
		return true
	}
	swap()
	return false
}

type slot struct {
	team int // -1 表示轮空区
	idx  int
}

func (s *search) slots() []slot {
	var out []slot
	for t, team := range s.teams {
		for i := range team {
			out = append(out, slot{team: t, idx: i})
		}
	}
	for i := range s.bench {
		out = append(out, slot{team: -1, idx: i})
	}
	return out
}

func (s *search) ref(sl slot) *int {
	if sl.team < 0 {
		return &s.bench[sl.idx]
	}
	return &s.teams[sl.team][sl.idx]
}

func (s *search) slotRoom(sl slot) int {
	if sl.team < 0 {
		return -1
	}
	return s.roomOf(sl.team)
}

func (s *search) run(ctx context.Context) error {
	slots := s.slots()
	tpr := s.format.TeamsPerRoom

	for pass := 0; pass < s.opts.MaxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return &InfeasibleError{Class: ClassTimeout, Err: err}
		}
		improved := false
		checked := 0
		poll := func() error {
			checked++
			if checked%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return &InfeasibleError{Class: ClassTimeout, Err: err}
				}
			}
			return nil
		}

		// 辩手交换（含与轮空者交换）
		for i := 0; i < len(slots); i++ {
			for j := i + 1; j < len(slots); j++ {
				a, b := slots[i], slots[j]
				if a.team == b.team {
					continue
				}
				if err := poll(); err != nil {
					return err
				}
				pa, pb := s.ref(a), s.ref(b)
				if s.try(s.slotRoom(a), s.slotRoom(b), func() { *pa, *pb = *pb, *pa }) {
					improved = true
				}
			}
		}

		// 跨房整队交换
		for t1 := 0; t1 < len(s.teams); t1++ {
			for t2 := (t1/tpr + 1) * tpr; t2 < len(s.teams); t2++ {
				if err := poll(); err != nil {
					return err
				}
				a, b := t1, t2
				if s.try(s.roomOf(a), s.roomOf(b), func() { s.teams[a], s.teams[b] = s.teams[b], s.teams[a] }) {
					improved = true
				}
			}
		}

		// 跨房裁判交换，任意席位之间均可交换，主裁在求解结束后再定
		for r1 := 0; r1 < s.rooms; r1++ {
			for r2 := r1 + 1; r2 < s.rooms; r2++ {
				for i := range s.judges[r1] {
					for j := range s.judges[r2] {
						if err := poll(); err != nil {
							return err
						}
						ja, jb := &s.judges[r1][i], &s.judges[r2][j]
						if s.try(r1, r2, func() { *ja, *jb = *jb, *ja }) {
							improved = true
						}
					}
				}
			}
		}

		if !improved {
			break
		}
	}
	return nil
}

func (s *search) snapshot() *Snapshot {
	tpr := s.format.TeamsPerRoom
	out := &Snapshot{Format: s.format, Benched: []string{}}

	for r := 0; r < s.rooms; r++ {
		room := Room{Index: r}
		for p := 0; p < tpr; p++ {
			team := Team{Position: p}
			for _, m := range s.teams[r*tpr+p] {
				team.Speakers = append(team.Speakers, s.ids[m])
			}
			room.Teams = append(room.Teams, team)
		}
		s.seatJudges(r)
		for i, j := range s.judges[r] {
			status := StatusPanelist
			switch {
			case i == 0:
				status = StatusChair
			case i >= s.opts.MaxPanelSize:
				status = StatusTrainee
			}
			room.Judges = append(room.Judges, Judge{MemberID: s.ids[j], Status: status})
		}
		out.Rooms = append(out.Rooms, room)
	}
	for _, m := range s.bench {
		out.Benched = append(out.Benched, s.ids[m])
	}
	out.Clashes = HardClashes(out, s.history)
	out.Canonicalize()
	return out
}

// seatJudges 房内裁判按评分降序排列，评分最高者任主裁，超出组上限者为见习
func (s *search) seatJudges(r int) {
	js := s.judges[r]
	sort.SliceStable(js, func(a, b int) bool {
		if s.ratings[js[a]] != s.ratings[js[b]] {
			return s.ratings[js[a]] > s.ratings[js[b]]
		}
		return s.ids[js[a]] < s.ids[js[b]]
	})
}

// HardClashes 列出排位中与历史冲突的同队、同组成员对
func HardClashes(snap *Snapshot, h *History) []Clash {
	var out []Clash
	if h.Len() == 0 {
		return out
	}
	for _, room := range snap.Rooms {
		for _, team := range room.Teams {
			for a := 0; a < len(team.Speakers); a++ {
				for b := a + 1; b < len(team.Speakers); b++ {
					if h.Count(team.Speakers[a], team.Speakers[b], RelationTeammate) > 0 {
						out = append(out, newClash(team.Speakers[a], team.Speakers[b], RelationTeammate))
					}
				}
			}
		}
		for a := 0; a < len(room.Judges); a++ {
			for b := a + 1; b < len(room.Judges); b++ {
				x, y := room.Judges[a].MemberID, room.Judges[b].MemberID
				if h.Count(x, y, RelationPanel) > 0 {
					out = append(out, newClash(x, y, RelationPanel))
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MemberID != out[j].MemberID {
			return out[i].MemberID < out[j].MemberID
		}
		return out[i].PeerID < out[j].PeerID
	})
	return out
}
