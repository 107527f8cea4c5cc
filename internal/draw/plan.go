package draw

import (
	"fmt"
	"sort"
)

// plan 房间数与角色划分
type plan struct {
	rooms    int
	speakers []Participant // 入座候选（含轮空），按评分降序
	judges   []Participant // 按评分降序
	benched  int
}

func byRatingDesc(ps []Participant) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Rating != ps[j].Rating {
			return ps[i].Rating > ps[j].Rating
		}
		return ps[i].MemberID < ps[j].MemberID
	})
}

// makePlan 选出可行的最大房间数
//
// 纯辩手优先入座，座位不足时由兼任成员中评分最低者补位，其余兼任成员担任裁判。
// 兼任成员不会轮空。
func makePlan(pool *Pool, opts Options) (*plan, error) {
	if !pool.Format.valid() {
		return nil, ErrInvalidFormat
	}

	var pureSpeakers, pureJudges, both []Participant
	for _, p := range pool.Participants {
		switch {
		case p.AsSpeaker && p.AsJudge:
			both = append(both, p)
		case p.AsSpeaker:
			pureSpeakers = append(pureSpeakers, p)
		case p.AsJudge:
			pureJudges = append(pureJudges, p)
		}
	}

	capacity := pool.Format.RoomCapacity()
	available := len(pureSpeakers) + len(both)
	if available < capacity {
		return nil, fmt.Errorf("%w: 可用辩手 %d 人，单房需要 %d 人", ErrInsufficientPool, available, capacity)
	}

	// 兼任成员按评分升序，靠前者优先补位为辩手
	sort.SliceStable(both, func(i, j int) bool {
		if both[i].Rating != both[j].Rating {
			return both[i].Rating < both[j].Rating
		}
		return both[i].MemberID < both[j].MemberID
	})

	var blocked *InfeasibleError
	for rooms := available / capacity; rooms >= 1; rooms-- {
		seats := rooms * capacity
		fromBoth := seats - len(pureSpeakers)
		if fromBoth < 0 {
			fromBoth = 0
		}
		benched := len(pureSpeakers) - seats
		if benched < 0 {
			benched = 0
		}
		if benched > opts.MaxBenched {
			// 房间越少轮空越多，无需继续尝试
			if blocked == nil {
				blocked = &InfeasibleError{
					Class:  ClassBench,
					Detail: fmt.Sprintf("需要轮空 %d 人，上限 %d 人", benched, opts.MaxBenched),
				}
			}
			break
		}
		judgeCount := len(pureJudges) + len(both) - fromBoth
		if judgeCount < rooms {
			blocked = &InfeasibleError{
				Class:  ClassJudges,
				Detail: fmt.Sprintf("%d 个房间仅有 %d 名裁判", rooms, judgeCount),
			}
			continue
		}

		p := &plan{rooms: rooms, benched: benched}
		p.speakers = append(append(p.speakers, pureSpeakers...), both[:fromBoth]...)
		p.judges = append(append(p.judges, pureJudges...), both[fromBoth:]...)
		byRatingDesc(p.speakers)
		byRatingDesc(p.judges)
		return p, nil
	}
	return nil, blocked
}
