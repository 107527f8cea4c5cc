package draw

import (
	"fmt"
	"sort"
)

// BenchRoom 作为 MoveSpeaker 的目标房间时表示移入轮空区
const BenchRoom = -1

type location struct {
	kind  string // speaker | judge | bench
	room  int    // Rooms 下标
	team  int    // Teams 下标
	index int
}

func (s *Snapshot) locate(member string) (location, bool) {
	for ri, room := range s.Rooms {
		for ti, team := range room.Teams {
			for i, m := range team.Speakers {
				if m == member {
					return location{kind: "speaker", room: ri, team: ti, index: i}, true
				}
			}
		}
		for i, j := range room.Judges {
			if j.MemberID == member {
				return location{kind: "judge", room: ri, index: i}, true
			}
		}
	}
	for i, m := range s.Benched {
		if m == member {
			return location{kind: "bench", index: i}, true
		}
	}
	return location{}, false
}

func (s *Snapshot) roomByIndex(index int) (int, bool) {
	for i, r := range s.Rooms {
		if r.Index == index {
			return i, true
		}
	}
	return 0, false
}

func (s *Snapshot) speakerRef(loc location) *string {
	if loc.kind == "bench" {
		return &s.Benched[loc.index]
	}
	return &s.Rooms[loc.room].Teams[loc.team].Speakers[loc.index]
}

// SwapSpeakers 交换两名辩手（入座或轮空）的位置
func (s *Snapshot) SwapSpeakers(a, b string) error {
	la, ok := s.locate(a)
	if !ok || la.kind == "judge" {
		return fmt.Errorf("%w: %s", ErrMemberNotPlaced, a)
	}
	lb, ok := s.locate(b)
	if !ok || lb.kind == "judge" {
		return fmt.Errorf("%w: %s", ErrMemberNotPlaced, b)
	}
	pa, pb := s.speakerRef(la), s.speakerRef(lb)
	*pa, *pb = *pb, *pa
	return nil
}

// MoveSpeaker 将辩手移到指定房间、队伍位置与发言顺序
// 目标席位已有人时两人互换；room 为 BenchRoom 时移入轮空区
func (s *Snapshot) MoveSpeaker(member string, room, position, order int) error {
	from, ok := s.locate(member)
	if !ok || from.kind == "judge" {
		return fmt.Errorf("%w: %s", ErrMemberNotPlaced, member)
	}

	if room == BenchRoom {
		if from.kind == "bench" {
			return nil
		}
		// 入座席位空出后队伍人数不足，由提交前的结构校验拦截
		team := &s.Rooms[from.room].Teams[from.team]
		team.Speakers = append(team.Speakers[:from.index], team.Speakers[from.index+1:]...)
		s.Benched = append(s.Benched, member)
		sort.Strings(s.Benched)
		return nil
	}

	ri, ok := s.roomByIndex(room)
	if !ok {
		return fmt.Errorf("房间 %d 不存在", room)
	}
	ti := -1
	for i, t := range s.Rooms[ri].Teams {
		if t.Position == position {
			ti = i
		}
	}
	if ti < 0 {
		return fmt.Errorf("房间 %d 不存在位置 %d", room, position)
	}
	target := &s.Rooms[ri].Teams[ti]
	if order < 0 || order > len(target.Speakers) {
		return fmt.Errorf("发言顺序 %d 越界", order)
	}

	if order < len(target.Speakers) {
		return s.SwapSpeakers(member, target.Speakers[order])
	}

	// 追加到队尾：先从原位置移除
	if from.kind == "bench" {
		s.Benched = append(s.Benched[:from.index], s.Benched[from.index+1:]...)
	} else {
		src := &s.Rooms[from.room].Teams[from.team]
		src.Speakers = append(src.Speakers[:from.index], src.Speakers[from.index+1:]...)
	}
	target.Speakers = append(target.Speakers, member)
	return nil
}

// MoveJudge 将裁判移到指定房间并设定席位
// 设为主裁时，目标房间原主裁降为边裁
func (s *Snapshot) MoveJudge(member string, room int, status JudgeStatus) error {
	if !status.valid() {
		return fmt.Errorf("裁判席位 %q 无效", status)
	}
	from, ok := s.locate(member)
	if !ok || from.kind != "judge" {
		return fmt.Errorf("%w: %s", ErrMemberNotPlaced, member)
	}
	ri, ok := s.roomByIndex(room)
	if !ok {
		return fmt.Errorf("房间 %d 不存在", room)
	}

	src := &s.Rooms[from.room]
	src.Judges = append(src.Judges[:from.index], src.Judges[from.index+1:]...)

	dst := &s.Rooms[ri]
	if status == StatusChair {
		for i := range dst.Judges {
			if dst.Judges[i].Status == StatusChair {
				dst.Judges[i].Status = StatusPanelist
			}
		}
		dst.Judges = append([]Judge{{MemberID: member, Status: status}}, dst.Judges...)
		return nil
	}
	dst.Judges = append(dst.Judges, Judge{MemberID: member, Status: status})
	return nil
}
