package draw

import "fmt"

// Violation 一条约束违规
type Violation struct {
	Class    ConstraintClass `json:"class"`
	MemberID string          `json:"member_id,omitempty"`
	Detail   string          `json:"detail"`
}

func (v Violation) String() string {
	if v.MemberID == "" {
		return fmt.Sprintf("[%s] %s", v.Class, v.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", v.Class, v.MemberID, v.Detail)
}

// ValidateStructure 与报名池无关的结构检查
func ValidateStructure(s *Snapshot) []Violation {
	var out []Violation
	add := func(class ConstraintClass, member, format string, args ...interface{}) {
		out = append(out, Violation{Class: class, MemberID: member, Detail: fmt.Sprintf(format, args...)})
	}

	if !s.Format.valid() {
		add(ClassFormat, "", "赛制参数无效")
		return out
	}
	if len(s.Rooms) == 0 {
		add(ClassRoomSize, "", "至少需要一个房间")
	}

	spt, tpr := s.Format.SpeakersPerTeam, s.Format.TeamsPerRoom
	seen := make(map[string]int)
	roomIdx := make(map[int]bool)

	for _, room := range s.Rooms {
		if room.Index < 0 || room.Index >= len(s.Rooms) || roomIdx[room.Index] {
			add(ClassRoomIndex, "", "房间序号 %d 重复或越界", room.Index)
		}
		roomIdx[room.Index] = true

		if len(room.Teams) != tpr {
			add(ClassRoomSize, "", "房间 %d 有 %d 支队伍，应为 %d", room.Index, len(room.Teams), tpr)
		}
		positions := make(map[int]bool)
		for _, team := range room.Teams {
			if team.Position < 0 || team.Position >= tpr || positions[team.Position] {
				add(ClassPosition, "", "房间 %d 的队伍位置 %d 重复或越界", room.Index, team.Position)
			}
			positions[team.Position] = true
			if len(team.Speakers) != spt {
				add(ClassTeamSize, "", "房间 %d 位置 %d 有 %d 名辩手，应为 %d",
					room.Index, team.Position, len(team.Speakers), spt)
			}
			for _, m := range team.Speakers {
				seen[m]++
			}
		}

		chairs := 0
		for _, j := range room.Judges {
			if !j.Status.valid() {
				add(ClassJudgeStatus, j.MemberID, "裁判席位 %q 无效", j.Status)
			}
			if j.Status == StatusChair {
				chairs++
			}
			seen[j.MemberID]++
		}
		if chairs != 1 {
			add(ClassChair, "", "房间 %d 有 %d 名主裁，应为 1", room.Index, chairs)
		}
	}
	for _, m := range s.Benched {
		seen[m]++
	}

	for _, m := range sortedKeys(seen) {
		if m == "" {
			add(ClassUnknown, "", "成员 ID 为空")
			continue
		}
		if seen[m] > 1 {
			add(ClassDuplicate, m, "在排位中出现 %d 次", seen[m])
		}
	}
	return out
}

// Validate 结构检查加上对当前报名池的检查：角色、覆盖、轮空上限、退出报名、未确认的冲突
func Validate(s *Snapshot, pool *Pool, opts Options) []Violation {
	out := ValidateStructure(s)
	add := func(class ConstraintClass, member, format string, args ...interface{}) {
		out = append(out, Violation{Class: class, MemberID: member, Detail: fmt.Sprintf(format, args...)})
	}
	if s.Format != pool.Format {
		add(ClassFormat, "", "排位赛制与系列赛制不一致")
	}

	members := pool.index()
	placed := make(map[string]bool)

	checkSpeaker := func(m string) {
		placed[m] = true
		p, ok := members[m]
		if !ok {
			add(ClassUnknown, m, "不在当前报名池中")
			return
		}
		if !p.AsSpeaker {
			add(ClassRole, m, "未报名辩手却被安排为辩手")
		}
	}
	for _, room := range s.Rooms {
		for _, team := range room.Teams {
			for _, m := range team.Speakers {
				checkSpeaker(m)
			}
		}
		for _, j := range room.Judges {
			placed[j.MemberID] = true
			p, ok := members[j.MemberID]
			if !ok {
				add(ClassUnknown, j.MemberID, "不在当前报名池中")
				continue
			}
			if !p.AsJudge {
				add(ClassRole, j.MemberID, "未报名裁判却被安排为裁判")
			}
		}
	}
	for _, m := range s.Benched {
		checkSpeaker(m)
	}

	for _, p := range pool.Participants {
		if placed[p.MemberID] {
			continue
		}
		if p.AsSpeaker {
			add(ClassCoverage, p.MemberID, "报名辩手既未入座也未轮空")
		} else if p.AsJudge {
			add(ClassCoverage, p.MemberID, "报名裁判未被安排")
		}
	}

	if len(s.Benched) > opts.MaxBenched {
		add(ClassBench, "", "轮空 %d 人，上限 %d 人", len(s.Benched), opts.MaxBenched)
	}

	acknowledged := make(map[Clash]bool, len(s.Clashes))
	for _, c := range s.Clashes {
		acknowledged[newClash(c.MemberID, c.PeerID, c.Relation)] = true
	}
	for _, c := range HardClashes(s, pool.History) {
		if !acknowledged[c] {
			add(ClassClash, c.MemberID, "与 %s 存在未确认的 %s 冲突", c.PeerID, c.Relation)
		}
	}
	return out
}
