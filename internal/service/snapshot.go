package service

import (
	"sort"
	"time"

	"spartab/internal/draw"
	"spartab/internal/model"
)

// ── 排位快照与持久化条目的互转 ──

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// snapshotEntries 按房间、队伍、发言顺序展开为带序号的条目
func snapshotEntries(snap *draw.Snapshot) []model.DraftDrawEntry {
	var entries []model.DraftDrawEntry
	add := func(e model.DraftDrawEntry) {
		e.Seq = len(entries)
		entries = append(entries, e)
	}

	for _, room := range snap.Rooms {
		for _, team := range room.Teams {
			for order, member := range team.Speakers {
				add(model.DraftDrawEntry{
					Kind:          model.EntryKindSpeaker,
					MemberID:      member,
					RoomIndex:     intPtr(room.Index),
					TeamPosition:  intPtr(team.Position),
					SpeakingOrder: intPtr(order),
				})
			}
		}
		for _, judge := range room.Judges {
			add(model.DraftDrawEntry{
				Kind:        model.EntryKindJudge,
				MemberID:    judge.MemberID,
				RoomIndex:   intPtr(room.Index),
				JudgeStatus: strPtr(string(judge.Status)),
			})
		}
	}
	for _, member := range snap.Benched {
		add(model.DraftDrawEntry{Kind: model.EntryKindBench, MemberID: member})
	}
	for _, c := range snap.Clashes {
		add(model.DraftDrawEntry{
			Kind:         model.EntryKindClash,
			MemberID:     c.MemberID,
			PeerMemberID: strPtr(c.PeerID),
			Relation:     strPtr(string(c.Relation)),
		})
	}
	return entries
}

// snapshotFromDraft 由条目还原快照
func snapshotFromDraft(format draw.Format, draft *model.DraftDraw) *draw.Snapshot {
	entries := append([]model.DraftDrawEntry(nil), draft.Entries...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })

	snap := &draw.Snapshot{Format: format, Benched: []string{}}
	rooms := make(map[int]*draw.Room)
	room := func(index int) *draw.Room {
		r, ok := rooms[index]
		if !ok {
			r = &draw.Room{Index: index}
			rooms[index] = r
		}
		return r
	}
	type seat struct {
		order  int
		member string
	}
	seats := make(map[[2]int][]seat)

	for _, e := range entries {
		switch e.Kind {
		case model.EntryKindSpeaker:
			if e.RoomIndex == nil || e.TeamPosition == nil || e.SpeakingOrder == nil {
				continue
			}
			room(*e.RoomIndex)
			key := [2]int{*e.RoomIndex, *e.TeamPosition}
			seats[key] = append(seats[key], seat{order: *e.SpeakingOrder, member: e.MemberID})
		case model.EntryKindJudge:
			if e.RoomIndex == nil || e.JudgeStatus == nil {
				continue
			}
			r := room(*e.RoomIndex)
			r.Judges = append(r.Judges, draw.Judge{MemberID: e.MemberID, Status: draw.JudgeStatus(*e.JudgeStatus)})
		case model.EntryKindBench:
			snap.Benched = append(snap.Benched, e.MemberID)
		case model.EntryKindClash:
			if e.PeerMemberID == nil || e.Relation == nil {
				continue
			}
			snap.Clashes = append(snap.Clashes, draw.Clash{
				MemberID: e.MemberID, PeerID: *e.PeerMemberID, Relation: draw.Relation(*e.Relation),
			})
		}
	}

	for key, ss := range seats {
		sort.Slice(ss, func(i, j int) bool { return ss[i].order < ss[j].order })
		team := draw.Team{Position: key[1]}
		for _, s := range ss {
			team.Speakers = append(team.Speakers, s.member)
		}
		r := rooms[key[0]]
		r.Teams = append(r.Teams, team)
	}

	for _, r := range rooms {
		snap.Rooms = append(snap.Rooms, *r)
	}
	snap.Canonicalize()
	return snap
}

// releasedRooms 将快照物化为已发布的房间、队伍与席位
func releasedRooms(sessionID string, snap *draw.Snapshot, at time.Time) []model.Room {
	rooms := make([]model.Room, 0, len(snap.Rooms))
	for _, r := range snap.Rooms {
		room := model.Room{RoomID: model.NewID(), SessionID: sessionID, RoomIndex: r.Index, CreatedAt: at}
		for _, t := range r.Teams {
			team := model.Team{TeamID: model.NewID(), RoomID: room.RoomID, Position: t.Position}
			for order, member := range t.Speakers {
				team.Speakers = append(team.Speakers, model.SpeakerAssignment{
					SessionID:     sessionID,
					TeamID:        team.TeamID,
					MemberID:      member,
					SpeakingOrder: order,
				})
			}
			room.Teams = append(room.Teams, team)
		}
		for _, j := range r.Judges {
			room.Judges = append(room.Judges, model.JudgeAssignment{
				SessionID: sessionID,
				RoomID:    room.RoomID,
				MemberID:  j.MemberID,
				Status:    string(j.Status),
			})
		}
		rooms = append(rooms, room)
	}
	return rooms
}
