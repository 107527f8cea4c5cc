package service

import (
	"reflect"
	"testing"
	"time"

	"spartab/internal/draw"
	"spartab/internal/model"
)

func sampleSnapshot() *draw.Snapshot {
	return &draw.Snapshot{
		Format: draw.Format{SpeakersPerTeam: 2, TeamsPerRoom: 2},
		Rooms: []draw.Room{
			{
				Index: 0,
				Teams: []draw.Team{
					{Position: 0, Speakers: []string{"a", "b"}},
					{Position: 1, Speakers: []string{"c", "d"}},
				},
				Judges: []draw.Judge{{MemberID: "j1", Status: draw.StatusChair}, {MemberID: "j3", Status: draw.StatusPanelist}},
			},
			{
				Index: 1,
				Teams: []draw.Team{
					{Position: 0, Speakers: []string{"e", "f"}},
					{Position: 1, Speakers: []string{"h", "g"}},
				},
				Judges: []draw.Judge{{MemberID: "j2", Status: draw.StatusChair}},
			},
		},
		Benched: []string{"z"},
		Clashes: []draw.Clash{{MemberID: "a", PeerID: "b", Relation: draw.RelationTeammate}},
	}
}

func TestSnapshotEntries_RoundTrip(t *testing.T) {
	snap := sampleSnapshot()
	entries := snapshotEntries(snap)
	if len(entries) != 8+3+1+1 {
		t.Fatalf("条目数不符: %d", len(entries))
	}
	for i, e := range entries {
		if e.Seq != i {
			t.Fatalf("序号应连续: %d != %d", e.Seq, i)
		}
	}

	// 乱序存放，还原时依赖 Seq
	shuffled := append([]model.DraftDrawEntry(nil), entries...)
	shuffled[0], shuffled[len(shuffled)-1] = shuffled[len(shuffled)-1], shuffled[0]
	got := snapshotFromDraft(snap.Format, &model.DraftDraw{Entries: shuffled})

	want := sampleSnapshot()
	want.Canonicalize()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("还原结果不符:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestReleasedRooms(t *testing.T) {
	at := time.Date(2026, 3, 4, 19, 0, 0, 0, time.UTC)
	rooms := releasedRooms("sess", sampleSnapshot(), at)
	if len(rooms) != 2 {
		t.Fatalf("期望 2 个房间, got %d", len(rooms))
	}
	r := rooms[1]
	if r.RoomIndex != 1 || r.SessionID != "sess" || !r.CreatedAt.Equal(at) {
		t.Fatalf("房间字段不符: %+v", r)
	}
	team := r.Teams[1]
	if team.RoomID != r.RoomID || team.Speakers[0].MemberID != "h" || team.Speakers[1].SpeakingOrder != 1 {
		t.Fatalf("队伍席位不符: %+v", team)
	}
	if len(rooms[0].Judges) != 2 || rooms[0].Judges[1].Status != model.JudgeStatusPanelist {
		t.Fatalf("裁判席位不符: %+v", rooms[0].Judges)
	}
}
