package service

import (
	"errors"
	"testing"
)

func TestSubmitBallot_AssignedJudge(t *testing.T) {
	env := newTestEnv(t)
	_, released := env.releasedSession(t, 4)
	room := released.Rooms[0]
	judge := chairOf(room)

	resp, err := env.svc.Ballot.Submit(env.ctx, room.RoomID, env.users[judge], ballotFor(room, 0))
	if err != nil {
		t.Fatalf("提交选票失败: %v", err)
	}
	if resp.JudgeMemberID != judge || len(resp.Entries) != 4 {
		t.Fatalf("选票内容不符: %+v", resp)
	}

	list, err := env.svc.Ballot.ListBallots(env.ctx, room.RoomID)
	if err != nil || len(list) != 1 {
		t.Fatalf("期望 1 张选票, got %d err=%v", len(list), err)
	}

	res, err := env.svc.Tab.RoomResult(env.ctx, room.RoomID)
	if err != nil {
		t.Fatalf("计算房间结果失败: %v", err)
	}
	if !res.Decided || res.Teams[0].TeamID != teamAt(room, 0) || res.Teams[0].Points != 1 {
		t.Fatalf("房间结果不符: %+v", res)
	}
}

func TestSubmitBallot_NotAssigned(t *testing.T) {
	env := newTestEnv(t)
	_, released := env.releasedSession(t, 4)
	room := released.Rooms[0]
	otherChair := chairOf(released.Rooms[1])
	speaker := room.Teams[0].Speakers[0].ID

	cases := map[string]string{
		"其他房间的裁判": env.users[otherChair],
		"本房辩手":    env.users[speaker],
		"未知用户":    "user-nobody",
	}
	for name, user := range cases {
		if _, err := env.svc.Ballot.Submit(env.ctx, room.RoomID, user, ballotFor(room, 0)); !errors.Is(err, ErrNotAssignedJudge) {
			t.Fatalf("%s: 期望 ErrNotAssignedJudge, got %v", name, err)
		}
	}
}

func TestSubmitBallot_Malformed(t *testing.T) {
	env := newTestEnv(t)
	_, released := env.releasedSession(t, 4)
	room := released.Rooms[0]
	user := env.users[chairOf(room)]

	missing := ballotFor(room, 0)
	missing.Entries = missing.Entries[:3]
	if _, err := env.svc.Ballot.Submit(env.ctx, room.RoomID, user, missing); !errors.Is(err, ErrMalformedBallot) {
		t.Fatalf("缺少条目应返回 ErrMalformedBallot, got %v", err)
	}

	outOfRange := ballotFor(room, 0)
	outOfRange.Entries[0].Score = 40
	if _, err := env.svc.Ballot.Submit(env.ctx, room.RoomID, user, outOfRange); !errors.Is(err, ErrMalformedBallot) {
		t.Fatalf("分数越界应返回 ErrMalformedBallot, got %v", err)
	}

	list, _ := env.svc.Ballot.ListBallots(env.ctx, room.RoomID)
	if len(list) != 0 {
		t.Fatalf("被拒绝的选票不应写入, got %d", len(list))
	}
}

func TestSubmitBallot_RejectTiedTotals(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Ballot.(*ballotService).rules.RejectTiedTotals = true
	_, released := env.releasedSession(t, 4)
	room := released.Rooms[0]

	tied := ballotFor(room, 0)
	for i := range tied.Entries {
		tied.Entries[i].Score = 75
	}
	if _, err := env.svc.Ballot.Submit(env.ctx, room.RoomID, env.users[chairOf(room)], tied); !errors.Is(err, ErrMalformedBallot) {
		t.Fatalf("队伍总分相同应被拒绝, got %v", err)
	}
}

func TestSubmitBallot_ResubmissionOverrides(t *testing.T) {
	env := newTestEnv(t)
	_, released := env.releasedSession(t, 4)
	room := released.Rooms[0]
	user := env.users[chairOf(room)]

	if _, err := env.svc.Ballot.Submit(env.ctx, room.RoomID, user, ballotFor(room, 0)); err != nil {
		t.Fatalf("第一次提交失败: %v", err)
	}
	second := ballotFor(room, 1)
	second.Force = true
	if _, err := env.svc.Ballot.Submit(env.ctx, room.RoomID, user, second); err != nil {
		t.Fatalf("第二次提交失败: %v", err)
	}

	list, _ := env.svc.Ballot.ListBallots(env.ctx, room.RoomID)
	if len(list) != 2 {
		t.Fatalf("选票只追加, 期望 2 张, got %d", len(list))
	}
	res, err := env.svc.Tab.RoomResult(env.ctx, room.RoomID)
	if err != nil {
		t.Fatalf("计算房间结果失败: %v", err)
	}
	if len(res.Ballots) != 1 || res.Teams[0].TeamID != teamAt(room, 1) {
		t.Fatalf("应以最近一次提交为准: %+v", res)
	}
}

func TestSubmitBallot_ConflictRequiresForce(t *testing.T) {
	env := newTestEnv(t)
	_, released := env.releasedSession(t, 4)
	room := released.Rooms[0]
	chair := env.users[chairOf(room)]

	if _, err := env.svc.Ballot.Submit(env.ctx, room.RoomID, chair, ballotFor(room, 0)); err != nil {
		t.Fatalf("主裁提交失败: %v", err)
	}

	// 结果相同的重复提交无需确认
	if _, err := env.svc.Ballot.Submit(env.ctx, room.RoomID, chair, ballotFor(room, 0)); err != nil {
		t.Fatalf("结果一致的提交不应被拦截: %v", err)
	}

	flipped := ballotFor(room, 1)
	if _, err := env.svc.Ballot.Submit(env.ctx, room.RoomID, chair, flipped); !errors.Is(err, ErrBallotConflict) {
		t.Fatalf("结果不同的提交应返回 ErrBallotConflict, got %v", err)
	}
	list, _ := env.svc.Ballot.ListBallots(env.ctx, room.RoomID)
	if len(list) != 2 {
		t.Fatalf("被拦截的选票不应写入, 期望 2 张, got %d", len(list))
	}

	flipped.Force = true
	if _, err := env.svc.Ballot.Submit(env.ctx, room.RoomID, chair, flipped); err != nil {
		t.Fatalf("确认后提交失败: %v", err)
	}
	res, err := env.svc.Tab.RoomResult(env.ctx, room.RoomID)
	if err != nil {
		t.Fatalf("计算房间结果失败: %v", err)
	}
	if res.Teams[0].TeamID != teamAt(room, 1) {
		t.Fatalf("确认后应以新选票为准: %+v", res.Teams)
	}
}

func TestSubmitBallot_UnknownRoom(t *testing.T) {
	env := newTestEnv(t)
	_, released := env.releasedSession(t, 4)
	if _, err := env.svc.Ballot.Submit(env.ctx, "missing", "user-j1", ballotFor(released.Rooms[0], 0)); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("期望 ErrRoomNotFound, got %v", err)
	}
	if _, err := env.svc.Ballot.ListBallots(env.ctx, "missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("期望 ErrRoomNotFound, got %v", err)
	}
}
