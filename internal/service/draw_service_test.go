package service

import (
	"errors"
	"sync"
	"testing"

	"spartab/internal/draw"
	"spartab/internal/dto"
)

// ═══════════════════════════════════════════════════════════
// Generate
// ═══════════════════════════════════════════════════════════

func TestGenerate_CreatesFirstVersion(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.standardSession(t, 4)

	resp, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin")
	if err != nil {
		t.Fatalf("生成草稿失败: %v", err)
	}
	if resp.Version != 1 || resp.Source != "generated" || resp.BasedOnVersion != 0 {
		t.Fatalf("版本信息不符: %+v", resp)
	}
	if len(resp.Draw.Rooms) != 2 || len(resp.Draw.Benched) != 0 {
		t.Fatalf("期望 2 个房间且无人轮空, got rooms=%d benched=%d", len(resp.Draw.Rooms), len(resp.Draw.Benched))
	}
	for _, room := range resp.Draw.Rooms {
		if len(room.Judges) != 1 || room.Judges[0].Status != draw.StatusChair {
			t.Fatalf("房间 %d 应有且仅有一名主裁: %+v", room.Index, room.Judges)
		}
	}
	if resp.Draw.Seated() != 8 {
		t.Fatalf("期望 8 名辩手入座, got %d", resp.Draw.Seated())
	}
	if resp.Members[env.ids["s1"]] != "s1" {
		t.Fatalf("成员姓名缺失: %v", resp.Members)
	}

	current, err := env.svc.Draw.CurrentDraft(env.ctx, sessionID)
	if err != nil {
		t.Fatalf("读取当前草稿失败: %v", err)
	}
	if current.Version != 1 || current.Draw.Seated() != 8 {
		t.Fatalf("当前草稿不符: version=%d", current.Version)
	}

	versions, err := env.svc.Draw.ListDraftVersions(env.ctx, sessionID)
	if err != nil || len(versions) != 1 {
		t.Fatalf("期望 1 个版本, got %d err=%v", len(versions), err)
	}
}

func TestGenerate_InsufficientPool(t *testing.T) {
	env := newTestEnv(t)
	env.addMembers(t, "s1", "s2", "s3", "j1")
	sessionID := env.newSession(t, 4)
	env.signup(t, sessionID, true, false, "s1", "s2", "s3")
	env.signup(t, sessionID, false, true, "j1")

	_, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin")
	if !errors.Is(err, ErrInsufficientPool) {
		t.Fatalf("期望 ErrInsufficientPool, got %v", err)
	}
	if _, err := env.svc.Draw.CurrentDraft(env.ctx, sessionID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("失败的生成不应写入草稿, got %v", err)
	}
}

func TestGenerate_NoJudgesIsInfeasible(t *testing.T) {
	env := newTestEnv(t)
	env.addMembers(t, speakerNames...)
	sessionID := env.newSession(t, 4)
	env.signup(t, sessionID, true, false, speakerNames...)

	_, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin")
	var ie *draw.InfeasibleError
	if !errors.Is(err, ErrInfeasible) || !errors.As(err, &ie) {
		t.Fatalf("期望 InfeasibleError, got %v", err)
	}
	if ie.Class != draw.ClassJudges {
		t.Fatalf("期望约束类别 judges, got %s", ie.Class)
	}
}

func TestGenerate_SessionNotFound(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.Draw.Generate(env.ctx, "missing", "admin"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("期望 ErrSessionNotFound, got %v", err)
	}
}

func TestGenerate_AvoidsPriorTeammates(t *testing.T) {
	env := newTestEnv(t)
	_, first := env.releasedSession(t, 4)

	prior := make(map[[2]string]bool)
	for _, room := range first.Rooms {
		for _, team := range room.Teams {
			a, b := team.Speakers[0].ID, team.Speakers[1].ID
			prior[[2]string{a, b}], prior[[2]string{b, a}] = true, true
		}
	}

	second := env.standardSession(t, 11)
	resp, err := env.svc.Draw.Generate(env.ctx, second, "admin")
	if err != nil {
		t.Fatalf("生成第二场草稿失败: %v", err)
	}
	if len(resp.Draw.Clashes) != 0 {
		t.Fatalf("不应放宽任何冲突: %+v", resp.Draw.Clashes)
	}
	for _, room := range resp.Draw.Rooms {
		for _, team := range room.Teams {
			if prior[[2]string{team.Speakers[0], team.Speakers[1]}] {
				t.Fatalf("重复组队: %v", team.Speakers)
			}
		}
	}
}

// ═══════════════════════════════════════════════════════════
// Propose / 编辑
// ═══════════════════════════════════════════════════════════

func TestProposeDraft_VersionCheck(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.standardSession(t, 4)
	gen, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin")
	if err != nil {
		t.Fatalf("生成草稿失败: %v", err)
	}

	v2, err := env.svc.Draw.ProposeDraft(env.ctx, sessionID, &dto.ProposeDraftRequest{BasedOnVersion: 1, Draw: gen.Draw}, "editor")
	if err != nil {
		t.Fatalf("提交草稿失败: %v", err)
	}
	if v2.Version != 2 || v2.Source != "manual" || v2.BasedOnVersion != 1 {
		t.Fatalf("版本信息不符: %+v", v2)
	}
	if v2.CreatedBy == nil || *v2.CreatedBy != "editor" {
		t.Fatalf("创建者未记录: %v", v2.CreatedBy)
	}

	_, err = env.svc.Draw.ProposeDraft(env.ctx, sessionID, &dto.ProposeDraftRequest{BasedOnVersion: 1, Draw: gen.Draw}, "editor")
	if !errors.Is(err, ErrDraftStale) {
		t.Fatalf("基于旧版本提交应返回 ErrDraftStale, got %v", err)
	}

	versions, _ := env.svc.Draw.ListDraftVersions(env.ctx, sessionID)
	if len(versions) != 2 || versions[0].Version != 1 || versions[1].Version != 2 {
		t.Fatalf("版本序列不符: %+v", versions)
	}

	old, err := env.svc.Draw.DraftVersion(env.ctx, sessionID, 1)
	if err != nil || old.Source != "generated" {
		t.Fatalf("历史版本应保持不变: %+v err=%v", old, err)
	}
	if _, err := env.svc.Draw.DraftVersion(env.ctx, sessionID, 9); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("期望 ErrDraftNotFound, got %v", err)
	}
}

func TestProposeDraft_InvalidStructure(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.standardSession(t, 4)
	gen, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin")
	if err != nil {
		t.Fatalf("生成草稿失败: %v", err)
	}

	broken := gen.Draw.Clone()
	broken.Rooms[0].Teams[0].Speakers = broken.Rooms[0].Teams[0].Speakers[:1]
	_, err = env.svc.Draw.ProposeDraft(env.ctx, sessionID, &dto.ProposeDraftRequest{Draw: broken}, "editor")
	if !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("期望 ErrInvalidDraft, got %v", err)
	}
	if len(ViolationsOf(err)) == 0 {
		t.Fatal("应返回违规明细")
	}

	wrongFormat := gen.Draw.Clone()
	wrongFormat.Format.SpeakersPerTeam = 1
	if _, err := env.svc.Draw.ProposeDraft(env.ctx, sessionID, &dto.ProposeDraftRequest{Draw: wrongFormat}, "editor"); !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("赛制不一致应返回 ErrInvalidDraft, got %v", err)
	}

	current, _ := env.svc.Draw.CurrentDraft(env.ctx, sessionID)
	if current.Version != 1 {
		t.Fatalf("无效草稿不应写入, 当前版本 %d", current.Version)
	}
}

func TestMoveSpeaker_Swap(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.standardSession(t, 4)
	gen, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin")
	if err != nil {
		t.Fatalf("生成草稿失败: %v", err)
	}
	a := gen.Draw.Rooms[0].Teams[0].Speakers[0]
	b := gen.Draw.Rooms[1].Teams[1].Speakers[1]

	resp, err := env.svc.Draw.MoveSpeaker(env.ctx, sessionID, &dto.MoveSpeakerRequest{
		BasedOnVersion: 1, MemberID: a, SwapWith: b,
	}, "editor")
	if err != nil {
		t.Fatalf("交换辩手失败: %v", err)
	}
	if resp.Version != 2 || resp.Source != "manual" {
		t.Fatalf("版本信息不符: %+v", resp)
	}
	if resp.Draw.Rooms[0].Teams[0].Speakers[0] != b || resp.Draw.Rooms[1].Teams[1].Speakers[1] != a {
		t.Fatalf("交换未生效: %+v", resp.Draw.Rooms)
	}

	_, err = env.svc.Draw.MoveSpeaker(env.ctx, sessionID, &dto.MoveSpeakerRequest{
		BasedOnVersion: 1, MemberID: a, SwapWith: b,
	}, "editor")
	if !errors.Is(err, ErrDraftStale) {
		t.Fatalf("基于旧版本编辑应返回 ErrDraftStale, got %v", err)
	}
}

func TestMoveSpeaker_ToBenchBreaksTeam(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.standardSession(t, 4)
	gen, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin")
	if err != nil {
		t.Fatalf("生成草稿失败: %v", err)
	}
	_, err = env.svc.Draw.MoveSpeaker(env.ctx, sessionID, &dto.MoveSpeakerRequest{
		MemberID: gen.Draw.Rooms[0].Teams[0].Speakers[0], RoomIndex: draw.BenchRoom,
	}, "editor")
	if !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("队伍缺人应返回 ErrInvalidDraft, got %v", err)
	}
}

func TestMoveJudge_PromotesToChair(t *testing.T) {
	env := newTestEnv(t)
	env.addMembers(t, append(append([]string{}, speakerNames...), "j1", "j2", "j3")...)
	sessionID := env.newSession(t, 4)
	env.signup(t, sessionID, true, false, speakerNames...)
	env.signup(t, sessionID, false, true, "j1", "j2", "j3")

	gen, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin")
	if err != nil {
		t.Fatalf("生成草稿失败: %v", err)
	}
	var panelist string
	target := -1
	for _, room := range gen.Draw.Rooms {
		if len(room.Judges) == 2 {
			panelist = room.Judges[1].MemberID
		} else {
			target = room.Index
		}
	}
	if panelist == "" || target < 0 {
		t.Fatalf("期望一个房间有边裁: %+v", gen.Draw.Rooms)
	}

	resp, err := env.svc.Draw.MoveJudge(env.ctx, sessionID, &dto.MoveJudgeRequest{
		MemberID: panelist, RoomIndex: target, Status: "chair",
	}, "editor")
	if err != nil {
		t.Fatalf("移动裁判失败: %v", err)
	}
	room := resp.Draw.Rooms[target]
	if len(room.Judges) != 2 || room.Judges[0].MemberID != panelist || room.Judges[0].Status != draw.StatusChair {
		t.Fatalf("目标房间裁判不符: %+v", room.Judges)
	}
	if room.Judges[1].Status != draw.StatusPanelist {
		t.Fatalf("原主裁应降为边裁: %+v", room.Judges)
	}
}

func TestMoveJudge_LeavingRoomWithoutChair(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.standardSession(t, 4)
	gen, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin")
	if err != nil {
		t.Fatalf("生成草稿失败: %v", err)
	}
	_, err = env.svc.Draw.MoveJudge(env.ctx, sessionID, &dto.MoveJudgeRequest{
		MemberID: gen.Draw.Rooms[0].Judges[0].MemberID, RoomIndex: 1, Status: "panelist",
	}, "editor")
	if !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("房间无主裁应返回 ErrInvalidDraft, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Release
// ═══════════════════════════════════════════════════════════

func TestRelease_MaterialisesRooms(t *testing.T) {
	env := newTestEnv(t)
	sessionID, released := env.releasedSession(t, 4)

	if released.DraftVersion != 1 || released.ReleasedAt == nil {
		t.Fatalf("发布信息不符: %+v", released)
	}
	if len(released.Rooms) != 2 {
		t.Fatalf("期望 2 个房间, got %d", len(released.Rooms))
	}
	for _, room := range released.Rooms {
		if len(room.Teams) != 2 {
			t.Fatalf("房间 %d 队伍数 %d", room.Index, len(room.Teams))
		}
		for _, team := range room.Teams {
			if len(team.Speakers) != 2 {
				t.Fatalf("队伍人数 %d", len(team.Speakers))
			}
		}
		if chairOf(room) == "" {
			t.Fatalf("房间 %d 缺少主裁", room.Index)
		}
	}

	session, err := env.svc.Session.GetSession(env.ctx, sessionID)
	if err != nil {
		t.Fatalf("查询场次失败: %v", err)
	}
	if !session.Released || session.IsOpen {
		t.Fatalf("发布后应关闭报名: %+v", session)
	}
}

func TestRelease_LocksSession(t *testing.T) {
	env := newTestEnv(t)
	sessionID, _ := env.releasedSession(t, 4)

	current, err := env.svc.Draw.CurrentDraft(env.ctx, sessionID)
	if err != nil {
		t.Fatalf("读取草稿失败: %v", err)
	}
	if _, err := env.svc.Draw.ProposeDraft(env.ctx, sessionID, &dto.ProposeDraftRequest{Draw: current.Draw}, "editor"); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("发布后提交应返回 ErrSessionLocked, got %v", err)
	}
	if _, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin"); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("发布后生成应返回 ErrSessionLocked, got %v", err)
	}
	if _, err := env.svc.Draw.Release(env.ctx, sessionID, "admin"); !errors.Is(err, ErrDraftStale) {
		t.Fatalf("重复发布应返回 ErrDraftStale, got %v", err)
	}
	_, err = env.svc.Session.Signup(env.ctx, sessionID, &dto.SignupRequest{MemberID: env.ids["s1"], AsJudge: true}, "admin")
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("发布后报名应返回 ErrSessionClosed, got %v", err)
	}

	n, _ := env.repo.Draw.CountBySession(env.ctx, sessionID)
	if n != 2 {
		t.Fatalf("房间数应保持 2, got %d", n)
	}
}

func TestRelease_StaleAfterWithdrawal(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.standardSession(t, 4)
	if _, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin"); err != nil {
		t.Fatalf("生成草稿失败: %v", err)
	}
	if err := env.svc.Session.Withdraw(env.ctx, sessionID, env.ids["s3"]); err != nil {
		t.Fatalf("取消报名失败: %v", err)
	}

	_, err := env.svc.Draw.Release(env.ctx, sessionID, "admin")
	if !errors.Is(err, ErrDraftStale) {
		t.Fatalf("报名变化后发布应返回 ErrDraftStale, got %v", err)
	}
	if len(ViolationsOf(err)) == 0 {
		t.Fatal("应返回违规明细")
	}
	n, _ := env.repo.Draw.CountBySession(env.ctx, sessionID)
	if n != 0 {
		t.Fatalf("发布失败不应写入房间, got %d", n)
	}
	if _, err := env.svc.Draw.ReleasedDraw(env.ctx, sessionID); !errors.Is(err, ErrDrawNotReleased) {
		t.Fatalf("期望 ErrDrawNotReleased, got %v", err)
	}
}

func TestRelease_RejectsOverBenchedDraft(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.standardSession(t, 4)
	gen, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin")
	if err != nil {
		t.Fatalf("生成草稿失败: %v", err)
	}

	// 删掉第二个房间：辩手全部轮空，裁判无处安排
	cut := gen.Draw.Clone()
	for _, team := range cut.Rooms[1].Teams {
		cut.Benched = append(cut.Benched, team.Speakers...)
	}
	cut.Rooms = cut.Rooms[:1]
	if _, err := env.svc.Draw.ProposeDraft(env.ctx, sessionID, &dto.ProposeDraftRequest{BasedOnVersion: 1, Draw: cut}, "editor"); err != nil {
		t.Fatalf("提交草稿失败: %v", err)
	}

	_, err = env.svc.Draw.Release(env.ctx, sessionID, "admin")
	if !errors.Is(err, ErrDraftStale) {
		t.Fatalf("超额轮空的草稿发布应被拒绝, got %v", err)
	}
	found := make(map[draw.ConstraintClass]bool)
	for _, v := range ViolationsOf(err) {
		found[v.Class] = true
	}
	if !found[draw.ClassBench] || !found[draw.ClassCoverage] {
		t.Fatalf("应同时报告轮空超限与裁判未安排, got %v", ViolationsOf(err))
	}
	n, _ := env.repo.Draw.CountBySession(env.ctx, sessionID)
	if n != 0 {
		t.Fatalf("发布失败不应写入房间, got %d", n)
	}
}

func TestRelease_WithoutDraft(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.standardSession(t, 4)
	if _, err := env.svc.Draw.Release(env.ctx, sessionID, "admin"); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("期望 ErrDraftNotFound, got %v", err)
	}
}

func TestRelease_ConcurrentExactlyOneWins(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.standardSession(t, 4)
	if _, err := env.svc.Draw.Generate(env.ctx, sessionID, "admin"); err != nil {
		t.Fatalf("生成草稿失败: %v", err)
	}

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Draw.Release(env.ctx, sessionID, "admin")
		}(i)
	}
	wg.Wait()

	ok, stale := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDraftStale):
			stale++
		default:
			t.Fatalf("意外错误: %v", err)
		}
	}
	if ok != 1 || stale != workers-1 {
		t.Fatalf("期望 1 次成功 %d 次过期, got ok=%d stale=%d", workers-1, ok, stale)
	}
	n, _ := env.repo.Draw.CountBySession(env.ctx, sessionID)
	if n != 2 {
		t.Fatalf("只应写入一组房间, got %d", n)
	}
}
