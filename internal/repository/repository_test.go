package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"spartab/internal/model"
	"spartab/internal/repository"
	"spartab/pkg/database"
	pkgerrors "spartab/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

func newTestRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()
	db, err := database.NewMemoryDB(t.Name())
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewRepository(db), db
}

func seedSession(t *testing.T, repo *repository.Repository) (*model.Series, *model.Session, []model.Member) {
	t.Helper()
	ctx := context.Background()

	series := &model.Series{Title: "周三练习赛", SpeakersPerTeam: 2, TeamsPerRoom: 4}
	if err := repo.Series.Create(ctx, series); err != nil {
		t.Fatalf("创建系列失败: %v", err)
	}
	session := &model.Session{SeriesID: series.SeriesID, StartTime: time.Date(2026, 3, 4, 19, 0, 0, 0, time.UTC), IsOpen: true}
	if err := repo.Session.Create(ctx, session); err != nil {
		t.Fatalf("创建场次失败: %v", err)
	}

	var members []model.Member
	for i := 0; i < 9; i++ {
		m := model.Member{SeriesID: series.SeriesID, Name: string(rune('A' + i)), Rating: 25, IsActive: true}
		if err := repo.Member.Create(ctx, &m); err != nil {
			t.Fatalf("创建成员失败: %v", err)
		}
		members = append(members, m)
	}
	return series, session, members
}

func buildRoom(session *model.Session, members []model.Member) model.Room {
	room := model.Room{SessionID: session.SessionID, RoomIndex: 0}
	for p := 0; p < 4; p++ {
		team := model.Team{Position: p}
		for o := 0; o < 2; o++ {
			team.Speakers = append(team.Speakers, model.SpeakerAssignment{
				SessionID: session.SessionID, MemberID: members[p*2+o].MemberID, SpeakingOrder: o,
			})
		}
		room.Teams = append(room.Teams, team)
	}
	room.Judges = []model.JudgeAssignment{{SessionID: session.SessionID, MemberID: members[8].MemberID, Status: model.JudgeStatusChair}}
	return room
}

// ═══════════════════════════════════════════════════════════
// Draft versions
// ═══════════════════════════════════════════════════════════

func TestAdvanceDraftVersion_CompareAndSwap(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, session, _ := seedSession(t, repo)
	ctx := context.Background()

	if err := repo.Session.AdvanceDraftVersion(ctx, session.SessionID, 0); err != nil {
		t.Fatalf("首次推进版本失败: %v", err)
	}
	if err := repo.Session.AdvanceDraftVersion(ctx, session.SessionID, 0); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("期望过期版本返回 ErrOptimisticLock，实际=%v", err)
	}
	if err := repo.Session.AdvanceDraftVersion(ctx, session.SessionID, 1); err != nil {
		t.Fatalf("推进到版本 2 失败: %v", err)
	}

	got, err := repo.Session.GetByID(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("查询场次失败: %v", err)
	}
	if got.CurrentDraftVersion != 2 {
		t.Errorf("期望当前版本=2，实际=%d", got.CurrentDraftVersion)
	}
}

func TestDraft_DuplicateVersionRejected(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, session, members := seedSession(t, repo)
	ctx := context.Background()

	room := 0
	draft := &model.DraftDraw{
		SessionID: session.SessionID, Version: 1, Source: model.DraftSourceGenerated,
		Entries: []model.DraftDrawEntry{
			{Seq: 0, Kind: model.EntryKindSpeaker, MemberID: members[0].MemberID, RoomIndex: &room},
			{Seq: 1, Kind: model.EntryKindBench, MemberID: members[1].MemberID},
		},
	}
	if err := repo.Draft.Create(ctx, draft); err != nil {
		t.Fatalf("写入草稿失败: %v", err)
	}

	dup := &model.DraftDraw{SessionID: session.SessionID, Version: 1, Source: model.DraftSourceManual}
	err := repo.Draft.Create(ctx, dup)
	if !database.IsUniqueViolation(err) {
		t.Fatalf("期望唯一约束冲突，实际=%v", err)
	}

	got, err := repo.Draft.GetByVersion(ctx, session.SessionID, 1)
	if err != nil {
		t.Fatalf("读取草稿失败: %v", err)
	}
	if len(got.Entries) != 2 || got.Entries[0].Kind != model.EntryKindSpeaker || *got.Entries[0].RoomIndex != 0 {
		t.Errorf("草稿条目不符: %+v", got.Entries)
	}
}

// ═══════════════════════════════════════════════════════════
// Release
// ═══════════════════════════════════════════════════════════

func TestMarkReleased_OnlyOnce(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, session, _ := seedSession(t, repo)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Session.AdvanceDraftVersion(ctx, session.SessionID, 0); err != nil {
		t.Fatalf("推进版本失败: %v", err)
	}
	if err := repo.Session.MarkReleased(ctx, session.SessionID, 2, now); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("期望版本不符时失败，实际=%v", err)
	}
	if err := repo.Session.MarkReleased(ctx, session.SessionID, 1, now); err != nil {
		t.Fatalf("发布失败: %v", err)
	}
	if err := repo.Session.MarkReleased(ctx, session.SessionID, 1, now); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("期望重复发布失败，实际=%v", err)
	}
	if err := repo.Session.AdvanceDraftVersion(ctx, session.SessionID, 1); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("期望发布后不能再写草稿，实际=%v", err)
	}

	got, _ := repo.Session.GetByID(ctx, session.SessionID)
	if !got.Released || got.IsOpen || got.ReleasedDraftVersion != 1 {
		t.Errorf("发布状态不符: released=%v open=%v version=%d", got.Released, got.IsOpen, got.ReleasedDraftVersion)
	}
}

func TestCreateRooms_Nested(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, session, members := seedSession(t, repo)
	ctx := context.Background()

	if err := repo.Draw.CreateRooms(ctx, []model.Room{buildRoom(session, members)}); err != nil {
		t.Fatalf("写入房间失败: %v", err)
	}

	rooms, err := repo.Draw.ListBySession(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("查询房间失败: %v", err)
	}
	if len(rooms) != 1 || len(rooms[0].Teams) != 4 || len(rooms[0].Judges) != 1 {
		t.Fatalf("房间结构不符: %+v", rooms)
	}
	for p, team := range rooms[0].Teams {
		if team.Position != p || len(team.Speakers) != 2 {
			t.Errorf("队伍 %d 不符: %+v", p, team)
		}
	}

	ja, err := repo.Draw.GetJudgeAssignment(ctx, rooms[0].RoomID, members[8].MemberID)
	if err != nil || ja.Status != model.JudgeStatusChair {
		t.Errorf("裁判席位不符: %+v, %v", ja, err)
	}

	// 同一场次内同一成员不能出现两次
	again := buildRoom(session, members)
	again.RoomIndex = 1
	if err := repo.Draw.CreateRooms(ctx, []model.Room{again}); !database.IsUniqueViolation(err) {
		t.Fatalf("期望唯一约束冲突，实际=%v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Transactions & cascade
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, session, members := seedSession(t, repo)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Draw.CreateRooms(ctx, []model.Room{buildRoom(session, members)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("期望返回 boom，实际=%v", err)
	}

	n, err := repo.Draw.CountBySession(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("统计房间失败: %v", err)
	}
	if n != 0 {
		t.Errorf("期望回滚后无房间，实际=%d", n)
	}
}

func TestBeginTx_Commit(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, session, members := seedSession(t, repo)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	if err := repo.WithTx(tx).Draw.CreateRooms(ctx, []model.Room{buildRoom(session, members)}); err != nil {
		tx.Rollback()
		t.Fatalf("事务内写入失败: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit 失败: %v", err)
	}

	if n, _ := repo.Draw.CountBySession(ctx, session.SessionID); n != 1 {
		t.Errorf("期望提交后有 1 个房间，实际=%d", n)
	}
}

func TestSessionDelete_Cascades(t *testing.T) {
	repo, db := newTestRepo(t)
	_, session, members := seedSession(t, repo)
	ctx := context.Background()

	if err := repo.Signup.Create(ctx, &model.Signup{SessionID: session.SessionID, MemberID: members[0].MemberID, AsSpeaker: true}); err != nil {
		t.Fatalf("报名失败: %v", err)
	}
	if err := repo.Draw.CreateRooms(ctx, []model.Room{buildRoom(session, members)}); err != nil {
		t.Fatalf("写入房间失败: %v", err)
	}
	rooms, _ := repo.Draw.ListBySession(ctx, session.SessionID)
	ballot := &model.Ballot{
		RoomID: rooms[0].RoomID, SessionID: session.SessionID,
		JudgeAssignmentID: rooms[0].Judges[0].JudgeAssignmentID, MemberID: members[8].MemberID,
		CreatedAt: time.Now().UTC(),
		Entries:   []model.BallotEntry{{TeamID: rooms[0].Teams[0].TeamID, SpeakerMemberID: members[0].MemberID, Score: 75}},
	}
	if err := repo.Ballot.Create(ctx, ballot); err != nil {
		t.Fatalf("写入选票失败: %v", err)
	}

	if err := repo.Session.Delete(ctx, session.SessionID); err != nil {
		t.Fatalf("删除场次失败: %v", err)
	}

	for _, m := range []interface{}{&model.Ballot{}, &model.BallotEntry{}, &model.Room{}, &model.Team{},
		&model.SpeakerAssignment{}, &model.JudgeAssignment{}, &model.Signup{}, &model.Session{}} {
		var n int64
		db.Model(m).Count(&n)
		if n != 0 {
			t.Errorf("%T 未被级联删除，剩余 %d 条", m, n)
		}
	}
	if err := repo.Session.Delete(ctx, session.SessionID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望删除不存在的场次返回 ErrRecordNotFound，实际=%v", err)
	}
}
