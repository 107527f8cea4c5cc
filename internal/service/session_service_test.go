package service

import (
	"errors"
	"testing"

	"spartab/internal/dto"
)

func TestAddMember_DuplicateUser(t *testing.T) {
	env := newTestEnv(t)
	env.addMembers(t, "alice")

	_, err := env.svc.Session.AddMember(env.ctx, env.seriesID, &dto.AddMemberRequest{UserID: "user-alice", Name: "Alice 2"}, "admin")
	if !errors.Is(err, ErrMemberExists) {
		t.Fatalf("期望 ErrMemberExists, got %v", err)
	}

	m, err := env.svc.Session.AddMember(env.ctx, env.seriesID, &dto.AddMemberRequest{Name: "guest"}, "admin")
	if err != nil {
		t.Fatalf("添加无账号成员失败: %v", err)
	}
	if m.Rating != DefaultRating || !m.IsActive || m.UserID != nil {
		t.Fatalf("默认值不符: %+v", m)
	}

	if _, err := env.svc.Session.AddMember(env.ctx, "missing", &dto.AddMemberRequest{Name: "x"}, "admin"); !errors.Is(err, ErrSeriesNotFound) {
		t.Fatalf("期望 ErrSeriesNotFound, got %v", err)
	}
}

func TestCreateSession_InvalidStartTime(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Session.CreateSession(env.ctx, env.seriesID, &dto.CreateSessionRequest{StartTime: "下周三"}, "admin")
	if !errors.Is(err, ErrInvalidStartTime) {
		t.Fatalf("期望 ErrInvalidStartTime, got %v", err)
	}
}

func TestSignup_Upsert(t *testing.T) {
	env := newTestEnv(t)
	env.addMembers(t, "alice")
	sessionID := env.newSession(t, 4)

	env.signup(t, sessionID, true, false, "alice")
	env.signup(t, sessionID, true, true, "alice")

	list, err := env.svc.Session.ListSignups(env.ctx, sessionID)
	if err != nil {
		t.Fatalf("列出报名失败: %v", err)
	}
	if len(list) != 1 || !list[0].AsSpeaker || !list[0].AsJudge || list[0].Member.Name != "alice" {
		t.Fatalf("重复报名应更新角色: %+v", list)
	}
}

func TestSignup_Rejections(t *testing.T) {
	env := newTestEnv(t)
	env.addMembers(t, "alice", "bob")
	sessionID := env.newSession(t, 4)

	if _, err := env.svc.Session.Signup(env.ctx, sessionID, &dto.SignupRequest{MemberID: env.ids["alice"]}, ""); !errors.Is(err, ErrSignupNoRole) {
		t.Fatalf("期望 ErrSignupNoRole, got %v", err)
	}
	if _, err := env.svc.Session.Signup(env.ctx, sessionID, &dto.SignupRequest{MemberID: "missing", AsSpeaker: true}, ""); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("期望 ErrMemberNotFound, got %v", err)
	}

	if err := env.svc.Session.SetMemberActive(env.ctx, env.ids["bob"], false); err != nil {
		t.Fatalf("停用成员失败: %v", err)
	}
	if _, err := env.svc.Session.Signup(env.ctx, sessionID, &dto.SignupRequest{MemberID: env.ids["bob"], AsSpeaker: true}, ""); !errors.Is(err, ErrMemberInactive) {
		t.Fatalf("期望 ErrMemberInactive, got %v", err)
	}

	other, err := env.svc.Session.CreateSeries(env.ctx, &dto.CreateSeriesRequest{Title: "另一系列", SpeakersPerTeam: 2, TeamsPerRoom: 2}, "admin")
	if err != nil {
		t.Fatalf("创建系列失败: %v", err)
	}
	outsider, err := env.svc.Session.AddMember(env.ctx, other.ID, &dto.AddMemberRequest{Name: "carol"}, "admin")
	if err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}
	if _, err := env.svc.Session.Signup(env.ctx, sessionID, &dto.SignupRequest{MemberID: outsider.ID, AsJudge: true}, ""); !errors.Is(err, ErrSeriesMismatch) {
		t.Fatalf("期望 ErrSeriesMismatch, got %v", err)
	}

	if err := env.svc.Session.SetSignupOpen(env.ctx, sessionID, false); err != nil {
		t.Fatalf("关闭报名失败: %v", err)
	}
	if _, err := env.svc.Session.Signup(env.ctx, sessionID, &dto.SignupRequest{MemberID: env.ids["alice"], AsSpeaker: true}, ""); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("期望 ErrSessionClosed, got %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t)
	env.addMembers(t, "alice")
	sessionID := env.newSession(t, 4)
	env.signup(t, sessionID, true, false, "alice")

	if err := env.svc.Session.Withdraw(env.ctx, sessionID, env.ids["alice"]); err != nil {
		t.Fatalf("取消报名失败: %v", err)
	}
	if err := env.svc.Session.Withdraw(env.ctx, sessionID, env.ids["alice"]); !errors.Is(err, ErrSignupNotFound) {
		t.Fatalf("期望 ErrSignupNotFound, got %v", err)
	}
}

func TestDeleteSession_Cascades(t *testing.T) {
	env := newTestEnv(t)
	sessionID, released := env.releasedSession(t, 4)
	submitAll(t, env, released, 0, 1)

	if err := env.svc.Session.DeleteSession(env.ctx, sessionID); err != nil {
		t.Fatalf("删除场次失败: %v", err)
	}
	if _, err := env.svc.Session.GetSession(env.ctx, sessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("期望 ErrSessionNotFound, got %v", err)
	}
	if n, _ := env.repo.Draw.CountBySession(env.ctx, sessionID); n != 0 {
		t.Fatalf("房间应被级联删除, got %d", n)
	}
	if err := env.svc.Session.DeleteSession(env.ctx, sessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("重复删除应返回 ErrSessionNotFound, got %v", err)
	}
}

func TestListSessions(t *testing.T) {
	env := newTestEnv(t)
	env.newSession(t, 11)
	env.newSession(t, 4)

	list, err := env.svc.Session.ListSessions(env.ctx, env.seriesID)
	if err != nil || len(list) != 2 {
		t.Fatalf("期望 2 个场次, got %d err=%v", len(list), err)
	}
	if list[0].StartTime != "2026-03-04T19:00:00Z" {
		t.Fatalf("场次应按开始时间排序: %+v", list)
	}
}
