package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"spartab/config"
	"spartab/internal/dto"
	"spartab/internal/repository"
	"spartab/internal/tab"
	"spartab/pkg/database"
	"spartab/pkg/metrics"
)

// ═══════════════════════════════════════════════════════════
// Test Setup：内存 SQLite + 真实 Repository
// ═══════════════════════════════════════════════════════════

func testConfig() *config.Config {
	return &config.Config{
		Draw: config.DrawConfig{
			SolveTimeout:  5 * time.Second,
			MaxBenched:    1,
			MaxPanelSize:  3,
			ClashPenalty:  1000,
			RepeatPenalty: 5,
			MaxPasses:     50,
			ProposeRetry:  3,
		},
		Tab: config.TabConfig{
			MinScore:      50,
			MaxScore:      100,
			PanelStrategy: tab.StrategyIndependent,
			BreakSize:     2,
			EloK:          2,
		},
	}
}

type testEnv struct {
	ctx      context.Context
	repo     *repository.Repository
	svc      *Service
	seriesID string
	// 成员名 → ID / 外部用户 ID
	ids   map[string]string
	users map[string]string
}

// stepClock 每次调用前进一秒
func stepClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestEnv(t *testing.T) *testEnv {
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

	repo := repository.NewRepository(db)
	svc := NewService(testConfig(), repo, nil, metrics.New(), zap.NewNop())
	clock := stepClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc.Draw.(*drawService).now = clock
	svc.Ballot.(*ballotService).now = clock

	env := &testEnv{
		ctx:   context.Background(),
		repo:  repo,
		svc:   svc,
		ids:   make(map[string]string),
		users: make(map[string]string),
	}
	series, err := svc.Session.CreateSeries(env.ctx, &dto.CreateSeriesRequest{
		Title: "周三练习赛", SpeakersPerTeam: 2, TeamsPerRoom: 2,
	}, "admin")
	if err != nil {
		t.Fatalf("创建系列失败: %v", err)
	}
	env.seriesID = series.ID
	return env
}

// addMembers 按名称添加成员，评分依次递增
func (e *testEnv) addMembers(t *testing.T, names ...string) {
	t.Helper()
	for i, name := range names {
		rating := 20 + float64(i)
		user := "user-" + name
		m, err := e.svc.Session.AddMember(e.ctx, e.seriesID, &dto.AddMemberRequest{
			UserID: user, Name: name, Rating: &rating,
		}, "admin")
		if err != nil {
			t.Fatalf("添加成员 %s 失败: %v", name, err)
		}
		e.ids[name] = m.ID
		e.users[m.ID] = user
	}
}

func (e *testEnv) newSession(t *testing.T, day int) string {
	t.Helper()
	s, err := e.svc.Session.CreateSession(e.ctx, e.seriesID, &dto.CreateSessionRequest{
		Title:     fmt.Sprintf("第 %d 场", day),
		Location:  "B301",
		StartTime: time.Date(2026, 3, day, 19, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}, "admin")
	if err != nil {
		t.Fatalf("创建场次失败: %v", err)
	}
	return s.ID
}

func (e *testEnv) signup(t *testing.T, sessionID string, speaker, judge bool, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := e.svc.Session.Signup(e.ctx, sessionID, &dto.SignupRequest{
			MemberID: e.ids[name], AsSpeaker: speaker, AsJudge: judge,
		}, "admin")
		if err != nil {
			t.Fatalf("报名 %s 失败: %v", name, err)
		}
	}
}

var (
	speakerNames = []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"}
	judgeNames   = []string{"j1", "j2"}
)

// standardSession 8 名辩手 + 2 名裁判，赛制 2×2，恰好两个房间
func (e *testEnv) standardSession(t *testing.T, day int) string {
	t.Helper()
	if len(e.ids) == 0 {
		e.addMembers(t, append(append([]string{}, speakerNames...), judgeNames...)...)
	}
	sessionID := e.newSession(t, day)
	e.signup(t, sessionID, true, false, speakerNames...)
	e.signup(t, sessionID, false, true, judgeNames...)
	return sessionID
}

// releasedSession 生成并发布标准场次
func (e *testEnv) releasedSession(t *testing.T, day int) (string, *dto.ReleasedDrawResponse) {
	t.Helper()
	sessionID := e.standardSession(t, day)
	if _, err := e.svc.Draw.Generate(e.ctx, sessionID, "admin"); err != nil {
		t.Fatalf("生成草稿失败: %v", err)
	}
	released, err := e.svc.Draw.Release(e.ctx, sessionID, "admin")
	if err != nil {
		t.Fatalf("发布失败: %v", err)
	}
	return sessionID, released
}

// ballotFor 构造完整选票：winner 位置的队伍每人 80 分，其余 70 分
func ballotFor(room dto.ReleasedRoom, winner int) *dto.SubmitBallotRequest {
	req := &dto.SubmitBallotRequest{}
	for _, team := range room.Teams {
		score := 70
		if team.Position == winner {
			score = 80
		}
		for i, sp := range team.Speakers {
			req.Entries = append(req.Entries, dto.BallotEntryRequest{
				TeamID: team.TeamID, SpeakerID: sp.ID, Position: i, Score: score,
			})
		}
	}
	return req
}

func chairOf(room dto.ReleasedRoom) string {
	for _, j := range room.Judges {
		if j.Status == "chair" {
			return j.Member.ID
		}
	}
	return ""
}

func teamAt(room dto.ReleasedRoom, position int) string {
	for _, t := range room.Teams {
		if t.Position == position {
			return t.TeamID
		}
	}
	return ""
}
