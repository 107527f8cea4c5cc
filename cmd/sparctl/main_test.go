package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"spartab/config"
	"spartab/internal/draw"
	"spartab/internal/service"
	"spartab/pkg/jwt"
)

func TestExplain_AppendsViolations(t *testing.T) {
	err := &service.DraftError{
		Kind: service.ErrDraftStale,
		Violations: []draw.Violation{
			{Class: draw.ClassUnknown, MemberID: "m1", Detail: "成员已撤回报名"},
		},
	}
	got := explain(err)
	if !errors.Is(got, service.ErrDraftStale) {
		t.Fatalf("应保留原错误: %v", got)
	}
	if !strings.Contains(got.Error(), "m1") {
		t.Fatalf("应包含违规明细: %v", got)
	}

	plain := errors.New("x")
	if explain(plain) != plain {
		t.Fatal("无违规明细时应原样返回")
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := printYAML(&buf, map[string]int{"rooms": 2}); err != nil {
		t.Fatalf("输出失败: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "rooms: 2" {
		t.Fatalf("输出不符合预期: %q", buf.String())
	}
}

type recordingRevoker struct {
	jti string
	ttl time.Duration
}

func (r *recordingRevoker) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	r.jti, r.ttl = jti, ttl
	return nil
}

func TestRevokeToken_UsesRemainingLifetime(t *testing.T) {
	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "sparctl-test-secret-0123456789", AccessTokenTTL: time.Hour})
	token, err := mgr.Issue("u-1", jwt.RoleMember)
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}
	claims, _ := mgr.ParseToken(token)

	store := &recordingRevoker{}
	jti, err := revokeToken(context.Background(), mgr, store, token, time.Now().Add(10*time.Minute))
	if err != nil {
		t.Fatalf("吊销失败: %v", err)
	}
	if jti != claims.ID || store.jti != claims.ID {
		t.Fatalf("吊销的令牌 ID 不符: got %q / %q, want %q", jti, store.jti, claims.ID)
	}
	if store.ttl <= 45*time.Minute || store.ttl > 50*time.Minute {
		t.Fatalf("TTL 应为剩余有效期约 50 分钟, got %v", store.ttl)
	}

	if _, err := revokeToken(context.Background(), mgr, &recordingRevoker{}, "not-a-token", time.Now()); err == nil {
		t.Fatal("无效令牌应报错")
	}
}
