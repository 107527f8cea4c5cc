package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spartab/pkg/jwt"
	"spartab/pkg/redis"
)

// tokenCommand 访问令牌的签发与吊销，供联调与运维脚本使用
func tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "访问令牌管理",
	}
	cmd.AddCommand(tokenIssueCommand(), tokenRevokeCommand())
	return cmd
}

func tokenIssueCommand() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "issue <user-id>",
		Short: "用共享密钥签发访问令牌",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != jwt.RoleAdmin && role != jwt.RoleMember {
				return fmt.Errorf("角色无效: %s", role)
			}
			a := fromContext(cmd.Context())
			token, err := jwt.NewManager(&a.cfg.Auth).Issue(args[0], role)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&role, "role", jwt.RoleMember, "角色: admin / member")
	return cmd
}

func tokenRevokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <token>",
		Short: "吊销访问令牌，直至其自然过期",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			if a.cfg.Redis.Addr == "" {
				return errors.New("未配置 redis.addr，无法吊销令牌")
			}
			rdb, err := redis.NewClient(&a.cfg.Redis, a.logger)
			if err != nil {
				return err
			}
			defer rdb.Close()

			jti, err := revokeToken(cmd.Context(), jwt.NewManager(&a.cfg.Auth), rdb, args[0], time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "已吊销 %s\n", jti)
			return err
		},
	}
}

type revoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// revokeToken 校验令牌后按剩余有效期写入吊销名单，返回令牌 ID
func revokeToken(ctx context.Context, mgr *jwt.Manager, store revoker, token string, now time.Time) (string, error) {
	claims, err := mgr.ParseToken(token)
	if err != nil {
		return "", fmt.Errorf("令牌无效: %w", err)
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return "", errors.New("令牌缺少 jti 或过期时间")
	}
	if err := store.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Sub(now)); err != nil {
		return "", fmt.Errorf("写入吊销名单失败: %w", err)
	}
	return claims.ID, nil
}
