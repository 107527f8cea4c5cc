package main

import (
	"github.com/spf13/cobra"
)

const masked = "******"

// configCommand 输出生效配置，敏感字段打码
func configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "输出生效配置",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *fromContext(cmd.Context()).cfg
			if cfg.Auth.JWTSecret != "" {
				cfg.Auth.JWTSecret = masked
			}
			if cfg.Database.Password != "" {
				cfg.Database.Password = masked
			}
			if cfg.Redis.Password != "" {
				cfg.Redis.Password = masked
			}
			return printYAML(cmd.OutOrStdout(), cfg)
		},
	}
}
