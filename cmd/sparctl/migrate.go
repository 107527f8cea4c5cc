package main

import (
	"github.com/spf13/cobra"

	"spartab/pkg/database"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "应用数据库结构（PostgreSQL 执行迁移文件，SQLite 同步模型）",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			if err := a.open(); err != nil {
				return err
			}
			return database.Migrate(a.db, a.logger)
		},
	}
}
