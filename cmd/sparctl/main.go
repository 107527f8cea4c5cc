package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"spartab/config"
	"spartab/internal/repository"
	"spartab/internal/service"
	"spartab/pkg/database"
	applogger "spartab/pkg/logger"
)

const programName = "sparctl"

var (
	globalFlags = struct {
		configFile string
		debug      bool
	}{}
)

// app 子命令共享的运行环境，按需初始化
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	svc    *service.Service
}

type appKey struct{}

func fromContext(ctx context.Context) *app {
	a, _ := ctx.Value(appKey{}).(*app)
	return a
}

// open 连接数据库并组装 Service，命令行场景下会话锁使用进程内互斥
func (a *app) open() error {
	if a.svc != nil {
		return nil
	}
	db, err := database.NewDB(&a.cfg.Database, a.logger)
	if err != nil {
		return err
	}
	a.db = db
	a.svc = service.NewService(a.cfg, repository.NewRepository(db), nil, nil, applogger.Component(a.logger, "service"))
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	a.logger.Sync()
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "练习赛排位与计分运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "输出调试日志")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalFlags.configFile)
		if err != nil {
			return err
		}
		if globalFlags.debug {
			cfg.Log.Level = "debug"
		}
		cfg.Log.Format = "console"
		logger, err := applogger.NewLogger(&cfg.Log)
		if err != nil {
			return err
		}
		if _, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf)); err != nil {
			logger.Warn("设置 GOMAXPROCS 失败", zap.Error(err))
		}
		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{cfg: cfg, logger: logger}))
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if a := fromContext(cmd.Context()); a != nil {
			a.close()
		}
	}

	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(drawCommand())
	rootCmd.AddCommand(tabCommand())
	rootCmd.AddCommand(ratingsCommand())
	rootCmd.AddCommand(tokenCommand())
	rootCmd.AddCommand(configCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
