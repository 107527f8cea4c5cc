package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Draw     DrawConfig     `mapstructure:"draw"`
	Tab      TabConfig      `mapstructure:"tab"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	Mode         string     `mapstructure:"mode"` // gin 运行模式：debug / release / test
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`

	// 生成草稿的限流，需启用 Redis
	GenerateLimit  int           `mapstructure:"generate_limit"`
	GenerateWindow time.Duration `mapstructure:"generate_window"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig 数据库配置
// Driver 为 postgres 时使用连接参数；为 sqlite 时使用 Path（嵌入式部署与测试）
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 分钟
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 分钟
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// DSN 生成连接字符串
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// MigrateURL golang-migrate 使用的 PostgreSQL URL
func (c *DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// RedisConfig Redis 配置，Addr 为空时不启用（会话锁退化为进程内互斥）
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// AuthConfig 访问令牌校验配置，令牌由外部身份服务签发
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DrawConfig 排位求解参数
type DrawConfig struct {
	SolveTimeout  time.Duration `mapstructure:"solve_timeout"`
	MaxBenched    int           `mapstructure:"max_benched"`
	MaxPanelSize  int           `mapstructure:"max_panel_size"`
	ClashPenalty  float64       `mapstructure:"clash_penalty"`
	RepeatPenalty float64       `mapstructure:"repeat_penalty"`
	MaxPasses     int           `mapstructure:"max_passes"`
	ProposeRetry  int           `mapstructure:"propose_retry"`
}

// TabConfig 成绩汇总参数
type TabConfig struct {
	MinScore         int     `mapstructure:"min_score"`
	MaxScore         int     `mapstructure:"max_score"`
	RejectTiedTotals bool    `mapstructure:"reject_tied_totals"`
	PanelStrategy    string  `mapstructure:"panel_strategy"`
	BreakSize        int     `mapstructure:"break_size"`
	EloK             float64 `mapstructure:"elo_k"`
}

// MetricsConfig Prometheus 指标
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("SPAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.generate_limit", 10)
	v.SetDefault("server.generate_window", "1m")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.path", "spar.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "spar")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "30s")

	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("draw.solve_timeout", "10s")
	v.SetDefault("draw.max_benched", 1)
	v.SetDefault("draw.max_panel_size", 3)
	v.SetDefault("draw.clash_penalty", 1000.0)
	v.SetDefault("draw.repeat_penalty", 5.0)
	v.SetDefault("draw.max_passes", 50)
	v.SetDefault("draw.propose_retry", 3)

	v.SetDefault("tab.min_score", 50)
	v.SetDefault("tab.max_score", 100)
	v.SetDefault("tab.reject_tied_totals", false)
	v.SetDefault("tab.panel_strategy", "independent")
	v.SetDefault("tab.break_size", 4)
	v.SetDefault("tab.elo_k", 2.0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("配置校验失败: db.driver 仅支持 postgres 或 sqlite")
	}
	if c.Tab.MinScore > c.Tab.MaxScore {
		return fmt.Errorf("配置校验失败: tab.min_score 不能大于 tab.max_score")
	}
	switch c.Tab.PanelStrategy {
	case "independent", "chair", "latest":
	default:
		return fmt.Errorf("配置校验失败: tab.panel_strategy 取值无效: %s", c.Tab.PanelStrategy)
	}
	if c.Draw.MaxPanelSize < 1 {
		return fmt.Errorf("配置校验失败: draw.max_panel_size 至少为 1")
	}
	if c.Draw.MaxBenched < 0 {
		return fmt.Errorf("配置校验失败: draw.max_benched 不能为负数")
	}
	return nil
}
