// Package config 验证器的运行配置
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ejb-verifier/pkg/validator"
)

// EnvPrefix 环境变量前缀，如 EJBVERIFY_STORE_DSN
const EnvPrefix = "EJBVERIFY"

// ============================================================================
// 配置定义
// ============================================================================

// Config 全部配置
type Config struct {
	Log      LogConfig      `mapstructure:"log" json:"log"`
	Verifier VerifierConfig `mapstructure:"verifier" json:"verifier"`
	Store    StoreConfig    `mapstructure:"store" json:"store"`
	Cache    CacheConfig    `mapstructure:"cache" json:"cache"`
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Watch    WatchConfig    `mapstructure:"watch" json:"watch"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别：debug / info / warn / error
	// 默认值：info
	Level string `mapstructure:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`

	// Format 输出格式：json / console
	// 默认值：console
	Format string `mapstructure:"format" json:"format" validate:"omitempty,oneof=json console"`

	// File 日志文件路径，为空时输出到 stderr
	// 设置后按 MaxSizeMB 滚动
	File string `mapstructure:"file" json:"file"`

	MaxSizeMB  int  `mapstructure:"max_size_mb" json:"max_size_mb" validate:"gte=0"`
	MaxBackups int  `mapstructure:"max_backups" json:"max_backups" validate:"gte=0"`
	MaxAgeDays int  `mapstructure:"max_age_days" json:"max_age_days" validate:"gte=0"`
	Compress   bool `mapstructure:"compress" json:"compress"`
}

// VerifierConfig 验证选项
type VerifierConfig struct {
	// Version 强制使用的 EJB 版本（1.1 / 2.0 / 2.1），为空时取描述符中的版本
	Version string `mapstructure:"version" json:"version" validate:"omitempty,oneof=1.1 2.0 2.1"`

	// StrictPrimaryKey 1.1 实体主键缺少 equals/hashCode 时报告违规而不是只记日志
	StrictPrimaryKey bool `mapstructure:"strict_primary_key" json:"strict_primary_key"`

	// SymbolTables 额外的 YAML 符号表（描述部署单元依赖、但不在 classpath 上的类型）
	SymbolTables []string `mapstructure:"symbol_tables" json:"symbol_tables" validate:"dive,required"`

	// Classpath 额外的 jar 或目录，位于部署单元之前
	Classpath []string `mapstructure:"classpath" json:"classpath" validate:"dive,required"`
}

// StoreConfig 报告存储
type StoreConfig struct {
	// Driver 为空时不保存报告
	Driver string `mapstructure:"driver" json:"driver" validate:"omitempty,oneof=sqlite mysql postgres"`
	DSN    string `mapstructure:"dsn" json:"dsn" validate:"required_with=Driver"`
}

// Enabled 是否配置了存储
func (c StoreConfig) Enabled() bool { return c.Driver != "" }

// CacheConfig 报告缓存
type CacheConfig struct {
	// RedisAddr 为空时使用进程内缓存
	RedisAddr string        `mapstructure:"redis_addr" json:"redis_addr" validate:"omitempty,hostname_port"`
	Password  string        `mapstructure:"password" json:"-"`
	DB        int           `mapstructure:"db" json:"db" validate:"gte=0,lte=15"`
	TTL       time.Duration `mapstructure:"ttl" json:"ttl" validate:"gte=0"`
}

// ServerConfig HTTP 服务
type ServerConfig struct {
	Addr string `mapstructure:"addr" json:"addr" validate:"required"`

	// JWTSecret 非空时要求 HS256 Bearer Token
	JWTSecret string `mapstructure:"jwt_secret" json:"-"`

	// MaxUploadMB 上传的部署单元大小上限
	// 默认值：64
	MaxUploadMB int64 `mapstructure:"max_upload_mb" json:"max_upload_mb" validate:"gt=0"`
}

// WatchConfig 热部署目录
type WatchConfig struct {
	Dir string `mapstructure:"dir" json:"dir"`

	// Debounce 同一文件连续写入的合并窗口
	// 默认值：300ms
	Debounce time.Duration `mapstructure:"debounce" json:"debounce" validate:"gte=0"`
}

// ============================================================================
// 默认值与验证
// ============================================================================

// Default 返回带默认值的配置
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults 为未设置的字段填充默认值
func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 64
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 300 * time.Millisecond
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := validator.Check(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ErrInvalidConfig 配置无效
var ErrInvalidConfig = errors.New("invalid configuration")

// ============================================================================
// 加载
// ============================================================================

// Load 读取配置：默认值 < 配置文件 < EJBVERIFY_ 环境变量
// path 为空时只使用默认值与环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// bindDefaults 注册全部键，AutomaticEnv 只覆盖 viper 已知的键
func bindDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", 0)
	v.SetDefault("log.max_age_days", 0)
	v.SetDefault("log.compress", false)

	v.SetDefault("verifier.version", "")
	v.SetDefault("verifier.strict_primary_key", false)
	_ = v.BindEnv("verifier.symbol_tables")
	_ = v.BindEnv("verifier.classpath")

	v.SetDefault("store.driver", "")
	v.SetDefault("store.dsn", "")

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "0s")

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)

	v.SetDefault("watch.dir", "")
	v.SetDefault("watch.debounce", d.Watch.Debounce.String())
}
