package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	Algorithm         string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type CORS struct {
	AllowedOrigins []string
}

type Upload struct {
	Dir               string
	MaxFileSize       int64
	AllowedExtensions []string
}

type MinIO struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Storage struct {
	Backend string // local | minio
	MinIO   MinIO
}

// AI 远程摘要服务；APIKey 为空时只用本地策略
type AI struct {
	APIKey      string
	Model       string
	BaseURL     string
	TimeoutSec  int
	CacheTTLMin int
}

type Limits struct {
	RPS               float64 // 每 IP
	Burst             int
	GlobalRPS         float64 // 全进程，0 不限
	GlobalBurst       int
	Concurrency       int64
	RequestTimeoutSec int
	MaxBodyBytes      int64
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	CORS    CORS
	Upload  Upload
	Storage Storage
	AI      AI
	Limits  Limits
}

// TokenTTL 访问令牌有效期
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenTTLMin) * time.Minute
}

func (c *Config) IsDev() bool { return c.App.Env == "" || c.App.Env == "dev" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "docmanager")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 5000)
	v.SetDefault("app.http.readtimeoutsec", 15)
	v.SetDefault("app.http.writetimeoutsec", 120)
	v.SetDefault("app.http.idletimeoutsec", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.maxsizemb", 100)
	v.SetDefault("log.file.maxbackups", 7)
	v.SetDefault("log.file.maxagedays", 30)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "docmanager")
	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.accesstokenttlmin", 30)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "host=localhost user=user password=password dbname=document_db port=5432 sslmode=disable")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cors.allowedorigins", []string{
		"http://localhost:3000",
		"http://localhost:5000",
		"http://localhost:8000",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5000",
		"http://127.0.0.1:8000",
	})

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.maxfilesize", 10<<20)
	v.SetDefault("upload.allowedextensions", []string{".pdf", ".docx", ".txt", ".doc"})

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.accesskey", "")
	v.SetDefault("storage.minio.secretkey", "")
	v.SetDefault("storage.minio.bucket", "documents")
	v.SetDefault("storage.minio.usessl", false)

	v.SetDefault("ai.apikey", "")
	v.SetDefault("ai.model", "gemini-1.5-pro")
	v.SetDefault("ai.baseurl", "https://generativelanguage.googleapis.com")
	v.SetDefault("ai.timeoutsec", 60)
	v.SetDefault("ai.cachettlmin", 60)

	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.globalrps", 0)
	v.SetDefault("limits.globalburst", 0)
	v.SetDefault("limits.concurrency", 300)
	v.SetDefault("limits.requesttimeoutsec", 120)
	v.SetDefault("limits.maxbodybytes", 16<<20)
}

// Load 读取 YAML（可选）+ APP_ 前缀环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Upload.AllowedExtensions = normalizeExts(c.Upload.AllowedExtensions)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var ErrMissingSecret = errors.New("jwt secret is required outside dev")

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		if !c.IsDev() {
			return ErrMissingSecret
		}
		c.JWT.Secret = "dev-insecure-secret"
	}
	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported jwt algorithm %q", c.JWT.Algorithm)
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return fmt.Errorf("jwt ttl must be positive, got %d", c.JWT.AccessTokenTTLMin)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload max file size must be positive")
	}
	switch c.Storage.Backend {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	return nil
}

// 统一成 ".pdf" 形式，环境变量里可写 "pdf,txt"
func normalizeExts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		for _, part := range strings.Split(e, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if !strings.HasPrefix(part, ".") {
				part = "." + part
			}
			out = append(out, part)
		}
	}
	return out
}
