package config

import (
	"errors"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// devSessionSecret 仅用于本地开发，DEV_MODE=false 时必须显式配置 SESSION_SECRET
const devSessionSecret = "podcastr-dev-secret"

// Config stores the application configuration.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	DevMode  bool   `env:"DEV_MODE" envDefault:"true"`

	// 剧集 REST API
	EpisodesAPIURL     string        `env:"EPISODES_API_URL" envDefault:"http://localhost:3333"`
	EpisodesAPITimeout time.Duration `env:"EPISODES_API_TIMEOUT" envDefault:"10s"`
	EpisodesLimit      int           `env:"EPISODES_LIMIT" envDefault:"12"`
	ListRevalidate     time.Duration `env:"LIST_REVALIDATE" envDefault:"8h"`
	EpisodeRevalidate  time.Duration `env:"EPISODE_REVALIDATE" envDefault:"24h"`

	// Redis配置，REDIS_HOST 为空时不启用缓存
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// MinIO配置，MINIO_ENDPOINT 为空时使用内嵌静态资源
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"podcastr"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	MinioRegion    string `env:"MINIO_REGION" envDefault:"us-east-1"`

	SessionSecret  string        `env:"SESSION_SECRET"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"12h"`

	// TemplateDir 非空时从磁盘加载模板并监听变更（开发用）
	TemplateDir string `env:"TEMPLATE_DIR"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// RedisEnabled 是否配置了Redis
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// MinioEnabled 是否配置了MinIO
func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() (*Config, error) {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.SessionSecret == "" {
		if !cfg.DevMode {
			return nil, errors.New("SESSION_SECRET is required when DEV_MODE is false")
		}
		cfg.SessionSecret = devSessionSecret
	}
	if cfg.EpisodesLimit <= 0 {
		return nil, errors.New("EPISODES_LIMIT must be positive")
	}

	return cfg, nil
}
