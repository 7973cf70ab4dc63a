package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
	} `mapstructure:"auth"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Jaeger struct {
		Enabled      bool   `mapstructure:"enabled"`
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
	Search struct {
		SnapshotDriver string `mapstructure:"snapshot_driver"`
		SnapshotKey    string `mapstructure:"snapshot_key"`
		SQLitePath     string `mapstructure:"sqlite_path"`
		MaxLimit       int    `mapstructure:"max_limit"`
		DefaultLimit   int    `mapstructure:"default_limit"`
		RebuildCron    string `mapstructure:"rebuild_cron"`
		BackupCron     string `mapstructure:"backup_cron"`
	} `mapstructure:"search"`
}

const (
	SnapshotDriverRedis    = "redis"
	SnapshotDriverPostgres = "postgres"
	SnapshotDriverSQLite   = "sqlite"
)

// LoadConfig reads config.yaml from paths (default "."), then .env, then the
// process environment. Later sources win.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if err = godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("kafka.group_id", "search-indexer-group")
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("jaeger.otlp_endpoint", "localhost:4317")
	v.SetDefault("search.snapshot_driver", SnapshotDriverRedis)
	v.SetDefault("search.snapshot_key", "search:index")
	v.SetDefault("search.sqlite_path", "search_index.db")
	v.SetDefault("search.max_limit", 25)
	v.SetDefault("search.default_limit", 10)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	v.BindEnv("jaeger.enabled", "JAEGER_ENABLED")
	v.BindEnv("jaeger.otlp_endpoint", "JAEGER_OTLP_ENDPOINT")

	v.BindEnv("search.snapshot_driver", "SEARCH_SNAPSHOT_DRIVER")
	v.BindEnv("search.snapshot_key", "SEARCH_SNAPSHOT_KEY")
	v.BindEnv("search.sqlite_path", "SEARCH_SQLITE_PATH")
	v.BindEnv("search.max_limit", "SEARCH_MAX_LIMIT")
	v.BindEnv("search.default_limit", "SEARCH_DEFAULT_LIMIT")
	v.BindEnv("search.rebuild_cron", "SEARCH_REBUILD_CRON")
	v.BindEnv("search.backup_cron", "SEARCH_BACKUP_CRON")

	if err = v.Unmarshal(&cfg); err != nil {
		return
	}

	if cfg.Search.MaxLimit <= 0 || cfg.Search.MaxLimit > 25 {
		cfg.Search.MaxLimit = 25
	}
	if cfg.Search.DefaultLimit <= 0 || cfg.Search.DefaultLimit > cfg.Search.MaxLimit {
		cfg.Search.DefaultLimit = min(10, cfg.Search.MaxLimit)
	}
	return cfg, nil
}
