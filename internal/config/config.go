package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"mathquest"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:5000"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Runtime     Runtime
	Leaderboard Leaderboard
	AI          AI
	Cache       Cache
	CORS        CORS
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders the keyword/value connection string understood by pgx.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds cache + leaderboard configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Runtime groups request handling defaults.
type Runtime struct {
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	DefaultUserID  int64         `env:"DEFAULT_USER_ID" envDefault:"1"`
}

// Leaderboard governs snapshotting and retention of XP windows.
type Leaderboard struct {
	SnapshotInterval time.Duration `env:"LEADERBOARD_SNAPSHOT_INTERVAL" envDefault:"5m"`
	SnapshotTopN     int           `env:"LEADERBOARD_SNAPSHOT_TOP" envDefault:"50"`
	DailyTTL         time.Duration `env:"LEADERBOARD_DAILY_TTL" envDefault:"48h"`
	WeeklyTTL        time.Duration `env:"LEADERBOARD_WEEKLY_TTL" envDefault:"336h"`
}

// AI configures the hint generator. An empty key disables model calls and
// every hint falls back to a canned message.
type AI struct {
	OpenAIKey   string        `env:"OPENAI_API_KEY" envDefault:""`
	Model       string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	BaseURL     string        `env:"OPENAI_BASE_URL" envDefault:""`
	HTTPTimeout time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"6s"`
	MaxTokens   int           `env:"AI_MAX_TOKENS" envDefault:"150"`
	Temperature float32       `env:"AI_TEMPERATURE" envDefault:"0.7"`
}

// Cache controls lesson content caching in Redis.
type Cache struct {
	LessonTTL time.Duration `env:"LESSON_CACHE_TTL" envDefault:"10m"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization,X-User-ID,UserID"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadPostgres parses only the database settings, for tools that do not need
// the rest of the application config.
func LoadPostgres() (Postgres, error) {
	var cfg Postgres
	if err := env.ParseWithOptions(&cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return Postgres{}, fmt.Errorf("parse postgres config: %w", err)
	}
	return cfg, nil
}

// LoadRedis parses only the Redis settings.
func LoadRedis() (Redis, error) {
	var cfg Redis
	if err := env.ParseWithOptions(&cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return Redis{}, fmt.Errorf("parse redis config: %w", err)
	}
	return cfg, nil
}
