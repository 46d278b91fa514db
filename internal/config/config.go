package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	DBDSN   string `envconfig:"DB_DSN" default:"kitstore.db"`
	LogFile string `envconfig:"LOG_FILE" default:""`

	JWTSecret  string        `envconfig:"JWT_SECRET" default:"dev-only-secret"`
	AccessTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"24h"`

	AIBaseURL string        `envconfig:"AI_BASE_URL" default:"http://localhost:11434"`
	AIModel   string        `envconfig:"AI_MODEL" default:"llama2"`
	AITimeout time.Duration `envconfig:"AI_TIMEOUT" default:"10s"`
}

func Load() (Config, error) {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	log.Printf("[config] PORT=%s DB_DSN=%s AI_BASE_URL=%s AI_MODEL=%s ACCESS_TTL=%s REFRESH_TTL=%s",
		cfg.Port, cfg.DBDSN, cfg.AIBaseURL, cfg.AIModel, cfg.AccessTTL, cfg.RefreshTTL)
	return cfg, nil
}
