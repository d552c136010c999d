package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int    `env:"REDIS_DB" envDefault:"0"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	FrontendOrigin string `env:"FRONTEND_ORIGIN" envDefault:"http://localhost:8080"`

	// War pacing delays are presentation-only; tests set them to zero.
	WarRevealDelay time.Duration `env:"WAR_REVEAL_DELAY" envDefault:"500ms"`
	WarStepDelay   time.Duration `env:"WAR_STEP_DELAY" envDefault:"1500ms"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
