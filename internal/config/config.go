package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort               string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL            string `env:"DATABASE_URL,required"`
	SessionTTLHours        int    `env:"SESSION_TTL_HOURS" envDefault:"24"`
	SessionCleanupMinutes  int    `env:"SESSION_CLEANUP_MINUTES" envDefault:"60"`
	BcryptCost             int    `env:"BCRYPT_COST" envDefault:"12"`
	LoginRateWindowSeconds int    `env:"LOGIN_RATE_WINDOW_SECONDS" envDefault:"300"`
	LoginRateMax           int    `env:"LOGIN_RATE_MAX" envDefault:"10"`
	RedisAddr              string `env:"REDIS_ADDR"`
	RedisPassword          string `env:"REDIS_PASSWORD"`
	RedisDB                int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
