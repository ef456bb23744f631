package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Storage struct {
		// Driver is one of memory, postgres, mongo.
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Quiz struct {
		TTL             string `yaml:"ttl"`
		StrictAuthoring bool   `yaml:"strict_authoring"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	RateLimit struct {
		Requests int    `yaml:"requests"`
		Window   string `yaml:"window"`
	} `yaml:"rate_limit"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Attempts struct {
		StrictScoring       bool `yaml:"strict_scoring"`
		EnforceDeadline     bool `yaml:"enforce_deadline"`
		EmptyParticipantsOK bool `yaml:"empty_participants_ok"`
	} `yaml:"attempts"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "5000"
	cfg.Server.Mode = "release"
	cfg.Log.Level = "info"
	cfg.Storage.Driver = "memory"
	cfg.Mongo.Database = "quizapp"
	cfg.Quiz.TTL = "10m"
	cfg.Auth.TokenTTL = "60m"
	cfg.RateLimit.Requests = 100
	cfg.RateLimit.Window = "1s"
	cfg.AMQP.Exchange = "quiz.events"
	return cfg
}

// Load reads YAML config from path over the defaults, then applies env overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case !os.IsNotExist(err):
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Postgres.URL, "POSTGRES_URL")
	setString(&cfg.Mongo.URI, "MONGO_URI")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.AMQP.URL, "AMQP_URL")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Requests = n
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
