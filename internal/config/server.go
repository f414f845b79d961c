package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	ValkeyAddr  string `env:"VALKEY_ADDR" envDefault:"localhost:6379"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	// AdminKeyHash is the sha256 hex digest of the admin dashboard password.
	AdminKeyHash string `env:"ADMIN_KEY,required,notEmpty"`
	JWTSecret    string `env:"SECRET_KEY,required,notEmpty"`

	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	ChatModel     string `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
