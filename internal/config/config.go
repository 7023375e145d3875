package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rocketscienceinc/tictactoe-core/internal/entity"
)

const (
	LineCheckKeyed  = "keyed"
	LineCheckLegacy = "legacy"
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Players    Players `yaml:"players"`
	Rules      Rules   `yaml:"rules"`

	// AllowedOrigins lists browser origins accepted by the websocket server, empty means same origin only.
	AllowedOrigins []string `yaml:"allowed-origins" env:"ALLOWED_ORIGINS" env-separator:","`
}

type Players struct {
	One string `yaml:"one" env:"PLAYER_ONE" env-default:"Player One"`
	Two string `yaml:"two" env:"PLAYER_TWO" env-default:"Player Two"`
}

type Rules struct {
	LineCheck string `yaml:"line-check" env:"RULES_LINE_CHECK" env-default:"keyed"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// GetLineCheck maps the configured rule onto the board setting, anything unknown is keyed.
func (that *Rules) GetLineCheck() entity.LineCheck {
	if that.LineCheck == LineCheckLegacy {
		return entity.LineCheckLegacy
	}

	return entity.LineCheckKeyed
}
