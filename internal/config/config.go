package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"

	"chillbox/internal/session"
)

type PomodoroConfig struct {
	WorkSeconds      int `mapstructure:"work_seconds"`
	ShortRestSeconds int `mapstructure:"short_rest_seconds"`
	LongRestSeconds  int `mapstructure:"long_rest_seconds"`
}

type Config struct {
	DatabasePath     string         `mapstructure:"database_path"`
	SocketPath       string         `mapstructure:"socket_path"`
	TickInterval     time.Duration  `mapstructure:"tick_interval"`
	SubscriberBuffer int            `mapstructure:"subscriber_buffer"`
	Pomodoro         PomodoroConfig `mapstructure:"pomodoro"`
}

const (
	DefaultSocketPath   = "/tmp/chillbox.sock"
	DefaultDatabasePath = "chillbox.db"
)

func LoadConfig(configPath string) (*Config, error) {
	return load(viper.New(), configPath)
}

func load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/chillbox")
		v.AddConfigPath("/etc/chillbox/")
	}

	v.SetEnvPrefix("CHILLBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("socket_path", DefaultSocketPath)
	v.SetDefault("tick_interval", session.DefaultTickInterval)
	v.SetDefault("subscriber_buffer", session.DefaultBuffer)
	v.SetDefault("pomodoro.work_seconds", 25*60)
	v.SetDefault("pomodoro.short_rest_seconds", 5*60)
	v.SetDefault("pomodoro.long_rest_seconds", 15*60)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Println("Config file not found, using defaults.")
		} else {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.TickInterval <= 0 {
		log.Printf("Warning: tick_interval %s is not positive, using %s", cfg.TickInterval, session.DefaultTickInterval)
		cfg.TickInterval = session.DefaultTickInterval
	}
	if cfg.SubscriberBuffer < 1 {
		log.Printf("Warning: subscriber_buffer %d too low, using %d", cfg.SubscriberBuffer, session.DefaultBuffer)
		cfg.SubscriberBuffer = session.DefaultBuffer
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath
	}

	log.Printf("Configuration loaded: %+v", cfg)
	return &cfg, nil
}

// Durations converts the pomodoro section. Non-positive values are left for
// session.New to reject.
func (p PomodoroConfig) Durations() session.Durations {
	return session.Durations{
		Work:      time.Duration(p.WorkSeconds) * time.Second,
		ShortRest: time.Duration(p.ShortRestSeconds) * time.Second,
		LongRest:  time.Duration(p.LongRestSeconds) * time.Second,
	}
}

// EngineOptions maps the runtime knobs onto session.Options.
func (c *Config) EngineOptions() session.Options {
	return session.Options{
		TickInterval: c.TickInterval,
		Buffer:       c.SubscriberBuffer,
	}
}
