// Package config loads client configuration from an optional YAML file with
// environment-specific defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of the client core.
type Config struct {
	LobbyURL          string        `mapstructure:"lobby_url"`
	RTCURL            string        `mapstructure:"rtc_url"`
	StateDir          string        `mapstructure:"state_dir"`
	STUNServers       []string      `mapstructure:"stun_servers"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	Debug             bool          `mapstructure:"debug"`
}

// Load reads config/config.<env>.yaml (env from ADMIRE_ENV, default "dev"),
// falling back to defaults when the file is absent.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("ADMIRE_ENV")
	if env == "" {
		env = "dev"
	}
	v.SetConfigFile(fmt.Sprintf("config/config.%s.yaml", env))
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("lobby_url", "wss://localhost:8443/lobby")
	v.SetDefault("rtc_url", "wss://localhost:8443/rtc")
	v.SetDefault("state_dir", defaultStateDir())
	v.SetDefault("stun_servers", []string{
		"stun:stun.l.google.com:19302",
		"stun:stun1.l.google.com:19302",
	})
	v.SetDefault("heartbeat_interval", "20s")
	v.SetDefault("debug", false)

	if err := v.ReadInConfig(); err == nil {
		fmt.Printf("loaded config: %s\n", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".admire"
	}
	return dir + "/admire"
}
