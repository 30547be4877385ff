package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port      int    `mapstructure:"port"`
		StaticDir string `mapstructure:"static_dir"`
	} `mapstructure:"server"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Room struct {
		Capacity int `mapstructure:"capacity"`
	} `mapstructure:"room"`
	Signaling struct {
		TTL        time.Duration `mapstructure:"ttl"`
		PersistICE bool          `mapstructure:"persist_ice"`
	} `mapstructure:"signaling"`
	Session struct {
		// never | immediate | delayed
		CleanupOnDisconnect string `mapstructure:"cleanup_on_disconnect"`
	} `mapstructure:"session"`
}

func Load() (Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.static_dir", "./static")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("room.capacity", 2)
	viper.SetDefault("signaling.ttl", 5*time.Minute)
	viper.SetDefault("signaling.persist_ice", false)
	viper.SetDefault("session.cleanup_on_disconnect", "never")

	var c Config
	if err := viper.ReadInConfig(); err != nil {
		// Defaults carry a local run; only a malformed file is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}
	if err := viper.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
