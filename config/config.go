package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppConfig struct {
	App struct {
		Name           string   `mapstructure:"NAME"`
		Port           string   `mapstructure:"PORT"`
		LogLevel       string   `mapstructure:"LOG_LEVEL"`
		AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`
	}

	DATABASE struct {
		Driver   string `mapstructure:"DRIVER"`
		Postgres struct {
			DSN string `mapstructure:"URL"`
		}
		SQLite struct {
			Path string `mapstructure:"PATH"`
		}
		Redis struct {
			Addr     string `mapstructure:"ADDR"`
			Password string `mapstructure:"PASSWORD"`
			DB       int    `mapstructure:"DB"`
		}
		Mongo struct {
			Url      string `mapstructure:"URL"`
			Database string `mapstructure:"DATABASE"`
		}
	}

	MESSAGES struct {
		Backend  string        `mapstructure:"BACKEND"`
		CacheTTL time.Duration `mapstructure:"CACHE_TTL"`
	}

	CHAT struct {
		DeliveryTimeout  time.Duration `mapstructure:"DELIVERY_TIMEOUT"`
		FanoutWorkers    int           `mapstructure:"FANOUT_WORKERS"`
		MaxConnections   int           `mapstructure:"MAX_CONNECTIONS"`
		ConnectionsPerIP int           `mapstructure:"CONNECTIONS_PER_IP"`
	}

	AUTH struct {
		PublicKeyPath  string `mapstructure:"PUBLIC_KEY_PATH"`
		PrivateKeyPath string `mapstructure:"PRIVATE_KEY_PATH"`
	}
}

var Conf *AppConfig

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP.NAME", "chat-core")
	v.SetDefault("APP.PORT", ":8080")
	v.SetDefault("APP.LOG_LEVEL", "info")
	v.SetDefault("APP.ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("DATABASE.DRIVER", "postgres")
	v.SetDefault("DATABASE.SQLITE.PATH", "chat.db")
	v.SetDefault("DATABASE.REDIS.DB", 0)
	v.SetDefault("DATABASE.MONGO.DATABASE", "chat_collection")

	v.SetDefault("MESSAGES.BACKEND", "sql")
	v.SetDefault("MESSAGES.CACHE_TTL", "10m")

	v.SetDefault("CHAT.DELIVERY_TIMEOUT", "2s")
	v.SetDefault("CHAT.FANOUT_WORKERS", 16)
	v.SetDefault("CHAT.MAX_CONNECTIONS", 10000)
	v.SetDefault("CHAT.CONNECTIONS_PER_IP", 20)

	v.SetDefault("AUTH.PUBLIC_KEY_PATH", "public.pem")
	v.SetDefault("AUTH.PRIVATE_KEY_PATH", "private.pem")
}

// Load reads the yaml file at path (or application.yaml in the working
// directory when path is empty) and overlays CHATAPP_* environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	if path == "" {
		v.SetConfigName("application")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("CHATAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

func LoadConfig() error {
	config, err := Load("")
	if err != nil {
		return err
	}

	Conf = config
	log.Info().Msg("configuration loaded...")
	return nil
}
