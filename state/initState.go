package state

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/config"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"
)

type JwtSecret struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

type AppState struct {
	Ctx       context.Context
	Cancel    context.CancelFunc
	DB        *gorm.DB
	Redis     *redis.Client
	Mongo     *mongo.Client
	JwtSecret *JwtSecret
}

func InitAppState(ctx context.Context, cancel context.CancelFunc) (*AppState, error) {
	conf := config.Conf
	appState := &AppState{Ctx: ctx, Cancel: cancel}

	var err error
	switch conf.DATABASE.Driver {
	case "sqlite":
		appState.DB, err = InitSQLite(conf.DATABASE.SQLite.Path)
	case "postgres", "":
		appState.DB, _, err = InitPostgres(conf.DATABASE.Postgres.DSN)
	default:
		err = fmt.Errorf("unsupported database driver %q", conf.DATABASE.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(appState.DB); err != nil {
		appState.Close()
		return nil, err
	}

	if conf.MESSAGES.Backend == "mongo" {
		appState.Mongo, err = InitMongo(ctx)
		if err != nil {
			appState.Close()
			return nil, err
		}
	}

	if conf.DATABASE.Redis.Addr != "" {
		appState.Redis, err = InitRedis(conf.DATABASE.Redis.Addr, conf.DATABASE.Redis.Password, conf.DATABASE.Redis.DB)
		if err != nil {
			appState.Close()
			return nil, err
		}
	} else {
		log.Warn().Msg("redis address is empty, using in-process pub/sub and no message cache")
	}

	appState.JwtSecret, err = InitSecret(conf.AUTH.PrivateKeyPath, conf.AUTH.PublicKeyPath)
	if err != nil {
		appState.Close()
		return nil, err
	}

	return appState, nil
}

func (a *AppState) Close() {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			log.Info().Msg("Closing SQL database connection...")
			sqlDB.Close()
		}
	}

	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		log.Info().Msg("Closing MongoDB client...")
		defer cancel()
		if err := a.Mongo.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("failed to disconnect MongoDB client")
		}
	}

	if a.Redis != nil {
		log.Info().Msg("Closing Redis client...")
		if err := a.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis client")
		}
	}
}
