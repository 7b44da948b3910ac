package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/suPer8Hu/pairhub/internal/config"
	"github.com/suPer8Hu/pairhub/internal/conversation"
	"github.com/suPer8Hu/pairhub/internal/db"
	"github.com/suPer8Hu/pairhub/internal/observe"
	"github.com/suPer8Hu/pairhub/internal/staging"
)

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Load(), nil
	}
	return config.LoadFile(configPath)
}

func newObserver(cfg config.Config, out io.Writer) *observe.Observer {
	v := verbose || cfg.LogVerbose
	if jsonLogs || cfg.LogJSON {
		return observe.NewJSON(out, v)
	}
	return observe.New(out, v)
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	return db.Connect(cfg.DBDriver, cfg.DBDSN)
}

// newStaging builds the configured staging backend. The returned func
// releases whatever it started.
func newStaging(ctx context.Context, cfg config.Config, obs *observe.Observer) (staging.Store, func(), error) {
	switch strings.ToLower(cfg.StagingBackend) {
	case "", "memory":
		mem := staging.NewMemoryStore(cfg.StagingTTL, cfg.StagingMaxEntries)
		j := staging.NewJanitor(mem, cfg.StagingSweepInterval, obs)
		j.Start(ctx)
		return mem, j.Stop, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return staging.NewRedisStore(rdb, cfg.StagingTTL), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported STAGING_BACKEND=%q", cfg.StagingBackend)
	}
}

func newService(gdb *gorm.DB, staged staging.Store, obs *observe.Observer) *conversation.Service {
	return conversation.NewService(
		conversation.NewPairStore(gdb, obs),
		conversation.NewSummaryStore(gdb, obs),
		staged,
		obs,
	)
}
