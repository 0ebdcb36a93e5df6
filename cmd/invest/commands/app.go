package commands

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rubenayla/invest/internal/dataset"
	"github.com/rubenayla/invest/internal/featureconfig"
	"github.com/rubenayla/invest/internal/store"
	"github.com/rubenayla/invest/pkg/config"
	"github.com/rubenayla/invest/pkg/database"
	"github.com/rubenayla/invest/pkg/logger"
	"github.com/rubenayla/invest/pkg/redis"
)

// app bundles the wired dependencies every command needs.
type app struct {
	cfg        *config.Config
	featureCfg *featureconfig.Config
	log        zerolog.Logger
	db         *database.DB
	store      *store.Store
	cache      *redis.Cache
	redis      *redis.Client
}

// initApp loads configuration and connects the shared infrastructure.
func initApp() (*app, error) {
	// 1. Load process config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load and validate the feature config
	featureCfg, err := loadFeatureConfig()
	if err != nil {
		return nil, fmt.Errorf("load feature config: %w", err)
	}
	if err := featureconfig.Validate(featureCfg); err != nil {
		return nil, fmt.Errorf("validate feature config: %w", err)
	}

	// 4. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 5. Connect to Redis (optional; disabled means no feature cache)
	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &app{
		cfg:        cfg,
		featureCfg: featureCfg,
		log:        log,
		db:         db,
		store:      store.New(db.Pool),
		cache:      redis.NewCache(redisClient, "invest"),
		redis:      redisClient,
	}, nil
}

// close releases the app's connections.
func (a *app) close() {
	a.redis.Close()
	a.db.Close()
}

// newDatasetBuilder wires the dataset pipeline over the app's store.
func (a *app) newDatasetBuilder() *dataset.Builder {
	return dataset.NewBuilder(a.store, a.featureCfg, a.cache, a.log)
}
