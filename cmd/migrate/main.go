package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"

	"socialhub/internal/pkg/config"
	"socialhub/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

func main() {
	down := flag.Bool("down", false, "回滚全部迁移")
	force := flag.Int("force", -1, "将 dirty 版本强制标记为指定版本")
	flag.Parse()

	config.LoadConfig()
	if err := logger.Init(config.GlobalConfig.App.Env, config.GlobalConfig.App.Debug); err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.GlobalConfig.Database
	dsn := fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s",
		url.UserPassword(cfg.User, cfg.Password).String(), cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)

	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		logger.Log.Fatal("Failed to open migrations", zap.Error(err))
	}
	defer m.Close()

	if *force >= 0 {
		if err := m.Force(*force); err != nil {
			logger.Log.Fatal("Failed to force version", zap.Int("version", *force), zap.Error(err))
		}
		logger.Log.Info("Forced migration version", zap.Int("version", *force))
	}

	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}

	var dirty migrate.ErrDirty
	switch {
	case err == nil, errors.Is(err, migrate.ErrNoChange):
	case errors.As(err, &dirty):
		logger.Log.Fatal("Database is dirty, fix it and rerun with -force",
			zap.Int("version", dirty.Version))
	default:
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}

	version, isDirty, _ := m.Version()
	logger.Log.Info("Migration successful", zap.Uint("version", version), zap.Bool("dirty", isDirty))
}
