package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/vanillasomethin/ALIVE-Backend/internal/audit"
	"github.com/vanillasomethin/ALIVE-Backend/internal/clock"
	"github.com/vanillasomethin/ALIVE-Backend/internal/config"
	"github.com/vanillasomethin/ALIVE-Backend/internal/device"
	"github.com/vanillasomethin/ALIVE-Backend/internal/logger"
	"github.com/vanillasomethin/ALIVE-Backend/internal/migration"
	"github.com/vanillasomethin/ALIVE-Backend/internal/pairing"
	"github.com/vanillasomethin/ALIVE-Backend/internal/plan"
	"github.com/vanillasomethin/ALIVE-Backend/internal/proofofplay"
	"github.com/vanillasomethin/ALIVE-Backend/internal/seed"
	"github.com/vanillasomethin/ALIVE-Backend/internal/server"
	"github.com/vanillasomethin/ALIVE-Backend/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,

		audit.Module,
		device.Module,
		pairing.Module,
		proofofplay.Module,
		plan.Module,

		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if !cfg.IsProduction() {
				return seed.EnsureDemoCatalog(conn)
			}
			return nil
		}),
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNodeID)
}
