package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/audit"
	"github.com/smallbiznis/collecta/internal/campaign"
	"github.com/smallbiznis/collecta/internal/clock"
	"github.com/smallbiznis/collecta/internal/config"
	"github.com/smallbiznis/collecta/internal/debtcase"
	"github.com/smallbiznis/collecta/internal/escalation"
	"github.com/smallbiznis/collecta/internal/events"
	"github.com/smallbiznis/collecta/internal/migration"
	"github.com/smallbiznis/collecta/internal/notification"
	"github.com/smallbiznis/collecta/internal/observability"
	"github.com/smallbiznis/collecta/internal/observability/logger"
	"github.com/smallbiznis/collecta/internal/paymentplan"
	"github.com/smallbiznis/collecta/internal/scheduler"
	"github.com/smallbiznis/collecta/internal/server"
	"github.com/smallbiznis/collecta/internal/voice"
	"github.com/smallbiznis/collecta/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		logger.Module,
		config.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		clock.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),
		fx.Provide(events.NewOutbox),
		audit.Module,
		debtcase.Module,
		campaign.Module,
		notification.Module,
		voice.Module,
		escalation.Module,
		paymentplan.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}
