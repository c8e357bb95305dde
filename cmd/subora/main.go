package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/subora/internal/clock"
	"github.com/smallbiznis/subora/internal/config"
	"github.com/smallbiznis/subora/internal/migration"
	"github.com/smallbiznis/subora/internal/observability"
	"github.com/smallbiznis/subora/internal/server"
	"github.com/smallbiznis/subora/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
