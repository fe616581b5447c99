package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/comparepco/rentalcore/internal/clock"
	"github.com/comparepco/rentalcore/internal/config"
	"github.com/comparepco/rentalcore/internal/migration"
	"github.com/comparepco/rentalcore/internal/observability"
	"github.com/comparepco/rentalcore/internal/server"
	"github.com/comparepco/rentalcore/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
