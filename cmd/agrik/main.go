package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type globals struct {
	Config string `short:"c" type:"path" help:"Path to agrik.yaml (defaults to the standard search paths)."`
}

type cli struct {
	globals

	Serve    serveCmd    `cmd:"" default:"1" help:"Serve the field dashboard."`
	Ask      askCmd      `cmd:"" help:"Send one prompt to the configured assistant and print the reply."`
	History  historyCmd  `cmd:"" help:"List recent assistant exchanges from the exchange log."`
	Fixtures fixturesCmd `cmd:"" help:"Print the demonstration field as a manifest."`
	Sensor   sensorCmd   `cmd:"" help:"Edit and check field manifests."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app cli
	kctx := kong.Parse(&app,
		kong.Name("agrik"),
		kong.Description("AgriK field dashboard: sensors, trends, and an assistant chat."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&app.globals)
	kctx.FatalIfErrorf(err)
}
