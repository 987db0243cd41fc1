package main

import (
	"log/slog"
	"os"

	"buildmarket/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional, the environment always wins
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", slog.Any("err", err))
	}

	app, err := app.NewApp()
	if err != nil {
		slog.Error("could not start app", slog.Any("err", err))
		os.Exit(1)
	}

	app.Run()
}
