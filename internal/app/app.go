package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"buildmarket/internal/config"
	"buildmarket/internal/controller"
	"buildmarket/internal/repository"
	"buildmarket/internal/router"
	"buildmarket/internal/service"
)

type App struct {
	repo       *repository.Repository
	service    *service.Service
	controller *controller.Controller
	stopSig    chan os.Signal
	cfg        *config.Config
	log        *slog.Logger

	Done chan struct{}
}

type option func(*App)

func WithConfig(cfg *config.Config) option {
	return func(app *App) {
		app.cfg = cfg
	}
}

func WithLogger(log *slog.Logger) option {
	return func(app *App) {
		app.log = log
	}
}

func NewApp(opts ...option) (*App, error) {
	var err error

	app := &App{
		stopSig: make(chan os.Signal, 2),
		Done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.cfg == nil {
		cfg, err := config.NewConfig()
		if err != nil {
			return nil, err
		}
		app.cfg = cfg
	}

	if app.log == nil {
		app.log = NewLogger(app.cfg.LogLevel)
	}

	app.repo, err = repository.NewRepository(nil, &app.cfg.PostgresConfig)
	if err != nil {
		return nil, err
	}

	app.service, err = service.NewService(app.repo, &app.cfg.ScoringConfig, app.log)
	if err != nil {
		app.repo.Close()
		return nil, err
	}
	app.controller = controller.NewController(app.service, app.log)

	return app, nil
}

// NewLogger builds a text logger on stdout. Unknown levels fall back to INFO.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN", "WARNING":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func (app *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		signal.Notify(app.stopSig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		sig := <-app.stopSig
		app.log.Info("received signal", slog.String("signal", sig.String()))
		cancel()
	}()

	server := http.Server{
		Addr:         app.cfg.ServerAddress,
		Handler:      router.NewRouter(app.controller),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			app.log.Error("http server error", slog.Any("err", err))
		}
	}()

	app.log.Info("server started, listening for connections", slog.String("address", app.cfg.ServerAddress))
	<-ctx.Done()

	timeout, tcancel := context.WithTimeout(context.Background(), time.Second*10)
	defer tcancel()
	app.log.Info("shutting down http server")
	server.Shutdown(timeout)

	app.log.Info("closing repository")
	err := app.repo.Close()
	if err != nil {
		app.log.Error("repository closing error", slog.Any("err", err))
	}

	close(app.Done)
	app.log.Info("exiting app")
}
