// Package main is the entry point of the application
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/castlemate/chess-server/pkg/config"
	"github.com/castlemate/chess-server/pkg/events"
	"github.com/castlemate/chess-server/pkg/game"
	"github.com/castlemate/chess-server/pkg/lobby"
	"github.com/castlemate/chess-server/pkg/repository"
	"github.com/castlemate/chess-server/pkg/server"
)

// application encapsulates global dependencies
type application struct {
	Logger    *zap.Logger
	Config    *config.Config
	Publisher *events.Publisher
	Hub       *server.Hub
	Server    *http.Server

	StartTime time.Time
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	tcpAddr := flag.String("tcp-addr", ":5555", "framed TCP listen address")
	httpAddr := flag.String("http-addr", ":8080", "HTTP/websocket listen address")
	flag.Parse()

	// Initialize logger
	logger := initLogger(*debug)
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	cfg := &config.Config{
		Debug:    *debug,
		TCPAddr:  *tcpAddr,
		HTTPAddr: *httpAddr,
	}
	cfg.InitialTime, cfg.Increment = config.TimeControlFromEnv()

	// Initialize event publisher
	publisher := events.NewPublisher()

	// Initialize session repository and game manager
	repo := repository.NewInMemoryRepository(logger)
	manager := game.NewManager(repo, cfg.InitialTime, cfg.Increment, publisher, logger)

	lb := lobby.New(logger)
	hub := server.NewHub(lb, manager, publisher, logger)

	publisher.Subscribe(events.EventGameStarted, func(event events.Event) {
		logger.Info("game started", zap.String("game_id", event.GameID))
	})
	publisher.Subscribe(events.EventGameEnded, func(event events.Event) {
		logger.Info("game ended", zap.String("game_id", event.GameID))
	})

	app := &application{
		Logger:    logger,
		Config:    cfg,
		Publisher: publisher,
		Hub:       hub,
		StartTime: time.Now(),
	}

	if err := app.serve(); err != nil {
		logger.Fatal("error serving", zap.Error(err))
	}
}

func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	return logger
}
