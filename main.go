package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/beka-birhanu/vinom-claim-maze/api"
	"github.com/beka-birhanu/vinom-claim-maze/config"
	"github.com/beka-birhanu/vinom-claim-maze/game"
	"github.com/beka-birhanu/vinom-claim-maze/journal"
	"github.com/beka-birhanu/vinom-claim-maze/service"
	"github.com/beka-birhanu/vinom-claim-maze/service/i"
	"github.com/beka-birhanu/vinom-claim-maze/transport/ws"
	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

// Global variables for dependencies
var (
	grpcConnListener   net.Listener
	grpcServer         *grpc.Server
	httpServer         *http.Server
	socketManager      *ws.SocketManager
	gameSessionManager i.GameSessionManager
	roundJournal       *journal.Writer
	rules              game.Rules
	appLogger          general_i.Logger
)

func newLogger(name, color string) general_i.Logger {
	l, err := logger.New(name, color, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating %s logger: %v", name, err))
		os.Exit(1)
	}
	return l
}

func initRules() {
	tuning, err := config.LoadTuning(config.Envs.TuningFile)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Loading tuning: %v", err))
		os.Exit(1)
	}
	rules = tuning.Rules()
	appLogger.Info(fmt.Sprintf("Rules loaded: %dx%d grid, claim %v, play %v",
		rules.GridSize, rules.GridSize, rules.Phases.ClaimDuration, rules.Phases.PlayDuration))
}

func initJournal() {
	if config.Envs.JournalDir == "" {
		appLogger.Warning("JOURNAL_DIR not set, rounds will not be journaled")
		return
	}
	if err := os.MkdirAll(config.Envs.JournalDir, 0o755); err != nil {
		appLogger.Error(fmt.Sprintf("Creating journal dir: %v", err))
		os.Exit(1)
	}
	roundJournal = journal.NewWriter(config.Envs.JournalDir, "rounds")
	appLogger.Info(fmt.Sprintf("Journaling rounds to %s", config.Envs.JournalDir))
}

func initSocketManager() {
	socketManager = ws.NewSocketManager(ws.Config{
		PublicAddr:   fmt.Sprintf("ws://%s:%d%s", config.Envs.HostIP, config.Envs.WSPort, ws.PlayPath),
		ReadLimit:    config.Envs.WSReadLimit,
		WriteTimeout: config.Envs.WSWriteTimeout,
		IntentRate:   rate.Limit(config.Envs.IntentRate),
		IntentBurst:  config.Envs.IntentBurst,
		Logger:       newLogger("WS-SOCKET", config.ColorBlue),
	})
	httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Envs.HostIP, config.Envs.WSPort),
		Handler:           socketManager.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	appLogger.Info("Websocket Socket Manager initialized")
}

func initGameSessionManager() {
	c := &service.Config{
		Socket:       socketManager,
		Rules:        rules,
		TickInterval: config.Envs.TickInterval,
		MaxPlayers:   config.Envs.MaxRoomPlayers,
		Rounds:       config.Envs.RoomRounds,
		Logger:       newLogger("GAME-MANAGER", config.ColorCyan),
	}
	if roundJournal != nil {
		c.Journal = roundJournal
	}
	manager, err := service.NewGameSessionManager(c)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating game session manager: %v", err))
		os.Exit(1)
	}
	gameSessionManager = manager
	appLogger.Info("Game Session Manager initialized")
}

func initSessionManagerController() {
	grpcServer = grpc.NewServer()
	err := api.RegisterNewGameSessionManager(grpcServer, gameSessionManager, newLogger("RPC", config.ColorPurple))
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating and Registering session manager controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Session controller initialized")
}

func main() {
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)
	initRules()
	initJournal()
	initSocketManager()
	initGameSessionManager()
	initSessionManagerController()

	defer func() {
		gameSessionManager.StopAll()
		socketManager.Stop()
		_ = httpServer.Close()
		if roundJournal != nil {
			if err := roundJournal.Close(); err != nil {
				appLogger.Error(fmt.Sprintf("Closing journal: %v", err))
			}
		}
	}()

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(fmt.Sprintf("Serving websockets: %v", err))
			os.Exit(1)
		}
	}()
	appLogger.Info(fmt.Sprintf("Serving websockets at: %s", httpServer.Addr))

	var err error
	addr := fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.GrpcPort)
	grpcConnListener, err = net.Listen("tcp", addr)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Listening tcp: %v", err))
		os.Exit(1)
	}
	defer func() {
		_ = grpcConnListener.Close()
	}()

	appLogger.Info(fmt.Sprintf("Serving gRPC at: %s", addr))

	if err := grpcServer.Serve(grpcConnListener); err != nil {
		appLogger.Error(fmt.Sprintf("Serving gRPC: %v", err))
		os.Exit(1)
	}
}
