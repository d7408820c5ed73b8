// Command matchserver runs the match-coordination server: it wires the
// actor system, the TCP session listener, the optional visualizer bridge,
// and the metrics endpoint, then blocks until a shutdown signal arrives.
// Grounded on the teacher's cmd/game/main.go wiring shape.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	protoactor "github.com/asynkron/protoactor-go/actor"

	internalActor "github.com/rlbot-go/matchserver/internal/actor"
	"github.com/rlbot-go/matchserver/internal/arena"
	"github.com/rlbot-go/matchserver/internal/configs"
	"github.com/rlbot-go/matchserver/internal/metrics"
	"github.com/rlbot-go/matchserver/internal/network"
	"github.com/rlbot-go/matchserver/internal/utils"
	"github.com/rlbot-go/matchserver/internal/visualizer"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 on clean shutdown, non-zero on a
// fatal I/O error (spec §6's CLI surface).
func run() int {
	rlbotPort := flag.Int("rlbot-port", 23234, "TCP port bots connect to")
	configPath := flag.String("config", "config.json", "operational config file path")

	rlviserCmd := flag.NewFlagSet("rlviser", flag.ExitOnError)
	rlviserPath := rlviserCmd.String("rlviser-path", "rlviser", "path to the external visualizer binary")
	rlviserPort := rlviserCmd.Int("rlviser-port", 34255, "visualizer UDP listen port")
	_ = rlviserCmd.Int("rocketsim-port", 34256, "reserved for a native physics bridge; unused by the stub arena")

	subcommand := "headless"
	flagArgs := os.Args[1:]
	if len(os.Args) > 1 && (os.Args[1] == "rlviser" || os.Args[1] == "headless") {
		subcommand = os.Args[1]
		flagArgs = os.Args[2:]
	}
	if subcommand == "rlviser" {
		if err := rlviserCmd.Parse(flagArgs); err != nil {
			return 1
		}
	} else if err := flag.CommandLine.Parse(flagArgs); err != nil {
		return 1
	}

	configs.CreateExampleConfigFile(*configPath)
	cfg, err := configs.LoadConfig(*configPath)
	if err != nil {
		utils.LogErrorf("Failed to load configuration: %v", err)
		return 1
	}
	if *rlbotPort != 0 {
		cfg.Server.TCPPort = *rlbotPort
	}
	utils.SetLogLevel(cfg.Server.LogLevel)

	utils.LogInfof("Starting match server: mode=%s tcp_port=%d", subcommand, cfg.Server.TCPPort)

	go metrics.Serve(fmt.Sprintf(":%d", cfg.Server.MetricsPort))

	var bridge *visualizer.Bridge
	if subcommand == "rlviser" || cfg.Visualizer.Enabled {
		listenAddr := fmt.Sprintf(":%d", *rlviserPort)
		if subcommand != "rlviser" {
			listenAddr = fmt.Sprintf(":%d", cfg.Visualizer.ListenPort)
		}
		path := *rlviserPath
		if subcommand != "rlviser" {
			path = cfg.Visualizer.RlviserPath
		}
		b, err := visualizer.Dial(listenAddr, path)
		if err != nil {
			utils.LogWarnf("Visualizer bridge unavailable: %v", err)
		} else {
			bridge = b
			go bridge.Listen()
		}
	}

	actorSystem := protoactor.NewActorSystem()
	simProps := internalActor.PropsForSimulation(arena.NewStubFactory(), bridge)
	simPID := actorSystem.Root.SpawnNamed(simProps, "simulation")
	utils.LogInfof("SimulationActor spawned: %s", simPID.String())

	tcpServer := network.NewTCPServer(cfg.Server.TCPPort, actorSystem, simPID)
	if err := tcpServer.Start(); err != nil {
		utils.LogErrorf("Failed to start TCP server: %v", err)
		return 1
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.LogInfo("Shutting down match server...")
	tcpServer.Stop()
	if bridge != nil {
		_ = bridge.Close()
	}
	if err := actorSystem.Root.StopFuture(simPID).Wait(); err != nil {
		utils.LogWarnf("Error stopping SimulationActor: %v", err)
	}
	actorSystem.Shutdown()
	time.Sleep(200 * time.Millisecond)
	utils.LogInfo("Match server shut down gracefully.")
	return 0
}
