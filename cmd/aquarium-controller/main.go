// Command aquarium-controller is the controller's entry point: it loads
// configuration, wires the concrete hardware collaborators, and runs the
// supervisory loop until a shutdown signal arrives.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reeflink/aquarium-controller/internal/boot"
	"github.com/reeflink/aquarium-controller/internal/clock"
	"github.com/reeflink/aquarium-controller/internal/config"
	"github.com/reeflink/aquarium-controller/internal/core"
	"github.com/reeflink/aquarium-controller/internal/eventlog"
	"github.com/reeflink/aquarium-controller/internal/logging"
	"github.com/reeflink/aquarium-controller/internal/telemetry"
	"github.com/reeflink/aquarium-controller/system/shutdown"
)

func main() {
	cfg := config.Load(os.Args[1:])
	logging.Init(cfg.LogLevel, cfg.LogHuman)

	log.Info().Str("config_file", cfg.ConfigFile).Msg("starting aquarium controller")

	telemetry.Init(cfg.Telemetry)

	elog, err := eventlog.Open(cfg.EventLogCapacity)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open event log")
	}
	defer elog.Close()

	hw, err := boot.Hardware(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open hardware collaborators")
	}

	clk := clock.NewReal(time.Now().UnixNano())
	ctrl := core.New(hw, boot.Polarities(cfg), clk, elog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ctrl.Run(ctx, time.Duration(cfg.TickInterval)*time.Millisecond)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutdown signal received")

	cancel()
	shutdown.Shutdown(ctrl.Gateway())
}
