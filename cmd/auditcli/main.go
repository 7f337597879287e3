// Command auditcli is a read-only diagnostic tool that dumps the
// controller's current state and recent events as JSON.
//
// The event log lives in-memory inside the running controller process,
// and the controller exposes no network or IPC surface to attach to.
// Instead this tool boots its own controller against the same config,
// runs it for a handful of ticks to let readings settle, and dumps the
// resulting snapshot and event log. Every run is a fresh, local,
// point-in-time diagnostic.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/reeflink/aquarium-controller/internal/boot"
	"github.com/reeflink/aquarium-controller/internal/clock"
	"github.com/reeflink/aquarium-controller/internal/config"
	"github.com/reeflink/aquarium-controller/internal/core"
	"github.com/reeflink/aquarium-controller/internal/eventlog"
)

type report struct {
	State  interface{}      `json:"state"`
	Events []eventlog.Event `json:"recent_events"`
}

func main() {
	fs := flag.NewFlagSet("auditcli", flag.ExitOnError)
	configFile := fs.String("config-file", "config.json", "Path to controller config file")
	ticks := fs.Int("ticks", 5, "Number of ticks to run before snapshotting")
	eventLimit := fs.Int("events", 50, "Max recent events to print")
	_ = fs.Parse(os.Args[1:])

	cfg := config.Load([]string{"-config-file", *configFile})

	elog, err := eventlog.Open(cfg.EventLogCapacity)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open event log:", err)
		os.Exit(1)
	}
	defer elog.Close()

	hw, err := boot.Hardware(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open hardware collaborators:", err)
		os.Exit(1)
	}

	clk := clock.NewReal(time.Now().UnixNano())
	ctrl := core.New(hw, boot.Polarities(cfg), clk, elog)

	for i := 0; i < *ticks; i++ {
		ctrl.Tick()
	}

	events, err := elog.Query("", *eventLimit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to query event log:", err)
		os.Exit(1)
	}

	out := report{
		State:  ctrl.State().Snapshot(),
		Events: events,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, "failed to encode report:", err)
		os.Exit(1)
	}
}
