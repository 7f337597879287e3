// Package telemetry ships the controller's gauges to Datadog:
// sump/display temperature, ATO runtime, lighting ramp step, cloud
// progress, and the emergency-stop flag. A statsd connection failure
// downgrades the whole package to a no-op rather than blocking boot.
package telemetry

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/reeflink/aquarium-controller/internal/config"
	"github.com/reeflink/aquarium-controller/internal/state"
)

var dogstatsd *statsd.Client

// Init opens the statsd client. A connection failure is logged and
// telemetry becomes a no-op for the rest of the process; this
// controller's safety logic never depends on metrics delivery.
func Init(cfg config.Telemetry) {
	if !cfg.Enabled {
		return
	}
	client, err := statsd.New(cfg.StatsdAddr)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create dogstatsd client")
		return
	}
	client.Namespace = cfg.Namespace
	client.Tags = cfg.Tags
	dogstatsd = client

	log.Info().Str("addr", cfg.StatsdAddr).Str("namespace", cfg.Namespace).Msg("telemetry initialized")
}

func gauge(name string, value float64) {
	if dogstatsd == nil {
		return
	}
	if err := dogstatsd.Gauge(name, value, nil, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("failed to emit gauge metric")
	}
}

func gaugeBool(name string, v bool) {
	if v {
		gauge(name, 1)
	} else {
		gauge(name, 0)
	}
}

// Report emits one tick's worth of gauges from a state snapshot. nowMs
// is the tick's monotonic clock reading, used to turn AtoState.StartMs
// into an elapsed runtime. It is cheap to call unconditionally; gauge()
// is a no-op when telemetry is disabled or unreachable.
func Report(snap state.Snapshot, nowMs uint64) {
	gauge("aquarium.temp.sump_f", snap.Temp.SumpF)
	gauge("aquarium.temp.display_f", snap.Temp.DisplayF)
	gaugeBool("aquarium.heater.primary_on", snap.Heater.PrimaryOn)
	gaugeBool("aquarium.ato.running", snap.Ato.Running)
	gauge("aquarium.ato.runtime_ms", float64(atoRuntimeMs(snap, nowMs)))
	gaugeBool("aquarium.ato.timeout_alarm", snap.Ato.TimeoutAlarm)
	gaugeBool("aquarium.ato.reservoir_alarm", snap.Ato.ReservoirAlarm)
	gauge("aquarium.lighting.ramp_step", float64(snap.Lighting.RampStep))
	gauge("aquarium.lighting.cloud_dim_steps", float64(snap.Lighting.CloudDimSteps))
	gauge("aquarium.lighting.cloud_brighten_steps", float64(snap.Lighting.CloudBrightenSteps))
	gaugeBool("aquarium.emergency_stop", snap.EmergencyStop)
}

func atoRuntimeMs(snap state.Snapshot, nowMs uint64) uint64 {
	if !snap.Ato.Running || nowMs < snap.Ato.StartMs {
		return 0
	}
	return nowMs - snap.Ato.StartMs
}
