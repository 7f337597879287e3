// Package shutdown is the graceful-exit path. This controller has no
// single "main power" relay to de-energize; instead it de-energizes
// every relay the actuator gateway knows about before the process
// exits, so a restart always begins from an all-off relay bank.
package shutdown

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/reeflink/aquarium-controller/internal/actuator"
)

// Shutdown de-energizes every relay and exits the process with status 0.
func Shutdown(gw *actuator.Gateway) {
	gw.AllOff()
	log.Info().Msg("all relays de-energized, shutting down")
	os.Exit(0)
}

// WithError logs the triggering error, then shuts down exactly as
// Shutdown does.
func WithError(gw *actuator.Gateway, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	Shutdown(gw)
}
