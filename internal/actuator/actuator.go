// Package actuator is the single choke point for writing to the relay
// bank. No subsystem calls hwio.RelayBank directly; every commanded
// relay state passes through Gateway.Set, which enforces the
// emergency-stop mask over the heater and ATO pump outlets.
package actuator

import (
	"github.com/rs/zerolog/log"

	"github.com/reeflink/aquarium-controller/internal/hwio"
)

// maskedRelays are the outlets emergency-stop forces off regardless of
// what the owning subsystem requests.
var maskedRelays = map[hwio.RelayID]bool{
	hwio.HeaterPrimary: true,
	hwio.HeaterBackup:  true,
	hwio.AtoPump:       true,
}

// Gateway is the relay bank's only writer.
type Gateway struct {
	bank hwio.RelayBank
}

func New(bank hwio.RelayBank) *Gateway {
	return &Gateway{bank: bank}
}

// Set commands a relay. For the masked relays, emergencyStop being true
// forces the physical command to off even if the caller asked for on.
func (g *Gateway) Set(id hwio.RelayID, on bool, emergencyStop bool) error {
	commanded := on
	if emergencyStop && maskedRelays[id] {
		commanded = false
	}

	if err := g.bank.Set(id, commanded); err != nil {
		log.Error().Err(err).Str("relay", string(id)).Bool("requested", on).Msg("failed to set relay")
		return err
	}

	if commanded != on {
		log.Debug().Str("relay", string(id)).Msg("relay command masked by emergency stop")
	}
	return nil
}

// Get reports the relay's current logical state.
func (g *Gateway) Get(id hwio.RelayID) (bool, error) {
	return g.bank.Get(id)
}

// AllOff de-energizes every relay the gateway knows about. Used by the
// graceful-shutdown path.
func (g *Gateway) AllOff() {
	for _, id := range []hwio.RelayID{hwio.HeaterPrimary, hwio.HeaterBackup, hwio.AtoPump, hwio.GyreOutlet} {
		if err := g.bank.Set(id, false); err != nil {
			log.Error().Err(err).Str("relay", string(id)).Msg("failed to de-energize relay during shutdown")
		}
	}
}
