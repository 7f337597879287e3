// Package state holds the single ControllerState aggregate shared by every
// subsystem in the supervisory loop. There are no package-level globals:
// the loop owns one *ControllerState and passes it by reference.
package state

import "sync"

// LightMode is the lighting state machine's top-level mode.
type LightMode string

const (
	Night          LightMode = "night"
	SunriseRamping LightMode = "sunrise_ramping"
	Daylight       LightMode = "daylight"
	SunsetRamping  LightMode = "sunset_ramping"
)

// CloudState is the cloud sub-machine's state, valid only while the
// lighting mode is Daylight.
type CloudState string

const (
	CloudNone        CloudState = "none"
	CloudDimming     CloudState = "dimming"
	CloudHolding     CloudState = "holding"
	CloudBrightening CloudState = "brightening"
)

// Polarity describes how a digital input's physical level maps to its
// logical "triggered" meaning. Runtime-configurable rather than a
// compile-time flag, since wiring polarity varies by installation.
type Polarity string

const (
	ActiveLow  Polarity = "active_low"
	ActiveHigh Polarity = "active_high"
)

// Triggered reports whether the given raw level should be read as
// logically asserted for this polarity.
func (p Polarity) Triggered(level bool) bool {
	if p == ActiveHigh {
		return level
	}
	return !level
}

// AtoState is the automatic top-off controller's persistent state.
type AtoState struct {
	Running        bool
	StartMs        uint64
	LastRunEndMs   uint64
	TimeoutAlarm   bool
	ReservoirAlarm bool
}

// HeaterState tracks commanded relay state for the two heater outlets.
type HeaterState struct {
	PrimaryOn bool
	// BackupOn is always commanded false in this design. The field exists
	// so the "always off" contract is explicit and observable. Reserved
	// for future use.
	BackupOn bool
}

// TempReadings holds the last valid sump/display temperatures plus
// staleness bookkeeping.
type TempReadings struct {
	SumpF           float64
	DisplayF        float64
	SumpStale       bool
	DisplayStale    bool
	LastDiffAlertMs uint64
}

// LightingState is the lighting state machine's persistent state.
type LightingState struct {
	Mode            LightMode
	RampStartMs     uint64
	RampStep        int
	ScheduleEnabled bool
	LightsPowered   bool

	Cloud              CloudState
	NextCloudMs        uint64
	CloudStartMs       uint64
	CloudDurationMs    uint64
	CloudDimSteps      int
	CloudBrightenSteps int
	LastCloudStepMs    uint64

	LastProcessedDay    int
	SunriseStartedToday bool
	SunsetStartedToday  bool
}

// ButtonState is per-button debounce/edge-classification state.
type ButtonState struct {
	LastReading  bool
	CurrentState bool
	LastChangeMs uint64
	PressedAtMs  uint64
}

// ControllerState is the process-wide aggregate. All subsystems read and
// write it cooperatively from the single supervisory-loop goroutine; the
// mutex exists so a Snapshot caller on another goroutine can take
// consistent read-only snapshots without racing the loop.
type ControllerState struct {
	mu sync.RWMutex

	EmergencyStop   bool
	AlarmSilenced   bool
	FeedModeActive  bool
	FeedModeUntilMs uint64
	PhotoModeActive bool
	ResetArmed      bool

	Ato      AtoState
	Heater   HeaterState
	Temp     TempReadings
	Lighting LightingState
	Buttons  map[string]*ButtonState
}

// New constructs a ControllerState with the boot-time defaults: off,
// schedule enabled, night mode, no alarms latched.
func New() *ControllerState {
	return &ControllerState{
		Lighting: LightingState{
			Mode:            Night,
			ScheduleEnabled: true,
			Cloud:           CloudNone,
		},
		Buttons: map[string]*ButtonState{
			"yellow": {},
			"blue":   {},
			"green":  {},
		},
	}
}

// Snapshot is a plain-data copy of ControllerState safe to serialize
// without holding the lock that guards the live aggregate.
type Snapshot struct {
	EmergencyStop   bool
	AlarmSilenced   bool
	FeedModeActive  bool
	PhotoModeActive bool
	Ato             AtoState
	Heater          HeaterState
	Temp            TempReadings
	Lighting        LightingState
}

// Snapshot safely copies the current state for read-only consumers (the
// audit CLI, telemetry, tests) outside the supervisory loop.
func (s *ControllerState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// SnapshotLocked copies the current state without taking the lock itself.
// Callers must already hold it via Lock -- the supervisory loop uses this
// at the end of a tick it is still holding the write lock for, since
// sync.RWMutex is not reentrant and Snapshot would otherwise deadlock.
func (s *ControllerState) SnapshotLocked() Snapshot {
	return s.snapshotLocked()
}

func (s *ControllerState) snapshotLocked() Snapshot {
	return Snapshot{
		EmergencyStop:   s.EmergencyStop,
		AlarmSilenced:   s.AlarmSilenced,
		FeedModeActive:  s.FeedModeActive,
		PhotoModeActive: s.PhotoModeActive,
		Ato:             s.Ato,
		Heater:          s.Heater,
		Temp:            s.Temp,
		Lighting:        s.Lighting,
	}
}

// Lock/Unlock expose the aggregate's mutex to the supervisory loop, which
// holds it for the duration of one tick so a Snapshot caller never
// observes a half-evaluated tick.
func (s *ControllerState) Lock()   { s.mu.Lock() }
func (s *ControllerState) Unlock() { s.mu.Unlock() }
