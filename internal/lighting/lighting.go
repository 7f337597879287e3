// Package lighting implements boot-time mode selection off the RTC, the
// sunrise/sunset ramp scheduler, and the stochastic cloud sub-machine,
// all driven through a single NEC IR emitter.
package lighting

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reeflink/aquarium-controller/internal/clock"
	"github.com/reeflink/aquarium-controller/internal/hwio"
	"github.com/reeflink/aquarium-controller/internal/state"
)

const (
	SunriseStartMin = 9*60 + 30
	SunriseEndMin   = 10 * 60
	SunsetStartMin  = 21*60 + 30
	SunsetEndMin    = 22 * 60

	RampSteps    = 20
	RampDuration = 1_800_000
	StepInterval = RampDuration / RampSteps // 90_000 ms

	CloudMinIntervalMs = 600_000
	CloudMaxIntervalMs = 1_800_000
	CloudMinDimSteps   = 3
	CloudMaxDimSteps   = 6
	CloudMinDurationMs = 20_000
	CloudMaxDurationMs = 60_000
	CloudFadeTimeMs    = 15_000

	// pulseSpacing is the pause between a ramp step's channel-3 pulse and
	// its channel-1 pulse; the 100ms post-send gap is owned by the
	// IREmitter.
	pulseSpacing = 150 * time.Millisecond
)

// Controller owns the lighting mode, ramp, and cloud state machines and
// is the sole caller of the IR emitter.
type Controller struct {
	ir  hwio.IREmitter
	rtc hwio.RTC
	clk clock.Clock
}

func New(ir hwio.IREmitter, rtc hwio.RTC, clk clock.Clock) *Controller {
	return &Controller{ir: ir, rtc: rtc, clk: clk}
}

func nowMinutes(dt hwio.DateTime) int { return dt.Hour*60 + dt.Minute }

// SelectBootMode computes the starting mode from the current RTC
// reading, so the fixture resumes in the mode the time of day implies
// instead of always booting into night mode.
func (c *Controller) SelectBootMode(st *state.ControllerState) {
	dt, err := c.rtc.Now()
	if err != nil {
		log.Error().Err(err).Msg("rtc read failed at boot, defaulting to night mode")
		c.setNightMode(st)
		return
	}
	st.Lighting.LastProcessedDay = dt.Day
	nowMin := nowMinutes(dt)
	// Thresholds already passed today count as crossed, so the first
	// scheduler tick does not replay a sunrise or sunset.
	st.Lighting.SunriseStartedToday = nowMin >= SunriseStartMin
	st.Lighting.SunsetStartedToday = nowMin >= SunsetStartMin

	switch {
	case nowMin >= SunriseEndMin && nowMin < SunsetStartMin:
		st.Lighting.Mode = state.Daylight
		c.lightsFullBright(st)
		st.Lighting.NextCloudMs = c.clk.NowMs() + uint64(c.clk.Uniform(CloudMinIntervalMs, CloudMaxIntervalMs))
	case nowMin >= SunriseStartMin && nowMin < SunriseEndMin:
		st.Lighting.Mode = state.SunriseRamping
		st.Lighting.RampStartMs = c.clk.NowMs()
		st.Lighting.RampStep = 0
		st.Lighting.SunriseStartedToday = true
	case nowMin >= SunsetStartMin && nowMin < SunsetEndMin:
		st.Lighting.Mode = state.SunsetRamping
		st.Lighting.RampStartMs = c.clk.NowMs()
		st.Lighting.RampStep = 0
		st.Lighting.SunsetStartedToday = true
	default:
		c.setNightMode(st)
	}
}

// HandleSchedule runs one tick of the per-mode scheduler. It performs
// the RTC-derived day rollover check itself before any transition.
func (c *Controller) HandleSchedule(st *state.ControllerState) {
	dt, err := c.rtc.Now()
	if err != nil {
		log.Error().Err(err).Msg("rtc read failed, lighting schedule skipped this tick")
		return
	}
	if dt.Day != st.Lighting.LastProcessedDay {
		st.Lighting.LastProcessedDay = dt.Day
		st.Lighting.SunriseStartedToday = false
		st.Lighting.SunsetStartedToday = false
	}
	if !st.Lighting.ScheduleEnabled {
		return
	}
	nowMin := nowMinutes(dt)

	switch st.Lighting.Mode {
	case state.Night:
		if nowMin >= SunriseStartMin && !st.Lighting.SunriseStartedToday {
			st.Lighting.Mode = state.SunriseRamping
			st.Lighting.RampStartMs = c.clk.NowMs()
			st.Lighting.RampStep = 0
			st.Lighting.SunriseStartedToday = true
		}
	case state.SunriseRamping:
		c.stepRamp(st, true)
		if nowMin >= SunriseEndMin {
			c.completeSunrise(st)
		}
	case state.Daylight:
		if nowMin >= SunsetStartMin && !st.Lighting.SunsetStartedToday {
			st.Lighting.Mode = state.SunsetRamping
			st.Lighting.RampStartMs = c.clk.NowMs()
			st.Lighting.RampStep = 0
			st.Lighting.SunsetStartedToday = true
		}
	case state.SunsetRamping:
		c.stepRamp(st, false)
		if nowMin >= SunsetEndMin {
			c.setNightMode(st)
		}
	}
}

// stepRamp advances the channel-3/channel-1 ramp one step per tick once
// the elapsed time entitles it to another, so the cumulative pulse count
// always equals RampStep. up=true sends "up" pulses (sunrise); up=false
// sends "down" pulses (sunset).
func (c *Controller) stepRamp(st *state.ControllerState, up bool) {
	targetStep := int((c.clk.NowMs() - st.Lighting.RampStartMs) / StepInterval)
	if targetStep <= st.Lighting.RampStep || targetStep > RampSteps {
		return
	}
	st.Lighting.RampStep++

	ch3 := hwio.IRCh3Up
	ch1 := hwio.IRCh1Up
	if !up {
		ch3 = hwio.IRCh3Down
		ch1 = hwio.IRCh1Down
	}
	c.send(ch3)
	time.Sleep(pulseSpacing)
	c.send(ch1)
}

func (c *Controller) completeSunrise(st *state.ControllerState) {
	c.lightsFullBright(st)
	st.Lighting.Mode = state.Daylight
	c.scheduleNextCloud(st)
}

func (c *Controller) scheduleNextCloud(st *state.ControllerState) {
	st.Lighting.Cloud = state.CloudNone
	st.Lighting.NextCloudMs = c.clk.NowMs() + uint64(c.clk.Uniform(CloudMinIntervalMs, CloudMaxIntervalMs))
}

// HandleClouds runs one tick of the cloud sub-machine. Cloud substates
// only exist while the mode is Daylight: leaving Daylight mid-cloud
// drops the sub-machine back to CloudNone.
func (c *Controller) HandleClouds(st *state.ControllerState) {
	if st.Lighting.Mode != state.Daylight {
		st.Lighting.Cloud = state.CloudNone
		return
	}
	now := c.clk.NowMs()

	switch st.Lighting.Cloud {
	case state.CloudNone:
		if now >= st.Lighting.NextCloudMs {
			c.startCloud(st)
		}
	case state.CloudDimming:
		st.Lighting.Cloud = state.CloudHolding
		st.Lighting.CloudStartMs = now
	case state.CloudHolding:
		if now-st.Lighting.CloudStartMs >= st.Lighting.CloudDurationMs {
			st.Lighting.Cloud = state.CloudBrightening
			st.Lighting.CloudBrightenSteps = 0
			st.Lighting.LastCloudStepMs = now
		}
	case state.CloudBrightening:
		c.stepBrighten(st)
	}
}

func (c *Controller) startCloud(st *state.ControllerState) {
	dimSteps := c.clk.Uniform(CloudMinDimSteps, CloudMaxDimSteps+1)
	duration := c.clk.Uniform(CloudMinDurationMs, CloudMaxDurationMs)

	st.Lighting.Cloud = state.CloudDimming
	st.Lighting.CloudDimSteps = dimSteps
	st.Lighting.CloudDurationMs = uint64(duration)

	// Both channels dim each step so the brighten phase, which raises
	// both channels per step, returns the fixture to its pre-cloud
	// baseline.
	for i := 0; i < dimSteps; i++ {
		c.send(hwio.IRCh1Down)
		c.send(hwio.IRCh3Down)
	}
}

// TriggerManualCloud accepts the operator's manual-cloud gesture, valid
// only while Daylight with no cloud already in progress.
func (c *Controller) TriggerManualCloud(st *state.ControllerState) bool {
	if st.Lighting.Mode != state.Daylight || st.Lighting.Cloud != state.CloudNone {
		return false
	}
	st.Lighting.NextCloudMs = c.clk.NowMs()
	c.HandleClouds(st)
	return true
}

func (c *Controller) stepBrighten(st *state.ControllerState) {
	if st.Lighting.CloudDimSteps == 0 {
		st.Lighting.Cloud = state.CloudNone
		c.scheduleNextCloud(st)
		return
	}
	interval := uint64(CloudFadeTimeMs) / uint64(st.Lighting.CloudDimSteps)
	now := c.clk.NowMs()
	if now-st.Lighting.LastCloudStepMs < interval {
		return
	}
	st.Lighting.LastCloudStepMs = now
	c.send(hwio.IRCh1Up)
	c.send(hwio.IRCh3Up)
	st.Lighting.CloudBrightenSteps++

	if st.Lighting.CloudBrightenSteps >= st.Lighting.CloudDimSteps {
		st.Lighting.Cloud = state.CloudNone
		c.scheduleNextCloud(st)
	}
}

func (c *Controller) setNightMode(st *state.ControllerState) {
	if !st.Lighting.LightsPowered {
		c.send(hwio.IRPower)
		st.Lighting.LightsPowered = true
	}
	c.send(hwio.IRNight)
	st.Lighting.Mode = state.Night
}

func (c *Controller) lightsFullBright(st *state.ControllerState) {
	if !st.Lighting.LightsPowered {
		c.send(hwio.IRPower)
		st.Lighting.LightsPowered = true
	}
	c.send(hwio.IRFullBright)
}

// ToggleLightsManual flips Night<->Daylight-full-bright, per the Blue
// short-press fallback gesture.
func (c *Controller) ToggleLightsManual(st *state.ControllerState) {
	if st.Lighting.Mode == state.Night {
		st.Lighting.Mode = state.Daylight
		c.lightsFullBright(st)
		c.scheduleNextCloud(st)
		return
	}
	c.setNightMode(st)
}

// LightsPhotoMode forces full-bright then dims channel 3 ten steps,
// per the Green short-press photo-mode gesture.
func (c *Controller) LightsPhotoMode(st *state.ControllerState) {
	c.lightsFullBright(st)
	for i := 0; i < 10; i++ {
		c.send(hwio.IRCh3Down)
	}
}

// LightsNormalMode restores full bright after photo mode.
func (c *Controller) LightsNormalMode(st *state.ControllerState) {
	c.lightsFullBright(st)
}

func (c *Controller) send(cmd hwio.IRCommand) {
	if err := c.ir.Send(cmd); err != nil {
		log.Error().Err(err).Uint8("cmd", uint8(cmd)).Msg("ir send failed")
	}
}
