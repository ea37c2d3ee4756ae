package lights

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/example/aviary/internal/metrics"
	"github.com/example/aviary/internal/notify"
	"github.com/example/aviary/internal/schedule"
)

// State is the light switch state, threaded explicitly through Tick calls
// rather than held in package state.
type State int

const (
	StateUnknown State = iota
	StateOff
	StateOn
)

func (s State) String() string {
	switch s {
	case StateOn:
		return "on"
	case StateOff:
		return "off"
	default:
		return "unknown"
	}
}

// Switch commands understood by the sensor board.
const (
	cmdOn  = "1\n"
	cmdOff = "0\n"
)

// Controller decides the desired light state for a point in time and sends
// switch commands to the board when the state changes.
type Controller struct {
	transport io.Writer
	mode      schedule.Mode
	latitude  float64
	longitude float64
	location  *time.Location
	notifier  notify.Notifier
	logger    *log.Logger
}

// NewController wires a light controller. The location drives the sunrise and
// sunset computation for the stable-date and day-offset modes; manual
// override ignores it.
func NewController(transport io.Writer, mode schedule.Mode, latitude, longitude float64, location *time.Location, notifier notify.Notifier, logger *log.Logger) *Controller {
	return &Controller{
		transport: transport,
		mode:      mode,
		latitude:  latitude,
		longitude: longitude,
		location:  location,
		notifier:  notifier,
		logger:    logger,
	}
}

// Window returns today's on/off times for the given wall-clock time.
func (c *Controller) Window(now time.Time) (on, off time.Time) {
	local := now.In(c.location)
	if c.mode.Kind == schedule.ManualOverride {
		return c.mode.Sunrise.On(local), c.mode.Sunset.On(local)
	}

	// The ephemeris date may differ from today (stable date or day offset),
	// but only its time-of-day is taken; the window is anchored to today.
	date := c.mode.EphemerisDate(local)
	rise, set := sunrise.SunriseSunset(c.latitude, c.longitude, date.Year(), date.Month(), date.Day())
	rise, set = rise.In(c.location), set.In(c.location)
	onClock := schedule.ClockTime{Hour: rise.Hour(), Minute: rise.Minute()}
	offClock := schedule.ClockTime{Hour: set.Hour(), Minute: set.Minute()}
	return onClock.On(local), offClock.On(local)
}

// Desired computes whether the lights should be on at the given time.
// An off time earlier than the on time means the photoperiod wraps midnight.
func (c *Controller) Desired(now time.Time) State {
	on, off := c.Window(now)
	local := now.In(c.location)

	var lit bool
	if off.After(on) {
		lit = !local.Before(on) && local.Before(off)
	} else {
		lit = !local.Before(on) || local.Before(off)
	}
	if lit {
		return StateOn
	}
	return StateOff
}

// Tick compares the desired state against the previous one and switches the
// lights if they differ, returning the new state. A failed switch command is
// logged and the previous state returned, so the next tick retries it.
func (c *Controller) Tick(ctx context.Context, now time.Time, prev State) State {
	desired := c.Desired(now)
	if desired == prev {
		return prev
	}

	cmd := cmdOff
	if desired == StateOn {
		cmd = cmdOn
	}
	if _, err := io.WriteString(c.transport, cmd); err != nil {
		c.logger.Printf("Failed sending light switch command (%s): %v", desired, err)
		return prev
	}

	c.logger.Printf("Switched lights %s", desired)
	metrics.RecordLightSwitch(desired == StateOn)

	msg := fmt.Sprintf("Cage lights switched %s at %s", desired, now.In(c.location).Format("15:04:05"))
	if err := c.notifier.Notify(ctx, msg); err != nil {
		c.logger.Printf("Failed sending light switch notification: %v", err)
	}
	return desired
}
