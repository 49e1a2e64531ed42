package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"capdeck/internal/geo"
)

// Location status messages. The unavailable and failure texts are fixed;
// success interpolates the coordinates.
const (
	locationIdle        = "Press to get your position."
	locationLocating    = "Locating..."
	locationUnavailable = "Geolocation is not available on this system."
	locationFailed      = "Unable to retrieve your location."
)

// LocationController answers one-shot position requests. It has no
// state machine: a request either resolves into a status line or fails
// into one, and it can always be triggered again.
type LocationController struct {
	locator geo.Locator
	log     *logrus.Logger

	mu       sync.Mutex
	busy     bool
	status   string
	position *geo.Position
}

// NewLocationController creates the controller. A nil locator marks the
// capability as absent; every request then reports the fixed
// unavailable status. A nil log falls back to the standard logger.
func NewLocationController(locator geo.Locator, log *logrus.Logger) *LocationController {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LocationController{
		locator: locator,
		log:     log,
		status:  locationIdle,
	}
}

// Request resolves the current position and updates the status line.
// It blocks for the duration of the lookup, so the UI runs it off the
// event loop. A request while one is already running is ignored.
func (c *LocationController) Request(ctx context.Context) {
	c.mu.Lock()
	if c.locator == nil {
		c.status = locationUnavailable
		c.mu.Unlock()
		c.log.Info("Location requested but no locator is available")
		return
	}
	if c.busy {
		c.mu.Unlock()
		return
	}
	c.busy = true
	c.status = locationLocating
	c.mu.Unlock()

	pos, err := c.locator.Locate(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.status = locationFailed
		c.log.Warnf("Location lookup failed: %v", err)
		return
	}
	c.position = &pos
	c.status = fmt.Sprintf("Latitude: %v° Longitude: %v°", pos.Lat, pos.Lon)
	c.log.Infof("Location resolved: %.4f, %.4f", pos.Lat, pos.Lon)
}

// Status returns the current status line.
func (c *LocationController) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Busy reports whether a lookup is in flight.
func (c *LocationController) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Position returns the last resolved position, if any.
func (c *LocationController) Position() (geo.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.position == nil {
		return geo.Position{}, false
	}
	return *c.position, true
}

// Available reports whether the geolocation capability exists.
func (c *LocationController) Available() bool {
	return c.locator != nil
}
