// Package geo resolves the machine's position for the location card.
package geo

import "context"

// Position is a point on the globe in decimal degrees.
type Position struct {
	Lat float64
	Lon float64
}

// Locator resolves the current position. Implementations block until the
// lookup completes or ctx is done.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}
