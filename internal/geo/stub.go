package geo

import (
	"context"
	"time"
)

// StubLocator returns a fixed position after an optional delay.
type StubLocator struct {
	Position Position
	Err      error
	Delay    time.Duration
}

// NewStubLocator creates a locator that always reports pos.
func NewStubLocator(pos Position) *StubLocator {
	return &StubLocator{Position: pos}
}

// Locate waits out the configured delay, honouring cancellation, then
// returns the fixed result.
func (l *StubLocator) Locate(ctx context.Context) (Position, error) {
	if l.Delay > 0 {
		select {
		case <-time.After(l.Delay):
		case <-ctx.Done():
			return Position{}, ctx.Err()
		}
	}
	if l.Err != nil {
		return Position{}, l.Err
	}
	return l.Position, nil
}
