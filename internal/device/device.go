// Package device abstracts capture hardware behind capability interfaces.
// Controllers request streams through Devices and never touch a backend
// directly, so tests and demo mode can substitute stub implementations.
package device

import (
	"context"
	"errors"
	"image"
	"io"
)

// FacingMode selects the camera orientation.
type FacingMode string

const (
	FacingFront FacingMode = "front"
	FacingRear  FacingMode = "rear"
)

// Opposite returns the other facing mode. An empty facing flips to rear,
// matching the convention that the default camera faces the user.
func (f FacingMode) Opposite() FacingMode {
	if f == FacingRear {
		return FacingFront
	}
	return FacingRear
}

// Constraints describe the stream a controller wants.
type Constraints struct {
	Audio  bool
	Video  bool
	Facing FacingMode // video only; empty lets the backend choose
}

// AudioOnly returns constraints for a microphone stream.
func AudioOnly() Constraints {
	return Constraints{Audio: true}
}

// VideoWithAudio returns constraints for a camera stream with the given
// facing preference.
func VideoWithAudio(facing FacingMode) Constraints {
	return Constraints{Audio: true, Video: true, Facing: facing}
}

// Errors shared by backends.
var (
	ErrAccessDenied = errors.New("device access denied")
	ErrNoDevice     = errors.New("no capture device available")
)

// Stream is an open capture session handle. Holding a stream keeps the
// underlying device claimed; StopAllTracks releases it. Releasing is
// mandatory before discarding the handle, on every exit path.
type Stream interface {
	// StopAllTracks releases the underlying device. Safe to call more
	// than once.
	StopAllTracks()
}

// AudioStream exposes the live signal of a microphone stream.
type AudioStream interface {
	Stream

	// SampleRate reports the capture rate in Hz.
	SampleRate() int

	// Samples copies the most recent n time-domain samples, newest last.
	// Fewer than n samples are returned while the window is still filling.
	Samples(n int) []float32

	// SetPCMSink directs raw capture data (16-bit little-endian mono PCM)
	// to w until the stream stops or the sink is replaced. A nil w
	// detaches the sink.
	SetPCMSink(w io.Writer)
}

// VideoStream exposes frames and capability data of a camera stream.
type VideoStream interface {
	Stream

	// Facing reports the orientation the stream was opened with.
	Facing() FacingMode

	// FacingModes reports the orientations the platform can supply.
	// Camera flip is offered only when this is non-empty.
	FacingModes() []FacingMode

	// Resolution reports the native frame size in pixels.
	Resolution() (width, height int)

	// Frame grabs the current video frame at native resolution.
	Frame(ctx context.Context) (image.Image, error)
}

// Devices hands out capture streams. A request resolves into either a
// stream grant or an error; denial is not retried here.
type Devices interface {
	RequestStream(ctx context.Context, c Constraints) (Stream, error)
}
