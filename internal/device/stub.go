package device

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync"
)

// StubConfig configures the stub device backend.
type StubConfig struct {
	// DenyAudio and DenyVideo make the matching request fail with
	// ErrAccessDenied, simulating a refused permission prompt.
	DenyAudio bool
	DenyVideo bool
	// FacingModes is what stub video streams report as available
	// orientations. Nil means front and rear.
	FacingModes []FacingMode
	// Width and Height set the native resolution of stub video frames.
	Width, Height int
	// SampleRate for stub audio streams.
	SampleRate int
	// Tone is the frequency in Hz of the synthetic audio signal.
	Tone float64
}

// DefaultStubConfig returns sensible defaults for tests and demo mode.
func DefaultStubConfig() *StubConfig {
	return &StubConfig{
		FacingModes: []FacingMode{FacingFront, FacingRear},
		Width:       640,
		Height:      480,
		SampleRate:  44100,
		Tone:        440,
	}
}

// StubDevices is a deterministic in-memory backend. It tracks how many of
// its streams are currently open so tests can assert that every exit path
// releases the device.
type StubDevices struct {
	cfg *StubConfig

	mu   sync.Mutex
	open int
}

// NewStubDevices creates a stub backend. A nil config uses defaults.
func NewStubDevices(cfg *StubConfig) *StubDevices {
	if cfg == nil {
		cfg = DefaultStubConfig()
	}
	if cfg.FacingModes == nil {
		cfg.FacingModes = []FacingMode{FacingFront, FacingRear}
	}
	return &StubDevices{cfg: cfg}
}

// OpenStreams reports how many granted streams have not been released yet.
func (d *StubDevices) OpenStreams() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// RequestStream grants a synthetic stream or denies per configuration.
func (d *StubDevices) RequestStream(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Video {
		if d.cfg.DenyVideo {
			return nil, fmt.Errorf("camera: %w", ErrAccessDenied)
		}
		facing := c.Facing
		if facing == "" {
			facing = FacingFront
		}
		d.claim()
		return &StubVideoStream{owner: d, facing: facing}, nil
	}
	if d.cfg.DenyAudio {
		return nil, fmt.Errorf("microphone: %w", ErrAccessDenied)
	}
	d.claim()
	return &StubAudioStream{owner: d}, nil
}

func (d *StubDevices) claim() {
	d.mu.Lock()
	d.open++
	d.mu.Unlock()
}

func (d *StubDevices) release() {
	d.mu.Lock()
	d.open--
	d.mu.Unlock()
}

// StubAudioStream produces a steady synthetic tone.
type StubAudioStream struct {
	owner *StubDevices

	mu      sync.Mutex
	stopped bool
	phase   int
	sink    io.Writer
}

// StopAllTracks releases the stream. Repeat calls are no-ops.
func (s *StubAudioStream) StopAllTracks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.sink = nil
	s.owner.release()
}

// SampleRate reports the configured capture rate.
func (s *StubAudioStream) SampleRate() int { return s.owner.cfg.SampleRate }

// Samples returns n samples of the synthetic tone, advancing phase so
// consecutive windows are continuous.
func (s *StubAudioStream) Samples(n int) []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || n <= 0 {
		return nil
	}
	out := make([]float32, n)
	step := 2 * math.Pi * s.owner.cfg.Tone / float64(s.owner.cfg.SampleRate)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(float64(s.phase+i)*step))
	}
	s.phase += n
	return out
}

// SetPCMSink attaches w as the PCM receiver.
func (s *StubAudioStream) SetPCMSink(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.sink = w
}

// EmitPCM pushes synthetic capture data into the attached sink. Tests call
// this to simulate the device producing audio.
func (s *StubAudioStream) EmitPCM(b []byte) error {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink == nil {
		return nil
	}
	_, err := sink.Write(b)
	return err
}

// StubVideoStream produces deterministic gradient frames.
type StubVideoStream struct {
	owner  *StubDevices
	facing FacingMode

	mu      sync.Mutex
	stopped bool
	frames  int
}

// StopAllTracks releases the stream. Repeat calls are no-ops.
func (s *StubVideoStream) StopAllTracks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.owner.release()
}

// Facing reports the orientation the stream was opened with.
func (s *StubVideoStream) Facing() FacingMode { return s.facing }

// FacingModes reports the configured orientation options.
func (s *StubVideoStream) FacingModes() []FacingMode {
	modes := make([]FacingMode, len(s.owner.cfg.FacingModes))
	copy(modes, s.owner.cfg.FacingModes)
	return modes
}

// Resolution reports the configured native frame size.
func (s *StubVideoStream) Resolution() (int, int) {
	return s.owner.cfg.Width, s.owner.cfg.Height
}

// Frame renders a gradient test pattern at native resolution. The pattern
// shifts per call so successive photos differ.
func (s *StubVideoStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, ErrNoDevice
	}
	shift := s.frames * 16
	s.frames++
	s.mu.Unlock()

	w, h := s.owner.cfg.Width, s.owner.cfg.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x + shift) * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8(shift % 255),
				A: 255,
			})
		}
	}
	return img, nil
}
