package device

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// LocalConfig configures the real hardware backend.
type LocalConfig struct {
	SampleRate    int
	Channels      int
	Amplification float32
	FFmpegPath    string
	CameraPaths   []string
}

// DefaultLocalConfig returns the capture defaults.
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		SampleRate:    44100,
		Channels:      1,
		Amplification: 1.0,
	}
}

// LocalDevices serves microphone streams through PortAudio and camera
// streams through ffmpeg. It owns the PortAudio runtime; Close must be
// called when the backend is no longer needed.
type LocalDevices struct {
	cfg    *LocalConfig
	camera *Camera
	camErr error
}

// NewLocalDevices initializes PortAudio and enumerates cameras. A missing
// camera backend is not fatal here; video requests will report it.
func NewLocalDevices(cfg *LocalConfig) (*LocalDevices, error) {
	if cfg == nil {
		cfg = DefaultLocalConfig()
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	d := &LocalDevices{cfg: cfg}
	d.camera, d.camErr = NewCamera(cfg.FFmpegPath, cfg.CameraPaths)
	return d, nil
}

// Camera exposes the camera backend for device listing. Nil when no
// camera backend is available.
func (d *LocalDevices) Camera() *Camera { return d.camera }

// RequestStream opens a microphone or camera stream per constraints.
func (d *LocalDevices) RequestStream(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Video {
		if d.camera == nil {
			return nil, fmt.Errorf("camera backend unavailable: %w", d.camErr)
		}
		return d.camera.Open(ctx, c.Facing)
	}
	return OpenMicrophone(d.cfg.SampleRate, d.cfg.Channels, d.cfg.Amplification)
}

// Close terminates the PortAudio runtime.
func (d *LocalDevices) Close() error {
	return portaudio.Terminate()
}
