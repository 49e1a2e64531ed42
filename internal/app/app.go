// Package app wires the capture deck together.
package app

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"capdeck/config"
	"capdeck/internal/artifact"
	"capdeck/internal/controller"
	"capdeck/internal/device"
	"capdeck/internal/geo"
	"capdeck/internal/media"
)

// App owns the wired capture deck: the three controllers, the gallery
// and the notice queue.
type App struct {
	Config   *config.Config
	Log      *logrus.Logger
	Location *controller.LocationController
	Audio    *controller.AudioController
	Video    *controller.VideoController
	Gallery  *artifact.Gallery
	Notices  *Notices

	devices device.Devices
	closer  func() error
}

// New wires the application from configuration. Controllers come up in
// their fixed order: location, audio, video. Demo mode swaps the
// hardware backends for stubs.
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	gallery := artifact.NewGallery()
	notices := NewNotices()
	// Failure notices block the UI; only debug runs want that.
	var notify func(string)
	if cfg.Debug {
		notify = notices.Push
	}

	var locator geo.Locator
	if !cfg.GeolocationDisabled {
		locator = geo.NewHTTPLocator(cfg.GeolocationEndpoint)
	}
	location := controller.NewLocationController(locator, log)

	devices, audioRecorders, videoRecorders, closer, err := buildBackends(cfg, log)
	if err != nil {
		return nil, err
	}

	audio := controller.NewAudioController(controller.AudioConfig{
		Devices:       devices,
		Recorders:     audioRecorders,
		Gallery:       gallery,
		ChunkInterval: cfg.AudioChunkInterval,
		Log:           log,
		Notify:        notify,
	})

	video := controller.NewVideoController(controller.VideoConfig{
		Devices:       devices,
		Recorders:     videoRecorders,
		Gallery:       gallery,
		Facing:        device.FacingMode(cfg.Facing),
		ChunkInterval: cfg.VideoChunkInterval,
		DisplayWidth:  cfg.DisplayWidth,
		Log:           log,
		Notify:        notify,
	})

	log.Infof("Capture deck wired: demo=%v geolocation=%v", cfg.Demo, location.Available())
	return &App{
		Config:   cfg,
		Log:      log,
		Location: location,
		Audio:    audio,
		Video:    video,
		Gallery:  gallery,
		Notices:  notices,
		devices:  devices,
		closer:   closer,
	}, nil
}

// buildBackends selects the device and recorder backends for the
// configured mode.
func buildBackends(cfg *config.Config, log *logrus.Logger) (device.Devices, media.RecorderFactory, media.RecorderFactory, func() error, error) {
	if cfg.Demo {
		log.Info("Demo mode: using stub devices and recorders")
		devices := device.NewStubDevices(nil)
		recorders := media.NewStubRecorderFactory(&media.StubRecorderConfig{
			AutoChunk:    cfg.AudioChunkInterval,
			ChunkPayload: []byte("demo-chunk "),
			TailChunks:   [][]byte{[]byte("demo-tail")},
		})
		return devices, recorders, recorders, nil, nil
	}

	local, err := device.NewLocalDevices(&device.LocalConfig{
		SampleRate:    cfg.SampleRate,
		Channels:      1,
		Amplification: float32(cfg.Amplification),
		FFmpegPath:    cfg.FFmpegPath,
		CameraPaths:   cfg.CameraDevices,
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("device backend: %w", err)
	}
	return local, media.WAVFactory{}, media.FFmpegFactory{}, local.Close, nil
}

// Devices exposes the active device backend.
func (a *App) Devices() device.Devices {
	return a.devices
}

// Close releases the device backend.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}
