package controller

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"capdeck/internal/artifact"
	"capdeck/internal/device"
	"capdeck/internal/media"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestAudio(devCfg *device.StubConfig, recCfg *media.StubRecorderConfig) (*AudioController, *device.StubDevices, *media.StubRecorderFactory, *artifact.Gallery) {
	devices := device.NewStubDevices(devCfg)
	recorders := media.NewStubRecorderFactory(recCfg)
	gallery := artifact.NewGallery()
	c := NewAudioController(AudioConfig{
		Devices:   devices,
		Recorders: recorders,
		Gallery:   gallery,
		Log:       testLogger(),
	})
	return c, devices, recorders, gallery
}

func TestAudioToggleAlternatesStates(t *testing.T) {
	c, devices, _, _ := newTestAudio(nil, nil)
	ctx := context.Background()

	if c.State() != StateStopped {
		t.Fatalf("expected initial state stopped, got %q", c.State())
	}

	for i := 0; i < 3; i++ {
		if err := c.Toggle(ctx); err != nil {
			t.Fatalf("toggle %d to recording failed: %v", i, err)
		}
		if c.State() != StateRecording {
			t.Fatalf("toggle %d: expected recording, got %q", i, c.State())
		}
		if devices.OpenStreams() != 1 {
			t.Fatalf("toggle %d: expected one open stream, got %d", i, devices.OpenStreams())
		}

		if err := c.Toggle(ctx); err != nil {
			t.Fatalf("toggle %d to stopped failed: %v", i, err)
		}
		if c.State() != StateStopped {
			t.Fatalf("toggle %d: expected stopped, got %q", i, c.State())
		}
		if devices.OpenStreams() != 0 {
			t.Fatalf("toggle %d: expected no open streams, got %d", i, devices.OpenStreams())
		}
	}
}

func TestAudioDeniedAccessIsTerminal(t *testing.T) {
	c, devices, _, _ := newTestAudio(&device.StubConfig{DenyAudio: true}, nil)
	ctx := context.Background()

	err := c.Toggle(ctx)
	if err == nil {
		t.Fatal("expected an error for denied access")
	}
	if !errors.Is(err, device.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if c.State() != StateError {
		t.Fatalf("expected error state, got %q", c.State())
	}
	if c.Err() == nil {
		t.Fatal("expected the failure to be recorded")
	}
	if devices.OpenStreams() != 0 {
		t.Fatalf("expected no open streams, got %d", devices.OpenStreams())
	}

	// The control is disabled; further toggles are swallowed.
	if err := c.Toggle(ctx); err != nil {
		t.Fatalf("toggle in error state must be a no-op, got %v", err)
	}
	if c.State() != StateError {
		t.Fatalf("error state must be terminal, got %q", c.State())
	}
	if devices.OpenStreams() != 0 {
		t.Fatalf("toggle in error state must not open streams, got %d", devices.OpenStreams())
	}
}

func TestAudioFinalizeBuildsClipAndCleansUp(t *testing.T) {
	c, devices, _, gallery := newTestAudio(nil, &media.StubRecorderConfig{
		TailChunks: [][]byte{[]byte("head"), []byte("tail")},
	})
	ctx := context.Background()

	if err := c.Toggle(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := c.Toggle(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if c.ChunkCount() != 0 {
		t.Fatalf("expected empty chunk buffer after finalize, got %d", c.ChunkCount())
	}
	if devices.OpenStreams() != 0 {
		t.Fatalf("expected released stream, got %d open", devices.OpenStreams())
	}
	if gallery.Len() != 1 {
		t.Fatalf("expected one artifact, got %d", gallery.Len())
	}

	clip := gallery.All()[0]
	if clip.Kind != artifact.KindAudio {
		t.Fatalf("expected audio artifact, got %q", clip.Kind)
	}
	if string(clip.Data) != "headtail" {
		t.Fatalf("expected concatenated chunks, got %q", clip.Data)
	}
	if clip.Encoding != media.EncodingWebMOpus {
		t.Fatalf("unexpected encoding %q", clip.Encoding)
	}

	// Finalize must be idempotent.
	c.finalize()
	if gallery.Len() != 1 {
		t.Fatalf("second finalize appended an artifact, gallery has %d", gallery.Len())
	}
	if c.State() != StateStopped {
		t.Fatalf("expected stopped, got %q", c.State())
	}
}

func TestAudioChunksAccumulateWhileRecording(t *testing.T) {
	c, _, recorders, gallery := newTestAudio(nil, nil)
	ctx := context.Background()

	if err := c.Toggle(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	rec := recorders.Last()
	rec.EmitChunk([]byte("aa"))
	rec.EmitChunk([]byte("bb"))

	if c.ChunkCount() != 2 {
		t.Fatalf("expected 2 chunks, got %d", c.ChunkCount())
	}

	if err := c.Toggle(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if string(gallery.All()[0].Data) != "aabb" {
		t.Fatalf("unexpected clip data %q", gallery.All()[0].Data)
	}
}

func TestAudioRecorderErrorIsTerminal(t *testing.T) {
	notified := ""
	devices := device.NewStubDevices(nil)
	recorders := media.NewStubRecorderFactory(nil)
	gallery := artifact.NewGallery()
	c := NewAudioController(AudioConfig{
		Devices:   devices,
		Recorders: recorders,
		Gallery:   gallery,
		Log:       testLogger(),
		Notify:    func(msg string) { notified = msg },
	})
	ctx := context.Background()

	if err := c.Toggle(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	recorders.Last().EmitError(errors.New("device unplugged"))

	if c.State() != StateError {
		t.Fatalf("expected error state, got %q", c.State())
	}
	if devices.OpenStreams() != 0 {
		t.Fatalf("expected released stream, got %d open", devices.OpenStreams())
	}
	if c.ChunkCount() != 0 {
		t.Fatalf("expected cleared chunk buffer, got %d", c.ChunkCount())
	}
	if gallery.Len() != 0 {
		t.Fatalf("a failed recording must not produce an artifact, got %d", gallery.Len())
	}
	if notified == "" {
		t.Fatal("expected a notice for the recorder failure")
	}
}

func TestAudioNegotiationPicksSecondPreference(t *testing.T) {
	second := media.DefaultAudioEncodings[1]
	c, _, recorders, _ := newTestAudio(nil, &media.StubRecorderConfig{
		Supported: []string{second},
	})
	ctx := context.Background()

	if err := c.Toggle(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if c.Encoding() != second {
		t.Fatalf("expected negotiated encoding %q, got %q", second, c.Encoding())
	}
	if got := recorders.Last().Encoding(); got != second {
		t.Fatalf("recorder constructed with %q, want %q", got, second)
	}
}

func TestAudioNoSupportedEncodingIsTerminal(t *testing.T) {
	c, devices, _, _ := newTestAudio(nil, &media.StubRecorderConfig{
		Supported: []string{},
	})
	ctx := context.Background()

	err := c.Toggle(ctx)
	if !errors.Is(err, media.ErrNoSupportedEncoding) {
		t.Fatalf("expected ErrNoSupportedEncoding, got %v", err)
	}
	if c.State() != StateError {
		t.Fatalf("expected error state, got %q", c.State())
	}
	if devices.OpenStreams() != 0 {
		t.Fatalf("the stream must not leak, got %d open", devices.OpenStreams())
	}
}

func TestAudioSamplesOnlyWhileStreamOpen(t *testing.T) {
	c, _, _, _ := newTestAudio(nil, nil)
	ctx := context.Background()

	if got := c.Samples(16); got != nil {
		t.Fatalf("expected no samples while stopped, got %d", len(got))
	}

	if err := c.Toggle(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if got := c.Samples(16); len(got) != 16 {
		t.Fatalf("expected 16 samples, got %d", len(got))
	}
	if c.SampleRate() == 0 {
		t.Fatal("expected a sample rate while recording")
	}

	if err := c.Toggle(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if got := c.Samples(16); got != nil {
		t.Fatalf("expected no samples after stop, got %d", len(got))
	}
}
