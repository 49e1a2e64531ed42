package controller

import (
	"context"
	"errors"
	"testing"

	"capdeck/internal/artifact"
	"capdeck/internal/device"
	"capdeck/internal/media"
)

// denyAfterDevices grants through the inner backend a fixed number of
// times, then denies every further request.
type denyAfterDevices struct {
	inner  *device.StubDevices
	grants int
	calls  int
}

func (d *denyAfterDevices) RequestStream(ctx context.Context, c device.Constraints) (device.Stream, error) {
	d.calls++
	if d.calls > d.grants {
		return nil, device.ErrAccessDenied
	}
	return d.inner.RequestStream(ctx, c)
}

func newTestVideo(devCfg *device.StubConfig, recCfg *media.StubRecorderConfig) (*VideoController, *device.StubDevices, *media.StubRecorderFactory, *artifact.Gallery) {
	devices := device.NewStubDevices(devCfg)
	recorders := media.NewStubRecorderFactory(recCfg)
	gallery := artifact.NewGallery()
	c := NewVideoController(VideoConfig{
		Devices:   devices,
		Recorders: recorders,
		Gallery:   gallery,
		Log:       testLogger(),
	})
	return c, devices, recorders, gallery
}

func TestVideoOperationsFailFastFromStopped(t *testing.T) {
	c, devices, _, gallery := newTestVideo(nil, nil)
	ctx := context.Background()

	if err := c.TakePhoto(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid-state error from TakePhoto, got %v", err)
	}
	if err := c.StartRecording(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid-state error from StartRecording, got %v", err)
	}
	if err := c.StopRecording(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid-state error from StopRecording, got %v", err)
	}
	if err := c.Flip(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid-state error from Flip, got %v", err)
	}
	if err := c.ClosePreview(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid-state error from ClosePreview, got %v", err)
	}

	var ise *InvalidStateError
	err := c.StartRecording()
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %T", err)
	}
	if ise.Op != "start recording" || ise.State != StateStopped {
		t.Fatalf("unexpected error detail: %+v", ise)
	}

	if c.State() != StateStopped {
		t.Fatalf("invalid operations must not change state, got %q", c.State())
	}
	if devices.OpenStreams() != 0 || gallery.Len() != 0 {
		t.Fatal("invalid operations must have no side effects")
	}
}

func TestVideoPreviewLifecycle(t *testing.T) {
	c, devices, _, _ := newTestVideo(nil, nil)
	ctx := context.Background()

	if err := c.Preview(ctx); err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if c.State() != StatePreviewing {
		t.Fatalf("expected previewing, got %q", c.State())
	}
	if devices.OpenStreams() != 1 {
		t.Fatalf("expected one open stream, got %d", devices.OpenStreams())
	}
	if !c.CanFlip() {
		t.Fatal("expected flip capability with two facing modes")
	}

	// Preview while previewing is out of state.
	if err := c.Preview(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}

	if err := c.ClosePreview(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if c.State() != StateStopped {
		t.Fatalf("expected stopped, got %q", c.State())
	}
	if devices.OpenStreams() != 0 {
		t.Fatalf("expected released stream, got %d open", devices.OpenStreams())
	}
}

func TestVideoDeniedAccessIsTerminal(t *testing.T) {
	c, devices, _, _ := newTestVideo(&device.StubConfig{DenyVideo: true}, nil)
	ctx := context.Background()

	err := c.Preview(ctx)
	if !errors.Is(err, device.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if c.State() != StateError {
		t.Fatalf("expected error state, got %q", c.State())
	}
	if devices.OpenStreams() != 0 {
		t.Fatalf("expected no open streams, got %d", devices.OpenStreams())
	}
	if err := c.Preview(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("error state must reject preview, got %v", err)
	}
}

func TestVideoFlipKeepsExactlyOneStream(t *testing.T) {
	c, devices, _, _ := newTestVideo(nil, nil)
	ctx := context.Background()

	if err := c.Preview(ctx); err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if c.Facing() != device.FacingFront {
		t.Fatalf("expected front facing, got %q", c.Facing())
	}

	if err := c.Flip(ctx); err != nil {
		t.Fatalf("flip failed: %v", err)
	}
	if c.State() != StatePreviewing {
		t.Fatalf("expected previewing after flip, got %q", c.State())
	}
	if c.Facing() != device.FacingRear {
		t.Fatalf("expected rear facing after flip, got %q", c.Facing())
	}
	if devices.OpenStreams() != 1 {
		t.Fatalf("expected exactly one open stream after flip, got %d", devices.OpenStreams())
	}
}

func TestVideoFlipFailureLeavesNoStreams(t *testing.T) {
	inner := device.NewStubDevices(nil)
	gated := &denyAfterDevices{inner: inner, grants: 1}
	c := NewVideoController(VideoConfig{
		Devices:   gated,
		Recorders: media.NewStubRecorderFactory(nil),
		Gallery:   artifact.NewGallery(),
		Log:       testLogger(),
	})
	ctx := context.Background()

	if err := c.Preview(ctx); err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	err := c.Flip(ctx)
	if !errors.Is(err, device.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if c.State() != StateError {
		t.Fatalf("expected error state, got %q", c.State())
	}
	if inner.OpenStreams() != 0 {
		t.Fatalf("expected zero open streams in error, got %d", inner.OpenStreams())
	}
}

func TestVideoFlipWithoutAlternateFacing(t *testing.T) {
	c, devices, _, _ := newTestVideo(&device.StubConfig{
		FacingModes: []device.FacingMode{},
		Width:       640,
		Height:      480,
		SampleRate:  44100,
	}, nil)
	ctx := context.Background()

	if err := c.Preview(ctx); err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if c.CanFlip() {
		t.Fatal("expected no flip capability")
	}
	if err := c.Flip(ctx); err == nil {
		t.Fatal("expected an error for flip without capability")
	}
	if c.State() != StatePreviewing {
		t.Fatalf("failed flip without capability must not change state, got %q", c.State())
	}
	if devices.OpenStreams() != 1 {
		t.Fatalf("expected the preview stream to survive, got %d open", devices.OpenStreams())
	}
}

func TestVideoThreePhotosStayPreviewing(t *testing.T) {
	c, _, _, gallery := newTestVideo(nil, nil)
	ctx := context.Background()

	if err := c.Preview(ctx); err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := c.TakePhoto(ctx); err != nil {
			t.Fatalf("photo %d failed: %v", i, err)
		}
		if c.State() != StatePreviewing {
			t.Fatalf("photo %d: expected previewing, got %q", i, c.State())
		}
	}

	if gallery.Len() != 3 {
		t.Fatalf("expected 3 artifacts, got %d", gallery.Len())
	}
	for i, a := range gallery.All() {
		if a.Kind != artifact.KindPhoto {
			t.Fatalf("artifact %d: expected photo, got %q", i, a.Kind)
		}
		if a.Encoding != "image/jpeg" {
			t.Fatalf("artifact %d: unexpected encoding %q", i, a.Encoding)
		}
		if len(a.Data) == 0 {
			t.Fatalf("artifact %d: empty photo", i)
		}
		if a.Width != 640 || a.Height != 480 {
			t.Fatalf("artifact %d: unexpected resolution %dx%d", i, a.Width, a.Height)
		}
	}
}

func TestVideoRecordingRoundTrip(t *testing.T) {
	c, devices, recorders, gallery := newTestVideo(nil, &media.StubRecorderConfig{
		TailChunks: [][]byte{[]byte("fin")},
	})
	ctx := context.Background()

	if err := c.Preview(ctx); err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if err := c.StartRecording(); err != nil {
		t.Fatalf("start recording failed: %v", err)
	}
	if c.State() != StateRecording {
		t.Fatalf("expected recording, got %q", c.State())
	}

	recorders.Last().EmitChunk([]byte("clip-"))

	if err := c.StopRecording(); err != nil {
		t.Fatalf("stop recording failed: %v", err)
	}
	if c.State() != StatePreviewing {
		t.Fatalf("expected previewing after stop, got %q", c.State())
	}
	if devices.OpenStreams() != 1 {
		t.Fatalf("the preview stream must stay open, got %d", devices.OpenStreams())
	}
	if c.ChunkCount() != 0 {
		t.Fatalf("expected cleared chunk buffer, got %d", c.ChunkCount())
	}

	if gallery.Len() != 1 {
		t.Fatalf("expected one artifact, got %d", gallery.Len())
	}
	clip := gallery.All()[0]
	if clip.Kind != artifact.KindVideo {
		t.Fatalf("expected video artifact, got %q", clip.Kind)
	}
	if string(clip.Data) != "clip-fin" {
		t.Fatalf("unexpected clip data %q", clip.Data)
	}
	if clip.Encoding != media.EncodingWebMVP9 {
		t.Fatalf("unexpected encoding %q", clip.Encoding)
	}
	if clip.DisplayWidth != artifact.DisplayWidth || clip.DisplayHeight != 360 {
		t.Fatalf("unexpected display size %dx%d", clip.DisplayWidth, clip.DisplayHeight)
	}

	// Finalize must be idempotent.
	c.finalizeClip()
	if gallery.Len() != 1 {
		t.Fatalf("second finalize appended an artifact, gallery has %d", gallery.Len())
	}
}

func TestVideoRecorderErrorReleasesEverything(t *testing.T) {
	c, devices, recorders, gallery := newTestVideo(nil, nil)
	ctx := context.Background()

	if err := c.Preview(ctx); err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if err := c.StartRecording(); err != nil {
		t.Fatalf("start recording failed: %v", err)
	}

	recorders.Last().EmitError(errors.New("pipeline collapsed"))

	if c.State() != StateError {
		t.Fatalf("expected error state, got %q", c.State())
	}
	if devices.OpenStreams() != 0 {
		t.Fatalf("expected zero open streams, got %d", devices.OpenStreams())
	}
	if gallery.Len() != 0 {
		t.Fatalf("a failed recording must not produce an artifact, got %d", gallery.Len())
	}
	if err := c.StartRecording(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("error state must reject recording, got %v", err)
	}
}

func TestVideoFlipRejectedWhileRecording(t *testing.T) {
	c, _, _, _ := newTestVideo(nil, nil)
	ctx := context.Background()

	if err := c.Preview(ctx); err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if err := c.StartRecording(); err != nil {
		t.Fatalf("start recording failed: %v", err)
	}

	if err := c.Flip(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
	if err := c.TakePhoto(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
	if err := c.ClosePreview(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
	if c.State() != StateRecording {
		t.Fatalf("invalid operations must not change state, got %q", c.State())
	}
}
