package controller

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"capdeck/internal/artifact"
	"capdeck/internal/device"
	"capdeck/internal/media"
)

// DefaultVideoChunkInterval is how often the camera recorder cuts a
// chunk while recording.
const DefaultVideoChunkInterval = time.Second

// VideoConfig wires a VideoController.
type VideoConfig struct {
	Devices   device.Devices
	Recorders media.RecorderFactory
	Gallery   *artifact.Gallery

	// Facing is the initially preferred camera facing. Empty selects
	// front.
	Facing device.FacingMode
	// Encodings is the ordered encoding preference list. Nil selects
	// media.DefaultVideoEncodings.
	Encodings []string
	// ChunkInterval overrides DefaultVideoChunkInterval when positive.
	ChunkInterval time.Duration
	// DisplayWidth overrides artifact.DisplayWidth when positive.
	DisplayWidth int

	Log *logrus.Logger
	// Notify, when set, raises a blocking user-visible notice on
	// capture failures (debug mode).
	Notify func(string)
}

// VideoController runs the camera deck: preview, still photos, clip
// recording and camera flipping. States are stopped, previewing,
// recording and the terminal error. Operations called outside their
// required state fail fast with an InvalidStateError and change
// nothing.
type VideoController struct {
	devices      device.Devices
	recorders    media.RecorderFactory
	gallery      *artifact.Gallery
	encodings    []string
	interval     time.Duration
	displayWidth int
	log          *logrus.Logger
	notify       func(string)

	mu        sync.Mutex
	state     State
	stream    device.VideoStream
	facing    device.FacingMode
	canFlip   bool
	recorder  media.Recorder
	encoding  string
	chunks    []media.Chunk
	startedAt time.Time
	lastErr   error
	acquiring bool
	stopping  bool
	epoch     int
}

// NewVideoController creates the controller in the stopped state.
func NewVideoController(cfg VideoConfig) *VideoController {
	interval := cfg.ChunkInterval
	if interval <= 0 {
		interval = DefaultVideoChunkInterval
	}
	encodings := cfg.Encodings
	if encodings == nil {
		encodings = media.DefaultVideoEncodings
	}
	facing := cfg.Facing
	if facing == "" {
		facing = device.FacingFront
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	displayWidth := cfg.DisplayWidth
	if displayWidth <= 0 {
		displayWidth = artifact.DisplayWidth
	}
	return &VideoController{
		devices:      cfg.Devices,
		recorders:    cfg.Recorders,
		gallery:      cfg.Gallery,
		encodings:    encodings,
		interval:     interval,
		displayWidth: displayWidth,
		facing:       facing,
		log:          log,
		notify:       cfg.Notify,
		state:        StateStopped,
	}
}

// State returns the current lifecycle state.
func (c *VideoController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Facing returns the camera facing of the open or last stream.
func (c *VideoController) Facing() device.FacingMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

// CanFlip reports whether the open stream offers an alternate facing.
func (c *VideoController) CanFlip() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canFlip
}

// Encoding returns the negotiated encoding of the active or last
// recording.
func (c *VideoController) Encoding() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoding
}

// Err returns the failure that moved the controller to the error state.
func (c *VideoController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ChunkCount reports how many chunks the current recording has
// accumulated.
func (c *VideoController) ChunkCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.chunks)
}

// Resolution returns the open stream's pixel size, or zeros.
func (c *VideoController) Resolution() (int, int) {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return 0, 0
	}
	return stream.Resolution()
}

// Frame returns the current camera frame for preview display. It is
// only valid while a stream is open.
func (c *VideoController) Frame(ctx context.Context) (image.Image, error) {
	c.mu.Lock()
	stream := c.stream
	state := c.state
	c.mu.Unlock()
	if stream == nil {
		return nil, invalidState("read frame", state)
	}
	return stream.Frame(ctx)
}

// Preview opens the camera and enters the previewing state. Only valid
// from stopped; denial moves the controller to the terminal error
// state.
func (c *VideoController) Preview(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateStopped {
		state := c.state
		c.mu.Unlock()
		return invalidState("preview", state)
	}
	if c.acquiring {
		c.mu.Unlock()
		return nil
	}
	c.acquiring = true
	facing := c.facing
	c.mu.Unlock()

	stream, err := c.devices.RequestStream(ctx, device.VideoWithAudio(facing))

	c.mu.Lock()
	c.acquiring = false
	if err != nil {
		c.mu.Unlock()
		wrapped := fmt.Errorf("camera access: %w", err)
		c.fail(wrapped)
		return wrapped
	}
	video, ok := stream.(device.VideoStream)
	if !ok {
		c.mu.Unlock()
		stream.StopAllTracks()
		wrapped := fmt.Errorf("device returned a non-video stream %T", stream)
		c.fail(wrapped)
		return wrapped
	}
	if c.state != StateStopped {
		// Lost a race with another transition; the losing stream must
		// not leak.
		c.mu.Unlock()
		stream.StopAllTracks()
		return nil
	}
	c.stream = video
	c.facing = video.Facing()
	c.canFlip = len(video.FacingModes()) > 0
	c.state = StatePreviewing
	c.mu.Unlock()

	w, h := video.Resolution()
	c.log.Infof("Camera preview started: facing=%s resolution=%dx%d flip=%v", video.Facing(), w, h, c.CanFlip())
	return nil
}

// ClosePreview releases the camera and returns to stopped. Only valid
// from previewing.
func (c *VideoController) ClosePreview() error {
	c.mu.Lock()
	if c.state != StatePreviewing {
		state := c.state
		c.mu.Unlock()
		return invalidState("close preview", state)
	}
	stream := c.stream
	c.stream = nil
	c.canFlip = false
	c.state = StateStopped
	c.mu.Unlock()

	if stream != nil {
		stream.StopAllTracks()
	}
	c.log.Info("Camera preview closed")
	return nil
}

// StartRecording starts chunked clip recording on the open preview
// stream. Only valid from previewing.
func (c *VideoController) StartRecording() error {
	c.mu.Lock()
	if c.state != StatePreviewing {
		state := c.state
		c.mu.Unlock()
		return invalidState("start recording", state)
	}
	stream := c.stream
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	encoding, err := media.Negotiate(c.recorders, c.encodings)
	if err != nil {
		c.failAndRelease(err)
		return err
	}

	handlers := media.Handlers{
		OnChunk: func(chunk media.Chunk) { c.handleChunk(epoch, chunk) },
		OnError: func(err error) { c.handleRecorderError(epoch, err) },
	}
	rec, err := c.recorders.New(stream, encoding, handlers)
	if err != nil {
		wrapped := fmt.Errorf("create recorder: %w", err)
		c.failAndRelease(wrapped)
		return wrapped
	}

	c.mu.Lock()
	if c.state != StatePreviewing {
		c.mu.Unlock()
		return nil
	}
	c.recorder = rec
	c.encoding = encoding
	c.chunks = nil
	c.startedAt = time.Now()
	c.state = StateRecording
	c.mu.Unlock()

	if err := rec.Start(c.interval); err != nil {
		c.mu.Lock()
		c.epoch++
		c.recorder = nil
		c.chunks = nil
		c.state = StatePreviewing
		c.mu.Unlock()
		wrapped := fmt.Errorf("start recorder: %w", err)
		c.failAndRelease(wrapped)
		return wrapped
	}

	c.log.Infof("Video recording started: encoding=%s interval=%s", encoding, c.interval)
	return nil
}

// StopRecording stops the recorder, finalizes the clip and returns to
// previewing with the stream still open. Only valid from recording.
func (c *VideoController) StopRecording() error {
	c.mu.Lock()
	if c.state != StateRecording {
		state := c.state
		c.mu.Unlock()
		return invalidState("stop recording", state)
	}
	if c.stopping {
		c.mu.Unlock()
		return nil
	}
	c.stopping = true
	rec := c.recorder
	c.mu.Unlock()

	// Stop blocks until every pending chunk has been delivered.
	if rec != nil {
		if err := rec.Stop(); err != nil {
			c.log.Warnf("Video recorder stop: %v", err)
		}
	}
	c.finalizeClip()

	c.mu.Lock()
	c.stopping = false
	c.mu.Unlock()
	return nil
}

// Flip restarts the preview on the opposite camera facing. The old
// stream is closed before the new one is requested, so there is never a
// second open stream. A failed reopen is terminal. Only valid from
// previewing.
func (c *VideoController) Flip(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StatePreviewing {
		state := c.state
		c.mu.Unlock()
		return invalidState("flip camera", state)
	}
	if !c.canFlip {
		c.mu.Unlock()
		return fmt.Errorf("camera offers no alternate facing")
	}

	old := c.stream
	next := c.facing.Opposite()
	c.stream = nil
	if old != nil {
		old.StopAllTracks()
	}

	stream, err := c.devices.RequestStream(ctx, device.VideoWithAudio(next))
	if err != nil {
		c.canFlip = false
		c.state = StateError
		c.lastErr = fmt.Errorf("flip camera: %w", err)
		failure := c.lastErr
		c.mu.Unlock()

		c.log.Errorf("Camera flip failed: %v", failure)
		if c.notify != nil {
			c.notify(fmt.Sprintf("Camera flip failed: %v", err))
		}
		return failure
	}
	video, ok := stream.(device.VideoStream)
	if !ok {
		c.canFlip = false
		c.state = StateError
		c.lastErr = fmt.Errorf("device returned a non-video stream %T", stream)
		failure := c.lastErr
		c.mu.Unlock()

		stream.StopAllTracks()
		c.log.Errorf("Camera flip failed: %v", failure)
		return failure
	}

	c.stream = video
	c.facing = video.Facing()
	c.canFlip = len(video.FacingModes()) > 0
	c.mu.Unlock()

	c.log.Infof("Camera flipped: facing=%s", video.Facing())
	return nil
}

// TakePhoto grabs the current frame, draws it onto an offscreen canvas
// at the stream's native resolution and appends the encoded image to
// the gallery. The state remains previewing. Only valid from
// previewing.
func (c *VideoController) TakePhoto(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StatePreviewing {
		state := c.state
		c.mu.Unlock()
		return invalidState("take photo", state)
	}
	stream := c.stream
	c.mu.Unlock()

	frame, err := stream.Frame(ctx)
	if err != nil {
		c.log.Warnf("Photo capture failed: %v", err)
		return fmt.Errorf("take photo: %w", err)
	}

	bounds := frame.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), frame, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, nil); err != nil {
		return fmt.Errorf("encode photo: %w", err)
	}

	photo := artifact.New(artifact.KindPhoto, "image/jpeg", buf.Bytes())
	photo.Width, photo.Height = bounds.Dx(), bounds.Dy()
	photo.DisplayWidth, photo.DisplayHeight = artifact.DisplaySizeAt(c.displayWidth, photo.Width, photo.Height)
	c.gallery.Add(photo)

	c.log.Infof("Photo captured: %dx%d bytes=%d", bounds.Dx(), bounds.Dy(), buf.Len())
	return nil
}

// handleChunk appends a delivered chunk to the recording buffer.
func (c *VideoController) handleChunk(epoch int, chunk media.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || c.state != StateRecording {
		return
	}
	c.chunks = append(c.chunks, chunk)
}

// handleRecorderError moves the controller to the terminal error state
// and releases the stream.
func (c *VideoController) handleRecorderError(epoch int, err error) {
	c.mu.Lock()
	if epoch != c.epoch || c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.epoch++
	rec := c.recorder
	stream := c.stream
	c.recorder = nil
	c.stream = nil
	c.chunks = nil
	c.canFlip = false
	c.state = StateError
	c.lastErr = err
	c.mu.Unlock()

	if rec != nil {
		rec.Stop()
	}
	if stream != nil {
		stream.StopAllTracks()
	}
	c.log.Errorf("Video recorder failed: %v", err)
	if c.notify != nil {
		c.notify(fmt.Sprintf("Video recording failed: %v", err))
	}
}

// finalizeClip turns the accumulated chunks into one clip artifact and
// returns to previewing with the stream still open. Calling it again is
// a no-op.
func (c *VideoController) finalizeClip() {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.epoch++
	chunks := c.chunks
	encoding := c.encoding
	startedAt := c.startedAt
	width, height := 0, 0
	if c.stream != nil {
		width, height = c.stream.Resolution()
	}
	c.chunks = nil
	c.recorder = nil
	c.state = StatePreviewing
	c.mu.Unlock()

	if len(chunks) > 0 {
		clip := artifact.New(artifact.KindVideo, encoding, media.JoinChunks(chunks))
		clip.Width, clip.Height = width, height
		clip.DisplayWidth, clip.DisplayHeight = artifact.DisplaySizeAt(c.displayWidth, width, height)
		clip.Duration = time.Since(startedAt)
		c.gallery.Add(clip)
		c.log.Infof("Video clip finalized: encoding=%s chunks=%d bytes=%d duration=%s display=%dx%d",
			encoding, len(chunks), len(clip.Data), clip.Duration.Round(time.Millisecond),
			clip.DisplayWidth, clip.DisplayHeight)
	} else {
		c.log.Info("Video recording stopped without data")
	}
}

// fail records an initial-access failure as the terminal error state.
func (c *VideoController) fail(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastErr = err
	c.mu.Unlock()

	c.log.Errorf("Video capture failed: %v", err)
	if c.notify != nil {
		c.notify(fmt.Sprintf("Camera unavailable: %v", err))
	}
}

// failAndRelease is fail plus releasing the held stream.
func (c *VideoController) failAndRelease(err error) {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.canFlip = false
	c.state = StateError
	c.lastErr = err
	c.mu.Unlock()

	if stream != nil {
		stream.StopAllTracks()
	}
	c.log.Errorf("Video capture failed: %v", err)
	if c.notify != nil {
		c.notify(fmt.Sprintf("Video recording failed: %v", err))
	}
}
