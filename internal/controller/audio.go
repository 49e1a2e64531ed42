package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"capdeck/internal/artifact"
	"capdeck/internal/device"
	"capdeck/internal/media"
)

// DefaultAudioChunkInterval is how often the microphone recorder cuts a
// chunk while recording.
const DefaultAudioChunkInterval = 500 * time.Millisecond

// AudioConfig wires an AudioController.
type AudioConfig struct {
	Devices   device.Devices
	Recorders media.RecorderFactory
	Gallery   *artifact.Gallery

	// Encodings is the ordered encoding preference list. Nil selects
	// media.DefaultAudioEncodings.
	Encodings []string
	// ChunkInterval overrides DefaultAudioChunkInterval when positive.
	ChunkInterval time.Duration

	Log *logrus.Logger
	// Notify, when set, raises a blocking user-visible notice on
	// capture failures (debug mode).
	Notify func(string)
}

// AudioController toggles microphone clip recording. Its states are
// stopped, recording and the terminal error. While recording it owns
// the microphone stream and accumulates the recorder's chunks; on stop
// the chunks become one playable clip in the gallery.
type AudioController struct {
	devices   device.Devices
	recorders media.RecorderFactory
	gallery   *artifact.Gallery
	encodings []string
	interval  time.Duration
	log       *logrus.Logger
	notify    func(string)

	mu        sync.Mutex
	state     State
	stream    device.AudioStream
	recorder  media.Recorder
	encoding  string
	chunks    []media.Chunk
	startedAt time.Time
	lastErr   error
	acquiring bool
	stopping  bool
	// epoch invalidates recorder callbacks from finished sessions.
	epoch int
}

// NewAudioController creates the controller in the stopped state.
func NewAudioController(cfg AudioConfig) *AudioController {
	interval := cfg.ChunkInterval
	if interval <= 0 {
		interval = DefaultAudioChunkInterval
	}
	encodings := cfg.Encodings
	if encodings == nil {
		encodings = media.DefaultAudioEncodings
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AudioController{
		devices:   cfg.Devices,
		recorders: cfg.Recorders,
		gallery:   cfg.Gallery,
		encodings: encodings,
		interval:  interval,
		log:       log,
		notify:    cfg.Notify,
		state:     StateStopped,
	}
}

// State returns the current lifecycle state.
func (c *AudioController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Recording reports whether a recording is in progress.
func (c *AudioController) Recording() bool {
	return c.State() == StateRecording
}

// Encoding returns the negotiated encoding of the active or last
// recording.
func (c *AudioController) Encoding() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoding
}

// Err returns the failure that moved the controller to the error state.
func (c *AudioController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ChunkCount reports how many chunks the current recording has
// accumulated.
func (c *AudioController) ChunkCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.chunks)
}

// Samples returns the newest n samples of the live stream, or nil when
// no stream is open. The waveform renderer polls this every frame.
func (c *AudioController) Samples(n int) []float32 {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return nil
	}
	return stream.Samples(n)
}

// SampleRate returns the open stream's sample rate, or zero.
func (c *AudioController) SampleRate() int {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return 0
	}
	return stream.SampleRate()
}

// Toggle flips between stopped and recording. In the error state it is
// a no-op, matching the disabled control. It blocks while the device is
// acquired or the recorder drains, so the UI runs it off the event
// loop.
func (c *AudioController) Toggle(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateError:
		c.mu.Unlock()
		return nil
	case StateRecording:
		if c.stopping {
			c.mu.Unlock()
			return nil
		}
		c.stopping = true
		rec := c.recorder
		c.mu.Unlock()

		// Stop blocks until every pending chunk has been delivered,
		// so finalize sees the complete recording.
		if rec != nil {
			if err := rec.Stop(); err != nil {
				c.log.Warnf("Audio recorder stop: %v", err)
			}
		}
		c.finalize()

		c.mu.Lock()
		c.stopping = false
		c.mu.Unlock()
		return nil
	default:
		if c.acquiring {
			c.mu.Unlock()
			return nil
		}
		c.acquiring = true
		c.mu.Unlock()
		err := c.begin(ctx)
		c.mu.Lock()
		c.acquiring = false
		c.mu.Unlock()
		return err
	}
}

// begin acquires the microphone, negotiates an encoding and starts the
// chunked recorder.
func (c *AudioController) begin(ctx context.Context) error {
	stream, err := c.devices.RequestStream(ctx, device.AudioOnly())
	if err != nil {
		c.fail(fmt.Errorf("microphone access: %w", err))
		return err
	}
	audio, ok := stream.(device.AudioStream)
	if !ok {
		stream.StopAllTracks()
		err := fmt.Errorf("device returned a non-audio stream %T", stream)
		c.fail(err)
		return err
	}

	encoding, err := media.Negotiate(c.recorders, c.encodings)
	if err != nil {
		stream.StopAllTracks()
		c.fail(err)
		return err
	}

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()
	handlers := media.Handlers{
		OnChunk: func(chunk media.Chunk) { c.handleChunk(epoch, chunk) },
		OnError: func(err error) { c.handleRecorderError(epoch, err) },
	}

	rec, err := c.recorders.New(stream, encoding, handlers)
	if err != nil {
		stream.StopAllTracks()
		c.fail(fmt.Errorf("create recorder: %w", err))
		return err
	}

	c.mu.Lock()
	if c.state != StateStopped {
		// The state moved while we were acquiring; the losing stream
		// must not leak.
		c.mu.Unlock()
		stream.StopAllTracks()
		return nil
	}
	c.stream = audio
	c.recorder = rec
	c.encoding = encoding
	c.chunks = nil
	c.startedAt = time.Now()
	c.state = StateRecording
	c.mu.Unlock()

	if err := rec.Start(c.interval); err != nil {
		c.mu.Lock()
		c.epoch++
		c.stream = nil
		c.recorder = nil
		c.chunks = nil
		c.mu.Unlock()
		stream.StopAllTracks()
		c.fail(fmt.Errorf("start recorder: %w", err))
		return err
	}

	c.log.Infof("Audio recording started: encoding=%s interval=%s", encoding, c.interval)
	return nil
}

// handleChunk appends a delivered chunk to the recording buffer.
func (c *AudioController) handleChunk(epoch int, chunk media.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || c.state != StateRecording {
		return
	}
	c.chunks = append(c.chunks, chunk)
}

// handleRecorderError moves the controller to the terminal error state
// and releases the stream.
func (c *AudioController) handleRecorderError(epoch int, err error) {
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
	c.state = StateError
	c.lastErr = err
	c.mu.Unlock()

	if rec != nil {
		rec.Stop()
	}
	if stream != nil {
		stream.StopAllTracks()
	}
	c.log.Errorf("Audio recorder failed: %v", err)
	if c.notify != nil {
		c.notify(fmt.Sprintf("Audio recording failed: %v", err))
	}
}

// finalize turns the accumulated chunks into one clip artifact, releases
// the stream and clears the recording buffer and recorder handle.
// Calling it again is a no-op.
func (c *AudioController) finalize() {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.epoch++
	chunks := c.chunks
	stream := c.stream
	encoding := c.encoding
	startedAt := c.startedAt
	c.chunks = nil
	c.recorder = nil
	c.stream = nil
	c.state = StateStopped
	c.mu.Unlock()

	if len(chunks) > 0 {
		clip := artifact.New(artifact.KindAudio, encoding, media.JoinChunks(chunks))
		clip.Duration = time.Since(startedAt)
		c.gallery.Add(clip)
		c.log.Infof("Audio clip finalized: encoding=%s chunks=%d bytes=%d duration=%s",
			encoding, len(chunks), len(clip.Data), clip.Duration.Round(time.Millisecond))
	} else {
		c.log.Info("Audio recording stopped without data")
	}

	if stream != nil {
		stream.StopAllTracks()
	}
}

// fail records an initial-access failure as the terminal error state.
func (c *AudioController) fail(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastErr = err
	c.mu.Unlock()

	c.log.Errorf("Audio capture failed: %v", err)
	if c.notify != nil {
		c.notify(fmt.Sprintf("Microphone unavailable: %v", err))
	}
}
