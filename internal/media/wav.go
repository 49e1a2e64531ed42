package media

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"capdeck/internal/device"
)

// WAVFactory records microphone streams as streaming WAV.
type WAVFactory struct{}

// Supports reports true only for the WAV encoding.
func (WAVFactory) Supports(encoding string) bool { return encoding == EncodingWAV }

// New builds a WAV recorder over an audio stream.
func (WAVFactory) New(stream device.Stream, encoding string, h Handlers) (Recorder, error) {
	if encoding != EncodingWAV {
		return nil, fmt.Errorf("wav recorder cannot write %q", encoding)
	}
	audio, ok := stream.(device.AudioStream)
	if !ok {
		return nil, fmt.Errorf("wav recorder needs an audio stream, got %T", stream)
	}
	return &WAVRecorder{stream: audio, handlers: h}, nil
}

// WAVRecorder accumulates PCM from the stream's capture callback and cuts
// a chunk on every interval tick. The first chunk starts with a
// streaming RIFF header (unknown length), so concatenating all chunks in
// order yields a playable WAV clip.
type WAVRecorder struct {
	stream   device.AudioStream
	handlers Handlers

	mu         sync.Mutex
	buf        bytes.Buffer
	seq        int
	headerSent bool
	started    bool
	stopping   bool
	stopped    bool

	quit chan struct{}
	done chan struct{}
}

// Encoding reports the WAV MIME type.
func (r *WAVRecorder) Encoding() string { return EncodingWAV }

// Write is the PCM sink fed by the stream's capture callback.
func (r *WAVRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return 0, io.ErrClosedPipe
	}
	return r.buf.Write(p)
}

// Start attaches the recorder to the stream and begins cutting chunks.
func (r *WAVRecorder) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultChunkInterval
	}
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("recorder already started")
	}
	r.started = true
	r.quit = make(chan struct{})
	r.done = make(chan struct{})
	r.mu.Unlock()

	r.stream.SetPCMSink(r)
	go r.run(interval)
	return nil
}

func (r *WAVRecorder) run(interval time.Duration) {
	defer close(r.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.cut()
		case <-r.quit:
			return
		}
	}
}

// cut emits the PCM accumulated since the previous cut as one chunk. The
// header rides on the front of the first chunk.
func (r *WAVRecorder) cut() {
	r.mu.Lock()
	if r.buf.Len() == 0 && r.headerSent {
		r.mu.Unlock()
		return
	}
	var data bytes.Buffer
	if !r.headerSent {
		writeStreamingWAVHeader(&data, r.stream.SampleRate(), 1, 16)
		r.headerSent = true
	}
	data.Write(r.buf.Bytes())
	r.buf.Reset()
	r.seq++
	chunk := Chunk{Seq: r.seq, Time: time.Now(), Data: data.Bytes()}
	r.mu.Unlock()

	r.handlers.chunk(chunk)
}

// Stop detaches from the stream, halts the cut loop and flushes the
// remaining PCM as a final chunk before returning.
func (r *WAVRecorder) Stop() error {
	r.mu.Lock()
	if !r.started || r.stopping {
		r.mu.Unlock()
		return nil
	}
	r.stopping = true
	r.mu.Unlock()

	// Detaching holds the stream's capture lock, so no Write can land
	// after this returns.
	r.stream.SetPCMSink(nil)

	close(r.quit)
	<-r.done
	r.cut()

	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	return nil
}

// writeStreamingWAVHeader writes a RIFF/WAVE header with unknown chunk
// sizes, the convention used when WAV is produced as a live stream.
func writeStreamingWAVHeader(w io.Writer, sampleRate, channels, bits int) {
	blockAlign := channels * bits / 8
	byteRate := sampleRate * blockAlign

	w.Write([]byte("RIFF"))
	binary.Write(w, binary.LittleEndian, uint32(0xFFFFFFFF))
	w.Write([]byte("WAVE"))

	w.Write([]byte("fmt "))
	binary.Write(w, binary.LittleEndian, uint32(16))
	binary.Write(w, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(w, binary.LittleEndian, uint16(channels))
	binary.Write(w, binary.LittleEndian, uint32(sampleRate))
	binary.Write(w, binary.LittleEndian, uint32(byteRate))
	binary.Write(w, binary.LittleEndian, uint16(blockAlign))
	binary.Write(w, binary.LittleEndian, uint16(bits))

	w.Write([]byte("data"))
	binary.Write(w, binary.LittleEndian, uint32(0xFFFFFFFF))
}
