package media

import (
	"sync"
	"time"

	"capdeck/internal/device"
)

// StubRecorderConfig configures the stub recorder factory.
type StubRecorderConfig struct {
	// Supported is the set of encodings the factory claims to support.
	// Nil accepts every built-in encoding.
	Supported []string
	// NewErr makes recorder construction fail.
	NewErr error
	// AutoChunk emits a synthetic chunk on this cadence after Start.
	// Zero disables the ticker; tests then drive chunks by hand.
	AutoChunk time.Duration
	// ChunkPayload is the payload of synthetic chunks.
	ChunkPayload []byte
	// TailChunks are delivered during Stop, before it returns, to mimic
	// a backend flushing buffered data.
	TailChunks [][]byte
}

// DefaultStubRecorderConfig returns defaults for tests and demo mode.
func DefaultStubRecorderConfig() *StubRecorderConfig {
	return &StubRecorderConfig{ChunkPayload: []byte("chunk")}
}

// StubRecorderFactory builds deterministic in-memory recorders.
type StubRecorderFactory struct {
	cfg *StubRecorderConfig

	mu   sync.Mutex
	last *StubRecorder
}

// NewStubRecorderFactory creates a stub factory. Nil config uses defaults.
func NewStubRecorderFactory(cfg *StubRecorderConfig) *StubRecorderFactory {
	if cfg == nil {
		cfg = DefaultStubRecorderConfig()
	}
	return &StubRecorderFactory{cfg: cfg}
}

// Supports consults the configured encoding set.
func (f *StubRecorderFactory) Supports(encoding string) bool {
	if f.cfg.Supported == nil {
		switch encoding {
		case EncodingWebMOpus, EncodingOggOpus, EncodingWAV,
			EncodingWebMVP9, EncodingWebMVP8, EncodingMP4:
			return true
		}
		return false
	}
	for _, e := range f.cfg.Supported {
		if e == encoding {
			return true
		}
	}
	return false
}

// New builds a stub recorder. The factory keeps a handle to it so tests
// can emit chunks and errors by hand.
func (f *StubRecorderFactory) New(stream device.Stream, encoding string, h Handlers) (Recorder, error) {
	if f.cfg.NewErr != nil {
		return nil, f.cfg.NewErr
	}
	r := &StubRecorder{cfg: f.cfg, encoding: encoding, handlers: h}
	f.mu.Lock()
	f.last = r
	f.mu.Unlock()
	return r, nil
}

// Last returns the most recently built recorder.
func (f *StubRecorderFactory) Last() *StubRecorder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// StubRecorder emits chunks on demand or on a ticker.
type StubRecorder struct {
	cfg      *StubRecorderConfig
	encoding string
	handlers Handlers

	mu       sync.Mutex
	seq      int
	started  bool
	stopping bool
	stopped  bool
	quit     chan struct{}
	done     chan struct{}
}

// Encoding reports the negotiated encoding.
func (r *StubRecorder) Encoding() string { return r.encoding }

// Start arms the ticker when AutoChunk is configured.
func (r *StubRecorder) Start(interval time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	r.started = true
	if r.cfg.AutoChunk > 0 {
		r.quit = make(chan struct{})
		r.done = make(chan struct{})
		go r.tick()
	}
	return nil
}

func (r *StubRecorder) tick() {
	defer close(r.done)
	ticker := time.NewTicker(r.cfg.AutoChunk)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.EmitChunk(r.cfg.ChunkPayload)
		case <-r.quit:
			return
		}
	}
}

// EmitChunk delivers one chunk through the handlers.
func (r *StubRecorder) EmitChunk(data []byte) {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.seq++
	chunk := Chunk{Seq: r.seq, Time: time.Now(), Data: data}
	r.mu.Unlock()
	r.handlers.chunk(chunk)
}

// EmitError delivers a runtime error through the handlers.
func (r *StubRecorder) EmitError(err error) {
	r.handlers.fail(err)
}

// Stop halts the ticker and delivers the configured tail chunks before
// returning.
func (r *StubRecorder) Stop() error {
	r.mu.Lock()
	if !r.started || r.stopping {
		r.mu.Unlock()
		return nil
	}
	r.stopping = true
	quit, done := r.quit, r.done
	r.mu.Unlock()

	if quit != nil {
		close(quit)
		<-done
	}
	for _, tail := range r.cfg.TailChunks {
		r.mu.Lock()
		r.seq++
		chunk := Chunk{Seq: r.seq, Time: time.Now(), Data: tail}
		r.mu.Unlock()
		r.handlers.chunk(chunk)
	}

	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	return nil
}
