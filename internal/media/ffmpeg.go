package media

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"capdeck/internal/device"
)

// FFmpegFactory records camera streams by running ffmpeg against the
// claimed device and reading the encoded container from its stdout.
type FFmpegFactory struct{}

var ffmpegEncoderArgs = map[string][]string{
	EncodingWebMVP9: {"-c:v", "libvpx-vp9", "-deadline", "realtime", "-b:v", "1M", "-f", "webm"},
	EncodingWebMVP8: {"-c:v", "libvpx", "-deadline", "realtime", "-b:v", "1M", "-f", "webm"},
	// Fragmented output keeps the MP4 playable when written as a stream.
	EncodingMP4: {"-c:v", "libx264", "-preset", "ultrafast", "-movflags", "frag_keyframe+empty_moov", "-f", "mp4"},
}

// Supports reports whether an encoder mapping exists for the encoding.
func (FFmpegFactory) Supports(encoding string) bool {
	_, ok := ffmpegEncoderArgs[encoding]
	return ok
}

// New builds an ffmpeg recorder over a camera stream.
func (FFmpegFactory) New(stream device.Stream, encoding string, h Handlers) (Recorder, error) {
	args, ok := ffmpegEncoderArgs[encoding]
	if !ok {
		return nil, fmt.Errorf("ffmpeg recorder cannot write %q", encoding)
	}
	cam, ok := stream.(*device.CameraStream)
	if !ok {
		return nil, fmt.Errorf("ffmpeg recorder needs a camera stream, got %T", stream)
	}
	return &FFmpegRecorder{stream: cam, encoding: encoding, encArgs: args, handlers: h}, nil
}

// FFmpegRecorder pipes an ffmpeg capture process and cuts its stdout into
// chunks on every interval tick.
type FFmpegRecorder struct {
	stream   *device.CameraStream
	encoding string
	encArgs  []string
	handlers Handlers

	mu       sync.Mutex
	buf      bytes.Buffer
	seq      int
	started  bool
	stopping bool

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	exited chan struct{} // closed once the process and its reader are done
	quit   chan struct{} // stops the cut loop
}

// Encoding reports the negotiated encoding.
func (r *FFmpegRecorder) Encoding() string { return r.encoding }

// Start launches the capture process, its output reader and the cut loop.
func (r *FFmpegRecorder) Start(interval time.Duration) error {
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
	r.exited = make(chan struct{})
	r.mu.Unlock()

	args := []string{
		"-f", r.stream.InputFormat(),
		"-i", r.stream.DevicePath(),
	}
	args = append(args, r.encArgs...)
	args = append(args, "pipe:1")

	cmd := exec.Command(r.stream.FFmpegBinary(), args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("recorder stdout: %w", err)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("recorder stdin: %w", err)
	}
	cmd.Stderr = &r.stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	r.cmd = cmd
	r.stdin = stdin

	g := &errgroup.Group{}
	g.Go(func() error {
		block := make([]byte, 32*1024)
		for {
			n, err := stdout.Read(block)
			if n > 0 {
				r.mu.Lock()
				r.buf.Write(block[:n])
				r.mu.Unlock()
			}
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return fmt.Errorf("read capture output: %w", err)
			}
		}
	})
	g.Go(func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("capture process: %w", err)
		}
		return nil
	})

	go func() {
		err := g.Wait()
		close(r.exited)
		r.mu.Lock()
		stopping := r.stopping
		r.mu.Unlock()
		if stopping {
			return
		}
		// The process ended without a stop request.
		if err == nil {
			err = fmt.Errorf("capture process exited early")
		}
		r.handlers.fail(fmt.Errorf("%w (%s)", err, lastStderrLine(&r.stderr)))
	}()

	go func() {
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
	}()

	return nil
}

// cut emits everything read since the previous cut as one chunk.
func (r *FFmpegRecorder) cut() {
	r.mu.Lock()
	if r.buf.Len() == 0 {
		r.mu.Unlock()
		return
	}
	data := make([]byte, r.buf.Len())
	copy(data, r.buf.Bytes())
	r.buf.Reset()
	r.seq++
	chunk := Chunk{Seq: r.seq, Time: time.Now(), Data: data}
	r.mu.Unlock()

	r.handlers.chunk(chunk)
}

// Stop asks ffmpeg to finish, drains the remaining output and flushes the
// final chunk before returning.
func (r *FFmpegRecorder) Stop() error {
	r.mu.Lock()
	if !r.started || r.stopping {
		r.mu.Unlock()
		return nil
	}
	r.stopping = true
	r.mu.Unlock()

	// "q" on stdin makes ffmpeg finalize the container and exit. Kill is
	// the fallback if it does not oblige.
	if r.stdin != nil {
		io.WriteString(r.stdin, "q")
		r.stdin.Close()
	}
	select {
	case <-r.exited:
	case <-time.After(5 * time.Second):
		if r.cmd.Process != nil {
			r.cmd.Process.Kill()
		}
		<-r.exited
	}
	close(r.quit)
	r.cut()
	return nil
}

func lastStderrLine(buf *bytes.Buffer) string {
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	last := bytes.TrimSpace(lines[len(lines)-1])
	if len(last) > 120 {
		last = last[:120]
	}
	return string(last)
}
