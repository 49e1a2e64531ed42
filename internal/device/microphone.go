package device

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// microphone capture settings
const (
	micFramesPerBuffer = 1024
	micWindowSize      = 8192 // rolling sample window kept for visualization
)

// MicrophoneStream captures the default input device through PortAudio.
// The capture callback keeps a rolling window of recent samples for the
// waveform and forwards PCM to the attached sink while recording.
type MicrophoneStream struct {
	stream        *portaudio.Stream
	sampleRate    int
	channels      int
	amplification float32

	mu      sync.Mutex
	stopped bool
	window  []float32 // ring buffer of the most recent samples
	pos     int
	filled  int
	sink    io.Writer
	sinkErr error
}

// OpenMicrophone opens the default input device. PortAudio must already be
// initialized by the owning backend.
func OpenMicrophone(sampleRate, channels int, amplification float32) (*MicrophoneStream, error) {
	if amplification < 0.1 {
		amplification = 0.1
	}
	m := &MicrophoneStream{
		sampleRate:    sampleRate,
		channels:      channels,
		amplification: amplification,
		window:        make([]float32, micWindowSize),
	}

	stream, err := portaudio.OpenDefaultStream(
		channels, // input channels
		0,        // no output
		float64(sampleRate),
		micFramesPerBuffer,
		m.processAudio,
	)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	m.stream = stream
	return m, nil
}

// processAudio is the capture callback. Multi-channel input is averaged
// down to mono before amplification.
func (m *MicrophoneStream) processAudio(in []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	frames := len(in) / m.channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		sum := float32(0)
		for ch := 0; ch < m.channels; ch++ {
			sum += in[i*m.channels+ch]
		}
		mono[i] = (sum / float32(m.channels)) * m.amplification
	}

	for _, sample := range mono {
		m.window[m.pos] = sample
		m.pos = (m.pos + 1) % len(m.window)
	}
	if m.filled < len(m.window) {
		m.filled += len(mono)
		if m.filled > len(m.window) {
			m.filled = len(m.window)
		}
	}

	if m.sink != nil && m.sinkErr == nil {
		if _, err := m.sink.Write(pcm16Bytes(mono)); err != nil {
			m.sinkErr = err
		}
	}
}

// SampleRate reports the capture rate in Hz.
func (m *MicrophoneStream) SampleRate() int { return m.sampleRate }

// Samples copies the most recent n samples from the rolling window,
// oldest first.
func (m *MicrophoneStream) Samples(n int) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || n <= 0 {
		return nil
	}
	if n > m.filled {
		n = m.filled
	}
	out := make([]float32, n)
	start := (m.pos - n + len(m.window)) % len(m.window)
	for i := 0; i < n; i++ {
		out[i] = m.window[(start+i)%len(m.window)]
	}
	return out
}

// SetPCMSink attaches w as the PCM receiver for the capture callback.
func (m *MicrophoneStream) SetPCMSink(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = w
	m.sinkErr = nil
}

// StopAllTracks stops and closes the PortAudio stream. Safe to call more
// than once.
func (m *MicrophoneStream) StopAllTracks() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.sink = nil
	stream := m.stream
	m.stream = nil
	m.mu.Unlock()

	if stream != nil {
		stream.Stop()
		stream.Close()
	}
}

// AudioInput describes one capture device visible to PortAudio.
type AudioInput struct {
	Name       string
	Channels   int
	SampleRate float64
	Default    bool
}

// ListAudioInputs enumerates PortAudio capture devices. PortAudio must
// already be initialized by the owning backend.
func ListAudioInputs() ([]AudioInput, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var out []AudioInput
	for _, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		out = append(out, AudioInput{
			Name:       d.Name,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
			Default:    def != nil && d.Name == def.Name,
		})
	}
	return out, nil
}

// ProbeMicrophone reports the default input device name. It owns its own
// PortAudio lifetime so it can run without a backend.
func ProbeMicrophone() (string, error) {
	if err := portaudio.Initialize(); err != nil {
		return "", fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return "", fmt.Errorf("default input: %w", err)
	}
	return info.Name, nil
}

// pcm16Bytes converts float samples to 16-bit little-endian PCM with
// clipping at full scale.
func pcm16Bytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := float64(s)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(math.Round(v*math.MaxInt16))))
	}
	return out
}
