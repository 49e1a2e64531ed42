package waveform

// WindowSize is the number of recent samples a frame draws from.
const WindowSize = 2048

// Mode selects what the renderer draws.
type Mode string

const (
	// ModeWave draws the time-domain trace.
	ModeWave Mode = "wave"
	// ModeSpectrum draws frequency magnitude bars.
	ModeSpectrum Mode = "spectrum"
)

// FrameInterval is the target delay between redraws in milliseconds.
const FrameInterval = 33

// Renderer drives the repeating redraw of the live trace during one
// recording. While the recording runs each Frame call draws the window
// and asks to be scheduled again. Once the recording has ended the
// renderer draws a single clearing frame and is spent; it never
// reschedules after that, so a stopped trace cannot come back to life.
type Renderer struct {
	canvas     *Canvas
	mode       Mode
	spectrum   *Spectrum
	sampleRate int
	spent      bool
}

// NewRenderer creates a renderer drawing into canvas. The sample rate
// is only used by the spectrum mode.
func NewRenderer(canvas *Canvas, mode Mode, sampleRate int) *Renderer {
	return &Renderer{
		canvas:     canvas,
		mode:       mode,
		spectrum:   NewSpectrum(),
		sampleRate: sampleRate,
	}
}

// Canvas returns the grid the renderer draws into.
func (r *Renderer) Canvas() *Canvas {
	return r.canvas
}

// Mode returns what the renderer draws.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// SetMode switches the drawing style for subsequent frames.
func (r *Renderer) SetMode(mode Mode) {
	r.mode = mode
}

// Spent reports whether the renderer has drawn its final frame.
func (r *Renderer) Spent() bool {
	return r.spent
}

// Peak estimates the dominant frequency of the window, in Hz.
func (r *Renderer) Peak(samples []float32) float64 {
	return r.spectrum.Peak(samples, r.sampleRate)
}

// Frame draws one frame from the given sample window and reports
// whether another frame should be scheduled. When recording is false
// it wipes the canvas, marks the renderer spent and returns false;
// every later call is a no-op.
func (r *Renderer) Frame(samples []float32, recording bool) bool {
	if r.spent {
		return false
	}
	if !recording {
		r.canvas.Clear()
		r.spent = true
		return false
	}

	r.canvas.Clear()
	switch r.mode {
	case ModeSpectrum:
		r.drawSpectrum(samples)
	default:
		r.drawWave(samples)
	}
	return true
}

// drawWave plots amplitude against time, one sample per column, with a
// flat line at the vertical centre when there is nothing to show.
func (r *Renderer) drawWave(samples []float32) {
	width, height := r.canvas.Size()
	mid := (height - 1) / 2

	if len(samples) == 0 {
		for x := 0; x < width; x++ {
			r.canvas.Set(x, mid)
		}
		return
	}

	scale := float64(height-1) / 2.0
	ys := make([]int, width)
	for x := 0; x < width; x++ {
		v := float64(samples[x*len(samples)/width])
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		ys[x] = mid - int(v*scale)
	}
	r.canvas.Polyline(ys)
}

// drawSpectrum plots magnitude bars rising from the bottom edge.
func (r *Renderer) drawSpectrum(samples []float32) {
	width, height := r.canvas.Size()
	bars := r.spectrum.Bars(samples, r.sampleRate, width)
	for x, bar := range bars {
		barHeight := int(bar * float64(height))
		if bar > 0 && barHeight == 0 {
			barHeight = 1
		}
		if barHeight > 0 {
			r.canvas.VSpan(x, height-barHeight, height-1)
		}
	}
}
