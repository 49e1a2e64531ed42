// Package ui renders the capture deck as a bubbletea program.
package ui

import (
	"context"
	"image"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"capdeck/internal/app"
	"capdeck/internal/controller"
	"capdeck/internal/waveform"
)

// Pane sizes in character cells.
const (
	waveWidth   = 64
	waveHeight  = 8
	previewCols = 56
	previewRows = 14
)

const (
	// tickInterval drives status refresh and notice delivery.
	tickInterval = 100 * time.Millisecond
	// frameInterval drives the waveform redraw while recording.
	frameInterval = waveform.FrameInterval * time.Millisecond
	// previewInterval drives camera frame fetches while previewing.
	previewInterval = 200 * time.Millisecond

	opTimeout    = 15 * time.Second
	frameTimeout = 2 * time.Second
)

// TickMsg is the steady UI refresh tick.
type TickMsg time.Time

// frameTickMsg asks for one waveform frame. The generation retires
// ticks from finished recordings.
type frameTickMsg struct{ gen int }

// previewTickMsg asks for one camera frame fetch.
type previewTickMsg struct{ gen int }

type locationDoneMsg struct{}

type audioToggleMsg struct{ err error }

type videoOpMsg struct {
	op  string
	err error
}

type previewFrameMsg struct {
	gen int
	img image.Image
	err error
}

// Model is the UI state of the capture deck.
type Model struct {
	app *app.App

	renderer *waveform.Renderer
	waveMode waveform.Mode
	waveGen  int

	previewGen   int
	previewFrame image.Image

	notice string

	locBusy   bool
	audioBusy bool
	videoBusy bool

	width  int
	height int
}

// NewModel creates the UI model bound to a wired app.
func NewModel(a *app.App) Model {
	return Model{app: a, waveMode: waveform.ModeWave}
}

// Init starts the steady refresh tick.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func frameTick(gen int) tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameTickMsg{gen: gen}
	})
}

func previewTick(gen int) tea.Cmd {
	return tea.Tick(previewInterval, func(time.Time) tea.Msg {
		return previewTickMsg{gen: gen}
	})
}

// Update advances the UI state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		if m.notice == "" {
			if notice, ok := m.app.Notices.Pop(); ok {
				m.notice = notice
			}
		}
		return m, tick()

	case frameTickMsg:
		return m.handleFrameTick(msg)

	case previewTickMsg:
		if msg.gen != m.previewGen || !m.videoStreaming() {
			return m, nil
		}
		return m, m.fetchFrameCmd(msg.gen)

	case previewFrameMsg:
		if msg.gen != m.previewGen {
			return m, nil
		}
		if msg.err == nil {
			m.previewFrame = msg.img
		}
		if !m.videoStreaming() {
			return m, nil
		}
		return m, previewTick(msg.gen)

	case locationDoneMsg:
		m.locBusy = false
		return m, nil

	case audioToggleMsg:
		m.audioBusy = false
		if m.app.Audio.Recording() {
			// Every recording gets a fresh renderer; a spent one never
			// comes back.
			m.waveGen++
			canvas := waveform.NewCanvas(waveWidth, waveHeight)
			m.renderer = waveform.NewRenderer(canvas, m.waveMode, m.app.Audio.SampleRate())
			return m, frameTick(m.waveGen)
		}
		return m, nil

	case videoOpMsg:
		return m.handleVideoOp(msg)
	}

	return m, nil
}

// handleFrameTick draws one waveform frame and reschedules only while
// the renderer asks for more.
func (m Model) handleFrameTick(msg frameTickMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.waveGen || m.renderer == nil {
		return m, nil
	}
	recording := m.app.Audio.Recording()
	samples := m.app.Audio.Samples(waveform.WindowSize)
	if m.renderer.Frame(samples, recording) {
		return m, frameTick(msg.gen)
	}
	return m, nil
}

func (m Model) handleVideoOp(msg videoOpMsg) (tea.Model, tea.Cmd) {
	m.videoBusy = false
	switch msg.op {
	case "preview", "flip":
		if msg.err == nil && m.videoStreaming() {
			m.previewGen++
			return m, m.fetchFrameCmd(m.previewGen)
		}
		m.previewFrame = nil
	case "close":
		m.previewFrame = nil
		m.previewGen++
	case "stop":
		// Back to previewing; the frame loop keeps running.
	}
	if m.app.Video.State() == controller.StateError {
		m.previewFrame = nil
		m.previewGen++
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A visible notice blocks everything except dismissal and quit.
	if m.notice != "" {
		switch msg.String() {
		case "enter", "esc":
			m.notice = ""
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "l":
		if m.locBusy || !LocationControl(m.app.Location.Busy()).Enabled {
			return m, nil
		}
		m.locBusy = true
		return m, m.locateCmd()

	case "a":
		if m.audioBusy || !AudioToggleControl(m.app.Audio.State()).Enabled {
			return m, nil
		}
		m.audioBusy = true
		return m, m.audioToggleCmd()

	case "v":
		if m.waveMode == waveform.ModeWave {
			m.waveMode = waveform.ModeSpectrum
		} else {
			m.waveMode = waveform.ModeWave
		}
		if m.renderer != nil && !m.renderer.Spent() {
			m.renderer.SetMode(m.waveMode)
		}
		return m, nil

	case "p":
		state := m.app.Video.State()
		if m.videoBusy || !PreviewControl(state).Enabled {
			return m, nil
		}
		m.videoBusy = true
		if state == controller.StatePreviewing {
			return m, m.videoCmd("close", func(context.Context) error {
				return m.app.Video.ClosePreview()
			})
		}
		return m, m.videoCmd("preview", m.app.Video.Preview)

	case "f":
		if m.videoBusy || !FlipControl(m.app.Video.State(), m.app.Video.CanFlip()).Enabled {
			return m, nil
		}
		m.videoBusy = true
		return m, m.videoCmd("flip", m.app.Video.Flip)

	case "s":
		if m.videoBusy || !PhotoControl(m.app.Video.State()).Enabled {
			return m, nil
		}
		m.videoBusy = true
		return m, m.videoCmd("photo", m.app.Video.TakePhoto)

	case "r":
		state := m.app.Video.State()
		if m.videoBusy || !RecordControl(state).Enabled {
			return m, nil
		}
		m.videoBusy = true
		if state == controller.StateRecording {
			return m, m.videoCmd("stop", func(context.Context) error {
				return m.app.Video.StopRecording()
			})
		}
		return m, m.videoCmd("record", func(context.Context) error {
			return m.app.Video.StartRecording()
		})
	}

	return m, nil
}

func (m Model) locateCmd() tea.Cmd {
	location := m.app.Location
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		location.Request(ctx)
		return locationDoneMsg{}
	}
}

func (m Model) audioToggleCmd() tea.Cmd {
	audio := m.app.Audio
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return audioToggleMsg{err: audio.Toggle(ctx)}
	}
}

func (m Model) videoCmd(op string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return videoOpMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) fetchFrameCmd(gen int) tea.Cmd {
	video := m.app.Video
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
		defer cancel()
		img, err := video.Frame(ctx)
		return previewFrameMsg{gen: gen, img: img, err: err}
	}
}

func (m Model) videoStreaming() bool {
	state := m.app.Video.State()
	return state == controller.StatePreviewing || state == controller.StateRecording
}
