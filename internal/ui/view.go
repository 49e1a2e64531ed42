package ui

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"capdeck/internal/artifact"
	"capdeck/internal/controller"
	"capdeck/internal/waveform"
)

// galleryTail is how many recent captures the gallery card lists.
const galleryTail = 5

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	controlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87D7FF"))

	recStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#D70000")).
			PaddingLeft(1).
			PaddingRight(1)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			Padding(0, 1).
			MarginBottom(1)

	noticeStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFAF00")).
			Foreground(lipgloss.Color("#FFD787")).
			Padding(0, 2).
			MarginBottom(1)
)

// renderControl shows a keycap and its action, dimmed when the action
// is unavailable in the current state.
func renderControl(key string, c Control) string {
	text := fmt.Sprintf("[%s] %s", key, c.Label)
	if !c.Enabled {
		return dimStyle.Render(text)
	}
	return controlStyle.Render(text)
}

// gated disables a control while an operation is already in flight.
func gated(c Control, busy bool) Control {
	if busy {
		c.Enabled = false
	}
	return c
}

// View renders the UI
func (m Model) View() string {
	s := titleStyle.Render("CapDeck - Device Capture Deck")
	s += "\n"

	if m.notice != "" {
		s += noticeStyle.Render(m.notice + "\n\n" + "Press enter to dismiss")
		s += "\n"
	}

	s += m.locationCard()
	s += "\n"
	s += m.audioCard()
	s += "\n"
	s += m.videoCard()
	s += "\n"
	s += m.galleryCard()
	s += "\n"
	s += infoStyle.Render("l: location  a: audio  p: preview  r: record  s: photo  f: flip  v: wave mode  q: quit")

	return s
}

func (m Model) locationCard() string {
	lines := []string{headerStyle.Render("Location")}
	lines = append(lines, infoStyle.Render(m.app.Location.Status()))
	lines = append(lines, renderControl("l", LocationControl(m.locBusy || m.app.Location.Busy())))

	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) audioCard() string {
	audio := m.app.Audio
	state := audio.State()

	lines := []string{headerStyle.Render("Audio")}
	lines = append(lines, renderControl("a", gated(AudioToggleControl(state), m.audioBusy)))

	switch state {
	case controller.StateRecording:
		if m.renderer != nil && !m.renderer.Spent() {
			lines = append(lines, m.renderer.Canvas().String())
		}
		samples := audio.Samples(waveform.WindowSize)
		_, db := waveform.Level(samples)
		status := fmt.Sprintf("%.1f dBFS | %s | %d chunks", db, audio.Encoding(), audio.ChunkCount())
		if m.renderer != nil && m.waveMode == waveform.ModeSpectrum {
			if peak := m.renderer.Peak(samples); peak > 0 {
				status += fmt.Sprintf(" | peak %.0f Hz", peak)
			}
		}
		lines = append(lines, infoStyle.Render(status))
	case controller.StateError:
		if err := audio.Err(); err != nil {
			lines = append(lines, errorStyle.Render("Recorder error: "+err.Error()))
		}
	}

	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) videoCard() string {
	video := m.app.Video
	state := video.State()

	controls := strings.Join([]string{
		renderControl("p", gated(PreviewControl(state), m.videoBusy)),
		renderControl("r", gated(RecordControl(state), m.videoBusy)),
		renderControl("s", gated(PhotoControl(state), m.videoBusy)),
		renderControl("f", gated(FlipControl(state, video.CanFlip()), m.videoBusy)),
	}, "  ")

	lines := []string{headerStyle.Render("Video"), controls}

	switch state {
	case controller.StatePreviewing, controller.StateRecording:
		if m.previewFrame != nil {
			lines = append(lines, renderFrame(m.previewFrame, previewCols, previewRows))
		} else {
			lines = append(lines, dimStyle.Render("Waiting for camera frames..."))
		}
		status := fmt.Sprintf("Camera: %s", video.Facing())
		if state == controller.StateRecording {
			status = recStyle.Render("REC") + infoStyle.Render(fmt.Sprintf(
				" %s | %s | %d chunks", video.Facing(), video.Encoding(), video.ChunkCount()))
			lines = append(lines, status)
		} else {
			lines = append(lines, infoStyle.Render(status))
		}
	case controller.StateError:
		if err := video.Err(); err != nil {
			lines = append(lines, errorStyle.Render("Camera error: "+err.Error()))
		}
	}

	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) galleryCard() string {
	items := m.app.Gallery.All()

	lines := []string{headerStyle.Render(fmt.Sprintf("Gallery (%d)", len(items)))}
	if len(items) == 0 {
		lines = append(lines, dimStyle.Render("No captures yet."))
	}

	start := 0
	if len(items) > galleryTail {
		start = len(items) - galleryTail
	}
	for _, a := range items[start:] {
		lines = append(lines, infoStyle.Render(describeArtifact(a)))
	}

	return cardStyle.Render(strings.Join(lines, "\n"))
}

// describeArtifact is one gallery listing line.
func describeArtifact(a artifact.Artifact) string {
	desc := fmt.Sprintf("%-5s %s %s", a.Kind, a.CreatedAt.Format("15:04:05"), humanSize(len(a.Data)))
	if a.Width > 0 && a.Height > 0 {
		desc += fmt.Sprintf(" %dx%d (shown %dx%d)", a.Width, a.Height, a.DisplayWidth, a.DisplayHeight)
	}
	if a.Duration > 0 {
		desc += fmt.Sprintf(" %.1fs", a.Duration.Seconds())
	}
	return desc
}

// humanSize formats a byte count for the gallery listing.
func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// renderFrame downsamples a camera frame onto a character grid using a
// luminance ramp.
func renderFrame(img image.Image, cols, rows int) string {
	const ramp = " .:-=+*#%@"

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || cols <= 0 || rows <= 0 {
		return ""
	}

	var sb strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			px := b.Min.X + x*b.Dx()/cols
			py := b.Min.Y + y*b.Dy()/rows
			r, g, bl, _ := img.At(px, py).RGBA()
			luma := (299*r + 587*g + 114*bl) / 1000
			sb.WriteByte(ramp[int(luma)*(len(ramp)-1)/0xFFFF])
		}
		if y < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
