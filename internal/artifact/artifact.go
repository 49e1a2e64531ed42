// Package artifact holds captured media and the session gallery.
package artifact

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a captured artifact.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// DisplayWidth is the fixed on-screen width for visual artifacts. Height
// follows the source aspect ratio.
const DisplayWidth = 480

// Artifact is one captured result: a photo, an audio clip or a video
// clip. Data holds the encoded bytes.
type Artifact struct {
	ID        string
	Kind      Kind
	Encoding  string
	Data      []byte
	CreatedAt time.Time

	// Width and Height are the source resolution of visual artifacts.
	Width  int
	Height int
	// DisplayWidth and DisplayHeight are the scaled presentation size.
	DisplayWidth  int
	DisplayHeight int

	// Duration is the recorded length of clips.
	Duration time.Duration
}

// New creates an artifact with a fresh ID and timestamp.
func New(kind Kind, encoding string, data []byte) Artifact {
	return Artifact{
		ID:        uuid.New().String(),
		Kind:      kind,
		Encoding:  encoding,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

// WithResolution records the source resolution and derives the
// presentation size from it.
func (a Artifact) WithResolution(width, height int) Artifact {
	a.Width = width
	a.Height = height
	a.DisplayWidth, a.DisplayHeight = DisplaySize(width, height)
	return a
}

// DisplaySize scales a source resolution to the fixed display width,
// preserving aspect ratio.
func DisplaySize(width, height int) (int, int) {
	return DisplaySizeAt(DisplayWidth, width, height)
}

// DisplaySizeAt scales a source resolution to an explicit display
// width, preserving aspect ratio.
func DisplaySizeAt(displayWidth, width, height int) (int, int) {
	if displayWidth <= 0 {
		displayWidth = DisplayWidth
	}
	if width <= 0 || height <= 0 {
		return displayWidth, 0
	}
	scaled := int(float64(height) / (float64(width) / float64(displayWidth)))
	return displayWidth, scaled
}

// Gallery is the append-only collection of artifacts captured in one
// session.
type Gallery struct {
	mu    sync.Mutex
	items []Artifact
}

// NewGallery creates an empty gallery.
func NewGallery() *Gallery {
	return &Gallery{}
}

// Add appends an artifact.
func (g *Gallery) Add(a Artifact) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = append(g.items, a)
}

// All returns a copy of the gallery contents in capture order.
func (g *Gallery) All() []Artifact {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Artifact, len(g.items))
	copy(out, g.items)
	return out
}

// Len reports the number of artifacts captured so far.
func (g *Gallery) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}
