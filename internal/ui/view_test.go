package ui

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"capdeck/internal/artifact"
)

func TestHumanSize(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tc := range cases {
		if got := humanSize(tc.n); got != tc.want {
			t.Fatalf("humanSize(%d): expected %q, got %q", tc.n, tc.want, got)
		}
	}
}

func TestRenderFrameGrid(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 32, 16))
	out := renderFrame(img, 8, 4)

	rows := strings.Split(out, "\n")
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if len(row) != 8 {
			t.Fatalf("row %d: expected 8 cells, got %d", i, len(row))
		}
	}
}

func TestRenderFrameLuminance(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 255})

	out := renderFrame(img, 2, 1)
	if len(out) != 2 {
		t.Fatalf("expected 2 cells, got %q", out)
	}
	if out[0] != ' ' {
		t.Fatalf("expected black cell to render blank, got %q", out[0])
	}
	if out[1] != '@' {
		t.Fatalf("expected white cell to render densest glyph, got %q", out[1])
	}
}

func TestDescribeArtifactPhoto(t *testing.T) {
	a := artifact.New(artifact.KindPhoto, "image/jpeg", make([]byte, 2048))
	a = a.WithResolution(640, 480)

	desc := describeArtifact(a)
	if !strings.Contains(desc, "photo") {
		t.Fatalf("expected kind in listing, got %q", desc)
	}
	if !strings.Contains(desc, "640x480") {
		t.Fatalf("expected source resolution in listing, got %q", desc)
	}
	if !strings.Contains(desc, "shown 480x360") {
		t.Fatalf("expected display size in listing, got %q", desc)
	}
	if !strings.Contains(desc, "2.0 KB") {
		t.Fatalf("expected size in listing, got %q", desc)
	}
}

func TestDescribeArtifactClipDuration(t *testing.T) {
	a := artifact.New(artifact.KindAudio, "audio/wav", []byte("riff"))
	a.Duration = 1500 * time.Millisecond

	desc := describeArtifact(a)
	if !strings.Contains(desc, "1.5s") {
		t.Fatalf("expected duration in listing, got %q", desc)
	}
}
