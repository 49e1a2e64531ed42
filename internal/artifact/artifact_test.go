package artifact

import "testing"

func TestNewAssignsIdentity(t *testing.T) {
	a := New(KindPhoto, "image/jpeg", []byte{0xff, 0xd8})
	b := New(KindPhoto, "image/jpeg", []byte{0xff, 0xd8})

	if a.ID == "" || b.ID == "" {
		t.Fatal("artifact missing id")
	}
	if a.ID == b.ID {
		t.Fatal("artifact ids must be unique")
	}
	if a.CreatedAt.IsZero() {
		t.Fatal("artifact missing timestamp")
	}
}

func TestDisplaySizeKeepsAspectRatio(t *testing.T) {
	w, h := DisplaySize(1920, 1080)
	if w != DisplayWidth {
		t.Fatalf("expected fixed width %d, got %d", DisplayWidth, w)
	}
	if h != 270 {
		t.Fatalf("expected scaled height 270, got %d", h)
	}

	w, h = DisplaySize(640, 480)
	if w != 480 || h != 360 {
		t.Fatalf("unexpected size %dx%d", w, h)
	}
}

func TestDisplaySizeToleratesUnknownResolution(t *testing.T) {
	w, h := DisplaySize(0, 0)
	if w != DisplayWidth || h != 0 {
		t.Fatalf("unexpected size %dx%d", w, h)
	}
}

func TestWithResolutionDerivesDisplaySize(t *testing.T) {
	a := New(KindVideo, "video/webm", nil).WithResolution(1280, 720)
	if a.Width != 1280 || a.Height != 720 {
		t.Fatalf("unexpected resolution %dx%d", a.Width, a.Height)
	}
	if a.DisplayWidth != DisplayWidth || a.DisplayHeight != 270 {
		t.Fatalf("unexpected display size %dx%d", a.DisplayWidth, a.DisplayHeight)
	}
}

func TestDisplaySizeAtCustomWidth(t *testing.T) {
	w, h := DisplaySizeAt(320, 640, 480)
	if w != 320 || h != 240 {
		t.Fatalf("unexpected size %dx%d", w, h)
	}
}

func TestGalleryAppendsInOrder(t *testing.T) {
	g := NewGallery()
	g.Add(New(KindAudio, "audio/wav", []byte("a")))
	g.Add(New(KindVideo, "video/mp4", []byte("b")))

	if g.Len() != 2 {
		t.Fatalf("expected 2 artifacts, got %d", g.Len())
	}

	items := g.All()
	if items[0].Kind != KindAudio || items[1].Kind != KindVideo {
		t.Fatalf("unexpected order: %v then %v", items[0].Kind, items[1].Kind)
	}

	// All returns a copy; mutating it must not touch the gallery.
	items[0].Kind = KindPhoto
	if g.All()[0].Kind != KindAudio {
		t.Fatal("All leaked internal storage")
	}
}
