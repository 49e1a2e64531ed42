package device

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // frame grabs are decoded from MJPEG
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
)

// CameraDevice identifies one camera and the orientation it is mapped to.
type CameraDevice struct {
	Path   string
	Facing FacingMode
}

// Camera grabs frames and clips from local cameras through ffmpeg. The
// first enumerated device is treated as front facing and the second as
// rear, which mirrors how laptops and phones order their cameras.
type Camera struct {
	binary  string
	devices []CameraDevice

	mu      sync.Mutex
	claimed map[string]bool
}

// NewCamera enumerates capture devices using ffmpeg at binary. Explicit
// paths override enumeration; they are mapped to facings in order.
func NewCamera(binary string, paths []string) (*Camera, error) {
	if binary == "" {
		binary = "ffmpeg"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}
	if len(paths) == 0 {
		paths = detectCameraPaths()
	}
	devices := make([]CameraDevice, 0, len(paths))
	for i, p := range paths {
		facing := FacingFront
		if i > 0 {
			facing = FacingRear
		}
		devices = append(devices, CameraDevice{Path: p, Facing: facing})
	}
	return &Camera{binary: binary, devices: devices, claimed: make(map[string]bool)}, nil
}

// Devices lists the enumerated cameras.
func (c *Camera) Devices() []CameraDevice {
	out := make([]CameraDevice, len(c.devices))
	copy(out, c.devices)
	return out
}

// FacingModes reports which orientations the enumerated devices cover.
func (c *Camera) FacingModes() []FacingMode {
	modes := make([]FacingMode, 0, 2)
	for _, d := range c.devices {
		modes = append(modes, d.Facing)
	}
	return modes
}

func (c *Camera) deviceFor(facing FacingMode) (CameraDevice, error) {
	if len(c.devices) == 0 {
		return CameraDevice{}, fmt.Errorf("camera: %w", ErrNoDevice)
	}
	if facing == "" {
		return c.devices[0], nil
	}
	for _, d := range c.devices {
		if d.Facing == facing {
			return d, nil
		}
	}
	return CameraDevice{}, fmt.Errorf("no %s facing camera: %w", facing, ErrNoDevice)
}

// Open claims the camera for the given facing and probes one frame to
// validate access and learn the native resolution. A probe failure is the
// denial path for camera streams.
func (c *Camera) Open(ctx context.Context, facing FacingMode) (*CameraStream, error) {
	dev, err := c.deviceFor(facing)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.claimed[dev.Path] {
		c.mu.Unlock()
		return nil, fmt.Errorf("camera %s already in use", dev.Path)
	}
	c.claimed[dev.Path] = true
	c.mu.Unlock()

	s := &CameraStream{camera: c, device: dev}
	frame, err := s.Frame(ctx)
	if err != nil {
		s.StopAllTracks()
		return nil, fmt.Errorf("camera probe: %w", err)
	}
	bounds := frame.Bounds()
	s.width, s.height = bounds.Dx(), bounds.Dy()
	return s, nil
}

func (c *Camera) release(path string) {
	c.mu.Lock()
	delete(c.claimed, path)
	c.mu.Unlock()
}

// CameraStream is a claimed camera. Frames are grabbed on demand; clip
// recording attaches an ffmpeg process through the recorder layer.
type CameraStream struct {
	camera *Camera
	device CameraDevice
	width  int
	height int

	mu      sync.Mutex
	stopped bool
}

// StopAllTracks releases the camera claim. Safe to call more than once.
func (s *CameraStream) StopAllTracks() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()
	s.camera.release(s.device.Path)
}

// Facing reports the orientation the stream was opened with.
func (s *CameraStream) Facing() FacingMode { return s.device.Facing }

// FacingModes reports the orientations the backend can supply.
func (s *CameraStream) FacingModes() []FacingMode { return s.camera.FacingModes() }

// Resolution reports the probed native frame size.
func (s *CameraStream) Resolution() (int, int) { return s.width, s.height }

// DevicePath exposes the claimed device path for the clip recorder.
func (s *CameraStream) DevicePath() string { return s.device.Path }

// InputFormat names the ffmpeg input format for this platform.
func (s *CameraStream) InputFormat() string { return cameraInputFormat() }

// FFmpegBinary exposes the configured ffmpeg binary for the clip recorder.
func (s *CameraStream) FFmpegBinary() string { return s.camera.binary }

// Frame grabs a single frame at native resolution via ffmpeg.
func (s *CameraStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, fmt.Errorf("camera stream stopped: %w", ErrNoDevice)
	}
	s.mu.Unlock()

	cmd := exec.CommandContext(ctx, s.camera.binary,
		"-f", cameraInputFormat(),
		"-i", s.device.Path,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("grab frame from %s: %w (%s)", s.device.Path, err, firstLine(errOut.Bytes()))
	}
	img, _, err := image.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// cameraInputFormat picks the ffmpeg capture format for this platform.
func cameraInputFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "v4l2"
	}
}

// detectCameraPaths enumerates capture devices for this platform.
func detectCameraPaths() []string {
	switch runtime.GOOS {
	case "linux":
		matches, _ := filepath.Glob("/dev/video*")
		sort.Strings(matches)
		return matches
	case "darwin":
		// AVFoundation addresses devices by index.
		return []string{"0"}
	default:
		return nil
	}
}

// firstLine trims process output down to its first line for error messages.
func firstLine(b []byte) string {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	if len(b) > 120 {
		b = b[:120]
	}
	return string(bytes.TrimSpace(b))
}
